package types_test

import (
	"encoding/json"
	"testing"

	"github.com/ze-tech/passbold/internal/types"
	. "github.com/onsi/gomega"
)

func TestMfaProviderListUnmarshalListForm(t *testing.T) {
	g := NewWithT(t)

	var list types.MfaProviderList
	g.Expect(json.Unmarshal([]byte(`["totp","duo"]`), &list)).To(Succeed())
	g.Expect(list).To(Equal(types.MfaProviderList{"totp", "duo"}))
}

func TestMfaProviderListUnmarshalMapForm(t *testing.T) {
	g := NewWithT(t)

	var list types.MfaProviderList
	g.Expect(json.Unmarshal([]byte(`{"duo":true,"totp":true,"yubikey":false}`), &list)).To(Succeed())
	// map form decodes into canonical order, disabled entries dropped
	g.Expect(list).To(Equal(types.MfaProviderList{"totp", "duo"}))
}

func TestMfaProviderListUnmarshalIsIdempotent(t *testing.T) {
	g := NewWithT(t)

	var first types.MfaProviderList
	g.Expect(json.Unmarshal([]byte(`{"totp":true}`), &first)).To(Succeed())

	encoded, err := json.Marshal(first)
	g.Expect(err).NotTo(HaveOccurred())

	var second types.MfaProviderList
	g.Expect(json.Unmarshal(encoded, &second)).To(Succeed())
	g.Expect(second).To(Equal(first))
}

func TestMfaProviderListPreservesUnknownTruthyKeys(t *testing.T) {
	g := NewWithT(t)

	var list types.MfaProviderList
	g.Expect(json.Unmarshal([]byte(`{"totp":true,"carrier-pigeon":true,"fax":false}`), &list)).To(Succeed())
	g.Expect(list).To(ContainElements("totp", "carrier-pigeon"))
	g.Expect(list).NotTo(ContainElement("fax"))
}

func TestMfaProviderListUnmarshalRejectsScalars(t *testing.T) {
	g := NewWithT(t)

	var list types.MfaProviderList
	g.Expect(json.Unmarshal([]byte(`"totp"`), &list)).NotTo(Succeed())
	g.Expect(json.Unmarshal([]byte(`42`), &list)).NotTo(Succeed())
}

func TestParseMfaProvider(t *testing.T) {
	g := NewWithT(t)

	for _, name := range []string{"totp", "yubikey", "duo"} {
		provider, err := types.ParseMfaProvider(name)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(string(provider)).To(Equal(name))
	}
	_, err := types.ParseMfaProvider("TOTP")
	g.Expect(err).To(HaveOccurred())
}
