package validation_test

import (
	"fmt"
	"testing"

	"github.com/ze-tech/passbold/internal/validation"
	. "github.com/onsi/gomega"
)

func TestValidateBooleanFilter(t *testing.T) {
	g := NewWithT(t)

	for value, expected := range map[string]bool{"0": false, "false": false, "1": true, "true": true} {
		result, err := validation.ValidateBooleanFilter("filter[is-mfa-enabled]", value)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(result).To(Equal(expected), "value: %q", value)
	}

	for _, value := range []string{"", "yes", "TRUE", "2"} {
		_, err := validation.ValidateBooleanFilter("filter[is-mfa-enabled]", value)
		g.Expect(err).To(HaveOccurred(), "value: %q", value)
		g.Expect(validation.AsError(err)).NotTo(BeNil())
	}
}

func TestAsError(t *testing.T) {
	g := NewWithT(t)

	verr := validation.NewValidationFailedError("nope")
	g.Expect(validation.AsError(verr)).To(Equal(verr))
	g.Expect(validation.AsError(fmt.Errorf("wrapped: %w", verr))).To(Equal(verr))
	g.Expect(validation.AsError(fmt.Errorf("unrelated"))).To(BeNil())
}
