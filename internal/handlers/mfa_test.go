package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	internalctx "github.com/ze-tech/passbold/internal/context"
	"github.com/ze-tech/passbold/internal/mfa"
	"github.com/ze-tech/passbold/internal/types"
	. "github.com/onsi/gomega"
)

func TestChallengeToDTO(t *testing.T) {
	g := NewWithT(t)
	challenge := mfa.Challenge{
		Provider:        types.MfaProviderTotp,
		Secret:          "JBSWY3DPEHPK3PXP",
		ProvisioningURI: "otpauth://totp/Passbold:ada@example.com?secret=JBSWY3DPEHPK3PXP",
		QRCode:          "data:image/png;base64,abc",
		Message:         "scan the code",
	}
	response := challengeToDTO(challenge)
	g.Expect(response.Provider).To(Equal("totp"))
	g.Expect(response.Secret).To(Equal(challenge.Secret))
	g.Expect(response.OtpProvisioningURI).To(Equal(challenge.ProvisioningURI))
	g.Expect(response.QRCode).To(Equal(challenge.QRCode))
	g.Expect(response.Message).To(Equal(challenge.Message))
	g.Expect(response.SigRequest).To(BeEmpty())
	g.Expect(response.HostName).To(BeEmpty())
	g.Expect(response.Render).To(BeNil())
}

func TestCurrentUserPrefersContextAccount(t *testing.T) {
	g := NewWithT(t)
	account := &types.UserAccount{
		ID:    uuid.New(),
		Email: "ada@example.com",
		Name:  "Ada Lovelace",
	}
	request := httptest.NewRequest("GET", "/api/v1/mfa/verify/totp", nil)
	request = request.WithContext(internalctx.WithUserAccount(request.Context(), account))
	recorder := httptest.NewRecorder()

	user, ok := currentUser(recorder, request)
	g.Expect(ok).To(BeTrue())
	g.Expect(user).To(BeIdenticalTo(account))
}
