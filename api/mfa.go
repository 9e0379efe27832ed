package api

import "github.com/ze-tech/passbold/internal/types"

type MfaRenderDirective struct {
	Layout   string `json:"layout"`
	Template string `json:"template"`
}

// MfaChallengeResponse is the read-step payload of a setup or verify flow.
// Only the fields of the requested provider are populated. Render is present
// for interactive callers only.
type MfaChallengeResponse struct {
	Provider           string              `json:"provider"`
	Secret             string              `json:"secret,omitempty"`
	OtpProvisioningURI string              `json:"otpProvisioningUri,omitempty"`
	QRCode             string              `json:"qrCode,omitempty"`
	SigRequest         string              `json:"sigRequest,omitempty"`
	HostName           string              `json:"hostName,omitempty"`
	Message            string              `json:"message,omitempty"`
	Render             *MfaRenderDirective `json:"render,omitempty"`
}

type MfaSubmitRequest struct {
	Totp               string `json:"totp,omitempty"`
	OtpProvisioningURI string `json:"otpProvisioningUri,omitempty"`
	SigResponse        string `json:"sigResponse,omitempty"`
	Hotp               string `json:"hotp,omitempty"`
	RecoveryCode       string `json:"recoveryCode,omitempty"`
}

type MfaRecoveryCodesStatusResponse struct {
	RemainingCodes int `json:"remainingCodes"`
}

type MfaRecoveryCodesResponse struct {
	RecoveryCodes []string `json:"recoveryCodes"`
}

type MfaCompleteResponse struct {
	Verified      bool     `json:"verified"`
	RecoveryCodes []string `json:"recoveryCodes,omitempty"`
}

type MfaSettingsResponse struct {
	types.MfaOrgSettings
	ProvidersStatus map[string]bool `json:"providersStatus"`
}

type MfaSettingsRequest = types.MfaOrgSettings

// MfaRequiredBody is returned with 403 when a request hits a gated route
// without a valid verification cookie. VerifyURL points at the verify step of
// the first enabled provider in canonical order.
type MfaRequiredBody struct {
	MfaProviders []string `json:"mfa_providers"`
	VerifyURL    string   `json:"verify_url"`
}
