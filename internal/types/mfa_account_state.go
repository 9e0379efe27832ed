package types

import "time"

// MfaAccountState is the per-user enrollment record, stored under the
// user-scoped settings property "MFA". A provider counts as enrolled once its
// block carries a verified timestamp. The whole document is replaced on save.
type MfaAccountState struct {
	Providers MfaProviderList      `json:"providers"`
	Totp      *TotpAccountState    `json:"totp,omitempty"`
	Yubikey   *YubikeyAccountState `json:"yubikey,omitempty"`
	Duo       *DuoAccountState     `json:"duo,omitempty"`
}

type TotpAccountState struct {
	Verified        *time.Time `json:"verified,omitempty"`
	ProvisioningURI string     `json:"otpProvisioningUri"`
}

type YubikeyAccountState struct {
	Verified *time.Time `json:"verified,omitempty"`
	KeyID    string     `json:"keyId"`
}

type DuoAccountState struct {
	Verified *time.Time `json:"verified,omitempty"`
}

// VerifiedAt returns the verification timestamp for the given provider, or
// nil when the provider was never verified for this account.
func (s *MfaAccountState) VerifiedAt(provider MfaProvider) *time.Time {
	if s == nil {
		return nil
	}
	switch provider {
	case MfaProviderTotp:
		if s.Totp != nil {
			return s.Totp.Verified
		}
	case MfaProviderYubikey:
		if s.Yubikey != nil {
			return s.Yubikey.Verified
		}
	case MfaProviderDuo:
		if s.Duo != nil {
			return s.Duo.Verified
		}
	}
	return nil
}
