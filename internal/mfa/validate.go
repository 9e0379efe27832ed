package mfa

import (
	"encoding/base64"
	"regexp"

	"github.com/ze-tech/passbold/internal/types"
	"github.com/ze-tech/passbold/internal/validation"
)

var duoHostNamePattern = regexp.MustCompile(`^[a-zA-Z0-9.-]+\.duosecurity\.com$`)

// ValidateSettings checks candidate organization settings. All provider
// errors are collected before failing, so the caller can report the complete
// error set in one round trip.
func ValidateSettings(settings *types.MfaOrgSettings) error {
	if settings == nil {
		return validation.NewValidationFailedError(
			"The multi-factor authentication settings should not be empty.")
	}
	if settings.Providers == nil {
		return validation.NewValidationFailedError(
			"The multi-factor authentication providers list is missing.")
	}
	details := map[string]map[string]string{}
	for _, name := range settings.Providers {
		provider, err := types.ParseMfaProvider(name)
		if err != nil {
			details[name] = map[string]string{
				"invalidProvider": "Unknown MFA provider: " + name + ".",
			}
			continue
		}
		switch provider {
		case types.MfaProviderTotp:
			// nothing else to validate
		case types.MfaProviderYubikey:
			if errs := validateYubikeySettings(settings.Yubikey); len(errs) > 0 {
				details[name] = errs
			}
		case types.MfaProviderDuo:
			if errs := validateDuoSettings(settings.Duo); len(errs) > 0 {
				details[name] = errs
			}
		}
	}
	if len(details) > 0 {
		return validation.NewValidationFailedErrorWithDetails(
			"Could not validate multi-factor authentication provider configuration.", details)
	}
	return nil
}

func validateDuoSettings(creds *types.DuoCredentials) map[string]string {
	errs := map[string]string{}
	if creds == nil {
		errs["_required"] = "The Duo settings are missing."
		return errs
	}
	if creds.IntegrationKey == "" {
		errs[CredentialDuoIntegrationKey] = "The Duo integration key is required."
	}
	if creds.SecretKey == "" {
		errs[CredentialDuoSecretKey] = "The Duo secret key is required."
	}
	if creds.Salt == "" {
		errs[CredentialDuoSalt] = "The Duo salt is required."
	}
	if creds.HostName == "" {
		errs[CredentialDuoHostName] = "The Duo hostname is required."
	} else if !duoHostNamePattern.MatchString(creds.HostName) {
		errs[CredentialDuoHostName] = "The Duo hostname should be a valid duosecurity.com hostname."
	}
	return errs
}

func validateYubikeySettings(creds *types.YubikeyCredentials) map[string]string {
	errs := map[string]string{}
	if creds == nil {
		errs["_required"] = "The Yubikey settings are missing."
		return errs
	}
	if creds.ClientID == "" {
		errs[CredentialYubikeyClientID] = "The Yubikey client identifier is required."
	}
	if creds.SecretKey == "" {
		errs[CredentialYubikeySecretKey] = "The Yubikey secret key is required."
	} else if _, err := base64.StdEncoding.DecodeString(creds.SecretKey); err != nil {
		errs[CredentialYubikeySecretKey] = "The Yubikey secret key should be base64 encoded."
	}
	return errs
}
