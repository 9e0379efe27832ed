package types

import (
	"encoding/json"
	"fmt"
)

type MfaProvider string

const (
	MfaProviderTotp    MfaProvider = "totp"
	MfaProviderYubikey MfaProvider = "yubikey"
	MfaProviderDuo     MfaProvider = "duo"
)

// MfaProviders is the closed set of supported providers in canonical order.
// Enabled-provider listings always follow this order, not insertion order.
var MfaProviders = []MfaProvider{MfaProviderTotp, MfaProviderYubikey, MfaProviderDuo}

func ParseMfaProvider(value string) (MfaProvider, error) {
	switch p := MfaProvider(value); p {
	case MfaProviderTotp, MfaProviderYubikey, MfaProviderDuo:
		return p, nil
	default:
		return "", fmt.Errorf("unknown MFA provider: %v", value)
	}
}

// MfaProviderList accepts both wire formats for the providers field:
// a list of names (["totp","duo"]) and a map of name to enabled
// ({"totp":true,"duo":false}). Both decode to the same list form, keeping
// only truthy map entries. Unknown names are kept so that validation can
// report them instead of silently dropping them.
type MfaProviderList []string

func (l *MfaProviderList) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		*l = names
		return nil
	}
	var flags map[string]bool
	if err := json.Unmarshal(data, &flags); err != nil {
		return fmt.Errorf("providers must be a list or a map of booleans: %w", err)
	}
	result := make([]string, 0, len(flags))
	for _, provider := range MfaProviders {
		if flags[string(provider)] {
			result = append(result, string(provider))
		}
	}
	// unknown keys are preserved for the validator to flag
	for name, enabled := range flags {
		if _, err := ParseMfaProvider(name); err != nil && enabled {
			result = append(result, name)
		}
	}
	*l = result
	return nil
}

func (l MfaProviderList) Contains(provider MfaProvider) bool {
	for _, name := range l {
		if name == string(provider) {
			return true
		}
	}
	return false
}
