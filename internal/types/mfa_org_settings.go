package types

// MfaOrgSettings is the organization-wide MFA configuration, as stored under
// the organization settings property "MFA" and as provided by the static
// process configuration. Providers lists the nominally enabled providers;
// whether a provider is actually usable additionally depends on its
// credentials being present.
type MfaOrgSettings struct {
	Providers MfaProviderList     `json:"providers"`
	Duo       *DuoCredentials     `json:"duo,omitempty"`
	Yubikey   *YubikeyCredentials `json:"yubikey,omitempty"`
}

type DuoCredentials struct {
	IntegrationKey string `json:"integrationKey"`
	SecretKey      string `json:"secretKey"`
	HostName       string `json:"hostName"`
	Salt           string `json:"salt"`
}

type YubikeyCredentials struct {
	ClientID  string `json:"clientId"`
	SecretKey string `json:"secretKey"`
}
