package mfa

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ze-tech/passbold/internal/types"
)

type Mode string

const (
	ModeSetup  Mode = "setup"
	ModeVerify Mode = "verify"
)

// Challenge is the provider-specific payload produced by the read step of a
// setup or verify flow. It is transient and never persisted.
type Challenge struct {
	Provider types.MfaProvider `json:"provider"`

	// TOTP
	Secret          string `json:"secret,omitempty"`
	ProvisioningURI string `json:"otpProvisioningUri,omitempty"`
	QRCode          string `json:"qrCode,omitempty"`

	// Duo
	SigRequest string `json:"sigRequest,omitempty"`
	HostName   string `json:"hostName,omitempty"`

	Message string `json:"message,omitempty"`
}

// Response is the provider-specific payload submitted to complete a setup or
// verify step.
type Response struct {
	TotpCode        string `json:"totp,omitempty"`
	ProvisioningURI string `json:"otpProvisioningUri,omitempty"`
	SigResponse     string `json:"sigResponse,omitempty"`
	HotpToken       string `json:"hotp,omitempty"`
	RecoveryCode    string `json:"recoveryCode,omitempty"`
}

// Provider is the challenge/verify capability of a second factor. The
// cryptography behind it (TOTP code generation, Duo request signing, Yubico
// OTP validation) is delegated to the provider implementation; the flow only
// orchestrates.
type Provider interface {
	ID() types.MfaProvider
	// Begin produces the challenge for the read step. For ModeSetup this
	// includes enrollment material (e.g. a fresh TOTP provisioning URI).
	Begin(ctx context.Context, mode Mode, user *types.UserAccount, state *types.MfaAccountState) (*Challenge, error)
	// Verify checks a submitted response and, on success, fills in the
	// provider's block on state. Returns apierrors.ErrProviderRejected when
	// the response is declined.
	Verify(ctx context.Context, mode Mode, user *types.UserAccount, state *types.MfaAccountState, response Response) error
}

type registryEntry struct {
	requiredCredentials []string
	build               func(settings *OrgSettings) Provider
}

// Registry is the static catalog of supported providers. Adding a provider
// means adding one entry here; the resolver, validator and flow control flow
// stay untouched.
type Registry struct {
	entries map[types.MfaProvider]registryEntry
}

func NewRegistry(totpIssuer string, httpClient *http.Client) *Registry {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Registry{
		entries: map[types.MfaProvider]registryEntry{
			types.MfaProviderTotp: {
				build: func(*OrgSettings) Provider {
					return &totpProvider{issuer: totpIssuer}
				},
			},
			types.MfaProviderYubikey: {
				requiredCredentials: []string{CredentialYubikeyClientID, CredentialYubikeySecretKey},
				build: func(settings *OrgSettings) Provider {
					return &yubikeyProvider{settings: settings, httpClient: httpClient}
				},
			},
			types.MfaProviderDuo: {
				requiredCredentials: []string{
					CredentialDuoIntegrationKey, CredentialDuoSecretKey,
					CredentialDuoHostName, CredentialDuoSalt,
				},
				build: func(settings *OrgSettings) Provider {
					return &duoProvider{settings: settings}
				},
			},
		},
	}
}

func (r *Registry) RequiredCredentials(provider types.MfaProvider) []string {
	return r.entries[provider].requiredCredentials
}

// Provider returns the capability for the given provider, built against the
// organization's resolved settings. Fails with ErrCredentialMissing when a
// required credential is absent.
func (r *Registry) Provider(provider types.MfaProvider, settings *OrgSettings) (Provider, error) {
	entry, ok := r.entries[provider]
	if !ok {
		return nil, fmt.Errorf("unknown MFA provider: %v", provider)
	}
	if err := settings.checkCredentials(provider); err != nil {
		return nil, err
	}
	return entry.build(settings), nil
}
