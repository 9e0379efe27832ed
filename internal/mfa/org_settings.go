package mfa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ze-tech/passbold/internal/apierrors"
	internalctx "github.com/ze-tech/passbold/internal/context"
	"github.com/ze-tech/passbold/internal/types"
	"go.uber.org/zap"
)

const (
	CredentialDuoIntegrationKey = "integrationKey"
	CredentialDuoSecretKey      = "secretKey"
	CredentialDuoHostName       = "hostName"
	CredentialDuoSalt           = "salt"
	CredentialYubikeyClientID   = "clientId"
	CredentialYubikeySecretKey  = "secretKey"
)

// SettingsSource is one entry of the settings cascade. Read returns nil
// (without error) when the source holds no value for the organization.
type SettingsSource interface {
	Name() string
	Read(ctx context.Context, orgID uuid.UUID) (*types.MfaOrgSettings, error)
}

// StoredSettingsSource reads from the organization settings store (highest
// precedence).
type StoredSettingsSource struct {
	Store SettingsStore
}

func (s StoredSettingsSource) Name() string { return "database" }

func (s StoredSettingsSource) Read(ctx context.Context, orgID uuid.UUID) (*types.MfaOrgSettings, error) {
	value, err := s.Store.Get(ctx, orgID)
	if errors.Is(err, apierrors.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return decodeSettings(value)
}

// StaticSettingsSource serves the process configuration block (middle
// precedence). Settings may be nil when the block is not configured.
type StaticSettingsSource struct {
	Settings *types.MfaOrgSettings
}

func (s StaticSettingsSource) Name() string { return "configuration" }

func (s StaticSettingsSource) Read(context.Context, uuid.UUID) (*types.MfaOrgSettings, error) {
	return s.Settings, nil
}

// DefaultSettingsSource always yields the empty default (no providers).
type DefaultSettingsSource struct{}

func (DefaultSettingsSource) Name() string { return "default" }

func (DefaultSettingsSource) Read(context.Context, uuid.UUID) (*types.MfaOrgSettings, error) {
	return &types.MfaOrgSettings{Providers: types.MfaProviderList{}}, nil
}

func decodeSettings(value json.RawMessage) (*types.MfaOrgSettings, error) {
	// reject non-object values and values without a providers field before
	// the typed decode, so both fail as configuration errors
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(value, &raw); err != nil {
		return nil, fmt.Errorf("%w: not an object: %v", apierrors.ErrConfiguration, err)
	}
	if _, ok := raw["providers"]; !ok {
		return nil, fmt.Errorf("%w: providers field is missing", apierrors.ErrConfiguration)
	}
	var settings types.MfaOrgSettings
	if err := json.Unmarshal(value, &settings); err != nil {
		return nil, fmt.Errorf("%w: %v", apierrors.ErrConfiguration, err)
	}
	return &settings, nil
}

// Resolver resolves the organization MFA settings from an ordered list of
// sources. The first source yielding a value wins wholesale; fields are never
// merged across sources.
type Resolver struct {
	registry *Registry
	sources  []SettingsSource
}

func NewResolver(registry *Registry, sources ...SettingsSource) *Resolver {
	return &Resolver{registry: registry, sources: sources}
}

func (r *Resolver) Resolve(ctx context.Context, orgID uuid.UUID) (*OrgSettings, error) {
	for _, source := range r.sources {
		settings, err := source.Read(ctx, orgID)
		if err != nil {
			return nil, fmt.Errorf("failed to read MFA settings from %v: %w", source.Name(), err)
		}
		if settings == nil {
			continue
		}
		if settings.Providers == nil {
			return nil, fmt.Errorf("%w: providers field is missing (source %v)",
				apierrors.ErrConfiguration, source.Name())
		}
		return &OrgSettings{registry: r.registry, settings: settings}, nil
	}
	return nil, fmt.Errorf("%w: no settings source yielded a value", apierrors.ErrConfiguration)
}

// ResolveForRequest memoizes the resolved settings in the request context.
// The returned context must be used for the remainder of the request.
func (r *Resolver) ResolveForRequest(
	ctx context.Context,
	orgID uuid.UUID,
) (context.Context, *OrgSettings, error) {
	if settings, ok := internalctx.GetMfaOrgSettings(ctx); ok {
		return ctx, &OrgSettings{registry: r.registry, settings: settings}, nil
	}
	resolved, err := r.Resolve(ctx, orgID)
	if err != nil {
		return ctx, nil, err
	}
	resolved.logMisconfiguredProviders(internalctx.GetLogger(ctx))
	return internalctx.WithMfaOrgSettings(ctx, resolved.settings), resolved, nil
}

// OrgSettings is the resolved, normalized organization MFA configuration.
type OrgSettings struct {
	registry *Registry
	settings *types.MfaOrgSettings
}

func NewOrgSettings(registry *Registry, settings *types.MfaOrgSettings) *OrgSettings {
	return &OrgSettings{registry: registry, settings: settings}
}

// IsProviderEnabled reports whether the provider is listed and all of its
// required credentials are present. A missing credential yields false, never
// an error; callers that need the reason use the credential accessors.
func (s *OrgSettings) IsProviderEnabled(provider types.MfaProvider) bool {
	if s.settings == nil || !s.settings.Providers.Contains(provider) {
		return false
	}
	return s.checkCredentials(provider) == nil
}

// IsProviderEnabledLogged is IsProviderEnabled plus an operator-visibility
// log line when a listed provider is unusable due to missing credentials.
func (s *OrgSettings) IsProviderEnabledLogged(logger *zap.Logger, provider types.MfaProvider) bool {
	if s.settings == nil || !s.settings.Providers.Contains(provider) {
		return false
	}
	if err := s.checkCredentials(provider); err != nil {
		logger.Debug("MFA provider is listed but misconfigured",
			zap.String("provider", string(provider)), zap.Error(err))
		return false
	}
	return true
}

// logMisconfiguredProviders surfaces listed-but-unusable providers once per
// resolution, so operators can tell "not configured" from "misconfigured".
func (s *OrgSettings) logMisconfiguredProviders(logger *zap.Logger) {
	for _, provider := range types.MfaProviders {
		s.IsProviderEnabledLogged(logger, provider)
	}
}

func (s *OrgSettings) checkCredentials(provider types.MfaProvider) error {
	switch provider {
	case types.MfaProviderTotp:
		return nil
	case types.MfaProviderYubikey:
		if _, err := s.YubikeyClientID(); err != nil {
			return err
		}
		if _, err := s.YubikeySecretKey(); err != nil {
			return err
		}
		return nil
	case types.MfaProviderDuo:
		if _, err := s.DuoIntegrationKey(); err != nil {
			return err
		}
		if _, err := s.DuoSecretKey(); err != nil {
			return err
		}
		if _, err := s.DuoHostName(); err != nil {
			return err
		}
		if _, err := s.DuoSalt(); err != nil {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown MFA provider: %v", provider)
	}
}

// EnabledProviders returns the usable providers in canonical registry order.
func (s *OrgSettings) EnabledProviders() []types.MfaProvider {
	result := make([]types.MfaProvider, 0, len(types.MfaProviders))
	for _, provider := range types.MfaProviders {
		if s.IsProviderEnabled(provider) {
			result = append(result, provider)
		}
	}
	return result
}

func (s *OrgSettings) IsEnabled() bool {
	return len(s.EnabledProviders()) > 0
}

// ProvidersStatus maps every known provider to its enabled state.
func (s *OrgSettings) ProvidersStatus() map[string]bool {
	result := make(map[string]bool, len(types.MfaProviders))
	for _, provider := range types.MfaProviders {
		result[string(provider)] = s.IsProviderEnabled(provider)
	}
	return result
}

// Config assembles the exported configuration for an administrative client.
// Credentials are included for enabled providers only, so stale secrets of
// disabled providers never leak.
func (s *OrgSettings) Config() *types.MfaOrgSettings {
	enabled := s.EnabledProviders()
	result := types.MfaOrgSettings{Providers: make(types.MfaProviderList, 0, len(enabled))}
	for _, provider := range enabled {
		result.Providers = append(result.Providers, string(provider))
		switch provider {
		case types.MfaProviderDuo:
			result.Duo = s.settings.Duo
		case types.MfaProviderYubikey:
			result.Yubikey = s.settings.Yubikey
		}
	}
	return &result
}

func (s *OrgSettings) credential(provider types.MfaProvider, field, value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("%w: %v %v", apierrors.ErrCredentialMissing, provider, field)
	}
	return value, nil
}

func (s *OrgSettings) DuoIntegrationKey() (string, error) {
	if s.settings.Duo == nil {
		return "", fmt.Errorf("%w: duo credentials", apierrors.ErrCredentialMissing)
	}
	return s.credential(types.MfaProviderDuo, CredentialDuoIntegrationKey, s.settings.Duo.IntegrationKey)
}

func (s *OrgSettings) DuoSecretKey() (string, error) {
	if s.settings.Duo == nil {
		return "", fmt.Errorf("%w: duo credentials", apierrors.ErrCredentialMissing)
	}
	return s.credential(types.MfaProviderDuo, CredentialDuoSecretKey, s.settings.Duo.SecretKey)
}

func (s *OrgSettings) DuoHostName() (string, error) {
	if s.settings.Duo == nil {
		return "", fmt.Errorf("%w: duo credentials", apierrors.ErrCredentialMissing)
	}
	return s.credential(types.MfaProviderDuo, CredentialDuoHostName, s.settings.Duo.HostName)
}

func (s *OrgSettings) DuoSalt() (string, error) {
	if s.settings.Duo == nil {
		return "", fmt.Errorf("%w: duo credentials", apierrors.ErrCredentialMissing)
	}
	return s.credential(types.MfaProviderDuo, CredentialDuoSalt, s.settings.Duo.Salt)
}

func (s *OrgSettings) YubikeyClientID() (string, error) {
	if s.settings.Yubikey == nil {
		return "", fmt.Errorf("%w: yubikey credentials", apierrors.ErrCredentialMissing)
	}
	return s.credential(types.MfaProviderYubikey, CredentialYubikeyClientID, s.settings.Yubikey.ClientID)
}

func (s *OrgSettings) YubikeySecretKey() (string, error) {
	if s.settings.Yubikey == nil {
		return "", fmt.Errorf("%w: yubikey credentials", apierrors.ErrCredentialMissing)
	}
	return s.credential(types.MfaProviderYubikey, CredentialYubikeySecretKey, s.settings.Yubikey.SecretKey)
}

// Save validates the candidate settings and writes them through the settings
// store as one value, attributed to the actor. Nothing is written when
// validation fails.
func SaveOrgSettings(
	ctx context.Context,
	store SettingsStore,
	orgID uuid.UUID,
	candidate *types.MfaOrgSettings,
	actorID uuid.UUID,
) error {
	if err := ValidateSettings(candidate); err != nil {
		return err
	}
	value, err := json.Marshal(candidate)
	if err != nil {
		return fmt.Errorf("failed to encode MFA settings: %w", err)
	}
	return store.Save(ctx, orgID, value, actorID)
}
