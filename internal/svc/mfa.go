package svc

import (
	"net/http"
	"time"

	"github.com/ze-tech/passbold/internal/env"
	"github.com/ze-tech/passbold/internal/mfa"
)

func (r *Registry) GetMfaRegistry() *mfa.Registry {
	if r.mfaRegistry == nil {
		r.mfaRegistry = mfa.NewRegistry(env.MfaTotpIssuer(), &http.Client{Timeout: 10 * time.Second})
	}
	return r.mfaRegistry
}

// GetMfaResolver wires the settings cascade: stored settings first, then the
// static configuration block, then the empty default.
func (r *Registry) GetMfaResolver() *mfa.Resolver {
	if r.mfaResolver == nil {
		r.mfaResolver = mfa.NewResolver(r.GetMfaRegistry(),
			mfa.StoredSettingsSource{Store: r.GetMfaSettingsStore()},
			mfa.StaticSettingsSource{Settings: env.MfaDefaultSettings()},
			mfa.DefaultSettingsSource{},
		)
	}
	return r.mfaResolver
}

func (r *Registry) GetMfaSettingsStore() mfa.SettingsStore {
	return mfa.PgSettingsStore{}
}

func (r *Registry) GetMfaGate() *mfa.Gate {
	if r.mfaGate == nil {
		r.mfaGate = mfa.NewGate(env.JWTSecret(), env.MfaVerificationValidDuration(), nil)
	}
	return r.mfaGate
}

func (r *Registry) GetMfaFlow() *mfa.Flow {
	if r.mfaFlow == nil {
		r.mfaFlow = mfa.NewFlow(
			r.GetMfaRegistry(),
			r.GetMfaGate(),
			mfa.PgAccountStateStore{},
			mfa.PgRecoveryCodeStore{},
		)
	}
	return r.mfaFlow
}
