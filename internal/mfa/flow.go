package mfa

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/ze-tech/passbold/internal/apierrors"
	"github.com/ze-tech/passbold/internal/security"
	"github.com/ze-tech/passbold/internal/types"
)

// RenderDirective tells an interactive (browser) caller which layout and
// template to render. Machine callers ignore it; it is a capability of the
// request, not a separate code path.
type RenderDirective struct {
	Layout   string `json:"layout"`
	Template string `json:"template"`
}

type BeginResult struct {
	Challenge *Challenge
	Render    RenderDirective
}

type CompleteResult struct {
	// Cookie is set on successful verify completion.
	Cookie *http.Cookie
	// RecoveryCodes are returned once, on the setup that first enables MFA
	// for the account.
	RecoveryCodes []string
}

// Flow is the state machine shared by the setup (first-time enrollment) and
// verify (per-session challenge) screens of all providers.
type Flow struct {
	registry *Registry
	gate     *Gate
	accounts AccountStateStore
	recovery RecoveryCodeStore
}

func NewFlow(registry *Registry, gate *Gate, accounts AccountStateStore, recovery RecoveryCodeStore) *Flow {
	return &Flow{registry: registry, gate: gate, accounts: accounts, recovery: recovery}
}

// Begin is the read step. For setup it requires the provider to be enabled
// and not yet set up for the account; for verify it requires the gate to be
// in the required-unverified state and the provider settings to exist.
func (f *Flow) Begin(
	ctx context.Context,
	mode Mode,
	provider types.MfaProvider,
	settings *OrgSettings,
	user *types.UserAccount,
	sessionID string,
	rawCookie string,
) (*BeginResult, error) {
	state, err := f.accounts.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeSetup:
		if !settings.IsProviderEnabled(provider) {
			return nil, fmt.Errorf("%w: provider %v is not enabled", apierrors.ErrCredentialMissing, provider)
		}
		if state.VerifiedAt(provider) != nil {
			return nil, apierrors.ErrAlreadySetup
		}
	case ModeVerify:
		switch f.gate.Evaluate(settings, user, sessionID, rawCookie) {
		case GateStateNotRequired:
			return nil, apierrors.ErrNotRequired
		case GateStateVerified:
			return nil, apierrors.ErrAlreadyVerified
		}
		if !settings.IsProviderEnabled(provider) {
			return nil, fmt.Errorf("%w: provider %v is not enabled", apierrors.ErrCredentialMissing, provider)
		}
	default:
		return nil, fmt.Errorf("invalid flow mode: %v", mode)
	}

	capability, err := f.registry.Provider(provider, settings)
	if err != nil {
		return nil, err
	}
	challenge, err := capability.Begin(ctx, mode, user, state)
	if err != nil {
		return nil, err
	}
	return &BeginResult{
		Challenge: challenge,
		Render: RenderDirective{
			Layout:   "mfa_" + string(mode),
			Template: string(provider) + "/" + string(mode) + "Form",
		},
	}, nil
}

// Complete is the submit step. Setup persists the account state with a
// verified timestamp; verify transitions the gate to verified and issues the
// cookie. No partial state is written on failure.
func (f *Flow) Complete(
	ctx context.Context,
	mode Mode,
	provider types.MfaProvider,
	settings *OrgSettings,
	user *types.UserAccount,
	sessionID string,
	rawCookie string,
	response Response,
) (*CompleteResult, error) {
	state, err := f.accounts.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeSetup:
		if !settings.IsProviderEnabled(provider) {
			return nil, fmt.Errorf("%w: provider %v is not enabled", apierrors.ErrCredentialMissing, provider)
		}
		if state.VerifiedAt(provider) != nil {
			return nil, apierrors.ErrAlreadySetup
		}
		if state == nil {
			state = &types.MfaAccountState{Providers: types.MfaProviderList{}}
		}
		firstEnablement := !hasAnyVerifiedProvider(state)

		capability, err := f.registry.Provider(provider, settings)
		if err != nil {
			return nil, err
		}
		if err := capability.Verify(ctx, mode, user, state, response); err != nil {
			return nil, err
		}
		if err := f.accounts.Save(ctx, user.ID, state); err != nil {
			return nil, err
		}

		result := CompleteResult{}
		if firstEnablement {
			codes, err := f.issueRecoveryCodes(ctx, user.ID)
			if err != nil {
				return nil, err
			}
			result.RecoveryCodes = codes
		}
		return &result, nil

	case ModeVerify:
		switch f.gate.Evaluate(settings, user, sessionID, rawCookie) {
		case GateStateNotRequired:
			return nil, apierrors.ErrNotRequired
		case GateStateVerified:
			return nil, apierrors.ErrAlreadyVerified
		}
		if !settings.IsProviderEnabled(provider) {
			return nil, fmt.Errorf("%w: provider %v is not enabled", apierrors.ErrCredentialMissing, provider)
		}

		if response.RecoveryCode != "" {
			if err := f.verifyRecoveryCode(ctx, user.ID, response.RecoveryCode); err != nil {
				return nil, err
			}
		} else {
			capability, err := f.registry.Provider(provider, settings)
			if err != nil {
				return nil, err
			}
			if err := capability.Verify(ctx, mode, user, state, response); err != nil {
				return nil, err
			}
		}

		cookie, err := f.gate.IssueCookie(sessionID, provider)
		if err != nil {
			return nil, err
		}
		return &CompleteResult{Cookie: cookie}, nil

	default:
		return nil, fmt.Errorf("invalid flow mode: %v", mode)
	}
}

// ResetProvider removes the provider's enrollment. The caller must also clear
// the verification cookie; the gate's ClearCookie result is returned for
// that purpose so the clearing cannot be forgotten.
func (f *Flow) ResetProvider(
	ctx context.Context,
	provider types.MfaProvider,
	user *types.UserAccount,
) (*http.Cookie, error) {
	state, err := f.accounts.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if state != nil {
		switch provider {
		case types.MfaProviderTotp:
			state.Totp = nil
		case types.MfaProviderYubikey:
			state.Yubikey = nil
		case types.MfaProviderDuo:
			state.Duo = nil
		}
		remaining := types.MfaProviderList{}
		for _, name := range state.Providers {
			if name != string(provider) {
				remaining = append(remaining, name)
			}
		}
		state.Providers = remaining
		if err := f.accounts.Save(ctx, user.ID, state); err != nil {
			return nil, err
		}
	}
	// cleared even when nothing was enrolled, as a safety measure against
	// stale verification surviving a credential change
	return f.gate.ClearCookie(), nil
}

// RegenerateRecoveryCodes replaces the account's recovery codes with a fresh
// set. The previous codes stop working immediately. Requires at least one
// verified provider, since recovery codes exist only as a fallback.
func (f *Flow) RegenerateRecoveryCodes(ctx context.Context, user *types.UserAccount) ([]string, error) {
	state, err := f.accounts.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !hasAnyVerifiedProvider(state) {
		return nil, apierrors.ErrNotFound
	}
	return f.issueRecoveryCodes(ctx, user.ID)
}

func (f *Flow) issueRecoveryCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	codes, err := security.GenerateRecoveryCodes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate recovery codes: %w", err)
	}
	records := make([]types.MfaRecoveryCode, len(codes))
	for i, code := range codes {
		salt, hash, err := security.HashRecoveryCode(code)
		if err != nil {
			return nil, fmt.Errorf("failed to hash recovery code: %w", err)
		}
		records[i] = types.MfaRecoveryCode{CodeHash: hash, CodeSalt: salt}
	}
	if err := f.recovery.Replace(ctx, userID, records); err != nil {
		return nil, err
	}
	formatted := make([]string, len(codes))
	for i, code := range codes {
		formatted[i] = security.FormatRecoveryCode(code)
	}
	return formatted, nil
}

func (f *Flow) verifyRecoveryCode(ctx context.Context, userID uuid.UUID, code string) error {
	unused, err := f.recovery.Unused(ctx, userID)
	if err != nil {
		return err
	}
	for _, record := range unused {
		if security.VerifyRecoveryCode(code, record.CodeSalt, record.CodeHash) {
			return f.recovery.MarkUsed(ctx, record.ID)
		}
	}
	return apierrors.ErrProviderRejected
}

func hasAnyVerifiedProvider(state *types.MfaAccountState) bool {
	for _, provider := range types.MfaProviders {
		if state.VerifiedAt(provider) != nil {
			return true
		}
	}
	return false
}
