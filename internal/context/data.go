package context

import (
	"context"

	"github.com/ze-tech/passbold/internal/types"
)

// GetUserAccount returns the user account memoized by the MFA gate
// middleware, if any. Handlers outside the gated group fall back to a
// database lookup.
func GetUserAccount(ctx context.Context) (*types.UserAccount, bool) {
	userAccount, ok := ctx.Value(ctxKeyUserAccount).(*types.UserAccount)
	return userAccount, ok
}

func WithUserAccount(ctx context.Context, userAccount *types.UserAccount) context.Context {
	return context.WithValue(ctx, ctxKeyUserAccount, userAccount)
}

// Resolved organization MFA settings are memoized for the lifetime of a
// single request. They are never carried across requests because the stored
// settings can change between requests and must be re-read.

func GetMfaOrgSettings(ctx context.Context) (*types.MfaOrgSettings, bool) {
	settings, ok := ctx.Value(ctxKeyMfaOrgSettings).(*types.MfaOrgSettings)
	return settings, ok
}

func WithMfaOrgSettings(ctx context.Context, settings *types.MfaOrgSettings) context.Context {
	return context.WithValue(ctx, ctxKeyMfaOrgSettings, settings)
}
