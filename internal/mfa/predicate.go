package mfa

import "github.com/ze-tech/passbold/internal/types"

// IsMfaEnabled is the derived per-user predicate: true iff at least one
// provider enabled at the organization level has a verified timestamp in the
// user's account state. The listing layer uses this same function for both
// the derived column and the filter, so the two can never drift.
func IsMfaEnabled(state *types.MfaAccountState, enabledProviders []types.MfaProvider) bool {
	for _, provider := range enabledProviders {
		if state.VerifiedAt(provider) != nil {
			return true
		}
	}
	return false
}

// FilterUsers applies the predicate to a population, keeping the users whose
// derived value matches want.
func FilterUsers(
	users []types.UserAccountWithMfaState,
	enabledProviders []types.MfaProvider,
	want bool,
) []types.UserAccountWithMfaState {
	result := make([]types.UserAccountWithMfaState, 0, len(users))
	for _, user := range users {
		if IsMfaEnabled(user.MfaState, enabledProviders) == want {
			result = append(result, user)
		}
	}
	return result
}
