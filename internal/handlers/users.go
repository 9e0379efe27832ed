package handlers

import (
	"net/http"

	"github.com/ze-tech/passbold/api"
	"github.com/ze-tech/passbold/internal/auth"
	"github.com/ze-tech/passbold/internal/db"
	"github.com/ze-tech/passbold/internal/mapping"
	"github.com/ze-tech/passbold/internal/mfa"
	"github.com/ze-tech/passbold/internal/types"
	"github.com/ze-tech/passbold/internal/validation"
)

const (
	containIsMfaEnabledParam = "contain[is_mfa_enabled]"
	filterIsMfaEnabledParam  = "filter[is-mfa-enabled]"
)

func getUserAccountsHandler(resolver *mfa.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		authInfo := auth.Authentication.Require(ctx)
		query := r.URL.Query()

		contain := false
		if value := query.Get(containIsMfaEnabledParam); value != "" {
			parsed, err := validation.ValidateBooleanFilter(containIsMfaEnabledParam, value)
			if err != nil {
				respondValidationError(w, validation.AsError(err))
				return
			}
			contain = parsed
		}
		var filter *bool
		if value := query.Get(filterIsMfaEnabledParam); value != "" {
			parsed, err := validation.ValidateBooleanFilter(filterIsMfaEnabledParam, value)
			if err != nil {
				respondValidationError(w, validation.AsError(err))
				return
			}
			filter = &parsed
		}

		ctx, settings, err := resolver.ResolveForRequest(ctx, authInfo.CurrentOrgID())
		if err != nil {
			respondInternalError(w, r, "failed to resolve MFA settings", err)
			return
		}
		enabled := settings.EnabledProviders()

		users, err := db.GetUserAccountsByOrgID(ctx, authInfo.CurrentOrgID(), db.ListUserAccountsOptions{
			EnabledProviders: enabled,
			FilterMfaEnabled: filter,
		})
		if err != nil {
			respondInternalError(w, r, "failed to get users", err)
			return
		}

		RespondJSON(w, mapping.List(users, func(user types.UserAccountWithMfaState) api.UserAccountResponse {
			dto := userAccountToDTO(user.UserAccount)
			if contain {
				isEnabled := mfa.IsMfaEnabled(user.MfaState, enabled)
				dto.IsMfaEnabled = &isEnabled
			}
			return dto
		}))
	}
}

func userAccountToDTO(user types.UserAccount) api.UserAccountResponse {
	return api.UserAccountResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}
