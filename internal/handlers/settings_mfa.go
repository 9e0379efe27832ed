package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/ze-tech/passbold/api"
	"github.com/ze-tech/passbold/internal/auth"
	internalctx "github.com/ze-tech/passbold/internal/context"
	"github.com/ze-tech/passbold/internal/db"
	"github.com/ze-tech/passbold/internal/mail"
	"github.com/ze-tech/passbold/internal/mfa"
	"github.com/ze-tech/passbold/internal/types"
	"github.com/ze-tech/passbold/internal/validation"
	"go.uber.org/zap"
)

func getMfaSettingsHandler(resolver *mfa.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		authInfo := auth.Authentication.Require(ctx)
		if !requireAdmin(w, authInfo) {
			return
		}

		settings, err := resolver.Resolve(ctx, authInfo.CurrentOrgID())
		if err != nil {
			respondInternalError(w, r, "failed to resolve MFA settings", err)
			return
		}

		RespondJSON(w, api.MfaSettingsResponse{
			MfaOrgSettings:  *settings.Config(),
			ProvidersStatus: settings.ProvidersStatus(),
		})
	}
}

func updateMfaSettingsHandler(store mfa.SettingsStore, resolver *mfa.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := internalctx.GetLogger(ctx)
		authInfo := auth.Authentication.Require(ctx)
		if !requireAdmin(w, authInfo) {
			return
		}

		request, err := JsonBody[api.MfaSettingsRequest](w, r)
		if err != nil {
			return
		}

		orgID := authInfo.CurrentOrgID()
		if err := mfa.SaveOrgSettings(ctx, store, orgID, &request, authInfo.CurrentUserID()); err != nil {
			if validationErr := validation.AsError(err); validationErr != nil {
				respondValidationError(w, validationErr)
			} else {
				respondInternalError(w, r, "failed to save MFA settings", err)
			}
			return
		}

		// best effort: a failed notification must not fail the save
		if err := notifyMfaSettingsChanged(ctx, authInfo.CurrentUserID()); err != nil {
			log.Warn("failed to send MFA settings notification", zap.Error(err))
		}

		settings, err := resolver.Resolve(ctx, orgID)
		if err != nil {
			respondInternalError(w, r, "failed to resolve MFA settings", err)
			return
		}
		RespondJSON(w, api.MfaSettingsResponse{
			MfaOrgSettings:  *settings.Config(),
			ProvidersStatus: settings.ProvidersStatus(),
		})
	}
}

func requireAdmin(w http.ResponseWriter, authInfo auth.AuthInfo) bool {
	if authInfo.CurrentUserRole() != types.UserRoleAdmin {
		http.Error(w, "admin role required", http.StatusForbidden)
		return false
	}
	return true
}

func notifyMfaSettingsChanged(ctx context.Context, actorID uuid.UUID) error {
	actor, err := db.GetUserAccountByID(ctx, actorID)
	if err != nil {
		return err
	}
	mailer := internalctx.GetMailer(ctx)
	return mailer.Send(ctx, mail.New(
		mail.ToWithName(actor.Name, actor.Email),
		mail.Subject("Multi-factor authentication settings changed"),
		mail.HtmlBodyTemplate(mail.TemplateMfaSettingsChanged, map[string]any{
			"Name": actor.Name,
		}),
	))
}
