package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/ze-tech/passbold/api"
	"github.com/ze-tech/passbold/internal/apierrors"
	"github.com/ze-tech/passbold/internal/auth"
	internalctx "github.com/ze-tech/passbold/internal/context"
	"github.com/ze-tech/passbold/internal/db"
	"github.com/ze-tech/passbold/internal/mail"
	"github.com/ze-tech/passbold/internal/mfa"
	"github.com/ze-tech/passbold/internal/types"
	"github.com/ze-tech/passbold/internal/validation"
	"go.uber.org/zap"
)

func mfaBeginHandler(resolver *mfa.Resolver, flow *mfa.Flow, mode mfa.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		provider, ok := providerFromPath(w, r)
		if !ok {
			return
		}
		ctx, settings, user, ok := mfaRequestContext(w, r, resolver)
		if !ok {
			return
		}

		authInfo := auth.Authentication.Require(ctx)
		result, err := flow.Begin(ctx, mode, provider, settings, user,
			authInfo.CurrentSessionID(), rawVerificationCookie(r))
		if err != nil {
			respondFlowError(w, r, err)
			return
		}

		response := challengeToDTO(*result.Challenge)
		if !IsJSONRequest(r) {
			response.Render = &api.MfaRenderDirective{
				Layout:   result.Render.Layout,
				Template: result.Render.Template,
			}
		}
		RespondJSON(w, response)
	}
}

func mfaCompleteHandler(resolver *mfa.Resolver, flow *mfa.Flow, mode mfa.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		provider, ok := providerFromPath(w, r)
		if !ok {
			return
		}
		request, err := JsonBody[api.MfaSubmitRequest](w, r)
		if err != nil {
			return
		}
		ctx, settings, user, ok := mfaRequestContext(w, r, resolver)
		if !ok {
			return
		}

		authInfo := auth.Authentication.Require(ctx)
		result, err := flow.Complete(ctx, mode, provider, settings, user,
			authInfo.CurrentSessionID(), rawVerificationCookie(r), mfa.Response{
				TotpCode:        request.Totp,
				ProvisioningURI: request.OtpProvisioningURI,
				SigResponse:     request.SigResponse,
				HotpToken:       request.Hotp,
				RecoveryCode:    request.RecoveryCode,
			})
		if err != nil {
			respondFlowError(w, r, err)
			return
		}

		if result.Cookie != nil {
			http.SetCookie(w, result.Cookie)
		}
		RespondJSON(w, api.MfaCompleteResponse{
			Verified:      true,
			RecoveryCodes: result.RecoveryCodes,
		})
	}
}

func mfaResetHandler(flow *mfa.Flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := internalctx.GetLogger(ctx)
		provider, ok := providerFromPath(w, r)
		if !ok {
			return
		}
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		cookie, err := flow.ResetProvider(ctx, provider, user)
		if err != nil {
			respondInternalError(w, r, "failed to reset MFA provider", err)
			return
		}

		// best effort: a failed notification must not fail the reset
		if err := notifyMfaProviderReset(ctx, user, provider); err != nil {
			log.Warn("failed to send MFA reset notification", zap.Error(err))
		}

		http.SetCookie(w, cookie)
		w.WriteHeader(http.StatusNoContent)
	}
}

func mfaRecoveryCodesRegenerateHandler(flow *mfa.Flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		codes, err := flow.RegenerateRecoveryCodes(ctx, user)
		if err != nil {
			if errors.Is(err, apierrors.ErrNotFound) {
				RespondJSONMessage(w, http.StatusBadRequest,
					"recovery codes require an enabled MFA provider")
			} else {
				respondInternalError(w, r, "failed to regenerate recovery codes", err)
			}
			return
		}
		RespondJSON(w, api.MfaRecoveryCodesResponse{RecoveryCodes: codes})
	}
}

func mfaRecoveryCodesStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		authInfo := auth.Authentication.Require(ctx)
		count, err := db.CountUnusedMfaRecoveryCodes(ctx, authInfo.CurrentUserID())
		if err != nil {
			respondInternalError(w, r, "failed to count recovery codes", err)
			return
		}
		RespondJSON(w, api.MfaRecoveryCodesStatusResponse{RemainingCodes: count})
	}
}

func notifyMfaProviderReset(ctx context.Context, user *types.UserAccount, provider types.MfaProvider) error {
	mailer := internalctx.GetMailer(ctx)
	return mailer.Send(ctx, mail.New(
		mail.ToWithName(user.Name, user.Email),
		mail.Subject("Multi-factor authentication provider removed"),
		mail.HtmlBodyTemplate(mail.TemplateMfaProviderReset, map[string]any{
			"Name":     user.Name,
			"Provider": provider,
		}),
	))
}

func providerFromPath(w http.ResponseWriter, r *http.Request) (types.MfaProvider, bool) {
	provider, err := types.ParseMfaProvider(chi.URLParam(r, "provider"))
	if err != nil {
		http.NotFound(w, r)
		return "", false
	}
	return provider, true
}

func currentUser(w http.ResponseWriter, r *http.Request) (*types.UserAccount, bool) {
	ctx := r.Context()
	if user, ok := internalctx.GetUserAccount(ctx); ok {
		return user, true
	}
	authInfo := auth.Authentication.Require(ctx)
	user, err := db.GetUserAccountByID(ctx, authInfo.CurrentUserID())
	if err != nil {
		if errors.Is(err, apierrors.ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
		} else {
			respondInternalError(w, r, "failed to get user", err)
		}
		return nil, false
	}
	return user, true
}

// mfaRequestContext loads the current user and the resolved org settings,
// memoizing the settings in the request context. The returned context must be
// used for all further work in the handler.
func mfaRequestContext(
	w http.ResponseWriter,
	r *http.Request,
	resolver *mfa.Resolver,
) (ctx context.Context, settings *mfa.OrgSettings, user *types.UserAccount, ok bool) {
	ctx = r.Context()
	user, ok = currentUser(w, r)
	if !ok {
		return ctx, nil, nil, false
	}
	authInfo := auth.Authentication.Require(ctx)
	ctx, settings, err := resolver.ResolveForRequest(ctx, authInfo.CurrentOrgID())
	if err != nil {
		respondInternalError(w, r, "failed to resolve MFA settings", err)
		return ctx, nil, nil, false
	}
	return ctx, settings, user, true
}

func rawVerificationCookie(r *http.Request) string {
	if cookie, err := r.Cookie(mfa.VerificationCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func challengeToDTO(challenge mfa.Challenge) api.MfaChallengeResponse {
	return api.MfaChallengeResponse{
		Provider:           string(challenge.Provider),
		Secret:             challenge.Secret,
		OtpProvisioningURI: challenge.ProvisioningURI,
		QRCode:             challenge.QRCode,
		SigRequest:         challenge.SigRequest,
		HostName:           challenge.HostName,
		Message:            challenge.Message,
	}
}

// respondFlowError maps flow errors onto the HTTP surface. User errors become
// 400s with a message, the not-required and already-verified outcomes become
// redirects for browsers and a message response for JSON callers, and
// everything else is an internal error.
func respondFlowError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	log := internalctx.GetLogger(ctx)

	if validationErr := validation.AsError(err); validationErr != nil {
		respondValidationError(w, validationErr)
		return
	}

	switch {
	case errors.Is(err, apierrors.ErrNotRequired):
		if IsJSONRequest(r) {
			RespondJSONMessage(w, http.StatusOK, "MFA verification is not required")
		} else {
			http.Redirect(w, r, "/", http.StatusFound)
		}
	case errors.Is(err, apierrors.ErrAlreadyVerified):
		if IsJSONRequest(r) {
			RespondJSONMessage(w, http.StatusOK, "MFA verification is already complete")
		} else {
			http.Redirect(w, r, "/", http.StatusFound)
		}
	case errors.Is(err, apierrors.ErrAlreadySetup):
		RespondJSONMessage(w, http.StatusBadRequest, "this provider is already set up")
	case errors.Is(err, apierrors.ErrNotFound):
		RespondJSONMessage(w, http.StatusBadRequest, "this provider is not set up for your account")
	case errors.Is(err, apierrors.ErrCredentialMissing):
		log.Debug("MFA provider refused", zap.Error(err))
		RespondJSONMessage(w, http.StatusBadRequest, "this provider is not enabled for your organization")
	case errors.Is(err, apierrors.ErrProviderRejected):
		RespondJSONMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apierrors.ErrConfiguration):
		log.Error("MFA settings are invalid", zap.Error(err))
		sentry.GetHubFromContext(ctx).CaptureException(err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	default:
		respondInternalError(w, r, "MFA flow failed", err)
	}
}
