package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/ze-tech/passbold/api"
	"github.com/ze-tech/passbold/internal/apierrors"
	"github.com/ze-tech/passbold/internal/auth"
	internalctx "github.com/ze-tech/passbold/internal/context"
	"github.com/ze-tech/passbold/internal/db"
	"github.com/ze-tech/passbold/internal/mfa"
	"go.uber.org/zap"
)

// MfaGateMiddleware denies requests of sessions that still owe MFA
// verification. It must run after authentication. MFA routes themselves are
// never behind this gate, otherwise nobody could ever verify.
func MfaGateMiddleware(resolver *mfa.Resolver, gate *mfa.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := internalctx.GetLogger(ctx)
			authInfo := auth.Authentication.Require(ctx)

			user, err := db.GetUserAccountByID(ctx, authInfo.CurrentUserID())
			if err != nil {
				if errors.Is(err, apierrors.ErrNotFound) {
					http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				} else {
					log.Error("failed to get user", zap.Error(err))
					sentry.GetHubFromContext(ctx).CaptureException(err)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
				return
			}
			ctx = internalctx.WithUserAccount(ctx, user)

			ctx, settings, err := resolver.ResolveForRequest(ctx, authInfo.CurrentOrgID())
			if err != nil {
				// fail closed: unreadable settings never grant access
				log.Error("failed to resolve MFA settings", zap.Error(err))
				sentry.GetHubFromContext(ctx).CaptureException(err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			rawCookie := ""
			if cookie, err := r.Cookie(mfa.VerificationCookieName); err == nil {
				rawCookie = cookie.Value
			}

			if gate.Evaluate(settings, user, authInfo.CurrentSessionID(), rawCookie) ==
				mfa.GateStateRequiredUnverified {
				respondMfaRequired(w, settings)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondMfaRequired(w http.ResponseWriter, settings *mfa.OrgSettings) {
	enabled := settings.EnabledProviders()
	providers := make([]string, len(enabled))
	for i, p := range enabled {
		providers[i] = string(p)
	}
	body := api.MfaRequiredBody{MfaProviders: providers}
	if len(providers) > 0 {
		body.VerifyURL = "/api/v1/mfa/verify/" + providers[0]
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(api.ResponseEnvelope{
		Header: api.ResponseHeader{Status: http.StatusForbidden, Message: "MFA verification is required"},
		Body:   body,
	})
}
