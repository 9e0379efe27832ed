package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth/v5"
	"github.com/ze-tech/passbold/internal/auth"
	"github.com/ze-tech/passbold/internal/db/queryable"
	"github.com/ze-tech/passbold/internal/env"
	"github.com/ze-tech/passbold/internal/mail"
	"github.com/ze-tech/passbold/internal/mfa"
	"github.com/ze-tech/passbold/internal/middleware"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Logger        *zap.Logger
	Db            queryable.Queryable
	Mailer        mail.Mailer
	JWTAuth       *jwtauth.JWTAuth
	Resolver      *mfa.Resolver
	Gate          *mfa.Gate
	Flow          *mfa.Flow
	SettingsStore mfa.SettingsStore
}

func NewRouter(deps RouterDeps) http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.LoggerCtxMiddleware(deps.Logger))
	router.Use(middleware.DbCtxMiddleware(deps.Db))
	router.Use(middleware.MailerCtxMiddleware(deps.Mailer))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(deps.JWTAuth))
		r.Use(auth.ClaimsMiddleware)

		r.Route("/mfa", func(r chi.Router) {
			r.Route("/setup/{provider}", func(r chi.Router) {
				r.Get("/", mfaBeginHandler(deps.Resolver, deps.Flow, mfa.ModeSetup))
				r.With(submitRateLimiter()).
					Post("/", mfaCompleteHandler(deps.Resolver, deps.Flow, mfa.ModeSetup))
				r.Delete("/", mfaResetHandler(deps.Flow))
			})
			r.Route("/verify/{provider}", func(r chi.Router) {
				r.Get("/", mfaBeginHandler(deps.Resolver, deps.Flow, mfa.ModeVerify))
				r.With(submitRateLimiter()).
					Post("/", mfaCompleteHandler(deps.Resolver, deps.Flow, mfa.ModeVerify))
			})
			r.Get("/recovery-codes", mfaRecoveryCodesStatusHandler())
			r.With(submitRateLimiter()).
				Post("/recovery-codes", mfaRecoveryCodesRegenerateHandler(deps.Flow))
			r.Route("/settings", func(r chi.Router) {
				r.Get("/", getMfaSettingsHandler(deps.Resolver))
				r.Post("/", updateMfaSettingsHandler(deps.SettingsStore, deps.Resolver))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.MfaGateMiddleware(deps.Resolver, deps.Gate))
			r.Get("/users", getUserAccountsHandler(deps.Resolver))
		})
	})

	return router
}

// submitRateLimiter throttles challenge submissions per user, falling back to
// the client IP before authentication.
func submitRateLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(
		env.MfaVerifyRateLimitPerMinute(),
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if authInfo, ok := auth.Authentication.Get(r.Context()); ok {
				return authInfo.CurrentUserID().String(), nil
			}
			return httprate.KeyByIP(r)
		}),
	)
}
