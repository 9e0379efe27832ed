package middleware

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	internalctx "github.com/ze-tech/passbold/internal/context"
	"github.com/ze-tech/passbold/internal/db/queryable"
	"github.com/ze-tech/passbold/internal/mail"
	"go.uber.org/zap"
)

func LoggerCtxMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := internalctx.WithLogger(r.Context(), logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func DbCtxMiddleware(db queryable.Queryable) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := internalctx.WithDb(r.Context(), db)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func MailerCtxMiddleware(mailer mail.Mailer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := internalctx.WithMailer(r.Context(), mailer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func SentryMiddleware() func(http.Handler) http.Handler {
	return sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle
}
