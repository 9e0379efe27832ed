package context

import (
	"context"

	"github.com/ze-tech/passbold/internal/db/queryable"
	"github.com/ze-tech/passbold/internal/mail"
	"go.uber.org/zap"
)

type contextKey int

const (
	ctxKeyDb contextKey = iota
	ctxKeyLogger
	ctxKeyUserAccount
	ctxKeyMfaOrgSettings
	ctxKeyMailer
)

func GetDb(ctx context.Context) queryable.Queryable {
	if db, ok := ctx.Value(ctxKeyDb).(queryable.Queryable); ok {
		return db
	}
	panic("no database connection in context")
}

func WithDb(ctx context.Context, db queryable.Queryable) context.Context {
	return context.WithValue(ctx, ctxKeyDb, db)
}

func GetLogger(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(ctxKeyLogger).(*zap.Logger); ok {
		return logger
	}
	panic("no logger in context")
}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, logger)
}

func GetMailer(ctx context.Context) mail.Mailer {
	if mailer, ok := ctx.Value(ctxKeyMailer).(mail.Mailer); ok {
		return mailer
	}
	panic("no mailer in context")
}

func WithMailer(ctx context.Context, mailer mail.Mailer) context.Context {
	return context.WithValue(ctx, ctxKeyMailer, mailer)
}
