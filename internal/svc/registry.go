package svc

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ze-tech/passbold/internal/buildconfig"
	"github.com/ze-tech/passbold/internal/env"
	"github.com/ze-tech/passbold/internal/jobs"
	"github.com/ze-tech/passbold/internal/mail"
	"github.com/ze-tech/passbold/internal/mfa"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Registry holds all process-wide services and their shutdown order.
type Registry struct {
	logger        *zap.Logger
	dbPool        *pgxpool.Pool
	mailer        mail.Mailer
	tracers       *Tracers
	jobsScheduler *jobs.Scheduler

	mfaRegistry *mfa.Registry
	mfaResolver *mfa.Resolver
	mfaGate     *mfa.Gate
	mfaFlow     *mfa.Flow

	shutdown []func(ctx context.Context) error
}

func NewDefault(ctx context.Context) (*Registry, error) {
	var r Registry
	var err error

	if r.logger, err = zap.NewProduction(); err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	r.onShutdown(func(context.Context) error { return r.logger.Sync() })

	if dsn := env.SentryDSN(); dsn != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Debug:       env.SentryDebug(),
			Environment: env.SentryEnvironment(),
			Release:     buildconfig.Version(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init sentry: %w", err)
		}
		r.onShutdown(func(context.Context) error {
			sentry.Flush(5 * time.Second)
			return nil
		})
	}

	if r.tracers, err = newTracers(ctx); err != nil {
		return nil, err
	}
	r.onShutdown(r.tracers.Shutdown)

	if r.dbPool, err = createDbPool(ctx); err != nil {
		return nil, err
	}
	r.onShutdown(func(context.Context) error {
		r.dbPool.Close()
		return nil
	})

	if r.mailer, err = createMailer(r.logger); err != nil {
		return nil, err
	}

	if r.jobsScheduler, err = r.createJobsScheduler(); err != nil {
		return nil, err
	}
	r.onShutdown(func(context.Context) error { return r.jobsScheduler.Shutdown() })

	return &r, nil
}

func (r *Registry) GetLogger() *zap.Logger            { return r.logger }
func (r *Registry) GetDbPool() *pgxpool.Pool          { return r.dbPool }
func (r *Registry) GetMailer() mail.Mailer            { return r.mailer }
func (r *Registry) GetTracers() *Tracers              { return r.tracers }
func (r *Registry) GetJobsScheduler() *jobs.Scheduler { return r.jobsScheduler }

func (r *Registry) onShutdown(fn func(ctx context.Context) error) {
	r.shutdown = append(r.shutdown, fn)
}

// Shutdown runs the registered shutdown hooks in reverse creation order.
func (r *Registry) Shutdown(ctx context.Context) error {
	var err error
	for i := len(r.shutdown) - 1; i >= 0; i-- {
		err = multierr.Append(err, r.shutdown[i](ctx))
	}
	return err
}

func createDbPool(ctx context.Context) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(env.DatabaseUrl())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if maxConns := env.DatabaseMaxConns(); maxConns != nil {
		config.MaxConns = int32(*maxConns)
	}
	config.ConnConfig.Tracer = otelpgx.NewTracer()
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

func createMailer(logger *zap.Logger) (mail.Mailer, error) {
	config := env.GetMailerConfig()
	switch config.Type {
	case env.MailerTypeSMTP:
		return mail.NewSMTPMailer(mail.SMTPConfig{
			Host:        config.SmtpConfig.Host,
			Port:        config.SmtpConfig.Port,
			Username:    config.SmtpConfig.Username,
			Password:    config.SmtpConfig.Password,
			ImplicitTLS: config.SmtpConfig.ImplicitTLS,
			From:        *config.FromAddress,
		})
	default:
		return mail.NewNoopMailer(logger), nil
	}
}
