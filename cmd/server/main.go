package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ze-tech/passbold/internal/auth"
	"github.com/ze-tech/passbold/internal/buildconfig"
	"github.com/ze-tech/passbold/internal/env"
	"github.com/ze-tech/passbold/internal/handlers"
	"github.com/ze-tech/passbold/internal/migrations"
	"github.com/ze-tech/passbold/internal/svc"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "passbold",
		Version: buildconfig.Version(),
	}
	rootCmd.AddCommand(serveCommand(), migrateCommand())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	var migrateFirst bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			env.Initialize()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			registry, err := svc.NewDefault(ctx)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := registry.Shutdown(shutdownCtx); err != nil {
					fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
				}
			}()
			log := registry.GetLogger()

			if migrateFirst {
				if err := migrations.Up(log, env.DatabaseUrl()); err != nil {
					return err
				}
			}

			registry.GetJobsScheduler().Start()

			server := &http.Server{
				Addr: env.Host(),
				Handler: handlers.NewRouter(handlers.RouterDeps{
					Logger:        log,
					Db:            registry.GetDbPool(),
					Mailer:        registry.GetMailer(),
					JWTAuth:       auth.NewJWTAuth(env.JWTSecret()),
					Resolver:      registry.GetMfaResolver(),
					Gate:          registry.GetMfaGate(),
					Flow:          registry.GetMfaFlow(),
					SettingsStore: registry.GetMfaSettingsStore(),
				}),
			}

			serveErr := make(chan error, 1)
			go func() {
				log.Info("server starting", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
			}()

			select {
			case err := <-serveErr:
				return err
			case <-ctx.Done():
			}

			if delay := env.ServerShutdownDelayDuration(); delay != nil {
				log.Info("delaying shutdown", zap.Duration("delay", *delay))
				time.Sleep(*delay)
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			log.Info("server shutting down")
			return server.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", true, "apply database migrations before serving")
	return cmd
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			env.Initialize()
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return migrations.Up(logger, env.DatabaseUrl())
		},
	}
}
