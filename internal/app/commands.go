package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"saas_backend/internal/config"
	"saas_backend/internal/database"
	"saas_backend/internal/logger"
	"saas_backend/internal/workers"
	"saas_backend/pkg/apperrors"
)

// Execute - точка входа бинаря
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		logger.Fatal("Command failed", "error", err.Error())
	}
}

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "saas",
		Short:         "Multi-tenant SaaS backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newRolloverCommand(),
		newSweepTokensCommand(),
	)
	return root
}

// loadConfig читает конфиг и настраивает логгер и режим ошибок
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Server.Env, cfg.Server.LogLevel)
	apperrors.Debug = cfg.IsDevelopment()
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	return cfg, nil
}

func newServeCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API and background workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := Bootstrap(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if migrate {
				if err := database.Migrate(ctx, a.DB); err != nil {
					return err
				}
			}
			if err := a.SeedAdmin(ctx); err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			return a.Serve(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run migrations before start")
	return cmd
}

// Serve запускает HTTP сервер и воркеры до отмены ctx
func (a *Application) Serve(ctx context.Context) error {
	cfg := a.Config
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: SetupRouter(cfg, a.Services, a.HealthChecks()),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Workers.Enabled {
		worker := workers.NewSubscriptionWorker(
			a.Services.Subscriptions,
			a.Services.Tokens,
			cfg.Workers.RolloverInterval(),
			cfg.Workers.TokenSweepInterval(),
		)
		g.Go(func() error { return worker.Run(gctx) })
	}

	err := g.Wait()
	logger.Info("Server stopped")
	return err
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Info("Migrations applied")
			return nil
		},
	}
}

func newRolloverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Process due subscription changes once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := Bootstrap(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Services.Subscriptions.ProcessScheduledChanges(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("Rollover finished",
				"scanned", report.Scanned,
				"applied", report.Applied(),
				"failed", len(report.Failures),
			)
			if len(report.Failures) > 0 {
				return fmt.Errorf("rollover: %d subscriptions failed", len(report.Failures))
			}
			return nil
		},
	}
}

func newSweepTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-tokens",
		Short: "Delete expired and revoked refresh tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := Bootstrap(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Services.Tokens.SweepStale(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("Refresh tokens swept", "deleted", n)
			return nil
		},
	}
}
