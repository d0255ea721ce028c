package main

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"authentication_api/internal/config"
	"authentication_api/internal/handlers"
	"authentication_api/internal/logger"
	"authentication_api/internal/metrics"
	"authentication_api/internal/repository"
	"authentication_api/internal/repository/db"
	"authentication_api/internal/server"
	"authentication_api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  func(cmd *cobra.Command, _ []string) error { return runServe(cmd, v) },
	}
}

func runServe(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeDB, err := openRepository(ctx, cfg)
	if err != nil {
		log.Errorw("failed to open storage", "driver", cfg.DB.Driver, "err", err)
		return err
	}
	defer func() {
		if cerr := closeDB(); cerr != nil {
			log.Errorw("failed to close storage", "err", cerr)
		}
	}()

	tokens, err := service.NewTokenIssuer(cfg.Auth.Secret, cfg.Auth.Issuer)
	if err != nil {
		return err
	}
	m := metrics.New()
	services := service.NewService(service.Deps{
		Repos:     repos,
		Tokens:    tokens,
		Log:       log,
		Metrics:   m,
		Retention: cfg.Audit.Retention,
	})

	if cfg.LogLevel != logger.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	apiHandler := handlers.NewHandler(services, log, m)

	go services.Sweeper.Run(ctx, cfg.Audit.SweepInterval)

	srv := server.New(cfg.Port, apiHandler.InitRoutes())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()
	log.Infow("server_started", "addr", srv.Addr(), "driver", cfg.DB.Driver)

	select {
	case err := <-errCh:
		if err != nil {
			log.Errorw("error starting server", "err", err)
		}
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
		return err
	}
	return nil
}

// openRepository wires the configured storage, running migrations for SQL
// drivers. The returned func closes the underlying database.
func openRepository(ctx context.Context, cfg *config.Config) (*repository.Repository, func() error, error) {
	if cfg.DB.Driver == config.DriverMemory {
		return repository.NewMemoryRepository(), func() error { return nil }, nil
	}

	sqlDB, dialect, err := openSQL(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewRepository(sqlDB, dialect), sqlDB.Close, nil
}

func openSQL(ctx context.Context, cfg *config.Config) (*sql.DB, repository.Dialect, error) {
	var dialect repository.Dialect
	switch cfg.DB.Driver {
	case config.DriverSQLite:
		dialect = repository.SQLite
	case config.DriverPostgres:
		dialect = repository.Postgres
	default:
		return nil, "", fmt.Errorf("driver %q has no SQL database", cfg.DB.Driver)
	}

	sqlDB, err := db.InitDB(cfg.DB.Driver, cfg.DSN())
	if err != nil {
		return nil, "", err
	}
	if err := db.Migrate(ctx, sqlDB, cfg.DB.Driver); err != nil {
		_ = sqlDB.Close()
		return nil, "", err
	}
	return sqlDB, dialect, nil
}
