package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/budgetbot/internal/common"
	"github.com/Veraticus/budgetbot/internal/config"
	"github.com/Veraticus/budgetbot/internal/service"
	"github.com/Veraticus/budgetbot/internal/storage"
)

// loadConfig resolves the rule engine configuration from the global viper.
func loadConfig() (*config.Rules, error) {
	return config.LoadRules(viper.GetViper())
}

// openRepository builds the repository for the configured backend. The
// returned close function is always safe to call.
func openRepository(ctx context.Context, cfg *config.Rules) (service.RuleRepository, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case config.BackendFile:
		repo, err := storage.NewFileRepository(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return repo, noop, nil

	case config.BackendSQLite:
		repo, err := storage.NewSQLiteRepository(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			return nil, noop, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repo, func() {
			if closeErr := repo.Close(); closeErr != nil {
				slog.Error("failed to close storage", "error", closeErr)
			}
		}, nil

	case config.BackendPostgres:
		pgCfg := storage.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
		}
		var repo *storage.PostgresRepository
		err := common.WithRetry(ctx, func() error {
			var connErr error
			repo, connErr = storage.NewPostgresRepository(ctx, pgCfg, slog.Default())
			return connErr
		}, service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return repo, repo.Close, nil
	}

	return nil, noop, fmt.Errorf("%w: unknown rules.backend %q", common.ErrInvalidConfig, cfg.Backend)
}
