package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/budgetbot/internal/common"
)

// Backend names a rule repository implementation.
type Backend string

// Rule repository backends.
const (
	BackendFile     Backend = "file"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Postgres holds the connection settings for the postgres backend.
type Postgres struct {
	Host     string
	Database string
	User     string
	Password string
	SSLMode  string
	Port     int
}

// Rules is the resolved rule engine configuration.
type Rules struct {
	Categories map[string]string
	Backend    Backend
	Path       string
	Postgres   Postgres
	Workers    int
}

// SetDefaults registers the default values of every key read by LoadRules.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("rules.backend", string(BackendFile))
	v.SetDefault("rules.postgres.port", 5432)
	v.SetDefault("rules.postgres.sslmode", "disable")
	v.SetDefault("apply.workers", 4)
}

// LoadRules reads the rule engine configuration from v.
func LoadRules(v *viper.Viper) (*Rules, error) {
	cfg := &Rules{
		Backend: Backend(strings.ToLower(v.GetString("rules.backend"))),
		Path:    ExpandPath(v.GetString("rules.path")),
		Workers: v.GetInt("apply.workers"),
		Postgres: Postgres{
			Host:     v.GetString("rules.postgres.host"),
			Port:     v.GetInt("rules.postgres.port"),
			Database: v.GetString("rules.postgres.database"),
			User:     v.GetString("rules.postgres.user"),
			Password: v.GetString("rules.postgres.password"),
			SSLMode:  v.GetString("rules.postgres.sslmode"),
		},
		Categories: v.GetStringMapString("categories"),
	}

	switch cfg.Backend {
	case BackendFile, BackendSQLite:
		if cfg.Path == "" {
			dir, err := defaultDir()
			if err != nil {
				return nil, err
			}
			name := "rules.json"
			if cfg.Backend == BackendSQLite {
				name = "rules.db"
			}
			cfg.Path = filepath.Join(dir, name)
		}
	case BackendPostgres:
		if cfg.Postgres.Host == "" || cfg.Postgres.Database == "" {
			return nil, fmt.Errorf("%w: rules.postgres.host and rules.postgres.database are required", common.ErrMissingConfig)
		}
	default:
		return nil, fmt.Errorf("%w: unknown rules.backend %q", common.ErrInvalidConfig, cfg.Backend)
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: rules.path is unset and %w", common.ErrMissingConfig, err)
	}
	return filepath.Join(home, ".config", "budgetbot"), nil
}
