package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Veraticus/budgetbot/internal/rules"
)

//go:embed 001_create_rule_documents.sql
var postgresMigrationSQL string

// PostgresConfig holds the PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Database string
	User     string
	Password string
	SSLMode  string
	Port     int

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
}

// ConnString builds the libpq-style connection string, applying defaults.
func (c PostgresConfig) ConnString() string {
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// PostgresRepository stores the rule document in a single-row PostgreSQL table.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresRepository connects, verifies the connection and runs the migration.
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*PostgresRepository, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 4
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresMigrationSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", cfg.Host,
		"database", cfg.Database,
	)

	return &PostgresRepository{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (p *PostgresRepository) Close() {
	p.pool.Close()
}

// Load reads the stored rule document. No row yields an empty rule set.
func (p *PostgresRepository) Load(ctx context.Context) (*rules.RuleSet, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var document []byte
	err := p.pool.QueryRow(ctx, "SELECT document FROM rule_documents WHERE id = 1").Scan(&document)
	if errors.Is(err, pgx.ErrNoRows) {
		return rules.NewRuleSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading rule document: %w", rules.ErrPersistence, err)
	}
	return rules.Decode(document)
}

// Save replaces the stored rule document. Concurrent savers are serialised
// by a row lock on the document.
func (p *PostgresRepository) Save(ctx context.Context, rs *rules.RuleSet) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRuleSet(rs); err != nil {
		return err
	}

	data, err := rules.Encode(rs)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO rule_documents (id, document, rule_count, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE SET
			document = EXCLUDED.document,
			rule_count = EXCLUDED.rule_count,
			updated_at = EXCLUDED.updated_at
	`, string(data), rs.Len())
	if err != nil {
		return fmt.Errorf("saving rule document: %w", err)
	}

	p.logger.Debug("saved rule document", "rules", rs.Len())
	return nil
}
