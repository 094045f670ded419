package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/budgetbot/internal/common"
	"github.com/Veraticus/budgetbot/internal/rules"
	"github.com/Veraticus/budgetbot/internal/service"
)

// SQLiteRepository stores the rule document in a single-row SQLite table and
// keeps every saved revision in a history table.
type SQLiteRepository struct {
	db     *sql.DB
	dbPath string
	retry  service.RetryOptions
	mu     sync.Mutex
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath.
// Call Migrate before use.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		dbPath: dbPath,
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2,
		},
	}, nil
}

// Close closes the database connection.
func (s *SQLiteRepository) Close() error {
	return s.db.Close()
}

// Load reads the stored rule document. An empty table yields an empty rule set.
func (s *SQLiteRepository) Load(ctx context.Context) (*rules.RuleSet, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var document string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM rule_documents WHERE id = 1").Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return rules.NewRuleSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read rule document: %w", rules.ErrPersistence, err)
	}

	return rules.Decode([]byte(document))
}

// Save replaces the stored rule document and records it in the history.
// Busy or locked databases are retried.
func (s *SQLiteRepository) Save(ctx context.Context, rs *rules.RuleSet) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	return common.WithRetry(ctx, func() error {
		err := s.saveDocument(ctx, string(data), rs.Len())
		if err != nil && !isBusy(err) {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		return err
	}, s.retry)
}

func (s *SQLiteRepository) saveDocument(ctx context.Context, document string, count int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rule_documents (id, document, rule_count, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			document = excluded.document,
			rule_count = excluded.rule_count,
			updated_at = excluded.updated_at
	`, document, count)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to save rule document: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO rule_document_history (document, rule_count) VALUES (?, ?)",
		document, count)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record rule document history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rule document: %w", err)
	}
	return nil
}

// Revisions returns how many rule documents have been saved.
func (s *SQLiteRepository) Revisions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rule_document_history").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count revisions: %w", err)
	}
	return n, nil
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
