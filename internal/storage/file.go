package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Veraticus/budgetbot/internal/rules"
)

// FileRepository stores the rule set as a JSON document on disk.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileRepository creates a repository backed by the file at path.
func NewFileRepository(path string) (*FileRepository, error) {
	if err := validateString(path, "path"); err != nil {
		return nil, err
	}
	return &FileRepository{path: path}, nil
}

// Path returns the backing file path.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the rule set. A missing file yields an empty rule set.
func (r *FileRepository) Load(ctx context.Context) (*rules.RuleSet, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return rules.NewRuleSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", rules.ErrPersistence, r.path, err)
	}

	rs, err := rules.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", r.path, err)
	}

	slog.Debug("Loaded rules", "path", r.path, "count", rs.Len())
	return rs, nil
}

// Save overwrites the file with the rule set. The document is written to a
// temporary file in the same directory and renamed into place.
func (r *FileRepository) Save(ctx context.Context, rs *rules.RuleSet) error {
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

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create rules directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".rules-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write rules: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", r.path, err)
	}

	slog.Debug("Saved rules", "path", r.path, "count", rs.Len())
	return nil
}
