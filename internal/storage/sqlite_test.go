package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/budgetbot/internal/rules"
)

// Helper function to create a migrated test repository.
func createTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "rules.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestSQLiteRepository_Migrate(t *testing.T) {
	ctx := context.Background()
	repo := createTestRepository(t)

	var version int
	require.NoError(t, repo.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Migrating again is a no-op.
	require.NoError(t, repo.Migrate(ctx))
}

func TestSQLiteRepository_LoadEmpty(t *testing.T) {
	repo := createTestRepository(t)

	rs, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
}

func TestSQLiteRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := createTestRepository(t)

	original := sampleRuleSet(t)
	require.NoError(t, repo.Save(ctx, original))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, original.String(), loaded.String())

	require.NoError(t, repo.Save(ctx, rules.NewRuleSet()))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())

	revisions, err := repo.Revisions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, revisions)

	var count int
	require.NoError(t, repo.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rule_documents").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLiteRepository_LoadCorrupt(t *testing.T) {
	ctx := context.Background()
	repo := createTestRepository(t)

	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO rule_documents (id, document, rule_count) VALUES (1, ?, 0)", "not json")
	require.NoError(t, err)

	_, err = repo.Load(ctx)
	require.ErrorIs(t, err, rules.ErrPersistence)
}

func TestNewSQLiteRepository_EmptyPath(t *testing.T) {
	_, err := NewSQLiteRepository("")
	require.ErrorIs(t, err, ErrEmptyString)
}
