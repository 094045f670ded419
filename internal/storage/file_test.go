package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/budgetbot/internal/rules"
)

func TestNewFileRepository(t *testing.T) {
	_, err := NewFileRepository("  ")
	require.ErrorIs(t, err, ErrEmptyString)

	repo, err := NewFileRepository("/tmp/rules.json")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/rules.json", repo.Path())
}

func TestFileRepository_LoadMissingFile(t *testing.T) {
	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "missing", "rules.json"))
	require.NoError(t, err)

	rs, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
}

func TestFileRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "rules.json")
	repo, err := NewFileRepository(path)
	require.NoError(t, err)

	original := sampleRuleSet(t)
	require.NoError(t, repo.Save(ctx, original))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, original.String(), loaded.String())

	want, err := rules.Encode(original)
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestFileRepository_Overwrite(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "rules.json"))
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, sampleRuleSet(t)))
	require.NoError(t, repo.Save(ctx, rules.NewRuleSet()))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())

	entries, err := os.ReadDir(filepath.Dir(repo.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files should not be left behind")
}

func TestFileRepository_LoadCorrupt(t *testing.T) {
	tests := []struct {
		name     string
		document string
	}{
		{name: "not json", document: "{rules: ["},
		{name: "unknown field", document: `{"rules":[{"operation":"and","conditions":[{"field":"memo","op":"is","value":"x","type":"string"}],"actions":[]}]}`},
		{name: "illegal operator", document: `{"rules":[{"operation":"and","conditions":[{"field":"cleared","op":"contains","value":true,"type":"boolean"}],"actions":[]}]}`},
		{name: "bad identifier", document: `{"rules":[{"operation":"and","conditions":[],"actions":[{"field":"category","op":"set","value":"dining","type":"id"}]}]}`},
		{name: "fractional amount", document: `{"rules":[{"operation":"and","conditions":[{"field":"amount","op":"gt","value":12.5,"type":"number"}],"actions":[]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rules.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.document), 0600))

			repo, err := NewFileRepository(path)
			require.NoError(t, err)

			_, err = repo.Load(context.Background())
			require.ErrorIs(t, err, rules.ErrPersistence)
		})
	}
}

func TestFileRepository_Validation(t *testing.T) {
	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "rules.json"))
	require.NoError(t, err)

	//nolint:staticcheck // nil context is exercised on purpose
	_, err = repo.Load(nil)
	require.ErrorIs(t, err, ErrNilContext)

	err = repo.Save(context.Background(), nil)
	require.ErrorIs(t, err, ErrNilParameter)

	err = repo.Save(context.Background(), &rules.RuleSet{Rules: []*rules.Rule{nil}})
	require.ErrorIs(t, err, ErrNilParameter)
}
