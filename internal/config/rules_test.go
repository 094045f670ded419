package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/budgetbot/internal/common"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoadRules_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	cfg, err := LoadRules(newViper(nil))
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, filepath.Join("/home/tester", ".config", "budgetbot", "rules.json"), cfg.Path)
	assert.Equal(t, 4, cfg.Workers)
	assert.Empty(t, cfg.Categories)
}

func TestLoadRules(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("RULES_DIR", "/srv/rules")

	tests := []struct {
		values  map[string]any
		check   func(*testing.T, *Rules)
		wantErr error
		name    string
	}{
		{
			name:   "sqlite default path",
			values: map[string]any{"rules.backend": "SQLite"},
			check: func(t *testing.T, cfg *Rules) {
				t.Helper()
				assert.Equal(t, BackendSQLite, cfg.Backend)
				assert.Equal(t, "/home/tester/.config/budgetbot/rules.db", cfg.Path)
			},
		},
		{
			name:   "expanded path",
			values: map[string]any{"rules.path": "$RULES_DIR/rules.json"},
			check: func(t *testing.T, cfg *Rules) {
				t.Helper()
				assert.Equal(t, "/srv/rules/rules.json", cfg.Path)
			},
		},
		{
			name: "postgres",
			values: map[string]any{
				"rules.backend":           "postgres",
				"rules.postgres.host":     "db.internal",
				"rules.postgres.database": "budget",
				"rules.postgres.user":     "bot",
			},
			check: func(t *testing.T, cfg *Rules) {
				t.Helper()
				assert.Equal(t, Postgres{Host: "db.internal", Port: 5432, Database: "budget", User: "bot", SSLMode: "disable"}, cfg.Postgres)
			},
		},
		{
			name:   "categories and workers",
			values: map[string]any{"categories": map[string]any{"abc": "Dining"}, "apply.workers": 0},
			check: func(t *testing.T, cfg *Rules) {
				t.Helper()
				assert.Equal(t, map[string]string{"abc": "Dining"}, cfg.Categories)
				assert.Equal(t, 1, cfg.Workers)
			},
		},
		{
			name:    "postgres without host",
			values:  map[string]any{"rules.backend": "postgres", "rules.postgres.database": "budget"},
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "unknown backend",
			values:  map[string]any{"rules.backend": "redis"},
			wantErr: common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadRules(newViper(tt.values))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("RULES_DIR", "/srv/rules")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", "/home/tester"},
		{"~/rules.json", "/home/tester/rules.json"},
		{"$RULES_DIR/rules.db", "/srv/rules/rules.db"},
		{"/etc/budgetbot/rules.json", "/etc/budgetbot/rules.json"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
