package storage

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/budgetbot/internal/rules"
)

func TestPostgresConfig_ConnString(t *testing.T) {
	cfg := PostgresConfig{Host: "db", User: "bot", Password: "secret", Database: "budget"}
	assert.Equal(t,
		"host=db port=5432 user=bot password=secret dbname=budget sslmode=disable",
		cfg.ConnString())

	cfg.Port = 6543
	cfg.SSLMode = "require"
	assert.Equal(t,
		"host=db port=6543 user=bot password=secret dbname=budget sslmode=require",
		cfg.ConnString())
}

func TestNewPostgresRepository_ConnectionFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := NewPostgresRepository(ctx, PostgresConfig{
		Host:     "127.0.0.1",
		Port:     1,
		User:     "nobody",
		Database: "nothing",
	}, nil)
	require.Error(t, err)
}

// Runs against a real server when TEST_POSTGRES_HOST is set.
func TestPostgresRepository_SaveAndLoad(t *testing.T) {
	host := os.Getenv("TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("TEST_POSTGRES_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("TEST_POSTGRES_PORT"))

	ctx := context.Background()
	repo, err := NewPostgresRepository(ctx, PostgresConfig{
		Host:     host,
		Port:     port,
		User:     os.Getenv("TEST_POSTGRES_USER"),
		Password: os.Getenv("TEST_POSTGRES_PASSWORD"),
		Database: os.Getenv("TEST_POSTGRES_DB"),
	}, nil)
	require.NoError(t, err)
	defer repo.Close()

	original := sampleRuleSet(t)
	require.NoError(t, repo.Save(ctx, original))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, original.String(), loaded.String())

	require.NoError(t, repo.Save(ctx, rules.NewRuleSet()))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}
