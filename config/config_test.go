package config

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("LEDGER_JWT_SECRET_KEY", "test-secret")
	t.Setenv("LEDGER_DATABASE_DRIVER", "memory")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 100, cfg.Ledger.HistoryPageSize)
	assert.Equal(t, "test-secret", cfg.JWT.SecretKey)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: "9090"
database:
  driver: pgx
  host: db
  port: 5434
  user: bank
  password: s3cret
  name: ledger
jwt:
  secret_key: from-file
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), content, 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "postgres://bank:s3cret@db:5434/ledger?sslmode=disable", cfg.DSN())
	assert.NotContains(t, cfg.SafeDSN(), "s3cret")
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("LEDGER_JWT_SECRET_KEY", "x")
		t.Setenv("LEDGER_DATABASE_DRIVER", "sqlite")
		_, err := Load(t.TempDir())
		assert.Error(t, err)
	})
}

func TestDSN_EscapesCredentials(t *testing.T) {
	var cfg Config
	cfg.Database.User = "led@ger"
	cfg.Database.Password = "p@ss/w:rd?#"
	cfg.Database.Host = "db.internal"
	cfg.Database.Port = 5432
	cfg.Database.Name = "bank"
	cfg.Database.SSLMode = "require"

	u, err := url.Parse(cfg.DSN())
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "led@ger", u.User.Username())
	password, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "p@ss/w:rd?#", password)
	assert.Equal(t, "db.internal:5432", u.Host)
	assert.Equal(t, "/bank", u.Path)
	assert.Equal(t, "require", u.Query().Get("sslmode"))

	safe, err := url.Parse(cfg.SafeDSN())
	require.NoError(t, err)
	_, hasPassword := safe.User.Password()
	assert.False(t, hasPassword)
	assert.NotContains(t, cfg.SafeDSN(), "w:rd")
}
