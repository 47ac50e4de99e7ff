package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "thisisasecretkeythatis32charslong!!"

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GROUPLEDGER_AUTH_JWT_SECRET", testSecret)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "./data/ledger.db", cfg.Database.DSN)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, uint64(5), cfg.Ledger.MaxRetries)
	assert.Equal(t, 10*time.Millisecond, cfg.Ledger.RetryBase)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GROUPLEDGER_AUTH_JWT_SECRET", testSecret)
	t.Setenv("GROUPLEDGER_SERVER_PORT", "9090")
	t.Setenv("GROUPLEDGER_SERVER_LOG_LEVEL", "debug")
	t.Setenv("GROUPLEDGER_DATABASE_DRIVER", "postgres")
	t.Setenv("GROUPLEDGER_DATABASE_DSN", "postgres://ledger@localhost:5432/ledger")
	t.Setenv("GROUPLEDGER_LEDGER_RETRY_BASE", "25ms")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://ledger@localhost:5432/ledger", cfg.Database.DSN)
	assert.Equal(t, 25*time.Millisecond, cfg.Ledger.RetryBase)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7070
auth:
  jwt_secret: `+testSecret+`
ledger:
  max_retries: 2
`), 0o600))
	t.Setenv("GROUPLEDGER_SERVER_PORT", "7171")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7171, cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, uint64(2), cfg.Ledger.MaxRetries)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{}},
		{name: "short secret", env: map[string]string{"GROUPLEDGER_AUTH_JWT_SECRET": "short"}},
		{name: "bad driver", env: map[string]string{
			"GROUPLEDGER_AUTH_JWT_SECRET": testSecret,
			"GROUPLEDGER_DATABASE_DRIVER": "mysql",
		}},
		{name: "bad log level", env: map[string]string{
			"GROUPLEDGER_AUTH_JWT_SECRET":  testSecret,
			"GROUPLEDGER_SERVER_LOG_LEVEL": "verbose",
		}},
		{name: "port out of range", env: map[string]string{
			"GROUPLEDGER_AUTH_JWT_SECRET": testSecret,
			"GROUPLEDGER_SERVER_PORT":     "70000",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("GROUPLEDGER_AUTH_JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
