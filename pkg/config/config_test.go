package config_test

import (
	_ "embed"
	"os"
	"strings"
	"testing"

	. "github.com/caretaker-tools/caretaker/pkg/config"
	"github.com/caretaker-tools/caretaker/pkg/consts"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/caretaker.yaml
var testConfigYAML string

func TestLoad(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		cfg, err := Load(strings.NewReader(testConfigYAML))
		require.NoError(t, err)
		validateTestConfig(t, cfg)
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(strings.NewReader("database:\n  user: app\n  database: app\n"))
		require.NoError(t, err)
		require.Equal(t, consts.DefaultDatabaseHost, cfg.Database.Host)
		require.Equal(t, consts.DefaultDatabasePort, cfg.Database.Port)
		require.Equal(t, consts.DefaultSearchHost, cfg.Search.Host)
	})

	t.Run("error", func(t *testing.T) {
		// Invalid YAML
		cfg, err := Load(strings.NewReader("invalid: yaml: ["))
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), "failed to unmarshal config")

		// Missing required fields
		cfg, err = Load(strings.NewReader("database:\n  host: localhost\n"))
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), "database.user is required")

		cfg, err = Load(strings.NewReader("database:\n  user: app\n"))
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), "database.database is required")
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		cfg, err := LoadFile("testdata/caretaker.yaml")
		require.NoError(t, err)
		validateTestConfig(t, cfg)
	})

	t.Run("error", func(t *testing.T) {
		cfg, err := LoadFile("testdata/nonexistent.yaml")
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), "failed to open config file")

		// Invalid content carries the path context
		tmp, err := os.CreateTemp(t.TempDir(), "caretaker_*.yaml")
		require.NoError(t, err)
		_, err = tmp.WriteString("invalid: yaml: [")
		require.NoError(t, err)
		require.NoError(t, tmp.Close())

		cfg, err = LoadFile(tmp.Name())
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), tmp.Name())
	})
}

func validateTestConfig(t *testing.T, cfg *Config) {
	t.Helper()

	require.Equal(t, "db.example.com", cfg.Database.Host)
	require.Equal(t, 5433, cfg.Database.Port)
	require.Equal(t, "app", cfg.Database.User)
	require.Equal(t, "hunter2", cfg.Database.Password.Expose())
	require.Equal(t, "app_production", cfg.Database.Database)

	require.Equal(t, "http://search.example.com:7700", cfg.Search.Host)
	require.Equal(t, "supersecret", cfg.Search.Key.Expose())
	require.Equal(t, "app_", cfg.Search.IndexPrefix)
}
