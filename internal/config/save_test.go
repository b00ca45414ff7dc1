package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	_ "github.com/devpane/workbench/internal/agent/mock"
)

func TestSaveAgent_CreatesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	err := SaveAgent(configPath, AgentConfig{
		Client:          "mock",
		Model:           "fast-1",
		HistoryCacheTTL: 60,
	})
	require.NoError(t, err)

	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	require.Equal(t, "mock", cfg.Agent.Client)
	require.Equal(t, "fast-1", cfg.Agent.Model)
	require.Equal(t, 60, cfg.Agent.HistoryCacheTTL)
}

func TestSaveAgent_PreservesOtherSections(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	initial := `# my tuned setup
agent:
  client: mock
  model: old-model
  history_cache_ttl: 30

storage:
  db_path: /data/sessions.db

log:
  level: info
`
	require.NoError(t, os.WriteFile(configPath, []byte(initial), 0o600))

	err := SaveAgent(configPath, AgentConfig{
		Client:          "mock",
		Model:           "new-model",
		HistoryCacheTTL: 30,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "# my tuned setup", "comments outside the agent section should survive")
	require.Contains(t, string(data), "db_path: /data/sessions.db")
	require.NotContains(t, string(data), "old-model")

	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	require.Equal(t, "new-model", cfg.Agent.Model)
	require.Equal(t, "/data/sessions.db", cfg.Storage.DBPath)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestSaveAgent_OmitsEmptyOptionalFields(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveAgent(configPath, AgentConfig{Client: "mock"}))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.NotContains(t, string(data), "model:")
	require.NotContains(t, string(data), "token_file:")
	require.NotContains(t, string(data), "work_dir:")
}

func TestSaveAgent_NoLeftoverTempFiles(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	require.NoError(t, SaveAgent(configPath, AgentConfig{Client: "mock"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "config.yaml", entries[0].Name())
}
