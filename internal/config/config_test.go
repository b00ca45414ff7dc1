package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	_ "github.com/devpane/workbench/internal/agent/mock"
	"github.com/devpane/workbench/internal/log"
	"github.com/devpane/workbench/internal/tracing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, "mock", cfg.Agent.Client)
	require.Equal(t, 30, cfg.Agent.HistoryCacheTTL)
	require.Equal(t, "debug", cfg.Log.Level)
	require.False(t, cfg.Tracing.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestValidateAgent(t *testing.T) {
	require.NoError(t, ValidateAgent(AgentConfig{}))
	require.NoError(t, ValidateAgent(AgentConfig{Client: "mock"}))

	err := ValidateAgent(AgentConfig{Client: "no-such-client"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a registered client type")

	err = ValidateAgent(AgentConfig{HistoryCacheTTL: -1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "history_cache_ttl")
}

func TestLogConfig_MinLogLevel(t *testing.T) {
	for name, want := range map[string]log.Level{
		"":      log.LevelDebug,
		"debug": log.LevelDebug,
		"info":  log.LevelInfo,
		"warn":  log.LevelWarn,
		"error": log.LevelError,
	} {
		level, err := LogConfig{Level: name}.MinLogLevel()
		require.NoError(t, err)
		require.Equal(t, want, level)
	}

	_, err := LogConfig{Level: "verbose"}.MinLogLevel()
	require.Error(t, err)
}

func TestValidateTracing(t *testing.T) {
	require.NoError(t, ValidateTracing(tracing.DefaultConfig()))

	err := ValidateTracing(tracing.Config{SampleRate: 1.5})
	require.Error(t, err)
	require.Contains(t, err.Error(), "sample_rate")

	err = ValidateTracing(tracing.Config{Exporter: "kafka"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "exporter")

	err = ValidateTracing(tracing.Config{Enabled: true, Exporter: "file"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "file_path")

	err = ValidateTracing(tracing.Config{Enabled: true, Exporter: "otlp"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "otlp_endpoint")

	require.NoError(t, ValidateTracing(tracing.Config{
		Enabled:    true,
		Exporter:   "file",
		FilePath:   "/tmp/traces.jsonl",
		SampleRate: 0.5,
	}))
}

func TestWriteDefaultConfig_TemplateParses(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(configPath))

	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig(), "default template should be valid yaml")

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	require.Equal(t, "mock", cfg.Agent.Client)
	require.Equal(t, 30, cfg.Agent.HistoryCacheTTL)
	require.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}
