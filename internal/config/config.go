// Package config provides configuration types, defaults, and persistence for
// the workbench session core.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/devpane/workbench/internal/agent/client"
	"github.com/devpane/workbench/internal/log"
	"github.com/devpane/workbench/internal/tracing"
)

// Config holds all configuration options for workbench.
type Config struct {
	Agent   AgentConfig    `mapstructure:"agent"`
	Storage StorageConfig  `mapstructure:"storage"`
	Log     LogConfig      `mapstructure:"log"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

// AgentConfig selects and configures the external agent client.
type AgentConfig struct {
	// Client is the registered client type, e.g. "mock".
	Client string `mapstructure:"client"`

	// Model selects the model for new sessions. Empty means provider default.
	Model string `mapstructure:"model"`

	// TokenFile is the file holding the auth token. Watched for changes.
	TokenFile string `mapstructure:"token_file"`

	// WorkDir is the working directory for new sessions.
	// Default: current directory at startup.
	WorkDir string `mapstructure:"work_dir"`

	// HistoryCacheTTL caches history replay results for this many seconds.
	// 0 disables the cache.
	HistoryCacheTTL int `mapstructure:"history_cache_ttl"`
}

// StorageConfig holds session index persistence options.
type StorageConfig struct {
	// DBPath is the sqlite file for the session index.
	// Default: ~/.workbench/sessions.db
	DBPath string `mapstructure:"db_path"`
}

// LogConfig holds debug log options.
type LogConfig struct {
	// Path is the debug log file. Empty disables file logging.
	Path string `mapstructure:"path"`

	// Level is the minimum severity: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
}

// DefaultDBPath returns the default path for the session index.
// Returns ~/.workbench/sessions.db or empty string if home dir unavailable.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".workbench", "sessions.db")
}

// DefaultTokenFile returns the default auth-token file path.
func DefaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".workbench", "token")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Agent: AgentConfig{
			Client:          string(client.ClientMock),
			Model:           "",
			TokenFile:       DefaultTokenFile(),
			WorkDir:         "",
			HistoryCacheTTL: 30,
		},
		Storage: StorageConfig{
			DBPath: DefaultDBPath(),
		},
		Log: LogConfig{
			Path:  "",
			Level: "debug",
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// MinLogLevel maps the configured level name to a log.Level.
func (l LogConfig) MinLogLevel() (log.Level, error) {
	switch l.Level {
	case "", "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	default:
		return log.LevelDebug, fmt.Errorf("log.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", l.Level)
	}
}

// ValidateAgent checks the agent configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateAgent(agent AgentConfig) error {
	if agent.Client != "" && !client.IsRegistered(client.ClientType(agent.Client)) {
		return fmt.Errorf("agent.client %q is not a registered client type (have %v)", agent.Client, client.Registered())
	}
	if agent.HistoryCacheTTL < 0 {
		return fmt.Errorf("agent.history_cache_ttl must not be negative, got %d", agent.HistoryCacheTTL)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(cfg tracing.Config) error {
	if cfg.SampleRate < 0.0 || cfg.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", cfg.SampleRate)
	}

	if cfg.Exporter != "" {
		switch cfg.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", cfg.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if cfg.Enabled {
		if cfg.Exporter == "file" && cfg.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if cfg.Exporter == "otlp" && cfg.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// Validate checks the full configuration.
func (c Config) Validate() error {
	if err := ValidateAgent(c.Agent); err != nil {
		return err
	}
	if _, err := c.Log.MinLogLevel(); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Workbench Configuration

# External agent client settings
agent:
  # Registered client type (default: mock)
  client: mock

  # Model for new sessions (empty = provider default)
  # model: fast-1

  # Auth token file, watched for changes
  # token_file: ~/.workbench/token

  # Working directory for new sessions (empty = current directory)
  # work_dir: /path/to/project

  # History replay cache TTL in seconds (0 disables)
  history_cache_ttl: 30

# Session index persistence
storage:
  # db_path: ~/.workbench/sessions.db

# Debug logging
log:
  # path: ~/.workbench/debug.log
  level: debug

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.workbench/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
