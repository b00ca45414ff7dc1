package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/devpane/workbench/internal/agent/client"
	"github.com/devpane/workbench/internal/agent/service"
	"github.com/devpane/workbench/internal/config"
	"github.com/devpane/workbench/internal/credwatch"
	"github.com/devpane/workbench/internal/log"
	"github.com/devpane/workbench/internal/store"
	"github.com/devpane/workbench/internal/tracing"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config

	logCleanup  func()
	traceCloser *tracing.Provider
)

var rootCmd = &cobra.Command{
	Use:                "workbench",
	Short:              "Session multiplexer for external coding agents",
	Long:               `Workbench multiplexes many logical conversation sessions over one shared external agent client, translating the agent's raw event stream into consumer-facing progress events.`,
	Version:            version,
	PersistentPreRunE:  setupRuntime,
	PersistentPostRunE: teardownRuntime,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/workbench/config.yaml)")
	rootCmd.PersistentFlags().String("client", "",
		"agent client type (overrides config)")

	_ = viper.BindPFlag("agent.client", rootCmd.PersistentFlags().Lookup("client"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("agent.client", defaults.Agent.Client)
	viper.SetDefault("agent.history_cache_ttl", defaults.Agent.HistoryCacheTTL)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .workbench/config.yaml (current directory)
		// 2. ~/.config/workbench/config.yaml (user config)
		if _, err := os.Stat(".workbench/config.yaml"); err == nil {
			viper.SetConfigFile(".workbench/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "workbench"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .workbench/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".workbench/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func setupRuntime(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Log.Path != "" {
		cleanup, err := log.Init(cfg.Log.Path)
		if err != nil {
			return fmt.Errorf("initializing log: %w", err)
		}
		logCleanup = cleanup
	}
	level, err := cfg.Log.MinLogLevel()
	if err != nil {
		return err
	}
	log.SetMinLevel(level)

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	traceCloser = provider
	return nil
}

func teardownRuntime(cmd *cobra.Command, args []string) error {
	if traceCloser != nil {
		_ = traceCloser.Shutdown(cmd.Context())
	}
	if logCleanup != nil {
		logCleanup()
	}
	return nil
}

// openIndex opens the session index at the configured database path.
func openIndex(ctx context.Context) (*store.Index, error) {
	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return store.Open(ctx, dbPath)
}

// buildService assembles the session service from the active config,
// including the session index and the auth token watcher when a token
// file is configured. The returned stop function releases everything the
// service holds.
func buildService(ctx context.Context) (*service.Service, func(), error) {
	idx, err := openIndex(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("opening session index: %w", err)
	}

	opts := []service.Option{
		service.WithIndex(idx),
		service.WithTracer(traceCloser.Tracer()),
	}
	if cfg.Agent.WorkDir != "" {
		opts = append(opts, service.WithWorkDir(cfg.Agent.WorkDir))
	}
	if cfg.Agent.HistoryCacheTTL > 0 {
		opts = append(opts, service.WithHistoryCache(historyCacheTTL(cfg.Agent)))
	}

	svc := service.NewService(client.ClientType(cfg.Agent.Client), opts...)

	var watcher *credwatch.Watcher
	if cfg.Agent.TokenFile != "" {
		if token, err := credwatch.ReadToken(cfg.Agent.TokenFile); err == nil {
			svc.SetAuthToken(ctx, token)
		}
		w, err := credwatch.New(credwatch.DefaultConfig(cfg.Agent.TokenFile, func(token string) {
			svc.SetAuthToken(context.Background(), token)
		}))
		if err == nil && w.Start() == nil {
			watcher = w
		} else {
			log.Warn(log.CatWatch, "Token file watch unavailable", "path", cfg.Agent.TokenFile)
		}
	}

	stop := func() {
		if watcher != nil {
			_ = watcher.Stop()
		}
		if err := svc.Shutdown(context.Background()); err != nil {
			log.ErrorErr(log.CatAgent, "Service shutdown failed", err)
		}
		_ = idx.Close()
	}
	return svc, stop, nil
}

// historyCacheTTL converts the configured ttl in seconds to a duration.
func historyCacheTTL(agent config.AgentConfig) time.Duration {
	return time.Duration(agent.HistoryCacheTTL) * time.Second
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
