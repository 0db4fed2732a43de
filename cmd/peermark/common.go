package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/peermark/internal/config"
	"github.com/nao1215/peermark/internal/database"
	"github.com/nao1215/peermark/internal/hostgate"
	seclog "github.com/nao1215/peermark/internal/log"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogJSONFlag retrieves the log-json flag from the command or its parent.
func getLogJSONFlag(cmd *cobra.Command) bool {
	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		logJSON, err = cmd.Root().PersistentFlags().GetBool("log-json")
		if err != nil {
			return false
		}
	}
	return logJSON
}

// changed reports whether the user set flag name on cmd.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// buildConfig creates a Config from the config file and the flags that
// cmd defines. Flags the user set explicitly override the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cmd.Flags().Lookup("config") != nil {
		cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
		if err != nil {
			return nil, err
		}
	}

	// If the user explicitly specified a config file path, error if not found.
	// Otherwise silently use the defaults when no file exists.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Targets = args

	return cfg, nil
}

// applyFlags copies explicitly set flags into cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	stringFlags := []struct {
		name string
		dst  *string
	}{
		{"service", &cfg.ServiceURL},
		{"client-tag", &cfg.ClientTag},
		{"user-agent", &cfg.UserAgent},
		{"data-dir", &cfg.DataDir},
		{"output", &cfg.ReportFile},
		{"output-dir", &cfg.OutputDir},
		{"shell", &cfg.ShellAddress},
		{"listen", &cfg.ListenAddress},
		{"url", &cfg.PageURL},
	}
	for _, s := range stringFlags {
		if !changed(cmd, s.name) {
			continue
		}
		v, err := flags.GetString(s.name)
		if err != nil {
			return err
		}
		*s.dst = v
	}

	boolFlags := []struct {
		name string
		dst  *bool
	}{
		{"json", &cfg.JSONReport},
		{"markdown", &cfg.MarkdownReport},
	}
	for _, b := range boolFlags {
		if !changed(cmd, b.name) {
			continue
		}
		v, err := flags.GetBool(b.name)
		if err != nil {
			return err
		}
		*b.dst = v
	}

	if changed(cmd, "timeout") {
		v, err := flags.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = v
	}

	if changed(cmd, "batch") {
		v, err := flags.GetInt("batch")
		if err != nil {
			return err
		}
		cfg.Concurrency = v
	}

	if changed(cmd, "selector") {
		v, err := flags.GetStringSlice("selector")
		if err != nil {
			return err
		}
		cfg.Selectors = v
	}

	return nil
}

// setupLogger creates a structured logger that masks secrets.
func setupLogger(w io.Writer, verbose, asJSON bool) *slog.Logger {
	if asJSON {
		return seclog.NewSecureJSONLogger(w, verbose)
	}
	return seclog.NewSecureLogger(w, verbose)
}

// loggerFor builds the logger for cmd and installs it as the default.
func loggerFor(cmd *cobra.Command) *slog.Logger {
	logger := setupLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd), getLogJSONFlag(cmd))
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// openLocalGate opens the settings database in dir and returns a gate over
// its disabled-host list. The returned function flushes the gate and closes
// the database.
func openLocalGate(ctx context.Context, dir string, logger *slog.Logger) (*hostgate.Gate, func(), error) {
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	gate := hostgate.New(ctx, db.HostList(database.DisabledHostsKey), hostgate.WithLogger(logger))
	logger.Debug("settings database opened", "path", db.Path())

	return gate, func() {
		gate.Close()
		if err := db.Close(); err != nil {
			logger.Warn("failed to close settings database", "error", err)
		}
	}, nil
}
