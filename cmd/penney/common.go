package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/nvandessel/penney/internal/config"
	"github.com/nvandessel/penney/internal/logging"
	"github.com/nvandessel/penney/internal/store"
	"github.com/spf13/cobra"
)

// addStoreFlags registers the flags that override the store section of the config.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", "", "Store backend: file, sqlite, redis, or memory")
	cmd.Flags().String("data-file", "", "Win matrix file for the file backend")
	cmd.Flags().String("deck-file", "", "Deck history file for the file backend")
	cmd.Flags().String("win-counts-file", "", "Aggregate win counts file for the file backend")
	cmd.Flags().String("db", "", "Database path for the sqlite backend")
}

// loadConfig resolves configuration for cmd: defaults, config file, .env
// and environment, then any flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.PenneyConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	overrides := []struct {
		flag   string
		target *string
	}{
		{"backend", &cfg.Store.Backend},
		{"data-file", &cfg.Store.DataFile},
		{"deck-file", &cfg.Store.DeckFile},
		{"win-counts-file", &cfg.Store.WinCountsFile},
		{"db", &cfg.Store.SQLitePath},
	}
	for _, o := range overrides {
		if changed(cmd, o.flag) {
			*o.target, _ = cmd.Flags().GetString(o.flag)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// changed reports whether the named flag exists on cmd and was set explicitly.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// newLogger returns the operational logger. It always writes to stderr so
// stdout stays clean for reports and the MCP transport.
func newLogger(cfg *config.PenneyConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, os.Stderr)
}

// openStore opens the configured state store.
func openStore(ctx context.Context, cfg *config.PenneyConfig) (store.StateStore, error) {
	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// traceDir is where rounds.jsonl is written: next to the persisted state.
func traceDir(cfg *config.PenneyConfig) string {
	switch store.Backend(cfg.Store.Backend) {
	case store.BackendSQLite:
		return filepath.Dir(cfg.Store.SQLitePath)
	case store.BackendFile, "":
		return filepath.Dir(cfg.Store.DataFile)
	default:
		return "."
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
