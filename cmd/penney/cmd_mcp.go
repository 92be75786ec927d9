package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/nvandessel/penney/internal/adjudicate"
	"github.com/nvandessel/penney/internal/backup"
	"github.com/nvandessel/penney/internal/config"
	"github.com/nvandessel/penney/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve penney tools over the Model Context Protocol (stdio)",
		Long: `Run an MCP server on stdin/stdout so agents can run simulations and
query the probability table.

Tools: penney_simulate, penney_probabilities, penney_history,
penney_backup, penney_restore. Resource: penney://probabilities.

Logs go to stderr. Tool calls are audited to ~/.penney/audit.jsonl.

Example client configuration:
  {"command": "penney", "args": ["mcp-server", "--backend", "sqlite", "--db", "/data/penney.db"]}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			maxRounds, _ := cmd.Flags().GetInt("max-rounds")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			mode, err := adjudicate.ParseMode(cfg.Simulation.Mode)
			if err != nil {
				return err
			}

			backupDir, _ := cmd.Flags().GetString("backup-dir")
			if backupDir == "" {
				backupDir, err = backup.DefaultBackupDir()
				if err != nil {
					return fmt.Errorf("failed to get backup directory: %w", err)
				}
			}

			var auditDir string
			if path, err := config.DefaultPath(); err == nil {
				auditDir = filepath.Dir(path)
			}

			ctx, stop := signalContext(context.Background())
			defer stop()

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:      "penney",
				Version:   version,
				Store:     st,
				Mode:      mode,
				Logger:    newLogger(cfg),
				BackupDir: backupDir,
				AuditDir:  auditDir,
				MaxRounds: maxRounds,
			})
			if err != nil {
				st.Close()
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Int("max-rounds", mcp.DefaultMaxRounds, "Maximum rounds a single penney_simulate call may request")
	cmd.Flags().String("backup-dir", "", "Directory backup and restore tools are confined to (default: ~/.penney/backups/)")
	addStoreFlags(cmd)

	return cmd
}
