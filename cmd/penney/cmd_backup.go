package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/penney/internal/backup"
	"github.com/spf13/cobra"
)

// defaultKeepBackups is how many backups rotation keeps without --keep.
const defaultKeepBackups = 10

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export the cumulative results to a backup file",
		Long: `Backup the win matrix, win totals and deck history to a compressed file.

Default location: ~/.penney/backups/penney-backup-YYYYMMDD-HHMMSS.json.gz
Older backups in the same directory are rotated (default: keep the last 10).

Examples:
  penney backup                              # Backup to default location (V2 compressed)
  penney backup --output my-backup.json.gz   # Backup to specific file
  penney backup --no-compress                # Create V1 uncompressed backup
  penney backup --keep 5 --max-age 30d       # Keep the last 5, plus anything newer than 30 days
  penney backup list                         # List all backups
  penney backup verify <file>                # Verify backup integrity`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			outputPath, _ := cmd.Flags().GetString("output")
			noCompress, _ := cmd.Flags().GetBool("no-compress")
			keep, _ := cmd.Flags().GetInt("keep")
			maxAgeStr, _ := cmd.Flags().GetString("max-age")

			retention := backup.Retention{MaxCount: keep}
			if maxAgeStr != "" {
				maxAge, err := backup.ParseDuration(maxAgeStr)
				if err != nil {
					return fmt.Errorf("invalid --max-age: %w", err)
				}
				retention.MaxAge = maxAge
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			compress := !noCompress
			if outputPath == "" {
				dir, err := backup.DefaultBackupDir()
				if err != nil {
					return fmt.Errorf("failed to get backup directory: %w", err)
				}
				if compress {
					outputPath = backup.GenerateBackupPath(dir)
				} else {
					outputPath = backup.GenerateBackupPathV1(dir)
				}
			}

			ctx := context.Background()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := backup.BackupWithOptions(ctx, st, outputPath, compress)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			deleted, err := backup.Rotate(filepath.Dir(outputPath), retention)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to apply retention: %v\n", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				var sizeBytes int64
				if info, err := os.Stat(outputPath); err == nil {
					sizeBytes = info.Size()
				}
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"path":         outputPath,
					"total_rounds": snap.TotalRounds,
					"deck_count":   len(snap.DeckHistory),
					"version":      snap.Version,
					"compressed":   compress,
					"size_bytes":   sizeBytes,
					"rotated":      len(deleted),
					"message":      fmt.Sprintf("Backup created: %d rounds, %d decks", snap.TotalRounds, len(snap.DeckHistory)),
				})
			}

			versionLabel := "v2/gzip"
			if !compress {
				versionLabel = "v1/json"
			}
			fmt.Fprintf(out, "Backup created: %d rounds, %d decks (%s)\n", snap.TotalRounds, len(snap.DeckHistory), versionLabel)
			fmt.Fprintf(out, "  Path: %s\n", outputPath)
			if len(deleted) > 0 {
				fmt.Fprintf(out, "  Rotated: %d old backup(s) removed\n", len(deleted))
			}
			return nil
		},
	}

	cmd.Flags().String("output", "", "Output file path (default: auto-generated in ~/.penney/backups/)")
	cmd.Flags().Bool("no-compress", false, "Create V1 uncompressed backup instead of V2 compressed")
	cmd.Flags().Int("keep", defaultKeepBackups, "Number of most recent backups to keep (0 for no count limit)")
	cmd.Flags().String("max-age", "", "Also keep backups newer than this age, e.g. 30d, 2w, 72h")
	addStoreFlags(cmd)

	cmd.AddCommand(
		newBackupListCmd(),
		newBackupVerifyCmd(),
	)

	return cmd
}

func newBackupListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all backups with metadata",
		Long: `List backup files with version, size and round counts.

Examples:
  penney backup list
  penney backup list --dir ./backups --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dir, _ := cmd.Flags().GetString("dir")

			if dir == "" {
				var err error
				dir, err = backup.DefaultBackupDir()
				if err != nil {
					return fmt.Errorf("failed to get backup directory: %w", err)
				}
			}

			backups, err := backup.ListBackups(dir)
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}

			type backupEntry struct {
				Path        string `json:"path"`
				Version     int    `json:"version"`
				SizeBytes   int64  `json:"size_bytes"`
				CreatedAt   string `json:"created_at"`
				TotalRounds int    `json:"total_rounds,omitempty"`
				DeckCount   int    `json:"deck_count,omitempty"`
			}

			entries := make([]backupEntry, 0, len(backups))
			for _, b := range backups {
				e := backupEntry{
					Path:      b.Path,
					Version:   b.Version,
					SizeBytes: b.Size,
					CreatedAt: b.CreatedAt.Format("2006-01-02 15:04:05"),
				}
				if b.Version == backup.FormatV2 {
					if header, err := backup.ReadV2Header(b.Path); err == nil {
						e.TotalRounds = header.TotalRounds
						e.DeckCount = header.DeckCount
					}
				}
				entries = append(entries, e)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"directory": dir,
					"backups":   entries,
					"count":     len(entries),
				})
			}

			if len(entries) == 0 {
				fmt.Fprintf(out, "No backups found in %s\n", dir)
				return nil
			}

			fmt.Fprintf(out, "Backups in %s:\n\n", dir)
			for _, e := range entries {
				counts := ""
				if e.Version == backup.FormatV2 {
					counts = fmt.Sprintf(", %d rounds, %d decks", e.TotalRounds, e.DeckCount)
				}
				fmt.Fprintf(out, "  %s  (v%d, %s%s)\n", filepath.Base(e.Path), e.Version, formatSize(e.SizeBytes), counts)
				fmt.Fprintf(out, "    Created: %s\n", e.CreatedAt)
			}
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Backup directory (default: ~/.penney/backups/)")

	return cmd
}

func newBackupVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify backup file integrity",
		Long: `Verify the integrity of a backup file by checking its SHA-256 checksum.
Only applicable to V2 (compressed) backup files.

Examples:
  penney backup verify ~/.penney/backups/penney-backup-20260206-120000.json.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]
			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			version, err := backup.DetectFormat(filePath)
			if err != nil {
				if jsonOut {
					json.NewEncoder(out).Encode(map[string]interface{}{
						"file":    filePath,
						"valid":   false,
						"error":   err.Error(),
						"message": fmt.Sprintf("Failed to detect format: %v", err),
					})
				}
				return fmt.Errorf("failed to detect format: %w", err)
			}

			if version == backup.FormatV1 {
				if jsonOut {
					return json.NewEncoder(out).Encode(map[string]interface{}{
						"file":    filePath,
						"version": 1,
						"valid":   true,
						"message": "V1 format: no checksum to verify (integrity check N/A)",
					})
				}
				fmt.Fprintf(out, "V1 format: no checksum to verify (integrity check N/A)\n")
				fmt.Fprintf(out, "  File: %s\n", filePath)
				return nil
			}

			if err := backup.VerifyChecksum(filePath); err != nil {
				if jsonOut {
					json.NewEncoder(out).Encode(map[string]interface{}{
						"file":    filePath,
						"version": 2,
						"valid":   false,
						"error":   err.Error(),
						"message": "Checksum verification FAILED",
					})
				} else {
					fmt.Fprintf(out, "FAILED: %v\n", err)
					fmt.Fprintf(out, "  File: %s\n", filePath)
				}
				return fmt.Errorf("checksum verification failed")
			}

			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"file":    filePath,
					"version": 2,
					"valid":   true,
					"message": "Checksum OK",
				})
			}
			fmt.Fprintf(out, "OK: checksum verified\n")
			fmt.Fprintf(out, "  File: %s\n", filePath)
			return nil
		},
	}
}

// formatSize renders a byte count for humans.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
