package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nvandessel/penney/internal/backup"
	"github.com/spf13/cobra"
)

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore cumulative results from a backup file",
		Long: `Restore the win matrix, win totals and deck history from a backup file
(V1 or V2 format). Format is auto-detected.

Modes:
  merge   - Add the backup's counts and decks to the current results (default)
  replace - Discard the current results first

Examples:
  penney restore ~/.penney/backups/penney-backup-20260206-120000.json.gz
  penney restore backup.json --mode replace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			jsonOut, _ := cmd.Flags().GetBool("json")
			modeStr, _ := cmd.Flags().GetString("mode")

			mode, err := backup.ParseRestoreMode(modeStr)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx := context.Background()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			result, err := backup.Restore(ctx, st, inputPath, mode)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"mode":                result.Mode,
					"rounds_restored":     result.RoundsRestored,
					"decks_restored":      result.DecksRestored,
					"total_rounds_played": result.TotalRounds,
					"message":             fmt.Sprintf("Restore complete: %d rounds, %d decks", result.RoundsRestored, result.DecksRestored),
				})
			}

			fmt.Fprintf(out, "Restore complete (mode: %s)\n", result.Mode)
			fmt.Fprintf(out, "  Rounds: %d restored, %d total\n", result.RoundsRestored, result.TotalRounds)
			fmt.Fprintf(out, "  Decks:  %d restored\n", result.DecksRestored)
			return nil
		},
	}

	cmd.Flags().String("mode", string(backup.RestoreMerge), "Restore mode: merge or replace")
	addStoreFlags(cmd)

	return cmd
}
