package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nvandessel/penney/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryCount is how many decks history shows without --last.
const defaultHistoryCount = 10

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the cumulative probability table without simulating",
		Long: `Load the stored results and print the winning probability of Player 1
for every ordered sequence pairing, followed by the aggregate win totals.

Examples:
  penney report
  penney report --recent 5     # also list the 5 most recent decks
  penney report --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			recent, _ := cmd.Flags().GetInt("recent")
			if recent < 0 {
				return fmt.Errorf("--recent must be non-negative, got %d", recent)
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

			state, err := st.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load state from %s: %w", st.Location(), err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return report.WriteJSON(out, state, recent)
			}
			if state.TotalRounds == 0 {
				fmt.Fprintf(out, "No rounds recorded yet in %s. Run 'penney simulate' first.\n", st.Location())
				return nil
			}
			return report.WriteStored(out, state, recent)
		},
	}

	cmd.Flags().Int("recent", 0, "Also list this many of the most recent decks")
	addStoreFlags(cmd)

	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the decks played in previous rounds",
		Long: `Print stored decks, oldest first, as strings of R (red) and B (black).
Rounds are numbered from the first round ever recorded.

Examples:
  penney history              # last 10 decks
  penney history --last 100
  penney history --last 0     # every deck`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			last, _ := cmd.Flags().GetInt("last")
			if last < 0 {
				return fmt.Errorf("--last must be non-negative, got %d", last)
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

			state, err := st.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load state from %s: %w", st.Location(), err)
			}

			decks := state.DeckHistory
			if last > 0 {
				decks = state.RecentDecks(last)
			}
			first := len(state.DeckHistory) - len(decks) + 1

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"decks":        decks,
					"first_round":  first,
					"total_rounds": state.TotalRounds,
				})
			}

			if len(decks) == 0 {
				fmt.Fprintln(out, "No decks recorded yet.")
				return nil
			}
			return report.WriteDecks(out, decks, first)
		},
	}

	cmd.Flags().Int("last", defaultHistoryCount, "Number of most recent decks to show (0 for all)")
	addStoreFlags(cmd)

	return cmd
}
