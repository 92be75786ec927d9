package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nvandessel/penney/internal/adjudicate"
	"github.com/nvandessel/penney/internal/constants"
	"github.com/nvandessel/penney/internal/deck"
	"github.com/nvandessel/penney/internal/logging"
	"github.com/nvandessel/penney/internal/report"
	"github.com/nvandessel/penney/internal/simulation"
	"github.com/spf13/cobra"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play shuffled decks and update the cumulative results",
		Long: `Shuffle a 26 red / 26 black deck for each round and adjudicate every
ordered pair of three-card sequences against it. Results are added to the
configured store and the updated probability table is printed.

In points mode (default) each match scores one point. With --total-cards
each match scores the number of cards collected in the pile instead.

Examples:
  penney simulate                       # 1000 rounds, points mode
  penney simulate --rounds 50000 --quiet
  penney simulate --total-cards --seed 42
  penney simulate --backend sqlite --db results.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			quiet, _ := cmd.Flags().GetBool("quiet")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rounds := cfg.Simulation.Rounds
			if changed(cmd, "rounds") {
				rounds, _ = cmd.Flags().GetInt("rounds")
			}
			if rounds < 1 {
				return fmt.Errorf("rounds must be at least 1, got %d", rounds)
			}

			seed := cfg.Simulation.Seed
			if changed(cmd, "seed") {
				seed, _ = cmd.Flags().GetUint64("seed")
			}

			mode, err := adjudicate.ParseMode(cfg.Simulation.Mode)
			if err != nil {
				return err
			}
			if totalCards, _ := cmd.Flags().GetBool("total-cards"); totalCards {
				mode = adjudicate.ModeFor(true)
			}
			scorer, err := adjudicate.ScorerFor(mode)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(context.Background())
			defer stop()

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			state, err := st.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load state from %s: %w", st.Location(), err)
			}

			logger := newLogger(cfg)
			trace := logging.NewTraceLogger(traceDir(cfg), cfg.Logging.Level)
			defer trace.Close()

			shuffler := deck.NewShuffler(seed)
			runner := simulation.NewRunner(shuffler, scorer, logger, trace)

			next, err := runner.Run(ctx, state, rounds)
			if err != nil {
				return err
			}

			if err := st.Save(ctx, next); err != nil {
				return fmt.Errorf("failed to save state to %s: %w", st.Location(), err)
			}

			recent := rounds
			if quiet {
				recent = 0
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"rounds_played": rounds,
					"mode":          string(mode),
					"seed":          shuffler.Seed(),
					"store":         st.Location(),
					"report":        report.Build(next, recent),
				})
			}
			return report.WriteText(out, next, recent)
		},
	}

	cmd.Flags().Int("rounds", constants.DefaultRounds, "Number of decks to shuffle (default from config)")
	cmd.Flags().Bool("total-cards", false, "Score by cards collected instead of one point per match")
	cmd.Flags().Uint64("seed", 0, "Shuffle seed for a reproducible run (0 for random)")
	cmd.Flags().Bool("quiet", false, "Omit the deck listing for this run")
	addStoreFlags(cmd)

	return cmd
}
