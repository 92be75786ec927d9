package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set by -ldflags at release time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "penney",
		Short: "Penney's game simulator for red/black card sequences",
		Long: `penney estimates, for every ordered pair of three-card red/black
sequences, the probability that Player 1's sequence beats Player 2's
when both scan the same shuffled 52-card deck.

Results accumulate across runs in the configured store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.penney/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, or trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newSimulateCmd(),
		newReportCmd(),
		newHistoryCmd(),
		newConfigCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}
