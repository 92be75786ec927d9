// Package mcp provides an MCP (Model Context Protocol) server for penney.
package mcp

import (
	"github.com/nvandessel/penney/internal/report"
)

// SimulateInput defines the input for penney_simulate tool.
type SimulateInput struct {
	Rounds     int    `json:"rounds,omitempty" jsonschema:"Number of decks to shuffle (default 1000)"`
	TotalCards bool   `json:"total_cards,omitempty" jsonschema:"Score by cards won instead of points"`
	Seed       uint64 `json:"seed,omitempty" jsonschema:"Shuffle seed for a reproducible run (0 picks one at random)"`
}

// SimulateOutput defines the output for penney_simulate tool.
type SimulateOutput struct {
	RoundsPlayed int    `json:"rounds_played" jsonschema:"Decks shuffled by this call"`
	TotalRounds  int    `json:"total_rounds_played" jsonschema:"Cumulative decks across all runs"`
	Player1Wins  int    `json:"player1_wins" jsonschema:"Cumulative pairings won by Player 1"`
	Player2Wins  int    `json:"player2_wins" jsonschema:"Cumulative pairings won by Player 2"`
	Ties         int    `json:"ties" jsonschema:"Cumulative pairings with no winner"`
	Mode         string `json:"mode" jsonschema:"Scoring mode used for this run"`
	Seed         uint64 `json:"seed" jsonschema:"Seed used for this run"`
	Message      string `json:"message" jsonschema:"Human-readable result message"`
}

// ProbabilitiesInput defines the input for penney_probabilities tool.
type ProbabilitiesInput struct {
	Player1 string `json:"player1,omitempty" jsonschema:"Only pairings where Player 1 holds this sequence (e.g. RBB)"`
	Player2 string `json:"player2,omitempty" jsonschema:"Only pairings where Player 2 holds this sequence (e.g. BRB)"`
}

// ProbabilitiesOutput defines the output for penney_probabilities tool.
type ProbabilitiesOutput struct {
	TotalRounds int              `json:"total_rounds_played" jsonschema:"Decks the estimates are based on"`
	Pairings    []report.Pairing `json:"pairings" jsonschema:"Win estimate per ordered pairing"`
	Count       int              `json:"count" jsonschema:"Number of pairings returned"`
}

// HistoryInput defines the input for penney_history tool.
type HistoryInput struct {
	Count int `json:"count,omitempty" jsonschema:"Number of most recent decks to return (default 10)"`
}

// HistoryOutput defines the output for penney_history tool.
type HistoryOutput struct {
	Decks       []string `json:"decks" jsonschema:"Decks in simulation order, R for red and B for black"`
	FirstRound  int      `json:"first_round" jsonschema:"1-based round number of the first returned deck"`
	TotalRounds int      `json:"total_rounds_played" jsonschema:"Cumulative decks across all runs"`
}

// BackupInput defines the input for penney_backup tool.
type BackupInput struct {
	OutputPath string `json:"output_path,omitempty" jsonschema:"File name inside the backup directory (default: timestamped)"`
}

// BackupOutput defines the output for penney_backup tool.
type BackupOutput struct {
	Path        string `json:"path" jsonschema:"Path of the written backup"`
	TotalRounds int    `json:"total_rounds_played" jsonschema:"Rounds captured in the backup"`
	DeckCount   int    `json:"deck_count" jsonschema:"Decks captured in the backup"`
	SizeBytes   int64  `json:"size_bytes" jsonschema:"Size of the backup file"`
	Message     string `json:"message" jsonschema:"Human-readable result message"`
}

// RestoreInput defines the input for penney_restore tool.
type RestoreInput struct {
	InputPath string `json:"input_path" jsonschema:"Backup file inside the backup directory"`
	Mode      string `json:"mode,omitempty" jsonschema:"merge (default) adds to existing counts; replace discards them"`
}

// RestoreOutput defines the output for penney_restore tool.
type RestoreOutput struct {
	Mode           string `json:"mode" jsonschema:"Restore mode applied"`
	RoundsRestored int    `json:"rounds_restored" jsonschema:"Rounds read from the backup"`
	DecksRestored  int    `json:"decks_restored" jsonschema:"Decks read from the backup"`
	TotalRounds    int    `json:"total_rounds_played" jsonschema:"Cumulative rounds after restore"`
	Message        string `json:"message" jsonschema:"Human-readable result message"`
}
