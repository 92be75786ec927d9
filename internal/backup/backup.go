// Package backup provides backup and restore functionality for penney's
// cumulative simulation state.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvandessel/penney/internal/pathutil"
	"github.com/nvandessel/penney/internal/simulation"
	"github.com/nvandessel/penney/internal/store"
)

// FilePrefix starts the name of every generated backup file.
const FilePrefix = "penney-backup-"

// Snapshot is the JSON payload of a backup file. Win data uses the same
// "P1 vs P2" keys as game_data.json so snapshots stay readable and portable
// across backends.
type Snapshot struct {
	Version     int            `json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	Source      string         `json:"source,omitempty"`
	WinData     map[string]int `json:"win_data"`
	TotalRounds int            `json:"total_rounds_played"`
	Player1Wins int            `json:"player1_wins"`
	Player2Wins int            `json:"player2_wins"`
	DeckHistory []string       `json:"deck_history"`
}

// NewSnapshot captures state.
func NewSnapshot(state simulation.State, source string) *Snapshot {
	history := state.DeckHistory
	if history == nil {
		history = []string{}
	}
	return &Snapshot{
		Version:     FormatV2,
		CreatedAt:   time.Now().UTC(),
		Source:      source,
		WinData:     store.EncodeWinData(state.Wins),
		TotalRounds: state.TotalRounds,
		Player1Wins: state.Player1Wins,
		Player2Wins: state.Player2Wins,
		DeckHistory: history,
	}
}

// State converts the snapshot back to simulation state and validates it.
func (s *Snapshot) State() (simulation.State, error) {
	state := simulation.State{
		Wins:        store.DecodeWinData(s.WinData),
		TotalRounds: s.TotalRounds,
		Player1Wins: s.Player1Wins,
		Player2Wins: s.Player2Wins,
	}
	if len(s.DeckHistory) > 0 {
		state.DeckHistory = append([]string(nil), s.DeckHistory...)
	}
	if err := state.Validate(); err != nil {
		return simulation.State{}, fmt.Errorf("invalid snapshot: %w", err)
	}
	return state, nil
}

// DefaultBackupDir returns the default backup directory (~/.penney/backups/).
func DefaultBackupDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".penney", "backups"), nil
}

// Backup writes the current contents of st to outputPath in V2 format.
func Backup(ctx context.Context, st store.StateStore, outputPath string) (*Snapshot, error) {
	return BackupWithOptions(ctx, st, outputPath, true)
}

// BackupWithOptions is Backup with a choice of format: compressed V2 or
// plain JSON V1.
func BackupWithOptions(ctx context.Context, st store.StateStore, outputPath string, compress bool) (*Snapshot, error) {
	state, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	snap := NewSnapshot(state, st.Location())
	write := WriteV2
	if !compress {
		write = WriteV1
		snap.Version = FormatV1
	}
	if err := write(outputPath, snap); err != nil {
		return nil, fmt.Errorf("failed to write backup %s: %w", pathutil.RedactPath(outputPath), err)
	}
	return snap, nil
}

// RestoreMode controls how restore handles existing data.
type RestoreMode string

const (
	// RestoreMerge adds the snapshot's counts and history to the existing state (default).
	RestoreMerge RestoreMode = "merge"
	// RestoreReplace discards the existing state.
	RestoreReplace RestoreMode = "replace"
)

// ParseRestoreMode validates a restore mode name. Empty means merge.
func ParseRestoreMode(s string) (RestoreMode, error) {
	switch RestoreMode(strings.ToLower(s)) {
	case "", RestoreMerge:
		return RestoreMerge, nil
	case RestoreReplace:
		return RestoreReplace, nil
	default:
		return "", fmt.Errorf("invalid restore mode: %s (valid: merge, replace)", s)
	}
}

// RestoreResult contains statistics about the restore operation.
type RestoreResult struct {
	Mode           RestoreMode `json:"mode"`
	RoundsRestored int         `json:"rounds_restored"`
	DecksRestored  int         `json:"decks_restored"`
	TotalRounds    int         `json:"total_rounds_played"`
}

// Restore reads a backup file (V1 or V2) into st.
func Restore(ctx context.Context, st store.StateStore, inputPath string, mode RestoreMode) (*RestoreResult, error) {
	snap, err := ReadSnapshot(inputPath)
	if err != nil {
		return nil, err
	}

	restored, err := snap.State()
	if err != nil {
		return nil, err
	}

	next := restored
	switch mode {
	case RestoreReplace:
	case RestoreMerge, "":
		mode = RestoreMerge
		current, err := st.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing state: %w", err)
		}
		next = current.Merge(restored)
	default:
		return nil, fmt.Errorf("invalid restore mode: %s", mode)
	}

	if err := st.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save restored state: %w", err)
	}

	return &RestoreResult{
		Mode:           mode,
		RoundsRestored: restored.TotalRounds,
		DecksRestored:  len(restored.DeckHistory),
		TotalRounds:    next.TotalRounds,
	}, nil
}

// ReadSnapshot reads a backup file of either format.
func ReadSnapshot(path string) (*Snapshot, error) {
	version, err := DetectFormat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup %s: %w", pathutil.RedactPath(path), err)
	}

	switch version {
	case FormatV2:
		snap, err := ReadV2(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read backup %s: %w", pathutil.RedactPath(path), err)
		}
		return snap, nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read backup %s: %w", pathutil.RedactPath(path), err)
		}
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("failed to decode backup %s: %w", pathutil.RedactPath(path), err)
		}
		return &snap, nil
	}
}

// GenerateBackupPath creates a timestamped V2 backup filename in the given directory.
func GenerateBackupPath(dir string) string {
	return GenerateBackupPathV1(dir) + ".gz"
}

// GenerateBackupPathV1 creates a timestamped plain JSON backup filename.
func GenerateBackupPathV1(dir string) string {
	ts := time.Now().Format("20060102-150405")
	return filepath.Join(dir, fmt.Sprintf("%s%s.json", FilePrefix, ts))
}
