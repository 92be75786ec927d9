package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/nvandessel/penney/internal/constants"
	"github.com/nvandessel/penney/internal/pathutil"
	"github.com/nvandessel/penney/internal/simulation"
)

// FileStateStore implements StateStore with three JSON files:
//   - the data file: {"win_data": {"RRR vs BBB": n, ...}, "total_rounds_played": n}
//   - the deck file: ["RBRB...", ...]
//   - the win counts file: {"player1_wins": n, "player2_wins": n}
//
// Each file is read in full on Load and replaced in full on Save.
type FileStateStore struct {
	dataFile      string
	deckFile      string
	winCountsFile string
}

// gameData is the on-disk shape of the data file. Pointer fields distinguish
// a missing key from a zero value.
type gameData struct {
	WinData     *map[string]int `json:"win_data"`
	TotalRounds *int            `json:"total_rounds_played"`
}

type winCounts struct {
	Player1Wins *int `json:"player1_wins"`
	Player2Wins *int `json:"player2_wins"`
}

// NewFileStateStore creates a FileStateStore. Empty paths fall back to the
// conventional names in the working directory.
func NewFileStateStore(dataFile, deckFile, winCountsFile string) *FileStateStore {
	if dataFile == "" {
		dataFile = constants.DefaultDataFile
	}
	if deckFile == "" {
		deckFile = constants.DefaultDeckFile
	}
	if winCountsFile == "" {
		winCountsFile = constants.DefaultWinCountsFile
	}
	return &FileStateStore{
		dataFile:      dataFile,
		deckFile:      deckFile,
		winCountsFile: winCountsFile,
	}
}

// Location implements StateStore.
func (s *FileStateStore) Location() string {
	return fmt.Sprintf("file:%s,%s,%s", s.dataFile, s.deckFile, s.winCountsFile)
}

// Load implements StateStore.
func (s *FileStateStore) Load(ctx context.Context) (simulation.State, error) {
	var state simulation.State

	var data gameData
	found, err := readJSON(s.dataFile, &data)
	if err != nil {
		return state, err
	}
	if found {
		if data.WinData == nil {
			return state, missingKey(s.dataFile, "win_data")
		}
		if data.TotalRounds == nil {
			return state, missingKey(s.dataFile, "total_rounds_played")
		}
		state.Wins = DecodeWinData(*data.WinData)
		state.TotalRounds = *data.TotalRounds
	}

	var history []string
	if _, err := readJSON(s.deckFile, &history); err != nil {
		return state, err
	}
	state.DeckHistory = history

	var counts winCounts
	found, err = readJSON(s.winCountsFile, &counts)
	if err != nil {
		return state, err
	}
	if found {
		if counts.Player1Wins == nil {
			return state, missingKey(s.winCountsFile, "player1_wins")
		}
		if counts.Player2Wins == nil {
			return state, missingKey(s.winCountsFile, "player2_wins")
		}
		state.Player1Wins = *counts.Player1Wins
		state.Player2Wins = *counts.Player2Wins
	}

	return state, nil
}

// Save implements StateStore.
func (s *FileStateStore) Save(ctx context.Context, state simulation.State) error {
	wins := orderedWinData(state.Wins)
	data, err := json.MarshalIndent(struct {
		WinData     orderedWinData `json:"win_data"`
		TotalRounds int            `json:"total_rounds_played"`
	}{wins, state.TotalRounds}, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding win data: %w", err)
	}
	if err := pathutil.WriteFileAtomic(s.dataFile, data, 0644); err != nil {
		return fmt.Errorf("saving win data: %w", err)
	}

	history := state.DeckHistory
	if history == nil {
		history = []string{}
	}
	data, err = json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encoding deck history: %w", err)
	}
	if err := pathutil.WriteFileAtomic(s.deckFile, data, 0644); err != nil {
		return fmt.Errorf("saving deck history: %w", err)
	}

	p1, p2 := state.Player1Wins, state.Player2Wins
	data, err = json.Marshal(winCounts{Player1Wins: &p1, Player2Wins: &p2})
	if err != nil {
		return fmt.Errorf("encoding win counts: %w", err)
	}
	if err := pathutil.WriteFileAtomic(s.winCountsFile, data, 0644); err != nil {
		return fmt.Errorf("saving win counts: %w", err)
	}

	return nil
}

// Close implements StateStore. Files are not held open between calls.
func (s *FileStateStore) Close() error {
	return nil
}

// readJSON decodes path into v. A missing file is not an error: found is
// false and v is left untouched.
func readJSON(path string, v any) (found bool, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", pathutil.RedactPath(path), err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrMalformed, pathutil.RedactPath(path), err)
	}
	return true, nil
}

func missingKey(path, key string) error {
	return fmt.Errorf("%w: %s is missing %q", ErrMalformed, pathutil.RedactPath(path), key)
}
