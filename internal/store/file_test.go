package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestFileStore(t *testing.T) (*FileStateStore, string) {
	t.Helper()
	dir := t.TempDir()
	s := NewFileStateStore(
		filepath.Join(dir, "game_data.json"),
		filepath.Join(dir, "deck_history.json"),
		filepath.Join(dir, "win_counts.json"),
	)
	return s, dir
}

func TestFileStateStore_MissingFilesLoadZero(t *testing.T) {
	s, _ := newTestFileStore(t)

	state, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load on missing files failed: %v", err)
	}
	if state.TotalRounds != 0 || state.Player1Wins != 0 || state.Player2Wins != 0 {
		t.Errorf("expected zero counters, got %+v", state)
	}
	if state.Wins.Sum() != 0 {
		t.Errorf("expected zero matrix, sum = %d", state.Wins.Sum())
	}
	if len(state.DeckHistory) != 0 {
		t.Errorf("expected empty history, got %d entries", len(state.DeckHistory))
	}
}

func TestFileStateStore_RoundTrip(t *testing.T) {
	s, _ := newTestFileStore(t)
	roundTrip(t, s, sampleState(t, 5))
}

func TestFileStateStore_OnDiskFormat(t *testing.T) {
	s, dir := newTestFileStore(t)
	want := sampleState(t, 2)
	if err := s.Save(context.Background(), want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "game_data.json"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(raw), "\n    \"win_data\": {") {
		t.Errorf("game_data.json should be indented by four spaces:\n%s", raw)
	}
	var data struct {
		WinData     map[string]int `json:"win_data"`
		TotalRounds int            `json:"total_rounds_played"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("game_data.json is not valid JSON: %v", err)
	}
	if len(data.WinData) != 64 {
		t.Errorf("win_data has %d keys, want 64", len(data.WinData))
	}
	if data.TotalRounds != 2 {
		t.Errorf("total_rounds_played = %d, want 2", data.TotalRounds)
	}

	raw, err = os.ReadFile(filepath.Join(dir, "deck_history.json"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var history []string
	if err := json.Unmarshal(raw, &history); err != nil {
		t.Fatalf("deck_history.json is not a JSON list: %v", err)
	}
	if len(history) != 2 || len(history[0]) != 52 {
		t.Errorf("unexpected history: %v", history)
	}

	raw, err = os.ReadFile(filepath.Join(dir, "win_counts.json"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var counts map[string]int
	if err := json.Unmarshal(raw, &counts); err != nil {
		t.Fatalf("win_counts.json is not valid JSON: %v", err)
	}
	if counts["player1_wins"] != want.Player1Wins || counts["player2_wins"] != want.Player2Wins {
		t.Errorf("win_counts.json = %v, want %d/%d", counts, want.Player1Wins, want.Player2Wins)
	}
}

func TestFileStateStore_ReadsReferenceFiles(t *testing.T) {
	s, dir := newTestFileStore(t)

	// Files as written by earlier runs: partial win_data is allowed.
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	write("game_data.json", `{"win_data": {"RBB vs BRB": 7, "RRR vs RRR": 10}, "total_rounds_played": 10}`)
	write("deck_history.json", `[]`)
	write("win_counts.json", `{"player1_wins": 300, "player2_wins": 250}`)

	state, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if state.Wins[4][2] != 7 || state.Wins[7][7] != 10 {
		t.Errorf("unexpected cells: RBB/BRB=%d RRR/RRR=%d", state.Wins[4][2], state.Wins[7][7])
	}
	if state.TotalRounds != 10 || state.Player1Wins != 300 || state.Player2Wins != 250 {
		t.Errorf("unexpected counters: %+v", state)
	}
}

func TestFileStateStore_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"data not json", "game_data.json", `{not json`},
		{"data missing win_data", "game_data.json", `{"total_rounds_played": 3}`},
		{"data missing rounds", "game_data.json", `{"win_data": {}}`},
		{"data null", "game_data.json", `null`},
		{"history not a list", "deck_history.json", `{"a": 1}`},
		{"counts missing player1", "win_counts.json", `{"player2_wins": 1}`},
		{"counts missing player2", "win_counts.json", `{"player1_wins": 1}`},
		{"counts wrong type", "win_counts.json", `{"player1_wins": "x", "player2_wins": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, dir := newTestFileStore(t)
			if err := os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.content), 0644); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}

			_, err := s.Load(context.Background())
			if err == nil {
				t.Fatal("expected an error for malformed content")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error %v should wrap ErrMalformed", err)
			}
			if strings.Contains(err.Error(), dir) {
				t.Errorf("error should not leak the full path: %v", err)
			}
		})
	}
}

func TestNewFileStateStore_Defaults(t *testing.T) {
	s := NewFileStateStore("", "", "")
	loc := s.Location()
	for _, name := range []string{"game_data.json", "deck_history.json", "win_counts.json"} {
		if !strings.Contains(loc, name) {
			t.Errorf("Location() = %q, missing default %s", loc, name)
		}
	}
}
