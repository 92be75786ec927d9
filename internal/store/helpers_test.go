package store

import (
	"context"
	"testing"

	"github.com/nvandessel/penney/internal/adjudicate"
	"github.com/nvandessel/penney/internal/deck"
	"github.com/nvandessel/penney/internal/simulation"
)

// sampleState runs a short seeded simulation so round-trip tests exercise
// realistic matrices and deck strings.
func sampleState(t *testing.T, rounds int) simulation.State {
	t.Helper()
	r := simulation.NewRunner(deck.NewShuffler(31), adjudicate.Points{}, nil, nil)
	state, err := r.Run(context.Background(), simulation.State{}, rounds)
	if err != nil {
		t.Fatalf("simulation failed: %v", err)
	}
	return state
}

// assertStatesEqual compares every persisted field.
func assertStatesEqual(t *testing.T, got, want simulation.State) {
	t.Helper()
	if got.Wins != want.Wins {
		t.Errorf("win matrix mismatch:\n got  %v\n want %v", got.Wins, want.Wins)
	}
	if got.TotalRounds != want.TotalRounds {
		t.Errorf("TotalRounds = %d, want %d", got.TotalRounds, want.TotalRounds)
	}
	if got.Player1Wins != want.Player1Wins || got.Player2Wins != want.Player2Wins {
		t.Errorf("win counts = %d/%d, want %d/%d",
			got.Player1Wins, got.Player2Wins, want.Player1Wins, want.Player2Wins)
	}
	if len(got.DeckHistory) != len(want.DeckHistory) {
		t.Fatalf("len(DeckHistory) = %d, want %d", len(got.DeckHistory), len(want.DeckHistory))
	}
	for i := range want.DeckHistory {
		if got.DeckHistory[i] != want.DeckHistory[i] {
			t.Errorf("DeckHistory[%d] = %q, want %q", i, got.DeckHistory[i], want.DeckHistory[i])
		}
	}
}

// roundTrip saves want into s and checks that Load returns it unchanged.
func roundTrip(t *testing.T, s StateStore, want simulation.State) {
	t.Helper()
	ctx := context.Background()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertStatesEqual(t, got, want)
}
