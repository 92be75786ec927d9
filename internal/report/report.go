// Package report formats cumulative simulation state for display.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/nvandessel/penney/internal/sequence"
	"github.com/nvandessel/penney/internal/simulation"
)

// Pairing is the estimate for one ordered sequence pair.
type Pairing struct {
	Player1     string  `json:"player1"`
	Player2     string  `json:"player2"`
	Wins        int     `json:"wins"`
	Probability float64 `json:"probability"`
}

// Report is the machine-readable form of a run summary.
type Report struct {
	TotalRounds int       `json:"total_rounds_played"`
	Player1Wins int       `json:"player1_wins"`
	Player2Wins int       `json:"player2_wins"`
	Ties        int       `json:"ties"`
	Pairings    []Pairing `json:"pairings"`
	RecentDecks []string  `json:"recent_decks,omitempty"`
}

// Build summarises state. recent is the number of most recent decks to
// include; pass the number of rounds just played to list only those.
func Build(state simulation.State, recent int) Report {
	r := Report{
		TotalRounds: state.TotalRounds,
		Player1Wins: state.Player1Wins,
		Player2Wins: state.Player2Wins,
		Ties:        state.Ties(),
		Pairings:    make([]Pairing, 0, sequence.Count*sequence.Count),
		RecentDecks: state.RecentDecks(recent),
	}

	probs := state.Probabilities()
	all := sequence.All()
	for i, p1 := range all {
		for j, p2 := range all {
			p := probs[i][j]
			// encoding/json rejects NaN; an empty state reports zero.
			if math.IsNaN(p) {
				p = 0
			}
			r.Pairings = append(r.Pairings, Pairing{
				Player1:     p1.Label(),
				Player2:     p2.Label(),
				Wins:        state.Wins[i][j],
				Probability: p,
			})
		}
	}
	return r
}

// WriteJSON encodes the report built from state to w.
func WriteJSON(w io.Writer, state simulation.State, recent int) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Build(state, recent))
}

// WriteText prints the probability table, the aggregate win totals and the
// decks of the run that just finished, numbered from 1.
func WriteText(w io.Writer, state simulation.State, recent int) error {
	return writeText(w, state, state.RecentDecks(recent),
		"Deck history for this run (R for Red, B for Black):", 1)
}

// WriteStored is WriteText for state read back from a store, with no run in
// progress. Decks keep their round number within the whole history.
func WriteStored(w io.Writer, state simulation.State, recent int) error {
	decks := state.RecentDecks(recent)
	return writeText(w, state, decks,
		"Most recent decks (R for Red, B for Black):", len(state.DeckHistory)-len(decks)+1)
}

func writeText(w io.Writer, state simulation.State, decks []string, header string, first int) error {
	if err := WriteProbabilities(w, state); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\nTotal Wins: Player 1: %d, Player 2: %d\n", state.Player1Wins, state.Player2Wins); err != nil {
		return err
	}

	if len(decks) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\n%s\n\n", header); err != nil {
		return err
	}
	return WriteDecks(w, decks, first)
}

// WriteProbabilities prints one line per ordered pairing.
func WriteProbabilities(w io.Writer, state simulation.State) error {
	if _, err := fmt.Fprint(w, "Winning probabilities for each sequence combination (Player 1 vs Player 2):\n\n"); err != nil {
		return err
	}

	probs := state.Probabilities()
	all := sequence.All()
	for i, p1 := range all {
		for j, p2 := range all {
			if _, err := fmt.Fprintf(w, "Player 1: %s vs Player 2: %s --> Probability that Player 1 wins: %.5f\n",
				p1.Label(), p2.Label(), probs[i][j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteDecks prints decks as "Round n: <deck>", numbering from first.
func WriteDecks(w io.Writer, decks []string, first int) error {
	for i, d := range decks {
		if _, err := fmt.Fprintf(w, "Round %d: %s\n", first+i, d); err != nil {
			return err
		}
	}
	return nil
}
