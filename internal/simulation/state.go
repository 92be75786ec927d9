package simulation

import (
	"fmt"

	"github.com/nvandessel/penney/internal/constants"
	"github.com/nvandessel/penney/internal/deck"
	"github.com/nvandessel/penney/internal/sequence"
)

// WinMatrix counts Player 1 wins: cell [i][j] is the number of rounds in which
// sequence i, playing first, strictly beat sequence j.
type WinMatrix [sequence.Count][sequence.Count]int

// Add folds o into m element-wise.
func (m *WinMatrix) Add(o WinMatrix) {
	for i := range m {
		for j := range m[i] {
			m[i][j] += o[i][j]
		}
	}
}

// Sum returns the total of all cells.
func (m WinMatrix) Sum() int {
	total := 0
	for i := range m {
		for j := range m[i] {
			total += m[i][j]
		}
	}
	return total
}

// State is the cumulative record persisted between runs.
type State struct {
	Wins        WinMatrix `json:"wins"`
	TotalRounds int       `json:"total_rounds_played"`
	Player1Wins int       `json:"player1_wins"`
	Player2Wins int       `json:"player2_wins"`
	DeckHistory []string  `json:"deck_history"`
}

// Clone returns a copy of s that shares no memory with it.
func (s State) Clone() State {
	c := s
	if s.DeckHistory != nil {
		c.DeckHistory = make([]string, len(s.DeckHistory))
		copy(c.DeckHistory, s.DeckHistory)
	}
	return c
}

// Probabilities divides every win count by TotalRounds. With zero rounds
// every cell is NaN; callers decide whether to report that.
func (s State) Probabilities() [sequence.Count][sequence.Count]float64 {
	var p [sequence.Count][sequence.Count]float64
	total := float64(s.TotalRounds)
	for i := range s.Wins {
		for j := range s.Wins[i] {
			p[i][j] = float64(s.Wins[i][j]) / total
		}
	}
	return p
}

// Probability returns the estimated chance that p1 beats p2.
func (s State) Probability(p1, p2 sequence.Sequence) float64 {
	return float64(s.Wins[p1.Index()][p2.Index()]) / float64(s.TotalRounds)
}

// Ties returns the number of pairwise adjudications that produced no winner.
func (s State) Ties() int {
	return s.TotalRounds*constants.PairingsPerRound - s.Player1Wins - s.Player2Wins
}

// RecentDecks returns the last n decks of the history, or all of them when
// fewer than n were recorded.
func (s State) RecentDecks(n int) []string {
	if n <= 0 {
		return nil
	}
	if n > len(s.DeckHistory) {
		n = len(s.DeckHistory)
	}
	return s.DeckHistory[len(s.DeckHistory)-n:]
}

// Merge returns the element-wise sum of s and o, with o's history appended.
func (s State) Merge(o State) State {
	merged := s.Clone()
	merged.Wins.Add(o.Wins)
	merged.TotalRounds += o.TotalRounds
	merged.Player1Wins += o.Player1Wins
	merged.Player2Wins += o.Player2Wins
	merged.DeckHistory = append(merged.DeckHistory, o.DeckHistory...)
	return merged
}

// Validate checks the counters are consistent with each other and that the
// history holds one well-formed deck per round.
func (s State) Validate() error {
	if s.TotalRounds < 0 {
		return fmt.Errorf("total_rounds_played must be non-negative, got %d", s.TotalRounds)
	}
	if s.Player1Wins < 0 || s.Player2Wins < 0 {
		return fmt.Errorf("win counts must be non-negative, got %d/%d", s.Player1Wins, s.Player2Wins)
	}
	for i := range s.Wins {
		for j := range s.Wins[i] {
			if s.Wins[i][j] < 0 {
				return fmt.Errorf("win count for %s vs %s is negative: %d",
					sequence.FromIndex(i), sequence.FromIndex(j), s.Wins[i][j])
			}
			if s.Wins[i][j] > s.TotalRounds {
				return fmt.Errorf("win count for %s vs %s (%d) exceeds rounds played (%d)",
					sequence.FromIndex(i), sequence.FromIndex(j), s.Wins[i][j], s.TotalRounds)
			}
		}
	}
	if limit := s.TotalRounds * constants.PairingsPerRound; s.Player1Wins+s.Player2Wins > limit {
		return fmt.Errorf("player wins %d+%d exceed %d pairings", s.Player1Wins, s.Player2Wins, limit)
	}
	// Each round plays exactly one deck.
	if len(s.DeckHistory) != s.TotalRounds {
		return fmt.Errorf("deck history has %d entries for %d rounds played", len(s.DeckHistory), s.TotalRounds)
	}
	for i, d := range s.DeckHistory {
		if _, err := deck.Parse(d); err != nil {
			return fmt.Errorf("deck history entry %d: %w", i+1, err)
		}
	}
	return nil
}
