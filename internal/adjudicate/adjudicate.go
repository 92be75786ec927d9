// Package adjudicate decides which of two 3-card sequences wins against a
// single shuffled deck.
//
// The deck is scanned from the first card with a 3-card window. A window equal
// to Player 1's sequence credits Player 1, otherwise a window equal to Player
// 2's sequence credits Player 2; a match moves the window past the matched
// cards, a miss slides it by one card. When both players hold the same
// sequence every match goes to Player 1.
package adjudicate

import (
	"github.com/nvandessel/penney/internal/constants"
	"github.com/nvandessel/penney/internal/deck"
	"github.com/nvandessel/penney/internal/sequence"
)

// Outcome is the result of one adjudication.
type Outcome int

const (
	Tie Outcome = iota
	Player1
	Player2
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Player1:
		return "player1"
	case Player2:
		return "player2"
	default:
		return "tie"
	}
}

// Result carries the outcome and both final counters (points or cards,
// depending on the scorer).
type Result struct {
	Outcome Outcome
	Player1 int
	Player2 int
	Matches int
}

// Adjudicate scans d once and scores p1 against p2 with s.
func Adjudicate(p1, p2 sequence.Sequence, d *deck.Deck, s Scorer) Result {
	var (
		res  Result
		pile Pile
	)

	const w = constants.SequenceLength
	k := 0
	for k <= len(d)-w {
		window := d[k : k+w]
		s.Track(&pile, window)

		switch {
		case matches(window, p1):
			res.Player1 += s.Award(&pile)
			res.Matches++
			k += w
		case matches(window, p2):
			res.Player2 += s.Award(&pile)
			res.Matches++
			k += w
		default:
			k++
		}
	}

	switch {
	case res.Player1 > res.Player2:
		res.Outcome = Player1
	case res.Player2 > res.Player1:
		res.Outcome = Player2
	default:
		res.Outcome = Tie
	}
	return res
}

func matches(window []deck.Card, seq sequence.Sequence) bool {
	for i, c := range window {
		if uint8(c) != seq[i] {
			return false
		}
	}
	return true
}
