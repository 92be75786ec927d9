package adjudicate

import (
	"fmt"
	"strings"

	"github.com/nvandessel/penney/internal/deck"
)

// Mode names a scoring strategy.
type Mode string

const (
	// ModePoints scores one point per matched window.
	ModePoints Mode = "points"
	// ModeCards scores the size of the pile collected at each match.
	ModeCards Mode = "cards"
)

// ParseMode maps a mode name to a Mode. "total_cards" and "card-count" are
// accepted as aliases for ModeCards.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "points":
		return ModePoints, nil
	case "cards", "total_cards", "card-count":
		return ModeCards, nil
	default:
		return "", fmt.Errorf("unknown scoring mode: %q (valid: points, cards)", s)
	}
}

// ModeFor returns ModeCards when totalCards is set and ModePoints otherwise.
func ModeFor(totalCards bool) Mode {
	if totalCards {
		return ModeCards
	}
	return ModePoints
}

// Pile holds the cards dealt since the last award. Every scanned window is
// added, so overlapping windows contribute their shared cards more than once.
type Pile struct {
	cards []deck.Card
}

// Add appends a window to the pile.
func (p *Pile) Add(window []deck.Card) {
	p.cards = append(p.cards, window...)
}

// Len returns the number of cards in the pile.
func (p *Pile) Len() int {
	return len(p.cards)
}

// Take empties the pile and returns how many cards it held.
func (p *Pile) Take() int {
	n := len(p.cards)
	p.cards = p.cards[:0]
	return n
}

// Scorer decides how much a matched window is worth.
type Scorer interface {
	// Mode identifies the strategy.
	Mode() Mode
	// Track is called with every scanned window before it is matched.
	Track(pile *Pile, window []deck.Card)
	// Award returns the amount credited to the matching player.
	Award(pile *Pile) int
}

// Points credits one point per match and never touches the pile.
type Points struct{}

// Mode implements Scorer.
func (Points) Mode() Mode { return ModePoints }

// Track implements Scorer. The pile plays no part in points mode.
func (Points) Track(*Pile, []deck.Card) {}

// Award implements Scorer.
func (Points) Award(*Pile) int { return 1 }

// CardCount credits the whole pile to the matching player and clears it.
type CardCount struct{}

// Mode implements Scorer.
func (CardCount) Mode() Mode { return ModeCards }

// Track implements Scorer.
func (CardCount) Track(pile *Pile, window []deck.Card) { pile.Add(window) }

// Award implements Scorer.
func (CardCount) Award(pile *Pile) int { return pile.Take() }

// ScorerFor returns the strategy for m.
func ScorerFor(m Mode) (Scorer, error) {
	switch m {
	case ModePoints:
		return Points{}, nil
	case ModeCards:
		return CardCount{}, nil
	default:
		return nil, fmt.Errorf("unknown scoring mode: %q", m)
	}
}
