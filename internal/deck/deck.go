// Package deck generates and encodes shuffled two-colour decks.
package deck

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/nvandessel/penney/internal/constants"
)

// Card is a single card colour.
type Card uint8

const (
	Black Card = 0
	Red   Card = 1
)

// Size is the number of cards in a deck.
const Size = constants.DeckSize

// Deck is an ordered 52-card deck holding 26 red and 26 black cards.
type Deck [Size]Card

// Ordered returns the unshuffled deck: 26 red cards followed by 26 black cards.
func Ordered() Deck {
	var d Deck
	for i := range d {
		if i < constants.CardsPerColor {
			d[i] = Red
		} else {
			d[i] = Black
		}
	}
	return d
}

// Counts returns the number of red and black cards in d.
func (d Deck) Counts() (red, black int) {
	for _, c := range d {
		if c == Red {
			red++
		} else {
			black++
		}
	}
	return red, black
}

// Validate reports an error unless d holds exactly 26 cards of each colour.
func (d Deck) Validate() error {
	for i, c := range d {
		if c != Red && c != Black {
			return fmt.Errorf("invalid card value %d at position %d", c, i)
		}
	}
	red, black := d.Counts()
	if red != constants.CardsPerColor || black != constants.CardsPerColor {
		return fmt.Errorf("unbalanced deck: %d red, %d black", red, black)
	}
	return nil
}

// String renders d as 52 characters, 'R' for red and 'B' for black.
func (d Deck) String() string {
	var b strings.Builder
	b.Grow(Size)
	for _, c := range d {
		if c == Red {
			b.WriteByte('R')
		} else {
			b.WriteByte('B')
		}
	}
	return b.String()
}

// Parse decodes a 52-character R/B string and validates its composition.
func Parse(s string) (Deck, error) {
	var d Deck
	if len(s) != Size {
		return d, fmt.Errorf("invalid deck: want %d cards, got %d", Size, len(s))
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'R':
			d[i] = Red
		case 'B':
			d[i] = Black
		default:
			return Deck{}, fmt.Errorf("invalid deck: unexpected card %q at position %d", s[i], i)
		}
	}
	if err := d.Validate(); err != nil {
		return Deck{}, err
	}
	return d, nil
}

// Shuffler produces uniformly shuffled decks from a single random source.
// It is not safe for concurrent use.
type Shuffler struct {
	rng  *rand.Rand
	seed uint64
}

// NewShuffler creates a Shuffler. A zero seed draws one from the runtime's
// entropy source; any other seed makes the sequence of decks reproducible.
func NewShuffler(seed uint64) *Shuffler {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Shuffler{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed: seed,
	}
}

// Seed returns the seed the shuffler was created with.
func (s *Shuffler) Seed() uint64 {
	return s.seed
}

// Shuffle returns a fresh deck in uniformly random order (Fisher-Yates).
func (s *Shuffler) Shuffle() Deck {
	d := Ordered()
	s.rng.Shuffle(len(d), func(i, j int) {
		d[i], d[j] = d[j], d[i]
	})
	return d
}
