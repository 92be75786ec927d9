// Package sequence enumerates the 3-card colour patterns players commit to.
package sequence

import (
	"fmt"
	"strings"

	"github.com/nvandessel/penney/internal/constants"
)

// Sequence is an ordered triple of card colours (0 = Black, 1 = Red).
type Sequence [constants.SequenceLength]uint8

// Count is the number of distinct sequences.
const Count = constants.SequenceCount

// FromIndex returns the sequence whose bits, most-significant first, encode i.
func FromIndex(i int) Sequence {
	if i < 0 || i >= Count {
		panic(fmt.Sprintf("sequence index out of range: %d", i))
	}
	var s Sequence
	for pos := range s {
		shift := constants.SequenceLength - 1 - pos
		s[pos] = uint8((i >> shift) & 1)
	}
	return s
}

// All returns every sequence ordered by index: All()[0] is BBB, All()[7] is RRR.
func All() [Count]Sequence {
	var all [Count]Sequence
	for i := range all {
		all[i] = FromIndex(i)
	}
	return all
}

// Index returns the integer encoding of s.
func (s Sequence) Index() int {
	i := 0
	for _, bit := range s {
		i = i<<1 | int(bit&1)
	}
	return i
}

// Label renders s with 'R' for red and 'B' for black.
func (s Sequence) Label() string {
	var b strings.Builder
	b.Grow(len(s))
	for _, bit := range s {
		if bit == 1 {
			b.WriteByte('R')
		} else {
			b.WriteByte('B')
		}
	}
	return b.String()
}

// String implements fmt.Stringer.
func (s Sequence) String() string {
	return s.Label()
}

// Parse decodes a label such as "RBB". Lowercase letters are accepted.
func Parse(label string) (Sequence, error) {
	var s Sequence
	if len(label) != len(s) {
		return s, fmt.Errorf("invalid sequence %q: want %d cards, got %d", label, len(s), len(label))
	}
	for i := 0; i < len(label); i++ {
		switch label[i] {
		case 'R', 'r':
			s[i] = 1
		case 'B', 'b':
			s[i] = 0
		default:
			return Sequence{}, fmt.Errorf("invalid sequence %q: unexpected card %q at position %d", label, label[i], i)
		}
	}
	return s, nil
}
