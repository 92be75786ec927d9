package deck

import (
	"math"
	"strings"
	"testing"
)

func TestOrdered(t *testing.T) {
	d := Ordered()
	if err := d.Validate(); err != nil {
		t.Fatalf("Ordered() is not a valid deck: %v", err)
	}
	want := strings.Repeat("R", 26) + strings.Repeat("B", 26)
	if d.String() != want {
		t.Errorf("Ordered().String() = %q, want %q", d.String(), want)
	}
}

func TestShuffle_ExactComposition(t *testing.T) {
	s := NewShuffler(42)
	for i := 0; i < 1000; i++ {
		d := s.Shuffle()
		red, black := d.Counts()
		if red != 26 || black != 26 {
			t.Fatalf("deck %d: got %d red, %d black", i, red, black)
		}
	}
}

func TestShuffle_PositionFrequencyConverges(t *testing.T) {
	const samples = 20000
	s := NewShuffler(7)

	var reds [Size]int
	for i := 0; i < samples; i++ {
		d := s.Shuffle()
		for pos, c := range d {
			if c == Red {
				reds[pos]++
			}
		}
	}

	// Standard error of a proportion at p=0.5 over 20000 samples is ~0.0035;
	// 0.02 is more than five standard errors.
	for pos, n := range reds {
		freq := float64(n) / samples
		if math.Abs(freq-0.5) > 0.02 {
			t.Errorf("position %d: red frequency %.4f, want ~0.5", pos, freq)
		}
	}
}

func TestShuffle_SeedReproducible(t *testing.T) {
	a := NewShuffler(99)
	b := NewShuffler(99)
	for i := 0; i < 10; i++ {
		if a.Shuffle() != b.Shuffle() {
			t.Fatalf("decks diverged at draw %d for identical seeds", i)
		}
	}
}

func TestNewShuffler_ZeroSeedIsReplaced(t *testing.T) {
	s := NewShuffler(0)
	if s.Seed() == 0 {
		t.Error("expected a non-zero seed to be drawn")
	}
}

func TestParse(t *testing.T) {
	valid := strings.Repeat("RB", 26)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid alternating", valid, false},
		{"valid ordered", Ordered().String(), false},
		{"too short", valid[:51], true},
		{"too long", valid + "R", true},
		{"bad card", "X" + valid[1:], true},
		{"unbalanced", strings.Repeat("R", 27) + strings.Repeat("B", 25), true},
		{"lowercase rejected", strings.ToLower(valid), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && d.String() != tt.input {
				t.Errorf("Parse(%q).String() = %q", tt.input, d.String())
			}
		})
	}
}

func TestValidate_RejectsBadCardValue(t *testing.T) {
	d := Ordered()
	d[0] = 2
	if err := d.Validate(); err == nil {
		t.Error("expected error for card value 2")
	}
}
