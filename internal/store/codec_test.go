package store

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/nvandessel/penney/internal/sequence"
	"github.com/nvandessel/penney/internal/simulation"
)

func TestWinDataKey(t *testing.T) {
	p1, _ := sequence.Parse("RBB")
	p2, _ := sequence.Parse("BRB")
	if got := WinDataKey(p1, p2); got != "RBB vs BRB" {
		t.Errorf("WinDataKey = %q, want %q", got, "RBB vs BRB")
	}
}

func TestEncodeDecodeWinData(t *testing.T) {
	var m simulation.WinMatrix
	m[4][2] = 17
	m[0][7] = 3
	m[5][5] = 9

	encoded := EncodeWinData(m)
	if len(encoded) != 64 {
		t.Errorf("encoded %d keys, want 64", len(encoded))
	}
	if encoded["RBB vs BRB"] != 17 {
		t.Errorf(`encoded["RBB vs BRB"] = %d, want 17`, encoded["RBB vs BRB"])
	}
	if encoded["BBB vs RRR"] != 3 {
		t.Errorf(`encoded["BBB vs RRR"] = %d, want 3`, encoded["BBB vs RRR"])
	}

	if decoded := DecodeWinData(encoded); decoded != m {
		t.Errorf("DecodeWinData(EncodeWinData(m)) = %v, want %v", decoded, m)
	}
}

func TestDecodeWinData_MissingAndUnknownKeys(t *testing.T) {
	m := DecodeWinData(map[string]int{
		"RRR vs BBB": 4,
		"XYZ vs BBB": 99,
	})
	if m[7][0] != 4 {
		t.Errorf("m[7][0] = %d, want 4", m[7][0])
	}
	if m.Sum() != 4 {
		t.Errorf("unknown keys should be ignored, sum = %d", m.Sum())
	}
}

func TestOrderedWinData_KeyOrder(t *testing.T) {
	var m simulation.WinMatrix
	m[0][1] = 2

	data, err := json.Marshal(orderedWinData(m))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	if !strings.HasPrefix(s, `{"BBB vs BBB":0,"BBB vs BBR":2,`) {
		t.Errorf("unexpected key order: %s", s[:40])
	}
	if !strings.HasSuffix(s, `"RRR vs RRR":0}`) {
		t.Errorf("unexpected tail: %s", s[len(s)-20:])
	}

	var back map[string]int
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if DecodeWinData(back) != m {
		t.Error("ordered encoding does not decode to the same matrix")
	}
}
