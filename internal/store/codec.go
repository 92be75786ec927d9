package store

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/nvandessel/penney/internal/constants"
	"github.com/nvandessel/penney/internal/sequence"
	"github.com/nvandessel/penney/internal/simulation"
)

// WinDataKey returns the persisted key for a pairing, e.g. "RBB vs BRB".
func WinDataKey(p1, p2 sequence.Sequence) string {
	return p1.Label() + constants.WinDataSeparator + p2.Label()
}

// EncodeWinData flattens m into its "P1 vs P2" keyed form. Every pairing is
// present, zero counts included.
func EncodeWinData(m simulation.WinMatrix) map[string]int {
	all := sequence.All()
	out := make(map[string]int, len(all)*len(all))
	for i, p1 := range all {
		for j, p2 := range all {
			out[WinDataKey(p1, p2)] = m[i][j]
		}
	}
	return out
}

// DecodeWinData rebuilds a matrix from its keyed form. Missing pairings count
// as zero and unrecognised keys are ignored.
func DecodeWinData(data map[string]int) simulation.WinMatrix {
	var m simulation.WinMatrix
	all := sequence.All()
	for i, p1 := range all {
		for j, p2 := range all {
			if n, ok := data[WinDataKey(p1, p2)]; ok {
				m[i][j] = n
			}
		}
	}
	return m
}

// orderedWinData marshals a matrix as a JSON object whose keys follow
// sequence index order rather than the alphabetical order of a Go map.
type orderedWinData simulation.WinMatrix

// MarshalJSON implements json.Marshaler.
func (o orderedWinData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	all := sequence.All()
	first := true
	for i, p1 := range all {
		for j, p2 := range all {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, err := json.Marshal(WinDataKey(p1, p2))
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.WriteString(strconv.Itoa(o[i][j]))
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
