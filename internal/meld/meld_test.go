package meld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rummikub/internal/tile"
)

func tiles(t *testing.T, csv string) []tile.Tile {
	t.Helper()
	out, err := tile.ParseList(csv)
	require.NoError(t, err)
	return out
}

func jokerValues(m Meld) []int {
	var out []int
	for _, s := range m.Slots {
		if s.Tile.Joker {
			out = append(out, s.Value)
		}
	}
	return out
}

func TestResolve_RunJokers(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		jokers []int
		points int
	}{
		{"single gap", "R5,R6,RJoker,R8", []int{7}, 26},
		{"double gap fills in increasing order", "R5,RJoker,BJoker,R8", []int{6, 7}, 26},
		{"no gap extends upward", "R5,R6,R7,RJoker", []int{8}, 26},
		{"gap then leftover", "Y3,RJoker,Y5,BJoker", []int{4, 6}, 18},
		{"two leftovers", "BL1,RJoker,BJoker", nil, 0},
		{"unsorted input", "R8,R6,RJoker,R5", []int{7}, 26},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Resolve(tiles(t, tt.in))
			require.NoError(t, err)
			if tt.jokers == nil {
				// one real tile with two jokers is a set
				assert.Equal(t, Set, m.Kind)
				assert.Equal(t, []int{1, 1}, jokerValues(m))
				return
			}
			assert.Equal(t, Run, m.Kind)
			assert.Equal(t, tt.jokers, jokerValues(m))
			assert.Equal(t, tt.points, m.Points())
		})
	}
}

func TestResolve_Sets(t *testing.T) {
	m, err := Resolve(tiles(t, "R7,BL7,Y7"))
	require.NoError(t, err)
	assert.Equal(t, Set, m.Kind)
	assert.Equal(t, 21, m.Points())

	m, err = Resolve(tiles(t, "R11,RJoker,B11,Y11"))
	require.NoError(t, err)
	assert.Equal(t, Set, m.Kind)
	assert.Equal(t, []int{11}, jokerValues(m))
	assert.Equal(t, 44, m.Points())
}

func TestResolve_Invalid(t *testing.T) {
	for _, in := range []string{
		"R5,R6",                 // too short
		"RJoker,BJoker",         // jokers only
		"R7,R7,BL7",             // repeated colour in a set, duplicate in a run
		"R5,BL6,Y7",             // mixed colours and numbers
		"R5,R7,R9,RJoker",       // two gaps, one joker
		"R12,R13,RJoker",        // would need 14
		"R11,RJoker,BJoker,R13", // leftover joker would need 14
		"R1,R2,R2,R3",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Resolve(tiles(t, in))
			assert.ErrorIs(t, err, ErrInvalidMeld)
		})
	}
}

func TestMeld_String(t *testing.T) {
	m, err := Resolve(tiles(t, "R5,RJoker,R7"))
	require.NoError(t, err)
	assert.Equal(t, "R5,RJoker(6),R7", m.String())
	assert.Equal(t, tiles(t, "R5,RJoker,R7"), m.Tiles())
}
