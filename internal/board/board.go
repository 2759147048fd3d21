// Package board holds the shared table state and checks proposed tables
// against the committed one.
package board

import (
	"errors"
	"fmt"
	"strings"

	"rummikub/internal/meld"
	"rummikub/internal/tile"
)

var ErrMalformed = errors.New("malformed board")

// Layout is an unvalidated table: melds of tile identities as submitted.
type Layout [][]tile.Tile

// Tiles flattens the layout.
func (l Layout) Tiles() []tile.Tile {
	var out []tile.Tile
	for _, m := range l {
		out = append(out, m...)
	}
	return out
}

func (l Layout) Multiset() tile.Multiset {
	return tile.NewMultiset(l.Tiles()...)
}

// Board is a committed table. Every meld is valid and its jokers resolved.
type Board []meld.Meld

func (b Board) Layout() Layout {
	out := make(Layout, len(b))
	for i, m := range b {
		out[i] = m.Tiles()
	}
	return out
}

func (b Board) TileCount() int {
	n := 0
	for _, m := range b {
		n += len(m.Slots)
	}
	return n
}

// Encode renders melds separated by ';' and tiles by ','. Jokers carry their
// resolved value, e.g. "R5,RJoker(6),R7;Y9,B9,BL9".
func (b Board) Encode() string {
	parts := make([]string, len(b))
	for i, m := range b {
		parts[i] = m.String()
	}
	return strings.Join(parts, ";")
}

// Resolve validates every meld of the layout. It fails on the first illegal
// meld and never returns a partial board.
func Resolve(l Layout) (Board, error) {
	out := make(Board, 0, len(l))
	for i, group := range l {
		m, err := meld.Resolve(group)
		if err != nil {
			return nil, fmt.Errorf("meld %d: %w", i+1, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Decode parses the wire encoding. Joker annotations are accepted and
// dropped; empty melds (";;" or a trailing ';') are skipped.
func Decode(s string) (Layout, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Layout{}, nil
	}
	var out Layout
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		group, err := tile.ParseList(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		out = append(out, group)
	}
	return out, nil
}
