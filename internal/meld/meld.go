// Package meld decides whether a group of tiles forms a legal set or run
// and resolves the number every joker stands in for.
package meld

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"rummikub/internal/tile"
)

type Kind int

const (
	Invalid Kind = iota
	Set
	Run
)

func (k Kind) String() string {
	switch k {
	case Set:
		return "set"
	case Run:
		return "run"
	default:
		return "invalid"
	}
}

const MinSize = 3

var ErrInvalidMeld = errors.New("invalid meld")

// Slot is one position of a meld. Value is the number the slot counts as:
// the face for real tiles, the resolved number for jokers.
type Slot struct {
	Tile  tile.Tile
	Value int
}

func (s Slot) String() string {
	if s.Tile.Joker {
		return s.Tile.String() + "(" + strconv.Itoa(s.Value) + ")"
	}
	return s.Tile.String()
}

// Meld is a validated group with every joker resolved. Slot order is the
// order the tiles were given in.
type Meld struct {
	Kind  Kind
	Slots []Slot
}

func (m Meld) Tiles() []tile.Tile {
	out := make([]tile.Tile, len(m.Slots))
	for i, s := range m.Slots {
		out[i] = s.Tile
	}
	return out
}

// Points is the sum of slot values.
func (m Meld) Points() int {
	sum := 0
	for _, s := range m.Slots {
		sum += s.Value
	}
	return sum
}

func (m Meld) String() string {
	parts := make([]string, len(m.Slots))
	for i, s := range m.Slots {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// Resolve validates tiles as a set, then as a run. It either returns a meld
// with every joker resolved or an error wrapping ErrInvalidMeld.
func Resolve(tiles []tile.Tile) (Meld, error) {
	if len(tiles) < MinSize {
		return Meld{}, fmt.Errorf("%w: %d tiles, need at least %d", ErrInvalidMeld, len(tiles), MinSize)
	}
	plain := 0
	for _, t := range tiles {
		if !t.Joker {
			plain++
		}
	}
	if plain == 0 {
		return Meld{}, fmt.Errorf("%w: jokers only", ErrInvalidMeld)
	}

	if m, ok := resolveSet(tiles); ok {
		return m, nil
	}
	m, ok, reason := resolveRun(tiles)
	if !ok {
		return Meld{}, fmt.Errorf("%w [%s]: %s", ErrInvalidMeld, tile.JoinCSV(tiles), reason)
	}
	return m, nil
}

// resolveSet: one shared number, pairwise distinct colours, jokers take the
// shared number.
func resolveSet(tiles []tile.Tile) (Meld, bool) {
	number := 0
	seen := make(map[tile.Color]bool, 4)
	for _, t := range tiles {
		if t.Joker {
			continue
		}
		if number == 0 {
			number = t.Number
		} else if t.Number != number {
			return Meld{}, false
		}
		if seen[t.Color] {
			return Meld{}, false
		}
		seen[t.Color] = true
	}

	slots := make([]Slot, len(tiles))
	for i, t := range tiles {
		slots[i] = Slot{Tile: t, Value: number}
	}
	return Meld{Kind: Set, Slots: slots}, true
}

// resolveRun: one shared colour, jokers fill the gaps between the sorted real
// numbers in increasing order, leftovers extend upward past the highest.
func resolveRun(tiles []tile.Tile) (Meld, bool, string) {
	var color tile.Color
	colorSet := false
	nums := make([]int, 0, len(tiles))
	jokers := 0
	for _, t := range tiles {
		if t.Joker {
			jokers++
			continue
		}
		if !colorSet {
			color, colorSet = t.Color, true
		} else if t.Color != color {
			return Meld{}, false, "mixed colours and numbers"
		}
		nums = append(nums, t.Number)
	}
	sort.Ints(nums)

	fill := make([]int, 0, jokers)
	for i := 1; i < len(nums); i++ {
		if nums[i] == nums[i-1] {
			return Meld{}, false, "duplicate number " + strconv.Itoa(nums[i])
		}
		for v := nums[i-1] + 1; v < nums[i]; v++ {
			fill = append(fill, v)
		}
	}
	if len(fill) > jokers {
		return Meld{}, false, fmt.Sprintf("%d gaps, %d jokers", len(fill), jokers)
	}
	high := nums[len(nums)-1]
	for len(fill) < jokers {
		high++
		fill = append(fill, high)
	}
	if high > tile.MaxNumber {
		return Meld{}, false, "run passes " + strconv.Itoa(tile.MaxNumber)
	}

	slots := make([]Slot, len(tiles))
	next := 0
	for i, t := range tiles {
		if t.Joker {
			slots[i] = Slot{Tile: t, Value: fill[next]}
			next++
			continue
		}
		slots[i] = Slot{Tile: t, Value: t.Number}
	}
	return Meld{Kind: Run, Slots: slots}, true, ""
}
