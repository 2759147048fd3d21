package tile

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Color of a tile. For jokers it only selects the artwork.
type Color uint8

const (
	Red Color = iota
	Blue
	Yellow
	Black
)

// Colors lists every colour in canonical order.
var Colors = [...]Color{Red, Blue, Yellow, Black}

const (
	MinNumber = 1
	MaxNumber = 13
)

var ErrBadTile = errors.New("malformed tile id")

var colorCodes = [...]string{Red: "R", Blue: "BL", Yellow: "Y", Black: "B"}

func (c Color) String() string {
	if int(c) < len(colorCodes) {
		return colorCodes[c]
	}
	return "?"
}

// Tile is a tile identity. Identical tiles are interchangeable, so a Tile is
// a comparable value and duplicates are tracked by count.
type Tile struct {
	Color  Color
	Number int
	Joker  bool
}

func New(c Color, n int) Tile { return Tile{Color: c, Number: n} }

func NewJoker(c Color) Tile { return Tile{Color: c, Joker: true} }

// Face is the printed number, zero for jokers.
func (t Tile) Face() int {
	if t.Joker {
		return 0
	}
	return t.Number
}

func (t Tile) String() string {
	if t.Joker {
		return t.Color.String() + "Joker"
	}
	return t.Color.String() + strconv.Itoa(t.Number)
}

// Parse reads a tile id such as "R5", "BL10", "BJoker" or "RJoker(7)". The
// resolved value suffix of an annotated joker is dropped.
func Parse(s string) (Tile, error) {
	s = strings.TrimSpace(s)
	var c Color
	var rest string
	switch {
	case strings.HasPrefix(s, "BL"):
		c, rest = Blue, s[2:]
	case strings.HasPrefix(s, "B"):
		c, rest = Black, s[1:]
	case strings.HasPrefix(s, "R"):
		c, rest = Red, s[1:]
	case strings.HasPrefix(s, "Y"):
		c, rest = Yellow, s[1:]
	default:
		return Tile{}, fmt.Errorf("%w: %q", ErrBadTile, s)
	}

	if strings.HasPrefix(rest, "Joker") {
		ann := rest[len("Joker"):]
		if ann != "" {
			if !strings.HasPrefix(ann, "(") || !strings.HasSuffix(ann, ")") {
				return Tile{}, fmt.Errorf("%w: %q", ErrBadTile, s)
			}
			if _, ok := parseNumber(ann[1 : len(ann)-1]); !ok {
				return Tile{}, fmt.Errorf("%w: %q", ErrBadTile, s)
			}
		}
		return NewJoker(c), nil
	}

	n, ok := parseNumber(rest)
	if !ok {
		return Tile{}, fmt.Errorf("%w: %q", ErrBadTile, s)
	}
	return New(c, n), nil
}

// parseNumber accepts 1..13 without leading zeros or signs.
func parseNumber(s string) (int, bool) {
	if s == "" || len(s) > 2 || s[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, _ := strconv.Atoi(s)
	if n < MinNumber || n > MaxNumber {
		return 0, false
	}
	return n, true
}

// ParseList reads a comma separated list of tile ids.
func ParseList(csv string) ([]Tile, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	out := make([]Tile, 0, len(parts))
	for _, p := range parts {
		t, err := Parse(p)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// JoinCSV renders tiles as a comma separated id list.
func JoinCSV(tiles []Tile) string {
	ids := make([]string, len(tiles))
	for i, t := range tiles {
		ids[i] = t.String()
	}
	return strings.Join(ids, ",")
}

// Less orders by number, then colour; jokers sort last.
func Less(a, b Tile) bool {
	if a.Joker != b.Joker {
		return !a.Joker
	}
	if a.Number != b.Number {
		return a.Number < b.Number
	}
	return a.Color < b.Color
}

// Sort sorts tiles in place by Less.
func Sort(tiles []Tile) {
	sort.SliceStable(tiles, func(i, j int) bool { return Less(tiles[i], tiles[j]) })
}

// FullSet returns the 106 starting tiles in canonical (unshuffled) order:
// two copies of every colour/number, then the red and black jokers.
func FullSet() []Tile {
	tiles := make([]Tile, 0, 106)
	for copyIdx := 0; copyIdx < 2; copyIdx++ {
		for _, c := range Colors {
			for n := MinNumber; n <= MaxNumber; n++ {
				tiles = append(tiles, New(c, n))
			}
		}
	}
	return append(tiles, NewJoker(Red), NewJoker(Black))
}
