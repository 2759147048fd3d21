package tile

// Multiset counts tile identities.
type Multiset map[Tile]int

func NewMultiset(tiles ...Tile) Multiset {
	m := make(Multiset, len(tiles))
	for _, t := range tiles {
		m[t]++
	}
	return m
}

func (m Multiset) Add(tiles ...Tile) {
	for _, t := range tiles {
		m[t]++
	}
}

// Len is the total number of tiles counted.
func (m Multiset) Len() int {
	n := 0
	for _, c := range m {
		n += c
	}
	return n
}

// Minus returns the tiles of m in excess of other (m - other), sorted.
func (m Multiset) Minus(other Multiset) []Tile {
	var out []Tile
	for t, c := range m {
		for i := other[t]; i < c; i++ {
			out = append(out, t)
		}
	}
	Sort(out)
	return out
}

// Covers reports whether every tile of other is present in m at least as
// many times.
func (m Multiset) Covers(other Multiset) bool {
	for t, c := range other {
		if m[t] < c {
			return false
		}
	}
	return true
}

// Remove deletes one copy of each tile from hand and returns the new slice.
// Tiles not present are ignored.
func Remove(hand []Tile, tiles ...Tile) []Tile {
	out := append([]Tile(nil), hand...)
	for _, t := range tiles {
		for i := range out {
			if out[i] == t {
				out = append(out[:i], out[i+1:]...)
				break
			}
		}
	}
	return out
}
