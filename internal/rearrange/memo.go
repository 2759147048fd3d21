package rearrange

import (
	"rummikub/internal/cache"
	"rummikub/internal/tile"
)

type memoEntry struct {
	melds [][]tile.Tile
	err   error
}

// Memo caches Rearrange results keyed by pool content.
type Memo struct {
	cache *cache.GeneralCache
}

func NewMemo(c *cache.GeneralCache) *Memo {
	return &Memo{cache: c}
}

func poolKey(tiles []tile.Tile) string {
	sorted := append([]tile.Tile(nil), tiles...)
	tile.Sort(sorted)
	return tile.JoinCSV(sorted)
}

func (m *Memo) Rearrange(tiles []tile.Tile) ([][]tile.Tile, error) {
	key := poolKey(tiles)
	if v, ok := m.cache.Get(key); ok {
		if e, ok := v.(memoEntry); ok {
			return cloneMelds(e.melds), e.err
		}
	}

	melds, err := Rearrange(tiles)
	m.cache.Set(key, memoEntry{melds: cloneMelds(melds), err: err})
	return melds, err
}

func cloneMelds(in [][]tile.Tile) [][]tile.Tile {
	if in == nil {
		return nil
	}
	out := make([][]tile.Tile, len(in))
	for i, m := range in {
		out[i] = append([]tile.Tile(nil), m...)
	}
	return out
}
