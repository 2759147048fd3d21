package tile

import (
	"crypto/rand"
	"errors"
	"math/big"
)

var ErrPoolEmpty = errors.New("pool is empty")

// Pool is the face-down draw pile. It only shrinks.
type Pool struct {
	tiles []Tile
}

// NewPool keeps the given order; the front tile is drawn first.
func NewPool(tiles []Tile) *Pool {
	return &Pool{tiles: append([]Tile(nil), tiles...)}
}

// NewShuffledPool returns the full 106-tile set in random order.
func NewShuffledPool() *Pool {
	tiles := FullSet()
	shuffle(tiles)
	return &Pool{tiles: tiles}
}

func shuffle(a []Tile) {
	for i := len(a) - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			jBig = big.NewInt(int64(i / 2))
		}
		j := int(jBig.Int64())
		a[i], a[j] = a[j], a[i]
	}
}

func (p *Pool) Len() int { return len(p.tiles) }

// Draw removes and returns the front tile.
func (p *Pool) Draw() (Tile, error) {
	if len(p.tiles) == 0 {
		return Tile{}, ErrPoolEmpty
	}
	t := p.tiles[0]
	p.tiles = p.tiles[1:]
	return t, nil
}

// Deal draws up to n tiles; fewer when the pool runs out.
func (p *Pool) Deal(n int) []Tile {
	if n > len(p.tiles) {
		n = len(p.tiles)
	}
	if n <= 0 {
		return nil
	}
	out := append([]Tile(nil), p.tiles[:n]...)
	p.tiles = p.tiles[n:]
	return out
}

// Return puts tiles back at the bottom of the pile.
func (p *Pool) Return(tiles ...Tile) {
	p.tiles = append(p.tiles, tiles...)
}
