// Package rearrange regroups a loose pool of tiles into runs and sets.
//
// The search is greedy and deterministic: runs are extracted before sets,
// colours are scanned in the order R, BL, Y, B and numbers from low to high.
// Success is not guaranteed even when a grouping exists; callers must treat
// ErrUnassigned as "fall back to the submitted layout".
package rearrange

import (
	"errors"
	"fmt"

	"rummikub/internal/tile"
)

var ErrUnassigned = errors.New("tiles left unassigned")

// pool counts real tiles by colour and number; jokers are kept in order.
type pool struct {
	counts [len(tile.Colors)][tile.MaxNumber + 1]int
	jokers []tile.Tile
}

func newPool(tiles []tile.Tile) *pool {
	p := &pool{}
	for _, t := range tiles {
		if t.Joker {
			p.jokers = append(p.jokers, t)
			continue
		}
		p.counts[t.Color][t.Number]++
	}
	tile.Sort(p.jokers)
	return p
}

func (p *pool) pick(c tile.Color, n int) tile.Tile {
	p.counts[c][n]--
	return tile.New(c, n)
}

func (p *pool) takeJoker() tile.Tile {
	j := p.jokers[0]
	p.jokers = p.jokers[1:]
	return j
}

func (p *pool) remaining() []tile.Tile {
	var out []tile.Tile
	for _, c := range tile.Colors {
		for n := tile.MinNumber; n <= tile.MaxNumber; n++ {
			for i := 0; i < p.counts[c][n]; i++ {
				out = append(out, tile.New(c, n))
			}
		}
	}
	out = append(out, p.jokers...)
	tile.Sort(out)
	return out
}

// longestStretch returns the longest consecutive stretch of numbers present
// in colour c, the lowest one on ties.
func (p *pool) longestStretch(c tile.Color) (start, length int) {
	curStart, curLen := 0, 0
	for n := tile.MinNumber; n <= tile.MaxNumber; n++ {
		if p.counts[c][n] == 0 {
			curLen = 0
			continue
		}
		if curLen == 0 {
			curStart = n
		}
		curLen++
		if curLen > length {
			start, length = curStart, curLen
		}
	}
	return start, length
}

// extractRun takes one run: the colour whose longest stretch starts lowest
// wins, ties broken by colour order. A joker extends the stretch upward when
// one is left and the run stays within 13.
func (p *pool) extractRun() ([]tile.Tile, bool) {
	bestColor, bestStart, bestLen := tile.Color(0), 0, 0
	found := false
	for _, c := range tile.Colors {
		start, length := p.longestStretch(c)
		if length < 2 {
			continue
		}
		canExtend := len(p.jokers) > 0 && start+length-1 < tile.MaxNumber
		if length < 3 && !canExtend {
			continue
		}
		if !found || start < bestStart {
			bestColor, bestStart, bestLen = c, start, length
			found = true
		}
	}
	if !found {
		return nil, false
	}

	run := make([]tile.Tile, 0, bestLen+1)
	for n := bestStart; n < bestStart+bestLen; n++ {
		run = append(run, p.pick(bestColor, n))
	}
	if len(p.jokers) > 0 && bestStart+bestLen-1 < tile.MaxNumber {
		run = append(run, p.takeJoker())
	}
	return run, true
}

// extractSet takes one set: the lowest number held in enough colours, one
// tile per colour, plus a joker while the set is short of four.
func (p *pool) extractSet() ([]tile.Tile, bool) {
	for n := tile.MinNumber; n <= tile.MaxNumber; n++ {
		var colors []tile.Color
		for _, c := range tile.Colors {
			if p.counts[c][n] > 0 {
				colors = append(colors, c)
			}
		}
		withJoker := len(colors)
		if len(p.jokers) > 0 && withJoker < len(tile.Colors) {
			withJoker++
		}
		if len(colors) == 0 || withJoker < 3 {
			continue
		}

		set := make([]tile.Tile, 0, withJoker)
		for _, c := range colors {
			set = append(set, p.pick(c, n))
		}
		if withJoker > len(colors) {
			set = append(set, p.takeJoker())
		}
		return set, true
	}
	return nil, false
}

// Rearrange groups every tile into melds of at least three tiles, or fails
// with ErrUnassigned naming the leftovers. The input is not modified.
func Rearrange(tiles []tile.Tile) ([][]tile.Tile, error) {
	p := newPool(tiles)

	var melds [][]tile.Tile
	for {
		if run, ok := p.extractRun(); ok {
			melds = append(melds, run)
			continue
		}
		if set, ok := p.extractSet(); ok {
			melds = append(melds, set)
			continue
		}
		break
	}

	if left := p.remaining(); len(left) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnassigned, tile.JoinCSV(left))
	}
	return melds, nil
}
