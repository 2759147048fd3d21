package board

import (
	"errors"
	"fmt"

	"rummikub/internal/tile"
)

var (
	ErrTilesRemoved  = errors.New("tiles removed from table")
	ErrIllegalTile   = errors.New("illegal tile usage")
	ErrNothingPlayed = errors.New("no tiles played")
)

// Diff compares the committed layout with a proposed one and returns the
// tiles the proposal adds. Only the tile multisets matter, so melds may be
// split, merged and reordered freely. It rejects, in order:
//   - a proposal holding fewer copies of any committed tile,
//   - added tiles the hand does not hold,
//   - a proposal that adds nothing.
func Diff(committed, proposed Layout, hand []tile.Tile) ([]tile.Tile, error) {
	before := committed.Multiset()
	after := proposed.Multiset()

	if missing := before.Minus(after); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrTilesRemoved, tile.JoinCSV(missing))
	}

	played := after.Minus(before)
	held := tile.NewMultiset(hand...)
	if foreign := tile.NewMultiset(played...).Minus(held); len(foreign) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIllegalTile, tile.JoinCSV(foreign))
	}

	if len(played) == 0 {
		return nil, ErrNothingPlayed
	}
	return played, nil
}
