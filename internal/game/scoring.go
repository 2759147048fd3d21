package game

import (
	"rummikub/internal/board"
	"rummikub/internal/meld"
	"rummikub/internal/tile"
)

// HandValue is what a hand left at settlement costs: face value per tile,
// jokerPenalty per joker.
func HandValue(hand []tile.Tile, jokerPenalty int) int {
	sum := 0
	for _, t := range hand {
		if t.Joker {
			sum += jokerPenalty
			continue
		}
		sum += t.Number
	}
	return sum
}

// Settle returns the score deltas of a round won by winner. Every other
// roster player loses their hand value and the winner collects the total,
// so the deltas always sum to zero.
func Settle(roster []string, winner string, hands map[string][]tile.Tile, jokerPenalty int) map[string]int {
	deltas := make(map[string]int, len(roster))
	pot := 0
	for _, name := range roster {
		if name == winner {
			continue
		}
		v := HandValue(hands[name], jokerPenalty)
		deltas[name] = -v
		pot += v
	}
	deltas[winner] += pot
	return deltas
}

// openingPoints sums the new or changed melds of next that hold a
// just-played tile. A meld whose tiles equal a committed meld is unchanged and
// never counts. Each played copy claims the first unclaimed slot with its
// identity among the changed melds, in board order.
func openingPoints(committed, next board.Board, played []tile.Tile) int {
	kept := make(map[string]int, len(committed))
	for _, m := range committed {
		kept[meldKey(m)]++
	}
	left := tile.NewMultiset(played...)
	total := 0
	for _, m := range next {
		if k := meldKey(m); kept[k] > 0 {
			kept[k]--
			continue
		}
		touched := false
		for _, s := range m.Slots {
			if left[s.Tile] > 0 {
				left[s.Tile]--
				touched = true
			}
		}
		if touched {
			total += m.Points()
		}
	}
	return total
}

func meldKey(m meld.Meld) string {
	ts := m.Tiles()
	tile.Sort(ts)
	return tile.JoinCSV(ts)
}
