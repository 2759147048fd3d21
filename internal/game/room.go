// Package game runs rooms: roster, turn order, play and draw validation,
// round settlement and the lobby table.
package game

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"rummikub/internal/board"
	"rummikub/internal/log"
	"rummikub/internal/protocol"
	"rummikub/internal/rearrange"
	"rummikub/internal/record"
	"rummikub/internal/tile"
)

type State int

const (
	Waiting State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "waiting"
}

const recordTimeout = 3 * time.Second

// Rearranger regroups a pool of tiles into melds or fails.
type Rearranger func([]tile.Tile) ([][]tile.Tile, error)

type Option func(*Room)

// WithPoolFactory replaces the shuffled 106-tile pool, e.g. with a stacked
// pool in tests.
func WithPoolFactory(f func() *tile.Pool) Option {
	return func(r *Room) { r.newPool = f }
}

func WithRearranger(f Rearranger) Option {
	return func(r *Room) { r.rearrange = f }
}

func WithSink(s record.Sink) Option {
	return func(r *Room) { r.sink = s }
}

// Room is one table. Every mutation runs under mu; messages are queued in an
// outbox and sent after the unlock.
type Room struct {
	ID   int
	Name string

	rules     Rules
	newPool   func() *tile.Pool
	rearrange Rearranger
	sink      record.Sink
	onEmpty   func(*Room)

	mu      sync.RWMutex
	closed  bool
	state   State
	round   int
	roster  []string
	peers   map[string]Peer
	owner   string
	pool    *tile.Pool
	board   board.Board
	hands   map[string][]tile.Tile
	parked  map[string][]tile.Tile
	opened  map[string]bool
	played  map[string]bool
	turn    int
	scores  map[string]int
	retired int

	turnTimer *time.Timer
	turnGen   int64
}

func NewRoom(id int, name string, rules Rules, opts ...Option) *Room {
	r := &Room{
		ID:        id,
		Name:      name,
		rules:     rules,
		newPool:   tile.NewShuffledPool,
		rearrange: rearrange.Rearrange,
		sink:      record.Nop{},
		peers:     make(map[string]Peer),
		hands:     make(map[string][]tile.Tile),
		parked:    make(map[string][]tile.Tile),
		opened:    make(map[string]bool),
		played:    make(map[string]bool),
		scores:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.pool = r.newPool()
	return r
}

// do runs fn under the room lock and flushes its outbox once unlocked.
func (r *Room) do(fn func(out *outbox) error) error {
	var out outbox
	r.mu.Lock()
	err := fn(&out)
	r.mu.Unlock()
	out.flush()
	return err
}

func (r *Room) peersLocked() []Peer {
	out := make([]Peer, 0, len(r.roster))
	for _, name := range r.roster {
		out = append(out, r.peers[name])
	}
	return out
}

func (r *Room) dealLocked(name string) {
	if _, ok := r.hands[name]; ok {
		return
	}
	r.hands[name] = r.pool.Deal(r.rules.HandSize)
}

// Join seats p. Joining a running round deals a hand, or gives back the one
// the player held before leaving this round, and queues the player after the
// current turn order.
func (r *Room) Join(p Peer) error {
	name := p.Name()
	return r.do(func(out *outbox) error {
		switch {
		case r.closed:
			return ErrRoomNotFound
		case r.peers[name] != nil:
			return ErrNameTaken
		case len(r.roster) >= r.rules.MaxPlayers:
			return ErrRoomFull
		}

		r.roster = append(r.roster, name)
		r.peers[name] = p
		if _, ok := r.scores[name]; !ok {
			r.scores[name] = 0
		}
		if hand, ok := r.parked[name]; ok {
			r.hands[name] = hand
			r.retired -= len(hand)
			delete(r.parked, name)
		}
		r.dealLocked(name)

		out.send(p, protocol.JoinOK, strconv.Itoa(r.ID))
		if r.owner == "" {
			r.owner = name
			out.send(p, protocol.Owner, "true")
		}
		peers := r.peersLocked()
		out.broadcast(peers, protocol.Info, name+" joined the room")
		out.broadcast(peers, protocol.PlayerCount, strconv.Itoa(len(r.roster)))
		log.Info("room %d: %s joined (%d/%d)", r.ID, name, len(r.roster), r.rules.MaxPlayers)

		switch {
		case r.state == Active:
			hand := slices.Clone(r.hands[name])
			tile.Sort(hand)
			out.send(p, protocol.GameStart, strconv.Itoa(len(r.roster)))
			out.send(p, protocol.InitialTiles, tile.JoinCSV(hand))
			if len(r.board) > 0 {
				out.send(p, protocol.PlayOK, r.roster[r.turn], r.board.Encode())
			}
			out.send(p, protocol.Turn, r.roster[r.turn])
		case len(r.roster) == r.rules.MaxPlayers:
			r.startLocked(out)
		}
		return nil
	})
}

func (r *Room) Leave(name string) error {
	return r.do(func(out *outbox) error {
		idx := slices.Index(r.roster, name)
		if idx < 0 {
			return ErrNotInRoom
		}
		r.roster = slices.Delete(r.roster, idx, idx+1)
		delete(r.peers, name)
		hand := r.hands[name]
		delete(r.hands, name)
		delete(r.played, name)
		if r.state == Active {
			r.retired += len(hand)
			r.parked[name] = hand
		} else {
			delete(r.opened, name)
			r.pool.Return(hand...)
		}
		log.Info("room %d: %s left (%d/%d)", r.ID, name, len(r.roster), r.rules.MaxPlayers)

		peers := r.peersLocked()
		out.broadcast(peers, protocol.Info, name+" left the room")
		out.broadcast(peers, protocol.PlayerCount, strconv.Itoa(len(r.roster)))

		if r.owner == name {
			r.owner = ""
			if len(r.roster) > 0 {
				r.owner = r.roster[idx%len(r.roster)]
				out.send(r.peers[r.owner], protocol.Owner, "true")
				out.broadcast(peers, protocol.Info, r.owner+" is now the room owner")
				log.Info("room %d: owner is now %s", r.ID, r.owner)
			}
		}

		if r.state == Active {
			switch {
			case len(r.roster) == 1:
				r.settleLocked(out, r.roster[0])
			case len(r.roster) == 0:
				r.state = Waiting
				clear(r.parked)
				clear(r.opened)
				r.stopTurnTimerLocked()
			case idx < r.turn:
				r.turn--
			case idx == r.turn:
				r.turn %= len(r.roster)
				r.beginTurnLocked(out)
			}
		}

		if len(r.roster) == 0 && r.onEmpty != nil {
			out.then(func() { r.onEmpty(r) })
		}
		return nil
	})
}

// Start is the owner's request to begin a round.
func (r *Room) Start(name string) error {
	return r.do(func(out *outbox) error {
		switch {
		case !slices.Contains(r.roster, name):
			return ErrNotInRoom
		case r.owner != name:
			return ErrNotOwner
		case r.state == Active:
			return ErrGameInProgress
		case len(r.roster) < r.rules.MinPlayers:
			return fmt.Errorf("%w: %d of %d", ErrNotEnoughPlayers, len(r.roster), r.rules.MinPlayers)
		}
		r.startLocked(out)
		return nil
	})
}

func (r *Room) startLocked(out *outbox) {
	r.state = Active
	r.turn = 0
	clear(r.opened)
	clear(r.played)

	need := 0
	for _, name := range r.roster {
		if _, ok := r.hands[name]; !ok {
			need += r.rules.HandSize
		}
	}
	if r.pool.Len() < need {
		log.Info("room %d: pool down to %d tiles, opening a fresh set", r.ID, r.pool.Len())
		clear(r.hands)
		clear(r.parked)
		r.pool = r.newPool()
		r.retired = 0
	}
	for _, name := range r.roster {
		r.dealLocked(name)
	}

	out.broadcast(r.peersLocked(), protocol.GameStart, strconv.Itoa(len(r.roster)))
	for _, name := range r.roster {
		hand := slices.Clone(r.hands[name])
		tile.Sort(hand)
		out.send(r.peers[name], protocol.InitialTiles, tile.JoinCSV(hand))
	}
	log.Info("room %d: round %d started, %d players, %d tiles left in pool",
		r.ID, r.round, len(r.roster), r.pool.Len())
	r.beginTurnLocked(out)
}

func (r *Room) beginTurnLocked(out *outbox) {
	cur := r.roster[r.turn]
	r.played[cur] = false
	out.broadcast(r.peersLocked(), protocol.Turn, cur)
	r.resetTurnTimerLocked()
}

func (r *Room) advanceLocked(out *outbox) {
	r.turn = (r.turn + 1) % len(r.roster)
	r.beginTurnLocked(out)
}

func (r *Room) checkTurnLocked(name string) error {
	switch {
	case !slices.Contains(r.roster, name):
		return ErrNotInRoom
	case r.state != Active:
		return ErrGameNotStarted
	case r.roster[r.turn] != name:
		return ErrNotYourTurn
	}
	return nil
}

// Play submits a whole proposed table. Rule violations come back as errors
// for which IsRuleViolation holds; nothing is committed unless every check
// passes.
func (r *Room) Play(name, data string) error {
	proposed, err := board.Decode(data)
	if err != nil {
		return err
	}
	return r.do(func(out *outbox) error {
		if err := r.checkTurnLocked(name); err != nil {
			return err
		}
		hand := r.hands[name]
		played, err := board.Diff(r.board.Layout(), proposed, hand)
		if err != nil {
			log.Debug("room %d: %s play rejected: %v", r.ID, name, err)
			return err
		}
		next, err := r.resolveLocked(proposed, played)
		if err != nil {
			log.Debug("room %d: %s play rejected: %v", r.ID, name, err)
			return err
		}
		if !r.opened[name] {
			if pts := openingPoints(r.board, next, played); pts < r.rules.OpeningMinimum {
				log.Debug("room %d: %s opening too low: %d", r.ID, name, pts)
				return fmt.Errorf("%w: %d of %d points", ErrOpeningMinimum, pts, r.rules.OpeningMinimum)
			}
		}

		r.board = next
		r.hands[name] = tile.Remove(hand, played...)
		r.opened[name] = true
		r.played[name] = true
		out.broadcast(r.peersLocked(), protocol.PlayOK, name, next.Encode())
		log.Info("room %d: %s played %s, %d left in hand", r.ID, name, tile.JoinCSV(played), len(r.hands[name]))

		if len(r.hands[name]) == 0 {
			r.settleLocked(out, name)
			return nil
		}
		r.advanceLocked(out)
		return nil
	})
}

// resolveLocked validates the proposed layout as submitted and falls back to
// regrouping the table plus the played tiles. The layout's error wins when
// both fail.
func (r *Room) resolveLocked(proposed board.Layout, played []tile.Tile) (board.Board, error) {
	next, err := board.Resolve(proposed)
	if err == nil {
		return next, nil
	}
	groups, rerr := r.rearrange(append(r.board.Layout().Tiles(), played...))
	if rerr != nil {
		return nil, err
	}
	regrouped, rerr := board.Resolve(board.Layout(groups))
	if rerr != nil {
		return nil, err
	}
	log.Debug("room %d: submitted layout regrouped into %d melds", r.ID, len(regrouped))
	return regrouped, nil
}

// Draw takes one tile for a player with no play and passes the turn, even
// when the pool is empty.
func (r *Room) Draw(name string) error {
	return r.do(func(out *outbox) error {
		if err := r.checkTurnLocked(name); err != nil {
			return err
		}
		if r.played[name] {
			return ErrAlreadyPlayed
		}
		r.drawLocked(out, name)
		return nil
	})
}

func (r *Room) drawLocked(out *outbox, name string) {
	p := r.peers[name]
	t, err := r.pool.Draw()
	if err != nil {
		out.send(p, protocol.PoolEmpty)
		log.Debug("room %d: %s drew from an empty pool", r.ID, name)
	} else {
		r.hands[name] = append(r.hands[name], t)
		out.send(p, protocol.NewTile, t.String())
		log.Debug("room %d: %s drew, %d left in pool", r.ID, name, r.pool.Len())
	}
	r.advanceLocked(out)
}

func (r *Room) Chat(name, text string) error {
	return r.do(func(out *outbox) error {
		if !slices.Contains(r.roster, name) {
			return ErrNotInRoom
		}
		out.broadcast(r.peersLocked(), protocol.Chat, name+": "+protocol.Sanitize(text))
		return nil
	})
}

// settleLocked scores a round won by winner, clears the table and hands and
// either deals the next round or drops back to Waiting.
func (r *Room) settleLocked(out *outbox, winner string) {
	deltas := Settle(r.roster, winner, r.hands, r.rules.JokerPenalty)
	totals := make(map[string]int, len(r.roster))
	for _, name := range r.roster {
		r.scores[name] += deltas[name]
		totals[name] = r.scores[name]
	}

	peers := r.peersLocked()
	out.broadcast(peers, protocol.GameEnd, winner)
	for _, name := range r.roster {
		out.broadcast(peers, protocol.Score, name, strconv.Itoa(r.scores[name]))
	}
	log.Info("room %d: round %d won by %s, deltas %v", r.ID, r.round, winner, deltas)

	result := record.RoundResult{
		ID:      uuid.NewString(),
		RoomID:  r.ID,
		Room:    r.Name,
		Round:   r.round,
		Winner:  winner,
		Deltas:  deltas,
		Totals:  totals,
		EndedAt: time.Now().Unix(),
	}
	sink := r.sink
	out.then(func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := sink.Record(ctx, result); err != nil {
			log.Warn("room %d: record round %s: %v", result.RoomID, result.ID, err)
		}
	})

	r.retired += r.board.TileCount()
	for _, h := range r.hands {
		r.retired += len(h)
	}
	r.board = nil
	clear(r.hands)
	clear(r.parked)
	clear(r.opened)
	clear(r.played)
	r.round++
	r.turn = 0
	r.stopTurnTimerLocked()

	if len(r.roster) >= r.rules.MinPlayers {
		r.startLocked(out)
		return
	}
	r.state = Waiting
}

// Close stops the turn timer and refuses further joins.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.stopTurnTimerLocked()
}

func (r *Room) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Room) Owner() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner
}

func (r *Room) Players() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.roster)
}

// Turn is the current player, empty while Waiting.
func (r *Room) Turn() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != Active {
		return ""
	}
	return r.roster[r.turn]
}

func (r *Room) Hand(name string) []tile.Tile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.hands[name])
}

func (r *Room) Board() board.Board {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.board)
}

func (r *Room) Scores() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.scores)
}

func (r *Room) PoolSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pool.Len()
}

// Retired counts tiles that left play with settled rounds or departed
// players.
func (r *Room) Retired() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.retired
}

func (r *Room) Round() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.round
}

func (r *Room) Info() RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RoomInfo{ID: r.ID, Name: r.Name, Players: len(r.roster), State: r.state}
}
