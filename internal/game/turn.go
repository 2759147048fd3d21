package game

import (
	"time"

	"rummikub/internal/log"
	"rummikub/internal/protocol"
)

// resetTurnTimerLocked arms the turn limit for the current player. Each arm
// bumps turnGen so a timer that already fired for an older turn is ignored.
func (r *Room) resetTurnTimerLocked() {
	r.stopTurnTimerLocked()
	if r.rules.TurnTimeout <= 0 {
		return
	}
	gen := r.turnGen
	r.turnTimer = time.AfterFunc(r.rules.TurnTimeout, func() {
		r.onTurnTimeout(gen)
	})
}

func (r *Room) stopTurnTimerLocked() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
	r.turnGen++
}

// onTurnTimeout draws on behalf of a player who let the clock run out.
func (r *Room) onTurnTimeout(gen int64) {
	var out outbox
	r.mu.Lock()
	if !r.closed && r.state == Active && gen == r.turnGen {
		name := r.roster[r.turn]
		log.Info("room %d: %s ran out of time", r.ID, name)
		out.broadcast(r.peersLocked(), protocol.Info, name+" ran out of time")
		r.drawLocked(&out, name)
	}
	r.mu.Unlock()
	out.flush()
}
