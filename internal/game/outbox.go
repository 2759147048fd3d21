package game

import "rummikub/internal/protocol"

// Peer is a connected player as the room sees it. Send must not block.
type Peer interface {
	Name() string
	Send(line string)
}

type envelope struct {
	to   []Peer
	line string
}

// outbox collects everything a room operation wants to emit while the room
// lock is held. flush runs after the unlock.
type outbox struct {
	msgs  []envelope
	after []func()
}

func (o *outbox) send(p Peer, typ string, fields ...string) {
	if p == nil {
		return
	}
	o.msgs = append(o.msgs, envelope{to: []Peer{p}, line: protocol.Format(typ, fields...)})
}

func (o *outbox) broadcast(peers []Peer, typ string, fields ...string) {
	if len(peers) == 0 {
		return
	}
	o.msgs = append(o.msgs, envelope{to: peers, line: protocol.Format(typ, fields...)})
}

func (o *outbox) then(fn func()) {
	o.after = append(o.after, fn)
}

func (o *outbox) flush() {
	for _, e := range o.msgs {
		for _, p := range e.to {
			p.Send(e.line)
		}
	}
	for _, fn := range o.after {
		fn()
	}
}
