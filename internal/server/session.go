package server

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rummikub/internal/game"
	"rummikub/internal/log"
	"rummikub/internal/protocol"
)

const sendBuffer = 128

// Session is one connected player. The reader goroutine runs commands; the
// writer goroutine owns the connection's write side.
type Session struct {
	id    string
	conn  LineConn
	rooms *game.Manager
	name  string

	send      chan string
	done      chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	room *game.Room
}

func newSession(conn LineConn, rooms *game.Manager) *Session {
	return &Session{
		id:    uuid.NewString(),
		conn:  conn,
		rooms: rooms,
		send:  make(chan string, sendBuffer),
		done:  make(chan struct{}),
	}
}

func (s *Session) Name() string { return s.name }

// Send queues a line without blocking; a full queue drops it.
func (s *Session) Send(line string) {
	select {
	case s.send <- line:
	default:
		log.Warn("session %s: send queue full, dropped %q", s.id, line)
	}
}

func (s *Session) sendf(typ string, fields ...string) {
	s.Send(protocol.Format(typ, fields...))
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case line := <-s.send:
			if err := s.conn.WriteLine(line); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.Ping(); err != nil {
				return
			}
		case <-s.done:
			for {
				select {
				case line := <-s.send:
					if err := s.conn.WriteLine(line); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (s *Session) run() {
	go s.writePump()
	defer s.close()

	log.Debug("session %s: connected from %s", s.id, s.conn.RemoteAddr())
	if !s.login() {
		return
	}
	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			log.Debug("session %s: read: %v", s.id, err)
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !s.dispatch(protocol.Parse(line)) {
			return
		}
	}
}

// login waits for "LOGIN|name" or a bare name line.
func (s *Session) login() bool {
	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			return false
		}
		msg := protocol.Parse(line)
		name := line
		if msg.Type == protocol.Login {
			name = msg.Data
		}
		if name = game.CleanName(name); name == "" {
			s.sendf(protocol.Error, "name required")
			continue
		}
		s.name = name
		log.Info("session %s: logged in as %s", s.id, name)
		s.sendf(protocol.Info, "welcome "+name)
		return true
	}
}

func (s *Session) currentRoom() *game.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *Session) setRoom(r *game.Room) {
	s.mu.Lock()
	s.room = r
	s.mu.Unlock()
}

func (s *Session) leaveRoom() {
	s.mu.Lock()
	r := s.room
	s.room = nil
	s.mu.Unlock()
	if r == nil {
		return
	}
	if err := r.Leave(s.name); err != nil && !errors.Is(err, game.ErrNotInRoom) {
		log.Warn("session %s: leave room %d: %v", s.id, r.ID, err)
	}
}

func (s *Session) enter(r *game.Room) error {
	s.leaveRoom()
	if err := r.Join(s); err != nil {
		return err
	}
	s.setRoom(r)
	return nil
}

// reply maps a room error onto the wire: rule violations are PLAY_FAIL,
// everything else ERROR.
func (s *Session) reply(err error) {
	if err == nil {
		return
	}
	if game.IsRuleViolation(err) {
		s.sendf(protocol.PlayFail, err.Error())
		return
	}
	s.sendf(protocol.Error, err.Error())
}

// dispatch runs one command and reports whether to keep reading.
func (s *Session) dispatch(msg protocol.Message) bool {
	room := s.currentRoom()
	needRoom := func() bool {
		if room == nil {
			s.sendf(protocol.Error, "not in a room")
			return false
		}
		return true
	}

	switch msg.Type {
	case protocol.Login:
		s.sendf(protocol.Error, "already logged in as "+s.name)

	case protocol.List:
		s.sendf(protocol.RoomList, game.EncodeRoomList(s.rooms.List()))

	case protocol.Create:
		name := strings.TrimSpace(msg.Data)
		if name == "" {
			name = s.name + "'s room"
		}
		s.reply(s.enter(s.rooms.Create(name)))

	case protocol.Join:
		id, err := strconv.Atoi(strings.TrimSpace(msg.Data))
		if err != nil {
			s.sendf(protocol.Error, "invalid room id: "+msg.Data)
			break
		}
		if room != nil && room.ID == id {
			s.sendf(protocol.Error, "already in room "+strconv.Itoa(id))
			break
		}
		r, err := s.rooms.Get(id)
		if err != nil {
			s.reply(err)
			break
		}
		s.reply(s.enter(r))

	case protocol.Leave:
		if needRoom() {
			s.leaveRoom()
			s.sendf(protocol.Info, "left room "+strconv.Itoa(room.ID))
		}

	case protocol.Chat:
		if needRoom() {
			s.reply(room.Chat(s.name, msg.Data))
		}

	case protocol.StartGame:
		if needRoom() {
			s.reply(room.Start(s.name))
		}

	case protocol.Play:
		if needRoom() {
			s.reply(room.Play(s.name, msg.Data))
		}

	case protocol.NoTile:
		if needRoom() {
			s.reply(room.Draw(s.name))
		}

	case protocol.Exit:
		s.leaveRoom()
		s.sendf(protocol.Info, "bye "+s.name)
		return false

	default:
		s.sendf(protocol.Error, "unknown command: "+msg.Type)
	}
	return true
}

// close leaves the room, lets the writer drain and closes the connection.
// Safe to call more than once.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.leaveRoom()
		close(s.done)
		if s.name != "" {
			log.Info("session %s: %s disconnected", s.id, s.name)
		}
	})
}
