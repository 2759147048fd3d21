package game

import (
	"slices"
	"strconv"
	"strings"
	"sync"

	"rummikub/internal/log"
)

// RoomInfo is one lobby row.
type RoomInfo struct {
	ID      int
	Name    string
	Players int
	State   State
}

func (i RoomInfo) Encode() string {
	return strconv.Itoa(i.ID) + "," + i.Name + "," + strconv.Itoa(i.Players)
}

// EncodeRoomList renders ROOM_LIST data: "id,name,count;id,name,count".
func EncodeRoomList(list []RoomInfo) string {
	parts := make([]string, len(list))
	for i, info := range list {
		parts[i] = info.Encode()
	}
	return strings.Join(parts, ";")
}

var nameReplacer = strings.NewReplacer(",", " ", ";", " ", "|", " ", "\n", " ", "\r", " ")

// CleanName strips the list and field separators out of a display name.
func CleanName(s string) string {
	return strings.TrimSpace(nameReplacer.Replace(s))
}

// Manager is the lobby: room ids count up from 0 and rooms disappear once
// their last player leaves.
type Manager struct {
	rules Rules
	opts  []Option

	mu     sync.RWMutex
	rooms  map[int]*Room
	nextID int
}

func NewManager(rules Rules, opts ...Option) *Manager {
	return &Manager{
		rules: rules,
		opts:  opts,
		rooms: make(map[int]*Room),
	}
}

func (m *Manager) Create(name string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	r := NewRoom(id, CleanName(name), m.rules, m.opts...)
	r.onEmpty = m.removeIfEmpty
	m.rooms[id] = r
	log.Info("room %d created: %q", id, r.Name)
	return r
}

func (m *Manager) Get(id int) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// List snapshots every room, ordered by id.
func (m *Manager) List() []RoomInfo {
	m.mu.RLock()
	rs := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rs = append(rs, r)
	}
	m.mu.RUnlock()

	out := make([]RoomInfo, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Info())
	}
	slices.SortFunc(out, func(a, b RoomInfo) int { return a.ID - b.ID })
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// removeIfEmpty drops r unless somebody joined between its last leave and
// now. Lock order is manager, then room.
func (m *Manager) removeIfEmpty(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.mu.Lock()
	empty := len(r.roster) == 0
	if empty {
		r.closed = true
		r.stopTurnTimerLocked()
	}
	r.mu.Unlock()

	if empty {
		delete(m.rooms, r.ID)
		log.Info("room %d removed", r.ID)
	}
}

func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		r.Close()
	}
}
