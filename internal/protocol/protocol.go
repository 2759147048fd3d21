// Package protocol is the newline-delimited TYPE|DATA wire format shared by
// the TCP and websocket transports.
package protocol

import "strings"

// client → server
const (
	Login     = "LOGIN"
	List      = "LIST"
	Create    = "CREATE"
	Join      = "JOIN"
	Leave     = "LEAVE"
	Chat      = "CHAT"
	StartGame = "START_GAME"
	Play      = "PLAY"
	NoTile    = "NO_TILE"
	Exit      = "EXIT"
)

// server → client
const (
	Info         = "INFO"
	Error        = "ERROR"
	RoomList     = "ROOM_LIST"
	JoinOK       = "JOIN_OK"
	Owner        = "OWNER"
	PlayerCount  = "PLAYER_COUNT"
	GameStart    = "GAME_START"
	InitialTiles = "INITIAL_TILES"
	Turn         = "TURN"
	PlayOK       = "PLAY_OK"
	PlayFail     = "PLAY_FAIL"
	NewTile      = "NEW_TILE"
	PoolEmpty    = "POOL_EMPTY"
	GameEnd      = "GAME_END"
	Score        = "SCORE"
)

const Separator = "|"

// Message is one protocol line. Data keeps any further separators.
type Message struct {
	Type string
	Data string
}

// Parse splits a line at the first separator. Trailing CR/LF is dropped.
func Parse(line string) Message {
	line = strings.TrimRight(line, "\r\n")
	typ, data, _ := strings.Cut(line, Separator)
	return Message{Type: strings.TrimSpace(typ), Data: data}
}

// Format joins a type and its fields into one line without the newline.
func Format(typ string, fields ...string) string {
	if len(fields) == 0 {
		return typ
	}
	return typ + Separator + strings.Join(fields, Separator)
}

// Sanitize strips characters that would break framing out of free text.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r':
			return ' '
		}
		return r
	}, s)
}
