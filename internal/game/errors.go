package game

import (
	"errors"

	"rummikub/internal/board"
	"rummikub/internal/meld"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrNameTaken        = errors.New("name already taken in this room")
	ErrNotInRoom        = errors.New("not in room")
	ErrGameInProgress   = errors.New("game in progress")
	ErrGameNotStarted   = errors.New("game not started")
	ErrNotOwner         = errors.New("only the room owner can start the game")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrAlreadyPlayed    = errors.New("already played this turn")
	ErrOpeningMinimum   = errors.New("opening minimum not met")
)

// IsRuleViolation reports whether err rejects a play on the rules, as opposed
// to a protocol or state error.
func IsRuleViolation(err error) bool {
	for _, target := range []error{
		board.ErrTilesRemoved,
		board.ErrIllegalTile,
		board.ErrNothingPlayed,
		meld.ErrInvalidMeld,
		ErrOpeningMinimum,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
