package game

import (
	"fmt"
	"time"
)

// Rules are the per-room game constants.
type Rules struct {
	MinPlayers int `mapstructure:"minPlayers"`
	MaxPlayers int `mapstructure:"maxPlayers"`
	HandSize   int `mapstructure:"handSize"`

	// minimum summed value of the melds a player's first play touches
	OpeningMinimum int `mapstructure:"openingMinimum"`
	// what a joker left in hand costs at settlement
	JokerPenalty int `mapstructure:"jokerPenalty"`

	// 0 disables the turn timer
	TurnTimeout time.Duration `mapstructure:"-"`
}

// DefaultRules returns the standard table rules.
func DefaultRules() Rules {
	return Rules{
		MinPlayers:     2,
		MaxPlayers:     4,
		HandSize:       14,
		OpeningMinimum: 30,
		JokerPenalty:   30,
	}
}

func (r Rules) Validate() error {
	if r.MinPlayers < 2 {
		return fmt.Errorf("minPlayers must be at least 2, got %d", r.MinPlayers)
	}
	if r.MaxPlayers < r.MinPlayers {
		return fmt.Errorf("maxPlayers %d below minPlayers %d", r.MaxPlayers, r.MinPlayers)
	}
	if r.HandSize < 1 {
		return fmt.Errorf("handSize must be positive, got %d", r.HandSize)
	}
	if r.OpeningMinimum < 0 || r.JokerPenalty < 0 || r.TurnTimeout < 0 {
		return fmt.Errorf("negative rule value")
	}
	return nil
}
