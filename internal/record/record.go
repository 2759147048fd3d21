// Package record ships settled round results out of the process.
package record

import (
	"context"
	"encoding/json"
	"errors"
)

// RoundResult is one settled round. Deltas sum to zero.
type RoundResult struct {
	ID      string         `json:"id"`
	RoomID  int            `json:"roomId"`
	Room    string         `json:"room"`
	Round   int            `json:"round"`
	Winner  string         `json:"winner"`
	Deltas  map[string]int `json:"deltas"`
	Totals  map[string]int `json:"totals"`
	EndedAt int64          `json:"endedAt"`
}

func (r RoundResult) Encode() ([]byte, error) {
	return json.Marshal(r)
}

type Sink interface {
	Record(ctx context.Context, r RoundResult) error
	Close() error
}

type Nop struct{}

func (Nop) Record(context.Context, RoundResult) error { return nil }
func (Nop) Close() error                               { return nil }

// Multi fans a result out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Record(ctx context.Context, r RoundResult) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
