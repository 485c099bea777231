// Package history keeps the results of scored rounds. Results are an
// append-only trail for display and auditing; nothing here is read back to
// resume a game.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/benhageman/bid-euchre/internal/engine"
)

// Round is one scored round as stored and published.
type Round struct {
	Room     string    `json:"room"`
	Number   int       `json:"round"`
	Dealer   int       `json:"dealer"`
	BidSeat  int       `json:"bidSeat"`
	Bid      string    `json:"bid"`
	Trump    string    `json:"trump"`
	Moon     bool      `json:"moon"`
	Tricks   [2]int    `json:"tricks"`
	Delta    [2]int    `json:"delta"`
	Totals   [2]int    `json:"totals"`
	PlayedAt time.Time `json:"playedAt"`
}

// FromEvent builds a Round from an engine RoundScored event.
func FromEvent(room string, number, dealer int, ev engine.Event, at time.Time) Round {
	r := Round{
		Room:     room,
		Number:   number,
		Dealer:   dealer,
		BidSeat:  ev.Seat,
		Tricks:   ev.Tricks,
		Delta:    ev.Delta,
		Totals:   ev.Totals,
		PlayedAt: at.UTC(),
	}
	if ev.Bid != nil {
		r.Bid = ev.Bid.String()
		r.Trump = string(ev.Bid.Trump)
		r.Moon = ev.Bid.IsMoon()
	}
	return r
}

type Recorder interface {
	Record(ctx context.Context, r Round) error
}

type Reader interface {
	// Recent returns up to n rounds for room, newest first.
	Recent(ctx context.Context, room string, n int) ([]Round, error)
}

// Forgetter drops whatever a store holds for a destroyed room.
type Forgetter interface {
	Forget(room string)
}

type Nop struct{}

func (Nop) Record(context.Context, Round) error { return nil }

func (Nop) Recent(context.Context, string, int) ([]Round, error) { return nil, nil }

// Fanout records to every recorder and joins their errors.
type Fanout []Recorder

func (f Fanout) Record(ctx context.Context, r Round) error {
	var errs []error
	for _, rec := range f {
		if err := rec.Record(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
