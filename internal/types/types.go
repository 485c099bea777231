// Package types converts engine and room values to the wire shapes in
// pkg/types.
package types

import (
	"time"

	"github.com/benhageman/bid-euchre/internal/engine"
	"github.com/benhageman/bid-euchre/internal/history"
	"github.com/benhageman/bid-euchre/internal/room"
	wire "github.com/benhageman/bid-euchre/pkg/types"
)

var eventNames = map[engine.EventType]string{
	engine.EvtHandDealt:       wire.MsgHandDealt,
	engine.EvtHandUpdated:     wire.MsgHandUpdated,
	engine.EvtBiddingStarted:  wire.MsgBiddingStarted,
	engine.EvtBidRecorded:     wire.MsgBidsUpdated,
	engine.EvtBiddingComplete: wire.MsgBiddingComplete,
	engine.EvtTurnToBid:       wire.MsgTurnToBid,
	engine.EvtTurnToPlay:      wire.MsgTurnToPlay,
	engine.EvtTrickUpdated:    wire.MsgTrickUpdated,
	engine.EvtTrickComplete:   wire.MsgTrickComplete,
	engine.EvtRoundScored:     wire.MsgRoundScored,
	engine.EvtRoundAborted:    wire.MsgRoundAborted,
	engine.EvtIllegalAction:   wire.MsgIllegalAction,
}

func FromNotice(n room.Notice) wire.ServerMessage {
	if n.Event == nil {
		return PlayerList(n.Version, n.Roster)
	}
	return FromEvent(n.Version, *n.Event)
}

func FromEvent(version int, ev engine.Event) wire.ServerMessage {
	msg := wire.ServerMessage{Type: eventNames[ev.Type], Version: version}
	if ev.Seat != engine.NoSeat {
		msg.Seat = seatPtr(ev.Seat)
	}

	switch ev.Type {
	case engine.EvtHandDealt, engine.EvtHandUpdated:
		msg.Cards = cards(ev.Cards)
		if msg.Cards == nil {
			msg.Cards = []string{}
		}
	case engine.EvtBiddingStarted, engine.EvtBidRecorded:
		msg.Bids = bids(ev.Bids)
	case engine.EvtBiddingComplete:
		msg.Bid = bid(ev.Bid)
	case engine.EvtTrickUpdated:
		msg.Plays = plays(ev.Plays)
	case engine.EvtTrickComplete:
		msg.Plays = plays(ev.Plays)
		msg.Tricks = scoresPtr(ev.Tricks)
	case engine.EvtRoundScored:
		msg.Bid = bid(ev.Bid)
		msg.Tricks = scoresPtr(ev.Tricks)
		msg.Delta = scoresPtr(ev.Delta)
		msg.Totals = scoresPtr(ev.Totals)
	case engine.EvtIllegalAction:
		msg.Reason = ev.Reason
	}
	return msg
}

func PlayerList(version int, roster []room.Member) wire.ServerMessage {
	return wire.ServerMessage{Type: wire.MsgPlayerList, Version: version, Players: players(roster)}
}

func Error(version int, text string) wire.ServerMessage {
	return wire.ServerMessage{Type: wire.MsgError, Version: version, Error: text}
}

func Snapshot(v room.View) wire.RoomSnapshot {
	s := v.State
	snap := wire.RoomSnapshot{
		Code:       v.Code,
		Version:    v.Version,
		Phase:      string(s.Phase),
		Round:      s.Round,
		Dealer:     s.Dealer,
		Players:    players(v.Roster),
		WinningBid: bid(s.WinningBid),
		Trick:      plays(s.Trick),
		Tricks:     scores(s.TricksWon),
		Scores:     scores(s.Scores),
		HandSizes:  make([]int, engine.NumSeats),
	}
	if s.CurrentSeat != engine.NoSeat {
		snap.CurrentSeat = seatPtr(s.CurrentSeat)
	}
	if s.Phase == engine.PhaseBidding {
		snap.Bids = bids(s.Bids)
	}
	for seat, hand := range s.Hands {
		snap.HandSizes[seat] = len(hand)
	}
	return snap
}

func Rounds(code string, rounds []history.Round) wire.RoundList {
	out := wire.RoundList{Code: code, Rounds: make([]wire.RoundResult, 0, len(rounds))}
	for _, r := range rounds {
		out.Rounds = append(out.Rounds, wire.RoundResult{
			Round:    r.Number,
			Dealer:   r.Dealer,
			BidSeat:  r.BidSeat,
			Bid:      r.Bid,
			Trump:    r.Trump,
			Moon:     r.Moon,
			Tricks:   scores(r.Tricks),
			Delta:    scores(r.Delta),
			Totals:   scores(r.Totals),
			PlayedAt: r.PlayedAt.Format(time.RFC3339),
		})
	}
	return out
}

func seatPtr(seat int) *int { return &seat }

func cards(cs []engine.Card) []string {
	if cs == nil {
		return nil
	}
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

func bid(b *engine.Bid) *wire.Bid {
	if b == nil {
		return nil
	}
	return &wire.Bid{Seat: b.Seat, Kind: string(b.Kind), Amount: b.Amount, Trump: string(b.Trump)}
}

// bids keeps one entry per seat; seats that have not bid are null.
func bids(bs [engine.NumSeats]*engine.Bid) []*wire.Bid {
	out := make([]*wire.Bid, engine.NumSeats)
	for seat, b := range bs {
		out[seat] = bid(b)
	}
	return out
}

func plays(ps []engine.Play) []wire.Play {
	if len(ps) == 0 {
		return nil
	}
	out := make([]wire.Play, len(ps))
	for i, p := range ps {
		out[i] = wire.Play{Seat: p.Seat, Card: p.Card.String()}
	}
	return out
}

func scores(s [2]int) wire.TeamScores {
	return wire.TeamScores{Team1: s[engine.TeamA], Team2: s[engine.TeamB]}
}

func scoresPtr(s engine.TeamScores) *wire.TeamScores {
	ts := scores(s)
	return &ts
}

func players(roster []room.Member) []wire.PlayerInfo {
	out := make([]wire.PlayerInfo, 0, len(roster))
	for _, m := range roster {
		out = append(out, wire.PlayerInfo{Seat: m.Seat, Name: m.Name})
	}
	return out
}
