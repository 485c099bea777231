package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Client -> Server
//
//	{"type":"bid","amount":3,"trump":"hearts"}
//	{"type":"bid","amount":"moon","trump":"low"}
//	{"type":"bid","amount":0}                      pass
//	{"type":"play","card":"JS"}
//	{"type":"start"}                               deal when four are seated
//	{"type":"players"}                             ask for the player list
//
// The server deals as soon as the fourth seat fills and again after every
// scored round, so "start" is only accepted for older clients and is
// normally answered with wrong_phase or not_enough_players.
type ClientMessage struct {
	Type   string     `json:"type"`
	Amount *BidAmount `json:"amount,omitempty"`
	Trump  string     `json:"trump,omitempty"`
	Card   string     `json:"card,omitempty"`
}

const (
	ClientBid     = "bid"
	ClientPlay    = "play"
	ClientStart   = "start"
	ClientPlayers = "players"
)

// BidAmount is a trick count (0 passes) or "moon". Numbers may arrive as
// JSON numbers or numeric strings.
type BidAmount struct {
	Moon   bool
	Tricks int
}

func (a BidAmount) MarshalJSON() ([]byte, error) {
	if a.Moon {
		return []byte(`"moon"`), nil
	}
	return []byte(strconv.Itoa(a.Tricks)), nil
}

func (a *BidAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "moon" {
			*a = BidAmount{Moon: true}
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("bid amount %q: want a number or \"moon\"", s)
		}
		*a = BidAmount{Tricks: n}
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("bid amount %s: want a number or \"moon\"", b)
	}
	*a = BidAmount{Tricks: n}
	return nil
}

// Server -> Client message types.
const (
	MsgHandDealt       = "hand-dealt"
	MsgHandUpdated     = "hand-updated"
	MsgBiddingStarted  = "bidding-started"
	MsgBidsUpdated     = "bids-updated"
	MsgBiddingComplete = "bidding-complete"
	MsgTurnToBid       = "turn-to-bid"
	MsgTurnToPlay      = "turn-to-play"
	MsgTrickUpdated    = "trick-updated"
	MsgTrickComplete   = "trick-complete"
	MsgRoundScored     = "round-scored"
	MsgRoundAborted    = "round-aborted"
	MsgIllegalAction   = "illegal-action"
	MsgPlayerList      = "player-list"
	MsgError           = "error"
)

// ServerMessage is one outbound frame. Seat is the subject of the message:
// the dealt seat, the dealer, the seat on turn, the trick winner, the bid
// seat of a scored round or the seat that vacated.
type ServerMessage struct {
	Type    string       `json:"type"`
	Version int          `json:"version"`
	Seat    *int         `json:"seat,omitempty"`
	Cards   []string     `json:"cards,omitempty"`
	Bids    []*Bid       `json:"bids,omitempty"`
	Bid     *Bid         `json:"bid,omitempty"`
	Plays   []Play       `json:"plays,omitempty"`
	Tricks  *TeamScores  `json:"tricks,omitempty"`
	Delta   *TeamScores  `json:"delta,omitempty"`
	Totals  *TeamScores  `json:"totals,omitempty"`
	Reason  string       `json:"reason,omitempty"`
	Players []PlayerInfo `json:"players,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type Bid struct {
	Seat   int    `json:"seat"`
	Kind   string `json:"kind"` // "pass" | "numeric" | "moon"
	Amount int    `json:"amount,omitempty"`
	Trump  string `json:"trump,omitempty"`
}

type Play struct {
	Seat int    `json:"seat"`
	Card string `json:"card"`
}

// TeamScores: team1 is seats 0 and 2, team2 is seats 1 and 3.
type TeamScores struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

type PlayerInfo struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
}
