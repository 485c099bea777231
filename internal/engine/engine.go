package engine

import (
	"errors"
	"fmt"
)

var ErrNotYourTurn = errors.New("not your turn")
var ErrCardNotInHand = errors.New("card not in hand")
var ErrMustFollowSuit = errors.New("must follow suit")
var ErrMustBid = errors.New("last bidder must bid after three passes")
var ErrInvalidBidRank = errors.New("bid does not beat the current bid")
var ErrSeatSkipped = errors.New("seat sits out the moon round")
var ErrInvalidBid = errors.New("invalid bid")
var ErrUnknownCard = errors.New("unknown card")
var ErrWrongPhase = errors.New("command not allowed in this phase")
var ErrNotEnoughPlayers = errors.New("four players are required")
var ErrInvalidDeck = errors.New("invalid deck")
var ErrInvalidSeat = errors.New("invalid seat")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseBidding Phase = "bidding"
	PhasePlaying Phase = "playing"
	// PhaseScoring means the round is over and the next deal is due.
	PhaseScoring Phase = "scoring"
)

type Player struct {
	ID   string
	Name string
}

type Rules struct {
	// ForceLastBid stops the fourth bidder from passing after three passes.
	ForceLastBid bool
}

func DefaultRules() Rules { return Rules{ForceLastBid: true} }

// State is the authoritative state of one room. Apply never mutates the
// State it is given.
type State struct {
	Phase       Phase
	Players     [NumSeats]Player
	Dealer      int
	CurrentSeat int
	Hands       [NumSeats][]Card
	Bids        [NumSeats]*Bid
	WinningBid  *Bid
	Trump       TrumpMode
	// MoonBidder is the seat whose moon bid won the round, or NoSeat. It
	// is the only source for the skipped seat and the trick size.
	MoonBidder int
	Trick      []Play
	TricksWon  TeamScores
	Scores     TeamScores
	Round      int
	Rules      Rules
}

type CommandType string

const (
	CmdStartRound  CommandType = "StartRound"
	CmdSubmitBid   CommandType = "SubmitBid"
	CmdPlayCard    CommandType = "PlayCard"
	CmdSeatVacated CommandType = "SeatVacated"
)

/*
	CmdStartRound  -> EvtHandDealt x4 -> EvtBiddingStarted -> EvtTurnToBid
	CmdSubmitBid   -> EvtBidRecorded -> EvtTurnToBid
	                  or EvtBidRecorded -> EvtBiddingComplete -> EvtTurnToPlay
	CmdPlayCard    -> EvtHandUpdated -> EvtTrickUpdated -> EvtTurnToPlay
	                  or ... -> EvtTrickComplete -> EvtTurnToPlay
	                  or ... -> EvtTrickComplete -> EvtRoundScored
	CmdSeatVacated -> EvtRoundAborted
*/

type Command struct {
	Type    CommandType
	Seat    int
	Players [NumSeats]Player // StartRound
	Deck    []Card           // StartRound
	Bid     Bid              // SubmitBid
	Card    Card             // PlayCard
}

type EventType string

const (
	EvtHandDealt       EventType = "HandDealt"
	EvtHandUpdated     EventType = "HandUpdated"
	EvtBiddingStarted  EventType = "BiddingStarted"
	EvtBidRecorded     EventType = "BidRecorded"
	EvtBiddingComplete EventType = "BiddingComplete"
	EvtTurnToBid       EventType = "TurnToBid"
	EvtTurnToPlay      EventType = "TurnToPlay"
	EvtTrickUpdated    EventType = "TrickUpdated"
	EvtTrickComplete   EventType = "TrickComplete"
	EvtRoundScored     EventType = "RoundScored"
	EvtRoundAborted    EventType = "RoundAborted"
	EvtIllegalAction   EventType = "IllegalAction"
)

// Event is an outbound notification. Seat is the subject of the event: the
// dealt seat, the dealer, the seat on turn, the trick winner or the seat
// that vacated. Recipients limits delivery to those seats; nil broadcasts.
type Event struct {
	Type       EventType
	Seat       int
	Cards      []Card
	Bids       [NumSeats]*Bid
	Bid        *Bid
	Plays      []Play
	Tricks     TeamScores
	Delta      TeamScores
	Totals     TeamScores
	Reason     string
	Recipients []int
}

func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdStartRound:
		return startRound(s, cmd)
	case CmdSubmitBid:
		return submitBid(s, cmd)
	case CmdPlayCard:
		return playCard(s, cmd)
	case CmdSeatVacated:
		return seatVacated(s, cmd)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func startRound(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseWaiting && s.Phase != PhaseScoring {
		return nil, s, ErrWrongPhase
	}
	for _, p := range cmd.Players {
		if p.ID == "" {
			return nil, s, ErrNotEnoughPlayers
		}
	}
	if !validDeck(cmd.Deck) {
		return nil, s, ErrInvalidDeck
	}

	next := s.clone()
	next.resetRound()
	next.Players = cmd.Players
	next.Hands = Deal(cmd.Deck)
	next.Phase = PhaseBidding
	next.Round++
	next.CurrentSeat = (next.Dealer + 1) % NumSeats

	events := make([]Event, 0, NumSeats+2)
	for seat, hand := range next.Hands {
		events = append(events, Event{
			Type:       EvtHandDealt,
			Seat:       seat,
			Cards:      append([]Card(nil), hand...),
			Recipients: []int{seat},
		})
	}
	events = append(events,
		Event{Type: EvtBiddingStarted, Seat: next.Dealer, Bids: next.Bids},
		Event{Type: EvtTurnToBid, Seat: next.CurrentSeat},
	)
	return events, next, nil
}

func submitBid(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseBidding {
		return nil, s, ErrWrongPhase
	}
	leading := BestBid(s.Bids)
	if leading != nil && leading.IsMoon() && cmd.Seat == Partner(leading.Seat) {
		return nil, s, ErrSeatSkipped
	}
	if cmd.Seat != s.CurrentSeat {
		return nil, s, ErrNotYourTurn
	}
	bid := cmd.Bid
	if err := bid.Validate(); err != nil {
		return nil, s, err
	}
	recorded, passes := countBids(s.Bids)
	if bid.IsPass() {
		if s.Rules.ForceLastBid && recorded == NumSeats-1 && passes == recorded {
			return nil, s, ErrMustBid
		}
		bid.Trump = TrumpNone
	} else if !IsBetterBid(bid, leading) {
		return nil, s, ErrInvalidBidRank
	}

	next := s.clone()
	bid.Seat = cmd.Seat
	next.Bids[cmd.Seat] = &bid
	recorded++

	// The partner of a standing moon bid sits out and passes automatically.
	seat := NextSeat(cmd.Seat, NoSeat)
	if best := BestBid(next.Bids); best != nil && best.IsMoon() {
		for recorded < NumSeats && seat == Partner(best.Seat) {
			auto := Pass()
			auto.Seat = seat
			next.Bids[seat] = &auto
			recorded++
			seat = NextSeat(seat, NoSeat)
		}
	}

	events := []Event{{Type: EvtBidRecorded, Seat: cmd.Seat, Bids: next.Bids}}
	if recorded < NumSeats {
		next.CurrentSeat = seat
		events = append(events, Event{Type: EvtTurnToBid, Seat: seat})
		return events, next, nil
	}

	winner := BestBid(next.Bids)
	events = append(events, Event{Type: EvtBiddingComplete, Seat: NoSeat, Bid: winner})
	if winner == nil {
		// Nobody bid: the deal passes to the next dealer.
		next.resetRound()
		next.Dealer = (next.Dealer + 1) % NumSeats
		next.Phase = PhaseScoring
		return events, next, nil
	}

	next.WinningBid = winner
	next.Trump = winner.Trump
	if winner.IsMoon() {
		next.MoonBidder = winner.Seat
	}
	next.Phase = PhasePlaying
	next.CurrentSeat = NextSeat(winner.Seat, SkippedSeat(next.MoonBidder))
	events = append(events, Event{Type: EvtTurnToPlay, Seat: next.CurrentSeat})
	return events, next, nil
}

func playCard(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhasePlaying {
		return nil, s, ErrWrongPhase
	}
	skipped := SkippedSeat(s.MoonBidder)
	if cmd.Seat == skipped {
		return nil, s, ErrSeatSkipped
	}
	if cmd.Seat != s.CurrentSeat {
		return nil, s, ErrNotYourTurn
	}
	hand := s.Hands[cmd.Seat]
	if !containsCard(hand, cmd.Card) {
		return nil, s, ErrCardNotInHand
	}
	if err := CanPlay(hand, s.Trick, cmd.Card, s.Trump); err != nil {
		return nil, s, err
	}

	next := s.clone()
	next.Hands[cmd.Seat] = removeCard(hand, cmd.Card)
	next.Trick = append(next.Trick, Play{Seat: cmd.Seat, Card: cmd.Card})

	events := []Event{
		{
			Type:       EvtHandUpdated,
			Seat:       cmd.Seat,
			Cards:      append([]Card(nil), next.Hands[cmd.Seat]...),
			Recipients: []int{cmd.Seat},
		},
		{Type: EvtTrickUpdated, Seat: cmd.Seat, Plays: append([]Play(nil), next.Trick...)},
	}

	if len(next.Trick) < ExpectedPlays(next.MoonBidder) {
		next.CurrentSeat = NextSeat(cmd.Seat, skipped)
		events = append(events, Event{Type: EvtTurnToPlay, Seat: next.CurrentSeat})
		return events, next, nil
	}

	winner := TrickWinner(next.Trick, next.Trump)
	next.TricksWon[TeamOf(winner)]++
	events = append(events, Event{
		Type:   EvtTrickComplete,
		Seat:   winner,
		Plays:  next.Trick,
		Tricks: next.TricksWon,
	})
	next.Trick = nil

	if next.TricksWon.Total() < TricksPerRound {
		next.CurrentSeat = winner
		events = append(events, Event{Type: EvtTurnToPlay, Seat: winner})
		return events, next, nil
	}

	bid := *next.WinningBid
	delta := ScoreRound(bid, next.TricksWon)
	next.Scores = next.Scores.Add(delta)
	events = append(events, Event{
		Type:   EvtRoundScored,
		Seat:   bid.Seat,
		Bid:    &bid,
		Tricks: next.TricksWon,
		Delta:  delta,
		Totals: next.Scores,
	})

	next.resetRound()
	next.Dealer = (next.Dealer + 1) % NumSeats
	next.Phase = PhaseScoring
	return events, next, nil
}

// seatVacated drops the room back to waiting. Cumulative scores and the
// dealer survive so the game resumes when the seat is filled again.
func seatVacated(s State, cmd Command) ([]Event, State, error) {
	if cmd.Seat < 0 || cmd.Seat >= NumSeats {
		return nil, s, fmt.Errorf("%w: %d", ErrInvalidSeat, cmd.Seat)
	}
	if s.Players[cmd.Seat].ID == "" {
		return nil, s, fmt.Errorf("%w: %d is empty", ErrInvalidSeat, cmd.Seat)
	}
	next := s.clone()
	next.resetRound()
	next.Hands = [NumSeats][]Card{}
	next.Players[cmd.Seat] = Player{}
	wasActive := s.Phase != PhaseWaiting
	next.Phase = PhaseWaiting

	if !wasActive {
		return nil, next, nil
	}
	return []Event{{Type: EvtRoundAborted, Seat: cmd.Seat}}, next, nil
}

// ReasonCode is the wire code reported with an illegal action.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, ErrCardNotInHand):
		return "card_not_in_hand"
	case errors.Is(err, ErrMustFollowSuit):
		return "must_follow_suit"
	case errors.Is(err, ErrMustBid):
		return "must_bid"
	case errors.Is(err, ErrInvalidBidRank):
		return "invalid_bid_rank"
	case errors.Is(err, ErrSeatSkipped):
		return "seat_skipped"
	case errors.Is(err, ErrInvalidBid):
		return "invalid_bid"
	case errors.Is(err, ErrUnknownCard):
		return "unknown_card"
	case errors.Is(err, ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, ErrInvalidDeck):
		return "invalid_deck"
	case errors.Is(err, ErrInvalidSeat):
		return "invalid_seat"
	default:
		return "unsupported_command"
	}
}
