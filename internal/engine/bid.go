package engine

import (
	"fmt"
	"strconv"
	"strings"
)

type TrumpMode string

const (
	TrumpNone     TrumpMode = ""
	TrumpHigh     TrumpMode = "high"
	TrumpLow      TrumpMode = "low"
	TrumpClubs    TrumpMode = "clubs"
	TrumpDiamonds TrumpMode = "diamonds"
	TrumpHearts   TrumpMode = "hearts"
	TrumpSpades   TrumpMode = "spades"
)

var TrumpModes = []TrumpMode{TrumpHigh, TrumpLow, TrumpClubs, TrumpDiamonds, TrumpHearts, TrumpSpades}

func ParseTrumpMode(s string) (TrumpMode, error) {
	m := TrumpMode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range TrumpModes {
		if m == known {
			return m, nil
		}
	}
	return TrumpNone, fmt.Errorf("%w: unknown trump %q", ErrInvalidBid, s)
}

// Suit reports the trump suit for the four suit modes.
func (m TrumpMode) Suit() (Suit, bool) {
	switch m {
	case TrumpClubs:
		return Clubs, true
	case TrumpDiamonds:
		return Diamonds, true
	case TrumpHearts:
		return Hearts, true
	case TrumpSpades:
		return Spades, true
	}
	return "", false
}

// TrumpRank breaks ties between bids of equal amount.
func TrumpRank(m TrumpMode) int {
	switch m {
	case TrumpLow:
		return 1
	case TrumpClubs, TrumpDiamonds, TrumpHearts, TrumpSpades:
		return 2
	case TrumpHigh:
		return 3
	}
	return 0
}

type BidKind string

const (
	BidPass    BidKind = "pass"
	BidNumeric BidKind = "numeric"
	BidMoon    BidKind = "moon"
)

const MaxBid = TricksPerRound

// Bid is Pass, Numeric(1..6) or Moon. Amount is only meaningful for
// numeric bids; Trump is unset for passes.
type Bid struct {
	Seat   int
	Kind   BidKind
	Amount int
	Trump  TrumpMode
}

func Pass() Bid { return Bid{Kind: BidPass} }

func NumericBid(amount int, trump TrumpMode) Bid {
	return Bid{Kind: BidNumeric, Amount: amount, Trump: trump}
}

func MoonBid(trump TrumpMode) Bid { return Bid{Kind: BidMoon, Trump: trump} }

func (b Bid) IsPass() bool { return b.Kind == BidPass }
func (b Bid) IsMoon() bool { return b.Kind == BidMoon }

func (b Bid) Validate() error {
	switch b.Kind {
	case BidPass:
		return nil
	case BidNumeric:
		if b.Amount < 1 || b.Amount > MaxBid {
			return fmt.Errorf("%w: amount %d out of range", ErrInvalidBid, b.Amount)
		}
	case BidMoon:
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidBid, b.Kind)
	}
	if TrumpRank(b.Trump) == 0 {
		return fmt.Errorf("%w: missing trump", ErrInvalidBid)
	}
	return nil
}

func (b Bid) String() string {
	switch b.Kind {
	case BidPass:
		return "pass"
	case BidMoon:
		return "moon " + string(b.Trump)
	}
	return strconv.Itoa(b.Amount) + " " + string(b.Trump)
}

// IsBetterBid reports whether candidate displaces incumbent. A moon beats
// every non-moon bid; between two moons the first one stands.
func IsBetterBid(candidate Bid, incumbent *Bid) bool {
	if incumbent == nil {
		return true
	}
	if incumbent.IsMoon() {
		return false
	}
	if candidate.IsMoon() {
		return true
	}
	if candidate.Amount != incumbent.Amount {
		return candidate.Amount > incumbent.Amount
	}
	return TrumpRank(candidate.Trump) > TrumpRank(incumbent.Trump)
}

// BestBid returns the winning non-pass bid among the recorded slots, or
// nil if every recorded slot is a pass. Slots are scanned in seat order.
func BestBid(bids [NumSeats]*Bid) *Bid {
	var best *Bid
	for _, b := range bids {
		if b == nil || b.IsPass() {
			continue
		}
		if IsBetterBid(*b, best) {
			best = b
		}
	}
	return best
}

func countBids(bids [NumSeats]*Bid) (recorded, passes int) {
	for _, b := range bids {
		if b == nil {
			continue
		}
		recorded++
		if b.IsPass() {
			passes++
		}
	}
	return recorded, passes
}
