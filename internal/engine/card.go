package engine

import (
	"fmt"
	"strings"
)

type Suit string

const (
	Clubs    Suit = "C"
	Diamonds Suit = "D"
	Hearts   Suit = "H"
	Spades   Suit = "S"

	// SuitTrump is the effective suit of every card promoted to trump,
	// including the left bower.
	SuitTrump Suit = "TRUMP"
)

var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

// Rank is the rank index: Nine is 0, Ace is 5.
type Rank int

const (
	Nine Rank = iota
	Ten
	Jack
	Queen
	King
	Ace
)

var rankCodes = [...]string{"9", "10", "J", "Q", "K", "A"}

func (r Rank) String() string {
	if r < Nine || r > Ace {
		return "?"
	}
	return rankCodes[r]
}

// Card is an immutable playing card. Its text form is the wire code,
// rank followed by suit letter ("JS", "10H").
type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) String() string { return c.Rank.String() + string(c.Suit) }

func ParseCard(code string) (Card, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrUnknownCard, code)
	}
	suit := Suit(code[len(code)-1:])
	switch suit {
	case Clubs, Diamonds, Hearts, Spades:
	default:
		return Card{}, fmt.Errorf("%w: %q", ErrUnknownCard, code)
	}
	value := code[:len(code)-1]
	for i, rc := range rankCodes {
		if rc == value {
			return Card{Rank: Rank(i), Suit: suit}, nil
		}
	}
	return Card{}, fmt.Errorf("%w: %q", ErrUnknownCard, code)
}

func MustParseCard(code string) Card {
	c, err := ParseCard(code)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Card) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Card) UnmarshalText(b []byte) error {
	parsed, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// SameColor returns the other suit of the same colour.
func SameColor(s Suit) Suit {
	switch s {
	case Hearts:
		return Diamonds
	case Diamonds:
		return Hearts
	case Spades:
		return Clubs
	case Clubs:
		return Spades
	}
	return s
}

func IsRed(s Suit) bool { return s == Hearts || s == Diamonds }

func isRightBower(c Card, trump TrumpMode) bool {
	ts, ok := trump.Suit()
	return ok && c.Rank == Jack && c.Suit == ts
}

func isLeftBower(c Card, trump TrumpMode) bool {
	ts, ok := trump.Suit()
	return ok && c.Rank == Jack && c.Suit == SameColor(ts)
}

// EffectiveSuit is the suit a card counts as for following and ranking.
// The left bower is the only card whose effective suit differs from its
// printed suit apart from being folded into SuitTrump.
func EffectiveSuit(c Card, trump TrumpMode) Suit {
	ts, ok := trump.Suit()
	if !ok {
		return c.Suit
	}
	if c.Suit == ts || isLeftBower(c, trump) {
		return SuitTrump
	}
	return c.Suit
}

// Power orders cards within one trick. leadSuit is the effective suit of
// the led card; cards that neither match it nor are trump score 0.
func Power(c Card, leadSuit Suit, trump TrumpMode) int {
	switch {
	case isRightBower(c, trump):
		return 100
	case isLeftBower(c, trump):
		return 99
	case EffectiveSuit(c, trump) == SuitTrump:
		return 80 + int(c.Rank)
	}

	if c.Suit != leadSuit {
		return 0
	}
	switch trump {
	case TrumpHigh:
		return 50 + int(c.Rank)
	case TrumpLow:
		return 50 + int(Ace-c.Rank)
	default:
		return 10 + int(c.Rank)
	}
}
