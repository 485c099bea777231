package engine

import (
	"math/rand"
	"sort"
)

const (
	NumSeats       = 4
	HandSize       = 6
	TricksPerRound = 6
	DeckSize       = NumSeats * HandSize
)

// NewDeck returns the 24-card deck, nine through ace in every suit.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for r := Nine; r <= Ace; r++ {
		for _, s := range Suits {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// ShuffledDeck returns a new deck shuffled with rng.
func ShuffledDeck(rng *rand.Rand) []Card {
	deck := NewDeck()
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// Deal hands out consecutive runs of six cards in seat order. Each hand
// is sorted for display.
func Deal(deck []Card) [NumSeats][]Card {
	var hands [NumSeats][]Card
	for seat := range hands {
		hand := append([]Card(nil), deck[seat*HandSize:(seat+1)*HandSize]...)
		SortHand(hand)
		hands[seat] = hand
	}
	return hands
}

func validDeck(deck []Card) bool {
	if len(deck) != DeckSize {
		return false
	}
	seen := make(map[Card]bool, DeckSize)
	for _, c := range deck {
		if c.Rank < Nine || c.Rank > Ace || seen[c] {
			return false
		}
		switch c.Suit {
		case Clubs, Diamonds, Hearts, Spades:
		default:
			return false
		}
		seen[c] = true
	}
	return true
}

// SortHand orders a hand for display: suits alternate red and black
// (hearts, spades, diamonds, clubs among the suits present) and ranks run
// high to low within a suit. It has no effect on legality.
func SortHand(hand []Card) {
	present := map[Suit]bool{}
	for _, c := range hand {
		present[c.Suit] = true
	}
	var red, black []Suit
	for _, s := range []Suit{Hearts, Diamonds, Spades, Clubs} {
		if !present[s] {
			continue
		}
		if IsRed(s) {
			red = append(red, s)
		} else {
			black = append(black, s)
		}
	}
	order := map[Suit]int{}
	for len(red) > 0 || len(black) > 0 {
		if len(red) > 0 {
			order[red[0]] = len(order)
			red = red[1:]
		}
		if len(black) > 0 {
			order[black[0]] = len(order)
			black = black[1:]
		}
	}
	sort.SliceStable(hand, func(i, j int) bool {
		if hand[i].Suit != hand[j].Suit {
			return order[hand[i].Suit] < order[hand[j].Suit]
		}
		return hand[i].Rank > hand[j].Rank
	})
}

func removeCard(hand []Card, card Card) []Card {
	out := make([]Card, 0, len(hand))
	for _, c := range hand {
		if c != card {
			out = append(out, c)
		}
	}
	return out
}

func containsCard(hand []Card, card Card) bool {
	for _, c := range hand {
		if c == card {
			return true
		}
	}
	return false
}
