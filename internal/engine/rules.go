package engine

// Play is one card in a trick.
type Play struct {
	Seat int
	Card Card
}

// LeadSuit is the effective suit of the first card in the trick.
func LeadSuit(trick []Play, trump TrumpMode) (Suit, bool) {
	if len(trick) == 0 {
		return "", false
	}
	return EffectiveSuit(trick[0].Card, trump), true
}

// CanPlay checks follow-suit. The card must already be known to be in the
// hand. A player who cannot follow may play anything, trump included.
func CanPlay(hand []Card, trick []Play, card Card, trump TrumpMode) error {
	required, ok := LeadSuit(trick, trump)
	if !ok {
		return nil
	}
	if EffectiveSuit(card, trump) == required {
		return nil
	}
	for _, c := range hand {
		if EffectiveSuit(c, trump) == required {
			return ErrMustFollowSuit
		}
	}
	return nil
}

// LegalCards lists the cards in hand that may be played to trick.
func LegalCards(hand []Card, trick []Play, trump TrumpMode) []Card {
	legal := make([]Card, 0, len(hand))
	for _, c := range hand {
		if CanPlay(hand, trick, c, trump) == nil {
			legal = append(legal, c)
		}
	}
	return legal
}

// TrickWinner returns the seat holding the highest power card; on equal
// power the earlier play wins.
func TrickWinner(trick []Play, trump TrumpMode) int {
	lead, ok := LeadSuit(trick, trump)
	if !ok {
		return NoSeat
	}
	winner := trick[0]
	best := Power(winner.Card, lead, trump)
	for _, p := range trick[1:] {
		if pw := Power(p.Card, lead, trump); pw > best {
			winner, best = p, pw
		}
	}
	return winner.Seat
}
