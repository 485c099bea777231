package engine

func NewEmptyState(rules Rules) State {
	s := State{
		Phase:       PhaseWaiting,
		Dealer:      0,
		CurrentSeat: NoSeat,
		MoonBidder:  NoSeat,
		Rules:       rules,
	}
	return s
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func FindEvents(events []Event, eventType EventType) []Event {
	var out []Event
	for _, event := range events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

// clone copies the slices a command may mutate. Recorded bids are
// immutable and stay shared.
func (s State) clone() State {
	c := s
	for i, h := range s.Hands {
		c.Hands[i] = append([]Card(nil), h...)
	}
	c.Trick = append([]Play(nil), s.Trick...)
	return c
}

func (s *State) resetRound() {
	s.Bids = [NumSeats]*Bid{}
	s.WinningBid = nil
	s.Trump = TrumpNone
	s.MoonBidder = NoSeat
	s.Trick = nil
	s.TricksWon = TeamScores{}
	s.CurrentSeat = NoSeat
}

// Seated reports whether every seat has a player.
func (s State) Seated() bool {
	for _, p := range s.Players {
		if p.ID == "" {
			return false
		}
	}
	return true
}
