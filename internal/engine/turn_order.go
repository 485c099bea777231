package engine

// NoSeat marks an unset seat (no moon bidder, no current turn).
const NoSeat = -1

type Team int

const (
	TeamA Team = 0 // even seats
	TeamB Team = 1 // odd seats
)

func TeamOf(seat int) Team { return Team(seat % 2) }

func (t Team) Other() Team { return 1 - t }

func Partner(seat int) int { return (seat + 2) % NumSeats }

// SkippedSeat is the seat that sits out a moon round, or NoSeat.
func SkippedSeat(moonBidder int) int {
	if moonBidder == NoSeat {
		return NoSeat
	}
	return Partner(moonBidder)
}

// NextSeat advances clockwise from seat and never lands on skipped.
func NextSeat(seat, skipped int) int {
	next := (seat + 1) % NumSeats
	for next == skipped {
		next = (next + 1) % NumSeats
	}
	return next
}

// ExpectedPlays is the number of cards in a complete trick.
func ExpectedPlays(moonBidder int) int {
	if moonBidder != NoSeat {
		return NumSeats - 1
	}
	return NumSeats
}
