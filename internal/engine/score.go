package engine

// TeamScores is indexed by Team.
type TeamScores [2]int

func (s TeamScores) Add(o TeamScores) TeamScores {
	return TeamScores{s[TeamA] + o[TeamA], s[TeamB] + o[TeamB]}
}

func (s TeamScores) Total() int { return s[TeamA] + s[TeamB] }

// ScoreRound applies the scoring table to a finished round. The bidding
// team is the team of the winning bid's seat.
//
//	moon, 6 tricks        bidders +4
//	moon, fewer           opponents +2
//	6 tricks              bidders +2
//	amount..5 tricks      bidders +1
//	fewer than amount     opponents +2
func ScoreRound(winning Bid, tricks TeamScores) TeamScores {
	var delta TeamScores
	bidders := TeamOf(winning.Seat)
	won := tricks[bidders]

	switch {
	case winning.IsMoon() && won == TricksPerRound:
		delta[bidders] = 4
	case winning.IsMoon():
		delta[bidders.Other()] = 2
	case won == TricksPerRound:
		delta[bidders] = 2
	case won >= winning.Amount:
		delta[bidders] = 1
	default:
		delta[bidders.Other()] = 2
	}
	return delta
}
