package types

// RoomSnapshot is the public view of a room served over HTTP. Hands are
// never included.
type RoomSnapshot struct {
	Code        string       `json:"code"`
	Version     int          `json:"version"`
	Phase       string       `json:"phase"`
	Round       int          `json:"round"`
	Dealer      int          `json:"dealer"`
	CurrentSeat *int         `json:"currentSeat,omitempty"`
	Players     []PlayerInfo `json:"players"`
	Bids        []*Bid       `json:"bids,omitempty"`
	WinningBid  *Bid         `json:"winningBid,omitempty"`
	Trick       []Play       `json:"trick,omitempty"`
	Tricks      TeamScores   `json:"tricks"`
	Scores      TeamScores   `json:"scores"`
	HandSizes   []int        `json:"handSizes"`
}

// RoundList is the response of the round history endpoint, newest first.
type RoundList struct {
	Code   string        `json:"code"`
	Rounds []RoundResult `json:"rounds"`
}

type RoundResult struct {
	Round    int        `json:"round"`
	Dealer   int        `json:"dealer"`
	BidSeat  int        `json:"bidSeat"`
	Bid      string     `json:"bid"`
	Trump    string     `json:"trump"`
	Moon     bool       `json:"moon"`
	Tricks   TeamScores `json:"tricks"`
	Delta    TeamScores `json:"delta"`
	Totals   TeamScores `json:"totals"`
	PlayedAt string     `json:"playedAt"`
}
