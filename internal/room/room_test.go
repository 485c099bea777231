package room

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benhageman/bid-euchre/internal/engine"
	"github.com/benhageman/bid-euchre/internal/history"
)

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) Record(ctx context.Context, r history.Round) error {
	return m.Called(ctx, r).Error(0)
}

// helper: receive one notice with a timeout so tests never hang
func recvNotice(t *testing.T, ch <-chan Notice, within time.Duration) Notice {
	t.Helper()
	select {
	case n, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return n
	case <-time.After(within):
		t.Fatalf("timed out waiting for notice")
		return Notice{} // unreachable
	}
}

func recvNoNotice(t *testing.T, ch <-chan Notice, within time.Duration) {
	t.Helper()
	select {
	case n, ok := <-ch:
		if !ok {
			return
		}
		t.Fatalf("expected no notice within %v, but got: %+v", within, n)
	case <-time.After(within):
	}
}

// recvEvent skips notices until one carries an event of type want.
func recvEvent(t *testing.T, ch <-chan Notice, want engine.EventType) engine.Event {
	t.Helper()
	for {
		n := recvNotice(t, ch, 200*time.Millisecond)
		if n.Event != nil && n.Event.Type == want {
			return *n.Event
		}
	}
}

func drain(ch <-chan Notice) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func view(t *testing.T, r *Room) View {
	t.Helper()
	reply := make(chan View, 1)
	r.Inbox() <- GetState{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timed out waiting for view")
		return View{}
	}
}

func join(t *testing.T, r *Room, id string, outbox chan Notice) JoinResult {
	t.Helper()
	reply := make(chan JoinResult, 1)
	r.Inbox() <- Join{ClientID: id, Name: "name-" + id, Outbox: outbox, Reply: reply}
	select {
	case res := <-reply:
		return res
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timed out waiting for join")
		return JoinResult{}
	}
}

func newTestRoom(t *testing.T, opts Options) *Room {
	t.Helper()
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	if opts.Rules == (engine.Rules{}) {
		opts.Rules = engine.DefaultRules()
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, "ABCDE", opts)
}

// fill seats four clients and returns their outboxes by seat.
func fill(t *testing.T, r *Room, size int) [engine.NumSeats]chan Notice {
	t.Helper()
	var outs [engine.NumSeats]chan Notice
	for i := range outs {
		outs[i] = make(chan Notice, size)
		res := join(t, r, fmt.Sprintf("c%d", i), outs[i])
		require.NoError(t, res.Err)
		require.Equal(t, i, res.Seat)
	}
	return outs
}

func TestRoom_JoinAssignsLowestSeatAndBroadcastsRoster(t *testing.T) {
	r := newTestRoom(t, Options{})

	a := make(chan Notice, 8)
	b := make(chan Notice, 8)
	assert.Equal(t, 0, join(t, r, "a", a).Seat)
	first := recvNotice(t, a, 100*time.Millisecond)
	assert.Nil(t, first.Event)
	require.Len(t, first.Roster, 1)
	assert.Equal(t, Member{ClientID: "a", Name: "name-a", Seat: 0}, first.Roster[0])

	assert.Equal(t, 1, join(t, r, "b", b).Seat)
	assert.Len(t, recvNotice(t, a, 100*time.Millisecond).Roster, 2)
	assert.Len(t, recvNotice(t, b, 100*time.Millisecond).Roster, 2)

	// Rejoining with the same id keeps the seat.
	assert.Equal(t, 1, join(t, r, "b", b).Seat)

	r.Inbox() <- Leave{ClientID: "a"}
	after := recvNotice(t, b, 100*time.Millisecond)
	require.Len(t, after.Roster, 1)
	assert.Equal(t, 1, after.Roster[0].Seat)

	c := make(chan Notice, 8)
	assert.Equal(t, 0, join(t, r, "c", c).Seat, "freed seat is reused")
}

func TestRoom_JoinRejectsMissingName(t *testing.T) {
	r := newTestRoom(t, Options{})
	reply := make(chan JoinResult, 1)
	r.Inbox() <- Join{ClientID: "a", Outbox: make(chan Notice, 1), Reply: reply}
	res := <-reply
	assert.ErrorIs(t, res.Err, ErrMissingName)
	assert.Equal(t, engine.NoSeat, res.Seat)
}

func TestRoom_FourthJoinDealsAndFifthIsRejected(t *testing.T) {
	r := newTestRoom(t, Options{})
	outs := fill(t, r, 64)

	for seat, out := range outs {
		dealt := recvEvent(t, out, engine.EvtHandDealt)
		assert.Equal(t, seat, dealt.Seat, "each client sees only its own hand")
		assert.Len(t, dealt.Cards, engine.HandSize)
		turn := recvEvent(t, out, engine.EvtTurnToBid)
		assert.Equal(t, 1, turn.Seat)
	}

	res := join(t, r, "late", make(chan Notice, 1))
	assert.ErrorIs(t, res.Err, ErrRoomFull)

	v := view(t, r)
	assert.Equal(t, engine.PhaseBidding, v.State.Phase)
	assert.Equal(t, 1, v.State.Round)
	assert.Equal(t, 4, v.NumClients)
}

func TestRoom_IllegalActionGoesOnlyToActor(t *testing.T) {
	r := newTestRoom(t, Options{})
	outs := fill(t, r, 64)
	before := view(t, r)
	for _, out := range outs {
		drain(out)
	}

	// Seat 1 bids first; seat 0 is out of turn.
	r.Inbox() <- FromClient{ClientID: "c0", Cmd: engine.Command{
		Type: engine.CmdSubmitBid,
		Bid:  engine.NumericBid(3, engine.TrumpHearts),
	}}

	n := recvNotice(t, outs[0], 200*time.Millisecond)
	require.NotNil(t, n.Event)
	assert.Equal(t, engine.EvtIllegalAction, n.Event.Type)
	assert.Equal(t, "not_your_turn", n.Event.Reason)
	assert.Equal(t, before.Version, n.Version)

	for _, out := range outs[1:] {
		recvNoNotice(t, out, 50*time.Millisecond)
	}
	after := view(t, r)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.State.Bids, after.State.Bids)
}

func TestRoom_SeatComesFromConnection(t *testing.T) {
	r := newTestRoom(t, Options{})
	outs := fill(t, r, 64)
	for _, out := range outs {
		drain(out)
	}

	// The claimed seat is ignored; c1 holds seat 1, which is on turn.
	r.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{
		Type: engine.CmdSubmitBid,
		Seat: 3,
		Bid:  engine.NumericBid(2, engine.TrumpSpades),
	}}
	ev := recvEvent(t, outs[2], engine.EvtBidRecorded)
	assert.Equal(t, 1, ev.Seat)
	require.NotNil(t, ev.Bids[1])
	assert.Equal(t, "2 spades", ev.Bids[1].String())
}

func TestRoom_PlaysRoundRecordsHistoryAndRedeals(t *testing.T) {
	rec := &mockRecorder{}
	recorded := make(chan history.Round, 1)
	rec.On("Record", mock.Anything, mock.AnythingOfType("history.Round")).
		Run(func(args mock.Arguments) { recorded <- args.Get(1).(history.Round) }).
		Return(nil).Once()

	r := newTestRoom(t, Options{Recorder: rec})
	outs := fill(t, r, 1024)

	v := view(t, r)
	require.Equal(t, engine.PhaseBidding, v.State.Phase)
	ids := [engine.NumSeats]string{"c0", "c1", "c2", "c3"}

	// Seat 1 takes it for one in hearts; everyone else passes.
	for v.State.Phase == engine.PhaseBidding {
		seat := v.State.CurrentSeat
		b := engine.Pass()
		if seat == 1 {
			b = engine.NumericBid(1, engine.TrumpHearts)
		}
		r.Inbox() <- FromClient{ClientID: ids[seat], Cmd: engine.Command{Type: engine.CmdSubmitBid, Bid: b}}
		v = view(t, r)
	}
	require.Equal(t, engine.PhasePlaying, v.State.Phase)

	for v.State.Round == 1 {
		s := v.State
		legal := engine.LegalCards(s.Hands[s.CurrentSeat], s.Trick, s.Trump)
		require.NotEmpty(t, legal)
		r.Inbox() <- FromClient{ClientID: ids[s.CurrentSeat], Cmd: engine.Command{Type: engine.CmdPlayCard, Card: legal[0]}}
		v = view(t, r)
	}

	scored := recvEvent(t, outs[0], engine.EvtRoundScored)
	assert.Equal(t, 1, scored.Seat)
	assert.Equal(t, engine.TricksPerRound, scored.Tricks.Total())

	select {
	case round := <-recorded:
		assert.Equal(t, "ABCDE", round.Room)
		assert.Equal(t, 1, round.Number)
		assert.Equal(t, 0, round.Dealer)
		assert.Equal(t, 1, round.BidSeat)
		assert.Equal(t, "1 hearts", round.Bid)
		assert.Equal(t, [2]int(scored.Totals), round.Totals)
	case <-time.After(time.Second):
		t.Fatalf("round was not recorded")
	}
	rec.AssertExpectations(t)

	// The next deal follows without any client action.
	assert.Equal(t, 2, v.State.Round)
	assert.Equal(t, engine.PhaseBidding, v.State.Phase)
	assert.Equal(t, 1, v.State.Dealer)
	assert.Equal(t, 2, v.State.CurrentSeat)
	assert.Equal(t, scored.Totals, v.State.Scores)
}

func TestRoom_LeaveAbortsRoundAndKeepsScores(t *testing.T) {
	r := newTestRoom(t, Options{})
	outs := fill(t, r, 64)
	for _, out := range outs {
		drain(out)
	}

	r.Inbox() <- Leave{ClientID: "c2"}
	aborted := recvEvent(t, outs[0], engine.EvtRoundAborted)
	assert.Equal(t, 2, aborted.Seat)
	roster := recvNotice(t, outs[0], 100*time.Millisecond)
	assert.Len(t, roster.Roster, 3)

	v := view(t, r)
	assert.Equal(t, engine.PhaseWaiting, v.State.Phase)
	assert.Equal(t, 3, v.NumClients)

	// A new player takes the empty seat and dealing resumes.
	back := make(chan Notice, 64)
	assert.Equal(t, 2, join(t, r, "c9", back).Seat)
	dealt := recvEvent(t, back, engine.EvtHandDealt)
	assert.Equal(t, 2, dealt.Seat)
	assert.Equal(t, 2, view(t, r).State.Round)
}

func TestRoom_StartCommandRejectedWhileRoundRuns(t *testing.T) {
	r := newTestRoom(t, Options{})
	outs := fill(t, r, 64)
	drain(outs[3])

	r.Inbox() <- FromClient{ClientID: "c3", Cmd: engine.Command{Type: engine.CmdStartRound}}
	n := recvNotice(t, outs[3], 200*time.Millisecond)
	require.NotNil(t, n.Event)
	assert.Equal(t, "wrong_phase", n.Event.Reason)
}

func TestRoom_ListPlayersRepliesToRequester(t *testing.T) {
	r := newTestRoom(t, Options{})
	a := make(chan Notice, 8)
	b := make(chan Notice, 8)
	join(t, r, "a", a)
	join(t, r, "b", b)
	drain(a)
	drain(b)

	r.Inbox() <- ListPlayers{ClientID: "b"}
	n := recvNotice(t, b, 100*time.Millisecond)
	assert.Len(t, n.Roster, 2)
	recvNoNotice(t, a, 50*time.Millisecond)
}

func TestRoom_DropSlowClient(t *testing.T) {
	r := newTestRoom(t, Options{})

	slow := make(chan Notice, 1)
	join(t, r, "slow", slow)
	fast := make(chan Notice, 8)
	join(t, r, "fast", fast) // second roster notice overflows slow

	v := view(t, r)
	assert.Equal(t, 1, v.NumClients)
	require.Len(t, v.Roster, 1)
	assert.Equal(t, "fast", v.Roster[0].ClientID)
}

func TestRoom_LastLeaveClosesRoom(t *testing.T) {
	emptied := make(chan string, 1)
	r := newTestRoom(t, Options{OnEmpty: func(code string, _ *Room) { emptied <- code }})

	out := make(chan Notice, 8)
	join(t, r, "a", out)
	r.Inbox() <- Leave{ClientID: "a"}

	select {
	case code := <-emptied:
		assert.Equal(t, "ABCDE", code)
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("OnEmpty not called")
	}
	select {
	case <-r.Done():
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("room did not stop")
	}
}

func TestRoom_Shutdown_ClosesOutboxes(t *testing.T) {
	r := newTestRoom(t, Options{})
	out := make(chan Notice, 8)
	join(t, r, "a", out)
	drain(out)

	r.Inbox() <- Shutdown{}
	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("outbox not closed")
	}
}

func TestRoom_UnjoinedRoomIdlesOut(t *testing.T) {
	emptied := make(chan string, 1)
	r := newTestRoom(t, Options{
		IdleTimeout: 20 * time.Millisecond,
		OnEmpty:     func(code string, _ *Room) { emptied <- code },
	})

	// A rejected join does not keep the room alive.
	reply := make(chan JoinResult, 1)
	r.Inbox() <- Join{ClientID: "a", Outbox: make(chan Notice, 1), Reply: reply}
	require.ErrorIs(t, (<-reply).Err, ErrMissingName)

	select {
	case code := <-emptied:
		assert.Equal(t, "ABCDE", code)
	case <-time.After(time.Second):
		t.Fatalf("idle room not closed")
	}
	select {
	case <-r.Done():
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("room did not stop")
	}
}

func TestRoom_JoinedRoomIgnoresIdleTimeout(t *testing.T) {
	r := newTestRoom(t, Options{IdleTimeout: 50 * time.Millisecond})
	out := make(chan Notice, 8)
	join(t, r, "a", out)

	select {
	case <-r.Done():
		t.Fatalf("room with a member closed on idle")
	case <-time.After(150 * time.Millisecond):
	}
	assert.Equal(t, 1, view(t, r).NumClients)
}
