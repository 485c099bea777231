package room

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/benhageman/bid-euchre/internal/engine"
	"github.com/benhageman/bid-euchre/internal/history"
)

var ErrRoomFull = errors.New("room is full")
var ErrMissingName = errors.New("player name required")

type Msg interface{ isRoomMsg() }

type Join struct {
	ClientID string
	Name     string
	Outbox   chan Notice // where this client receives notices
	Reply    chan JoinResult
}

func (Join) isRoomMsg() {}

type JoinResult struct {
	Seat int
	Err  error
}

type Leave struct{ ClientID string }

func (Leave) isRoomMsg() {}

// FromClient carries a game command. The room fills in the seat, and for
// StartRound the players and a freshly shuffled deck.
type FromClient struct {
	ClientID string
	Cmd      engine.Command
}

func (FromClient) isRoomMsg() {}

// ListPlayers asks for the roster to be sent to one client.
type ListPlayers struct{ ClientID string }

func (ListPlayers) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type Member struct {
	ClientID string
	Name     string
	Seat     int
}

// Notice is what a client receives: either an engine event or, when Event
// is nil, the current roster.
type Notice struct {
	Version int
	Event   *engine.Event
	Roster  []Member
}

type View struct {
	Code       string
	Version    int
	NumClients int
	State      engine.State
	Roster     []Member
}

type Options struct {
	Rules          engine.Rules
	Rand           *rand.Rand
	Recorder       history.Recorder
	HistoryTimeout time.Duration
	// IdleTimeout closes a room that nobody has joined within it.
	IdleTimeout time.Duration
	Logger      *zap.Logger
	// OnEmpty runs on the room goroutine after the last client leaves, or
	// when the room idles out, just before the room stops.
	OnEmpty func(code string, r *Room)
	Now     func() time.Time
}

type client struct {
	id      string
	name    string
	seat    int
	outbox  chan Notice
	dropped bool
}

type Room struct {
	code     string
	inbox    chan Msg
	state    engine.State
	version  int
	clients  map[string]*client
	seats    [engine.NumSeats]string
	dropped  []string
	rng      *rand.Rand
	recorder history.Recorder
	timeout  time.Duration
	idle     *time.Timer
	log      *zap.Logger
	onEmpty  func(string, *Room)
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, code string, opts Options) *Room {
	ctx, cancel := context.WithCancel(parent)

	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Recorder == nil {
		opts.Recorder = history.Nop{}
	}
	if opts.HistoryTimeout <= 0 {
		opts.HistoryTimeout = 3 * time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := &Room{
		code:     code,
		inbox:    make(chan Msg, 64),
		state:    engine.NewEmptyState(opts.Rules),
		clients:  make(map[string]*client),
		rng:      opts.Rand,
		recorder: opts.Recorder,
		timeout:  opts.HistoryTimeout,
		idle:     time.NewTimer(opts.IdleTimeout),
		log:      opts.Logger.With(zap.String("room", code)),
		onEmpty:  opts.OnEmpty,
		now:      opts.Now,
		ctx:      ctx,
		cancel:   cancel,
	}

	go r.loop()
	return r
}

func (r *Room) Code() string { return r.code }

// Inbox exposes the room's command queue to the transport and to tests.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Done is closed once the room has stopped accepting messages.
func (r *Room) Done() <-chan struct{} { return r.ctx.Done() }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case <-r.idle.C:
			if len(r.clients) == 0 {
				r.log.Info("room idle, closing")
				r.close()
				return
			}

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.join(msg)

			case Leave:
				r.leave(msg.ClientID)

			case FromClient:
				if c := r.clients[msg.ClientID]; c != nil {
					r.command(c, msg.Cmd)
				}

			case ListPlayers:
				if c := r.clients[msg.ClientID]; c != nil {
					r.send(c, Notice{Version: r.version, Roster: r.roster()})
				}

			case GetState:
				msg.Reply <- View{
					Code:       r.code,
					Version:    r.version,
					NumClients: len(r.clients),
					State:      r.state,
					Roster:     r.roster(),
				}

			case Shutdown:
				r.shutdown()
				return
			}

			r.flushDropped()
			if len(r.clients) == 0 && r.version > 0 {
				r.log.Info("room empty, closing")
				r.close()
				return
			}
		}
	}
}

func (r *Room) join(msg Join) {
	reply := func(res JoinResult) {
		if msg.Reply != nil {
			msg.Reply <- res
		}
	}

	if c := r.clients[msg.ClientID]; c != nil {
		reply(JoinResult{Seat: c.seat})
		return
	}
	if msg.Name == "" {
		reply(JoinResult{Seat: engine.NoSeat, Err: ErrMissingName})
		return
	}
	seat, ok := lowestFreeSeat(r.seats)
	if !ok {
		reply(JoinResult{Seat: engine.NoSeat, Err: ErrRoomFull})
		return
	}

	c := &client{id: msg.ClientID, name: msg.Name, seat: seat, outbox: msg.Outbox}
	r.clients[c.id] = c
	r.seats[seat] = c.id
	r.idle.Stop()
	reply(JoinResult{Seat: seat})
	r.log.Info("player joined", zap.String("client", c.id), zap.String("name", c.name), zap.Int("seat", seat))

	r.version++
	r.broadcast(Notice{Version: r.version, Roster: r.roster()})

	if r.state.Phase == engine.PhaseWaiting && r.full() {
		r.deal()
	}
}

func (r *Room) leave(id string) {
	c := r.clients[id]
	if c == nil {
		return
	}
	delete(r.clients, id)
	if !c.dropped {
		close(c.outbox)
	}
	r.seats[c.seat] = ""
	r.log.Info("player left", zap.String("client", id), zap.Int("seat", c.seat))

	// Seats are only recorded in the engine once a round has been dealt.
	if r.state.Players[c.seat].ID == c.id {
		r.apply(engine.Command{Type: engine.CmdSeatVacated, Seat: c.seat}, nil)
	}
	r.version++
	r.broadcast(Notice{Version: r.version, Roster: r.roster()})
}

func (r *Room) command(c *client, cmd engine.Command) {
	cmd.Seat = c.seat
	if cmd.Type == engine.CmdStartRound {
		cmd.Players = r.players()
		cmd.Deck = engine.ShuffledDeck(r.rng)
	}
	r.apply(cmd, c)
}

// apply runs cmd through the engine. Rejections go back to from alone and
// leave the state untouched.
func (r *Room) apply(cmd engine.Command, from *client) {
	prev := r.state
	events, next, err := engine.Apply(r.state, cmd)
	if err != nil {
		r.log.Debug("command rejected",
			zap.String("cmd", string(cmd.Type)),
			zap.Int("seat", cmd.Seat),
			zap.Error(err))
		if from != nil {
			r.send(from, Notice{Version: r.version, Event: &engine.Event{
				Type:       engine.EvtIllegalAction,
				Seat:       from.seat,
				Reason:     engine.ReasonCode(err),
				Recipients: []int{from.seat},
			}})
		}
		return
	}

	r.state = next
	r.version++
	r.dispatch(events)

	for _, ev := range events {
		if ev.Type == engine.EvtRoundScored {
			r.log.Info("round scored",
				zap.Int("round", prev.Round),
				zap.String("bid", ev.Bid.String()),
				zap.Ints("delta", ev.Delta[:]),
				zap.Ints("totals", ev.Totals[:]))
			r.record(history.FromEvent(r.code, prev.Round, prev.Dealer, ev, r.now()))
		}
	}

	if r.state.Phase == engine.PhaseScoring {
		r.deal()
	}
}

// deal starts the next round with a new shuffle.
func (r *Room) deal() {
	r.apply(engine.Command{
		Type:    engine.CmdStartRound,
		Players: r.players(),
		Deck:    engine.ShuffledDeck(r.rng),
	}, nil)
}

// record hands the round to the history sinks off the room goroutine.
func (r *Room) record(round history.Round) {
	rec, timeout, log := r.recorder, r.timeout, r.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := rec.Record(ctx, round); err != nil {
			log.Warn("record round", zap.Int("round", round.Number), zap.Error(err))
		}
	}()
}

func (r *Room) dispatch(events []engine.Event) {
	for i := range events {
		ev := events[i]
		n := Notice{Version: r.version, Event: &ev}
		if ev.Recipients == nil {
			r.broadcast(n)
			continue
		}
		for _, seat := range ev.Recipients {
			if c := r.clients[r.seats[seat]]; c != nil {
				r.send(c, n)
			}
		}
	}
}

func (r *Room) broadcast(n Notice) {
	for _, c := range r.clients {
		r.send(c, n)
	}
}

func (r *Room) send(c *client, n Notice) {
	if c.dropped {
		return
	}
	select {
	case c.outbox <- n:
		// ok
	default:
		// Client is slow/full - drop them once this message is handled.
		close(c.outbox)
		c.dropped = true
		r.dropped = append(r.dropped, c.id)
	}
}

func (r *Room) flushDropped() {
	for len(r.dropped) > 0 {
		id := r.dropped[0]
		r.dropped = r.dropped[1:]
		r.log.Warn("dropping slow client", zap.String("client", id))
		r.leave(id)
	}
}

// close reports the room empty and stops it.
func (r *Room) close() {
	if r.onEmpty != nil {
		r.onEmpty(r.code, r)
	}
	r.shutdown()
}

func (r *Room) shutdown() {
	r.idle.Stop()
	for id, c := range r.clients {
		if !c.dropped {
			close(c.outbox) // Tell client no more notices
		}
		delete(r.clients, id)
	}
	r.cancel()
}

func (r *Room) full() bool {
	_, free := lowestFreeSeat(r.seats)
	return !free
}

func (r *Room) players() [engine.NumSeats]engine.Player {
	var ps [engine.NumSeats]engine.Player
	for seat, id := range r.seats {
		if c := r.clients[id]; c != nil {
			ps[seat] = engine.Player{ID: c.id, Name: c.name}
		}
	}
	return ps
}

func (r *Room) roster() []Member {
	out := make([]Member, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, Member{ClientID: c.id, Name: c.name, Seat: c.seat})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seat < out[j].Seat })
	return out
}

// lowestFreeSeat returns the lowest empty seat index.
func lowestFreeSeat(seats [engine.NumSeats]string) (int, bool) {
	for i, id := range seats {
		if id == "" {
			return i, true
		}
	}
	return engine.NoSeat, false
}
