package hub

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/benhageman/bid-euchre/internal/engine"
	"github.com/benhageman/bid-euchre/internal/history"
	"github.com/benhageman/bid-euchre/internal/room"
)

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Code  string
	Reply chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type EnsureRoom struct {
	Code  string
	Reply chan *room.Room
}

// RemoveRoom forgets Code only while it still maps to Room, so a stale
// removal cannot drop a room created under the same code afterwards.
type RemoveRoom struct {
	Code string
	Room *room.Room
}

type CountRooms struct {
	Reply chan int
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (CountRooms) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Options struct {
	Rules          engine.Rules
	Recorder       history.Recorder
	Forgetter      history.Forgetter
	HistoryTimeout time.Duration
	// RoomIdleTimeout reclaims rooms that nobody joins.
	RoomIdleTimeout time.Duration
	Logger          *zap.Logger
	// NewRand seeds each room's shuffler. Defaults to the clock.
	NewRand func() *rand.Rand
}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	opts   Options
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewRand == nil {
		opts.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		opts:   opts,
		log:    opts.Logger,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

// Get returns the live room for code, or nil.
func (h *Hub) Get(ctx context.Context, code string) *room.Room {
	return h.ask(ctx, func(reply chan *room.Room) HubMsg { return GetRoom{Code: code, Reply: reply} })
}

// Ensure returns the room for code, creating it if needed. It is nil only
// when ctx ends or the hub has stopped.
func (h *Hub) Ensure(ctx context.Context, code string) *room.Room {
	return h.ask(ctx, func(reply chan *room.Room) HubMsg { return EnsureRoom{Code: code, Reply: reply} })
}

func (h *Hub) Create(ctx context.Context, code string) *room.Room {
	return h.ask(ctx, func(reply chan *room.Room) HubMsg { return CreateRoom{Code: code, Reply: reply} })
}

func (h *Hub) Count(ctx context.Context) int {
	reply := make(chan int, 1)
	select {
	case h.inbox <- CountRooms{Reply: reply}:
	case <-ctx.Done():
		return 0
	case <-h.ctx.Done():
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-ctx.Done():
		return 0
	case <-h.ctx.Done():
		return 0
	}
}

func (h *Hub) ask(ctx context.Context, msg func(chan *room.Room) HubMsg) *room.Room {
	reply := make(chan *room.Room, 1)
	select {
	case h.inbox <- msg(reply):
	case <-ctx.Done():
		return nil
	case <-h.ctx.Done():
		return nil
	}
	select {
	case rm := <-reply:
		return rm
	case <-ctx.Done():
		return nil
	case <-h.ctx.Done():
		return nil
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				msg.Reply <- h.ensure(msg.Code)

			case GetRoom:
				msg.Reply <- h.live(msg.Code) // May be nil

			case EnsureRoom:
				msg.Reply <- h.ensure(msg.Code)

			case RemoveRoom:
				if h.rooms[msg.Code] == msg.Room {
					h.drop(msg.Code)
				}

			case CountRooms:
				msg.Reply <- len(h.rooms)

			case ShutdownHub:
				h.shutdown()
				h.cancel()
				return
			}
		}
	}
}

// live returns the room for code unless it has already stopped.
func (h *Hub) live(code string) *room.Room {
	rm := h.rooms[code]
	if rm == nil {
		return nil
	}
	select {
	case <-rm.Done():
		h.drop(code)
		return nil
	default:
		return rm
	}
}

func (h *Hub) drop(code string) {
	delete(h.rooms, code)
	if h.opts.Forgetter != nil {
		h.opts.Forgetter.Forget(code)
	}
	h.log.Info("room removed", zap.String("room", code))
}

func (h *Hub) ensure(code string) *room.Room {
	if rm := h.live(code); rm != nil {
		return rm
	}
	rm := room.New(h.ctx, code, room.Options{
		Rules:          h.opts.Rules,
		Rand:           h.opts.NewRand(),
		Recorder:       h.opts.Recorder,
		HistoryTimeout: h.opts.HistoryTimeout,
		IdleTimeout:    h.opts.RoomIdleTimeout,
		Logger:         h.log,
		OnEmpty:        h.removeLater,
	})
	h.rooms[code] = rm
	h.log.Info("room created", zap.String("room", code))
	return rm
}

// removeLater runs on a room goroutine; it must not wait on the hub.
func (h *Hub) removeLater(code string, rm *room.Room) {
	select {
	case h.inbox <- RemoveRoom{Code: code, Room: rm}:
	case <-h.ctx.Done():
	default:
		h.log.Warn("hub inbox full, room left for lazy cleanup", zap.String("room", code))
	}
}

func (h *Hub) shutdown() {
	for code, rm := range h.rooms {
		select {
		case rm.Inbox() <- room.Shutdown{}:
		case <-rm.Done():
		}
		delete(h.rooms, code)
	}
}
