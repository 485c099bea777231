package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benhageman/bid-euchre/internal/engine"
	"github.com/benhageman/bid-euchre/internal/hub"
	"github.com/benhageman/bid-euchre/internal/room"
	"github.com/benhageman/bid-euchre/internal/types"
	wire "github.com/benhageman/bid-euchre/pkg/types"
)

var errUnknownType = errors.New("unknown message type")

type Options struct {
	OutboxSize     int
	Logger         *zap.Logger
	OriginPatterns []string
}

const writeTimeout = 3 * time.Second

// joinAttempts bounds the retries when a room closes between lookup and
// join.
const joinAttempts = 3

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = 16
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("room")))
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if code == "" || name == "" {
			http.Error(w, "missing room or name", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		ctx := r.Context()
		clientID := uuid.NewString()
		log := opts.Logger.With(zap.String("room", code), zap.String("client", clientID))
		out := make(chan room.Notice, opts.OutboxSize)

		rm, res, err := join(ctx, h, code, room.Join{ClientID: clientID, Name: name, Outbox: out})
		if err != nil {
			log.Info("join failed", zap.Error(err))
			_ = writeJSON(ctx, conn, types.Error(0, err.Error()))
			conn.Close(websocket.StatusPolicyViolation, err.Error())
			return
		}
		log = log.With(zap.Int("seat", res.Seat))
		log.Info("client connected", zap.String("name", name))
		defer func() {
			select {
			case rm.Inbox() <- room.Leave{ClientID: clientID}:
			case <-rm.Done():
			}
			log.Info("client disconnected")
		}()

		var version atomic.Int64

		// Writer goroutine
		go func() {
			for n := range out {
				version.Store(int64(n.Version))
				if err := writeJSON(ctx, conn, types.FromNotice(n)); err != nil {
					log.Debug("write failed", zap.Error(err))
				}
			}
			// The room closed our outbox: it dropped us or shut down.
			conn.Close(websocket.StatusGoingAway, "room closed")
		}()

		// Reader loop. Card players sit idle for long stretches, so there
		// is no read deadline beyond the request context.
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read failed", zap.Error(err))
				}
				return
			}

			var cm wire.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = writeJSON(ctx, conn, types.Error(int(version.Load()), "bad json"))
				continue
			}

			msg, err := toRoomMsg(clientID, cm)
			if err != nil {
				_ = writeJSON(ctx, conn, types.Error(int(version.Load()), err.Error()))
				continue
			}

			select {
			case rm.Inbox() <- msg:
			case <-rm.Done():
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// join seats the client in the room for code, creating the room if needed.
func join(ctx context.Context, h *hub.Hub, code string, msg room.Join) (*room.Room, room.JoinResult, error) {
	for attempt := 0; attempt < joinAttempts; attempt++ {
		rm := h.Ensure(ctx, code)
		if rm == nil {
			return nil, room.JoinResult{}, errors.New("server shutting down")
		}

		reply := make(chan room.JoinResult, 1)
		msg.Reply = reply
		select {
		case rm.Inbox() <- msg:
		case <-rm.Done():
			continue
		case <-ctx.Done():
			return nil, room.JoinResult{}, ctx.Err()
		}

		select {
		case res := <-reply:
			if res.Err != nil {
				return nil, res, res.Err
			}
			return rm, res, nil
		case <-rm.Done():
			continue
		case <-ctx.Done():
			return nil, room.JoinResult{}, ctx.Err()
		}
	}
	return nil, room.JoinResult{}, fmt.Errorf("room %s keeps closing", code)
}

func toRoomMsg(clientID string, m wire.ClientMessage) (room.Msg, error) {
	switch m.Type {
	case wire.ClientBid:
		b, err := toBid(m)
		if err != nil {
			return nil, err
		}
		return room.FromClient{ClientID: clientID, Cmd: engine.Command{Type: engine.CmdSubmitBid, Bid: b}}, nil

	case wire.ClientPlay:
		card, err := engine.ParseCard(m.Card)
		if err != nil {
			return nil, err
		}
		return room.FromClient{ClientID: clientID, Cmd: engine.Command{Type: engine.CmdPlayCard, Card: card}}, nil

	case wire.ClientStart:
		return room.FromClient{ClientID: clientID, Cmd: engine.Command{Type: engine.CmdStartRound}}, nil

	case wire.ClientPlayers:
		return room.ListPlayers{ClientID: clientID}, nil

	default:
		return nil, fmt.Errorf("%w: %q", errUnknownType, m.Type)
	}
}

func toBid(m wire.ClientMessage) (engine.Bid, error) {
	if m.Amount == nil {
		return engine.Bid{}, fmt.Errorf("%w: missing amount", engine.ErrInvalidBid)
	}
	if !m.Amount.Moon && m.Amount.Tricks == 0 {
		return engine.Pass(), nil
	}
	trump, err := engine.ParseTrumpMode(m.Trump)
	if err != nil {
		return engine.Bid{}, err
	}
	if m.Amount.Moon {
		return engine.MoonBid(trump), nil
	}
	return engine.NumericBid(m.Amount.Tricks, trump), nil
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}
