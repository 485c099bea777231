package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher fans scored rounds out on NATS for other services.
type Publisher struct {
	nc *nats.Conn
}

func ConnectNATS(url string) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("bid-euchre"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2 * time.Second),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats: connect %s: %w", url, err)
	}
	return &Publisher{nc: nc}, nil
}

// Subject is where rounds of room are published.
func Subject(room string) string {
	return fmt.Sprintf("euchre.rooms.%s.rounds", room)
}

func (p *Publisher) Record(_ context.Context, r Round) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("nats: encode round: %w", err)
	}
	if err := p.nc.Publish(Subject(r.Room), data); err != nil {
		return fmt.Errorf("nats: publish %s: %w", Subject(r.Room), err)
	}
	return nil
}

func (p *Publisher) Close() error { return p.nc.Drain() }
