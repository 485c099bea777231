package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type Options struct {
	DatabaseURL   string
	NATSURL       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
	Limit         int
	TTL           time.Duration
}

// Sinks is the wired set of stores: every configured backend records, and
// the most shareable one serves reads (redis, then postgres, then memory).
type Sinks struct {
	Recorder Recorder
	Reader   Reader
	closers  []io.Closer
}

func Open(ctx context.Context, opts Options, log *zap.Logger) (*Sinks, error) {
	s := &Sinks{}
	var recorders Fanout

	if opts.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis: ping %s: %w", opts.RedisAddr, err)
		}
		store := NewRedis(client, opts.KeyPrefix, opts.Limit, opts.TTL)
		s.closers = append(s.closers, store)
		s.Reader = store
		recorders = append(recorders, store)
		log.Info("round history in redis", zap.String("addr", opts.RedisAddr))
	}

	if opts.DatabaseURL != "" {
		store, err := OpenSQL(opts.DatabaseURL)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.closers = append(s.closers, store)
		if s.Reader == nil {
			s.Reader = store
		}
		recorders = append(recorders, store)
		log.Info("round history in postgres")
	}

	if s.Reader == nil {
		mem := NewMemory(opts.Limit)
		s.Reader = mem
		recorders = append(recorders, mem)
	}

	if opts.NATSURL != "" {
		pub, err := ConnectNATS(opts.NATSURL)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.closers = append(s.closers, pub)
		recorders = append(recorders, pub)
		log.Info("publishing rounds to nats", zap.String("url", opts.NATSURL))
	}

	s.Recorder = recorders
	return s, nil
}

// Forget releases per-room memory when the room is destroyed.
func (s *Sinks) Forget(room string) {
	if f, ok := s.Reader.(Forgetter); ok {
		f.Forget(room)
	}
}

func (s *Sinks) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
