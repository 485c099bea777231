package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/benhageman/bid-euchre/internal/config"
	"github.com/benhageman/bid-euchre/internal/engine"
	"github.com/benhageman/bid-euchre/internal/history"
	"github.com/benhageman/bid-euchre/internal/httpapi"
	"github.com/benhageman/bid-euchre/internal/hub"
	"github.com/benhageman/bid-euchre/internal/logging"
	"github.com/benhageman/bid-euchre/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.DevLog)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, err := history.Open(ctx, cfg.History, log)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			log.Warn("closing history", zap.Error(err))
		}
	}()

	rules := engine.DefaultRules()
	rules.ForceLastBid = cfg.ForceLastBid

	h := hub.NewHub(ctx, hub.Options{
		Rules:           rules,
		Recorder:        sinks.Recorder,
		Forgetter:       sinks,
		HistoryTimeout:  cfg.HistoryTimeout,
		RoomIdleTimeout: cfg.RoomIdleTimeout,
		Logger:          log,
	})

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(h, httpapi.Options{
		Logger: log,
		Rounds: sinks.Reader,
		WS:     ws.Options{OutboxSize: cfg.OutboxSize, Logger: log},
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("force_last_bid", rules.ForceLastBid))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		case <-h.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
