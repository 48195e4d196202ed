package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/events"
	"github.com/cuemby/hbase-mesos/pkg/log"
	"github.com/cuemby/hbase-mesos/pkg/metrics"
	"github.com/cuemby/hbase-mesos/pkg/state"
	"github.com/cuemby/hbase-mesos/pkg/types"
	"github.com/rs/zerolog"
)

// StateReader exposes the live task view
type StateReader interface {
	Snapshot() state.Snapshot
}

// LedgerReader exposes the durable records
type LedgerReader interface {
	FrameworkID() (string, error)
	Nodes() ([]*types.NodeRecord, error)
}

// EventSource exposes recent and future scheduler events
type EventSource interface {
	Recent(n int) []*events.Event
	Subscribe() events.Subscriber
	Unsubscribe(sub events.Subscriber)
}

// shutdownTimeout bounds how long Run waits for open requests on exit
const shutdownTimeout = 5 * time.Second

// Server is the read-only status HTTP server
type Server struct {
	live   StateReader
	ledger LedgerReader
	broker EventSource
	health *metrics.HealthChecker
	mux    *http.ServeMux
	logger zerolog.Logger
}

// NewServer creates a status server. A nil health checker uses the
// package default.
func NewServer(live StateReader, ledger LedgerReader, broker EventSource, health *metrics.HealthChecker) *Server {
	if health == nil {
		health = metrics.DefaultHealth()
	}
	s := &Server{
		live:   live,
		ledger: ledger,
		broker: broker,
		health: health,
		mux:    http.NewServeMux(),
		logger: log.WithComponent("api"),
	}

	s.handle("/health", s.healthHandler)
	s.handle("/ready", s.readyHandler)
	s.handle("/live", s.liveHandler)
	s.handle("/v1/state", s.stateHandler)
	s.handle("/v1/events", s.eventsHandler)
	s.mux.Handle("/metrics", instrument("/metrics", metrics.Handler()))

	return s
}

func (s *Server) handle(path string, h http.HandlerFunc) {
	s.mux.Handle(path, instrument(path, getOnly(h)))
}

// Handler returns the HTTP handler for embedding in other servers
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:        addr,
		Handler:     s.mux,
		ReadTimeout: 5 * time.Second,
		// no write timeout: /v1/events?follow=true streams
		IdleTimeout: 60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Status API listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("Status API shutdown incomplete")
			return server.Close()
		}
		s.logger.Info().Msg("Status API stopped")
		return nil
	}
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}
