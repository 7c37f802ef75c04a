// Package server is the operator surface: a small HTTP API to read the
// status line, raise requests and flip toggles, plus a WebSocket stream of
// status views.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/zeusync/remedy/internal/config"
	"github.com/zeusync/remedy/internal/core/events"
	"github.com/zeusync/remedy/internal/core/events/bus"
	"github.com/zeusync/remedy/internal/core/lifecycle"
	"github.com/zeusync/remedy/internal/core/observability/log"
	"github.com/zeusync/remedy/internal/core/requests"
	"github.com/zeusync/remedy/internal/core/status"
	"github.com/zeusync/remedy/internal/core/systems"
	"github.com/zeusync/remedy/internal/core/systems/remediation"
)

const shutdownTimeout = 5 * time.Second

// Engine is what the operator surface drives. *remediation.Engine
// satisfies it.
type Engine interface {
	systems.System
	PassMetrics() map[string]systems.Metrics
	Lifecycle() *lifecycle.Controller
	Requests() *requests.Queue
	Status() *status.Aggregator
	Settings() remediation.Settings
	UpdateSettings(func(remediation.Settings) remediation.Settings) (remediation.Settings, error)
}

var _ Engine = (*remediation.Engine)(nil)

type Option func(*Server)

func WithLogger(l log.Log) Option {
	return func(s *Server) { s.logger = l }
}

// WithBus forwards pass and lifecycle events onto the stream and exposes
// the bus counters on /metrics.
func WithBus(b bus.EventBus) Option {
	return func(s *Server) { s.bus = b }
}

// Server represents the operator surface. Failures here are logged and
// answered to the client; they never reach the engine.
type Server struct {
	config  config.ServerConfig
	engine  Engine
	hub     *Hub
	bus     bus.EventBus
	logger  log.Log
	running atomic.Bool
}

// New builds the surface and attaches its hub as the status sink.
func New(cfg config.ServerConfig, engine Engine, opts ...Option) *Server {
	s := &Server{
		config: cfg,
		engine: engine,
		logger: log.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("server")
	s.hub = NewHub(s.logger, cfg.WriteTimeout)
	engine.Status().Attach(s.hub)
	if s.bus != nil {
		s.forward()
	}
	return s
}

// forward relays engine events to stream clients.
func (s *Server) forward() {
	handlers := map[string]bus.EventHandler{
		events.TypePassCompleted: func(e bus.Event) error {
			p, ok := e.Data().(events.PassCompleted)
			if !ok {
				return fmt.Errorf("%w: %s carried %T", ErrUnexpectedEvent, e.Type(), e.Data())
			}
			s.hub.Broadcast(Message{Type: e.Type(), Pass: newPassEvent(p)})
			return nil
		},
		events.TypeLifecycleChanged: func(e bus.Event) error {
			t, ok := e.Data().(lifecycle.Transition)
			if !ok {
				return fmt.Errorf("%w: %s carried %T", ErrUnexpectedEvent, e.Type(), e.Data())
			}
			s.hub.Broadcast(Message{Type: e.Type(), Lifecycle: newLifecycleEvent(t)})
			return nil
		},
	}
	for typ, h := range handlers {
		if _, err := s.bus.Subscribe(typ, h); err != nil {
			s.logger.Warn("event forwarding disabled", log.String("type", typ), log.Error(err))
		}
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Run listens on the configured address until ctx is done, then shuts down
// gracefully and disconnects every stream client.
func (s *Server) Run(ctx context.Context) error {
	if s.config.ListenAddr == "" {
		return ErrInvalidConfig
	}
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.running.CompareAndSwap(false, true) {
		_ = ln.Close()
		return ErrServerAlreadyRunning
	}
	defer s.running.Store(false)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("operator surface listening", log.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Hijacked WebSocket connections are not tracked by Shutdown.
	s.hub.Close()
	err := srv.Shutdown(shutdownCtx)
	<-errCh
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("operator surface stopped")
	return nil
}

func (s *Server) IsRunning() bool { return s.running.Load() }
