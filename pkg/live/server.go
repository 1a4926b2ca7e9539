package live

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sherine-k/actuator/pkg/metrics"
	"github.com/sherine-k/actuator/pkg/scheduler"
)

// ServerOption configures a Server
type ServerOption func(*Server)

// WithClock replaces the system clock
func WithClock(clock Clock) ServerOption {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithUnit sets the wall-clock length of one delay unit
func WithUnit(unit time.Duration) ServerOption {
	return func(s *Server) {
		s.unit = unit
	}
}

// WithLogger sets the server logger
func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records every session's events and the number of open sessions
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// Server accepts line-protocol connections. Every connection is an
// independent session with its own actuation slot; events are written back
// on the same connection.
type Server struct {
	addr    string
	clock   Clock
	unit    time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics

	ln    net.Listener
	ready chan struct{}
}

// NewServer creates a server listening on addr once Serve is called
func NewServer(addr string, opts ...ServerOption) *Server {
	s := &Server{
		addr:   addr,
		clock:  SystemClock{},
		unit:   time.Second,
		logger: zerolog.Nop(),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready is closed once the listener is bound
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address. Only valid after Ready is closed.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts connections until ctx is cancelled
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.ln = ln
	close(s.ready)
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("listening")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("accept: %w", err)
			}
			g.Go(func() error {
				s.handle(gctx, conn)
				return nil
			})
		}
	})

	err = g.Wait()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	sessionID := uuid.NewString()
	logger := s.logger.With().
		Str("session_id", sessionID).
		Str("remote", conn.RemoteAddr().String()).
		Logger()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	out := scheduler.NewWriterSink(conn)
	sinks := []scheduler.Sink{out}
	if s.metrics != nil {
		sinks = append(sinks, s.metrics)
		s.metrics.Sessions.Inc()
		defer s.metrics.Sessions.Dec()
	}

	logger.Info().Msg("session opened")
	d := NewDispatcher(s.clock, s.unit, logger, sinks...)
	if err := d.Run(ctx, conn); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn().Err(err).Msg("session ended with error")
	}
	if _, armed := d.Pending(); armed && s.metrics != nil {
		s.metrics.Armed.Dec()
	}
	if err := out.Err(); err != nil {
		logger.Warn().Err(err).Msg("could not deliver events")
	}
	logger.Info().Msg("session closed")
}
