package redisserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/memkv/internal/core/command"
	"github.com/yndnr/memkv/internal/telemetry/logger"
	"github.com/yndnr/memkv/internal/telemetry/metric"
	"github.com/yndnr/memkv/pkg/cmap"
	"github.com/yndnr/memkv/pkg/resp"
)

// ErrAlreadyStarted is returned by Start on a running server.
var ErrAlreadyStarted = errors.New("redisserver: already started")

const (
	limiterSweepInterval = time.Minute
	limiterIdleTTL       = 5 * time.Minute
)

// Config holds the RESP server configuration.
type Config struct {
	// Address is the TCP listen address.
	Address string
	// ReadTimeout bounds receiving one request once its first byte arrived.
	// Zero disables it.
	ReadTimeout time.Duration
	// WriteTimeout bounds sending one reply. Zero disables it.
	WriteTimeout time.Duration
	// IdleTimeout closes connections idle between requests. Zero disables it.
	IdleTimeout time.Duration
	// RateLimit is the number of requests per second allowed per client IP.
	// Zero disables rate limiting.
	RateLimit int
	// RateBurst is the burst size of the rate limit (defaults to RateLimit).
	RateBurst int
	// Limits bounds request decoding. Zero fields use the decoder defaults.
	Limits resp.Limits
}

// DefaultConfig returns the default configuration. Deadlines and rate
// limiting are disabled, so a connection is served until the client leaves.
func DefaultConfig() *Config {
	return &Config{
		Address: "127.0.0.1:6379",
		Limits:  resp.DefaultLimits(),
	}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records server metrics in r.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Server) { s.metrics = r }
}

// Server accepts RESP connections and runs a session for each.
type Server struct {
	cfg     *Config
	store   command.Store
	logger  logger.Logger
	metrics *metric.Registry
	limiter *Limiter

	mu      sync.Mutex
	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup
	conns   *cmap.Map[net.Conn]
	stopCh  chan struct{}
}

// New creates a server executing commands against store.
func New(cfg *Config, store command.Store, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:     cfg,
		store:   store,
		logger:  logger.Default(),
		limiter: NewLimiter(cfg.RateLimit, cfg.RateBurst),
		conns:   cmap.New[net.Conn](),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listener and begins accepting in the background.
// Cancelling ctx stops accepting and closes every session.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln != nil {
		return ErrAlreadyStarted
	}

	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Address, err)
	}
	s.ln = ln
	s.running.Store(true)
	s.logger.Info("redis server listening", "address", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer stop()
		if err := s.acceptLoop(ctx, ln); err != nil {
			s.logger.Error("redis accept loop failed", "error", err)
		}
	}()

	if s.limiter != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.sweepLimiter(ctx)
		}()
	}

	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ActiveConnections returns the number of connections being served.
func (s *Server) ActiveConnections() int {
	return s.conns.Count()
}

// Shutdown stops accepting, closes every active connection and waits for
// the sessions to return or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	wasRunning := s.running.Swap(false)
	if wasRunning {
		close(s.stopCh)
	}
	s.mu.Unlock()

	var firstErr error
	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}

	s.conns.Range(func(_ string, c net.Conn) bool {
		_ = c.Close()
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if wasRunning {
		s.logger.Info("redis server stopped")
	}
	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}

		id := ulid.Make().String()
		s.conns.Set(id, c)
		// Shutdown may have swept the registry before this connection was added.
		if !s.running.Load() {
			s.conns.Delete(id)
			_ = c.Close()
			return nil
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, id, c)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, id string, c net.Conn) {
	defer s.conns.Delete(id)

	s.metrics.ConnOpened()
	defer s.metrics.ConnClosed()

	ctx = logger.WithConnID(logger.WithLogger(ctx, s.logger), id)
	logger.L(ctx).Debug("connection accepted", logger.KeyRemote, remoteString(c))

	// Failures are logged by the session itself.
	_ = Handle(ctx, c, s.store, s.sessionOptions()...)
}

func (s *Server) sessionOptions() []SessionOption {
	return []SessionOption{
		WithSessionMetrics(s.metrics),
		WithRateLimiter(s.limiter),
		WithProtocolLimits(s.cfg.Limits),
		WithTimeouts(s.cfg.ReadTimeout, s.cfg.WriteTimeout, s.cfg.IdleTimeout),
	}
}

func (s *Server) sweepLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.limiter.Sweep(limiterIdleTTL); n > 0 {
				s.logger.Debug("rate limiter swept idle clients", "removed", n)
			}
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}
