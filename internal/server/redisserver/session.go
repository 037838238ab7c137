package redisserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"strings"
	"time"

	"github.com/yndnr/memkv/internal/core/command"
	"github.com/yndnr/memkv/internal/telemetry/logger"
	"github.com/yndnr/memkv/internal/telemetry/metric"
	"github.com/yndnr/memkv/pkg/resp"
)

// ReplyRateLimited answers a request rejected by the rate limiter.
const ReplyRateLimited = "ERR rate limit exceeded"

// ErrSessionPanic is returned by Serve when request handling panicked.
var ErrSessionPanic = errors.New("redisserver: session panic")

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	logger       logger.Logger
	metrics      *metric.Registry
	limiter      *Limiter
	limits       resp.Limits
	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
}

// WithSessionLogger sets the session logger. Without it the logger from the
// context passed to Serve is used.
func WithSessionLogger(l logger.Logger) SessionOption {
	return func(o *sessionOptions) { o.logger = l }
}

// WithSessionMetrics records connection and command metrics in r.
func WithSessionMetrics(r *metric.Registry) SessionOption {
	return func(o *sessionOptions) { o.metrics = r }
}

// WithRateLimiter rejects requests that l does not allow.
func WithRateLimiter(l *Limiter) SessionOption {
	return func(o *sessionOptions) { o.limiter = l }
}

// WithProtocolLimits bounds what the request decoder accepts.
func WithProtocolLimits(l resp.Limits) SessionOption {
	return func(o *sessionOptions) { o.limits = l }
}

// WithTimeouts sets connection deadlines. A zero duration disables that
// deadline. idle bounds the wait for the first byte of a request, read the
// time to receive the rest of it, write the time to send the reply.
func WithTimeouts(read, write, idle time.Duration) SessionOption {
	return func(o *sessionOptions) {
		o.readTimeout = read
		o.writeTimeout = write
		o.idleTimeout = idle
	}
}

// Session serves requests on one connection.
type Session struct {
	conn net.Conn
	br   *bufio.Reader
	dec  *resp.Decoder
	w    *resp.Writer
	exec *command.Executor
	opts sessionOptions
}

// NewSession creates a session for conn executing commands against store.
func NewSession(conn net.Conn, store command.Store, opts ...SessionOption) *Session {
	o := sessionOptions{limits: resp.DefaultLimits()}
	for _, opt := range opts {
		opt(&o)
	}

	br := bufio.NewReader(conn)
	return &Session{
		conn: conn,
		br:   br,
		dec:  resp.NewDecoder(br, resp.WithLimits(o.limits)),
		w:    resp.NewWriter(conn),
		exec: command.NewExecutor(store),
		opts: o,
	}
}

// Handle serves conn until the client disconnects, sends QUIT, or the
// session fails. The connection is closed on return, and also when ctx is
// cancelled. A nil error means the session ended normally.
func Handle(ctx context.Context, conn net.Conn, store command.Store, opts ...SessionOption) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	return NewSession(conn, store, opts...).Serve(ctx)
}

// Serve runs the request loop. It does not close the connection.
func (s *Session) Serve(ctx context.Context) (err error) {
	log := s.opts.logger
	if log == nil {
		log = logger.L(ctx)
	}
	log = logger.ForConn(log, "", remoteString(s.conn))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSessionPanic, r)
			log.Error("session panic", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
		if err != nil {
			s.opts.metrics.IncSessionFailures()
			log.Error("session failed", "error", err)
		}
	}()

	log.Debug("session started")
	for {
		done, err := s.serveOne(ctx, log)
		if err != nil {
			return err
		}
		if done {
			log.Debug("session ended")
			return nil
		}
	}
}

// serveOne reads one request and answers it. done reports that the session
// should end without error.
func (s *Session) serveOne(ctx context.Context, log logger.Logger) (done bool, err error) {
	if err := s.awaitRequest(); err != nil {
		return s.readFailed(ctx, log, err)
	}

	v, err := s.dec.Decode()
	start := time.Now()

	var (
		cmd   = command.Unknown()
		reply resp.Value
	)
	switch {
	case err == nil && v.Kind != resp.KindArray:
		reply = resp.Error(command.ReplyNotArray)
	case err == nil && !s.opts.limiter.Allow(s.conn.RemoteAddr()):
		s.opts.metrics.IncRateLimited()
		reply = resp.Error(ReplyRateLimited)
	case err == nil:
		cmd = command.Parse(v.Elems)
		reply, err = s.exec.Execute(cmd)
		if err != nil {
			return false, err
		}
	case errors.Is(err, resp.ErrProtocol):
		s.opts.metrics.IncProtocolErrors()
		log.Debug("protocol error", "error", err)
		reply = resp.Errorf("%s%s", command.ReplyParsePrefix, protocolDetail(err))
	default:
		return s.readFailed(ctx, log, err)
	}

	if err := s.reply(reply); err != nil {
		return false, err
	}
	s.opts.metrics.ObserveCommand(cmd.Kind.String(), time.Since(start))

	return cmd.Kind == command.KindQuit, nil
}

// awaitRequest arms the read deadlines. With an idle timeout the first byte
// is waited for under it before the per-request read timeout applies.
func (s *Session) awaitRequest() error {
	if s.opts.idleTimeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.opts.idleTimeout)); err != nil {
			return err
		}
		if _, err := s.br.Peek(1); err != nil {
			return err
		}
	}
	switch {
	case s.opts.readTimeout > 0:
		return s.conn.SetReadDeadline(time.Now().Add(s.opts.readTimeout))
	case s.opts.idleTimeout > 0:
		return s.conn.SetReadDeadline(time.Time{})
	}
	return nil
}

func (s *Session) reply(v resp.Value) error {
	if s.opts.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.opts.writeTimeout)); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
	}
	if err := s.w.WriteValue(v); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	return nil
}

// readFailed classifies a read error. End of stream, an idle timeout and a
// connection closed by shutdown end the session quietly.
func (s *Session) readFailed(ctx context.Context, log logger.Logger, err error) (bool, error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF):
		return true, nil
	case ctx.Err() != nil, errors.Is(err, net.ErrClosed):
		log.Debug("session closed by server")
		return true, nil
	case errors.As(err, &netErr) && netErr.Timeout():
		log.Debug("session timed out")
		return true, nil
	}
	return false, fmt.Errorf("read request: %w", err)
}

func protocolDetail(err error) string {
	return strings.TrimPrefix(err.Error(), resp.ErrProtocol.Error()+": ")
}

func remoteString(c net.Conn) string {
	if addr := c.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
