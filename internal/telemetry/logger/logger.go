package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Attribute keys shared by the RESP and admin servers.
const (
	KeyConnID = "conn_id"
	KeyRemote = "remote"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Format is json or text. Empty means json.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource adds the caller's file and line.
	AddSource bool
}

// level is shared by every logger New builds, so SetLevel reaches loggers
// already handed out.
var level = new(slog.LevelVar)

var fallback atomic.Pointer[slogLogger]

func init() {
	fallback.Store(&slogLogger{l: slog.New(newHandler(os.Stderr, "json", false))})
}

type slogLogger struct {
	l *slog.Logger
}

// New builds a logger and sets the shared level to cfg.Level.
func New(cfg Config) (Logger, error) {
	lv, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format := strings.ToLower(cfg.Format)
	switch format {
	case "", "json", "text", "console":
	default:
		return nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	level.Set(lv)
	return &slogLogger{l: slog.New(newHandler(out, format, cfg.AddSource))}, nil
}

func newHandler(out io.Writer, format string, addSource bool) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}
	if format == "text" || format == "console" {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

// Discard returns a logger that drops every record.
func Discard() Logger {
	return &slogLogger{l: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ForConn scopes l to one client connection.
func ForConn(l Logger, connID, remote string) Logger {
	args := make([]any, 0, 4)
	if connID != "" {
		args = append(args, KeyConnID, connID)
	}
	if remote != "" {
		args = append(args, KeyRemote, remote)
	}
	if len(args) == 0 {
		return l
	}
	return l.With(args...)
}

// SetLevel changes the level of every logger built by New.
func SetLevel(name string) error {
	lv, err := ParseLevel(name)
	if err != nil {
		return err
	}
	level.Set(lv)
	return nil
}

// GetLevel returns the current level name in lower case.
func GetLevel() string {
	return strings.ToLower(level.Level().String())
}

// ParseLevel converts a level name to slog.Level. An empty name means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", name)
}

// SetDefault makes l the process logger. Loggers from other packages are
// ignored.
func SetDefault(l Logger) {
	if sl, ok := l.(*slogLogger); ok {
		fallback.Store(sl)
	}
}

// Default returns the process logger.
func Default() Logger {
	return fallback.Load()
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}
