package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/yndnr/memkv/internal/telemetry/logger"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyRedis(&cfg.Server.Redis); err != nil {
		return err
	}
	if err := verifyAdmin(&cfg.Server.Admin, cfg.Server.Redis.Addr); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyRedis(cfg *RedisConfig) error {
	if err := verifyAddr("server.redis.addr", cfg.Addr); err != nil {
		return err
	}

	durations := []struct {
		name  string
		value int64
	}{
		{"server.redis.read_timeout", int64(cfg.ReadTimeout)},
		{"server.redis.write_timeout", int64(cfg.WriteTimeout)},
		{"server.redis.idle_timeout", int64(cfg.IdleTimeout)},
	}
	for _, d := range durations {
		if d.value < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalid, d.name)
		}
	}

	counts := []struct {
		name  string
		value int
	}{
		{"server.redis.rate_limit", cfg.RateLimit},
		{"server.redis.rate_burst", cfg.RateBurst},
		{"server.redis.max_bulk_len", cfg.MaxBulkLen},
		{"server.redis.max_array_len", cfg.MaxArrayLen},
		{"server.redis.max_line_len", cfg.MaxLineLen},
		{"server.redis.max_depth", cfg.MaxDepth},
	}
	for _, c := range counts {
		if c.value < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalid, c.name)
		}
	}
	return nil
}

func verifyAdmin(cfg *AdminConfig, redisAddr string) error {
	if !cfg.Enabled {
		return nil
	}
	if err := verifyAddr("server.admin.addr", cfg.Addr); err != nil {
		return err
	}
	if samePort(cfg.Addr, redisAddr) {
		return fmt.Errorf("%w: server.admin.addr %q conflicts with server.redis.addr", ErrInvalid, cfg.Addr)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	switch cfg.Format {
	case "", "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("%w: log.format %q (want json or text)", ErrInvalid, cfg.Format)
	}
}

func verifyAddr(name, addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalid, name)
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalid, name, addr, err)
	}
	if p, err := strconv.Atoi(port); err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("%w: %s %q: invalid port", ErrInvalid, name, addr)
	}
	return nil
}

// samePort reports whether two listen addresses would collide. Port 0 picks
// a free port and never collides.
func samePort(a, b string) bool {
	ha, pa, errA := net.SplitHostPort(a)
	hb, pb, errB := net.SplitHostPort(b)
	if errA != nil || errB != nil || pa != pb || pa == "0" {
		return false
	}
	return ha == hb || isWildcard(ha) || isWildcard(hb)
}

func isWildcard(host string) bool {
	return host == "" || host == "0.0.0.0" || host == "::"
}
