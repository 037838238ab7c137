package redisserver

import (
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/memkv/pkg/cmap"
)

// Limiter applies a token bucket per client IP. A nil *Limiter allows
// everything.
type Limiter struct {
	limit   rate.Limit
	burst   int
	clients *cmap.Map[*clientLimiter]
	now     func() time.Time
}

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64
}

// NewLimiter creates a limiter admitting perSecond requests per client IP
// with the given burst. It returns nil when perSecond is not positive.
func NewLimiter(perSecond, burst int) *Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = perSecond
	}
	return &Limiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: cmap.New[*clientLimiter](),
		now:     time.Now,
	}
}

// Allow reports whether a request from addr may proceed.
func (l *Limiter) Allow(addr net.Addr) bool {
	if l == nil {
		return true
	}
	now := l.now()
	ip := clientIP(addr)
	c, ok := l.clients.Get(ip)
	if !ok {
		c, _ = l.clients.GetOrSet(ip, &clientLimiter{
			lim: rate.NewLimiter(l.limit, l.burst),
		})
	}
	c.lastSeen.Store(now.UnixNano())
	return c.lim.AllowN(now, 1)
}

// Clients returns the number of tracked client IPs.
func (l *Limiter) Clients() int {
	if l == nil {
		return 0
	}
	return l.clients.Count()
}

// Sweep forgets clients not seen for longer than idle.
func (l *Limiter) Sweep(idle time.Duration) int {
	if l == nil {
		return 0
	}
	cutoff := l.now().Add(-idle).UnixNano()
	return l.clients.DeleteIf(func(_ string, c *clientLimiter) bool {
		return c.lastSeen.Load() < cutoff
	})
}

// clientIP strips the port from addr. Addresses without one, such as those
// of in-memory pipes, are used whole.
func clientIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	s := addr.String()
	host, _, err := net.SplitHostPort(s)
	if err != nil {
		return s
	}
	return host
}
