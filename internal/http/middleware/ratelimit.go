package middleware

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	rateLimitBurst = 5
	visitorTTL     = 5 * time.Minute
)

// IPRateLimiter applies a token bucket per client IP.
type IPRateLimiter struct {
	visitors sync.Map
	rps      rate.Limit
	burst    int
	log      *zap.Logger
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// NewIPRateLimiter allows perMinute requests per IP with a small burst.
// Idle visitors are evicted until ctx is done.
func NewIPRateLimiter(ctx context.Context, perMinute int, log *zap.Logger) *IPRateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	l := &IPRateLimiter{
		rps:   rate.Limit(float64(perMinute) / 60.0),
		burst: rateLimitBurst,
		log:   log,
		now:   time.Now,
	}
	go l.cleanupVisitors(ctx, time.Minute)
	return l
}

func (l *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	now := l.now().UnixNano()
	if v, ok := l.visitors.Load(ip); ok {
		vi := v.(*visitor)
		vi.lastSeen.Store(now)
		return vi.limiter
	}
	vi := &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
	vi.lastSeen.Store(now)
	actual, _ := l.visitors.LoadOrStore(ip, vi)
	return actual.(*visitor).limiter
}

func (l *IPRateLimiter) cleanupVisitors(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.evictIdle()
		}
	}
}

func (l *IPRateLimiter) evictIdle() {
	cutoff := l.now().Add(-visitorTTL).UnixNano()
	l.visitors.Range(func(k, v any) bool {
		if v.(*visitor).lastSeen.Load() < cutoff {
			l.visitors.Delete(k)
		}
		return true
	})
}

// Handler returns the fiber middleware handler.
func (l *IPRateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := clientIP(c)
		if !l.getLimiter(ip).Allow() {
			l.log.Warn("rate_limit_exceeded", zap.String("ip", ip), zap.String("path", c.Path()))
			return WriteError(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
		}
		return c.Next()
	}
}

func clientIP(c *fiber.Ctx) string {
	ip := c.IP()
	if ip == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(ip); err == nil {
		return host
	}
	return ip
}
