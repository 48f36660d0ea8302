package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"practicehub/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*TwoTierRateLimiter)

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(rl *TwoTierRateLimiter) {
		if fn != nil {
			rl.keyFn = fn
		}
	}
}

func WithClock(now func() time.Time) RateLimitOption {
	return func(rl *TwoTierRateLimiter) {
		if now != nil {
			rl.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) RateLimitOption {
	return func(rl *TwoTierRateLimiter) {
		if logger != nil {
			rl.logger = logger
		}
	}
}

// TwoTierRateLimiter keeps a sliding log of request times per client key and
// one shared log across all clients. A request is admitted only when both
// logs have room, and a rejected request consumes neither.
type TwoTierRateLimiter struct {
	mu          sync.Mutex
	clientLimit int
	globalLimit int
	window      time.Duration
	keyFn       RateLimitKeyFunc
	now         func() time.Time
	logger      *zap.Logger
	clients     map[string][]time.Time
	global      []time.Time
	calls       int
}

type rateDecision struct {
	allowed    bool
	scope      string
	limit      int
	remaining  int
	retryAfter time.Duration
}

const sweepEvery = 256

func NewTwoTierRateLimiter(clientLimit, globalLimit int, window time.Duration, opts ...RateLimitOption) *TwoTierRateLimiter {
	rl := &TwoTierRateLimiter{
		clientLimit: clientLimit,
		globalLimit: globalLimit,
		window:      window,
		keyFn:       clientIPKey,
		now:         time.Now,
		logger:      zap.NewNop(),
		clients:     map[string][]time.Time{},
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

func (rl *TwoTierRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.keyFn(r)
		if key == "" {
			key = clientIPKey(r)
		}
		decision := rl.allow(key)

		w.Header().Set("X-RateLimit-Limit", itoa(decision.limit))
		w.Header().Set("X-RateLimit-Remaining", itoa(max(decision.remaining, 0)))
		if !decision.allowed {
			retry := max(durationSeconds(decision.retryAfter), 1)
			w.Header().Set("X-RateLimit-Reset", itoa(retry))
			w.Header().Set("Retry-After", itoa(retry))
			rl.logger.Warn("rate limit exceeded",
				zap.String("key", key),
				zap.String("scope", decision.scope),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
				zap.Int("limit", decision.limit),
				zap.Int("windowSec", int(rl.window.Seconds())),
			)
			api.FailJob(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *TwoTierRateLimiter) allow(key string) rateDecision {
	now := rl.now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.calls++
	if rl.calls%sweepEvery == 0 {
		rl.sweep(cutoff)
	}

	rl.global = prune(rl.global, cutoff)
	hits := prune(rl.clients[key], cutoff)
	rl.clients[key] = hits

	if rl.clientLimit > 0 && len(hits) >= rl.clientLimit {
		return rateDecision{scope: "client", limit: rl.clientLimit, retryAfter: hits[0].Add(rl.window).Sub(now)}
	}
	if rl.globalLimit > 0 && len(rl.global) >= rl.globalLimit {
		return rateDecision{scope: "global", limit: rl.globalLimit, retryAfter: rl.global[0].Add(rl.window).Sub(now)}
	}

	rl.clients[key] = append(hits, now)
	rl.global = append(rl.global, now)
	return rateDecision{
		allowed:   true,
		limit:     rl.clientLimit,
		remaining: rl.clientLimit - len(hits) - 1,
	}
}

func (rl *TwoTierRateLimiter) sweep(cutoff time.Time) {
	for key, hits := range rl.clients {
		if hits = prune(hits, cutoff); len(hits) == 0 {
			delete(rl.clients, key)
		} else {
			rl.clients[key] = hits
		}
	}
}

// prune drops entries at or before cutoff; hits are in arrival order.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return hits
	}
	return append(hits[:0], hits[i:]...)
}

func clientIPKey(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		if value := strings.TrimSpace(parts[0]); value != "" {
			return value
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// durationSeconds rounds up so a client honoring Retry-After never lands
// inside the window it was told to wait out.
func durationSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

func itoa(value int) string {
	return strconv.Itoa(value)
}
