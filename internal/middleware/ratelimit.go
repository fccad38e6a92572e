// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/Arusey/Huduma/internal/core"
	"github.com/Arusey/Huduma/internal/metrics"
)

const keyPrefix = "huduma:ratelimit:"

// RateLimitConfig describes one limiter. Scope namespaces its Redis keys and
// labels its metrics, so a global and a write limiter can coexist.
type RateLimitConfig struct {
	Scope   string
	Limit   redis_rate.Limit
	KeyFunc func(*http.Request) string
	Skip    func(*http.Request) bool
}

// RateLimiter counts requests in Redis. While Redis is unreachable it keeps
// limiting with per-process token buckets instead of letting traffic through.
type RateLimiter struct {
	redis *redis_rate.Limiter
	local *localLimiter
	cfg   RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.Scope == "" {
		cfg.Scope = "global"
	}

	return &RateLimiter{
		redis: redis_rate.NewLimiter(rdb),
		local: newLocalLimiter(),
		cfg:   cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.cfg.Skip != nil && rl.cfg.Skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := keyPrefix + rl.cfg.Scope + ":" + rl.cfg.KeyFunc(r)
		res := rl.take(r.Context(), key)
		writeLimitHeaders(w.Header(), res)

		if res.Allowed > 0 {
			next.ServeHTTP(w, r)
			return
		}

		metrics.ObserveRateLimited(rl.cfg.Scope)
		slog.InfoContext(r.Context(), "request rate limited",
			"scope", rl.cfg.Scope,
			"key", key,
		)
		rejectLimited(w, res)
	})
}

func (rl *RateLimiter) take(ctx context.Context, key string) *redis_rate.Result {
	res, err := rl.redis.Allow(ctx, key, rl.cfg.Limit)
	if err == nil {
		return res
	}

	slog.DebugContext(ctx, "redis rate limiter unavailable, using local buckets",
		"scope", rl.cfg.Scope,
		"error", err,
	)
	return rl.local.allow(key, rl.cfg.Limit)
}

// ClientIP prefers the last X-Forwarded-For hop, which is the one appended
// by the proxy in front of the API and cannot be forged by the client.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func KeyByIP(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

// KeyByUserAndEndpoint gives each signed-in user a separate budget per
// route, so posting reviews does not use up the allowance for ratings.
func KeyByUserAndEndpoint(r *http.Request) string {
	subject := KeyByIP(r)
	if id := GetUserID(r.Context()); id != "" {
		subject = "user:" + id
	}
	return subject + ":" + r.Method + ":" + endpointPattern(r)
}

// BypassReads exempts safe methods, leaving a limiter to count only
// mutations such as posting reviews or ratings.
func BypassReads(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func endpointPattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}

	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	for i, s := range segments {
		if uuid.Validate(s) == nil {
			segments[i] = "{id}"
		} else if _, err := strconv.ParseUint(s, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func writeLimitHeaders(h http.Header, res *redis_rate.Result) {
	remaining := max(res.Remaining, 0)
	resetSecs := int(res.ResetAfter.Seconds())

	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset",
		strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy",
		fmt.Sprintf("%d;w=%d", res.Limit.Rate, int(res.Limit.Period.Seconds())))
	h.Set("RateLimit", fmt.Sprintf("%d;t=%d", remaining, resetSecs))
}

func rejectLimited(w http.ResponseWriter, res *redis_rate.Result) {
	wait := max(int(res.RetryAfter.Seconds()), 1)
	w.Header().Set("Retry-After", strconv.Itoa(wait))

	core.JSON(w, http.StatusTooManyRequests, core.Response{
		Success: false,
		Error: &core.ErrorBody{
			Code:    "RATE_LIMITED",
			Message: fmt.Sprintf("Too many requests. Try again in %d seconds.", wait),
		},
	})
}

const (
	sweepEvery = 5 * time.Minute
	idleTTL    = 10 * time.Minute
)

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// localLimiter holds one token bucket per key. Idle buckets are swept on
// access rather than by a background goroutine.
type localLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLocalLimiter() *localLimiter {
	return &localLimiter{buckets: make(map[string]*bucket)}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	now := time.Now()
	interval := refillInterval(limit)

	l.mu.Lock()
	if now.Sub(l.lastSweep) > sweepEvery {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > idleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(interval), limit.Burst)}
		l.buckets[key] = b
	}
	b.seen = now
	l.mu.Unlock()

	res := &redis_rate.Result{
		Limit:      limit,
		RetryAfter: -1,
		ResetAfter: interval,
	}

	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	res.Remaining = max(int(b.limiter.TokensAt(now)), 0)

	return res
}

func refillInterval(limit redis_rate.Limit) time.Duration {
	if limit.Rate <= 0 {
		return limit.Period
	}
	return limit.Period / time.Duration(limit.Rate)
}

func PerMinute(requests, burst int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   requests,
		Burst:  burst,
		Period: time.Minute,
	}
}
