// AngelaMos | 2026
// metrics.go

package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const namespace = "huduma"

const (
	KindTopLevel = "top_level"
	KindReply    = "reply"

	ResultCreated  = "created"
	ResultUpdated  = "updated"
	ResultRejected = "rejected"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	reviewsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reviews_created_total",
		Help:      "Reviews posted, by top level or reply",
	}, []string{"kind"})

	ratingsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratings_submitted_total",
		Help:      "Rating submissions by outcome",
	}, []string{"result"})

	departmentOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "departments_total",
		Help:      "Department mutations by operation",
	}, []string{"operation"})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by a rate limiter",
	}, []string{"scope"})
)

// Middleware records request counts and latency labelled by the chi route
// pattern, so /departments/{id} is one series rather than one per id.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// RegisterDB exposes connection pool statistics for db.
func RegisterDB(db *sql.DB, name string) error {
	return prometheus.Register(collectors.NewDBStatsCollector(db, name))
}

// RegisterRedisPool exposes go-redis connection pool counters read from
// stats on every scrape.
func RegisterRedisPool(stats func() *redis.PoolStats) error {
	read := func(pick func(*redis.PoolStats) uint32) func() float64 {
		return func() float64 { return float64(pick(stats())) }
	}

	cs := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "redis_pool_total_conns",
			Help:      "Connections currently in the redis pool",
		}, read(func(s *redis.PoolStats) uint32 { return s.TotalConns })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "redis_pool_idle_conns",
			Help:      "Idle connections in the redis pool",
		}, read(func(s *redis.PoolStats) uint32 { return s.IdleConns })),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_pool_timeouts_total",
			Help:      "Times a caller waited too long for a redis connection",
		}, read(func(s *redis.PoolStats) uint32 { return s.Timeouts })),
	}

	for _, c := range cs {
		if err := prometheus.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func ObserveReviewCreated(kind string) {
	reviewsCreated.WithLabelValues(kind).Inc()
}

func ObserveRatingSubmitted(result string) {
	ratingsSubmitted.WithLabelValues(result).Inc()
}

func ObserveDepartmentOp(operation string) {
	departmentOps.WithLabelValues(operation).Inc()
}

func ObserveRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}
