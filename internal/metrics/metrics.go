package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "saas"

var (
	// HTTP
	RequestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	APIErrorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total number of API responses with status >= 400",
		},
		[]string{"method", "path", "status"},
	)

	// Subscriptions
	RolloverOutcomeCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_rollover_total",
			Help:      "Subscriptions processed at period boundary by outcome",
		},
		[]string{"outcome"},
	)

	LifecycleOperationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_operations_total",
			Help:      "Subscription lifecycle operations by result",
		},
		[]string{"operation", "result"},
	)

	// Tokens
	RefreshRotationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_rotations_total",
			Help:      "Refresh token rotations by result",
		},
		[]string{"result"},
	)

	TokensSweptCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_tokens_swept_total",
		Help:      "Refresh tokens deleted by the retention sweep",
	})

	// Entitlements
	EntitlementCacheCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entitlement_cache_lookups_total",
			Help:      "Entitlement snapshot cache lookups by result",
		},
		[]string{"result"},
	)
)

// GinMiddleware пишет длительность и ошибки по шаблону маршрута
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		labels := prometheus.Labels{
			"method": c.Request.Method,
			"path":   path,
			"status": status,
		}

		RequestDurationHistogram.With(labels).Observe(time.Since(start).Seconds())
		if c.Writer.Status() >= 400 {
			APIErrorCounter.With(labels).Inc()
		}
	}
}

// Handler - эндпоинт /metrics
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordRollover(outcome string) {
	RolloverOutcomeCounter.WithLabelValues(outcome).Inc()
}

// RecordOperation - result: "ok" или код ошибки
func RecordOperation(operation string, err error, code string) {
	result := "ok"
	if err != nil {
		result = code
		if result == "" {
			result = "error"
		}
	}
	LifecycleOperationCounter.WithLabelValues(operation, result).Inc()
}

func RecordRefreshRotation(result string) {
	RefreshRotationCounter.WithLabelValues(result).Inc()
}

func RecordTokensSwept(n int64) {
	TokensSweptCounter.Add(float64(n))
}

func RecordEntitlementCache(result string) {
	EntitlementCacheCounter.WithLabelValues(result).Inc()
}
