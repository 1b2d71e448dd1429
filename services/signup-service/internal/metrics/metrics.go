package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/burakmert236/scrimsignups/common/errors"
)

var (
	registry = prometheus.DefaultRegisterer

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by path/method/code.",
		},
		[]string{"path", "method", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests by path/method/code.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "code"},
	)

	signupOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_operations_total",
			Help: "Signup engine operations by op, result and error code.",
		},
		[]string{"op", "result", "code"},
	)

	signupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signup_operation_duration_seconds",
			Help:    "Duration of signup engine operations by op and result.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "result"},
	)

	activeScrims = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_scrims",
			Help: "Active scrims known to this replica.",
		},
	)
)

func GinMiddleware(c *gin.Context) {
	start := time.Now()
	c.Next()
	code := strconv.Itoa(c.Writer.Status())
	path := c.FullPath()

	// unmatched routes have no template
	if path == "" {
		path = "unmatched"
	}

	if path == "/metrics" {
		return
	}

	method := c.Request.Method

	httpRequests.WithLabelValues(path, method, code).Inc()
	httpDuration.WithLabelValues(path, method, code).Observe(time.Since(start).Seconds())
}

func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ObserveOp labels by error code rather than message to keep cardinality bounded.
func ObserveOp(op string, start time.Time, err error) {
	result := "success"
	code := ""
	if err != nil {
		result = "error"
		code = apperrors.CodeOf(err)
	}
	signupOps.WithLabelValues(op, result, code).Inc()
	signupDuration.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
}

func SetActiveScrims(n int) {
	activeScrims.Set(float64(n))
}

func AddActiveScrims(delta float64) {
	activeScrims.Add(delta)
}

func init() {
	collectors := []prometheus.Collector{
		httpRequests,
		httpDuration,
		signupOps,
		signupDuration,
		activeScrims,
	}

	for _, c := range collectors {
		_ = registry.Register(c)
	}
}
