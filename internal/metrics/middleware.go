package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/catalogdex/internal/domain"
)

const namespace = "catalogdex"

// partitionPrefix is the route prefix of every partition-scoped endpoint.
const partitionPrefix = "/partitions/{partition}"

// Label values for requests outside a partition or outside the router.
const (
	noPartition      = "-"
	invalidPartition = "invalid"
	unmatchedRoute   = "unmatched"
)

var requestLabels = []string{"method", "route", "partition", "status"}

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route and partition",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		requestLabels,
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and partition",
		},
		requestLabels,
	)

	httpRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests being served",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration, httpRequestsTotal, httpRequestsInFlight)
}

// Middleware records request count and duration per route and partition.
// Partition-scoped routes are labelled without their /partitions/{partition}
// prefix, so /partitions/a/datasets/1 becomes route=/datasets/{id}, partition=a.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			route, partition := requestLabelValues(r)
			labels := prometheus.Labels{
				"method":    r.Method,
				"route":     route,
				"partition": partition,
				"status":    strconv.Itoa(status),
			}
			httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
			httpRequestsTotal.With(labels).Inc()
		})
	}
}

// requestLabelValues reads the matched route after routing. Partition names
// that would not be accepted as storage keys collapse to one value.
func requestLabelValues(r *http.Request) (route, partition string) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute, noPartition
	}
	return splitRoute(rctx.RoutePattern(), rctx.URLParam("partition"))
}

func splitRoute(pattern, partition string) (string, string) {
	if pattern == "" {
		return unmatchedRoute, noPartition
	}
	rest, ok := strings.CutPrefix(pattern, partitionPrefix)
	if !ok {
		return pattern, noPartition
	}
	if rest == "" {
		rest = "/"
	}
	if domain.ValidatePartition(partition) != nil {
		return rest, invalidPartition
	}
	return rest, partition
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
