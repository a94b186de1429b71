package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gradeflow_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"endpoint", "status"},
	)

	SummaryBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gradeflow_summary_build_duration_seconds",
			Help:    "Time spent computing a summary from a fresh snapshot",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"summary"},
	)

	RowsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradeflow_rows_fetched_total",
			Help: "Rows returned by the store per table",
		},
		[]string{"table"},
	)

	TableRequestsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gradeflow_table_requests_rejected_total",
			Help: "Table browser requests rejected by the allow-list",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradeflow_cache_hits_total",
			Help: "Summary cache hits",
		},
		[]string{"summary"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradeflow_cache_misses_total",
			Help: "Summary cache misses",
		},
		[]string{"summary"},
	)

	FoodParses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradeflow_food_parses_total",
			Help: "AI food parse requests by outcome",
		},
		[]string{"status"},
	)

	PreviewFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradeflow_preview_fetches_total",
			Help: "Resource preview fetches by outcome",
		},
		[]string{"status"},
	)
)

func Init() {
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SummaryBuildDuration)
	prometheus.MustRegister(RowsFetched)
	prometheus.MustRegister(TableRequestsRejected)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(FoodParses)
	prometheus.MustRegister(PreviewFetches)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
