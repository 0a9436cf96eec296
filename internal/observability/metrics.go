package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// fetch and query paths.
type Metrics struct {
	// Feed ingestion.
	FeedPages       prometheus.Counter
	FeedRecords     prometheus.Counter
	RowsDropped     prometheus.Counter
	FetchDuration   prometheus.Histogram
	SnapshotRecords prometheus.Gauge
	SnapshotWrites  *prometheus.CounterVec // labels: sink={csv,postgres,kafka}, outcome={success,error}

	// Geocoding and routing.
	GeocodeRequests  *prometheus.CounterVec // labels: outcome={success,error,empty}
	RouteRequests    *prometheus.CounterVec // labels: outcome={success,error,no_route}
	RouteAPIDuration prometheus.Histogram

	// Query serving.
	NearestQueries *prometheus.CounterVec // labels: outcome={success,unresolved,error}
}

// NewMetrics creates and registers all metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FeedPages,
		m.FeedRecords,
		m.RowsDropped,
		m.FetchDuration,
		m.SnapshotRecords,
		m.SnapshotWrites,
		m.GeocodeRequests,
		m.RouteRequests,
		m.RouteAPIDuration,
		m.NearestQueries,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carpark",
			Name:      "feed_pages_total",
			Help:      "Total pages fetched from the availability feed.",
		}),
		FeedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carpark",
			Name:      "feed_records_total",
			Help:      "Total raw records returned by the availability feed.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carpark",
			Name:      "rows_dropped_total",
			Help:      "Rows dropped during cleaning for unparseable coordinates.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "carpark",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a complete paginated feed fetch.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SnapshotRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "carpark",
			Name:      "snapshot_records",
			Help:      "Cleaned records in the most recent snapshot.",
		}),
		SnapshotWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carpark",
			Name:      "snapshot_writes_total",
			Help:      "Snapshot writes by sink and outcome.",
		}, []string{"sink", "outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carpark",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		RouteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carpark",
			Name:      "route_requests_total",
			Help:      "Routing API requests by outcome.",
		}, []string{"outcome"}),
		RouteAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "carpark",
			Name:      "route_api_duration_seconds",
			Help:      "Routing API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		NearestQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carpark",
			Name:      "nearest_queries_total",
			Help:      "Nearest-carpark queries by outcome.",
		}, []string{"outcome"}),
	}
}
