// Package metrics provides Prometheus metrics for the roadmap service.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultApplied = "applied"
	ResultNoop    = "noop"
	ResultOK      = "ok"
	ResultError   = "error"
	ResultMissing = "missing"
	ResultCorrupt = "corrupt"
)

var (
	// storeOperationsTotal counts store operations.
	// Labels:
	//   - op: operation name (e.g., "set_status", "reorder_node")
	//   - result: "applied" or "noop"
	storeOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadmap_store_operations_total",
			Help: "Total number of roadmap store operations by outcome",
		},
		[]string{"op", "result"},
	)

	// persistSavesTotal counts snapshot writes. result is "ok" or "error".
	persistSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadmap_persist_saves_total",
			Help: "Total number of snapshot saves by outcome",
		},
		[]string{"result"},
	)

	// persistLoadsTotal counts snapshot loads.
	// result is one of "ok", "missing", "corrupt", "error".
	persistLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadmap_persist_loads_total",
			Help: "Total number of snapshot loads by outcome",
		},
		[]string{"result"},
	)

	// httpRequestDuration records API latency.
	// Labels:
	//   - method: HTTP method
	//   - route: chi route pattern (e.g., "/api/nodes/{id}")
	//   - status: response status code
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roadmap_http_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"method", "route", "status"},
	)

	// sseClients reports the live event stream subscribers through the
	// source installed by SetSSEClientSource.
	sseClients = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "roadmap_sse_clients",
			Help: "Number of connected live event stream clients",
		},
		func() float64 {
			if fn := sseClientSource.Load(); fn != nil {
				return float64((*fn)())
			}
			return 0
		},
	)
)

var sseClientSource atomic.Pointer[func() int]

func init() {
	prometheus.MustRegister(storeOperationsTotal)
	prometheus.MustRegister(persistSavesTotal)
	prometheus.MustRegister(persistLoadsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(sseClients)
}

// RecordOperation records one store operation and whether it changed state.
func RecordOperation(op string, applied bool) {
	result := ResultNoop
	if applied {
		result = ResultApplied
	}
	storeOperationsTotal.WithLabelValues(op, result).Inc()
}

// RecordSave records a snapshot save.
func RecordSave(err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	persistSavesTotal.WithLabelValues(result).Inc()
}

// RecordLoad records a snapshot load with one of the Result* values.
func RecordLoad(result string) {
	persistLoadsTotal.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records the duration of one API request.
func RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	httpRequestDuration.WithLabelValues(method, route, status).Observe(durationSeconds)
}

// SetSSEClientSource installs the function the roadmap_sse_clients gauge
// reads on every scrape. A nil fn reports zero.
func SetSSEClientSource(fn func() int) {
	if fn == nil {
		sseClientSource.Store(nil)
		return
	}
	sseClientSource.Store(&fn)
}
