// Package metrics exposes Prometheus collectors for upstream API calls,
// batch dispatch outcomes and CSV ingest.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orderdesk"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collectors groups every orderdesk collector. A nil *Collectors is valid and records nothing.
type Collectors struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	BatchItems       *prometheus.CounterVec
	IngestRows       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the remote order API by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		UpstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of requests sent to the remote order API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		BatchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_items_total",
			Help:      "Per-order results of batch actions by action and outcome.",
		}, []string{"action", "outcome"}),
		IngestRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_total",
			Help:      "Uploaded CSV rows by classification and outcome.",
		}, []string{"classification", "outcome"}),
	}

	reg.MustRegister(c.UpstreamRequests, c.UpstreamLatency, c.BatchItems, c.IngestRows)
	return c
}

// ObserveUpstream records one request against endpoint.
func (c *Collectors) ObserveUpstream(endpoint string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	c.UpstreamRequests.WithLabelValues(endpoint, outcome(err)).Inc()
	c.UpstreamLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveBatchItem records the result of one order within a batch action.
func (c *Collectors) ObserveBatchItem(action string, err error) {
	if c == nil {
		return
	}
	c.BatchItems.WithLabelValues(action, outcome(err)).Inc()
}

// ObserveIngestRow records the result of one uploaded row.
func (c *Collectors) ObserveIngestRow(classification, result string) {
	if c == nil {
		return
	}
	c.IngestRows.WithLabelValues(classification, result).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
