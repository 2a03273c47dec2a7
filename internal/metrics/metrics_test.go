package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveUpstream("/pending-orders", 20*time.Millisecond, nil)
	c.ObserveUpstream("/pending-orders", 30*time.Millisecond, errors.New("boom"))
	c.ObserveBatchItem("confirm", nil)
	c.ObserveBatchItem("confirm", nil)
	c.ObserveBatchItem("confirm", errors.New("rejected"))
	c.ObserveIngestRow("confirmed", "rejected")

	assert.InDelta(t, 1, testutil.ToFloat64(c.UpstreamRequests.WithLabelValues("/pending-orders", OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.UpstreamRequests.WithLabelValues("/pending-orders", OutcomeFailure)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(c.BatchItems.WithLabelValues("confirm", OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.BatchItems.WithLabelValues("confirm", OutcomeFailure)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.IngestRows.WithLabelValues("confirmed", "rejected")), 0)
}

func TestCollectors_NilIsNoop(t *testing.T) {
	var c *Collectors
	assert.NotPanics(t, func() {
		c.ObserveUpstream("/all-orders", time.Second, nil)
		c.ObserveBatchItem("ship", nil)
		c.ObserveIngestRow("pending", "accepted")
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.ObserveBatchItem("cancel", nil)

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rr.Result().Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, string(body), `orderdesk_batch_items_total{action="cancel",outcome="success"} 1`)
}
