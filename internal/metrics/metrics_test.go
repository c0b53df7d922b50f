package metrics

import (
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

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordEnrollment()
	c.RecordEnrollment()
	c.RecordProgress(ProgressCompleted)
	c.RecordProgress(ProgressSkipped)
	c.RecordProgress(ProgressCompleted)
	c.RecordStatusTransition("abandoned")
	c.RecordProgressConflict()
	c.RecordCheckIn(true)
	c.RecordCheckIn(false)
	c.RecordDuplicateCheckIn()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.enrollments))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.progress.WithLabelValues(ProgressCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.progress.WithLabelValues(ProgressSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("abandoned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.progressConflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.checkIns.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.checkIns.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.duplicateCheckIns))
}

func TestCollector_HTTPHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPRequest(http.MethodGet, "/ping", 200, 5*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(c.httpDuration, "fitness_http_request_duration_seconds"))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordEnrollment()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "fitness_enrollments_total 1")
}
