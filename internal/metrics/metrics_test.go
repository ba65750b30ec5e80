package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Recording(t *testing.T) {
	m := New()

	m.NoteCreated(3)
	m.NoteCreated(4)
	m.SummaryGenerated("json", 250*time.Millisecond)
	m.SummaryGenerated("raw", time.Second)
	m.SummaryGenerated("json", time.Second)
	m.BackendError("model_not_found")
	m.ModelPull("success")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.notesCreated))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.notesStored))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.summaries.WithLabelValues("json")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.summaries.WithLabelValues("raw")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendErrors.WithLabelValues("model_not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelPulls.WithLabelValues("success")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.NoteCreated(1)
		m.SetStored(1)
		m.SummaryGenerated("json", time.Second)
		m.BackendError("x")
		m.ModelPull("failure")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SetStored(7)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "notesummary_notes_stored 7")
}
