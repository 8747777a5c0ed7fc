package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m, err := NewHTTPMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveRequest("GET", "/api/translocations", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", "/api/translocations", 200, 7*time.Millisecond)
	m.ObserveRequest("GET", "", 404, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/translocations", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestDuration))
}

func TestRecordOperation(t *testing.T) {
	m, err := NewStoreMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	testCases := []struct {
		name      string
		operation string
		err       error
		status    string
	}{
		{"create ok", "create", nil, "success"},
		{"list ok", "list", nil, "success"},
		{"update failed", "update", errors.New("boom"), "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m.RecordOperation(tc.operation, time.Now(), tc.err)
			assert.Equal(t, float64(1), testutil.ToFloat64(m.operationsTotal.WithLabelValues(tc.operation, tc.status)))
		})
	}
}

func TestRecordImport(t *testing.T) {
	m, err := NewImportMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordImport("csv", "commit", 4, 1, time.Now(), nil)
	m.RecordImport("", "preview", 0, 0, time.Now(), errors.New("bad file"))
	m.SetActive(1)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.importsTotal.WithLabelValues("csv", "commit", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.importsTotal.WithLabelValues("unknown", "preview", "error")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.rowsTotal.WithLabelValues("imported")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rowsTotal.WithLabelValues("rejected")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.activeImports))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewStoreMetrics(registry)
	require.NoError(t, err)

	_, err = NewStoreMetrics(registry)
	assert.Error(t, err)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.Store.RecordOperation("stats", time.Now(), nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "translocations_store_operations_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
