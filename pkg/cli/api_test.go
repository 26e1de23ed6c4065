package cli

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mchmarny/radex/pkg/config"
	"github.com/mchmarny/radex/pkg/data"
	"github.com/mchmarny/radex/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestAPI(t *testing.T) (*http.ServeMux, *metrics.Collector) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, data.Init(dbPath))
	db, err := data.GetDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m, err := metrics.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	return makeRouter(newAPI(db, config.Default(), m)), m
}

func doRequest(t *testing.T, mux http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func TestExponentHandler(t *testing.T) {
	mux, m := setupTestAPI(t)

	rec := doRequest(t, mux, http.MethodPost, "/api/n", map[string]any{
		"x30": 20, "contact": 100, "buildup": 1.05, "rs": 0.05,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var r exponentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	assert.InDelta(t, 0.854, r.N, 0.001)

	rec = doRequest(t, mux, http.MethodPost, "/api/n", map[string]any{
		"x30": 20, "contact": 100, "rs": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "rs")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/n", "400")))
}

func TestExposureHandler(t *testing.T) {
	mux, _ := setupTestAPI(t)

	rec := doRequest(t, mux, http.MethodPost, "/api/exposure", map[string]any{
		"distance": 0.3, "contact": 100, "n": 2.5, "rs": 0.05,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var r exposureResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	assert.InDelta(t, 100*math.Pow(0.05/0.35, 2.5)*1.05, r.Exposure, 1e-9)

	rec = doRequest(t, mux, http.MethodPost, "/api/exposure", map[string]any{
		"distance": -1, "contact": 100, "n": 2.5, "rs": 0.05,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSourceHandler(t *testing.T) {
	mux, m := setupTestAPI(t)

	rec := doRequest(t, mux, http.MethodPost, "/api/source", map[string]any{
		"source":    map[string]any{"shape": "cylinder", "diameter": 0.1, "height": 0.2, "orientation": "top", "contact": 100},
		"distances": []float64{0, 0.3},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var r profileResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	assert.Equal(t, 0.1, r.SelfDistance)
	assert.Equal(t, 2.0, r.Exponent)
	assert.Greater(t, r.ID, int64(0))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("cylinder")))

	rec = doRequest(t, mux, http.MethodPost, "/api/source", map[string]any{
		"source": map[string]any{"shape": "cylinder", "diameter": 0.1, "height": 0.2, "orientation": "diagonal", "contact": 100},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/api/history?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []*data.Calculation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestSurveyHandler(t *testing.T) {
	mux, _ := setupTestAPI(t)

	rec := doRequest(t, mux, http.MethodPost, "/api/survey", map[string]any{
		"items": []map[string]any{
			{"name": "a", "source": map[string]any{"shape": "cube", "side": 0.1, "contact": 100}},
			{"name": "b", "source": map[string]any{"shape": "cube", "side": 0.1, "contact": 100},
				"reference": map[string]any{"x30": 20, "buildup": 1.05}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id"`)

	rec = doRequest(t, mux, http.MethodPost, "/api/survey", map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/api/history/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"calibrated":1`)
}

func TestHandlers_BadRequest(t *testing.T) {
	mux, _ := setupTestAPI(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/n", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/api/history?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlers_NonFinite(t *testing.T) {
	mux, _ := setupTestAPI(t)

	tests := []struct {
		name  string
		path  string
		body  map[string]any
		field string
	}{
		{
			name:  "negative buildup exponent",
			path:  "/api/n",
			body:  map[string]any{"x30": 20, "contact": 100, "buildup": -1, "rs": 0.05},
			field: "n=NaN",
		},
		{
			name:  "overflowing exposure",
			path:  "/api/exposure",
			body:  map[string]any{"distance": 1, "contact": 100, "n": -1000, "rs": 0.05},
			field: "exposure=+Inf",
		},
		{
			name: "calibrated source with negative buildup",
			path: "/api/source",
			body: map[string]any{
				"source":    map[string]any{"shape": "cube", "side": 0.1, "contact": 100},
				"reference": map[string]any{"x30": 20, "buildup": -1},
			},
			field: "n=NaN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, mux, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var r map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
			assert.Contains(t, r["error"], tt.field)
		})
	}

	rec := doRequest(t, mux, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []*data.Calculation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"n": math.NaN()})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to encode response")
}
