package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenbite/internal/core/emissions"
	"greenbite/internal/core/recipe"
	"greenbite/internal/infrastructure/config"
	"greenbite/internal/infrastructure/dataset"
)

type staticSource struct {
	snap *dataset.Snapshot
}

func (s staticSource) Current() *dataset.Snapshot { return s.snap }

func readySnapshot(t *testing.T) *dataset.Snapshot {
	t.Helper()
	recipes, err := recipe.NewTable(
		[]string{"title", "NER"},
		[]map[string]string{{"title": "Tomato Rice", "NER": `["tomatoes", "rice"]`}},
		recipe.Columns{},
	)
	require.NoError(t, err)
	table, err := emissions.NewTable(emissions.RequiredColumns(), []map[string]string{{emissions.KeyColumn: "Rice"}})
	require.NoError(t, err)
	return &dataset.Snapshot{Recipes: recipes, Emissions: table, Version: "v1"}
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.HealthCheck)
	r.GET("/ready", h.ReadinessCheck)
	r.GET("/live", h.LivenessCheck)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthCheck(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Version: "1.2.3"}}
	h := NewHandler(cfg, staticSource{snap: readySnapshot(t)})

	w := serve(h, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	require.NotNil(t, resp.Datasets)
	assert.Equal(t, 1, resp.Datasets.Recipes)
	assert.True(t, resp.Datasets.Ready)
}

type fixedStats map[string]interface{}

func (f fixedStats) GetStats() map[string]interface{} { return f }

func TestHealthCheck_CacheStats(t *testing.T) {
	h := NewHandler(nil, nil).WithCacheStats(fixedStats{"size": 3})

	w := serve(h, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cache":{"size":3}`)
	assert.NotContains(t, w.Body.String(), `"datasets"`)
}

func TestReadinessCheck(t *testing.T) {
	ready := NewHandler(nil, staticSource{snap: readySnapshot(t)})
	assert.Equal(t, http.StatusOK, serve(ready, "/ready").Code)

	partial := readySnapshot(t)
	partial.Emissions = nil
	notReady := NewHandler(nil, staticSource{snap: partial})
	assert.Equal(t, http.StatusServiceUnavailable, serve(notReady, "/ready").Code)

	empty := NewHandler(nil, staticSource{})
	assert.Equal(t, http.StatusServiceUnavailable, serve(empty, "/ready").Code)
}

func TestLivenessCheck(t *testing.T) {
	w := serve(NewHandler(nil, nil), "/live")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")
}
