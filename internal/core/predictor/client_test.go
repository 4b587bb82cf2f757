package predictor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenbite/internal/infrastructure/config"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.PredictorConfig{URL: srv.URL})
}

func TestPredict(t *testing.T) {
	var got Features
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"sustainability_score": 3.42}`))
	})

	score, err := c.Predict(context.Background(), Features{Farm: 1.5, TotalLandToRetail: 2})

	require.NoError(t, err)
	assert.Equal(t, 3.42, score)
	assert.Equal(t, Features{Farm: 1.5, TotalLandToRetail: 2}, got)
}

func TestPredict_ModelError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Model not loaded. Check logs for issues."}`))
	})

	_, err := c.Predict(context.Background(), Features{})

	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestPredict_BadStatus(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Predict(context.Background(), Features{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFeaturesSum(t *testing.T) {
	f := Features{LandUseChange: 1, Feed: 2, Farm: 3, Processing: 4, Transport: 5, Packaging: 6, Retail: 7, TotalLandToRetail: 8}
	assert.Equal(t, 36.0, f.Sum())
}
