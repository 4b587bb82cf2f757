package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondError(c, err)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", NewValidationError("bad input"), http.StatusBadRequest, ErrCodeInvalidRequest},
		{"custom", ErrRecipeNotFound, http.StatusNotFound, ErrCodeRecipeNotFound},
		{"wrapped custom", fmt.Errorf("dish 1: %w", ErrRecipeNotFound.Wrap(errors.New("x"))), http.StatusNotFound, ErrCodeRecipeNotFound},
		{"deadline", fmt.Errorf("search: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, ErrCodeGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := respond(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestRespondError_ValidationMessage(t *testing.T) {
	_, resp := respond(t, NewValidationError("no valid emissions data found"))
	assert.Equal(t, "no valid emissions data found", resp.Message)
}

func TestCustomError_IsComparesCode(t *testing.T) {
	wrapped := ErrDatasetUnavailable.Wrap(errors.New("file missing"))

	assert.ErrorIs(t, wrapped, ErrDatasetUnavailable)
	assert.NotErrorIs(t, wrapped, ErrRecipeNotFound)
	assert.Equal(t, "reference dataset not loaded: file missing", wrapped.Error())
}

func TestParseJSON(t *testing.T) {
	var v struct{ A int }

	require.NoError(t, ParseJSON(`{"A":1}`, &v))
	assert.Equal(t, 1, v.A)
	assert.Error(t, ParseJSON(`{"A":1} {"A":2}`, &v))
	assert.Error(t, ParseJSON(`{"A":`, &v))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 4.2, Round(4.19999, 2))
	assert.Equal(t, 1.235, Round(1.2346, 3))
	assert.Equal(t, 0.0, Round(math.NaN(), 2))
}
