package footprint

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenbite/internal/core/emissions"
	core "greenbite/internal/core/footprint"
	"greenbite/internal/core/predictor"
	"greenbite/internal/core/recipe"
	"greenbite/internal/pkg/common"
)

type fakeService struct {
	err         error
	ingredients []string
	features    predictor.Features
	dishes      []string
}

func (f *fakeService) Search(_ context.Context, query string, _ int) (*core.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &core.SearchResult{
		Query:   query,
		Recipes: []recipe.Recipe{{Title: "Tomato Rice", Ingredients: []string{"tomatoes", "rice"}}},
	}, nil
}

func (f *fakeService) Emissions(_ context.Context, ingredients []string) (*core.EmissionsReport, error) {
	f.ingredients = ingredients
	if f.err != nil {
		return nil, f.err
	}
	return &core.EmissionsReport{TotalEmissions: 1.5, SustainabilityScore: 4.9, Requested: len(ingredients)}, nil
}

func (f *fakeService) Predict(_ context.Context, feat predictor.Features) (*core.Prediction, error) {
	f.features = feat
	return &core.Prediction{SustainabilityScore: emissions.Score(feat.Sum()), TotalEmissions: feat.Sum()}, nil
}

func (f *fakeService) Analyze(_ context.Context, dish string) (*core.DishAnalysis, error) {
	f.dishes = append(f.dishes, dish)
	if f.err != nil {
		return nil, f.err
	}
	return &core.DishAnalysis{Query: dish, Title: dish}, nil
}

func (f *fakeService) Compare(_ context.Context, d1, d2 string) (*core.Comparison, error) {
	f.dishes = append(f.dishes, d1, d2)
	if f.err != nil {
		return nil, f.err
	}
	return &core.Comparison{
		Dish1:            &core.DishAnalysis{Title: d1, SustainabilityScore: 4},
		Dish2:            &core.DishAnalysis{Title: d2, SustainabilityScore: 2},
		Winner:           core.VerdictDish1,
		ComparisonResult: "Dish 1 is more sustainable (Sustainability Score: 4.00).",
	}, nil
}

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	r.POST("/search", h.HandleSearch)
	r.POST("/emissions", h.HandleEmissions)
	r.POST("/predict", h.HandlePredict)
	r.POST("/analyze", h.HandleAnalyze)
	r.POST("/compare-dishes", h.HandleCompare)
	return r
}

func post(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleSearch(t *testing.T) {
	r := setupRouter(&fakeService{})

	w := post(t, r, "/search", `{"query":"tomato rice"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var res core.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "tomato rice", res.Query)
	require.Len(t, res.Recipes, 1)
	assert.Equal(t, []string{"tomatoes", "rice"}, res.Recipes[0].Ingredients)
}

func TestHandleSearch_InvalidJSON(t *testing.T) {
	r := setupRouter(&fakeService{})

	w := post(t, r, "/search", `{"query":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, common.ErrCodeInvalidRequest, decodeError(t, w).Code)
}

func TestHandleSearch_NotFound(t *testing.T) {
	r := setupRouter(&fakeService{err: common.ErrRecipeNotFound})

	w := post(t, r, "/search", `{"query":"xyzzy"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, common.ErrCodeRecipeNotFound, decodeError(t, w).Code)
}

func TestHandleEmissions(t *testing.T) {
	svc := &fakeService{}
	r := setupRouter(svc)

	w := post(t, r, "/emissions", `{"ingredients":["Beef","tomatoes"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Beef", "tomatoes"}, svc.ingredients)
}

func TestHandleEmissions_RejectsNonStrings(t *testing.T) {
	svc := &fakeService{}
	r := setupRouter(svc)

	w := post(t, r, "/emissions", `{"ingredients":["beef", 42]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.ingredients)
}

func TestHandleEmissions_MissingList(t *testing.T) {
	r := setupRouter(&fakeService{})

	w := post(t, r, "/emissions", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleEmissions_Timeout(t *testing.T) {
	r := setupRouter(&fakeService{err: context.DeadlineExceeded})

	w := post(t, r, "/emissions", `{"ingredients":["beef"]}`)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, common.ErrCodeGatewayTimeout, decodeError(t, w).Code)
}

func TestHandlePredict_DirectFeatures(t *testing.T) {
	svc := &fakeService{}
	r := setupRouter(svc)

	body := `{"land_use_change":0.1,"feed":0,"farm":1,"processing":0.2,"transport":0.1,` +
		`"packaging":0.1,"retail":0,"total_land_to_retail":1.5}`
	w := post(t, r, "/predict", body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 3.0, svc.features.Sum(), 1e-9)
	assert.Equal(t, 1.5, svc.features.TotalLandToRetail)
}

func TestHandlePredict_Breakdown(t *testing.T) {
	svc := &fakeService{}
	r := setupRouter(svc)

	w := post(t, r, "/predict", `{"breakdown":{"Farm":2.5,"Transport":0.5,"Total from Land to Retail":3}}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.5, svc.features.Farm)
	assert.Equal(t, 0.5, svc.features.Transport)
	assert.Equal(t, 3.0, svc.features.TotalLandToRetail)
}

func TestHandlePredict_NoData(t *testing.T) {
	r := setupRouter(&fakeService{})

	w := post(t, r, "/predict", `{"farm":1}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no valid emissions data found", decodeError(t, w).Message)
}

func TestHandleAnalyze(t *testing.T) {
	svc := &fakeService{}
	r := setupRouter(svc)

	w := post(t, r, "/analyze", `{"dish":"beef stew"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"beef stew"}, svc.dishes)
}

func TestHandleCompare(t *testing.T) {
	r := setupRouter(&fakeService{})

	w := post(t, r, "/compare-dishes", `{"dish1":"tomato rice","dish2":"beef stew"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "dish1", body["winner"])
	assert.Equal(t, "Dish 1 is more sustainable (Sustainability Score: 4.00).", body["comparison_result"])
}

func TestHandleCompare_MissingDish(t *testing.T) {
	svc := &fakeService{}
	r := setupRouter(svc)

	w := post(t, r, "/compare-dishes", `{"dish1":"tomato rice"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.dishes)
}
