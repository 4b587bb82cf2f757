package footprint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenbite/internal/core/cache"
	"greenbite/internal/core/emissions"
	"greenbite/internal/core/predictor"
	"greenbite/internal/core/recipe"
	"greenbite/internal/infrastructure/config"
	"greenbite/internal/infrastructure/dataset"
	"greenbite/internal/pkg/common"
)

type staticSource struct {
	snap *dataset.Snapshot
}

func (s *staticSource) Current() *dataset.Snapshot { return s.snap }

type countingRecorder struct {
	matched, unmatched int
	hits, misses       int
}

func (r *countingRecorder) RecordResolutions(m, u int) {
	r.matched += m
	r.unmatched += u
}

func (r *countingRecorder) RecordCacheLookup(hit bool) {
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

type fakePredictor struct {
	score float64
	err   error
}

func (p fakePredictor) Predict(context.Context, predictor.Features) (float64, error) {
	return p.score, p.err
}

func emissionsRow(name string, values ...string) map[string]string {
	r := map[string]string{emissions.KeyColumn: name}
	for i, c := range emissions.Categories() {
		r[c.Column()] = values[i]
	}
	return r
}

func testSnapshot(t *testing.T, version string) *dataset.Snapshot {
	t.Helper()
	em, err := emissions.NewTable(emissions.RequiredColumns(), []map[string]string{
		emissionsRow("Tomatoes", "0.4", "0", "0.7", "0", "0.2", "0.1", "0", "1.4", "1.4"),
		emissionsRow("Beef (beef herd)", "16", "1.9", "39", "1.3", "0.3", "0.2", "0.2", "59.6", "59.6"),
		emissionsRow("Rice", "0", "0", "3.6", "0.1", "0.1", "0.1", "0.1", "4", "4"),
		emissionsRow("Potatoes", "0", "0", "0.2", "0", "0.1", "0", "0", "0.3", "0.3"),
	})
	require.NoError(t, err)

	rc, err := recipe.NewTable([]string{"title", "NER"}, []map[string]string{
		{"title": "Beef Stew", "NER": `["beef", "potatoes", "unobtainium"]`},
		{"title": "Tomato Rice", "NER": ""},
		{"title": "Tomato Rice", "NER": `["tomatoes", "rice"]`},
		{"title": "Rice Bowl", "NER": `["rice", "tomatoes"]`},
	}, recipe.Columns{})
	require.NoError(t, err)

	return &dataset.Snapshot{Recipes: rc, Emissions: em, Version: version, LoadedAt: time.Now()}
}

func newTestService(t *testing.T, c cache.Cache, p Predictor, r Recorder) (*Service, *staticSource) {
	t.Helper()
	src := &staticSource{snap: testSnapshot(t, "v1")}
	return NewService(src, Options{}, c, p, r), src
}

func TestSearch(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, nil)

	res, err := svc.Search(context.Background(), " Tomato Rice ", 0)

	require.NoError(t, err)
	require.Len(t, res.Recipes, 1)
	assert.Equal(t, "Tomato Rice", res.Recipes[0].Title)
	assert.Equal(t, []string{"tomatoes", "rice"}, res.Recipes[0].Ingredients)
}

func TestSearch_Errors(t *testing.T) {
	svc, src := newTestService(t, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Search(ctx, "  ", 0)
	assert.True(t, common.IsValidationError(err))

	_, err = svc.Search(ctx, "xyzzyqwerty", 0)
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)

	src.snap = &dataset.Snapshot{}
	_, err = svc.Search(ctx, "tomato rice", 0)
	assert.ErrorIs(t, err, common.ErrDatasetUnavailable)
}

func TestEmissions(t *testing.T) {
	rec := &countingRecorder{}
	svc, _ := newTestService(t, nil, nil, rec)

	report, err := svc.Emissions(context.Background(), []string{"Tomatoes", "  ", "xyzzyqwerty"})

	require.NoError(t, err)
	assert.Equal(t, 2, report.Requested)
	assert.Equal(t, []string{"xyzzyqwerty"}, report.Unmatched)
	require.Len(t, report.Matched, 1)
	assert.Equal(t, "tomatoes", report.Matched[0].Key)
	assert.Equal(t, 0.7, report.Breakdown["Farm"])
	assert.Equal(t, 4.2, report.Breakdown[emissions.TotalEmissionsField])
	assert.Equal(t, 4.2, report.TotalEmissions)
	assert.Equal(t, emissions.Score(report.TotalEmissions), report.SustainabilityScore)
	assert.Equal(t, 1, rec.matched)
	assert.Equal(t, 1, rec.unmatched)
}

func TestEmissions_EmptyInputIsZero(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, nil)

	report, err := svc.Emissions(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0.0, report.TotalEmissions)
	assert.Equal(t, emissions.PlaceholderEquivalence, report.Equivalence)
	assert.Equal(t, emissions.FallbackScore, report.SustainabilityScore)
	assert.Empty(t, report.Matched)
}

func TestEmissions_Unavailable(t *testing.T) {
	svc := NewService(&staticSource{}, Options{}, nil, nil, nil)

	_, err := svc.Emissions(context.Background(), []string{"rice"})

	assert.ErrorIs(t, err, common.ErrDatasetUnavailable)
}

func TestPredict(t *testing.T) {
	f := predictor.Features{Farm: 10, TotalLandToRetail: 15.05}

	local, err := NewService(nil, Options{}, nil, nil, nil).Predict(context.Background(), f)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, local.SustainabilityScore, 1e-9)
	assert.Nil(t, local.ModelScore)

	withModel, err := NewService(nil, Options{}, nil, fakePredictor{score: 4.2}, nil).Predict(context.Background(), f)
	require.NoError(t, err)
	require.NotNil(t, withModel.ModelScore)
	assert.Equal(t, 4.2, *withModel.ModelScore)

	degraded, err := NewService(nil, Options{}, nil, fakePredictor{err: errors.New("down")}, nil).Predict(context.Background(), f)
	require.NoError(t, err)
	assert.Nil(t, degraded.ModelScore)
	assert.Equal(t, local.SustainabilityScore, degraded.SustainabilityScore)
}

func TestAnalyze(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, nil)

	a, err := svc.Analyze(context.Background(), "beef stew")

	require.NoError(t, err)
	assert.Equal(t, "Beef Stew", a.Title)
	assert.Equal(t, []IngredientEmission{
		{Name: "beef", Key: "beef (beef herd)", Emission: 59.6},
		{Name: "potatoes", Key: "potatoes", Emission: 0.3},
		{Name: "unobtainium"},
	}, a.Ingredients)
	assert.Equal(t, []string{"unobtainium"}, a.Unmatched)
	assert.Equal(t, 1.0, a.SustainabilityScore)
	assert.Equal(t, a.Totals.TotalEmissions, a.TotalEmissions)
	assert.Equal(t, "v1", a.DatasetVersion)
}

func TestAnalyze_UsesVariantWithIngredients(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, nil)

	res, err := svc.Search(context.Background(), "tomato rice", 0)
	require.NoError(t, err)
	for _, r := range res.Recipes {
		assert.NotEmpty(t, r.Ingredients)
	}

	a, err := svc.Analyze(context.Background(), "tomato rice")
	require.NoError(t, err)
	assert.Len(t, a.Ingredients, 2)
	assert.InDelta(t, 16.2, a.TotalEmissions, 1e-9)
	assert.NotEqual(t, emissions.FallbackScore, a.SustainabilityScore)
}

func TestAnalyze_Cached(t *testing.T) {
	rec := &countingRecorder{}
	mem := cache.NewManager(config.CacheConfig{MaxSize: 10, TTL: time.Hour})
	defer mem.Close()
	svc, src := newTestService(t, mem, nil, rec)
	ctx := context.Background()

	first, err := svc.Analyze(ctx, "Tomato Rice")
	require.NoError(t, err)
	second, err := svc.Analyze(ctx, "tomato   rice!")
	require.NoError(t, err)

	assert.Equal(t, 1, rec.misses)
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, first.TotalEmissions, second.TotalEmissions)
	assert.Equal(t, first.Totals, second.Totals)
	assert.Equal(t, "tomato   rice!", second.Query)

	src.snap = testSnapshot(t, "v2")
	third, err := svc.Analyze(ctx, "Tomato Rice")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.misses)
	assert.Equal(t, "v2", third.DatasetVersion)
}

func TestCompare(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, nil)

	cmp, err := svc.Compare(context.Background(), "beef stew", "tomato rice")

	require.NoError(t, err)
	assert.Equal(t, VerdictDish2, cmp.Winner)
	assert.Greater(t, cmp.Dish2.SustainabilityScore, cmp.Dish1.SustainabilityScore)
	assert.Contains(t, cmp.ComparisonResult, "Dish 2 is more sustainable")

	cmp, err = svc.Compare(context.Background(), "tomato rice", "beef stew")
	require.NoError(t, err)
	assert.Equal(t, VerdictDish1, cmp.Winner)
}

func TestCompare_EqualScoresIsDraw(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, nil)

	cmp, err := svc.Compare(context.Background(), "tomato rice", "rice bowl")

	require.NoError(t, err)
	assert.Equal(t, "Tomato Rice", cmp.Dish1.Title)
	assert.Equal(t, "Rice Bowl", cmp.Dish2.Title)
	assert.Equal(t, VerdictDraw, cmp.Winner)
	assert.Contains(t, cmp.ComparisonResult, "same sustainability score")
}

func TestCompare_Errors(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Compare(ctx, "beef stew", "")
	assert.True(t, common.IsValidationError(err))

	_, err = svc.Compare(ctx, "beef stew", "xyzzyqwerty")
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)
	assert.Contains(t, err.Error(), "dish 2")
}

func TestOperations_StopAfterDeadline(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := svc.Search(ctx, "tomato rice", 0)
	assert.ErrorIs(t, err, common.ErrGatewayTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = svc.Emissions(ctx, []string{"tomatoes"})
	assert.ErrorIs(t, err, common.ErrGatewayTimeout)

	_, err = svc.Analyze(ctx, "tomato rice")
	assert.ErrorIs(t, err, common.ErrGatewayTimeout)

	_, err = svc.Compare(ctx, "tomato rice", "beef stew")
	assert.ErrorIs(t, err, common.ErrGatewayTimeout)
}
