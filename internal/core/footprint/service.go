// Package footprint 串接食譜擷取、排放比對、彙總與評分，提供料理層級的操作。
package footprint

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"greenbite/internal/core/cache"
	"greenbite/internal/core/emissions"
	"greenbite/internal/core/fuzzy"
	"greenbite/internal/core/predictor"
	"greenbite/internal/core/recipe"
	"greenbite/internal/core/text"
	"greenbite/internal/infrastructure/dataset"
	"greenbite/internal/pkg/common"

	"go.uber.org/zap"
)

const analysisNamespace = "analysis"

// SnapshotSource 提供目前的資料集快照
type SnapshotSource interface {
	Current() *dataset.Snapshot
}

// Predictor 外部模型評分
type Predictor interface {
	Predict(ctx context.Context, f predictor.Features) (float64, error)
}

// Recorder 比對與快取指標
type Recorder interface {
	RecordResolutions(matched, unmatched int)
	RecordCacheLookup(hit bool)
}

// Options 服務參數
type Options struct {
	RecipeThreshold        int
	CandidateLimit         int
	EmissionsMinConfidence int
	DuplicatePolicy        emissions.DuplicatePolicy
	Synonyms               text.SynonymTable
}

// Service 料理碳足跡服務
type Service struct {
	source     SnapshotSource
	normalizer *text.Normalizer
	extractor  *recipe.Extractor
	matcher    *emissions.Matcher
	cache      cache.Cache
	predictor  Predictor
	recorder   Recorder
	threshold  int
}

// NewService 創建服務；cache、predictor 與 recorder 可為 nil
func NewService(source SnapshotSource, opts Options, c cache.Cache, p Predictor, r Recorder) *Service {
	normalizer := text.NewNormalizer(opts.Synonyms)
	resolver := fuzzy.NewResolver(nil)
	threshold := opts.RecipeThreshold
	if threshold <= 0 {
		threshold = fuzzy.DefaultMinConfidence
	}
	return &Service{
		source:     source,
		normalizer: normalizer,
		extractor:  recipe.NewExtractor(normalizer, resolver, opts.CandidateLimit),
		matcher: emissions.NewMatcher(resolver,
			emissions.WithMinConfidence(opts.EmissionsMinConfidence),
			emissions.WithDuplicatePolicy(opts.DuplicatePolicy),
		),
		cache:     c,
		predictor: p,
		recorder:  r,
		threshold: threshold,
	}
}

func (s *Service) snapshot() *dataset.Snapshot {
	if s.source == nil {
		return nil
	}
	return s.source.Current()
}

// Search 找出料理名稱對應的食譜；threshold ≤ 0 時使用預設門檻
func (s *Service) Search(ctx context.Context, query string, threshold int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, common.NewValidationError("query cannot be empty")
	}
	if threshold > 100 {
		return nil, common.NewValidationError("threshold must be between 0 and 100")
	}
	if threshold <= 0 {
		threshold = s.threshold
	}

	snap := s.snapshot()
	if snap == nil || snap.Recipes == nil {
		return nil, common.ErrDatasetUnavailable.Wrap(errors.New("recipes dataset not loaded"))
	}

	if err := checkDeadline(ctx, "search"); err != nil {
		return nil, err
	}
	recipes := s.extractor.ExtractIngredients(query, snap.Recipes, threshold)
	if err := checkDeadline(ctx, "search"); err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, common.ErrRecipeNotFound.Wrap(fmt.Errorf("no recipe for %q", query))
	}
	return &SearchResult{Query: query, Recipes: recipes}, nil
}

// Emissions 計算食材清單的排放；空清單為合法輸入，回傳全零報告
func (s *Service) Emissions(ctx context.Context, ingredients []string) (*EmissionsReport, error) {
	snap := s.snapshot()
	if snap == nil || snap.Emissions == nil {
		return nil, common.ErrDatasetUnavailable.Wrap(errors.New("emissions dataset not loaded"))
	}

	cleaned := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			cleaned = append(cleaned, ing)
		}
	}

	if err := checkDeadline(ctx, "emissions"); err != nil {
		return nil, err
	}
	matches := s.matcher.MatchIngredients(cleaned, snap.Emissions)
	if err := checkDeadline(ctx, "emissions"); err != nil {
		return nil, err
	}
	s.recordResolutions(matches)
	totals := emissions.Aggregate(matches)

	breakdown := make(map[string]float64, emissions.CategoryCount+1)
	for _, c := range emissions.Categories() {
		breakdown[c.Column()] = common.Round(totals.Categories.Get(c), 3)
	}
	breakdown[emissions.TotalEmissionsField] = common.Round(totals.TotalEmissions, 3)

	report := &EmissionsReport{
		Breakdown:           breakdown,
		TotalEmissions:      common.Round(totals.TotalEmissions, 2),
		Equivalence:         emissions.Equivalences(totals.TotalEmissions),
		SustainabilityScore: emissions.Score(totals.TotalEmissions),
		Requested:           len(cleaned),
		Matched:             []emissions.Resolution{},
		Unmatched:           []string{},
	}
	for _, r := range matches.Resolutions {
		if r.Matched {
			report.Matched = append(report.Matched, r)
		} else {
			report.Unmatched = append(report.Unmatched, r.Ingredient)
		}
	}
	return report, nil
}

// Predict 由八個排放特徵的總和計算分數，並在設定外部模型時附上模型分數
func (s *Service) Predict(ctx context.Context, f predictor.Features) (*Prediction, error) {
	total := f.Sum()
	out := &Prediction{
		SustainabilityScore: emissions.Score(total),
		TotalEmissions:      common.Round(total, 2),
	}
	if s.predictor == nil {
		return out, nil
	}

	score, err := s.predictor.Predict(ctx, f)
	if err != nil {
		common.LogWarn("Predictor unavailable, using local score", zap.Error(err))
		return out, nil
	}
	out.ModelScore = &score
	return out, nil
}

// Analyze 分析單一料理：取第一筆比對到的食譜並計算其排放與分數。
// 結果以資料集版本與正規化後的料理名稱為鍵快取。
func (s *Service) Analyze(ctx context.Context, dish string) (*DishAnalysis, error) {
	dish = strings.TrimSpace(dish)
	if dish == "" {
		return nil, common.NewValidationError("dish name cannot be empty")
	}

	snap := s.snapshot()
	if !snap.Ready() {
		return nil, common.ErrDatasetUnavailable
	}

	key := snap.Version + ":" + text.CleanToken(s.normalizer.Normalize(dish))
	if cached, ok := s.cachedAnalysis(ctx, key); ok {
		cached.Query = dish
		return cached, nil
	}

	if err := checkDeadline(ctx, "analyze"); err != nil {
		return nil, err
	}
	recipes := s.extractor.ExtractIngredients(dish, snap.Recipes, s.threshold)
	if err := checkDeadline(ctx, "analyze"); err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, common.ErrRecipeNotFound.Wrap(fmt.Errorf("no recipe for %q", dish))
	}
	first := recipes[0]

	matches := s.matcher.MatchIngredients(first.Ingredients, snap.Emissions)
	if err := checkDeadline(ctx, "analyze"); err != nil {
		return nil, err
	}
	s.recordResolutions(matches)
	totals := emissions.Aggregate(matches)

	analysis := &DishAnalysis{
		Query:               dish,
		Title:               first.Title,
		Ingredients:         ingredientEmissions(matches),
		Totals:              totals,
		TotalEmissions:      totals.TotalEmissions,
		SustainabilityScore: emissions.Score(totals.TotalEmissions),
		Equivalence:         emissions.Equivalences(totals.TotalEmissions),
		Unmatched:           matches.Unmatched(),
		DatasetVersion:      snap.Version,
	}

	s.storeAnalysis(ctx, key, analysis)
	return analysis, nil
}

// ingredientEmissions 依輸入順序列出每個食材的 Total Global Average 排放量
func ingredientEmissions(matches *emissions.Matches) []IngredientEmission {
	out := make([]IngredientEmission, 0, len(matches.Resolutions))
	for _, r := range matches.Resolutions {
		ie := IngredientEmission{Name: r.Ingredient}
		if r.Matched {
			rec, _ := matches.Record(r.Key)
			ie.Key = r.Key
			ie.Emission = rec.Get(emissions.TotalGlobalAverage)
		}
		out = append(out, ie)
	}
	return out
}

// Compare 比較兩道料理；分數較高者較永續，同分時明確回報平手
func (s *Service) Compare(ctx context.Context, dish1, dish2 string) (*Comparison, error) {
	if strings.TrimSpace(dish1) == "" || strings.TrimSpace(dish2) == "" {
		return nil, common.NewValidationError("both dish names are required")
	}

	a, err := s.Analyze(ctx, dish1)
	if err != nil {
		return nil, fmt.Errorf("dish 1: %w", err)
	}
	b, err := s.Analyze(ctx, dish2)
	if err != nil {
		return nil, fmt.Errorf("dish 2: %w", err)
	}

	cmp := &Comparison{Dish1: a, Dish2: b}
	switch {
	case a.SustainabilityScore > b.SustainabilityScore:
		cmp.Winner = VerdictDish1
		cmp.ComparisonResult = fmt.Sprintf("Dish 1 is more sustainable (Sustainability Score: %.2f).", a.SustainabilityScore)
	case a.SustainabilityScore < b.SustainabilityScore:
		cmp.Winner = VerdictDish2
		cmp.ComparisonResult = fmt.Sprintf("Dish 2 is more sustainable (Sustainability Score: %.2f).", b.SustainabilityScore)
	default:
		cmp.Winner = VerdictDraw
		cmp.ComparisonResult = fmt.Sprintf("Both dishes have the same sustainability score (Sustainability Score: %.2f).", a.SustainabilityScore)
	}
	return cmp, nil
}

// checkDeadline 請求已逾時或取消時停止後續步驟
func checkDeadline(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return common.ErrGatewayTimeout.Wrap(fmt.Errorf("%s: %w", op, err))
	}
	return nil
}

func (s *Service) recordResolutions(m *emissions.Matches) {
	if s.recorder == nil {
		return
	}
	unmatched := len(m.Unmatched())
	s.recorder.RecordResolutions(len(m.Resolutions)-unmatched, unmatched)
}

func (s *Service) cachedAnalysis(ctx context.Context, key string) (*DishAnalysis, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, analysisNamespace, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("Analysis cache lookup failed", zap.Error(err))
		}
		s.recordCache(false)
		return nil, false
	}

	var out DishAnalysis
	if err := common.ParseJSON(raw, &out); err != nil {
		common.LogWarn("Discarding corrupt cached analysis", zap.Error(err))
		s.recordCache(false)
		return nil, false
	}
	s.recordCache(true)
	return &out, true
}

func (s *Service) storeAnalysis(ctx context.Context, key string, a *DishAnalysis) {
	if s.cache == nil {
		return
	}
	raw, err := common.ToJSON(a)
	if err != nil {
		common.LogWarn("Failed to encode analysis for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, analysisNamespace, key, raw); err != nil {
		common.LogWarn("Failed to cache analysis", zap.Error(err))
	}
}

func (s *Service) recordCache(hit bool) {
	if s.recorder != nil {
		s.recorder.RecordCacheLookup(hit)
	}
}
