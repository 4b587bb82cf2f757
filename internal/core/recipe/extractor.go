package recipe

import (
	"strings"

	"greenbite/internal/core/fuzzy"
	"greenbite/internal/core/text"
	"greenbite/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultCandidateLimit 標題比對保留的候選數
const DefaultCandidateLimit = 5

// Recipe 比對到的食譜
type Recipe struct {
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
}

// Extractor 食譜擷取器
type Extractor struct {
	normalizer *text.Normalizer
	resolver   *fuzzy.Resolver
	limit      int
}

// NewExtractor 建立擷取器；limit ≤ 0 時使用 DefaultCandidateLimit
func NewExtractor(normalizer *text.Normalizer, resolver *fuzzy.Resolver, limit int) *Extractor {
	if normalizer == nil {
		normalizer = text.NewNormalizer(nil)
	}
	if resolver == nil {
		resolver = fuzzy.NewResolver(nil)
	}
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	return &Extractor{normalizer: normalizer, resolver: resolver, limit: limit}
}

// ExtractIngredients 找出與料理名稱相符的食譜。
// 依候選分數、再依資料列順序輸出，沒有食材的資料列略過；沒有候選達到門檻或資料表不可用時回傳空結果。
func (e *Extractor) ExtractIngredients(dishName string, table *Table, threshold int) []Recipe {
	if threshold <= 0 {
		threshold = fuzzy.DefaultMinConfidence
	}
	if table == nil || table.Len() == 0 {
		return nil
	}

	query := text.CleanToken(e.normalizer.Normalize(dishName))
	candidates := e.resolver.ResolveMany(query, table.TitleKeys(), e.limit)

	var out []Recipe
	for _, cand := range candidates {
		if cand.Score < threshold {
			continue
		}
		for _, row := range table.RowsFor(cand.Key) {
			// 食材欄位空白的資料列不輸出
			ingredients := ParseIngredients(row.Ingredients)
			if len(ingredients) == 0 {
				continue
			}
			out = append(out, Recipe{Title: row.Title, Ingredients: ingredients})
		}
	}

	common.LogDebug("Recipe extraction finished",
		zap.String("dish", dishName),
		zap.String("query", query),
		zap.Int("candidates", len(candidates)),
		zap.Int("recipes", len(out)),
	)
	return out
}

// ParseIngredients 將食材欄位（例如 `["beef", "onion"]`）拆成清理後的清單
func ParseIngredients(field string) []string {
	stripped := text.StripIngredientField(field)
	var out []string
	for _, part := range strings.Split(stripped, ",") {
		token := strings.ToLower(strings.TrimSpace(part))
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}
