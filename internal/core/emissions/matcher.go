package emissions

import (
	"fmt"
	"strings"

	"greenbite/internal/core/fuzzy"
	"greenbite/internal/core/text"
	"greenbite/internal/pkg/common"

	"go.uber.org/zap"
)

// DuplicatePolicy 多個輸入食材對應到同一鍵值時的處理方式
type DuplicatePolicy string

const (
	// DuplicateLastWriteWins 後出現的比對覆蓋先前的紀錄（同一鍵值只計一次）
	DuplicateLastWriteWins DuplicatePolicy = "last_write_wins"
	// DuplicateSum 同一鍵值的紀錄逐次累加
	DuplicateSum DuplicatePolicy = "sum"
)

// ParseDuplicatePolicy 解析設定值，空字串為 DuplicateLastWriteWins
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DuplicateLastWriteWins:
		return DuplicateLastWriteWins, nil
	case DuplicateSum:
		return DuplicateSum, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// Resolution 單一輸入食材的比對結果
type Resolution struct {
	Ingredient string `json:"ingredient"`
	Key        string `json:"key,omitempty"`
	Confidence int    `json:"confidence"`
	Matched    bool   `json:"matched"`
}

// Matches 比對結果，依鍵值第一次出現的順序保存紀錄
type Matches struct {
	order       []string
	records     map[string]Record
	Resolutions []Resolution
}

func newMatches() *Matches {
	return &Matches{records: make(map[string]Record)}
}

// Keys 依插入順序列出鍵值
func (m *Matches) Keys() []string {
	if m == nil {
		return nil
	}
	return m.order
}

// Record 取得鍵值的紀錄
func (m *Matches) Record(key string) (Record, bool) {
	if m == nil {
		return Record{}, false
	}
	rec, ok := m.records[key]
	return rec, ok
}

// Len 已比對的鍵值數量
func (m *Matches) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Unmatched 未比對成功的輸入食材
func (m *Matches) Unmatched() []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, r := range m.Resolutions {
		if !r.Matched {
			out = append(out, r.Ingredient)
		}
	}
	return out
}

// Put 依策略寫入一筆紀錄
func (m *Matches) Put(key string, rec Record, policy DuplicatePolicy) {
	existing, ok := m.records[key]
	if !ok {
		m.order = append(m.order, key)
		m.records[key] = rec
		return
	}
	if policy == DuplicateSum {
		existing.Add(rec)
		m.records[key] = existing
		return
	}
	m.records[key] = rec
}

// Matcher 將食材清單對應到排放紀錄
type Matcher struct {
	resolver      *fuzzy.Resolver
	minConfidence int
	policy        DuplicatePolicy
}

// MatcherOption Matcher 選項
type MatcherOption func(*Matcher)

// WithMinConfidence 設定最低信心分數
func WithMinConfidence(v int) MatcherOption {
	return func(m *Matcher) {
		if v > 0 {
			m.minConfidence = v
		}
	}
}

// WithDuplicatePolicy 設定重複鍵值策略
func WithDuplicatePolicy(p DuplicatePolicy) MatcherOption {
	return func(m *Matcher) {
		if p != "" {
			m.policy = p
		}
	}
}

// NewMatcher 建立排放比對器
func NewMatcher(resolver *fuzzy.Resolver, opts ...MatcherOption) *Matcher {
	if resolver == nil {
		resolver = fuzzy.NewResolver(nil)
	}
	m := &Matcher{
		resolver:      resolver,
		minConfidence: fuzzy.DefaultMinConfidence,
		policy:        DuplicateLastWriteWins,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MatchIngredients 逐一清理並比對食材。
// 未達門檻的食材直接略過；資料表不可用時回傳空結果。
func (m *Matcher) MatchIngredients(ingredients []string, table *Table) *Matches {
	out := newMatches()
	if table == nil || table.Len() == 0 {
		common.LogWarn("Emissions table unavailable, skipping match",
			zap.Int("ingredients", len(ingredients)),
		)
		return out
	}

	keys := table.ScoringKeys()
	for _, ingredient := range ingredients {
		cleaned := text.CleanToken(ingredient)
		res, ok := m.resolver.ResolveOne(cleaned, keys, m.minConfidence)
		if key, found := table.KeyFor(res.Key); found {
			res.Key = key
		}
		if !ok {
			common.LogInfo("No emissions match for ingredient",
				zap.String("ingredient", ingredient),
				zap.String("best_candidate", res.Key),
				zap.Int("confidence", res.Confidence),
			)
			out.Resolutions = append(out.Resolutions, Resolution{
				Ingredient: ingredient,
				Confidence: res.Confidence,
			})
			continue
		}

		rec, _ := table.Lookup(res.Key)
		out.Put(res.Key, rec, m.policy)
		out.Resolutions = append(out.Resolutions, Resolution{
			Ingredient: ingredient,
			Key:        res.Key,
			Confidence: res.Confidence,
			Matched:    true,
		})
		common.LogDebug("Matched ingredient",
			zap.String("ingredient", ingredient),
			zap.String("key", res.Key),
			zap.Int("confidence", res.Confidence),
		)
	}

	return out
}
