// Package fuzzy 以近似字串比對將清理後的鍵值對應到參考表。
//
// 分數相同的候選一律以鍵值字典序決定先後，因此結果不依賴參考表的載入順序。
package fuzzy

import "sort"

// DefaultMinConfidence 預設的最低信心分數
const DefaultMinConfidence = 80

// ScoreFunc 計算兩個字串 0-100 的相似度
type ScoreFunc func(a, b string) int

// MatchResult 單次比對結果
type MatchResult struct {
	Query      string `json:"query"`
	Key        string `json:"key"`
	Confidence int    `json:"confidence"`
}

// Candidate 多候選比對中的一筆
type Candidate struct {
	Key   string `json:"key"`
	Score int    `json:"score"`
}

// Resolver 模糊比對器
type Resolver struct {
	score ScoreFunc
}

// NewResolver 建立比對器，score 為 nil 時使用 WRatio
func NewResolver(score ScoreFunc) *Resolver {
	if score == nil {
		score = WRatio
	}
	return &Resolver{score: score}
}

// ResolveOne 找出最佳候選；最佳分數低於 minConfidence 時回傳 false
func (r *Resolver) ResolveOne(key string, candidates []string, minConfidence int) (MatchResult, bool) {
	if key == "" || len(candidates) == 0 {
		return MatchResult{Query: key}, false
	}

	best := Candidate{Score: -1}
	for _, cand := range candidates {
		s := r.score(key, cand)
		if better(Candidate{Key: cand, Score: s}, best) {
			best = Candidate{Key: cand, Score: s}
		}
	}

	result := MatchResult{Query: key, Key: best.Key, Confidence: best.Score}
	if best.Score < minConfidence {
		return result, false
	}
	return result, true
}

// ResolveMany 回傳分數由高到低的前 limit 個候選（limit ≤ 0 表示全部）
func (r *Resolver) ResolveMany(query string, candidates []string, limit int) []Candidate {
	if query == "" || len(candidates) == 0 {
		return nil
	}

	scored := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		scored = append(scored, Candidate{Key: cand, Score: r.score(query, cand)})
	}
	sort.Slice(scored, func(i, j int) bool {
		return better(scored[i], scored[j])
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// better 分數較高者優先，同分時鍵值字典序較小者優先
func better(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Key < b.Key
}
