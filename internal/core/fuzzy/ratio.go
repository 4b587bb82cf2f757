package fuzzy

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	partialScale      = 0.9
	longPartialScale  = 0.6
	tokenScale        = 0.95
	longPartialFactor = 8.0
)

// Ratio 以 Levenshtein 距離計算 0-100 的相似度：100·(1 − d/maxLen)
func Ratio(a, b string) int {
	return int(math.Round(ratio([]rune(a), []rune(b)) * 100))
}

func ratio(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	d := levenshtein.ComputeDistance(string(a), string(b))
	return 1 - float64(d)/float64(maxLen)
}

// PartialRatio 將較短字串滑過較長字串，取最佳視窗的相似度
func PartialRatio(a, b string) int {
	return int(math.Round(partialRatio([]rune(a), []rune(b)) * 100))
}

func partialRatio(a, b []rune) float64 {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}

	best := 0.0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		r := ratio(shorter, longer[i:i+len(shorter)])
		if r > best {
			best = r
			if best == 1 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio 先將詞彙排序再計算相似度，不受詞序影響
func TokenSortRatio(a, b string) int {
	return Ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// WRatio 加權相似度：取基本、部分與詞序無關三種分數的最大值。
// 長度不同時才採用部分比對分數，長度相差 8 倍以上時降低其權重。
func WRatio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	ra, rb := []rune(a), []rune(b)
	base := ratio(ra, rb)
	tokens := ratio([]rune(sortTokens(a)), []rune(sortTokens(b))) * tokenScale
	best := math.Max(base, tokens)

	shortLen, longLen := len(ra), len(rb)
	if shortLen > longLen {
		shortLen, longLen = longLen, shortLen
	}
	if shortLen != longLen {
		scale := partialScale
		if float64(longLen)/float64(shortLen) >= longPartialFactor {
			scale = longPartialScale
		}
		best = math.Max(best, partialRatio(ra, rb)*scale)
	}

	return int(math.Round(best * 100))
}
