// Package text 提供食材與菜名的字串清理與同義詞正規化。
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanKey 正規化參考表鍵值：NFKC、小寫、合併空白
func CleanKey(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// CleanToken 清理使用者輸入或食譜中的食材字串。
// 移除括號、引號等標點，只保留字母、數字、底線與空白，再轉小寫並合併空白。
func CleanToken(s string) string {
	s = norm.NFKC.String(s)
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(cleaned), " ")
}

// StripIngredientField 移除食材欄位中除逗號外的所有標點
func StripIngredientField(s string) string {
	s = norm.NFKC.String(s)
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == ',':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, s)
}
