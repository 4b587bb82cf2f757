// Package recipe 由料理名稱在食譜語料中找出對應的食譜與食材清單。
package recipe

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"greenbite/internal/core/text"
)

// 預設欄位名稱
const (
	DefaultTitleColumn       = "title"
	DefaultIngredientsColumn = "NER"
)

// ErrMissingColumns 食譜資料表缺少必要欄位
var ErrMissingColumns = errors.New("recipe table is missing required columns")

// Columns 食譜資料表的欄位名稱
type Columns struct {
	Title       string
	Ingredients string
}

func (c Columns) withDefaults() Columns {
	if c.Title == "" {
		c.Title = DefaultTitleColumn
	}
	if c.Ingredients == "" {
		c.Ingredients = DefaultIngredientsColumn
	}
	return c
}

// Row 一筆食譜
type Row struct {
	Title       string
	Ingredients string
}

// Table 唯讀的食譜語料；同一標題可對應多筆食譜
type Table struct {
	rows    []Row
	byTitle map[string][]int
	titles  []string
}

// NewTable 由表頭與逐列資料建立食譜表，標題清理後為空的列會被略過
func NewTable(headers []string, rows []map[string]string, cols Columns) (*Table, error) {
	cols = cols.withDefaults()

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, col := range []string{cols.Title, cols.Ingredients} {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	t := &Table{byTitle: make(map[string][]int)}
	for _, r := range rows {
		title := strings.TrimSpace(r[cols.Title])
		key := text.CleanToken(title)
		if key == "" {
			continue
		}
		if _, seen := t.byTitle[key]; !seen {
			t.titles = append(t.titles, key)
		}
		t.byTitle[key] = append(t.byTitle[key], len(t.rows))
		t.rows = append(t.rows, Row{Title: title, Ingredients: r[cols.Ingredients]})
	}
	sort.Strings(t.titles)

	return t, nil
}

// TitleKeys 排序後的不重複標題鍵值
func (t *Table) TitleKeys() []string {
	if t == nil {
		return nil
	}
	return t.titles
}

// RowsFor 依原始順序回傳標題鍵值對應的所有食譜
func (t *Table) RowsFor(key string) []Row {
	if t == nil {
		return nil
	}
	idx := t.byTitle[key]
	out := make([]Row, 0, len(idx))
	for _, i := range idx {
		out = append(out, t.rows[i])
	}
	return out
}

// Len 食譜筆數
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}
