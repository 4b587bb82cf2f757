package emissions

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"greenbite/internal/core/text"
	"greenbite/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrMissingColumns 資料表缺少必要欄位
var ErrMissingColumns = errors.New("emissions table is missing required columns")

// Table 唯讀的排放參考表，建立後不再修改
type Table struct {
	keys    []string
	records map[string]Record
	names   map[string]string

	// 比對用的去標點鍵值，對應回原鍵值
	scoring   []string
	scoringTo map[string]string
}

// NewTable 由表頭與逐列資料建立參考表。
// 缺少任何必要欄位時回傳 ErrMissingColumns；數值無法解析時視為 0，負值截為 0。
func NewTable(headers []string, rows []map[string]string) (*Table, error) {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, col := range RequiredColumns() {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	t := &Table{
		records:   make(map[string]Record, len(rows)),
		names:     make(map[string]string, len(rows)),
		scoringTo: make(map[string]string, len(rows)),
	}
	for _, row := range rows {
		name := row[KeyColumn]
		key := text.CleanKey(name)
		if key == "" {
			continue
		}
		if _, dup := t.records[key]; dup {
			common.LogDebug("Duplicate emissions key ignored", zap.String("key", key))
			continue
		}

		var rec Record
		for _, c := range Categories() {
			rec[c] = coerce(row[c.Column()])
		}
		t.keys = append(t.keys, key)
		t.records[key] = rec
		t.names[key] = strings.TrimSpace(name)

		if sk := text.CleanToken(name); sk != "" {
			if _, dup := t.scoringTo[sk]; !dup {
				t.scoring = append(t.scoring, sk)
				t.scoringTo[sk] = key
			}
		}
	}

	return t, nil
}

// coerce 將儲存格轉為非負數值
func coerce(cell string) float64 {
	cell = strings.TrimSpace(strings.ReplaceAll(cell, ",", ""))
	if cell == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Keys 依載入順序列出所有鍵值
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	return t.keys
}

// ScoringKeys 與 CleanToken 輸出同形式的鍵值，供模糊比對使用
func (t *Table) ScoringKeys() []string {
	if t == nil {
		return nil
	}
	return t.scoring
}

// KeyFor 將比對用鍵值轉回原鍵值
func (t *Table) KeyFor(scoringKey string) (string, bool) {
	if t == nil {
		return "", false
	}
	key, ok := t.scoringTo[scoringKey]
	return key, ok
}

// Lookup 查詢鍵值對應的排放紀錄
func (t *Table) Lookup(key string) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	rec, ok := t.records[key]
	return rec, ok
}

// DisplayName 鍵值對應的原始名稱
func (t *Table) DisplayName(key string) string {
	if t == nil {
		return key
	}
	if name, ok := t.names[key]; ok {
		return name
	}
	return key
}

// Len 資料列數
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}
