package emissions

import (
	"encoding/json"

	"greenbite/internal/pkg/common"

	"go.uber.org/zap"
)

// Totals 一道料理的彙總排放量
type Totals struct {
	Categories     Record
	TotalEmissions float64
}

// MarshalJSON 以欄位名稱輸出九個類別與總排放
func (t Totals) MarshalJSON() ([]byte, error) {
	m := t.Categories.Map()
	m[TotalEmissionsField] = t.TotalEmissions
	return json.Marshal(m)
}

// UnmarshalJSON 讀回 MarshalJSON 的輸出
func (t *Totals) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for _, c := range Categories() {
		t.Categories[c] = m[c.Column()]
	}
	t.TotalEmissions = m[TotalEmissionsField]
	return nil
}

// Aggregate 依插入順序累加所有比對到的紀錄。
// Total Emissions 一律由九個類別的總和重新計算；沒有任何紀錄時回傳全零。
func Aggregate(matches *Matches) Totals {
	var totals Totals
	for _, key := range matches.Keys() {
		rec, _ := matches.Record(key)
		if skipped := totals.Categories.Add(rec); len(skipped) > 0 {
			names := make([]string, len(skipped))
			for i, c := range skipped {
				names[i] = c.Column()
			}
			common.LogWarn("Skipped non-numeric emissions values",
				zap.String("key", key),
				zap.Strings("categories", names),
			)
		}
	}
	totals.TotalEmissions = totals.Categories.Sum()
	return totals
}
