// Package emissions 將食材對應到溫室氣體排放資料，並彙總、評分與換算。
package emissions

import (
	"encoding/json"
	"fmt"
	"math"
)

// Category 排放類別
type Category int

const (
	LandUseChange Category = iota
	Feed
	Farm
	Processing
	Transport
	Packaging
	Retail
	TotalLandToRetail
	TotalGlobalAverage

	// CategoryCount 類別數量
	CategoryCount
)

// KeyColumn 排放資料表的鍵值欄位
const KeyColumn = "Food product"

// TotalEmissionsField 彙總結果中的總排放欄位
const TotalEmissionsField = "Total Emissions"

var categoryColumns = [CategoryCount]string{
	LandUseChange:      "Land Use Change",
	Feed:               "Feed",
	Farm:               "Farm",
	Processing:         "Processing",
	Transport:          "Transport",
	Packaging:          "Packaging",
	Retail:             "Retail",
	TotalLandToRetail:  "Total from Land to Retail",
	TotalGlobalAverage: "Total Global Average GHG Emissions per kg",
}

// Categories 依固定順序列出所有類別
func Categories() []Category {
	out := make([]Category, CategoryCount)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// Column 類別對應的資料表欄位名稱
func (c Category) Column() string {
	if c < 0 || c >= CategoryCount {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryColumns[c]
}

func (c Category) String() string {
	return c.Column()
}

// RequiredColumns 排放資料表必須具備的欄位
func RequiredColumns() []string {
	cols := []string{KeyColumn}
	for _, c := range Categories() {
		cols = append(cols, c.Column())
	}
	return cols
}

// Record 單一食材各類別的排放量 (kg CO2e / kg)
type Record [CategoryCount]float64

// Get 取得類別數值
func (r Record) Get(c Category) float64 {
	return r[c]
}

// Sum 九個類別的總和
func (r Record) Sum() float64 {
	total := 0.0
	for _, v := range r {
		total += v
	}
	return total
}

// Add 逐類別相加，非有限值略過並回報被略過的類別
func (r *Record) Add(other Record) []Category {
	var skipped []Category
	for i, v := range other {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			skipped = append(skipped, Category(i))
			continue
		}
		r[i] += v
	}
	return skipped
}

// Map 以欄位名稱為鍵輸出
func (r Record) Map() map[string]float64 {
	out := make(map[string]float64, CategoryCount)
	for _, c := range Categories() {
		out[c.Column()] = r[c]
	}
	return out
}

// MarshalJSON 以欄位名稱為鍵輸出 JSON
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// UnmarshalJSON 由欄位名稱為鍵的 JSON 讀回
func (r *Record) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for _, c := range Categories() {
		r[c] = m[c.Column()]
	}
	return nil
}
