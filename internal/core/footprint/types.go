package footprint

import (
	"greenbite/internal/core/emissions"
	"greenbite/internal/core/recipe"
)

// SearchResult 料理搜尋結果
type SearchResult struct {
	Query   string          `json:"query"`
	Recipes []recipe.Recipe `json:"recipes"`
}

// EmissionsReport 食材清單的排放報告
type EmissionsReport struct {
	Breakdown           map[string]float64     `json:"breakdown"`
	TotalEmissions      float64                `json:"total_emissions"`
	Equivalence         emissions.Equivalence  `json:"emissions_equivalence"`
	SustainabilityScore float64                `json:"sustainability_score"`
	Requested           int                    `json:"requested"`
	Matched             []emissions.Resolution `json:"matched"`
	Unmatched           []string               `json:"unmatched"`
}

// Prediction 由排放特徵計算的分數
type Prediction struct {
	SustainabilityScore float64  `json:"sustainability_score"`
	TotalEmissions      float64  `json:"total_emissions"`
	ModelScore          *float64 `json:"model_score,omitempty"`
}

// IngredientEmission 單一食材的排放量，未比對到時為 0
type IngredientEmission struct {
	Name     string  `json:"name"`
	Key      string  `json:"matched_key,omitempty"`
	Emission float64 `json:"emission"`
}

// DishAnalysis 單一料理的完整分析
type DishAnalysis struct {
	Query               string                `json:"query"`
	Title               string                `json:"title"`
	Ingredients         []IngredientEmission  `json:"ingredients"`
	Totals              emissions.Totals      `json:"breakdown"`
	TotalEmissions      float64               `json:"total_emissions"`
	SustainabilityScore float64               `json:"sustainability_score"`
	Equivalence         emissions.Equivalence `json:"emissions_equivalence"`
	Unmatched           []string              `json:"unmatched,omitempty"`
	DatasetVersion      string                `json:"dataset_version"`
}

// Verdict 比較結果
type Verdict int

const (
	VerdictDraw Verdict = iota
	VerdictDish1
	VerdictDish2
)

func (v Verdict) String() string {
	switch v {
	case VerdictDish1:
		return "dish1"
	case VerdictDish2:
		return "dish2"
	default:
		return "draw"
	}
}

// MarshalText 以字串輸出
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Comparison 兩道料理的比較
type Comparison struct {
	Dish1            *DishAnalysis `json:"dish1"`
	Dish2            *DishAnalysis `json:"dish2"`
	Winner           Verdict       `json:"winner"`
	ComparisonResult string        `json:"comparison_result"`
}
