package emissions

import "math"

const (
	// FallbackScore 總排放無效（非數值或非正數）時的分數
	FallbackScore = 3.0

	MinScore = 1.0
	MaxScore = 5.0

	bestEmissions  = 0.1
	worstEmissions = 50.0
)

// IsScorable 總排放是否為可評分的有限正數
func IsScorable(total float64) bool {
	return !math.IsNaN(total) && !math.IsInf(total, 0) && total > 0
}

// Score 將總排放線性映射到 [1, 5]，越高代表越永續
func Score(total float64) float64 {
	if !IsScorable(total) {
		return FallbackScore
	}
	if total <= bestEmissions {
		return MaxScore
	}
	if total >= worstEmissions {
		return MinScore
	}
	s := MaxScore - ((total-bestEmissions)/(worstEmissions-bestEmissions))*(MaxScore-MinScore)
	return math.Max(MinScore, math.Min(MaxScore, s))
}
