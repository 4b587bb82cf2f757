package emissions

import "math"

// 每 kg CO2e 的換算係數
const (
	carKmPerKg        = 4.5
	phoneChargesPerKg = 122
	plasticBagsPerKg  = 20
	ledBulbHoursPerKg = 10
)

// Equivalence 以日常用品表示的排放量
type Equivalence struct {
	CarDistanceKm     float64 `json:"car_distance"`
	SmartphoneCharges float64 `json:"smartphone_charges"`
	PlasticBags       float64 `json:"plastic_bags"`
	LEDBulbHours      float64 `json:"led_bulb_hours"`
}

// PlaceholderEquivalence 無法換算時顯示的固定值，避免畫面出現全零
var PlaceholderEquivalence = Equivalence{
	CarDistanceKm:     0.1,
	SmartphoneCharges: 1,
	PlasticBags:       1,
	LEDBulbHours:      1,
}

// Equivalences 將總排放換算為日常用品數量
func Equivalences(total float64) Equivalence {
	if !IsScorable(total) {
		return PlaceholderEquivalence
	}
	return Equivalence{
		CarDistanceKm:     math.Round(total*carKmPerKg*10) / 10,
		SmartphoneCharges: math.RoundToEven(total * phoneChargesPerKg),
		PlasticBags:       math.RoundToEven(total * plasticBagsPerKg),
		LEDBulbHours:      math.RoundToEven(total * ledBulbHoursPerKg),
	}
}
