package pickup

import (
	"math"
	"strconv"
	"strings"
)

// Rates in FCFA per kilogram.
var ratePerKg = map[WasteType]float64{
	WasteGeneral:    1000,
	WasteRecyclable: 800,
	WasteHazardous:  2000,
}

// UrgentSurcharge multiplies the cost of urgent pickups.
const UrgentSurcharge = 1.5

// CalculateEstimatedCost returns the indicative price in FCFA, rounded to
// the nearest franc. Unknown waste types and non-positive weights cost 0.
func CalculateEstimatedCost(wasteType WasteType, weightKg float64, urgent bool) int {
	rate, ok := ratePerKg[wasteType]
	if !ok || weightKg <= 0 {
		return 0
	}
	cost := rate * weightKg
	if urgent {
		cost *= UrgentSurcharge
	}
	return int(math.Round(cost))
}

// FormatFCFA renders an amount as "12,500 FCFA".
func FormatFCFA(amount int) string {
	digits := strconv.Itoa(amount)
	sign := ""
	if amount < 0 {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + " FCFA"
}
