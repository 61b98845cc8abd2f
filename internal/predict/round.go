package predict

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// round rounds half away from zero.
func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// percentages converts a probability distribution into one-decimal percentages
// that sum to exactly 100, handing leftover tenths to the largest remainders.
func percentages(probs []float64) []float64 {
	var total decimal.Decimal
	for _, p := range probs {
		total = total.Add(decimal.NewFromFloat(p))
	}
	if total.IsZero() {
		return make([]float64, len(probs))
	}

	tenths := make([]decimal.Decimal, len(probs))
	rem := make([]decimal.Decimal, len(probs))
	assigned := int64(0)
	for i, p := range probs {
		exact := decimal.NewFromFloat(p).Div(total).Mul(hundred).Shift(1)
		tenths[i] = exact.Floor()
		rem[i] = exact.Sub(tenths[i])
		assigned += tenths[i].IntPart()
	}

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return rem[order[a]].GreaterThan(rem[order[b]]) })
	one := decimal.NewFromInt(1)
	for j := 0; j < int(1000-assigned); j++ {
		i := order[j%len(order)]
		tenths[i] = tenths[i].Add(one)
	}

	out := make([]float64, len(probs))
	for i, t := range tenths {
		out[i] = t.Shift(-1).InexactFloat64()
	}
	return out
}
