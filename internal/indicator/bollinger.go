package indicator

import (
	"math"

	"TradeResearcher/internal/model"
)

// Bollinger computes the 2-sigma volatility bands around the period SMA.
// Stddev is the sample standard deviation (n-1) over the trailing window.
// All three bands are undefined until the window fills.
func Bollinger(closes []float64, period int, width float64) (upper, middle, lower []float64) {
	middle = SMA(closes, period)
	upper = make([]float64, len(closes))
	lower = make([]float64, len(closes))
	for i := range closes {
		if !model.Defined(middle[i]) {
			upper[i] = model.Undefined()
			lower[i] = model.Undefined()
			continue
		}
		var sq float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - middle[i]
			sq += d * d
		}
		sd := math.Sqrt(sq / float64(period-1))
		upper[i] = middle[i] + width*sd
		lower[i] = middle[i] - width*sd
	}
	return upper, middle, lower
}
