package indicator

import "TradeResearcher/internal/model"

// SMA computes the simple moving average of values over the trailing period.
// The first period-1 entries are undefined (NaN).
func SMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		} else {
			out[i] = model.Undefined()
		}
	}
	return out
}

// EMA computes the exponential moving average with smoothing 2/(period+1).
// Seeding policy: the series is seeded with the first raw value, so every
// index is defined. Early values are dominated by the seed until roughly one
// period has passed.
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = out[i-1] + k*(values[i]-out[i-1])
	}
	return out
}
