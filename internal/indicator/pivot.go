package indicator

import "TradeResearcher/internal/model"

// Pivots computes the classic pivot point and first resistance/support level
// for each candle from that candle's own high/low/close (not rolling).
func Pivots(candles []model.Candle) (pivot, r1, s1 []float64) {
	pivot = make([]float64, len(candles))
	r1 = make([]float64, len(candles))
	s1 = make([]float64, len(candles))
	for i, c := range candles {
		p := (c.High + c.Low + c.Close) / 3.0
		pivot[i] = p
		r1[i] = 2*p - c.Low
		s1[i] = 2*p - c.High
	}
	return pivot, r1, s1
}
