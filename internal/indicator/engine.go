package indicator

import (
	"fmt"

	"TradeResearcher/internal/model"
)

// Standard periods used throughout the pipeline.
const (
	SMAPeriod       = 20
	EMAFastPeriod   = 12
	EMASlowPeriod   = 26
	MACDSignalSpan  = 9
	RSIPeriod       = 14
	BollingerPeriod = 20
	BollingerWidth  = 2.0
	VolumeSMAPeriod = 20
)

// Compute derives the full indicator frame from a candle window. It is a pure
// transform: the input slice is never mutated, and derived values at index i
// depend only on candles at indexes <= i. Rolling outputs are NaN until their
// window fills; Compute itself only fails when given fewer than 2 candles.
func Compute(candles []model.Candle) (*model.IndicatorFrame, error) {
	if len(candles) < 2 {
		return nil, fmt.Errorf("indicator engine needs >= 2 candles, got %d: %w",
			len(candles), model.ErrInsufficientData)
	}

	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	f := &model.IndicatorFrame{Candles: candles}
	f.SMA20 = SMA(closes, SMAPeriod)
	f.EMA12 = EMA(closes, EMAFastPeriod)
	f.EMA26 = EMA(closes, EMASlowPeriod)
	f.RSI = RSI(closes, RSIPeriod)

	f.MACD = make([]float64, len(closes))
	for i := range closes {
		f.MACD[i] = f.EMA12[i] - f.EMA26[i]
	}
	f.MACDSignal = EMA(f.MACD, MACDSignalSpan)
	f.MACDHist = make([]float64, len(closes))
	for i := range closes {
		f.MACDHist[i] = f.MACD[i] - f.MACDSignal[i]
	}

	f.BBUpper, f.BBMiddle, f.BBLower = Bollinger(closes, BollingerPeriod, BollingerWidth)
	f.Pivot, f.R1, f.S1 = Pivots(candles)
	f.VolumeSMA = SMA(volumes, VolumeSMAPeriod)

	return f, nil
}
