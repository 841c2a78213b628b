package pattern

import (
	"fmt"

	"TradeResearcher/internal/model"
)

// RSI extremes shared with the retraining backtest.
const (
	RSIOverbought = 70.0
	RSIOversold   = 30.0
)

// Rule thresholds, matching the analysis pipeline's tuning.
const (
	dojiBodyRatio       = 0.1
	volumeSpikeRatio    = 1.5
	orderFlowVolRatio   = 1.2
	absorptionVolRatio  = 1.5
	absorptionMoveRatio = 0.001
	orderFlowLookback   = 3
	fvgKeep             = 5
)

// Detect scans the indicator frame and returns the qualitative signals found
// at the latest index (plus trailing-window order-flow and fair-value-gap
// signals). Rules run in a fixed order; several signals may co-occur. A frame
// with fewer than 3 candles fails with model.ErrInsufficientData; otherwise
// Detect never errors.
func Detect(f *model.IndicatorFrame) ([]model.PatternSignal, error) {
	if f.Len() < 3 {
		return nil, fmt.Errorf("pattern detection needs >= 3 candles, got %d: %w",
			f.Len(), model.ErrInsufficientData)
	}

	var signals []model.PatternSignal
	last := f.Len() - 1
	latest := f.Candles[last]

	// 1. Doji: body much smaller than the full wick range.
	body := latest.Close - latest.Open
	if body < 0 {
		body = -body
	}
	if wick := latest.High - latest.Low; body < wick*dojiBodyRatio {
		signals = append(signals, model.PatternSignal{
			Kind: model.PatternDoji, Label: "Doji - Indecision", Index: last,
		})
	}

	// 2. Bollinger band breakout (mutually exclusive directions).
	if model.Defined(f.BBUpper[last]) {
		if latest.Close > f.BBUpper[last] {
			signals = append(signals, model.PatternSignal{
				Kind: model.PatternBreakoutBullish, Label: "Bollinger Band Breakout - Bullish", Index: last,
			})
		} else if latest.Close < f.BBLower[last] {
			signals = append(signals, model.PatternSignal{
				Kind: model.PatternBreakoutBearish, Label: "Bollinger Band Breakout - Bearish", Index: last,
			})
		}
	}

	// 3. RSI extremes.
	if model.Defined(f.RSI[last]) {
		if f.RSI[last] > RSIOverbought {
			signals = append(signals, model.PatternSignal{
				Kind: model.PatternRSIOverbought, Label: "RSI Overbought", Index: last,
			})
		} else if f.RSI[last] < RSIOversold {
			signals = append(signals, model.PatternSignal{
				Kind: model.PatternRSIOversold, Label: "RSI Oversold", Index: last,
			})
		}
	}

	// 4. Volume spike vs. the volume SMA.
	if model.Defined(f.VolumeSMA[last]) && latest.Volume > f.VolumeSMA[last]*volumeSpikeRatio {
		signals = append(signals, model.PatternSignal{
			Kind: model.PatternVolumeSpike, Label: "High Volume Spike", Index: last,
		})
	}

	signals = append(signals, orderFlow(f)...)
	signals = append(signals, fairValueGaps(f)...)
	return signals, nil
}

// orderFlow inspects the last few candle transitions for pressure and
// absorption signals derived from price change and the volume ratio between
// consecutive candles.
func orderFlow(f *model.IndicatorFrame) []model.PatternSignal {
	var out []model.PatternSignal
	start := f.Len() - orderFlowLookback
	if start < 1 {
		start = 1
	}
	for i := start; i < f.Len(); i++ {
		cur, prev := f.Candles[i], f.Candles[i-1]
		priceChange := cur.Close - prev.Close
		volRatio := 1.0
		if prev.Volume > 0 {
			volRatio = cur.Volume / prev.Volume
		}

		switch {
		case priceChange > 0 && volRatio > orderFlowVolRatio:
			out = append(out, model.PatternSignal{
				Kind: model.PatternBuyingPressure, Label: "Strong buying pressure", Index: i,
			})
		case priceChange < 0 && volRatio > orderFlowVolRatio:
			out = append(out, model.PatternSignal{
				Kind: model.PatternSellingPressure, Label: "Strong selling pressure", Index: i,
			})
		case abs(priceChange) < cur.Close*absorptionMoveRatio && volRatio > absorptionVolRatio:
			out = append(out, model.PatternSignal{
				Kind: model.PatternAbsorption, Label: "Absorption (large volume, small price change)", Index: i,
			})
		}
	}
	return out
}

// fairValueGaps scans the whole frame for price ranges skipped between
// non-adjacent candles and keeps the most recent fvgKeep occurrences.
func fairValueGaps(f *model.IndicatorFrame) []model.PatternSignal {
	var gaps []model.PatternSignal
	for i := 2; i < f.Len(); i++ {
		older, cur := f.Candles[i-2], f.Candles[i]
		if older.Low > cur.High {
			gaps = append(gaps, model.PatternSignal{
				Kind:   model.PatternFVGBullish,
				Label:  "Bullish Fair Value Gap",
				Index:  i,
				Top:    older.Low,
				Bottom: cur.High,
			})
		} else if older.High < cur.Low {
			gaps = append(gaps, model.PatternSignal{
				Kind:   model.PatternFVGBearish,
				Label:  "Bearish Fair Value Gap",
				Index:  i,
				Top:    cur.Low,
				Bottom: older.High,
			})
		}
	}
	if len(gaps) > fvgKeep {
		gaps = gaps[len(gaps)-fvgKeep:]
	}
	return gaps
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
