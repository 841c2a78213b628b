package predict

import (
	"fmt"
	"math"

	"TradeResearcher/internal/model"
)

// Momentum lookbacks per horizon frame, in candles.
const (
	lookback1h = 12
	lookback4h = 6
	lookback1d = 7
)

// weights is the (momentum, rsi, macd) triple for one horizon. Longer
// horizons trust momentum more.
type weights struct {
	mom, rsi, macd float64
}

var horizonWeights = map[model.Horizon]weights{
	model.Horizon1h:  {0.3, 0.1, 0.1},
	model.Horizon4h:  {0.5, 0.2, 0.2},
	model.Horizon24h: {0.7, 0.3, 0.3},
}

// Blend fuses momentum, oscillator, and trend factors from the three
// timeframe frames into point forecasts for the 1h/4h/24h horizons. It fails
// with model.ErrInsufficientData when any frame lacks its momentum lookback,
// and guards every division so the output never contains NaN.
func Blend(frame1h, frame4h, frame1d *model.IndicatorFrame, currentPrice float64) (*model.PredictionSet, error) {
	mom1h, err := momentum(frame1h, lookback1h)
	if err != nil {
		return nil, fmt.Errorf("1h momentum: %w", err)
	}
	mom4h, err := momentum(frame4h, lookback4h)
	if err != nil {
		return nil, fmt.Errorf("4h momentum: %w", err)
	}
	mom1d, err := momentum(frame1d, lookback1d)
	if err != nil {
		return nil, fmt.Errorf("1d momentum: %w", err)
	}

	last := frame1h.Len() - 1
	rsiFactor := 0.0
	if model.Defined(frame1h.RSI[last]) {
		// Contrarian: oversold pushes the forecast up.
		rsiFactor = (50 - frame1h.RSI[last]) / 100
	}
	macdFactor := 0.0
	if model.Defined(frame1h.MACD[last]) && model.Defined(frame1h.MACDSignal[last]) {
		macdFactor = math.Tanh(1000*(frame1h.MACD[last]-frame1h.MACDSignal[last])) * 0.02
	}

	set := &model.PredictionSet{
		H1:      forecast(model.Horizon1h, currentPrice, mom1h, rsiFactor, macdFactor),
		H4:      forecast(model.Horizon4h, currentPrice, mom4h, rsiFactor, macdFactor),
		H24:     forecast(model.Horizon24h, currentPrice, mom1d, rsiFactor, macdFactor),
		Factors: []string{"RSI", "MACD", "Momentum", "Volume"},
	}
	return set, nil
}

// momentum returns the relative close change over the trailing lookback.
func momentum(f *model.IndicatorFrame, lookback int) (float64, error) {
	if f == nil || f.Len() <= lookback {
		return 0, fmt.Errorf("need > %d candles: %w", lookback, model.ErrInsufficientData)
	}
	ref := f.Candles[f.Len()-1-lookback].Close
	if ref == 0 {
		return 0, nil
	}
	return (f.Last().Close - ref) / ref, nil
}

func forecast(h model.Horizon, price, mom, rsiF, macdF float64) model.Prediction {
	w := horizonWeights[h]
	predicted := price * (1 + w.mom*mom + w.rsi*rsiF + w.macd*macdF)
	changePct := 0.0
	if price != 0 {
		changePct = (predicted - price) / price * 100
	}
	return model.Prediction{Horizon: h, Price: predicted, ChangePct: changePct}
}
