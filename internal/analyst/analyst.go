package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"TradeResearcher/internal/cache"
	"TradeResearcher/internal/indicator"
	"TradeResearcher/internal/inference"
	"TradeResearcher/internal/model"
	"TradeResearcher/internal/pattern"
	"TradeResearcher/internal/predict"
	"TradeResearcher/internal/recorder"
	"TradeResearcher/internal/series"
)

// Window sizes pulled per timeframe, matching the collector's fetch limits.
const (
	window1h = 168 // one week of hourly candles
	window4h = 168 // four weeks
	window1d = 100

	backtestPeriods = 100
	minCandles      = indicator.EMASlowPeriod + 1
)

// analysisTTL bounds how long a combined analysis is served from cache.
const analysisTTL = 5 * time.Minute

const analysisCacheKey = "analysis:current"

// Analyst runs the full analysis pipeline: indicator computation, pattern
// detection, the external judgment call, and the multi-horizon forecast. All
// results are cached and recorded.
type Analyst struct {
	store      *series.Store
	client     *inference.Client
	rec        recorder.Recorder
	cache      *cache.TTL
	symbol     string
	paramsPath string
}

// New creates an Analyst reading candles for symbol from store. paramsPath is
// the JSON file holding the prediction model's persisted parameters.
func New(store *series.Store, client *inference.Client, rec recorder.Recorder, c *cache.TTL, symbol, paramsPath string) *Analyst {
	return &Analyst{
		store:      store,
		client:     client,
		rec:        rec,
		cache:      c,
		symbol:     symbol,
		paramsPath: paramsPath,
	}
}

// CurrentAnalysis returns the combined market analysis for the 1h timeframe.
// A cached result younger than five minutes is served as-is. The inference
// call degrades internally, so the only error condition is missing data.
func (a *Analyst) CurrentAnalysis(ctx context.Context) (*model.Analysis, error) {
	if v, ok := a.cache.Get(analysisCacheKey); ok {
		if analysis, ok := v.(*model.Analysis); ok {
			return analysis, nil
		}
	}

	frame, err := a.frame(model.Interval1h, window1h)
	if err != nil {
		return nil, fmt.Errorf("current analysis: %w", err)
	}

	patterns, err := pattern.Detect(frame)
	if err != nil {
		return nil, fmt.Errorf("current analysis: %w", err)
	}

	prompt := renderPrompt(a.symbol, frame, patterns)
	verdict := a.client.Judge(ctx, prompt, frame)

	analysis := &model.Analysis{
		Technical:   verdict.TechnicalSummary,
		PriceAction: verdict.PriceAction,
		Levels:      fmt.Sprintf("Entry: %s\nExit: %s", verdict.EntryLevels, verdict.ExitLevels),
		Confidence:  verdict.Confidence,
		Patterns:    patterns,
		Bias:        verdict.Bias,
		GeneratedAt: time.Now().UTC(),
	}

	a.cache.Set(analysisCacheKey, analysis, analysisTTL)
	a.record("analysis", analysis, analysis.Confidence)
	return analysis, nil
}

// Predictions produces the 1h/4h/24h price forecasts from the three timeframe
// series. Accuracy comes from the last retraining run.
func (a *Analyst) Predictions(ctx context.Context) (*model.PredictionSet, error) {
	frame1h, err := a.frame(model.Interval1h, window1h)
	if err != nil {
		return nil, fmt.Errorf("predictions: %w", err)
	}
	frame4h, err := a.frame(model.Interval4h, window4h)
	if err != nil {
		return nil, fmt.Errorf("predictions: %w", err)
	}
	frame1d, err := a.frame(model.Interval1d, window1d)
	if err != nil {
		return nil, fmt.Errorf("predictions: %w", err)
	}

	set, err := predict.Blend(frame1h, frame4h, frame1d, frame1h.Last().Close)
	if err != nil {
		return nil, fmt.Errorf("predictions: %w", err)
	}

	params, err := LoadParams(a.paramsPath)
	if err != nil {
		log.Warn().Err(err).Msg("model params unreadable, using default accuracy")
		params = &model.ModelParams{LastAccuracy: defaultAccuracy}
	}
	set.Accuracy = params.LastAccuracy

	a.record("prediction", set, int(set.Accuracy))
	return set, nil
}

// Retrain backtests the directional model on recent history, persists the
// measured accuracy as the new model parameters, and records the run.
func (a *Analyst) Retrain(ctx context.Context) error {
	frame, err := a.frame(model.Interval1h, 1000)
	if err != nil {
		return fmt.Errorf("retrain: %w", err)
	}

	accuracy := backtest(frame)
	params := &model.ModelParams{
		LastAccuracy: accuracy,
		LastUpdate:   time.Now().UTC().Format(time.RFC3339),
		Version:      "1.0",
	}
	if err := SaveParams(a.paramsPath, params); err != nil {
		return fmt.Errorf("retrain: save params: %w", err)
	}

	paramsJSON, _ := json.Marshal(params)
	if err := a.rec.RecordModelPerformance(&recorder.PerformanceRecord{
		ModelName:  "momentum_blend",
		Accuracy:   accuracy,
		TestDate:   time.Now().UTC(),
		ParamsJSON: string(paramsJSON),
	}); err != nil {
		log.Warn().Err(err).Msg("record model performance")
	}

	log.Info().Float64("accuracy", accuracy).Msg("model retraining completed")
	return nil
}

// frame loads the trailing window for interval and computes its indicators.
func (a *Analyst) frame(interval model.Interval, count int) (*model.IndicatorFrame, error) {
	candles, err := a.store.Window(series.Key{Symbol: a.symbol, Interval: interval}, count, minCandles)
	if err != nil {
		return nil, err
	}
	return indicator.Compute(candles)
}

// record marshals a result and hands it to the recorder. Persistence failures
// are logged, not propagated; the result is still served.
func (a *Analyst) record(kind string, result any, confidence int) {
	data, err := json.Marshal(result)
	if err != nil {
		log.Warn().Err(err).Str("type", kind).Msg("marshal result")
		return
	}
	if err := a.rec.RecordAnalysis(&recorder.AnalysisRecord{
		Timestamp:  time.Now().UTC(),
		Type:       kind,
		ResultJSON: string(data),
		Confidence: confidence,
	}); err != nil {
		log.Warn().Err(err).Str("type", kind).Msg("record result")
	}
}

// backtest replays a contrarian RSI rule over the trailing periods: oversold
// predicts the next close up, overbought predicts it down, anything between
// is skipped. Returns the hit rate in percent, zero when no signal fired.
func backtest(f *model.IndicatorFrame) float64 {
	n := f.Len()
	start := n - backtestPeriods
	if start < 1 {
		start = 1
	}

	correct, total := 0, 0
	for i := start; i < n-1; i++ {
		rsi := f.RSI[i]
		if !model.Defined(rsi) {
			continue
		}
		var predicted int
		switch {
		case rsi < pattern.RSIOversold:
			predicted = 1
		case rsi > pattern.RSIOverbought:
			predicted = -1
		default:
			continue
		}
		actual := -1
		if f.Candles[i+1].Close > f.Candles[i].Close {
			actual = 1
		}
		if predicted == actual {
			correct++
		}
		total++
	}
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// renderPrompt builds the judgment prompt from the latest frame values and the
// detected patterns. The trailing JSON skeleton pins the response format.
func renderPrompt(symbol string, f *model.IndicatorFrame, patterns []model.PatternSignal) string {
	last := f.Len() - 1
	price := f.Last().Close

	change24h := 0.0
	if f.Len() > 24 {
		ref := f.Candles[f.Len()-25].Close
		if ref != 0 {
			change24h = (price - ref) / ref * 100
		}
	}

	labels := make([]string, len(patterns))
	for i, p := range patterns {
		labels[i] = p.Label
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert cryptocurrency trader analyzing %s.\n\n", symbol)
	b.WriteString("Current Market Data:\n")
	fmt.Fprintf(&b, "- Price: $%.2f\n", price)
	fmt.Fprintf(&b, "- 24h Change: %.2f%%\n", change24h)
	fmt.Fprintf(&b, "- RSI: %.1f\n", orZero(f.RSI[last]))
	fmt.Fprintf(&b, "- MACD: %.4f\n", orZero(f.MACD[last]))
	fmt.Fprintf(&b, "- Volume: %.0f\n\n", f.Last().Volume)
	fmt.Fprintf(&b, "Detected Patterns: %s\n\n", strings.Join(labels, ", "))
	b.WriteString("Technical Levels:\n")
	fmt.Fprintf(&b, "- Resistance (R1): $%.2f\n", orZero(f.R1[last]))
	fmt.Fprintf(&b, "- Support (S1): $%.2f\n", orZero(f.S1[last]))
	fmt.Fprintf(&b, "- Bollinger Upper: $%.2f\n", orZero(f.BBUpper[last]))
	fmt.Fprintf(&b, "- Bollinger Lower: $%.2f\n\n", orZero(f.BBLower[last]))
	b.WriteString(`Provide analysis in this JSON format:
{
    "technical_summary": "Brief technical analysis",
    "price_action": "Current price action description",
    "entry_levels": "Suggested entry levels",
    "exit_levels": "Suggested exit levels",
    "risk_assessment": "Risk analysis",
    "confidence": "Confidence level 1-100",
    "bias": "bullish/bearish/neutral"
}`)
	return b.String()
}

// orZero substitutes 0 for indicator values whose window has not filled, so
// the prompt never contains NaN.
func orZero(v float64) float64 {
	if !model.Defined(v) {
		return 0
	}
	return v
}
