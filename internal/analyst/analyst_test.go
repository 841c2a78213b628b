package analyst

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"TradeResearcher/internal/cache"
	"TradeResearcher/internal/inference"
	"TradeResearcher/internal/model"
	"TradeResearcher/internal/recorder"
	"TradeResearcher/internal/series"
)

func trendCandles(n int, start float64, step time.Duration, drift float64) []model.Candle {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Candle, n)
	price := start
	for i := 0; i < n; i++ {
		out[i] = model.Candle{
			Time:   base.Add(time.Duration(i) * step),
			Open:   price * 0.999,
			High:   price * 1.004,
			Low:    price * 0.996,
			Close:  price,
			Volume: 1000,
		}
		price *= 1 + drift
	}
	return out
}

func seedStore(t *testing.T, symbol string) *series.Store {
	t.Helper()
	store := series.NewStore(0)
	store.Append(series.Key{Symbol: symbol, Interval: model.Interval1h},
		trendCandles(60, 50000, time.Hour, 0.002))
	store.Append(series.Key{Symbol: symbol, Interval: model.Interval4h},
		trendCandles(60, 49000, 4*time.Hour, 0.003))
	store.Append(series.Key{Symbol: symbol, Interval: model.Interval1d},
		trendCandles(60, 45000, 24*time.Hour, 0.005))
	return store
}

func newTestAnalyst(t *testing.T, endpoint string) *Analyst {
	t.Helper()
	cfg := inference.DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.Model = "test-model"
	client := inference.NewClient(cfg, cache.New())
	paramsPath := filepath.Join(t.TempDir(), "model_params.json")
	return New(seedStore(t, "BTCUSDT"), client, recorder.NewNoopRecorder(), cache.New(), "BTCUSDT", paramsPath)
}

func TestCurrentAnalysisParsesAndCaches(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`{"response": "Here is my take: {\"technical_summary\": \"Uptrend intact\", \"price_action\": \"Higher highs\", \"entry_levels\": \"Buy dips\", \"exit_levels\": \"Sell strength\", \"risk_assessment\": \"Moderate\", \"confidence\": 82, \"bias\": \"bullish\"}"}`))
	}))
	defer srv.Close()

	a := newTestAnalyst(t, srv.URL)

	analysis, err := a.CurrentAnalysis(context.Background())
	if err != nil {
		t.Fatalf("CurrentAnalysis: %v", err)
	}
	if analysis.Technical != "Uptrend intact" {
		t.Errorf("Technical = %q", analysis.Technical)
	}
	if analysis.Bias != model.BiasBullish {
		t.Errorf("Bias = %q, want bullish", analysis.Bias)
	}
	if analysis.Confidence != 82 {
		t.Errorf("Confidence = %d, want 82", analysis.Confidence)
	}
	if analysis.Levels != "Entry: Buy dips\nExit: Sell strength" {
		t.Errorf("Levels = %q", analysis.Levels)
	}
	if len(analysis.Patterns) == 0 {
		t.Error("expected at least one pattern on a steady uptrend")
	}

	again, err := a.CurrentAnalysis(context.Background())
	if err != nil {
		t.Fatalf("second CurrentAnalysis: %v", err)
	}
	if again != analysis {
		t.Error("second call should serve the cached analysis")
	}
	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Errorf("endpoint called %d times, want 1", n)
	}
}

func TestCurrentAnalysisDegradesWhenEndpointFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := newTestAnalyst(t, srv.URL)

	analysis, err := a.CurrentAnalysis(context.Background())
	if err != nil {
		t.Fatalf("CurrentAnalysis should degrade, not fail: %v", err)
	}
	if analysis.Bias != model.BiasNeutral {
		t.Errorf("Bias = %q, want neutral fallback", analysis.Bias)
	}
	if analysis.Confidence != 50 {
		t.Errorf("Confidence = %d, want fallback 50", analysis.Confidence)
	}
	if analysis.Technical != "Technical analysis temporarily unavailable" {
		t.Errorf("Technical = %q", analysis.Technical)
	}
}

func TestCurrentAnalysisInsufficientData(t *testing.T) {
	a := newTestAnalyst(t, "http://127.0.0.1:0")
	a.store = series.NewStore(0)

	if _, err := a.CurrentAnalysis(context.Background()); err == nil {
		t.Fatal("expected an error with an empty store")
	}
}

func TestPredictionsUsePersistedAccuracy(t *testing.T) {
	a := newTestAnalyst(t, "http://127.0.0.1:0")
	if err := SaveParams(a.paramsPath, &model.ModelParams{LastAccuracy: 81.5, Version: "1.0"}); err != nil {
		t.Fatalf("SaveParams: %v", err)
	}

	set, err := a.Predictions(context.Background())
	if err != nil {
		t.Fatalf("Predictions: %v", err)
	}
	if set.Accuracy != 81.5 {
		t.Errorf("Accuracy = %v, want 81.5", set.Accuracy)
	}
	for _, p := range []model.Prediction{set.H1, set.H4, set.H24} {
		if math.IsNaN(p.Price) || p.Price <= 0 {
			t.Errorf("horizon %s price = %v", p.Horizon, p.Price)
		}
	}
}

func TestPredictionsDefaultAccuracy(t *testing.T) {
	a := newTestAnalyst(t, "http://127.0.0.1:0")

	set, err := a.Predictions(context.Background())
	if err != nil {
		t.Fatalf("Predictions: %v", err)
	}
	if set.Accuracy != defaultAccuracy {
		t.Errorf("Accuracy = %v, want default %d", set.Accuracy, defaultAccuracy)
	}
}

type perfCapture struct {
	*recorder.NoopRecorder
	perf []recorder.PerformanceRecord
}

func (c *perfCapture) RecordModelPerformance(rec *recorder.PerformanceRecord) error {
	c.perf = append(c.perf, *rec)
	return nil
}

func TestRetrainPersistsParamsAndRecords(t *testing.T) {
	a := newTestAnalyst(t, "http://127.0.0.1:0")
	capture := &perfCapture{NoopRecorder: recorder.NewNoopRecorder()}
	a.rec = capture

	if err := a.Retrain(context.Background()); err != nil {
		t.Fatalf("Retrain: %v", err)
	}

	params, err := LoadParams(a.paramsPath)
	if err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	if params.Version != "1.0" {
		t.Errorf("Version = %q", params.Version)
	}
	if params.LastUpdate == "" {
		t.Error("LastUpdate not set")
	}
	if len(capture.perf) != 1 {
		t.Fatalf("recorded %d performance rows, want 1", len(capture.perf))
	}
	if capture.perf[0].Accuracy != params.LastAccuracy {
		t.Errorf("recorded accuracy %v != persisted %v", capture.perf[0].Accuracy, params.LastAccuracy)
	}
}

func TestBacktestDirectionalRule(t *testing.T) {
	n := 120
	frame := &model.IndicatorFrame{
		Candles: make([]model.Candle, n),
		RSI:     make([]float64, n),
	}
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		frame.Candles[i] = model.Candle{Time: base.Add(time.Duration(i) * time.Hour), Close: 100 + float64(i)}
		frame.RSI[i] = 50 // neutral, no signal
	}
	// Closes rise monotonically, so oversold readings predict correctly and
	// overbought readings predict wrong.
	frame.RSI[40] = 20
	frame.RSI[50] = 25
	frame.RSI[60] = 80
	frame.RSI[70] = 85

	if got := backtest(frame); got != 50 {
		t.Errorf("backtest accuracy = %v, want 50", got)
	}

	for i := range frame.RSI {
		frame.RSI[i] = 50
	}
	if got := backtest(frame); got != 0 {
		t.Errorf("backtest with no signals = %v, want 0", got)
	}
}
