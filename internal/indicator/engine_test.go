package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"TradeResearcher/internal/model"
)

func makeCandles(closes []float64) []model.Candle {
	out := make([]model.Candle, len(closes))
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = model.Candle{
			Time: base.Add(time.Duration(i) * time.Hour),
			Open: c, High: c * 1.01, Low: c * 0.99, Close: c, Volume: 1000,
		}
	}
	return out
}

// risingCloses returns n closes rising pct percent each step.
func risingCloses(n int, start, pct float64) []float64 {
	out := make([]float64, n)
	p := start
	for i := range out {
		out[i] = p
		p *= 1 + pct/100
	}
	return out
}

func TestCompute_InsufficientData(t *testing.T) {
	_, err := Compute(makeCandles([]float64{100}))
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestSMA_MatchesWindowMean(t *testing.T) {
	closes := risingCloses(50, 100, 1)
	out := SMA(closes, 20)

	for i := 0; i < 19; i++ {
		if model.Defined(out[i]) {
			t.Fatalf("sma defined before window full at %d", i)
		}
	}
	for i := 19; i < len(closes); i++ {
		sum := 0.0
		for j := i - 19; j <= i; j++ {
			sum += closes[j]
		}
		want := sum / 20
		if math.Abs(out[i]-want) > 1e-9 {
			t.Fatalf("sma[%d] = %.9f, want %.9f", i, out[i], want)
		}
	}
}

func TestRSI_Bounds(t *testing.T) {
	closes := []float64{100, 102, 99, 104, 101, 105, 103, 108, 106, 110, 107, 111, 109, 114, 112, 116, 113}
	out := RSI(closes, 14)
	for i, v := range out {
		if !model.Defined(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Errorf("rsi[%d] = %.2f out of [0,100]", i, v)
		}
	}
}

func TestRSI_AllGainsIs100(t *testing.T) {
	closes := risingCloses(20, 100, 1)
	out := RSI(closes, 14)
	last := out[len(out)-1]
	if last != 100 {
		t.Errorf("expected RSI 100 for monotonic gains, got %.4f", last)
	}
}

func TestRSI_AllLossesIsZero(t *testing.T) {
	closes := make([]float64, 20)
	p := 100.0
	for i := range closes {
		closes[i] = p
		p *= 0.99
	}
	out := RSI(closes, 14)
	last := out[len(out)-1]
	if math.Abs(last) > 1e-9 {
		t.Errorf("expected RSI 0 for monotonic losses, got %.6f", last)
	}
}

func TestBollinger_Ordering(t *testing.T) {
	closes := risingCloses(60, 100, 0.7)
	upper, middle, lower := Bollinger(closes, 20, 2)
	for i := range closes {
		if !model.Defined(middle[i]) {
			continue
		}
		if upper[i] < middle[i] || middle[i] < lower[i] {
			t.Errorf("band ordering violated at %d: %.2f/%.2f/%.2f", i, upper[i], middle[i], lower[i])
		}
	}
}

func TestBollinger_WidensWithTrend(t *testing.T) {
	// A steady 1% climb grows the absolute window stddev, so the band width
	// must grow monotonically once the window is full of trending closes.
	closes := risingCloses(80, 100, 1)
	upper, _, lower := Bollinger(closes, 20, 2)
	prev := -1.0
	for i := 40; i < len(closes); i++ {
		width := upper[i] - lower[i]
		if prev >= 0 && width < prev {
			t.Fatalf("band width shrank at %d: %.4f < %.4f", i, width, prev)
		}
		prev = width
	}
}

func TestPivots_PerCandle(t *testing.T) {
	c := model.Candle{High: 110, Low: 90, Close: 100}
	pivot, r1, s1 := Pivots([]model.Candle{c})
	if pivot[0] != 100 {
		t.Errorf("pivot = %.2f, want 100", pivot[0])
	}
	if r1[0] != 110 {
		t.Errorf("r1 = %.2f, want 110", r1[0])
	}
	if s1[0] != 90 {
		t.Errorf("s1 = %.2f, want 90", s1[0])
	}
}

func TestCompute_CausalColumns(t *testing.T) {
	closes := risingCloses(60, 100, 0.5)
	full, err := Compute(makeCandles(closes))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	// Truncating the input must not change earlier values (no look-ahead).
	short, err := Compute(makeCandles(closes[:40]))
	if err != nil {
		t.Fatalf("compute short: %v", err)
	}
	for i := 0; i < 40; i++ {
		if !sameValue(full.RSI[i], short.RSI[i]) || !sameValue(full.MACD[i], short.MACD[i]) || !sameValue(full.BBUpper[i], short.BBUpper[i]) {
			t.Fatalf("column value at %d depends on future candles", i)
		}
	}
}

func sameValue(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) < 1e-9
}
