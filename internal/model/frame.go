package model

import "math"

// IndicatorFrame is a candle series augmented with derived indicator columns.
// Every column has the same length as Candles; indexes where a rolling window
// has not filled yet hold NaN. Use Defined to test availability. Column values
// at index i depend only on candles at indexes <= i.
type IndicatorFrame struct {
	Candles []Candle

	SMA20      []float64
	EMA12      []float64
	EMA26      []float64
	RSI        []float64
	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64
	BBUpper    []float64
	BBMiddle   []float64
	BBLower    []float64
	Pivot      []float64
	R1         []float64
	S1         []float64
	VolumeSMA  []float64
}

// Len returns the number of candles in the frame.
func (f *IndicatorFrame) Len() int { return len(f.Candles) }

// Last returns the most recent candle. The frame must be non-empty.
func (f *IndicatorFrame) Last() Candle { return f.Candles[len(f.Candles)-1] }

// Defined reports whether an indicator value is available (not NaN).
func Defined(v float64) bool { return !math.IsNaN(v) }

// Undefined is the marker for indicator values before their window fills.
func Undefined() float64 { return math.NaN() }
