package model

// PatternKind enumerates the qualitative pattern signals the detector emits.
type PatternKind string

const (
	PatternDoji            PatternKind = "DOJI"
	PatternBreakoutBullish PatternKind = "BB_BREAKOUT_BULLISH"
	PatternBreakoutBearish PatternKind = "BB_BREAKOUT_BEARISH"
	PatternRSIOverbought   PatternKind = "RSI_OVERBOUGHT"
	PatternRSIOversold     PatternKind = "RSI_OVERSOLD"
	PatternVolumeSpike     PatternKind = "VOLUME_SPIKE"
	PatternBuyingPressure  PatternKind = "BUYING_PRESSURE"
	PatternSellingPressure PatternKind = "SELLING_PRESSURE"
	PatternAbsorption      PatternKind = "ABSORPTION"
	PatternFVGBullish      PatternKind = "FVG_BULLISH"
	PatternFVGBearish      PatternKind = "FVG_BEARISH"
)

// PatternSignal is one detected pattern, attached to a single frame index.
// Signals are transient and recomputed per request.
type PatternSignal struct {
	Kind  PatternKind
	Label string // human-readable description for reports
	Index int    // frame index the signal was evaluated at

	// Top and Bottom bound the price zone for fair value gaps; zero otherwise.
	Top    float64
	Bottom float64
}
