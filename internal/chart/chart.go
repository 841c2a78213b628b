package chart

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"TradeResearcher/internal/model"
)

// Renderer writes analysis and prediction charts as PNG files under dir.
type Renderer struct {
	dir string
}

// NewRenderer creates a Renderer and ensures dir exists.
func NewRenderer(dir string) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create charts dir: %w", err)
	}
	return &Renderer{dir: dir}, nil
}

// AnalysisChart renders the close series with the SMA and Bollinger band
// overlays and returns the written file path.
func (r *Renderer) AnalysisChart(symbol string, f *model.IndicatorFrame) (string, error) {
	if f.Len() < 2 {
		return "", fmt.Errorf("analysis chart needs >= 2 candles: %w", model.ErrInsufficientData)
	}

	times := make([]time.Time, f.Len())
	closes := make([]float64, f.Len())
	for i, c := range f.Candles {
		times[i] = c.Time
		closes[i] = c.Close
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name:    "Close",
			XValues: times,
			YValues: closes,
			Style:   chart.Style{StrokeColor: drawing.ColorBlue, StrokeWidth: 2},
		},
	}
	if s := overlay("SMA 20", times, f.SMA20, drawing.ColorFromHex("ff8c00"), nil); s != nil {
		series = append(series, s)
	}
	dash := []float64{4, 4}
	if s := overlay("BB Upper", times, f.BBUpper, drawing.ColorFromHex("999999"), dash); s != nil {
		series = append(series, s)
	}
	if s := overlay("BB Lower", times, f.BBLower, drawing.ColorFromHex("999999"), dash); s != nil {
		series = append(series, s)
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Price Action", symbol),
		Width:  1200,
		Height: 800,
		XAxis:  chart.XAxis{Name: "Time"},
		YAxis:  chart.YAxis{Name: "Price ($)"},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return r.write(fmt.Sprintf("%s_analysis_%s.png", symbol, timestamp()), &graph)
}

// PredictionChart renders recent closes plus the three horizon forecasts as a
// dashed projection from the last close.
func (r *Renderer) PredictionChart(symbol string, candles []model.Candle, set *model.PredictionSet) (string, error) {
	if len(candles) < 2 {
		return "", fmt.Errorf("prediction chart needs >= 2 candles: %w", model.ErrInsufficientData)
	}

	times := make([]time.Time, len(candles))
	closes := make([]float64, len(candles))
	for i, c := range candles {
		times[i] = c.Time
		closes[i] = c.Close
	}

	last := candles[len(candles)-1]
	futureTimes := []time.Time{
		last.Time,
		last.Time.Add(1 * time.Hour),
		last.Time.Add(4 * time.Hour),
		last.Time.Add(24 * time.Hour),
	}
	futurePrices := []float64{last.Close, set.H1.Price, set.H4.Price, set.H24.Price}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Price Predictions", symbol),
		Width:  1000,
		Height: 500,
		XAxis:  chart.XAxis{Name: "Time"},
		YAxis:  chart.YAxis{Name: "Price ($)"},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Historical Price",
				XValues: times,
				YValues: closes,
				Style:   chart.Style{StrokeColor: drawing.ColorBlue, StrokeWidth: 2},
			},
			chart.TimeSeries{
				Name:    "Predictions",
				XValues: futureTimes,
				YValues: futurePrices,
				Style: chart.Style{
					StrokeColor:     drawing.ColorFromHex("e6b800"),
					StrokeWidth:     2,
					StrokeDashArray: []float64{5, 5},
					DotColor:        drawing.ColorFromHex("e6b800"),
					DotWidth:        4,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return r.write(fmt.Sprintf("%s_predictions_%s.png", symbol, timestamp()), &graph)
}

// overlay builds a time series from an indicator column, skipping the unfilled
// prefix. Returns nil when fewer than two points are defined.
func overlay(name string, times []time.Time, col []float64, color drawing.Color, dash []float64) chart.Series {
	var xs []time.Time
	var ys []float64
	for i, v := range col {
		if model.Defined(v) {
			xs = append(xs, times[i])
			ys = append(ys, v)
		}
	}
	if len(ys) < 2 {
		return nil
	}
	return chart.TimeSeries{
		Name:    name,
		XValues: xs,
		YValues: ys,
		Style:   chart.Style{StrokeColor: color, StrokeWidth: 1.5, StrokeDashArray: dash},
	}
}

func (r *Renderer) write(name string, graph *chart.Chart) (string, error) {
	path := filepath.Join(r.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()
	if err := graph.Render(chart.PNG, f); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("render chart: %w", err)
	}
	return path, nil
}

func timestamp() string {
	return time.Now().UTC().Format("20060102_1504")
}
