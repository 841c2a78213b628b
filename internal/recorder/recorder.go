package recorder

import (
	"time"

	"TradeResearcher/internal/model"
)

// AnalysisRecord is one stored analysis or prediction result.
type AnalysisRecord struct {
	Timestamp  time.Time
	Type       string // "analysis" or "prediction"
	ResultJSON string
	Confidence int
}

// ResearchItem is one stored research finding.
type ResearchItem struct {
	Source    string
	Title     string
	Content   string
	URL       string
	Sentiment string
	Relevance float64
}

// PerformanceRecord stores one retraining outcome.
type PerformanceRecord struct {
	ModelName  string
	Accuracy   float64
	TestDate   time.Time
	ParamsJSON string
}

// Recorder persists computed results for later retrieval. The analysis
// pipeline depends only on this interface, not on a storage engine.
type Recorder interface {
	RecordCandles(symbol, interval string, candles []model.Candle) error
	RecordAnalysis(rec *AnalysisRecord) error
	LatestAnalyses(analysisType string, limit int) ([]AnalysisRecord, error)
	RecordResearch(item *ResearchItem) error
	RecordModelPerformance(rec *PerformanceRecord) error
	Close() error
}
