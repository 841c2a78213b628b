package recorder

import "TradeResearcher/internal/model"

// NoopRecorder discards everything. Used when persistence is disabled or the
// database failed to open.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (*NoopRecorder) RecordCandles(string, string, []model.Candle) error { return nil }

func (*NoopRecorder) RecordAnalysis(*AnalysisRecord) error { return nil }

func (*NoopRecorder) LatestAnalyses(string, int) ([]AnalysisRecord, error) { return nil, nil }

func (*NoopRecorder) RecordResearch(*ResearchItem) error { return nil }

func (*NoopRecorder) RecordModelPerformance(*PerformanceRecord) error { return nil }

func (*NoopRecorder) Close() error { return nil }
