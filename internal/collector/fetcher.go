package collector

import "TradeResearcher/internal/model"

// Fetcher defines the interface for pulling market data.
type Fetcher interface {
	FetchKlines(symbol string, interval model.Interval, limit int) ([]model.Candle, error)
	FetchCurrentPrice(symbol string) (float64, error)
	Name() string
}
