package collector

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"TradeResearcher/internal/model"
	"TradeResearcher/internal/recorder"
	"TradeResearcher/internal/series"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price   float64
	Candles map[model.Interval][]model.Candle
	Err     error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchKlines(_ string, interval model.Interval, limit int) ([]model.Candle, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if c, ok := m.Candles[interval]; ok {
		if len(c) > limit {
			c = c[len(c)-limit:]
		}
		return c, nil
	}
	return GenerateCandles(m.Price, interval, limit), nil
}

func (m *MockFetcher) FetchCurrentPrice(string) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Price, nil
}

// GenerateCandles builds a deterministic drifting series around basePrice.
func GenerateCandles(basePrice float64, interval model.Interval, count int) []model.Candle {
	candles := make([]model.Candle, count)
	step := interval.Duration()
	start := time.Now().UTC().Truncate(step).Add(-time.Duration(count) * step)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		candles[i] = model.Candle{
			Time:   start.Add(time.Duration(i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000,
		}
	}
	return candles
}

// Collector keeps the series store in sync with the market-data source.
type Collector struct {
	fetcher   Fetcher
	store     *series.Store
	rec       recorder.Recorder
	symbol    string
	intervals []model.Interval
	limit     int
}

// NewCollector creates a Collector syncing the given intervals for symbol.
func NewCollector(fetcher Fetcher, store *series.Store, rec recorder.Recorder, symbol string, intervals []model.Interval, limit int) *Collector {
	return &Collector{
		fetcher:   fetcher,
		store:     store,
		rec:       rec,
		symbol:    symbol,
		intervals: intervals,
		limit:     limit,
	}
}

// Sync pulls fresh klines for every configured interval and merges them into
// the store. Gaps and duplicates in the feed are absorbed by the store's
// merge-by-timestamp rule. A failed interval aborts the sync so the task
// runner can apply its error backoff.
func (c *Collector) Sync() error {
	for _, interval := range c.intervals {
		candles, err := c.fetcher.FetchKlines(c.symbol, interval, c.limit)
		if err != nil {
			return fmt.Errorf("sync %s/%s: %w", c.symbol, interval, err)
		}
		c.store.Append(series.Key{Symbol: c.symbol, Interval: interval}, candles)
		if err := c.rec.RecordCandles(c.symbol, string(interval), candles); err != nil {
			log.Warn().Err(err).Str("interval", string(interval)).Msg("record candles")
		}
		log.Debug().Str("interval", string(interval)).Int("candles", len(candles)).Msg("series synced")
	}
	return nil
}

// CurrentPrice returns the latest traded price from the source, falling back
// to the newest stored 1h close when the source is unavailable.
func (c *Collector) CurrentPrice() (float64, error) {
	price, err := c.fetcher.FetchCurrentPrice(c.symbol)
	if err == nil {
		return price, nil
	}
	if latest, ok := c.store.Latest(series.Key{Symbol: c.symbol, Interval: model.Interval1h}); ok {
		log.Warn().Err(err).Msg("price fetch failed, using last stored close")
		return latest.Close, nil
	}
	return 0, err
}
