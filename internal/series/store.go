package series

import (
	"fmt"
	"sort"
	"sync"

	"TradeResearcher/internal/model"
)

// Key identifies one stored series.
type Key struct {
	Symbol   string
	Interval model.Interval
}

// Store is the in-memory, time-ordered candle buffer. It is the source of
// truth for all indicator computation. Each (symbol, interval) series is
// merged by timestamp: a candle with a timestamp already present replaces the
// stored one, otherwise it is inserted in order.
type Store struct {
	mu     sync.RWMutex
	series map[Key][]model.Candle
	maxLen int
}

// NewStore creates a Store that keeps at most maxLen candles per series
// (oldest dropped first). maxLen <= 0 means unbounded.
func NewStore(maxLen int) *Store {
	return &Store{series: make(map[Key][]model.Candle), maxLen: maxLen}
}

// Append merges candles into the series for key. Input order is irrelevant;
// the stored series stays sorted by strictly increasing timestamp with no
// duplicates.
func (s *Store) Append(key Key, candles []model.Candle) {
	if len(candles) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.series[key]
	for _, c := range candles {
		i := sort.Search(len(cur), func(i int) bool { return !cur[i].Time.Before(c.Time) })
		if i < len(cur) && cur[i].Time.Equal(c.Time) {
			cur[i] = c // replace-on-conflict
			continue
		}
		cur = append(cur, model.Candle{})
		copy(cur[i+1:], cur[i:])
		cur[i] = c
	}
	if s.maxLen > 0 && len(cur) > s.maxLen {
		cur = cur[len(cur)-s.maxLen:]
	}
	s.series[key] = cur
}

// Len returns the number of candles stored for key.
func (s *Store) Len(key Key) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series[key])
}

// Window returns a copy of the most recent count candles (or all of them when
// fewer exist). It fails with model.ErrInsufficientData when the series holds
// fewer than min candles.
func (s *Store) Window(key Key, count, min int) ([]model.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cur := s.series[key]
	if len(cur) < min {
		return nil, fmt.Errorf("series %s/%s has %d candles, need %d: %w",
			key.Symbol, key.Interval, len(cur), min, model.ErrInsufficientData)
	}
	if count > len(cur) {
		count = len(cur)
	}
	out := make([]model.Candle, count)
	copy(out, cur[len(cur)-count:])
	return out, nil
}

// Latest returns the most recent candle for key.
func (s *Store) Latest(key Key) (model.Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur := s.series[key]
	if len(cur) == 0 {
		return model.Candle{}, false
	}
	return cur[len(cur)-1], true
}
