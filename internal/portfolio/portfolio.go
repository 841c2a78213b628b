package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Trade is one journal entry.
type Trade struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"` // "buy" or "sell"
	Qty       float64   `json:"qty"`
	Price     float64   `json:"price"`
}

// Summary aggregates the journal for display.
type Summary struct {
	TotalTrades int
	LastTrade   *Trade
	NetQty      map[string]float64
}

type journalFile struct {
	Trades []Trade `json:"trades"`
}

// Journal is a JSON-file-backed trade log. All methods are safe for
// concurrent use.
type Journal struct {
	mu    sync.Mutex
	path  string
	state journalFile
}

// OpenJournal loads (or initializes) the journal at path.
func OpenJournal(path string) (*Journal, error) {
	j := &Journal{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return j, nil
		}
		return nil, fmt.Errorf("read journal: %w", err)
	}
	if err := json.Unmarshal(data, &j.state); err != nil {
		return nil, fmt.Errorf("decode journal: %w", err)
	}
	return j, nil
}

// AddTrade appends a trade and persists the journal.
func (j *Journal) AddTrade(symbol, side string, qty, price float64) error {
	side = strings.ToLower(side)
	if side != "buy" && side != "sell" {
		return fmt.Errorf("invalid side %q", side)
	}
	if qty <= 0 || price <= 0 {
		return fmt.Errorf("qty and price must be positive")
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.state.Trades = append(j.state.Trades, Trade{
		Timestamp: time.Now().UTC(),
		Symbol:    symbol,
		Side:      side,
		Qty:       qty,
		Price:     price,
	})
	return j.save()
}

// Summarize returns the trade count, the most recent trade, and the signed
// net quantity per symbol (buys positive, sells negative).
func (j *Journal) Summarize() Summary {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := Summary{
		TotalTrades: len(j.state.Trades),
		NetQty:      make(map[string]float64),
	}
	for _, t := range j.state.Trades {
		if t.Side == "sell" {
			s.NetQty[t.Symbol] -= t.Qty
		} else {
			s.NetQty[t.Symbol] += t.Qty
		}
	}
	if n := len(j.state.Trades); n > 0 {
		last := j.state.Trades[n-1]
		s.LastTrade = &last
	}
	return s
}

func (j *Journal) save() error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}
	data, err := json.MarshalIndent(j.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(j.path, data, 0644)
}
