package alert

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"TradeResearcher/internal/bot"
)

// PriceSource yields the latest observed price.
type PriceSource interface {
	CurrentPrice() (float64, error)
}

// Notifier delivers alert messages.
type Notifier interface {
	Notify(text string) error
}

// Monitor fires a notification whenever the price moves more than the
// threshold percentage between two consecutive checks. The first check only
// seeds the reference price.
type Monitor struct {
	source    PriceSource
	notifier  Notifier
	symbol    string
	threshold float64
	lastPrice float64
	seeded    bool
}

// NewMonitor creates a Monitor. threshold is in percent, e.g. 1.0 for 1%.
func NewMonitor(source PriceSource, notifier Notifier, symbol string, threshold float64) *Monitor {
	return &Monitor{
		source:    source,
		notifier:  notifier,
		symbol:    symbol,
		threshold: threshold,
	}
}

// Check runs one monitoring step. Designed to be driven by the scheduler.
func (m *Monitor) Check(ctx context.Context) error {
	price, err := m.source.CurrentPrice()
	if err != nil {
		return fmt.Errorf("alert price check: %w", err)
	}

	if m.seeded && m.lastPrice > 0 {
		changePct := (price - m.lastPrice) / m.lastPrice * 100
		if abs(changePct) >= m.threshold {
			text := bot.FormatAlert(m.symbol, m.lastPrice, price, changePct)
			if err := m.notifier.Notify(text); err != nil {
				log.Warn().Err(err).Msg("deliver price alert")
			} else {
				log.Info().Float64("change_pct", changePct).Float64("price", price).Msg("price alert sent")
			}
		}
	}

	m.lastPrice = price
	m.seeded = true
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
