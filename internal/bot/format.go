package bot

import (
	"fmt"
	"strings"
	"time"

	"TradeResearcher/internal/model"
	"TradeResearcher/internal/researcher"
)

// FormatWelcome renders the /start greeting.
func FormatWelcome(symbol string) string {
	return fmt.Sprintf("🤖 *AI Trading Researcher Bot*\n\n"+
		"I'm continuously learning and analyzing %s markets.\n"+
		"What would you like to know?", symbol)
}

// FormatAnalysis renders the combined analysis message.
func FormatAnalysis(symbol string, a *model.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Current %s Analysis*\n\n", symbol)
	fmt.Fprintf(&b, "🔍 *Technical Analysis:*\n%s\n\n", a.Technical)
	fmt.Fprintf(&b, "📈 *Price Action:*\n%s\n\n", a.PriceAction)
	fmt.Fprintf(&b, "💰 *Entry/Exit Levels:*\n%s\n\n", a.Levels)
	if len(a.Patterns) > 0 {
		labels := make([]string, len(a.Patterns))
		for i, p := range a.Patterns {
			labels[i] = p.Label
		}
		fmt.Fprintf(&b, "🧩 *Patterns:* %s\n\n", strings.Join(labels, ", "))
	}
	fmt.Fprintf(&b, "🎯 *Confidence:* %d%%\n\n", a.Confidence)
	fmt.Fprintf(&b, "⏰ _Updated: %s_", a.GeneratedAt.UTC().Format("15:04 UTC"))
	return b.String()
}

// FormatPredictions renders the three-horizon forecast message.
func FormatPredictions(symbol string, set *model.PredictionSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔮 *%s Price Predictions*\n\n", symbol)
	fmt.Fprintf(&b, "⏱️ *Next 1 Hour:* $%.2f (%+.2f%%)\n", set.H1.Price, set.H1.ChangePct)
	fmt.Fprintf(&b, "📅 *Next 4 Hours:* $%.2f (%+.2f%%)\n", set.H4.Price, set.H4.ChangePct)
	fmt.Fprintf(&b, "🗓️ *Next 24 Hours:* $%.2f (%+.2f%%)\n\n", set.H24.Price, set.H24.ChangePct)
	fmt.Fprintf(&b, "🎯 *Model Accuracy:* %.0f%%\n", set.Accuracy)
	fmt.Fprintf(&b, "📊 *Based on:* %s\n\n", strings.Join(set.Factors, ", "))
	b.WriteString("⚠️ _This is not financial advice_")
	return b.String()
}

// FormatFindings renders the research digest message.
func FormatFindings(f *researcher.Findings) string {
	var b strings.Builder
	b.WriteString("🔬 *Latest Research Findings*\n\n")
	fmt.Fprintf(&b, "📰 *Market News Impact:*\n%s\n\n", f.NewsImpact)
	fmt.Fprintf(&b, "📊 *New Patterns Discovered:*\n%s\n\n", f.Patterns)
	fmt.Fprintf(&b, "🧠 *Strategy Updates:*\n%s\n\n", f.StrategyUpdates)
	fmt.Fprintf(&b, "📈 *Performance Metrics:*\n%s\n\n", f.Performance)
	fmt.Fprintf(&b, "🔄 _Last Updated: %s_", f.Timestamp)
	return b.String()
}

// Settings is the runtime snapshot shown by the settings button.
type Settings struct {
	Symbol       string
	Model        string
	BreakerState string
	Candles1h    int
	Candles4h    int
	Candles1d    int
}

// FormatSettings renders the settings/status message.
func FormatSettings(s Settings) string {
	var b strings.Builder
	b.WriteString("⚙️ *Bot Settings*\n\n")
	fmt.Fprintf(&b, "💱 *Symbol:* %s\n", s.Symbol)
	fmt.Fprintf(&b, "🧠 *Inference Model:* %s\n", s.Model)
	fmt.Fprintf(&b, "🔌 *Inference Circuit:* %s\n", s.BreakerState)
	fmt.Fprintf(&b, "🕯️ *Stored Candles:* 1h=%d, 4h=%d, 1d=%d", s.Candles1h, s.Candles4h, s.Candles1d)
	return b.String()
}

// FormatAlert renders a price-move alert message.
func FormatAlert(symbol string, prev, cur, changePct float64) string {
	direction := "📈"
	if changePct < 0 {
		direction = "📉"
	}
	return fmt.Sprintf("%s *%s Price Alert*\n\n"+
		"Price moved %+.2f%% to $%.2f (from $%.2f)\n\n"+
		"⏰ _%s_", direction, symbol, changePct, cur, prev,
		time.Now().UTC().Format("15:04 UTC"))
}
