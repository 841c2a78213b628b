package researcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"TradeResearcher/internal/inference"
	"TradeResearcher/internal/recorder"
)

// Feed items are only kept when the title mentions one of these.
var titleKeywords = []string{"bitcoin", "btc", "trading", "analysis", "prediction"}

const (
	itemsPerFeed   = 5
	findingsRecent = 3
)

// Findings is the research digest served to the presentation layer.
type Findings struct {
	NewsImpact      string
	Patterns        string
	StrategyUpdates string
	Performance     string
	Timestamp       string
}

// Researcher pulls trading content from RSS feeds, annotates it with the
// inference endpoint, tracks the fear & greed index, and accumulates
// everything in a persistent knowledge base.
type Researcher struct {
	feeds         []string
	parser        *gofeed.Parser
	http          *resty.Client
	client        *inference.Client
	rec           recorder.Recorder
	symbol        string
	knowledgePath string
	fearGreedURL  string

	mu sync.Mutex
	kb *KnowledgeBase
}

// New creates a Researcher. fearGreedURL is overridable for tests; empty
// selects the public endpoint.
func New(feeds []string, client *inference.Client, rec recorder.Recorder, symbol, knowledgePath, fearGreedURL string) (*Researcher, error) {
	kb, err := LoadKnowledge(knowledgePath)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	if fearGreedURL == "" {
		fearGreedURL = "https://api.alternative.me/fng/"
	}
	httpClient := resty.New()
	httpClient.SetTimeout(20 * time.Second)
	httpClient.SetHeader("User-Agent", "TradeResearcher/1.0")
	return &Researcher{
		feeds:         feeds,
		parser:        gofeed.NewParser(),
		http:          httpClient,
		client:        client,
		rec:           rec,
		symbol:        symbol,
		knowledgePath: knowledgePath,
		fearGreedURL:  fearGreedURL,
		kb:            kb,
	}, nil
}

// Research runs one full research cycle: harvest the feeds, annotate the
// matches, refresh sentiment, persist the knowledge base, and record each
// finding. Individual feed failures are logged and skipped; the cycle only
// fails when nothing at all could be gathered.
func (r *Researcher) Research(ctx context.Context) error {
	notes := r.harvest(ctx)

	sentiment, err := r.fetchFearGreed(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("fear & greed fetch failed")
	}

	if len(notes) == 0 && sentiment == nil {
		return fmt.Errorf("research cycle produced nothing")
	}

	for i := range notes {
		r.annotate(ctx, &notes[i])
		if err := r.rec.RecordResearch(&recorder.ResearchItem{
			Source:    notes[i].Source,
			Title:     notes[i].Title,
			Content:   notes[i].Summary,
			URL:       notes[i].Link,
			Sentiment: noteSentiment(&notes[i]),
			Relevance: 1,
		}); err != nil {
			log.Warn().Err(err).Str("title", notes[i].Title).Msg("record research")
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	r.mu.Lock()
	r.kb.Strategies = append(r.kb.Strategies, notes...)
	if sentiment != nil {
		r.kb.Sentiment = sentiment
	}
	r.kb.LastResearchUpdate = now
	r.kb.LastUpdate = now
	err = SaveKnowledge(r.knowledgePath, r.kb)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("save knowledge base: %w", err)
	}

	log.Info().Int("notes", len(notes)).Msg("research cycle completed")
	return nil
}

// harvest pulls every feed and keeps keyword-matching items.
func (r *Researcher) harvest(ctx context.Context) []StrategyNote {
	var notes []StrategyNote
	for _, url := range r.feeds {
		feed, err := r.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			log.Warn().Err(err).Str("feed", url).Msg("feed fetch failed")
			continue
		}
		items := feed.Items
		if len(items) > itemsPerFeed {
			items = items[:itemsPerFeed]
		}
		for _, item := range items {
			if !titleMatches(item.Title) {
				continue
			}
			note := StrategyNote{
				Title:     item.Title,
				Summary:   item.Description,
				Link:      item.Link,
				Published: item.Published,
				Source:    url,
				Type:      "news",
			}
			if note.Summary == "" && note.Link != "" {
				note.Summary = r.extractArticle(ctx, note.Link)
			}
			notes = append(notes, note)
		}
	}
	return notes
}

// extractArticle fetches the page and concatenates its paragraph text as a
// summary substitute. Best-effort; an empty string on any failure.
func (r *Researcher) extractArticle(ctx context.Context, url string) string {
	resp, err := r.http.R().SetContext(ctx).Get(url)
	if err != nil || resp.StatusCode() != 200 {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return ""
	}
	var b strings.Builder
	doc.Find("article p, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(text)
		}
		return b.Len() < 600
	})
	return b.String()
}

// annotate asks the inference endpoint to analyze one note. Failures leave
// the note un-annotated.
func (r *Researcher) annotate(ctx context.Context, note *StrategyNote) {
	prompt := fmt.Sprintf(`Analyze this trading-related content for %s:
Title: %s
Summary: %s

Extract:
1. Trading signals or patterns mentioned
2. Price predictions or targets
3. Technical indicators discussed
4. Risk factors mentioned
5. Overall sentiment (bullish/bearish/neutral)

Respond in JSON format.`, r.symbol, note.Title, note.Summary)

	analysis, err := r.client.Generate(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("title", note.Title).Msg("research annotation failed")
		return
	}
	note.AIAnalysis = analysis
}

// fearGreedResponse mirrors api.alternative.me/fng/.
type fearGreedResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
	} `json:"data"`
}

func (r *Researcher) fetchFearGreed(ctx context.Context) (*Sentiment, error) {
	resp, err := r.http.R().SetContext(ctx).Get(r.fearGreedURL)
	if err != nil {
		return nil, fmt.Errorf("fear & greed request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("fear & greed status %d", resp.StatusCode())
	}
	var fg fearGreedResponse
	if err := json.Unmarshal(resp.Body(), &fg); err != nil {
		return nil, fmt.Errorf("fear & greed decode: %w", err)
	}
	if len(fg.Data) == 0 {
		return nil, fmt.Errorf("fear & greed response empty")
	}
	var value int
	fmt.Sscanf(fg.Data[0].Value, "%d", &value)
	return &Sentiment{
		FearGreedValue: value,
		FearGreedLabel: fg.Data[0].Classification,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Findings summarizes the knowledge base for the presentation layer. It never
// fails; an empty base yields placeholder text.
func (r *Researcher) Findings() *Findings {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.kb.Strategies) == 0 && r.kb.Sentiment == nil {
		return &Findings{
			NewsImpact:      "No recent data available",
			Patterns:        "Analyzing...",
			StrategyUpdates: "Learning in progress",
			Performance:     "Initializing...",
			Timestamp:       time.Now().UTC().Format("2006-01-02 15:04 UTC"),
		}
	}

	recent := r.kb.Strategies
	if len(recent) > findingsRecent {
		recent = recent[len(recent)-findingsRecent:]
	}

	ts := r.kb.LastUpdate
	if ts == "" {
		ts = "Unknown"
	}
	return &Findings{
		NewsImpact:      summarizeNewsImpact(recent),
		Patterns:        sentimentPattern(r.kb.Sentiment),
		StrategyUpdates: strategyUpdates(recent),
		Performance:     fmt.Sprintf("📈 %d strategies analyzed\n🎯 Knowledge base growing", len(r.kb.Strategies)),
		Timestamp:       ts,
	}
}

func titleMatches(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range titleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// noteSentiment classifies a note by scanning its text for directional words.
func noteSentiment(note *StrategyNote) string {
	text := strings.ToLower(note.Title + " " + note.Summary + " " + note.AIAnalysis)
	bullish := strings.Contains(text, "bullish")
	bearish := strings.Contains(text, "bearish")
	switch {
	case bullish && !bearish:
		return "bullish"
	case bearish && !bullish:
		return "bearish"
	default:
		return "neutral"
	}
}

func summarizeNewsImpact(notes []StrategyNote) string {
	if len(notes) == 0 {
		return "No recent news analyzed"
	}
	bullish, bearish := 0, 0
	for i := range notes {
		switch noteSentiment(&notes[i]) {
		case "bullish":
			bullish++
		case "bearish":
			bearish++
		}
	}
	switch {
	case bullish > bearish:
		return fmt.Sprintf("📈 Bullish sentiment from %d sources", len(notes))
	case bearish > bullish:
		return fmt.Sprintf("📉 Bearish sentiment from %d sources", len(notes))
	default:
		return fmt.Sprintf("⚖️ Mixed sentiment from %d sources", len(notes))
	}
}

func sentimentPattern(s *Sentiment) string {
	if s == nil {
		return "Pattern analysis in progress..."
	}
	switch {
	case s.FearGreedValue >= 60:
		return fmt.Sprintf("🚀 Greed in the market (%d, %s)", s.FearGreedValue, s.FearGreedLabel)
	case s.FearGreedValue <= 40:
		return fmt.Sprintf("📉 Fear in the market (%d, %s)", s.FearGreedValue, s.FearGreedLabel)
	default:
		return fmt.Sprintf("🔄 Neutral mood (%d, %s)", s.FearGreedValue, s.FearGreedLabel)
	}
}

func strategyUpdates(notes []StrategyNote) string {
	if len(notes) == 0 {
		return "Learning new strategies..."
	}
	return fmt.Sprintf("📊 Analyzed %d new sources\n🧠 Strategy database expanding", len(notes))
}
