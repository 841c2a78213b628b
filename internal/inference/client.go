package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"TradeResearcher/internal/cache"
	"TradeResearcher/internal/model"
)

// ErrMalformedResponse reports that the endpoint answered but no parseable
// JSON object could be extracted from the text.
var ErrMalformedResponse = errors.New("malformed inference response")

// Config holds the inference client settings.
type Config struct {
	Endpoint       string        // e.g. http://localhost:11434/api/generate
	Model          string        // e.g. llama3.1:8b
	Temperature    float64       // generation temperature
	RequestTimeout time.Duration // hard per-call timeout
	MaxFailures    int           // breaker threshold
	ResetTimeout   time.Duration // breaker cooldown
	VerdictTTL     time.Duration // cache lifetime of parsed verdicts
}

// DefaultConfig returns the standard resilience settings.
func DefaultConfig() Config {
	return Config{
		Temperature:    0.1,
		RequestTimeout: 30 * time.Second,
		MaxFailures:    3,
		ResetTimeout:   60 * time.Second,
		VerdictTTL:     10 * time.Minute,
	}
}

// Client wraps the single external judgment call with a request timeout, a
// circuit breaker, and a verdict cache. Judge always returns a structurally
// valid verdict; every failure mode degrades to a locally built one.
type Client struct {
	http    *resty.Client
	breaker *Breaker
	cache   *cache.TTL
	cfg     Config
}

// NewClient creates a Client. The verdict cache is passed in so its lifecycle
// is owned by the application wiring, not by this package.
func NewClient(cfg Config, verdicts *cache.TTL) *Client {
	httpClient := resty.New()
	httpClient.SetTimeout(cfg.RequestTimeout)
	httpClient.SetHeader("Content-Type", "application/json")
	return &Client{
		http:    httpClient,
		breaker: NewBreaker(cfg.MaxFailures, cfg.ResetTimeout),
		cache:   verdicts,
		cfg:     cfg,
	}
}

// BreakerState exposes the breaker state for health reporting.
func (c *Client) BreakerState() BreakerState { return c.breaker.State() }

// generateRequest is the Ollama-style request body.
type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options"`
}

// generateResponse is the subset of the endpoint's reply we consume.
type generateResponse struct {
	Response string `json:"response"`
}

// Judge sends the rendered prompt to the inference endpoint and returns the
// structured verdict. The cache key is a stable hash of the prompt, so an
// unchanged prompt within the TTL costs no network call. On any failure
// (circuit open, timeout, HTTP error, malformed JSON) Judge returns an
// uncached degraded verdict derived from the frame and never an error.
func (c *Client) Judge(ctx context.Context, prompt string, frame *model.IndicatorFrame) *model.InferenceVerdict {
	key := fmt.Sprintf("llm:%016x", xxhash.Sum64String(prompt))
	if v, ok := c.cache.Get(key); ok {
		if verdict, ok := v.(*model.InferenceVerdict); ok {
			return verdict
		}
	}

	var verdict *model.InferenceVerdict
	err := c.breaker.Call(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(generateRequest{
				Model:  c.cfg.Model,
				Prompt: prompt,
				Stream: false,
				Options: map[string]any{
					"temperature": c.cfg.Temperature,
				},
			}).
			Post(c.cfg.Endpoint)
		if err != nil {
			return fmt.Errorf("inference request: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("inference endpoint status %d", resp.StatusCode())
		}

		var gen generateResponse
		if err := json.Unmarshal(resp.Body(), &gen); err != nil {
			return fmt.Errorf("decode inference envelope: %w", err)
		}
		v, err := parseVerdict(gen.Response)
		if err != nil {
			return err
		}
		verdict = v
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			log.Warn().Msg("inference call short-circuited, serving degraded verdict")
		} else {
			log.Error().Err(err).Msg("inference call failed, serving degraded verdict")
		}
		return DegradedVerdict(frame)
	}

	c.cache.Set(key, verdict, c.cfg.VerdictTTL)
	return verdict
}

// Generate sends prompt to the endpoint and returns the raw response text.
// Unlike Judge there is no fallback; callers that can live without the text
// handle the error themselves. The call still counts against the breaker.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var text string
	err := c.breaker.Call(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(generateRequest{
				Model:  c.cfg.Model,
				Prompt: prompt,
				Stream: false,
				Options: map[string]any{
					"temperature": c.cfg.Temperature,
				},
			}).
			Post(c.cfg.Endpoint)
		if err != nil {
			return fmt.Errorf("inference request: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("inference endpoint status %d", resp.StatusCode())
		}
		var gen generateResponse
		if err := json.Unmarshal(resp.Body(), &gen); err != nil {
			return fmt.Errorf("decode inference envelope: %w", err)
		}
		text = gen.Response
		return nil
	})
	return text, err
}

// parseVerdict extracts the JSON object substring (first '{' to last '}')
// from the model's free-text answer and decodes it.
func parseVerdict(text string) (*model.InferenceVerdict, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in response: %w", ErrMalformedResponse)
	}
	var v model.InferenceVerdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return nil, fmt.Errorf("decode verdict: %v: %w", err, ErrMalformedResponse)
	}
	if v.Bias == "" {
		v.Bias = model.BiasNeutral
	}
	return &v, nil
}

// DegradedVerdict builds the deterministic fallback served when the endpoint
// is unavailable. Entry/exit levels come from the latest support/resistance
// pivots when the frame provides them.
func DegradedVerdict(frame *model.IndicatorFrame) *model.InferenceVerdict {
	entry := "Entry levels calculating..."
	exit := "Exit levels calculating..."
	if frame != nil && frame.Len() > 0 {
		last := frame.Len() - 1
		entry = fmt.Sprintf("Watch $%.2f support", frame.S1[last])
		exit = fmt.Sprintf("Target $%.2f resistance", frame.R1[last])
	}
	return &model.InferenceVerdict{
		TechnicalSummary: "Technical analysis temporarily unavailable",
		PriceAction:      "Price action analysis pending",
		EntryLevels:      entry,
		ExitLevels:       exit,
		RiskAssessment:   "Risk assessment in progress",
		Confidence:       50,
		Bias:             model.BiasNeutral,
		Degraded:         true,
	}
}
