package inference

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"TradeResearcher/internal/cache"
	"TradeResearcher/internal/indicator"
	"TradeResearcher/internal/model"
)

func testFrame(t *testing.T) *model.IndicatorFrame {
	t.Helper()
	candles := make([]model.Candle, 30)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i] = model.Candle{
			Time: base.Add(time.Duration(i) * time.Hour),
			Open: 100, High: 110, Low: 90, Close: 100, Volume: 1000,
		}
	}
	f, err := indicator.Compute(candles)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	return f
}

func newTestClient(endpoint string) *Client {
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.Model = "test-model"
	cfg.RequestTimeout = 2 * time.Second
	return NewClient(cfg, cache.New())
}

func ollamaReply(inner string) string {
	// The endpoint wraps the model text in a JSON envelope.
	return fmt.Sprintf(`{"response": %q}`, inner)
}

func TestJudge_ParsesVerdictFromText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner := `Here is my analysis: {"technical_summary":"uptrend","price_action":"rising",` +
			`"entry_levels":"64000","exit_levels":"68000","risk_assessment":"moderate",` +
			`"confidence":"82","bias":"bullish"} hope that helps!`
		fmt.Fprint(w, ollamaReply(inner))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	v := c.Judge(context.Background(), "prompt-a", testFrame(t))

	if v.Degraded {
		t.Fatal("expected parsed verdict, got degraded")
	}
	if v.TechnicalSummary != "uptrend" || v.Bias != model.BiasBullish {
		t.Errorf("unexpected verdict: %+v", v)
	}
	if v.Confidence != 82 {
		t.Errorf("string confidence not coerced: %d", v.Confidence)
	}
}

func TestJudge_CachesByPromptHash(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, ollamaReply(`{"technical_summary":"s","price_action":"p","entry_levels":"e",`+
			`"exit_levels":"x","risk_assessment":"r","confidence":70,"bias":"neutral"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.Judge(context.Background(), "same prompt", testFrame(t))
	c.Judge(context.Background(), "same prompt", testFrame(t))

	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 upstream call for identical prompts, got %d", n)
	}
}

func TestJudge_MalformedJSONDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ollamaReply("no structured output here at all"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	frame := testFrame(t)
	v := c.Judge(context.Background(), "prompt-b", frame)

	if !v.Degraded {
		t.Fatal("expected degraded verdict for unparseable response")
	}
	if v.Bias != model.BiasNeutral || v.Confidence != 50 {
		t.Errorf("degraded verdict defaults wrong: %+v", v)
	}
	last := frame.Len() - 1
	wantEntry := fmt.Sprintf("Watch $%.2f support", frame.S1[last])
	if v.EntryLevels != wantEntry {
		t.Errorf("entry = %q, want %q", v.EntryLevels, wantEntry)
	}
}

func TestJudge_CircuitOpensAfterThreeFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 3; i++ {
		// Distinct prompts so the cache never interferes.
		v := c.Judge(context.Background(), fmt.Sprintf("prompt-%d", i), testFrame(t))
		if !v.Degraded {
			t.Fatalf("call %d: expected degraded verdict on HTTP 500", i)
		}
	}
	if c.BreakerState() != StateOpen {
		t.Fatalf("expected open breaker, state=%s", c.BreakerState())
	}

	before := calls.Load()
	v := c.Judge(context.Background(), "prompt-final", testFrame(t))
	if !v.Degraded || v.Bias != model.BiasNeutral {
		t.Error("short-circuited call must still yield a neutral degraded verdict")
	}
	if calls.Load() != before {
		t.Error("open breaker performed network I/O")
	}
}

func TestGenerate_ReturnsRawText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ollamaReply("free-form analysis text"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	text, err := c.Generate(context.Background(), "summarize this")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "free-form analysis text" {
		t.Errorf("text = %q", text)
	}
}

func TestGenerate_SharesBreakerWithJudge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 3; i++ {
		c.Generate(context.Background(), fmt.Sprintf("p-%d", i))
	}
	if c.BreakerState() != StateOpen {
		t.Fatalf("expected open breaker, state=%s", c.BreakerState())
	}
	if _, err := c.Generate(context.Background(), "p-final"); err == nil {
		t.Error("expected an error from the open breaker")
	}
}

func TestJudge_FailuresAreNotCached(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, ollamaReply(`{"technical_summary":"ok","price_action":"p","entry_levels":"e",`+
			`"exit_levels":"x","risk_assessment":"r","confidence":60,"bias":"neutral"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if v := c.Judge(context.Background(), "retry prompt", testFrame(t)); !v.Degraded {
		t.Fatal("expected degraded verdict while failing")
	}

	fail.Store(false)
	if v := c.Judge(context.Background(), "retry prompt", testFrame(t)); v.Degraded {
		t.Error("degraded verdict was cached; recovery should reach the endpoint")
	}
}
