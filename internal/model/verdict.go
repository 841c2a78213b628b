package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Bias is the directional judgment of an analysis.
type Bias string

const (
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
	BiasNeutral Bias = "neutral"
)

// InferenceVerdict is the structured judgment extracted from the inference
// endpoint's free-text response. All fields are mandatory; the degraded
// fallback path fills every one of them so consumers never probe for gaps.
type InferenceVerdict struct {
	TechnicalSummary string `json:"technical_summary"`
	PriceAction      string `json:"price_action"`
	EntryLevels      string `json:"entry_levels"`
	ExitLevels       string `json:"exit_levels"`
	RiskAssessment   string `json:"risk_assessment"`
	Confidence       int    `json:"confidence"`
	Bias             Bias   `json:"bias"`

	// Degraded marks a locally computed fallback verdict.
	Degraded bool `json:"-"`
}

// UnmarshalJSON tolerates confidence arriving as either a JSON number or a
// quoted string ("75"), which LLM responses alternate between.
func (v *InferenceVerdict) UnmarshalJSON(data []byte) error {
	type alias InferenceVerdict
	aux := struct {
		*alias
		Confidence json.RawMessage `json:"confidence"`
	}{alias: (*alias)(v)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	raw := bytes.Trim(bytes.TrimSpace(aux.Confidence), `"`)
	if len(raw) > 0 {
		if n, err := strconv.Atoi(string(raw)); err == nil {
			v.Confidence = n
		}
	}
	return nil
}

// Analysis is the combined result served to the presentation layer.
type Analysis struct {
	Technical   string
	PriceAction string
	Levels      string
	Confidence  int
	Patterns    []PatternSignal
	Bias        Bias
	GeneratedAt time.Time
}
