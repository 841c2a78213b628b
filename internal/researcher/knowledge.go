package researcher

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// StrategyNote is one piece of trading-related content pulled from a feed,
// optionally annotated by the inference endpoint.
type StrategyNote struct {
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	Link       string `json:"link"`
	Published  string `json:"published"`
	Source     string `json:"source"`
	Type       string `json:"type"`
	AIAnalysis string `json:"ai_analysis,omitempty"`
}

// Sentiment is the aggregated market-mood snapshot.
type Sentiment struct {
	FearGreedValue int    `json:"fear_greed_value"`
	FearGreedLabel string `json:"fear_greed_label"`
	Timestamp      string `json:"timestamp"`
}

// KnowledgeBase accumulates research output across runs.
type KnowledgeBase struct {
	Strategies         []StrategyNote `json:"strategies"`
	Sentiment          *Sentiment     `json:"sentiment,omitempty"`
	LastResearchUpdate string         `json:"last_research_update,omitempty"`
	LastUpdate         string         `json:"last_update,omitempty"`
}

// LoadKnowledge reads the knowledge base from a JSON file. Returns an empty
// base if the file doesn't exist.
func LoadKnowledge(filePath string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &KnowledgeBase{}, nil
		}
		return nil, err
	}
	var kb KnowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		return nil, err
	}
	return &kb, nil
}

// SaveKnowledge writes the knowledge base to a JSON file, creating the parent
// directory if needed.
func SaveKnowledge(filePath string, kb *KnowledgeBase) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(kb, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
