package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Market.Symbol != "BTCUSDT" {
		t.Errorf("Symbol = %q", cfg.Market.Symbol)
	}
	if cfg.Inference.Model != "llama3.1:8b" {
		t.Errorf("Model = %q", cfg.Inference.Model)
	}
	if cfg.Tasks.CollectEvery.Std() != 5*time.Minute {
		t.Errorf("CollectEvery = %v", cfg.Tasks.CollectEvery.Std())
	}
	if cfg.Alerts.ThresholdPct != 1.0 {
		t.Errorf("ThresholdPct = %v", cfg.Alerts.ThresholdPct)
	}
	if len(cfg.Research.Feeds) == 0 {
		t.Error("default feeds missing")
	}
}

func TestLoadParsesYAMLAndDurations(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "token123"
  chat_id: 42
market:
  symbol: ETHUSDT
tasks:
  collect_every: 90s
  retrain_every: 12h
alerts:
  threshold_pct: 2.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.ChatID != 42 {
		t.Errorf("ChatID = %d", cfg.Telegram.ChatID)
	}
	if cfg.Market.Symbol != "ETHUSDT" {
		t.Errorf("Symbol = %q", cfg.Market.Symbol)
	}
	if cfg.Tasks.CollectEvery.Std() != 90*time.Second {
		t.Errorf("CollectEvery = %v", cfg.Tasks.CollectEvery.Std())
	}
	if cfg.Tasks.RetrainEvery.Std() != 12*time.Hour {
		t.Errorf("RetrainEvery = %v", cfg.Tasks.RetrainEvery.Std())
	}
	if cfg.Alerts.ThresholdPct != 2.5 {
		t.Errorf("ThresholdPct = %v", cfg.Alerts.ThresholdPct)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("TELEGRAM_CHAT_ID", "99")
	t.Setenv("OLLAMA_MODEL", "mistral:7b")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.BotToken != "env-token" {
		t.Errorf("BotToken = %q", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.ChatID != 99 {
		t.Errorf("ChatID = %d", cfg.Telegram.ChatID)
	}
	if cfg.Inference.Model != "mistral:7b" {
		t.Errorf("Model = %q", cfg.Inference.Model)
	}
}

func TestValidateRejectsMissingToken(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation to fail without a bot token")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
tasks:
  collect_every: often
`)
	if _, err := Load(path); err == nil {
		t.Error("expected an error for an unparseable duration")
	}
}
