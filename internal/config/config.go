package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes "5m" / "1h30m" style YAML values.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	Market struct {
		Symbol     string `yaml:"symbol"`
		BaseURL    string `yaml:"base_url"`
		KlineLimit int    `yaml:"kline_limit"`
		UseMock    bool   `yaml:"use_mock"`
	} `yaml:"market"`
	Inference struct {
		Endpoint    string  `yaml:"endpoint"`
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"inference"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Research struct {
		Feeds         []string `yaml:"feeds"`
		KnowledgeFile string   `yaml:"knowledge_file"`
		FearGreedURL  string   `yaml:"fear_greed_url"`
	} `yaml:"research"`
	Files struct {
		ModelParams string `yaml:"model_params"`
		ChartsDir   string `yaml:"charts_dir"`
		Portfolio   string `yaml:"portfolio"`
	} `yaml:"files"`
	Tasks struct {
		CollectEvery    Duration `yaml:"collect_every"`
		CollectBackoff  Duration `yaml:"collect_backoff"`
		AnalyzeEvery    Duration `yaml:"analyze_every"`
		AnalyzeBackoff  Duration `yaml:"analyze_backoff"`
		ResearchEvery   Duration `yaml:"research_every"`
		ResearchBackoff Duration `yaml:"research_backoff"`
		RetrainEvery    Duration `yaml:"retrain_every"`
		RetrainBackoff  Duration `yaml:"retrain_backoff"`
		AlertEvery      Duration `yaml:"alert_every"`
		AlertBackoff    Duration `yaml:"alert_backoff"`
		DigestCron      string   `yaml:"digest_cron"`
	} `yaml:"tasks"`
	Alerts struct {
		ThresholdPct float64 `yaml:"threshold_pct"`
	} `yaml:"alerts"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("MARKET_SYMBOL"); v != "" {
		cfg.Market.Symbol = v
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		cfg.Market.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_ENDPOINT"); v != "" {
		cfg.Inference.Endpoint = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Inference.Model = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.Market.Symbol == "" {
		cfg.Market.Symbol = "BTCUSDT"
	}
	if cfg.Market.KlineLimit == 0 {
		cfg.Market.KlineLimit = 168
	}
	if cfg.Inference.Endpoint == "" {
		cfg.Inference.Endpoint = "http://localhost:11434/api/generate"
	}
	if cfg.Inference.Model == "" {
		cfg.Inference.Model = "llama3.1:8b"
	}
	if cfg.Inference.Temperature == 0 {
		cfg.Inference.Temperature = 0.1
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/trading_bot.db"
	}
	if len(cfg.Research.Feeds) == 0 {
		cfg.Research.Feeds = []string{
			"https://cointelegraph.com/rss",
			"https://coindesk.com/arc/outboundfeeds/rss/",
			"https://cryptonews.com/news/feed/",
			"https://bitcoinmagazine.com/.rss/full/",
		}
	}
	if cfg.Research.KnowledgeFile == "" {
		cfg.Research.KnowledgeFile = "data/knowledge_base.json"
	}
	if cfg.Files.ModelParams == "" {
		cfg.Files.ModelParams = "data/model_params.json"
	}
	if cfg.Files.ChartsDir == "" {
		cfg.Files.ChartsDir = "data/charts"
	}
	if cfg.Files.Portfolio == "" {
		cfg.Files.Portfolio = "data/portfolio.json"
	}
	if cfg.Tasks.CollectEvery == 0 {
		cfg.Tasks.CollectEvery = Duration(5 * time.Minute)
	}
	if cfg.Tasks.CollectBackoff == 0 {
		cfg.Tasks.CollectBackoff = Duration(time.Minute)
	}
	if cfg.Tasks.AnalyzeEvery == 0 {
		cfg.Tasks.AnalyzeEvery = Duration(time.Hour)
	}
	if cfg.Tasks.AnalyzeBackoff == 0 {
		cfg.Tasks.AnalyzeBackoff = Duration(5 * time.Minute)
	}
	if cfg.Tasks.ResearchEvery == 0 {
		cfg.Tasks.ResearchEvery = Duration(time.Hour)
	}
	if cfg.Tasks.ResearchBackoff == 0 {
		cfg.Tasks.ResearchBackoff = Duration(5 * time.Minute)
	}
	if cfg.Tasks.RetrainEvery == 0 {
		cfg.Tasks.RetrainEvery = Duration(6 * time.Hour)
	}
	if cfg.Tasks.RetrainBackoff == 0 {
		cfg.Tasks.RetrainBackoff = Duration(30 * time.Minute)
	}
	if cfg.Tasks.AlertEvery == 0 {
		cfg.Tasks.AlertEvery = Duration(5 * time.Minute)
	}
	if cfg.Tasks.AlertBackoff == 0 {
		cfg.Tasks.AlertBackoff = Duration(time.Minute)
	}
	if cfg.Tasks.DigestCron == "" {
		cfg.Tasks.DigestCron = "0 0 9 * * *"
	}
	if cfg.Alerts.ThresholdPct == 0 {
		cfg.Alerts.ThresholdPct = 1.0
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.Market.Symbol == "" {
		return fmt.Errorf("market.symbol is required")
	}
	if c.Inference.Endpoint == "" {
		return fmt.Errorf("inference.endpoint is required")
	}
	if c.Alerts.ThresholdPct < 0 {
		return fmt.Errorf("alerts.threshold_pct must not be negative")
	}
	return nil
}
