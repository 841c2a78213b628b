package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"TradeResearcher/internal/alert"
	"TradeResearcher/internal/analyst"
	"TradeResearcher/internal/bot"
	"TradeResearcher/internal/cache"
	"TradeResearcher/internal/chart"
	"TradeResearcher/internal/collector"
	"TradeResearcher/internal/config"
	"TradeResearcher/internal/inference"
	"TradeResearcher/internal/model"
	"TradeResearcher/internal/portfolio"
	"TradeResearcher/internal/recorder"
	"TradeResearcher/internal/researcher"
	"TradeResearcher/internal/scheduler"
	"TradeResearcher/internal/series"
)

const storeDepth = 1000

var intervals = []model.Interval{model.Interval1h, model.Interval4h, model.Interval1d}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Info().Msg("TradeResearcher starting...")

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	// Persistence, with a noop fallback so the bot keeps serving.
	var rec recorder.Recorder
	if sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath); err != nil {
		log.Warn().Err(err).Msg("sqlite recorder unavailable, using noop")
		rec = recorder.NewNoopRecorder()
	} else {
		rec = sr
		defer sr.Close()
	}

	// Market data.
	var fetcher collector.Fetcher
	if cfg.Market.UseMock {
		fetcher = &collector.MockFetcher{Price: 50000}
	} else {
		fetcher = collector.NewBinanceFetcher(cfg.Market.BaseURL)
	}
	log.Info().Str("source", fetcher.Name()).Str("symbol", cfg.Market.Symbol).Msg("market data source ready")

	store := series.NewStore(storeDepth)
	col := collector.NewCollector(fetcher, store, rec, cfg.Market.Symbol, intervals, cfg.Market.KlineLimit)

	// Inference client with its verdict cache.
	infCfg := inference.DefaultConfig()
	infCfg.Endpoint = cfg.Inference.Endpoint
	infCfg.Model = cfg.Inference.Model
	infCfg.Temperature = cfg.Inference.Temperature
	client := inference.NewClient(infCfg, cache.New())

	an := analyst.New(store, client, rec, cache.New(), cfg.Market.Symbol, cfg.Files.ModelParams)

	res, err := researcher.New(cfg.Research.Feeds, client, rec, cfg.Market.Symbol,
		cfg.Research.KnowledgeFile, cfg.Research.FearGreedURL)
	if err != nil {
		log.Fatal().Err(err).Msg("init researcher")
	}

	charts, err := chart.NewRenderer(cfg.Files.ChartsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("init chart renderer")
	}

	journal, err := portfolio.OpenJournal(cfg.Files.Portfolio)
	if err != nil {
		log.Fatal().Err(err).Msg("open portfolio journal")
	}
	log.Info().Int("trades", journal.Summarize().TotalTrades).Msg("portfolio journal loaded")

	tg, err := bot.New(cfg.Telegram.BotToken, bot.Options{
		Analyst:      an,
		Research:     res,
		Charts:       charts,
		Store:        store,
		Symbol:       cfg.Market.Symbol,
		Model:        cfg.Inference.Model,
		ChatID:       cfg.Telegram.ChatID,
		BreakerState: func() string { return client.BreakerState().String() },
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init telegram bot")
	}

	monitor := alert.NewMonitor(col, tg, cfg.Market.Symbol, cfg.Alerts.ThresholdPct)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New()
	sched.Add(scheduler.Task{
		Name:    "collect",
		Period:  cfg.Tasks.CollectEvery.Std(),
		Backoff: cfg.Tasks.CollectBackoff.Std(),
		Run:     func(context.Context) error { return col.Sync() },
	})
	sched.Add(scheduler.Task{
		Name:    "analyze",
		Period:  cfg.Tasks.AnalyzeEvery.Std(),
		Backoff: cfg.Tasks.AnalyzeBackoff.Std(),
		Run: func(ctx context.Context) error {
			_, err := an.CurrentAnalysis(ctx)
			return err
		},
	})
	sched.Add(scheduler.Task{
		Name:    "research",
		Period:  cfg.Tasks.ResearchEvery.Std(),
		Backoff: cfg.Tasks.ResearchBackoff.Std(),
		Run:     res.Research,
	})
	sched.Add(scheduler.Task{
		Name:    "retrain",
		Period:  cfg.Tasks.RetrainEvery.Std(),
		Backoff: cfg.Tasks.RetrainBackoff.Std(),
		Run:     an.Retrain,
	})
	sched.Add(scheduler.Task{
		Name:    "alert",
		Period:  cfg.Tasks.AlertEvery.Std(),
		Backoff: cfg.Tasks.AlertBackoff.Std(),
		Run:     monitor.Check,
	})
	if err := sched.AddCron(cfg.Tasks.DigestCron, func() {
		sendDigest(ctx, an, res, tg, cfg.Market.Symbol)
	}); err != nil {
		log.Fatal().Err(err).Msg("register digest cron")
	}

	sched.Start(ctx)
	defer sched.Stop()

	go tg.Run(ctx)
	log.Info().Msg("TradeResearcher is running. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")
}

// sendDigest pushes the daily summary to the configured chat.
func sendDigest(ctx context.Context, an *analyst.Analyst, res *researcher.Researcher, tg *bot.Bot, symbol string) {
	analysis, err := an.CurrentAnalysis(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("digest analysis")
		return
	}
	if err := tg.Notify(bot.FormatAnalysis(symbol, analysis)); err != nil {
		log.Warn().Err(err).Msg("send digest analysis")
	}

	if set, err := an.Predictions(ctx); err == nil {
		if err := tg.Notify(bot.FormatPredictions(symbol, set)); err != nil {
			log.Warn().Err(err).Msg("send digest predictions")
		}
	} else {
		log.Warn().Err(err).Msg("digest predictions")
	}

	if err := tg.Notify(bot.FormatFindings(res.Findings())); err != nil {
		log.Warn().Err(err).Msg("send digest findings")
	}
}
