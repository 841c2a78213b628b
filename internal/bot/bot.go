package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"TradeResearcher/internal/indicator"
	"TradeResearcher/internal/model"
	"TradeResearcher/internal/researcher"
	"TradeResearcher/internal/series"
)

// Callback data for the main menu buttons.
const (
	cbAnalysis   = "analysis"
	cbPrediction = "prediction"
	cbResearch   = "research"
	cbSettings   = "settings"
)

// predictionHistory is how many recent candles back the prediction chart.
const predictionHistory = 24

// api is the slice of tgbotapi.BotAPI the bot depends on.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Analyst produces the analysis and prediction results served to chats.
type Analyst interface {
	CurrentAnalysis(ctx context.Context) (*model.Analysis, error)
	Predictions(ctx context.Context) (*model.PredictionSet, error)
}

// ResearchSource serves the accumulated research digest.
type ResearchSource interface {
	Findings() *researcher.Findings
}

// ChartRenderer draws the PNG attachments.
type ChartRenderer interface {
	AnalysisChart(symbol string, f *model.IndicatorFrame) (string, error)
	PredictionChart(symbol string, candles []model.Candle, set *model.PredictionSet) (string, error)
}

// Bot serves the Telegram menu: on-demand analysis, predictions, research
// findings, and settings. It also pushes alerts and digests to a fixed chat.
type Bot struct {
	api        api
	analyst    Analyst
	research   ResearchSource
	charts     ChartRenderer
	store      *series.Store
	symbol     string
	model      string
	chatID     int64
	breakerFmt func() string
}

// Options carries the optional collaborators for New.
type Options struct {
	Analyst  Analyst
	Research ResearchSource
	Charts   ChartRenderer
	Store    *series.Store
	Symbol   string
	Model    string
	// ChatID is the destination for unsolicited pushes (alerts, digests).
	ChatID int64
	// BreakerState reports the inference circuit state for the settings view.
	BreakerState func() string
}

// New connects to the Telegram API with token and assembles the bot.
func New(token string, opts Options) (*Bot, error) {
	b, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	log.Info().Str("account", b.Self.UserName).Msg("telegram bot authorized")
	return newWithAPI(b, opts), nil
}

func newWithAPI(a api, opts Options) *Bot {
	breakerFmt := opts.BreakerState
	if breakerFmt == nil {
		breakerFmt = func() string { return "unknown" }
	}
	return &Bot{
		api:        a,
		analyst:    opts.Analyst,
		research:   opts.Research,
		charts:     opts.Charts,
		store:      opts.Store,
		symbol:     opts.Symbol,
		model:      opts.Model,
		chatID:     opts.ChatID,
		breakerFmt: breakerFmt,
	}
}

// Run processes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Notify pushes text to the configured chat. Used by alerts and the digest.
func (b *Bot) Notify(text string) error {
	if b.chatID == 0 {
		return fmt.Errorf("no notification chat configured")
	}
	return b.sendText(b.chatID, text)
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if msg := update.Message; msg != nil && msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.sendMenu(msg.Chat.ID)
		}
		return
	}

	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			log.Warn().Err(err).Msg("answer callback")
		}
		chatID := cb.Message.Chat.ID
		switch cb.Data {
		case cbAnalysis:
			b.sendAnalysis(ctx, chatID)
		case cbPrediction:
			b.sendPrediction(ctx, chatID)
		case cbResearch:
			b.sendResearch(chatID)
		case cbSettings:
			b.sendSettings(chatID)
		}
	}
}

func (b *Bot) sendMenu(chatID int64) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Current Analysis", cbAnalysis),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 Price Prediction", cbPrediction),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Market Research", cbResearch),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", cbSettings),
		),
	)

	msg := tgbotapi.NewMessage(chatID, FormatWelcome(b.symbol))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		log.Warn().Err(err).Msg("send menu")
	}
}

func (b *Bot) sendAnalysis(ctx context.Context, chatID int64) {
	analysis, err := b.analyst.CurrentAnalysis(ctx)
	if err != nil {
		b.sendError(chatID, "Error generating analysis", err)
		return
	}
	caption := FormatAnalysis(b.symbol, analysis)

	frame, err := b.frame()
	if err == nil {
		var path string
		if path, err = b.charts.AnalysisChart(b.symbol, frame); err == nil {
			b.sendPhoto(chatID, path, caption)
			return
		}
	}
	log.Warn().Err(err).Msg("analysis chart unavailable, sending text only")
	if err := b.sendText(chatID, caption); err != nil {
		log.Warn().Err(err).Msg("send analysis")
	}
}

func (b *Bot) sendPrediction(ctx context.Context, chatID int64) {
	set, err := b.analyst.Predictions(ctx)
	if err != nil {
		b.sendError(chatID, "Error generating predictions", err)
		return
	}
	caption := FormatPredictions(b.symbol, set)

	candles, err := b.store.Window(series.Key{Symbol: b.symbol, Interval: model.Interval1h}, predictionHistory, 2)
	if err == nil {
		var path string
		if path, err = b.charts.PredictionChart(b.symbol, candles, set); err == nil {
			b.sendPhoto(chatID, path, caption)
			return
		}
	}
	log.Warn().Err(err).Msg("prediction chart unavailable, sending text only")
	if err := b.sendText(chatID, caption); err != nil {
		log.Warn().Err(err).Msg("send prediction")
	}
}

func (b *Bot) sendResearch(chatID int64) {
	if err := b.sendText(chatID, FormatFindings(b.research.Findings())); err != nil {
		log.Warn().Err(err).Msg("send research")
	}
}

func (b *Bot) sendSettings(chatID int64) {
	s := Settings{
		Symbol:       b.symbol,
		Model:        b.model,
		BreakerState: b.breakerFmt(),
		Candles1h:    b.store.Len(series.Key{Symbol: b.symbol, Interval: model.Interval1h}),
		Candles4h:    b.store.Len(series.Key{Symbol: b.symbol, Interval: model.Interval4h}),
		Candles1d:    b.store.Len(series.Key{Symbol: b.symbol, Interval: model.Interval1d}),
	}
	if err := b.sendText(chatID, FormatSettings(s)); err != nil {
		log.Warn().Err(err).Msg("send settings")
	}
}

func (b *Bot) frame() (*model.IndicatorFrame, error) {
	candles, err := b.store.Window(series.Key{Symbol: b.symbol, Interval: model.Interval1h}, 168, indicator.SMAPeriod)
	if err != nil {
		return nil, err
	}
	return indicator.Compute(candles)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendPhoto(chatID int64, path, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(photo); err != nil {
		log.Warn().Err(err).Msg("send photo, falling back to text")
		if err := b.sendText(chatID, caption); err != nil {
			log.Warn().Err(err).Msg("send caption")
		}
	}
}

func (b *Bot) sendError(chatID int64, prefix string, err error) {
	log.Error().Err(err).Msg(prefix)
	if sendErr := b.sendText(chatID, fmt.Sprintf("%s: %v", prefix, err)); sendErr != nil {
		log.Warn().Err(sendErr).Msg("send error message")
	}
}
