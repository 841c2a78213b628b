package collector

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"TradeResearcher/internal/model"
)

// BinanceFetcher implements Fetcher against the Binance spot REST API.
type BinanceFetcher struct {
	client  *resty.Client
	baseURL string
}

// NewBinanceFetcher creates a fetcher. baseURL is overridable for tests;
// empty selects the public endpoint.
func NewBinanceFetcher(baseURL string) *BinanceFetcher {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "TradeResearcher/1.0")
	return &BinanceFetcher{client: client, baseURL: baseURL}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// FetchKlines pulls OHLCV rows. Binance answers with positional arrays:
// [openTime, open, high, low, close, volume, ...], numbers encoded as strings.
func (f *BinanceFetcher) FetchKlines(symbol string, interval model.Interval, limit int) ([]model.Candle, error) {
	resp, err := f.client.R().
		SetQueryParams(map[string]string{
			"symbol":   symbol,
			"interval": string(interval),
			"limit":    strconv.Itoa(limit),
		}).
		Get(f.baseURL + "/api/v3/klines")
	if err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("binance klines: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("binance decode: %w", err)
	}

	candles := make([]model.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			continue
		}
		c := model.Candle{Time: time.UnixMilli(openTime).UTC()}
		fields := []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
		ok := true
		for i, dst := range fields {
			var s string
			if err := json.Unmarshal(row[i+1], &s); err != nil {
				ok = false
				break
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				ok = false
				break
			}
			*dst = v
		}
		if ok {
			candles = append(candles, c)
		}
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return candles, nil
}

// FetchCurrentPrice returns the latest trade price for symbol.
func (f *BinanceFetcher) FetchCurrentPrice(symbol string) (float64, error) {
	resp, err := f.client.R().
		SetQueryParam("symbol", symbol).
		Get(f.baseURL + "/api/v3/ticker/price")
	if err != nil {
		return 0, fmt.Errorf("binance ticker: %w", err)
	}
	if resp.StatusCode() != 200 {
		return 0, fmt.Errorf("binance ticker: status %d", resp.StatusCode())
	}
	var ticker struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(resp.Body(), &ticker); err != nil {
		return 0, fmt.Errorf("binance ticker decode: %w", err)
	}
	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("binance ticker price %q: %w", ticker.Price, err)
	}
	return price, nil
}
