package repository

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"abyss-screener/config"
	"abyss-screener/internal/dto"
	"abyss-screener/pkg/common"
	"abyss-screener/pkg/httpclient"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"

	"golang.org/x/time/rate"
)

type YahooFinanceRepository interface {
	Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error)
}

type yahooFinanceRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	mu             sync.Mutex
}

// NewYahooFinanceRepository creates a new instance of yahooFinanceRepository.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) YahooFinanceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &yahooFinanceRepository{
		httpClient:     httpclient.New(cfg.YahooFinance.BaseURL, cfg.YahooFinance.Timeout, ""),
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		mu:             sync.Mutex{},
	}
}

func (r *yahooFinanceRepository) Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error) {

	r.mu.Lock()
	if !r.requestLimiter.Allow() {
		r.logger.WarnContext(ctx, "Yahoo Finance API request limit exceeded",
			logger.IntField("max_request_per_minute", r.cfg.YahooFinance.MaxRequestPerMinute),
			logger.IntField("available_tokens_at", int(r.requestLimiter.TokensAt(utils.TimeNowWIB()))),
		)
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.mu.Unlock()

	symbol := param.StockCode
	if param.Exchange == common.EXCHANGE_IDX {
		symbol = fmt.Sprintf("%s.JK", param.StockCode)
	}

	endpoint := "/" + symbol

	period1, period2 := r.MapPeriodeStringToUnix(param.Range)
	if period1 == 0 || period2 == 0 {
		return nil, fmt.Errorf("invalid period: %s", param.Range)
	}
	queryParams := map[string]string{
		"period1":        fmt.Sprintf("%d", period1),
		"period2":        fmt.Sprintf("%d", period2),
		"interval":       param.Interval,
		"includePrePost": "false",
		"events":         "div,split",
	}

	headers := map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9",
		"Accept-Encoding": "gzip, deflate, br",
		"Connection":      "keep-alive",
		"Referer":         "https://finance.yahoo.com/",
	}

	var yahooResp dto.YahooFinanceResponse
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, headers, &yahooResp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from yahoo finance: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Yahoo Finance API returned Non-OK status",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("yahoo finance api returned status: %d", resp.StatusCode)
	}

	if yahooResp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo finance api error: %v", yahooResp.Chart.Error)
	}

	if len(yahooResp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no data returned for symbol: %s", symbol)
	}

	result := yahooResp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data available for symbol: %s", symbol)
	}

	quote := result.Indicators.Quote[0]

	// Drop bars with missing fields, suspended days come back as zeros and
	// would corrupt the volume statistics downstream.
	var ohlcvData []dto.StockOHLCV
	for i, timestamp := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			continue
		}

		if quote.Open[i] == 0 || quote.High[i] == 0 || quote.Low[i] == 0 ||
			quote.Close[i] == 0 || quote.Volume[i] == 0 {
			continue
		}

		ohlcvData = append(ohlcvData, dto.StockOHLCV{
			Timestamp: timestamp,
			Open:      quote.Open[i],
			High:      quote.High[i],
			Low:       quote.Low[i],
			Close:     quote.Close[i],
			Volume:    quote.Volume[i],
		})
	}

	if len(ohlcvData) == 0 {
		return nil, fmt.Errorf("no valid OHLCV data found for symbol: %s", symbol)
	}

	marketPrice := 0.0
	if result.Meta.RegularMarketPrice > 0 {
		marketPrice = result.Meta.RegularMarketPrice
	}

	return &dto.StockData{
		MarketPrice: marketPrice,
		OHLCV:       ohlcvData,
		Range:       param.Range,
		Interval:    param.Interval,
	}, nil
}

// MapPeriodeStringToUnix converts a lookback range into period bounds. The
// long ranges exist for the screener, the pipeline needs roughly two years
// of daily bars before it can evaluate at all.
func (r *yahooFinanceRepository) MapPeriodeStringToUnix(periode string) (int64, int64) {

	now := utils.TimeNowWIB()
	switch periode {
	case "1d":
		return now.AddDate(0, 0, -1).Unix(), now.Unix()
	case "1w":
		return now.AddDate(0, 0, -7).Unix(), now.Unix()
	case "1m":
		return now.AddDate(0, 0, -30).Unix(), now.Unix()
	case "3m":
		return now.AddDate(0, 0, -90).Unix(), now.Unix()
	case "6mo":
		return now.AddDate(0, 0, -180).Unix(), now.Unix()
	case "1y":
		return now.AddDate(-1, 0, 0).Unix(), now.Unix()
	case "2y":
		return now.AddDate(-2, 0, 0).Unix(), now.Unix()
	case "5y":
		return now.AddDate(-5, 0, 0).Unix(), now.Unix()
	case "10y":
		return now.AddDate(-10, 0, 0).Unix(), now.Unix()
	case "max":
		return now.AddDate(-30, 0, 0).Unix(), now.Unix()
	default:
		return 0, 0
	}
}
