package repository

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"abyss-screener/config"
	"abyss-screener/internal/dto"
	"abyss-screener/pkg/httpclient"
	"abyss-screener/pkg/logger"

	"golang.org/x/time/rate"
)

// UniverseRepository resolves the symbol list a screening pass runs over.
// Scan asks the TradingView stock screener for every primary listing of a
// market, the abyss pipeline does its own filtering afterwards so the scan
// stays deliberately broad.
type UniverseRepository interface {
	Scan(ctx context.Context, market string) ([]dto.StockInfo, error)
}

type universeRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     httpclient.HTTPClient
	requestLimiter *rate.Limiter
	mu             sync.Mutex
}

func NewUniverseRepository(cfg *config.Config, log *logger.Logger) UniverseRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.TradingView.MaxRequestPerMin)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &universeRepository{
		cfg:            cfg,
		httpClient:     httpclient.New(cfg.TradingView.BaseURLScanner, cfg.TradingView.BaseTimeout, ""),
		log:            log,
		requestLimiter: requestLimiter,
		mu:             sync.Mutex{},
	}
}

func (u *universeRepository) Scan(ctx context.Context, market string) ([]dto.StockInfo, error) {
	u.mu.Lock()
	if !u.requestLimiter.Allow() {
		u.log.WarnContext(ctx, "TradingView scanner request limit exceeded",
			logger.IntField("max_request_per_minute", u.cfg.TradingView.MaxRequestPerMin),
		)
	}
	if err := u.requestLimiter.Wait(ctx); err != nil {
		u.mu.Unlock()
		return nil, err
	}
	u.mu.Unlock()

	if market == "" {
		return nil, fmt.Errorf("market is required")
	}

	maxStocks := u.cfg.TradingView.MaxUniverseStocks
	if maxStocks <= 0 {
		maxStocks = 500
	}

	payload := dto.UniverseScanRequest{
		Filter: []dto.UniverseScanFilter{
			{Left: "is_primary", Operation: "equal", Right: true},
			{Left: "volume", Operation: "greater", Right: 0},
		},
		Options: map[string]interface{}{"lang": "en"},
		Markets: []string{strings.ToLower(market)},
		Columns: []string{"name", "close", "volume", "market_cap_basic"},
		Sort:    &dto.UniverseScanSort{SortBy: "market_cap_basic", SortOrder: "desc"},
		Range:   []int{0, maxStocks},
	}

	url := fmt.Sprintf("/%s/scan?label-product=screener-stock", strings.ToLower(market))
	var response dto.UniverseScanResponse
	resp, err := u.httpClient.Post(ctx, url, payload, nil, &response)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to scan universe: %v", resp.Body)
	}

	var result []dto.StockInfo
	for _, row := range response.Data {
		if len(result) >= maxStocks {
			break
		}

		if row.Symbol == "" {
			continue
		}

		valueParse := strings.Split(row.Symbol, ":")
		if len(valueParse) < 2 {
			continue
		}
		result = append(result, dto.StockInfo{
			StockCode: valueParse[1],
			Exchange:  valueParse[0],
		})
	}

	u.log.InfoContext(ctx, "Universe scan finished",
		logger.StringField("market", market),
		logger.IntField("total_count", response.TotalCount),
		logger.IntField("selected", len(result)),
	)
	return result, nil
}
