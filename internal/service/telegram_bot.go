package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"abyss-screener/config"
	"abyss-screener/internal/dto"
	"abyss-screener/internal/model"
	"abyss-screener/internal/repository"
	"abyss-screener/internal/strategy"
	"abyss-screener/pkg/cache"
	"abyss-screener/pkg/common"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"
)

type TelegramBotService interface {
	ScreenStock(ctx context.Context, symbol string) (*dto.ScreenStockResult, error)
	NarrateSignal(ctx context.Context, symbol string) (*dto.AINarrateSignalResponse, error)
	LatestSignals(ctx context.Context, states []string) ([]model.StockSignal, error)
	Watch(ctx context.Context, req *dto.RequestWatchData) error
	Unwatch(ctx context.Context, req *dto.RequestWatchData) error
	GetWatchlist(ctx context.Context, chatID int64) ([]model.Watchlist, error)
}

type telegramBotService struct {
	log                   *logger.Logger
	cfg                   *config.Config
	inmemoryCache         cache.Cache
	stockSignalRepository repository.StockSignalRepository
	watchlistRepository   repository.WatchlistRepository
	abyssScreener         strategy.AbyssScreener
	aiRepository          repository.AIRepository
}

func NewTelegramBotService(
	log *logger.Logger,
	cfg *config.Config,
	inmemoryCache cache.Cache,
	stockSignalRepository repository.StockSignalRepository,
	watchlistRepository repository.WatchlistRepository,
	abyssScreener strategy.AbyssScreener,
	aiRepository repository.AIRepository,
) TelegramBotService {
	return &telegramBotService{
		log:                   log,
		cfg:                   cfg,
		inmemoryCache:         inmemoryCache,
		stockSignalRepository: stockSignalRepository,
		watchlistRepository:   watchlistRepository,
		abyssScreener:         abyssScreener,
		aiRepository:          aiRepository,
	}
}

// ScreenStock runs the bottoming pipeline for one symbol on demand. A result
// cached by a recent screening pass is served as is, the pipeline verdict
// does not change until the next daily bar anyway.
func (s *telegramBotService) ScreenStock(ctx context.Context, symbol string) (*dto.ScreenStockResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	stockCode, exchange, err := utils.ParseStockSymbol(symbol)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to parse stock symbol", logger.ErrorField(err))
		return nil, err
	}

	stock := dto.StockInfo{StockCode: stockCode, Exchange: exchange}

	if cached, ok := cache.GetFromCache[*dto.ScreenStockResult](fmt.Sprintf(common.KEY_LAST_SCREEN, stock.Symbol())); ok {
		s.log.DebugContext(ctx, "Serving cached screen result", logger.StringField("symbol", stock.Symbol()))
		return cached, nil
	}

	timeframe := dto.DefaultDailyTimeframe(s.cfg.Backtest.DataRange)
	result, _, err := s.abyssScreener.ScreenStock(ctx, stock, timeframe, nil)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to screen stock", logger.ErrorField(err), logger.StringField("symbol", stock.Symbol()))
		return nil, err
	}

	return result, nil
}

// NarrateSignal returns the AI reading for the newest stored signal of a
// symbol. A narrative generated earlier is reused from its stored response,
// the model is only called once per signal.
func (s *telegramBotService) NarrateSignal(ctx context.Context, symbol string) (*dto.AINarrateSignalResponse, error) {
	stockCode, exchange, err := utils.ParseStockSymbol(symbol)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to parse stock symbol", logger.ErrorField(err))
		return nil, err
	}

	signals, err := s.stockSignalRepository.GetLatestSignals(ctx, model.GetLatestSignalParam{
		StockCode:      stockCode,
		Exchange:       exchange,
		TimestampAfter: utils.TimeNowWIB().Add(-s.cfg.Telegram.SignalFreshnessDuration),
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get latest signals", logger.ErrorField(err))
		return nil, err
	}

	if len(signals) == 0 {
		err := fmt.Errorf("no recent signal found for %s:%s", exchange, stockCode)
		s.log.ErrorContext(ctx, "Failed to narrate signal, no data", logger.ErrorField(err))
		return nil, err
	}

	latest := signals[0]
	if latest.SignalNarrative != nil {
		var result dto.AINarrateSignalResponse
		if err := json.Unmarshal(latest.SignalNarrative.Response, &result); err != nil {
			s.log.ErrorContext(ctx, "Failed to unmarshal signal narrative", logger.ErrorField(err))
			return nil, err
		}
		return &result, nil
	}

	return s.aiRepository.NarrateSignal(ctx, &latest)
}

func (s *telegramBotService) LatestSignals(ctx context.Context, states []string) ([]model.StockSignal, error) {
	limit := s.cfg.Telegram.MaxShowSignalHistory
	if limit <= 0 {
		limit = 10
	}

	signals, err := s.stockSignalRepository.Get(ctx, model.GetStockSignalsParam{
		States: states,
		Limit:  utils.ToPointer(limit),
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get stock signals", logger.ErrorField(err))
		return nil, err
	}

	return signals, nil
}

func (s *telegramBotService) Watch(ctx context.Context, req *dto.RequestWatchData) error {
	if err := s.watchlistRepository.Upsert(ctx, req.ToWatchlistEntity()); err != nil {
		s.log.ErrorContext(ctx, "Failed to upsert watchlist", logger.ErrorField(err))
		return err
	}

	s.log.DebugContext(ctx, "Watchlist entry saved",
		logger.StringField("stock_code", req.StockCode),
		logger.StringField("exchange", req.Exchange),
	)
	return nil
}

func (s *telegramBotService) Unwatch(ctx context.Context, req *dto.RequestWatchData) error {
	entries, err := s.watchlistRepository.Get(ctx, &model.GetWatchlistParam{
		ChatID:    &req.ChatID,
		StockCode: &req.StockCode,
		Exchange:  &req.Exchange,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get watchlist entry", logger.ErrorField(err))
		return err
	}

	if len(entries) == 0 {
		return fmt.Errorf("%s:%s is not on the watchlist", req.Exchange, req.StockCode)
	}

	entry := entries[0]
	entry.IsActive = utils.ToPointer(false)
	if err := s.watchlistRepository.Update(ctx, &entry); err != nil {
		s.log.ErrorContext(ctx, "Failed to deactivate watchlist entry", logger.ErrorField(err))
		return err
	}

	return nil
}

func (s *telegramBotService) GetWatchlist(ctx context.Context, chatID int64) ([]model.Watchlist, error) {
	watchlists, err := s.watchlistRepository.Get(ctx, &model.GetWatchlistParam{
		ChatID:   &chatID,
		IsActive: utils.ToPointer(true),
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get watchlist", logger.ErrorField(err))
		return nil, err
	}

	return watchlists, nil
}
