package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"abyss-screener/config"
	"abyss-screener/internal/contract"
	"abyss-screener/internal/dto"
	"abyss-screener/internal/model"
	"abyss-screener/internal/repository"
	"abyss-screener/internal/screener"
	"abyss-screener/internal/strategy"
	"abyss-screener/pkg/cache"
	"abyss-screener/pkg/common"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"

	"golang.org/x/sync/errgroup"
)

// ScreenService runs an ad hoc screening pass outside the scheduler, for the
// HTTP API and one-shot CLI runs. Unlike the scheduled job it reports every
// per symbol verdict back to the caller.
type ScreenService interface {
	Screen(ctx context.Context, req dto.ScreenRequest) (*dto.ScreenSummary, error)
}

type screenService struct {
	cfg             *config.Config
	log             *logger.Logger
	inmemoryCache   cache.Cache
	abyssScreener   strategy.AbyssScreener
	systemParamRepo repository.SystemParamRepository
	signalContract  contract.SignalContract
}

func NewScreenService(
	cfg *config.Config,
	log *logger.Logger,
	inmemoryCache cache.Cache,
	abyssScreener strategy.AbyssScreener,
	systemParamRepo repository.SystemParamRepository,
	signalContract contract.SignalContract,
) ScreenService {
	return &screenService{
		cfg:             cfg,
		log:             log,
		inmemoryCache:   inmemoryCache,
		abyssScreener:   abyssScreener,
		systemParamRepo: systemParamRepo,
		signalContract:  signalContract,
	}
}

func (s *screenService) Screen(ctx context.Context, req dto.ScreenRequest) (*dto.ScreenSummary, error) {
	stocks, err := s.resolveStocks(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(stocks) == 0 {
		return nil, fmt.Errorf("no stocks to screen")
	}

	timeframe := dto.DefaultDailyTimeframe(s.cfg.Backtest.DataRange)
	startedAt := utils.TimeNowWIB()

	newCtx, cancel := context.WithTimeout(ctx, s.cfg.Screening.Timeout)
	defer cancel()

	var mu sync.Mutex
	summary := &dto.ScreenSummary{
		Total:     len(stocks),
		StartedAt: startedAt,
	}

	g, gCtx := errgroup.WithContext(newCtx)
	g.SetLimit(s.maxConcurrency())

	for _, stock := range stocks {
		if !utils.ShouldContinue(gCtx, s.log) {
			s.log.Info("Received stop signal, screening stopped")
			break
		}

		stock := stock
		g.Go(func() error {
			result, signal, errScreen := s.abyssScreener.ScreenStock(gCtx, stock, timeframe, req.Thresholds)
			if errScreen != nil {
				// A symbol failing must not take the rest of the pass down.
				mu.Lock()
				defer mu.Unlock()
				entry := dto.ScreenStockResult{StockCode: stock.StockCode, Exchange: stock.Exchange, Error: errScreen.Error()}
				if errors.Is(errScreen, screener.ErrInsufficientData) {
					summary.Skipped++
				} else {
					s.log.ErrorContext(gCtx, "Failed to screen stock", logger.ErrorField(errScreen), logger.StringField("symbol", stock.Symbol()))
					summary.Failed++
				}
				summary.Results = append(summary.Results, entry)
				return nil
			}

			if req.Notify && signal != nil && result.IsBuy() {
				s.notifyBuySignal(gCtx, signal)
			}

			mu.Lock()
			if result.State != screener.StateNone {
				summary.Signals++
			}
			summary.Results = append(summary.Results, *result)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.log.ErrorContext(ctx, "Screening pass aborted", logger.ErrorField(err))
		return nil, err
	}

	summary.Duration = utils.TimeNowWIB().Sub(startedAt)

	s.log.Info("Screening pass completed",
		logger.IntField("total", summary.Total),
		logger.IntField("signals", summary.Signals),
		logger.IntField("skipped", summary.Skipped),
		logger.IntField("failed", summary.Failed),
	)
	return summary, nil
}

func (s *screenService) notifyBuySignal(ctx context.Context, signal *model.StockSignal) {
	key := fmt.Sprintf(common.KEY_SIGNAL_SENT, signal.HashIdentifier)
	if _, alreadySent := s.inmemoryCache.Get(key); alreadySent {
		s.log.DebugContext(ctx, "Signal already sent", logger.StringField("stock_code", signal.StockCode))
		return
	}

	isSend, err := s.signalContract.SendBuySignal(ctx, signal)
	if err != nil {
		s.log.ErrorContextWithAlert(ctx, "Failed to send buy signal", logger.ErrorField(err), logger.StringField("stock_code", signal.StockCode))
		return
	}
	if isSend {
		s.inmemoryCache.Set(key, true, 24*time.Hour)
	}
}

func (s *screenService) resolveStocks(ctx context.Context, req dto.ScreenRequest) ([]dto.StockInfo, error) {
	if len(req.StockCodes) == 0 {
		return s.systemParamRepo.GetDefaultUniverse(ctx)
	}

	exchange := req.Exchange
	if exchange == "" {
		exchange = common.EXCHANGE_IDX
	}

	seen := map[string]struct{}{}
	stocks := make([]dto.StockInfo, 0, len(req.StockCodes))
	for _, symbol := range req.StockCodes {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		if !strings.Contains(symbol, ":") {
			symbol = exchange + ":" + symbol
		}

		stockCode, parsedExchange, err := utils.ParseStockSymbol(symbol)
		if err != nil {
			return nil, fmt.Errorf("invalid stock symbol %q: %w", symbol, err)
		}

		stock := dto.StockInfo{StockCode: stockCode, Exchange: parsedExchange}
		if _, ok := seen[stock.Symbol()]; ok {
			continue
		}
		seen[stock.Symbol()] = struct{}{}
		stocks = append(stocks, stock)
	}

	return stocks, nil
}

func (s *screenService) maxConcurrency() int {
	if s.cfg.Screening.MaxConcurrency > 0 {
		return s.cfg.Screening.MaxConcurrency
	}
	return 5
}
