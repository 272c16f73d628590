package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"abyss-screener/config"
	"abyss-screener/internal/dto"
	"abyss-screener/internal/model"
	"abyss-screener/internal/repository"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"
)

type CandleSyncer interface {
	JobExecutionStrategy
}

// CandleSyncStrategy keeps the local daily candle store warm so backtests
// can replay a universe without touching the provider rate budget.
type CandleSyncStrategy struct {
	cfg              *config.Config
	log              *logger.Logger
	candleRepository repository.CandleRepository
	systemParamRepo  repository.SystemParamRepository
	universeRepo     repository.UniverseRepository
}

type CandleSyncPayload struct {
	Range            string          `json:"range"`
	Interval         string          `json:"interval"`
	Markets          []string        `json:"markets"`
	AdditionalStocks []dto.StockInfo `json:"additional_stocks"`
	MaxConcurrency   int             `json:"max_concurrency"`
}

type CandleSyncResult struct {
	Symbol string `json:"symbol"`
	Bars   int    `json:"bars"`
	Error  string `json:"error,omitempty"`
}

func NewCandleSyncStrategy(
	cfg *config.Config,
	log *logger.Logger,
	candleRepository repository.CandleRepository,
	systemParamRepo repository.SystemParamRepository,
	universeRepo repository.UniverseRepository,
) CandleSyncer {
	return &CandleSyncStrategy{
		cfg:              cfg,
		log:              log,
		candleRepository: candleRepository,
		systemParamRepo:  systemParamRepo,
		universeRepo:     universeRepo,
	}
}

func (s *CandleSyncStrategy) GetType() JobType {
	return JobTypeCandleSync
}

func (s *CandleSyncStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	var payload CandleSyncPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		s.log.ErrorContext(ctx, "Failed to unmarshal job payload", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to unmarshal job payload: %v", err)}, fmt.Errorf("failed to unmarshal job payload: %w", err)
	}

	timeframe := dto.DefaultDailyTimeframe(s.cfg.Backtest.DataRange)
	if payload.Range != "" {
		timeframe.Range = payload.Range
	}
	if payload.Interval != "" {
		timeframe.Interval = payload.Interval
	}
	if payload.MaxConcurrency <= 0 {
		payload.MaxConcurrency = s.cfg.Screening.MaxConcurrency
	}
	if payload.MaxConcurrency <= 0 {
		payload.MaxConcurrency = 5
	}

	stocks, err := resolveUniverse(ctx, s.systemParamRepo, s.universeRepo, payload.Markets, payload.AdditionalStocks)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to resolve universe", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to resolve universe: %v", err)}, fmt.Errorf("failed to resolve universe: %w", err)
	}
	if len(stocks) == 0 {
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: "no stocks to sync"}, nil
	}

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		results      []CandleSyncResult
		isHasError   bool
		isHasSuccess bool
		semaphore    = make(chan struct{}, payload.MaxConcurrency)
	)

	s.log.Debug("Start syncing daily candles", logger.IntField("total_stock", len(stocks)))

	for _, stock := range stocks {
		if !utils.ShouldContinue(ctx, s.log) {
			s.log.Info("Received stop signal, candle sync stopped")
			break
		}

		wg.Add(1)
		semaphore <- struct{}{}

		stock := stock
		utils.GoSafe(func() {
			defer func() {
				<-semaphore
				wg.Done()
			}()

			resultData := CandleSyncResult{Symbol: stock.Symbol()}
			bars, err := s.candleRepository.SyncDailyCandles(ctx, dto.GetStockDataParam{
				StockCode: stock.StockCode,
				Exchange:  stock.Exchange,
				Range:     timeframe.Range,
				Interval:  timeframe.Interval,
			})
			if err != nil {
				s.log.ErrorContext(ctx, "Failed to sync daily candles", logger.ErrorField(err), logger.StringField("symbol", stock.Symbol()))
				resultData.Error = err.Error()
				isHasError = true
			} else {
				resultData.Bars = bars
				isHasSuccess = true
			}

			mu.Lock()
			results = append(results, resultData)
			mu.Unlock()
		})
	}

	wg.Wait()

	s.log.Info("Candle sync completed", logger.IntField("total_stock", len(stocks)))

	if len(results) == 0 {
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: "no stocks synced"}, nil
	}

	resultJSON, err := json.Marshal(results)
	if err != nil {
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to marshal results: %v", err)}, fmt.Errorf("failed to marshal results: %w", err)
	}

	if isHasError && isHasSuccess {
		return JobResult{ExitCode: JOB_EXIT_CODE_PARTIAL_SUCCESS, Output: string(resultJSON)}, nil
	}

	if isHasError && !isHasSuccess {
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: string(resultJSON)}, nil
	}

	return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: string(resultJSON)}, nil
}
