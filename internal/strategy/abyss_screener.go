package strategy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
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
	"abyss-screener/pkg/cache"
	"abyss-screener/pkg/common"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"

	"gorm.io/datatypes"
)

// signalSnapshotBars is how many trailing bars are stored with a signal for
// display and narration.
const signalSnapshotBars = 30

type AbyssScreener interface {
	JobExecutionStrategy
	ScreenStock(ctx context.Context, stock dto.StockInfo, timeframe dto.DataTimeframe, thresholds *screener.Config) (*dto.ScreenStockResult, *model.StockSignal, error)
}

// AbyssScreenerStrategy runs the staged bottoming pipeline over a universe.
// Any non NONE verdict is persisted, a BUY additionally goes out through the
// signal contract unless the same signal was already sent recently.
type AbyssScreenerStrategy struct {
	cfg              *config.Config
	log              *logger.Logger
	inmemoryCache    cache.Cache
	candleRepository repository.CandleRepository
	stockSignalRepo  repository.StockSignalRepository
	systemParamRepo  repository.SystemParamRepository
	universeRepo     repository.UniverseRepository
	signalContract   contract.SignalContract
}

type AbyssScreenerPayload struct {
	Range               string          `json:"range"`
	Interval            string          `json:"interval"`
	Markets             []string        `json:"markets"`
	AdditionalStocks    []dto.StockInfo `json:"additional_stocks"`
	MaxConcurrency      int             `json:"max_concurrency"`
	SignalCacheDuration string          `json:"signal_cache_duration"`
	Notify              *bool           `json:"notify"`
}

type AbyssScreenerResult struct {
	Symbol string `json:"symbol"`
	State  string `json:"state"`
	IsSent bool   `json:"is_sent"`
	Error  string `json:"error,omitempty"`
}

func NewAbyssScreenerStrategy(
	cfg *config.Config,
	log *logger.Logger,
	inmemoryCache cache.Cache,
	candleRepository repository.CandleRepository,
	stockSignalRepo repository.StockSignalRepository,
	systemParamRepo repository.SystemParamRepository,
	universeRepo repository.UniverseRepository,
	signalContract contract.SignalContract,
) AbyssScreener {
	return &AbyssScreenerStrategy{
		cfg:              cfg,
		log:              log,
		inmemoryCache:    inmemoryCache,
		candleRepository: candleRepository,
		stockSignalRepo:  stockSignalRepo,
		systemParamRepo:  systemParamRepo,
		universeRepo:     universeRepo,
		signalContract:   signalContract,
	}
}

func (s *AbyssScreenerStrategy) GetType() JobType {
	return JobTypeAbyssScreener
}

func (s *AbyssScreenerStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	var payload AbyssScreenerPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		s.log.ErrorContext(ctx, "Failed to unmarshal job payload", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to unmarshal job payload: %v", err)}, fmt.Errorf("failed to unmarshal job payload: %w", err)
	}

	timeframe := dto.DefaultDailyTimeframe(payload.Range)
	if payload.Interval != "" {
		timeframe.Interval = payload.Interval
	}
	if payload.MaxConcurrency <= 0 {
		payload.MaxConcurrency = s.cfg.Screening.MaxConcurrency
	}
	if payload.MaxConcurrency <= 0 {
		payload.MaxConcurrency = 5
	}

	signalCacheDuration := 24 * time.Hour
	if payload.SignalCacheDuration != "" {
		parsed, err := time.ParseDuration(payload.SignalCacheDuration)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to parse signal cache duration", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
			return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to parse signal cache duration: %v", err)}, fmt.Errorf("failed to parse signal cache duration: %w", err)
		}
		signalCacheDuration = parsed
	}

	notify := true
	if payload.Notify != nil {
		notify = *payload.Notify
	}

	stocks, err := resolveUniverse(ctx, s.systemParamRepo, s.universeRepo, payload.Markets, payload.AdditionalStocks)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to resolve universe", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to resolve universe: %v", err)}, fmt.Errorf("failed to resolve universe: %w", err)
	}
	if len(stocks) == 0 {
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: "no stocks to screen"}, nil
	}

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		results      []AbyssScreenerResult
		isHasError   bool
		isHasSuccess bool
		semaphore    = make(chan struct{}, payload.MaxConcurrency)
	)

	s.log.Debug("Start screening stocks", logger.IntField("total_stock", len(stocks)))

	for _, stock := range stocks {
		if !utils.ShouldContinue(ctx, s.log) {
			s.log.Info("Received stop signal, screening stopped")
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

			resultData := AbyssScreenerResult{Symbol: stock.Symbol()}
			defer func() {
				mu.Lock()
				results = append(results, resultData)
				mu.Unlock()
			}()

			screenResult, signal, err := s.ScreenStock(ctx, stock, timeframe, nil)
			if err != nil {
				resultData.Error = err.Error()
				if errors.Is(err, screener.ErrInsufficientData) {
					s.log.DebugContext(ctx, "Not enough history to screen", logger.StringField("symbol", stock.Symbol()))
					isHasSuccess = true
					return
				}
				s.log.ErrorContextWithAlert(ctx, "Failed to screen stock", logger.ErrorField(err), logger.StringField("symbol", stock.Symbol()))
				isHasError = true
				return
			}

			isHasSuccess = true
			resultData.State = string(screenResult.State)

			if signal == nil || !screenResult.IsBuy() || !notify {
				return
			}

			key := fmt.Sprintf(common.KEY_SIGNAL_SENT, signal.HashIdentifier)
			if _, alreadySent := s.inmemoryCache.Get(key); alreadySent {
				s.log.DebugContext(ctx, "Signal already sent", logger.StringField("symbol", stock.Symbol()))
				return
			}

			isSend, err := s.signalContract.SendBuySignal(ctx, signal)
			if err != nil {
				resultData.Error = err.Error()
				s.log.ErrorContextWithAlert(ctx, "Failed to send buy signal", logger.ErrorField(err), logger.StringField("symbol", stock.Symbol()))
				isHasError = true
				return
			}

			if isSend {
				s.inmemoryCache.Set(key, true, signalCacheDuration)
			}
			resultData.IsSent = isSend
		})
	}

	wg.Wait()

	s.log.Info("Screening completed", logger.IntField("total_stock", len(stocks)))

	if len(results) == 0 {
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: "result is empty no stocks screened"}, nil
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

// ScreenStock evaluates one symbol on fresh provider data. A NONE verdict
// only produces a result, anything further is also persisted with its stage
// trail and a snapshot of recent bars. A nil thresholds falls back to the
// configured system parameters.
func (s *AbyssScreenerStrategy) ScreenStock(ctx context.Context, stock dto.StockInfo, timeframe dto.DataTimeframe, override *screener.Config) (*dto.ScreenStockResult, *model.StockSignal, error) {
	var thresholds screener.Config
	if override != nil {
		thresholds = *override
	} else {
		configured, err := s.systemParamRepo.GetScreenerThresholds(ctx)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to get screener thresholds", logger.ErrorField(err))
			return nil, nil, err
		}
		thresholds = configured
	}

	stockData, err := s.candleRepository.Get(ctx, dto.GetStockDataParam{
		StockCode: stock.StockCode,
		Exchange:  stock.Exchange,
		Range:     timeframe.Range,
		Interval:  timeframe.Interval,
	})
	if err != nil {
		return nil, nil, err
	}

	series := stockData.ToSeries()
	evaluation, err := screener.Evaluate(series, thresholds)
	if err != nil {
		return nil, nil, err
	}

	lastBar := series[len(series)-1]
	screenResult := &dto.ScreenStockResult{
		StockCode: stock.StockCode,
		Exchange:  stock.Exchange,
		State:     screener.StateNone,
		Close:     lastBar.Close,
		Timestamp: lastBar.Timestamp,
		Stages:    evaluation.Stages,
	}
	if evaluation.Signal != nil {
		screenResult.State = evaluation.Signal.State
	}

	s.inmemoryCache.SetDefault(fmt.Sprintf(common.KEY_LAST_SCREEN, stock.Symbol()), screenResult)

	if evaluation.Signal == nil {
		return screenResult, nil, nil
	}

	stagesJSON, err := json.Marshal(evaluation.Stages)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal stages: %w", err)
	}

	snapshot := stockData.OHLCV
	if len(snapshot) > signalSnapshotBars {
		snapshot = snapshot[len(snapshot)-signalSnapshotBars:]
	}
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal ohlcv snapshot: %w", err)
	}

	signal := &model.StockSignal{
		StockCode:   stock.StockCode,
		Exchange:    stock.Exchange,
		State:       string(evaluation.Signal.State),
		Timestamp:   time.Unix(lastBar.Timestamp, 0).In(utils.GetWibTimeLocation()),
		MarketPrice: stockData.MarketPrice,
		Stages:      datatypes.JSON(stagesJSON),
		OHLCV:       datatypes.JSON(snapshotJSON),
	}
	signal.HashIdentifier = s.GenerateHashIdentifier(signal)

	if err := s.stockSignalRepo.Create(ctx, signal); err != nil {
		s.log.ErrorContext(ctx, "Failed to create stock signal", logger.ErrorField(err), logger.StringField("symbol", stock.Symbol()))
		return nil, nil, err
	}

	return screenResult, signal, nil
}

func (s *AbyssScreenerStrategy) GenerateHashIdentifier(signal *model.StockSignal) string {
	parts := []string{
		fmt.Sprintf("%s:%s", signal.Exchange, signal.StockCode),
		fmt.Sprintf("%d", signal.Timestamp.Unix()),
		signal.State,
		fmt.Sprintf("%f", signal.MarketPrice),
	}

	hashInput := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(hashInput))
	return hex.EncodeToString(hash[:])
}
