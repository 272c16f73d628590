package strategy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"abyss-screener/config"
	"abyss-screener/internal/dto"
	"abyss-screener/internal/model"
	"abyss-screener/internal/report"
	"abyss-screener/internal/repository"
	"abyss-screener/internal/screener"
	"abyss-screener/pkg/cache"
	"abyss-screener/pkg/common"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type BacktestRunner interface {
	JobExecutionStrategy
	Run(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestReport, error)
}

// BacktestRunnerStrategy replays a signal generator over the stored history
// of a universe, simulates the forward outcome of every historical signal
// and persists the run with its aggregates and an HTML report.
type BacktestRunnerStrategy struct {
	cfg              *config.Config
	log              *logger.Logger
	inmemoryCache    cache.Cache
	candleRepository repository.CandleRepository
	backtestRepo     repository.BacktestRepository
	systemParamRepo  repository.SystemParamRepository
	universeRepo     repository.UniverseRepository
	uow              repository.UnitOfWork
	reportBuilder    *report.Builder

	generators map[string]screener.SignalGenerator
}

type BacktestRunnerPayload struct {
	StockCodes []string         `json:"stock_codes"`
	Exchange   string           `json:"exchange"`
	Generator  string           `json:"generator"`
	Range      string           `json:"range"`
	Thresholds *screener.Config `json:"thresholds"`
}

func NewBacktestRunnerStrategy(
	cfg *config.Config,
	log *logger.Logger,
	inmemoryCache cache.Cache,
	candleRepository repository.CandleRepository,
	backtestRepo repository.BacktestRepository,
	systemParamRepo repository.SystemParamRepository,
	universeRepo repository.UniverseRepository,
	uow repository.UnitOfWork,
	reportBuilder *report.Builder,
) BacktestRunner {
	return &BacktestRunnerStrategy{
		cfg:              cfg,
		log:              log,
		inmemoryCache:    inmemoryCache,
		candleRepository: candleRepository,
		backtestRepo:     backtestRepo,
		systemParamRepo:  systemParamRepo,
		universeRepo:     universeRepo,
		uow:              uow,
		reportBuilder:    reportBuilder,
		generators: map[string]screener.SignalGenerator{
			dto.GeneratorAbyss:    screener.AbyssGenerator{},
			dto.GeneratorBreakout: screener.BreakoutGenerator{},
		},
	}
}

func (s *BacktestRunnerStrategy) GetType() JobType {
	return JobTypeBacktestRunner
}

func (s *BacktestRunnerStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	var payload BacktestRunnerPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		s.log.ErrorContext(ctx, "Failed to unmarshal job payload", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to unmarshal job payload: %v", err)}, fmt.Errorf("failed to unmarshal job payload: %w", err)
	}

	backtestReport, err := s.Run(ctx, dto.BacktestRequest{
		StockCodes: payload.StockCodes,
		Exchange:   payload.Exchange,
		Generator:  payload.Generator,
		Range:      payload.Range,
		Thresholds: payload.Thresholds,
	})
	if err != nil {
		if errors.Is(err, ErrBacktestAlreadyRunning) {
			return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: err.Error()}, nil
		}
		s.log.ErrorContextWithAlert(ctx, "Backtest run failed", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("backtest run failed: %v", err)}, fmt.Errorf("backtest run failed: %w", err)
	}

	output, err := json.Marshal(map[string]interface{}{
		"run_id":      backtestReport.RunID,
		"generator":   backtestReport.Generator,
		"symbols":     backtestReport.Symbols,
		"signals":     backtestReport.Summary.Signals,
		"evaluated":   backtestReport.Summary.Evaluated,
		"win_rate":    backtestReport.Summary.WinRate,
		"report_path": backtestReport.ReportPath,
	})
	if err != nil {
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to marshal results: %v", err)}, fmt.Errorf("failed to marshal results: %w", err)
	}

	return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: string(output)}, nil
}

// ErrBacktestAlreadyRunning guards against overlapping runs of the same
// generator, schedules and manual triggers share the guard.
var ErrBacktestAlreadyRunning = errors.New("a backtest for this generator is already running")

func (s *BacktestRunnerStrategy) Run(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestReport, error) {
	generatorName := req.Generator
	if generatorName == "" {
		generatorName = dto.GeneratorAbyss
	}
	gen, ok := s.generators[generatorName]
	if !ok {
		return nil, fmt.Errorf("unknown signal generator %q", generatorName)
	}

	runningKey := fmt.Sprintf(common.KEY_BACKTEST_RUNNING, generatorName)
	if _, running := s.inmemoryCache.Get(runningKey); running {
		return nil, ErrBacktestAlreadyRunning
	}
	s.inmemoryCache.Set(runningKey, true, s.cfg.Backtest.Timeout)
	defer s.inmemoryCache.Delete(runningKey)

	thresholds, err := s.resolveThresholds(ctx, req.Thresholds)
	if err != nil {
		return nil, err
	}

	exchange := req.Exchange
	if exchange == "" {
		exchange = common.EXCHANGE_IDX
	}

	stocks, err := s.resolveBacktestUniverse(ctx, req.StockCodes, exchange)
	if err != nil {
		return nil, err
	}
	if len(stocks) == 0 {
		return nil, fmt.Errorf("no stocks to backtest")
	}

	dataRange := req.Range
	if dataRange == "" {
		dataRange = s.cfg.Backtest.DataRange
	}
	if dataRange == "" {
		dataRange = dto.Range5Year
	}

	thresholdsJSON, err := json.Marshal(thresholds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal thresholds: %w", err)
	}

	run := &model.BacktestRun{
		ID:         uuid.New(),
		Generator:  generatorName,
		Exchange:   exchange,
		DataRange:  dataRange,
		Thresholds: datatypes.JSON(thresholdsJSON),
		Status:     dto.BacktestStatusRunning,
		Symbols:    len(stocks),
		StartedAt:  utils.TimeNowWIB(),
	}
	if err := s.backtestRepo.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create backtest run: %w", err)
	}

	s.log.InfoContext(ctx, "Backtest run started",
		logger.StringField("run_id", run.ID.String()),
		logger.StringField("generator", generatorName),
		logger.IntField("symbols", len(stocks)),
	)

	perSymbol, outcomeRows := s.replayUniverse(ctx, run.ID, gen, thresholds, stocks, dataRange)

	var allOutcomes []screener.Outcome
	for _, symbol := range perSymbol {
		allOutcomes = append(allOutcomes, symbol.Outcomes...)
	}
	summary := screener.Summarize(allOutcomes)

	backtestReport := &dto.BacktestReport{
		RunID:      run.ID.String(),
		Generator:  generatorName,
		Range:      dataRange,
		Status:     dto.BacktestStatusCompleted,
		StartedAt:  run.StartedAt,
		FinishedAt: utils.TimeNowWIB(),
		Symbols:    len(stocks),
		Summary:    summary,
		PerSymbol:  perSymbol,
	}

	reportPath, err := s.reportBuilder.Render(backtestReport)
	if err != nil {
		// The numbers are already safe in the database, a missing chart page
		// is not worth failing the run over.
		s.log.ErrorContext(ctx, "Failed to render backtest report", logger.ErrorField(err), logger.StringField("run_id", run.ID.String()))
	} else {
		backtestReport.ReportPath = reportPath
	}

	run.Status = dto.BacktestStatusCompleted
	run.Signals = summary.Signals
	run.Evaluated = summary.Evaluated
	run.Wins = summary.Wins
	run.WinRate = summary.WinRate
	run.AvgMaxGain = summary.AvgMaxGain
	run.AvgMaxDrawdown = summary.AvgMaxDrawdown
	run.AvgDaysToPeak = summary.AvgDaysToPeak
	run.FinishedAt = sql.NullTime{Time: backtestReport.FinishedAt, Valid: true}
	if backtestReport.ReportPath != "" {
		run.ReportPath = sql.NullString{String: backtestReport.ReportPath, Valid: true}
	}

	err = s.uow.Run(func(opts ...utils.DBOption) error {
		if err := s.backtestRepo.CreateOutcomesBulk(ctx, outcomeRows, opts...); err != nil {
			return err
		}
		return s.backtestRepo.UpdateRun(ctx, run, opts...)
	})
	if err != nil {
		s.failRun(ctx, run, err)
		return nil, fmt.Errorf("failed to persist backtest run: %w", err)
	}

	s.log.InfoContext(ctx, "Backtest run completed",
		logger.StringField("run_id", run.ID.String()),
		logger.IntField("signals", summary.Signals),
		logger.IntField("evaluated", summary.Evaluated),
		logger.Float64Field("win_rate", summary.WinRate),
	)

	return backtestReport, nil
}

// replayUniverse fans the replay out over the universe. Symbol level
// problems are recorded on the symbol result, only the fan-out itself cannot
// fail.
func (s *BacktestRunnerStrategy) replayUniverse(
	ctx context.Context,
	runID uuid.UUID,
	gen screener.SignalGenerator,
	thresholds screener.Config,
	stocks []dto.StockInfo,
	dataRange string,
) ([]dto.SymbolBacktestResult, []model.TradeOutcome) {
	maxConcurrency := s.cfg.Backtest.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		perSymbol   []dto.SymbolBacktestResult
		outcomeRows []model.TradeOutcome
		semaphore   = make(chan struct{}, maxConcurrency)
	)

	for _, stock := range stocks {
		if !utils.ShouldContinue(ctx, s.log) {
			s.log.Info("Received stop signal, backtest replay stopped")
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

			symbolResult, rows := s.replaySymbol(ctx, runID, gen, thresholds, stock, dataRange)

			mu.Lock()
			perSymbol = append(perSymbol, symbolResult)
			outcomeRows = append(outcomeRows, rows...)
			mu.Unlock()
		})
	}

	wg.Wait()
	return perSymbol, outcomeRows
}

func (s *BacktestRunnerStrategy) replaySymbol(
	ctx context.Context,
	runID uuid.UUID,
	gen screener.SignalGenerator,
	thresholds screener.Config,
	stock dto.StockInfo,
	dataRange string,
) (dto.SymbolBacktestResult, []model.TradeOutcome) {
	symbolResult := dto.SymbolBacktestResult{
		StockCode: stock.StockCode,
		Exchange:  stock.Exchange,
	}

	series, err := s.candleRepository.GetStoredSeries(ctx, model.GetDailyCandlesParam{
		StockCode: stock.StockCode,
		Exchange:  stock.Exchange,
	})
	if err != nil {
		symbolResult.Error = err.Error()
		s.log.ErrorContext(ctx, "Failed to load stored series", logger.ErrorField(err), logger.StringField("symbol", stock.Symbol()))
		return symbolResult, nil
	}
	if len(series) == 0 {
		// Cold store for this symbol, fall back to the provider once.
		series, err = s.candleRepository.GetSeries(ctx, dto.GetStockDataParam{
			StockCode: stock.StockCode,
			Exchange:  stock.Exchange,
			Range:     dataRange,
			Interval:  dto.Interval1Day,
		})
		if err != nil {
			symbolResult.Error = err.Error()
			s.log.ErrorContext(ctx, "Failed to load provider series", logger.ErrorField(err), logger.StringField("symbol", stock.Symbol()))
			return symbolResult, nil
		}
	}
	symbolResult.Bars = len(series)

	signals, err := gen.Generate(series, thresholds)
	if err != nil {
		symbolResult.Error = err.Error()
		if !errors.Is(err, screener.ErrInsufficientData) {
			s.log.ErrorContext(ctx, "Failed to generate signals", logger.ErrorField(err), logger.StringField("symbol", stock.Symbol()))
		}
		return symbolResult, nil
	}

	outcomes := make([]screener.Outcome, 0, len(signals))
	rows := make([]model.TradeOutcome, 0, len(signals))
	for _, sig := range signals {
		outcome := screener.SimulateSignal(series, sig, thresholds)
		outcomes = append(outcomes, outcome)
		rows = append(rows, toTradeOutcome(runID, stock, series, sig, outcome))
	}

	symbolResult.Signals = signals
	symbolResult.Outcomes = outcomes
	symbolResult.Summary = screener.Summarize(outcomes)
	return symbolResult, rows
}

func toTradeOutcome(runID uuid.UUID, stock dto.StockInfo, series screener.Series, sig screener.Signal, outcome screener.Outcome) model.TradeOutcome {
	wib := utils.GetWibTimeLocation()
	return model.TradeOutcome{
		BacktestRunID: runID,
		StockCode:     stock.StockCode,
		Exchange:      stock.Exchange,
		State:         string(outcome.State),
		SignalDate:    time.Unix(series[sig.Index].Timestamp, 0).In(wib),
		EntryDate:     time.Unix(series[outcome.EntryIndex].Timestamp, 0).In(wib),
		EntryPrice:    outcome.EntryPrice,
		EntryMethod:   string(outcome.EntryMethod),
		Evaluable:     outcome.Evaluable,
		PeakPrice:     outcome.PeakPrice,
		TroughPrice:   outcome.TroughPrice,
		MaxGain:       outcome.MaxGain,
		MaxDrawdown:   outcome.MaxDrawdown,
		DaysToPeak:    outcome.DaysToPeak,
		DaysToTrough:  outcome.DaysToTrough,
		IsSuccess:     outcome.IsSuccess,
	}
}

func (s *BacktestRunnerStrategy) resolveThresholds(ctx context.Context, override *screener.Config) (screener.Config, error) {
	if override != nil {
		return *override, nil
	}
	thresholds, err := s.systemParamRepo.GetScreenerThresholds(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get screener thresholds", logger.ErrorField(err))
		return screener.Config{}, err
	}
	return thresholds, nil
}

func (s *BacktestRunnerStrategy) resolveBacktestUniverse(ctx context.Context, stockCodes []string, exchange string) ([]dto.StockInfo, error) {
	if len(stockCodes) > 0 {
		stocks := make([]dto.StockInfo, 0, len(stockCodes))
		for _, code := range stockCodes {
			symbol := code
			if !strings.Contains(symbol, ":") {
				symbol = exchange + ":" + symbol
			}
			stockCode, stockExchange, err := utils.ParseStockSymbol(symbol)
			if err != nil {
				return nil, err
			}
			stocks = append(stocks, dto.StockInfo{StockCode: stockCode, Exchange: stockExchange})
		}
		return stocks, nil
	}

	stocks, err := resolveUniverse(ctx, s.systemParamRepo, s.universeRepo, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(stocks) > 0 {
		return stocks, nil
	}

	// Nothing configured either, scan the market as a last resort.
	return s.universeRepo.Scan(ctx, exchange)
}

func (s *BacktestRunnerStrategy) failRun(ctx context.Context, run *model.BacktestRun, cause error) {
	run.Status = dto.BacktestStatusFailed
	run.ErrorMessage = sql.NullString{String: cause.Error(), Valid: true}
	run.FinishedAt = sql.NullTime{Time: utils.TimeNowWIB(), Valid: true}
	if err := s.backtestRepo.UpdateRun(ctx, run); err != nil {
		s.log.ErrorContext(ctx, "Failed to mark backtest run failed", logger.ErrorField(err), logger.StringField("run_id", run.ID.String()))
	}
}
