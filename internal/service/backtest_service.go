package service

import (
	"context"
	"fmt"

	"abyss-screener/config"
	"abyss-screener/internal/dto"
	"abyss-screener/internal/model"
	"abyss-screener/internal/repository"
	"abyss-screener/internal/strategy"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"

	"github.com/google/uuid"
)

// BacktestService fronts the backtest runner for the HTTP and Telegram
// delivery layers, and reads back finished runs.
type BacktestService interface {
	RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestReport, error)
	GetRuns(ctx context.Context, limit int) ([]model.BacktestRun, error)
	GetRun(ctx context.Context, runID string) (*model.BacktestRun, error)
	GetRunReport(ctx context.Context, runID string) (*model.BacktestRun, []model.TradeOutcome, error)
}

type backtestService struct {
	cfg            *config.Config
	log            *logger.Logger
	backtestRunner strategy.BacktestRunner
	backtestRepo   repository.BacktestRepository
}

func NewBacktestService(
	cfg *config.Config,
	log *logger.Logger,
	backtestRunner strategy.BacktestRunner,
	backtestRepo repository.BacktestRepository,
) BacktestService {
	return &backtestService{
		cfg:            cfg,
		log:            log,
		backtestRunner: backtestRunner,
		backtestRepo:   backtestRepo,
	}
}

func (s *backtestService) RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Backtest.Timeout)
	defer cancel()

	report, err := s.backtestRunner.Run(ctx, req)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to run backtest", logger.ErrorField(err))
		return nil, err
	}
	return report, nil
}

func (s *backtestService) GetRuns(ctx context.Context, limit int) ([]model.BacktestRun, error) {
	param := model.GetBacktestRunsParam{}
	if limit > 0 {
		param.Limit = utils.ToPointer(limit)
	}

	runs, err := s.backtestRepo.GetRuns(ctx, param)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get backtest runs", logger.ErrorField(err))
		return nil, err
	}
	return runs, nil
}

func (s *backtestService) GetRun(ctx context.Context, runID string) (*model.BacktestRun, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}

	run, err := s.backtestRepo.FindRunByID(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to find backtest run", logger.ErrorField(err))
		return nil, err
	}

	return run, nil
}

func (s *backtestService) GetRunReport(ctx context.Context, runID string) (*model.BacktestRun, []model.TradeOutcome, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}

	run, err := s.backtestRepo.FindRunByID(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to find backtest run", logger.ErrorField(err))
		return nil, nil, err
	}

	outcomes, err := s.backtestRepo.GetOutcomes(ctx, model.GetTradeOutcomesParam{
		BacktestRunID: &id,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get trade outcomes", logger.ErrorField(err))
		return nil, nil, err
	}

	return run, outcomes, nil
}
