package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"abyss-screener/config"
	"abyss-screener/internal/model"
	"abyss-screener/internal/repository"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"
)

type DataCleaner interface {
	JobExecutionStrategy
}

// DataCleanUpPayload drives the retention pass. CandleRetentionDays zero
// leaves the local candle store alone, pruning it shrinks the window every
// future backtest can replay.
type DataCleanUpPayload struct {
	RetentionDays       int `json:"retention_days"`
	CandleRetentionDays int `json:"candle_retention_days"`
}

type DataCleanUpResult struct {
	Table string `json:"table"`
	Total int64  `json:"total"`
	Error string `json:"error,omitempty"`
}

type DataCleanUpStrategy struct {
	cfg             *config.Config
	log             *logger.Logger
	JobRepo         repository.JobRepository
	StockSignalRepo repository.StockSignalRepository
	CandleRepo      repository.CandleRepository
	BacktestRepo    repository.BacktestRepository
}

func NewDataCleanUpStrategy(
	cfg *config.Config,
	log *logger.Logger,
	jobRepo repository.JobRepository,
	stockSignalRepo repository.StockSignalRepository,
	candleRepo repository.CandleRepository,
	backtestRepo repository.BacktestRepository,
) DataCleaner {
	return &DataCleanUpStrategy{
		cfg:             cfg,
		log:             log,
		JobRepo:         jobRepo,
		StockSignalRepo: stockSignalRepo,
		CandleRepo:      candleRepo,
		BacktestRepo:    backtestRepo,
	}
}

func (s *DataCleanUpStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	s.log.InfoContext(ctx, "Starting data clean up")

	var payload DataCleanUpPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		s.log.ErrorContext(ctx, "Failed to unmarshal job payload", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to unmarshal job payload: %v", err)}, fmt.Errorf("failed to unmarshal job payload: %w", err)
	}

	date := utils.TimeNowWIB().AddDate(0, 0, -payload.RetentionDays)
	outputMsg := []DataCleanUpResult{}

	// Job timeouts cap at an hour, anything still running past two is a
	// dead process.
	outputMsg = append(outputMsg, s.clean(ctx, job, "stale_running_tasks", utils.TimeNowWIB().Add(-2*time.Hour), s.JobRepo.MarkStaleRunningAsTimeout))
	outputMsg = append(outputMsg, s.clean(ctx, job, "task_execution_history", date, s.JobRepo.DeleteTaskHistoryOlderThan))
	outputMsg = append(outputMsg, s.clean(ctx, job, "stock_signals", date, s.StockSignalRepo.DeleteOlderThan))
	// Outcomes before runs, the run row anchors the foreign key.
	outputMsg = append(outputMsg, s.clean(ctx, job, "trade_outcomes", date, s.BacktestRepo.DeleteOutcomesOlderThan))
	outputMsg = append(outputMsg, s.clean(ctx, job, "backtest_runs", date, s.BacktestRepo.DeleteRunsOlderThan))

	if payload.CandleRetentionDays > 0 {
		candleDate := utils.TimeNowWIB().AddDate(0, 0, -payload.CandleRetentionDays)
		outputMsg = append(outputMsg, s.clean(ctx, job, "daily_candles", candleDate, s.CandleRepo.DeleteCandlesOlderThan))
	}

	res, err := json.Marshal(outputMsg)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to marshal output message", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to marshal output message: %v", err)}, fmt.Errorf("failed to marshal output message: %w", err)
	}
	return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: string(res)}, nil
}

func (s *DataCleanUpStrategy) clean(
	ctx context.Context,
	job *model.Job,
	table string,
	date time.Time,
	sweepFn func(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error),
) DataCleanUpResult {
	total, err := sweepFn(ctx, date)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to clean old rows", logger.ErrorField(err), logger.StringField("table", table), logger.IntField("job_id", int(job.ID)))
		return DataCleanUpResult{
			Table: table,
			Total: total,
			Error: fmt.Sprintf("failed to clean %s rows older than %v: %v", table, date, err),
		}
	}
	return DataCleanUpResult{Table: table, Total: total}
}

func (s *DataCleanUpStrategy) GetType() JobType {
	return JobTypeDataCleanUp
}
