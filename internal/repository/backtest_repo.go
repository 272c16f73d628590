package repository

import (
	"context"
	"time"

	"abyss-screener/internal/model"
	"abyss-screener/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BacktestRepository interface {
	CreateRun(ctx context.Context, run *model.BacktestRun, opts ...utils.DBOption) error
	UpdateRun(ctx context.Context, run *model.BacktestRun, opts ...utils.DBOption) error
	GetRuns(ctx context.Context, param model.GetBacktestRunsParam) ([]model.BacktestRun, error)
	FindRunByID(ctx context.Context, id uuid.UUID) (*model.BacktestRun, error)
	CreateOutcomesBulk(ctx context.Context, outcomes []model.TradeOutcome, opts ...utils.DBOption) error
	GetOutcomes(ctx context.Context, param model.GetTradeOutcomesParam) ([]model.TradeOutcome, error)
	DeleteRunsOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error)
	DeleteOutcomesOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error)
}

type backtestRepository struct {
	db *gorm.DB
}

func NewBacktestRepository(db *gorm.DB) BacktestRepository {
	return &backtestRepository{db: db}
}

func (b *backtestRepository) CreateRun(ctx context.Context, run *model.BacktestRun, opts ...utils.DBOption) error {
	return utils.ApplyOptions(b.db.WithContext(ctx), opts...).Create(run).Error
}

func (b *backtestRepository) UpdateRun(ctx context.Context, run *model.BacktestRun, opts ...utils.DBOption) error {
	return utils.ApplyOptions(b.db.WithContext(ctx), opts...).Updates(run).Error
}

func (b *backtestRepository) GetRuns(ctx context.Context, param model.GetBacktestRunsParam) ([]model.BacktestRun, error) {
	var runs []model.BacktestRun

	db := b.db.WithContext(ctx)
	if len(param.IDs) > 0 {
		db = db.Where("id IN ?", param.IDs)
	}
	if len(param.Statuses) > 0 {
		db = db.Where("status IN ?", param.Statuses)
	}
	if param.Limit != nil {
		db = db.Limit(*param.Limit)
	}

	if err := db.Order("started_at DESC").Find(&runs).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return runs, nil
}

func (b *backtestRepository) FindRunByID(ctx context.Context, id uuid.UUID) (*model.BacktestRun, error) {
	var run model.BacktestRun
	if err := b.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (b *backtestRepository) CreateOutcomesBulk(ctx context.Context, outcomes []model.TradeOutcome, opts ...utils.DBOption) error {
	if len(outcomes) == 0 {
		return nil
	}
	return utils.ApplyOptions(b.db.WithContext(ctx), opts...).CreateInBatches(outcomes, 100).Error
}

func (b *backtestRepository) GetOutcomes(ctx context.Context, param model.GetTradeOutcomesParam) ([]model.TradeOutcome, error) {
	var outcomes []model.TradeOutcome

	db := b.db.WithContext(ctx)
	if param.BacktestRunID != nil {
		db = db.Where("backtest_run_id = ?", *param.BacktestRunID)
	}
	if param.StockCode != "" {
		db = db.Where("stock_code = ?", param.StockCode)
	}
	if len(param.States) > 0 {
		db = db.Where("state IN ?", param.States)
	}
	if param.OnlyEvaluable != nil {
		db = db.Where("evaluable = ?", *param.OnlyEvaluable)
	}
	if param.Limit != nil {
		db = db.Limit(*param.Limit)
	}

	if err := db.Order("signal_date ASC").Find(&outcomes).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return outcomes, nil
}

func (b *backtestRepository) DeleteRunsOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	db := utils.ApplyOptions(b.db.WithContext(ctx), opts...).
		Where("created_at < ?", date).
		Delete(&model.BacktestRun{})
	if db.Error != nil {
		return 0, db.Error
	}
	return db.RowsAffected, nil
}

func (b *backtestRepository) DeleteOutcomesOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	db := utils.ApplyOptions(b.db.WithContext(ctx), opts...).
		Where("created_at < ?", date).
		Delete(&model.TradeOutcome{})
	if db.Error != nil {
		return 0, db.Error
	}
	return db.RowsAffected, nil
}
