package repository

import (
	"context"
	"strings"
	"time"

	"abyss-screener/internal/model"
	"abyss-screener/pkg/utils"

	"gorm.io/gorm"
)

type StockSignalRepository interface {
	Create(ctx context.Context, signal *model.StockSignal, opts ...utils.DBOption) error
	CreateBulk(ctx context.Context, signals []model.StockSignal) error
	GetLatestSignals(ctx context.Context, param model.GetLatestSignalParam) ([]model.StockSignal, error)
	Get(ctx context.Context, param model.GetStockSignalsParam) ([]model.StockSignal, error)
	Update(ctx context.Context, param model.UpdateStockSignalParam, opts ...utils.DBOption) error
	DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error)
}

type stockSignalRepository struct {
	db *gorm.DB
}

func NewStockSignalRepository(db *gorm.DB) StockSignalRepository {
	return &stockSignalRepository{db: db}
}

func (s *stockSignalRepository) Create(ctx context.Context, signal *model.StockSignal, opts ...utils.DBOption) error {
	return utils.ApplyOptions(s.db.WithContext(ctx), opts...).Create(signal).Error
}

func (s *stockSignalRepository) CreateBulk(ctx context.Context, signals []model.StockSignal) error {
	return s.db.WithContext(ctx).CreateInBatches(signals, 100).Error
}

// GetLatestSignals returns the newest stored signal per stock code. The
// ranking runs inside the database, a screening pass can leave thousands of
// rows per symbol over time.
func (s *stockSignalRepository) GetLatestSignals(ctx context.Context, param model.GetLatestSignalParam) ([]model.StockSignal, error) {
	var latestIDs []uint

	var queryBuilder strings.Builder
	args := []interface{}{}

	queryBuilder.WriteString(`WITH ranked_signals AS (SELECT id, ROW_NUMBER() OVER(PARTITION BY stock_code ORDER BY timestamp DESC, created_at DESC) as rn FROM stock_signals`)

	whereClauses := []string{}
	if param.StockCode != "" {
		whereClauses = append(whereClauses, "stock_code = ?")
		args = append(args, param.StockCode)
	}
	if param.Exchange != "" {
		whereClauses = append(whereClauses, "exchange = ?")
		args = append(args, param.Exchange)
	}
	if !param.TimestampAfter.IsZero() {
		whereClauses = append(whereClauses, "timestamp >= ?")
		args = append(args, param.TimestampAfter)
	}

	if len(whereClauses) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(whereClauses, " AND "))
	}

	queryBuilder.WriteString(") SELECT id FROM ranked_signals WHERE rn = 1")

	err := s.db.WithContext(ctx).Raw(queryBuilder.String(), args...).Scan(&latestIDs).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	if len(latestIDs) == 0 {
		return nil, nil
	}

	var signals []model.StockSignal
	err = s.db.WithContext(ctx).
		Where("id IN ?", latestIDs).
		Order("stock_code ASC, timestamp DESC").
		Preload("SignalNarrative").
		Find(&signals).Error
	if err != nil {
		return nil, err
	}

	return signals, nil
}

func (s *stockSignalRepository) Get(ctx context.Context, param model.GetStockSignalsParam) ([]model.StockSignal, error) {
	var signals []model.StockSignal

	db := s.db.WithContext(ctx)
	if len(param.StockCodes) > 0 {
		db = db.Where("stock_code IN ?", param.StockCodes)
	}
	if param.Exchange != "" {
		db = db.Where("exchange = ?", param.Exchange)
	}
	if len(param.States) > 0 {
		db = db.Where("state IN ?", param.States)
	}
	if param.After != nil {
		db = db.Where("timestamp >= ?", *param.After)
	}
	if param.Limit != nil {
		db = db.Limit(*param.Limit)
	}

	err := db.Order("timestamp DESC, created_at DESC").
		Preload("SignalNarrative").
		Find(&signals).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	return signals, nil
}

func (s *stockSignalRepository) Update(ctx context.Context, param model.UpdateStockSignalParam, opts ...utils.DBOption) error {
	db := utils.ApplyOptions(s.db.WithContext(ctx), opts...)

	qFilter := []string{}
	qFilterValues := []interface{}{}

	values := map[string]interface{}{}

	if param.Filter.SignalNarrativeID != nil {
		qFilter = append(qFilter, "signal_narrative_id = ?")
		qFilterValues = append(qFilterValues, *param.Filter.SignalNarrativeID)
	}

	if param.Filter.HashIdentifier != nil {
		qFilter = append(qFilter, "hash_identifier = ?")
		qFilterValues = append(qFilterValues, *param.Filter.HashIdentifier)
	}

	if param.Filter.StockCode != nil {
		qFilter = append(qFilter, "stock_code = ?")
		qFilterValues = append(qFilterValues, *param.Filter.StockCode)
	}

	if param.Value.HashIdentifier != nil {
		values["hash_identifier"] = *param.Value.HashIdentifier
	}

	if param.Value.SignalNarrativeID != nil {
		values["signal_narrative_id"] = *param.Value.SignalNarrativeID
	}

	return db.Model(&model.StockSignal{}).
		Where(strings.Join(qFilter, " AND "), qFilterValues...).
		Updates(values).Error
}

func (s *stockSignalRepository) DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	db := utils.ApplyOptions(s.db.WithContext(ctx), opts...).
		Where("created_at < ?", date).
		Delete(&model.StockSignal{})
	if db.Error != nil {
		return 0, db.Error
	}
	return db.RowsAffected, nil
}
