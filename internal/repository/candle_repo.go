package repository

import (
	"context"
	"fmt"
	"time"

	"abyss-screener/internal/dto"
	"abyss-screener/internal/model"
	"abyss-screener/internal/screener"
	"abyss-screener/pkg/cache"
	"abyss-screener/pkg/common"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CandleRepository serves daily series from two tiers. Get and GetSeries hit
// the market data provider behind a short lived snapshot cache, the stored
// variants read the local daily_candles table that the sync job keeps warm.
// Backtests prefer the local store, a full universe replay against the
// provider would burn the rate budget for nothing.
type CandleRepository interface {
	Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error)
	GetSeries(ctx context.Context, param dto.GetStockDataParam) (screener.Series, error)
	SyncDailyCandles(ctx context.Context, param dto.GetStockDataParam) (int, error)
	GetStoredSeries(ctx context.Context, param model.GetDailyCandlesParam) (screener.Series, error)
	CountStored(ctx context.Context, stockCode string, exchange string) (int64, error)
	DeleteCandlesOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error)
}

type candleRepository struct {
	db            *gorm.DB
	yahooRepo     YahooFinanceRepository
	inmemoryCache cache.Cache
	log           *logger.Logger
}

func NewCandleRepository(db *gorm.DB, yahooRepo YahooFinanceRepository, inmemoryCache cache.Cache, log *logger.Logger) CandleRepository {
	return &candleRepository{
		db:            db,
		yahooRepo:     yahooRepo,
		inmemoryCache: inmemoryCache,
		log:           log,
	}
}

func (r *candleRepository) Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error) {
	symbol := fmt.Sprintf("%s:%s", param.Exchange, param.StockCode)
	key := fmt.Sprintf(common.KEY_CANDLE_SNAPSHOT, symbol, param.Range)

	if data, found := cache.GetFromCache[*dto.StockData](key); found {
		return data, nil
	}

	data, err := r.yahooRepo.Get(ctx, param)
	if err != nil {
		return nil, err
	}

	r.inmemoryCache.SetDefault(key, data)
	return data, nil
}

func (r *candleRepository) GetSeries(ctx context.Context, param dto.GetStockDataParam) (screener.Series, error) {
	data, err := r.Get(ctx, param)
	if err != nil {
		return nil, err
	}
	return data.ToSeries(), nil
}

// SyncDailyCandles pulls the provider bars for one symbol and upserts them
// into the local store. Re-syncing an overlapping range is safe, the same
// trading day is replaced in place.
func (r *candleRepository) SyncDailyCandles(ctx context.Context, param dto.GetStockDataParam) (int, error) {
	data, err := r.yahooRepo.Get(ctx, param)
	if err != nil {
		return 0, err
	}

	rows := make([]model.DailyCandle, 0, len(data.OHLCV))
	for _, bar := range data.OHLCV {
		rows = append(rows, model.DailyCandle{
			StockCode: param.StockCode,
			Exchange:  param.Exchange,
			Date:      utils.TruncateToDay(time.Unix(bar.Timestamp, 0)),
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stock_code"}, {Name: "exchange"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).CreateInBatches(rows, 500).Error
	if err != nil {
		return 0, err
	}

	r.log.DebugContext(ctx, "Synced daily candles",
		logger.StringField("stock_code", param.StockCode),
		logger.StringField("exchange", param.Exchange),
		logger.IntField("bars", len(rows)),
	)
	return len(rows), nil
}

func (r *candleRepository) GetStoredSeries(ctx context.Context, param model.GetDailyCandlesParam) (screener.Series, error) {
	var rows []model.DailyCandle

	db := r.db.WithContext(ctx).
		Where("stock_code = ?", param.StockCode).
		Where("exchange = ?", param.Exchange)
	if param.From != nil {
		db = db.Where("date >= ?", *param.From)
	}
	if param.To != nil {
		db = db.Where("date <= ?", *param.To)
	}
	if param.Limit != nil {
		db = db.Limit(*param.Limit)
	}

	if err := db.Order("date ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	series := make(screener.Series, 0, len(rows))
	for i := range rows {
		series = append(series, rows[i].ToCandle())
	}
	return series, nil
}

func (r *candleRepository) CountStored(ctx context.Context, stockCode string, exchange string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DailyCandle{}).
		Where("stock_code = ?", stockCode).
		Where("exchange = ?", exchange).
		Count(&count).Error
	return count, err
}

func (r *candleRepository) DeleteCandlesOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("date < ?", date).
		Delete(&model.DailyCandle{})
	if db.Error != nil {
		return 0, db.Error
	}
	return db.RowsAffected, nil
}
