package repository

import (
	"context"
	"fmt"
	"strings"

	"abyss-screener/internal/model"
	"abyss-screener/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WatchlistRepository interface {
	Get(ctx context.Context, param *model.GetWatchlistParam, opts ...utils.DBOption) ([]model.Watchlist, error)
	Upsert(ctx context.Context, watchlist *model.Watchlist, opts ...utils.DBOption) error
	Update(ctx context.Context, watchlist *model.Watchlist, opts ...utils.DBOption) error
}

type watchlistRepository struct {
	db *gorm.DB
}

func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &watchlistRepository{
		db: db,
	}
}

func (r *watchlistRepository) Get(ctx context.Context, param *model.GetWatchlistParam, opts ...utils.DBOption) ([]model.Watchlist, error) {
	var watchlists []model.Watchlist
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	qFilter := []string{}
	qFilterParam := []interface{}{}

	if param.ChatID != nil {
		qFilter = append(qFilter, "chat_id = ?")
		qFilterParam = append(qFilterParam, *param.ChatID)
	}

	if param.StockCode != nil {
		qFilter = append(qFilter, "stock_code = ?")
		qFilterParam = append(qFilterParam, *param.StockCode)
	}

	if param.Exchange != nil {
		qFilter = append(qFilter, "exchange = ?")
		qFilterParam = append(qFilterParam, *param.Exchange)
	}

	if param.IsActive != nil {
		qFilter = append(qFilter, "is_active = ?")
		qFilterParam = append(qFilterParam, *param.IsActive)
	}

	if len(qFilter) == 0 {
		return nil, fmt.Errorf("no filter provided")
	}

	if err := tx.Where(strings.Join(qFilter, " AND "), qFilterParam...).
		Order("stock_code ASC").
		Find(&watchlists).Error; err != nil {
		return nil, err
	}

	return watchlists, nil
}

func (r *watchlistRepository) Upsert(ctx context.Context, watchlist *model.Watchlist, opts ...utils.DBOption) error {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "stock_code"}, {Name: "exchange"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "is_active", "updated_at"}),
	}).Create(watchlist).Error
}

func (r *watchlistRepository) Update(ctx context.Context, watchlist *model.Watchlist, opts ...utils.DBOption) error {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	if err := tx.Save(watchlist).Error; err != nil {
		return err
	}

	return nil
}
