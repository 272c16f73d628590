package repository

import (
	"context"
	"encoding/json"
	"errors"

	"abyss-screener/config"
	"abyss-screener/internal/dto"
	"abyss-screener/internal/model"
	"abyss-screener/internal/screener"
	"abyss-screener/pkg/cache"
	"abyss-screener/pkg/utils"

	"gorm.io/gorm"
)

type SystemParamRepository interface {
	Get(ctx context.Context, name string, destValue interface{}) error
	GetScreenerThresholds(ctx context.Context) (screener.Config, error)
	GetDefaultUniverse(ctx context.Context) ([]dto.StockInfo, error)
}

type systemParamRepository struct {
	cfg           *config.Config
	inmemoryCache cache.Cache
	db            *gorm.DB
}

func NewSystemParamRepository(cfg *config.Config, inmemoryCache cache.Cache, db *gorm.DB) SystemParamRepository {
	return &systemParamRepository{cfg: cfg, inmemoryCache: inmemoryCache, db: db}
}

func (s *systemParamRepository) Get(ctx context.Context, name string, destValue interface{}) error {
	var param model.SystemParameter

	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&param).Error; err != nil {
		return err
	}
	return json.Unmarshal(param.Value, destValue)
}

// GetScreenerThresholds resolves the pipeline tunables. A stored system
// parameter wins over the static config, missing rows fall back to the
// config section so a fresh database still screens with sane values.
func (s *systemParamRepository) GetScreenerThresholds(ctx context.Context) (screener.Config, error) {
	if val, found := cache.GetFromCache[screener.Config](model.SysParamScreenerThresholds); found {
		return val, nil
	}

	destValue := s.cfg.Screener
	if err := s.Get(ctx, model.SysParamScreenerThresholds, &destValue); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return screener.Config{}, err
		}
		destValue = s.cfg.Screener
	}

	s.inmemoryCache.Set(model.SysParamScreenerThresholds, destValue, s.cfg.Cache.SysParamExpDuration)
	return destValue, nil
}

// GetDefaultUniverse returns the configured fallback symbol list, stored as
// "EXCHANGE:CODE" strings. An absent parameter is not an error, the caller
// scans the market instead.
func (s *systemParamRepository) GetDefaultUniverse(ctx context.Context) ([]dto.StockInfo, error) {
	if val, found := cache.GetFromCache[[]dto.StockInfo](model.SysParamDefaultUniverse); found {
		return val, nil
	}

	var symbols []string
	if err := s.Get(ctx, model.SysParamDefaultUniverse, &symbols); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var universe []dto.StockInfo
	for _, symbol := range symbols {
		stockCode, exchange, err := utils.ParseStockSymbol(symbol)
		if err != nil {
			continue
		}
		universe = append(universe, dto.StockInfo{StockCode: stockCode, Exchange: exchange})
	}

	s.inmemoryCache.Set(model.SysParamDefaultUniverse, universe, s.cfg.Cache.SysParamExpDuration)
	return universe, nil
}
