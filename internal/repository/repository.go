package repository

import (
	"abyss-screener/config"
	"abyss-screener/pkg/cache"
	"abyss-screener/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	JobRepo          JobRepository
	YahooFinanceRepo YahooFinanceRepository
	CandleRepo       CandleRepository
	UniverseRepo     UniverseRepository
	StockSignalRepo  StockSignalRepository
	BacktestRepo     BacktestRepository
	WatchlistRepo    WatchlistRepository
	SystemParamRepo  SystemParamRepository
	GeminiAIRepo     AIRepository
	UnitOfWork       UnitOfWork
}

func NewRepository(cfg *config.Config, db *gorm.DB, inmemoryCache cache.Cache, log *logger.Logger) (*Repository, error) {
	uow := NewUnitOfWork(db)
	geminiAIRepo, err := NewGeminiAIRepository(db, cfg, log)
	if err != nil {
		return nil, err
	}

	yahooFinanceRepo := NewYahooFinanceRepository(cfg, log)

	return &Repository{
		JobRepo:          NewJobRepository(db),
		YahooFinanceRepo: yahooFinanceRepo,
		CandleRepo:       NewCandleRepository(db, yahooFinanceRepo, inmemoryCache, log),
		UniverseRepo:     NewUniverseRepository(cfg, log),
		StockSignalRepo:  NewStockSignalRepository(db),
		BacktestRepo:     NewBacktestRepository(db),
		WatchlistRepo:    NewWatchlistRepository(db),
		SystemParamRepo:  NewSystemParamRepository(cfg, inmemoryCache, db),
		GeminiAIRepo:     geminiAIRepo,
		UnitOfWork:       uow,
	}, nil
}
