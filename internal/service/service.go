package service

import (
	"abyss-screener/config"
	"abyss-screener/internal/report"
	"abyss-screener/internal/repository"
	"abyss-screener/internal/strategy"
	"abyss-screener/pkg/cache"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/telegram"
)

type Service struct {
	SchedulerService   SchedulerService
	TaskExecutor       TaskExecutor
	TelegramBotService TelegramBotService
	BacktestService    BacktestService
	ScreenService      ScreenService
	SendSignalService  SendSignalService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	telegram *telegram.TelegramRateLimiter,
) *Service {
	sendSignalService := NewSendSignalService(cfg, log, telegram, repo.WatchlistRepo)

	abyssScreenerStrategy := strategy.NewAbyssScreenerStrategy(cfg, log, inmemoryCache, repo.CandleRepo, repo.StockSignalRepo, repo.SystemParamRepo, repo.UniverseRepo, sendSignalService)

	reportBuilder := report.NewBuilder(cfg, log)
	backtestRunnerStrategy := strategy.NewBacktestRunnerStrategy(cfg, log, inmemoryCache, repo.CandleRepo, repo.BacktestRepo, repo.SystemParamRepo, repo.UniverseRepo, repo.UnitOfWork, reportBuilder)

	executorStrategies := make(map[strategy.JobType]strategy.JobExecutionStrategy)
	executorStrategies[strategy.JobTypeCandleSync] = strategy.NewCandleSyncStrategy(cfg, log, repo.CandleRepo, repo.SystemParamRepo, repo.UniverseRepo)
	executorStrategies[strategy.JobTypeAbyssScreener] = abyssScreenerStrategy
	executorStrategies[strategy.JobTypeBacktestRunner] = backtestRunnerStrategy
	executorStrategies[strategy.JobTypeDataCleanUp] = strategy.NewDataCleanUpStrategy(cfg, log, repo.JobRepo, repo.StockSignalRepo, repo.CandleRepo, repo.BacktestRepo)

	taskExecutor := NewTaskExecutor(cfg, log, repo.JobRepo, executorStrategies)

	schedulerService := NewSchedulerService(cfg, log, repo.JobRepo, taskExecutor)
	telegramBotService := NewTelegramBotService(log, cfg, inmemoryCache, repo.StockSignalRepo, repo.WatchlistRepo, abyssScreenerStrategy, repo.GeminiAIRepo)
	backtestService := NewBacktestService(cfg, log, backtestRunnerStrategy, repo.BacktestRepo)
	screenService := NewScreenService(cfg, log, inmemoryCache, abyssScreenerStrategy, repo.SystemParamRepo, sendSignalService)

	return &Service{
		SchedulerService:   schedulerService,
		TaskExecutor:       taskExecutor,
		TelegramBotService: telegramBotService,
		BacktestService:    backtestService,
		ScreenService:      screenService,
		SendSignalService:  sendSignalService,
	}
}
