package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"abyss-screener/config"
	"abyss-screener/internal/dto"
	"abyss-screener/internal/report"
	"abyss-screener/internal/repository"
	"abyss-screener/internal/screener"
	"abyss-screener/pkg/decoder"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	backtestCSVPath   string
	backtestGenerator string
	backtestRange     string
	backtestHorizon   int
	backtestThreshold float64
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [SYMBOL...]",
	Short: "Replay a signal generator over history and grade forward outcomes",
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestCSVPath, "csv", "", "backtest a local daily candle CSV file instead of fetching symbols")
	backtestCmd.Flags().StringVar(&backtestGenerator, "generator", dto.GeneratorAbyss, "signal generator to replay, abyss or breakout")
	backtestCmd.Flags().StringVar(&backtestRange, "range", "", "history range to fetch, defaults to the configured backtest range")
	backtestCmd.Flags().IntVar(&backtestHorizon, "horizon", 0, "forward bars to grade an entry over, 0 keeps the configured horizon")
	backtestCmd.Flags().Float64Var(&backtestThreshold, "threshold", 0, "fractional gain counted as success, 0 keeps the configured threshold")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	if backtestCSVPath == "" && len(args) == 0 {
		return fmt.Errorf("nothing to backtest, pass symbols or --csv")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return err
	}

	generators := map[string]screener.SignalGenerator{
		dto.GeneratorAbyss:    screener.AbyssGenerator{},
		dto.GeneratorBreakout: screener.BreakoutGenerator{},
	}
	gen, ok := generators[backtestGenerator]
	if !ok {
		return fmt.Errorf("unknown signal generator %q", backtestGenerator)
	}

	thresholds := cfg.Screener
	if backtestHorizon > 0 {
		thresholds.ForwardHorizon = backtestHorizon
	}
	if backtestThreshold > 0 {
		thresholds.SuccessThreshold = backtestThreshold
	}

	dataRange := backtestRange
	if dataRange == "" {
		dataRange = cfg.Backtest.DataRange
	}
	if dataRange == "" {
		dataRange = dto.Range5Year
	}

	startedAt := utils.TimeNowWIB()
	var perSymbol []dto.SymbolBacktestResult

	if backtestCSVPath != "" {
		series, err := decoder.NewCSVCandleDecoder(log).DecodeFile(backtestCSVPath)
		if err != nil {
			return err
		}
		name := strings.ToUpper(strings.TrimSuffix(filepath.Base(backtestCSVPath), filepath.Ext(backtestCSVPath)))
		perSymbol = append(perSymbol, backtestSeries(name, "", series, gen, thresholds))
	} else {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		yahooRepo := repository.NewYahooFinanceRepository(cfg, log)
		timeframe := dto.DefaultDailyTimeframe(dataRange)

		for _, arg := range args {
			stockCode, exchange, err := utils.ParseStockSymbol(arg)
			if err != nil {
				return err
			}

			stockData, err := yahooRepo.Get(ctx, dto.GetStockDataParam{
				StockCode: stockCode,
				Exchange:  exchange,
				Range:     timeframe.Range,
				Interval:  timeframe.Interval,
			})
			if err != nil {
				return fmt.Errorf("failed to fetch %s:%s: %w", exchange, stockCode, err)
			}

			perSymbol = append(perSymbol, backtestSeries(stockCode, exchange, stockData.ToSeries(), gen, thresholds))
		}
	}

	var allOutcomes []screener.Outcome
	for _, symbol := range perSymbol {
		allOutcomes = append(allOutcomes, symbol.Outcomes...)
	}

	backtestReport := &dto.BacktestReport{
		RunID:      uuid.NewString(),
		Generator:  backtestGenerator,
		Range:      dataRange,
		Status:     dto.BacktestStatusCompleted,
		StartedAt:  startedAt,
		FinishedAt: utils.TimeNowWIB(),
		Symbols:    len(perSymbol),
		Summary:    screener.Summarize(allOutcomes),
		PerSymbol:  perSymbol,
	}

	builder := report.NewBuilder(cfg, log)
	chartPath, err := builder.Render(backtestReport)
	if err != nil {
		fmt.Printf("warning: failed to render chart: %v\n", err)
	} else {
		backtestReport.ReportPath = chartPath
	}

	summaryPath, err := writeBacktestSummary(cfg, backtestReport)
	if err != nil {
		return err
	}

	printBacktestReport(backtestReport, summaryPath)
	return nil
}

func backtestSeries(stockCode, exchange string, series screener.Series, gen screener.SignalGenerator, thresholds screener.Config) dto.SymbolBacktestResult {
	result := dto.SymbolBacktestResult{
		StockCode: stockCode,
		Exchange:  exchange,
		Bars:      len(series),
	}

	signals, err := gen.Generate(series, thresholds)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	outcomes := make([]screener.Outcome, 0, len(signals))
	for _, sig := range signals {
		outcomes = append(outcomes, screener.SimulateSignal(series, sig, thresholds))
	}

	result.Signals = signals
	result.Outcomes = outcomes
	result.Summary = screener.Summarize(outcomes)
	return result
}

func writeBacktestSummary(cfg *config.Config, backtestReport *dto.BacktestReport) (string, error) {
	if err := os.MkdirAll(cfg.Backtest.ReportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}

	data, err := json.MarshalIndent(backtestReport, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	path := filepath.Join(cfg.Backtest.ReportDir, fmt.Sprintf("backtest_%s.json", backtestReport.RunID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}

func printBacktestReport(backtestReport *dto.BacktestReport, summaryPath string) {
	summary := backtestReport.Summary
	fmt.Printf("generator %s | range %s | %d symbols | %d signals | %d evaluated\n",
		backtestReport.Generator, backtestReport.Range, backtestReport.Symbols, summary.Signals, summary.Evaluated)
	fmt.Printf("win rate %.1f%% (%d/%d) | avg max gain %.1f%% | avg max drawdown %.1f%% | avg days to peak %.1f\n",
		summary.WinRate*100, summary.Wins, summary.Evaluated,
		summary.AvgMaxGain*100, summary.AvgMaxDrawdown*100, summary.AvgDaysToPeak)

	for _, symbol := range backtestReport.PerSymbol {
		name := symbol.StockCode
		if symbol.Exchange != "" {
			name = symbol.Exchange + ":" + symbol.StockCode
		}
		if symbol.Error != "" {
			fmt.Printf("  %s: %s\n", name, symbol.Error)
			continue
		}
		fmt.Printf("  %s: %d bars, %d signals, %d evaluated, win rate %.1f%%\n",
			name, symbol.Bars, len(symbol.Signals), symbol.Summary.Evaluated, symbol.Summary.WinRate*100)
	}

	fmt.Printf("summary written to %s\n", summaryPath)
	if backtestReport.ReportPath != "" {
		fmt.Printf("chart written to %s\n", backtestReport.ReportPath)
	}
}
