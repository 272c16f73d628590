package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"abyss-screener/config"
	"abyss-screener/internal/dto"
	"abyss-screener/internal/report"
	"abyss-screener/internal/repository"
	"abyss-screener/internal/screener"
	"abyss-screener/pkg/decoder"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"

	"github.com/spf13/cobra"
)

var (
	screenCSVPath string
	screenRange   string
	screenChart   bool
)

var screenCmd = &cobra.Command{
	Use:   "screen [SYMBOL...]",
	Short: "Screen symbols or a local CSV file for the staged bottoming pattern",
	RunE:  runScreen,
}

func init() {
	screenCmd.Flags().StringVar(&screenCSVPath, "csv", "", "screen a local daily candle CSV file instead of fetching symbols")
	screenCmd.Flags().StringVar(&screenRange, "range", "", "history range to fetch, defaults to 5y")
	screenCmd.Flags().BoolVar(&screenChart, "chart", false, "write a candlestick chart HTML into the report dir")
}

func runScreen(cmd *cobra.Command, args []string) error {
	if screenCSVPath == "" && len(args) == 0 {
		return fmt.Errorf("nothing to screen, pass symbols or --csv")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return err
	}

	builder := report.NewBuilder(cfg, log)

	if screenCSVPath != "" {
		series, err := decoder.NewCSVCandleDecoder(log).DecodeFile(screenCSVPath)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(screenCSVPath), filepath.Ext(screenCSVPath))
		return screenSeries(builder, strings.ToUpper(name), series, cfg.Screener)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	yahooRepo := repository.NewYahooFinanceRepository(cfg, log)
	timeframe := dto.DefaultDailyTimeframe(screenRange)

	for _, arg := range args {
		stockCode, exchange, err := utils.ParseStockSymbol(arg)
		if err != nil {
			return err
		}
		symbol := dto.StockInfo{StockCode: stockCode, Exchange: exchange}.Symbol()

		stockData, err := yahooRepo.Get(ctx, dto.GetStockDataParam{
			StockCode: stockCode,
			Exchange:  exchange,
			Range:     timeframe.Range,
			Interval:  timeframe.Interval,
		})
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", symbol, err)
		}

		if err := screenSeries(builder, symbol, stockData.ToSeries(), cfg.Screener); err != nil {
			if errors.Is(err, screener.ErrInsufficientData) {
				fmt.Printf("%s skipped: %v\n", symbol, err)
				continue
			}
			return err
		}
	}
	return nil
}

func screenSeries(builder *report.Builder, symbol string, series screener.Series, thresholds screener.Config) error {
	eval, err := screener.Evaluate(series, thresholds)
	if err != nil {
		return err
	}

	printEvaluation(symbol, series, eval)

	if screenChart {
		path, err := builder.RenderSeries(symbol, series, eval)
		if err != nil {
			return err
		}
		fmt.Printf("chart written to %s\n", path)
	}
	return nil
}

func printEvaluation(symbol string, series screener.Series, eval *screener.Evaluation) {
	state := screener.StateNone
	if eval.Signal != nil {
		state = eval.Signal.State
	}
	last := series.Last()

	fmt.Printf("%s | %s | close %.2f on %s | %d bars\n",
		symbol, state, last.Close, time.Unix(last.Timestamp, 0).UTC().Format("2006-01-02"), len(series))
	for _, stage := range eval.Stages {
		mark := "PASS"
		if !stage.Passed {
			mark = "FAIL"
		}
		line := fmt.Sprintf("  %-12s %s", dto.StageText(stage.Stage), mark)
		if stage.Reason != "" {
			line += " | " + stage.Reason
		}
		fmt.Println(line)
	}
}
