package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"abyss-screener/config"
	"abyss-screener/internal/dto"
	"abyss-screener/internal/screener"
	"abyss-screener/pkg/logger"

	"github.com/stretchr/testify/require"
)

func testBuilder(t *testing.T) (*Builder, string) {
	t.Helper()
	dir := t.TempDir()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	cfg := &config.Config{Backtest: config.Backtest{ReportDir: dir}}
	return NewBuilder(cfg, log), dir
}

func sampleReport() *dto.BacktestReport {
	started := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return &dto.BacktestReport{
		RunID:      "3f6c0d9a",
		Generator:  dto.GeneratorAbyss,
		Range:      dto.Range5Year,
		Status:     dto.BacktestStatusCompleted,
		StartedAt:  started,
		FinishedAt: started.Add(42 * time.Second),
		Symbols:    2,
		Summary: screener.Summary{
			Signals:    6,
			Evaluated:  5,
			Wins:       3,
			WinRate:    0.6,
			AvgMaxGain: 0.22,
			ByState: map[screener.SignalState]screener.StateSummary{
				screener.StateBuy: {Signals: 2, Evaluated: 2, Wins: 2, WinRate: 1, AvgMaxGain: 0.4, AvgMaxDrawdown: -0.05},
				screener.StatePre: {Signals: 4, Evaluated: 3, Wins: 1, WinRate: 0.33, AvgMaxGain: 0.1, AvgMaxDrawdown: -0.12},
			},
		},
		PerSymbol: []dto.SymbolBacktestResult{
			{
				StockCode: "BBCA",
				Exchange:  "IDX",
				Bars:      1250,
				Outcomes: []screener.Outcome{
					{State: screener.StateBuy, Evaluable: true, MaxGain: 0.41, MaxDrawdown: -0.03, IsSuccess: true},
					{State: screener.StatePre, Evaluable: true, MaxGain: -0.12, MaxDrawdown: -0.2},
				},
				Summary: screener.Summary{Signals: 2, Evaluated: 2, Wins: 1, WinRate: 0.5},
			},
			{
				StockCode: "ANTM",
				Exchange:  "IDX",
				Bars:      1250,
				Outcomes: []screener.Outcome{
					{State: screener.StateBuy, Evaluable: true, MaxGain: 0.38, MaxDrawdown: -0.07, IsSuccess: true},
					{State: screener.StatePre, Evaluable: false},
				},
				Summary: screener.Summary{Signals: 2, Evaluated: 1, Wins: 1, WinRate: 1},
			},
		},
	}
}

func TestRenderWritesReportFile(t *testing.T) {
	builder, dir := testBuilder(t)

	path, err := builder.Render(sampleReport())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "backtest_3f6c0d9a.html"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	html := string(content)
	require.True(t, strings.Contains(html, "Signals by State"))
	require.True(t, strings.Contains(html, "Forward Excursion by State"))
	require.True(t, strings.Contains(html, "Max Gain Distribution"))
	require.True(t, strings.Contains(html, "Win Rate by Symbol"))
	require.True(t, strings.Contains(html, "BBCA"))
}

func TestRenderNilReport(t *testing.T) {
	builder, _ := testBuilder(t)

	_, err := builder.Render(nil)
	require.Error(t, err)
}

func TestRenderWithoutEvaluableSymbolsSkipsSymbolChart(t *testing.T) {
	builder, _ := testBuilder(t)

	report := sampleReport()
	for i := range report.PerSymbol {
		report.PerSymbol[i].Summary.Evaluated = 0
	}

	path, err := builder.Render(report)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.False(t, strings.Contains(string(content), "Win Rate by Symbol"))
}

func TestRenderCreatesReportDir(t *testing.T) {
	dir := t.TempDir()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	nested := filepath.Join(dir, "reports", "backtests")
	cfg := &config.Config{Backtest: config.Backtest{ReportDir: nested}}

	path, err := NewBuilder(cfg, log).Render(sampleReport())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(path, nested))
}
