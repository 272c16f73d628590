package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"abyss-screener/config"
	"abyss-screener/internal/dto"
	"abyss-screener/internal/screener"
	"abyss-screener/pkg/logger"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	colorSignals  = "#a78bfa"
	colorEvaluate = "#3b82f6"
	colorWin      = "#34d399"
	colorLoss     = "#f87171"
	colorNeutral  = "#fbbf24"

	chartWidthPx  = 1100
	chartHeightPx = 420

	maxSymbolBars = 40
)

// stateOrder fixes the x axis so the four states always read in pattern
// order instead of map order.
var stateOrder = []screener.SignalState{
	screener.StatePre,
	screener.StateMid,
	screener.StatePost,
	screener.StateBuy,
}

// Builder renders a finished backtest run into a static HTML report.
type Builder struct {
	dir string
	log *logger.Logger
}

func NewBuilder(cfg *config.Config, log *logger.Logger) *Builder {
	return &Builder{
		dir: cfg.Backtest.ReportDir,
		log: log,
	}
}

// Render writes the report for one run and returns the file path.
func (b *Builder) Render(report *dto.BacktestReport) (string, error) {
	if report == nil {
		return "", fmt.Errorf("nil backtest report")
	}

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.PageTitle = fmt.Sprintf("Backtest %s", report.RunID)

	page.AddCharts(
		b.buildStateCountChart(report),
		b.buildStateExcursionChart(report),
		b.buildGainHistogram(report),
	)
	if chart := b.buildSymbolWinRateChart(report); chart != nil {
		page.AddCharts(chart)
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}

	path := filepath.Join(b.dir, fmt.Sprintf("backtest_%s.html", report.RunID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	return path, nil
}

func (b *Builder) buildStateCountChart(report *dto.BacktestReport) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", chartHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Signals by State (%s, %s)", report.Generator, report.Range),
			Subtitle: b.subtitle(report),
			Left:     "left",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	signals := make([]opts.BarData, 0, len(stateOrder))
	evaluated := make([]opts.BarData, 0, len(stateOrder))
	wins := make([]opts.BarData, 0, len(stateOrder))
	for _, state := range stateOrder {
		st := report.Summary.ByState[state]
		signals = append(signals, opts.BarData{Value: st.Signals, ItemStyle: &opts.ItemStyle{Color: colorSignals}})
		evaluated = append(evaluated, opts.BarData{Value: st.Evaluated, ItemStyle: &opts.ItemStyle{Color: colorEvaluate}})
		wins = append(wins, opts.BarData{Value: st.Wins, ItemStyle: &opts.ItemStyle{Color: colorWin}})
	}

	bar.SetXAxis(stateAxis())
	bar.AddSeries("Signals", signals)
	bar.AddSeries("Evaluated", evaluated)
	bar.AddSeries("Wins", wins)
	return bar
}

func (b *Builder) buildStateExcursionChart(report *dto.BacktestReport) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", chartHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{Title: "Forward Excursion by State (%)", Left: "left"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	winRates := make([]opts.BarData, 0, len(stateOrder))
	gains := make([]opts.BarData, 0, len(stateOrder))
	drawdowns := make([]opts.BarData, 0, len(stateOrder))
	for _, state := range stateOrder {
		st := report.Summary.ByState[state]
		winRates = append(winRates, opts.BarData{Value: round(st.WinRate*100, 2), ItemStyle: &opts.ItemStyle{Color: colorNeutral}})
		gains = append(gains, opts.BarData{Value: round(st.AvgMaxGain*100, 2), ItemStyle: &opts.ItemStyle{Color: colorWin}})
		drawdowns = append(drawdowns, opts.BarData{Value: round(st.AvgMaxDrawdown*100, 2), ItemStyle: &opts.ItemStyle{Color: colorLoss}})
	}

	bar.SetXAxis(stateAxis())
	bar.AddSeries("Win Rate", winRates)
	bar.AddSeries("Avg Max Gain", gains)
	bar.AddSeries("Avg Max Drawdown", drawdowns)
	return bar
}

var gainBuckets = []struct {
	Label string
	Low   float64
	High  float64
}{
	{"< -10%", math.Inf(-1), -0.10},
	{"-10% to 0%", -0.10, 0},
	{"0% to 10%", 0, 0.10},
	{"10% to 20%", 0.10, 0.20},
	{"20% to 35%", 0.20, 0.35},
	{"> 35%", 0.35, math.Inf(1)},
}

func (b *Builder) buildGainHistogram(report *dto.BacktestReport) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", chartHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{Title: "Max Gain Distribution", Left: "left"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	counts := make([]int, len(gainBuckets))
	for _, symbol := range report.PerSymbol {
		for _, outcome := range symbol.Outcomes {
			if !outcome.Evaluable {
				continue
			}
			for i, bucket := range gainBuckets {
				if outcome.MaxGain >= bucket.Low && outcome.MaxGain < bucket.High {
					counts[i]++
					break
				}
			}
		}
	}

	labels := make([]string, len(gainBuckets))
	data := make([]opts.BarData, len(gainBuckets))
	for i, bucket := range gainBuckets {
		labels[i] = bucket.Label
		color := colorWin
		if bucket.High <= 0 {
			color = colorLoss
		}
		data[i] = opts.BarData{Value: counts[i], ItemStyle: &opts.ItemStyle{Color: color, Opacity: opts.Float(0.8)}}
	}

	bar.SetXAxis(labels)
	bar.AddSeries("Outcomes", data)
	return bar
}

func (b *Builder) buildSymbolWinRateChart(report *dto.BacktestReport) *charts.Bar {
	type symbolStat struct {
		Code      string
		Evaluated int
		WinRate   float64
	}

	stats := make([]symbolStat, 0, len(report.PerSymbol))
	for _, symbol := range report.PerSymbol {
		if symbol.Summary.Evaluated == 0 {
			continue
		}
		stats = append(stats, symbolStat{
			Code:      symbol.StockCode,
			Evaluated: symbol.Summary.Evaluated,
			WinRate:   symbol.Summary.WinRate,
		})
	}
	if len(stats) == 0 {
		return nil
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].WinRate != stats[j].WinRate {
			return stats[i].WinRate > stats[j].WinRate
		}
		return stats[i].Evaluated > stats[j].Evaluated
	})
	if len(stats) > maxSymbolBars {
		stats = stats[:maxSymbolBars]
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", chartHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{Title: "Win Rate by Symbol (%)", Left: "left"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: 45}}),
	)

	labels := make([]string, len(stats))
	data := make([]opts.BarData, len(stats))
	for i, stat := range stats {
		labels[i] = stat.Code
		color := colorWin
		if stat.WinRate < 0.5 {
			color = colorLoss
		}
		data[i] = opts.BarData{Value: round(stat.WinRate*100, 2), ItemStyle: &opts.ItemStyle{Color: color, Opacity: opts.Float(0.8)}}
	}

	bar.SetXAxis(labels)
	bar.AddSeries("Win Rate", data)
	return bar
}

func (b *Builder) subtitle(report *dto.BacktestReport) string {
	duration := report.FinishedAt.Sub(report.StartedAt).Round(time.Second)
	return fmt.Sprintf("%d symbols | %d signals | %d evaluated | win rate %.1f%% | took %s",
		report.Symbols,
		report.Summary.Signals,
		report.Summary.Evaluated,
		report.Summary.WinRate*100,
		duration,
	)
}

func stateAxis() []string {
	axis := make([]string, len(stateOrder))
	for i, state := range stateOrder {
		axis[i] = string(state)
	}
	return axis
}

func round(val float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(val)
	}
	scale := math.Pow10(decimals)
	return math.Round(val*scale) / scale
}
