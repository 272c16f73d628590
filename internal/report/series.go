package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"abyss-screener/internal/screener"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// maxChartBars caps how many trailing bars a series chart draws. A full five
// year history squeezed into one page is unreadable, the washout and liftoff
// always sit at the end anyway.
const maxChartBars = 250

const volumeHeightPx = 180

// RenderSeries writes a candlestick page for one screened series and returns
// the file path. The signal bar is pinned when the evaluation signaled.
func (b *Builder) RenderSeries(symbol string, series screener.Series, eval *screener.Evaluation) (string, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("empty series for %s", symbol)
	}

	offset := 0
	view := series
	if len(view) > maxChartBars {
		offset = len(view) - maxChartBars
		view = view[offset:]
	}

	xAxis := make([]string, len(view))
	klineData := make([]opts.KlineData, len(view))
	volumeData := make([]opts.BarData, len(view))
	for i, c := range view {
		xAxis[i] = time.Unix(c.Timestamp, 0).UTC().Format("2006-01-02")
		klineData[i] = opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}}
		color := colorLoss
		if c.Close >= c.Open {
			color = colorWin
		}
		volumeData[i] = opts.BarData{Value: c.Volume, ItemStyle: &opts.ItemStyle{Color: color, Opacity: opts.Float(0.6)}}
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", chartHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    symbol,
			Subtitle: seriesSubtitle(len(series), eval),
			Left:     "left",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorWin,
			Color0:       colorLoss,
			BorderColor:  colorWin,
			BorderColor0: colorLoss,
		}),
	)
	kline.SetXAxis(xAxis)
	kline.AddSeries("Price", klineData)

	if eval != nil && eval.Signal != nil {
		if marker := signalMarker(view, eval.Signal.Index-offset); marker != nil {
			kline.Overlap(marker)
		}
	}

	volume := charts.NewBar()
	volume.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", volumeHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{Title: "Volume", Left: "left"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Show: opts.Bool(false)}}),
	)
	volume.SetXAxis(xAxis)
	volume.AddSeries("Volume", volumeData)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.PageTitle = fmt.Sprintf("Screen %s", symbol)
	page.AddCharts(kline, volume)

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}

	path := filepath.Join(b.dir, fmt.Sprintf("screen_%s.html", strings.ReplaceAll(symbol, ":", "_")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}

	return path, nil
}

func seriesSubtitle(bars int, eval *screener.Evaluation) string {
	verdict := string(screener.StateNone)
	parts := []string{}
	if eval != nil {
		if eval.Signal != nil {
			verdict = string(eval.Signal.State)
		}
		for _, stage := range eval.Stages {
			mark := "fail"
			if stage.Passed {
				mark = "pass"
			}
			parts = append(parts, fmt.Sprintf("%s %s", stage.Stage, mark))
		}
	}
	parts = append([]string{fmt.Sprintf("%d bars | verdict %s", bars, verdict)}, parts...)
	return strings.Join(parts, " | ")
}

// signalMarker pads a scatter series with nulls so its single point lands on
// the signal bar of the shared category axis.
func signalMarker(view screener.Series, idx int) *charts.Scatter {
	if idx < 0 || idx >= len(view) {
		return nil
	}

	data := make([]opts.ScatterData, len(view))
	for i := range data {
		data[i] = opts.ScatterData{Value: nil}
	}
	data[idx] = opts.ScatterData{
		Value:      view[idx].Close,
		Symbol:     "pin",
		SymbolSize: 30,
	}

	scatter := charts.NewScatter()
	scatter.AddSeries("Signal", data, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorSignals}))
	return scatter
}
