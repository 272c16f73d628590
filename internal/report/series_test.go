package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"abyss-screener/internal/screener"

	"github.com/stretchr/testify/require"
)

func chartSeries(n int) screener.Series {
	series := make(screener.Series, 0, n)
	for i := 0; i < n; i++ {
		series = append(series, screener.Candle{
			Timestamp: 1700000000 + int64(i)*86400,
			Open:      10,
			High:      11,
			Low:       9,
			Close:     10.5,
			Volume:    1000,
		})
	}
	return series
}

func TestRenderSeriesWritesChartFile(t *testing.T) {
	builder, dir := testBuilder(t)
	series := chartSeries(60)
	eval := &screener.Evaluation{
		Signal: &screener.Signal{Index: 59, State: screener.StateBuy},
		Stages: []screener.StageResult{
			{Stage: screener.StageDeepDecline, Passed: true},
			{Stage: screener.StageHibernation, Passed: true},
		},
	}

	path, err := builder.RenderSeries("IDX:BBCA", series, eval)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "screen_IDX_BBCA.html"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	html := string(content)
	require.True(t, strings.Contains(html, "IDX:BBCA"))
	require.True(t, strings.Contains(html, "verdict BUY"))
	require.True(t, strings.Contains(html, "Volume"))
	require.True(t, strings.Contains(html, "Signal"))
}

func TestRenderSeriesEmptySeries(t *testing.T) {
	builder, _ := testBuilder(t)

	_, err := builder.RenderSeries("IDX:BBCA", screener.Series{}, nil)
	require.Error(t, err)
}

func TestRenderSeriesSignalOutsideWindow(t *testing.T) {
	// With more bars than the chart draws, a signal before the visible
	// window is dropped instead of pinning the wrong bar.
	builder, _ := testBuilder(t)
	series := chartSeries(300)
	eval := &screener.Evaluation{Signal: &screener.Signal{Index: 10, State: screener.StateBuy}}

	path, err := builder.RenderSeries("IDX:ANTM", series, eval)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.False(t, strings.Contains(string(content), "Signal"))
}

func TestSeriesSubtitle(t *testing.T) {
	require.Equal(t, "120 bars | verdict NONE", seriesSubtitle(120, nil))

	eval := &screener.Evaluation{
		Signal: &screener.Signal{Index: 0, State: screener.StateBuy},
		Stages: []screener.StageResult{
			{Stage: screener.StageDeepDecline, Passed: true},
			{Stage: screener.StageLiftoff, Passed: false},
		},
	}
	require.Equal(t, "450 bars | verdict BUY | deep_decline pass | liftoff fail", seriesSubtitle(450, eval))
}

func TestSignalMarkerBounds(t *testing.T) {
	view := chartSeries(5)

	require.Nil(t, signalMarker(view, -1))
	require.Nil(t, signalMarker(view, 5))
	require.NotNil(t, signalMarker(view, 4))
}
