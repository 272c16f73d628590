package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forwardSeries places the entry bar at index 0 followed by 30 future bars
// with a known peak of 28 at offset 10 and a trough of 24 at offset 5.
func forwardSeries() Series {
	s := Series{{Timestamp: testBase, Open: 25.5, High: 25.9, Low: 25.1, Close: 25.6, Volume: 1000}}
	for i := 1; i <= 30; i++ {
		c := Candle{
			Timestamp: testBase + int64(i)*dayStep,
			Open:      25.5,
			High:      26.0,
			Low:       25.0,
			Close:     25.5,
			Volume:    1000,
		}
		switch i {
		case 5:
			c.Low = 24.0
			c.Open = 24.5
			c.Close = 24.5
		case 10:
			c.High = 28.0
			c.Close = 27.5
		}
		s = append(s, c)
	}
	return s
}

func TestSimulateForwardExcursion(t *testing.T) {
	out := Simulate(forwardSeries(), 0, 25.6, 30, 0.05)

	require.True(t, out.Evaluable)
	assert.InDelta(t, 28.0, out.PeakPrice, 1e-9)
	assert.InDelta(t, 24.0, out.TroughPrice, 1e-9)
	assert.InDelta(t, 0.094, out.MaxGain, 0.001)
	assert.InDelta(t, -0.063, out.MaxDrawdown, 0.001)
	assert.Equal(t, 10, out.DaysToPeak)
	assert.Equal(t, 5, out.DaysToTrough)
	assert.True(t, out.IsSuccess, "a 9.4 percent peak clears the 5 percent threshold")
}

func TestSimulateTooRecent(t *testing.T) {
	series := forwardSeries()

	out := Simulate(series, len(series)-1, series.Last().Close, 30, 0.05)

	assert.False(t, out.Evaluable, "an entry on the last bar has nothing to observe")
	assert.False(t, out.IsSuccess)
	assert.Zero(t, out.PeakPrice)
	assert.Zero(t, out.MaxGain)
}

func TestSimulateHorizonBound(t *testing.T) {
	// A giant spike right after the horizon must not leak into the window.
	s := appendFlat(Series{}, 8, 50, 1, 1000)
	s[6].High = 500
	s[7].High = 500

	out := Simulate(s, 0, 50, 5, 0.05)

	require.True(t, out.Evaluable)
	assert.InDelta(t, 51.0, out.PeakPrice, 1e-9, "window covers offsets 1 through 5 only")
	assert.LessOrEqual(t, out.DaysToPeak, 5)
}

func TestSimulateWindowClipping(t *testing.T) {
	// Only 3 future bars exist, a horizon of 30 clips to them.
	s := appendFlat(Series{}, 4, 50, 1, 1000)

	out := Simulate(s, 0, 50, 30, 0.05)

	require.True(t, out.Evaluable)
	assert.LessOrEqual(t, out.DaysToPeak, 3)
	assert.LessOrEqual(t, out.DaysToTrough, 3)
}

// The success label depends on max gain and the threshold alone.
func TestSimulateSuccessEquivalence(t *testing.T) {
	series := forwardSeries()

	tests := []struct {
		name      string
		threshold float64
		want      bool
	}{
		{name: "well below the gain", threshold: 0.05, want: true},
		{name: "just below the gain", threshold: 0.09, want: true},
		{name: "just above the gain", threshold: 0.095, want: false},
		{name: "far above the gain", threshold: 0.50, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Simulate(series, 0, 25.6, 30, tt.threshold)

			assert.Equal(t, tt.want, out.IsSuccess)
			assert.Equal(t, out.MaxGain >= tt.threshold, out.IsSuccess)
		})
	}
}

func TestSimulatePanicsOnBadIndex(t *testing.T) {
	series := forwardSeries()

	assert.Panics(t, func() { Simulate(series, -1, 25.6, 30, 0.05) })
	assert.Panics(t, func() { Simulate(series, len(series), 25.6, 30, 0.05) })
}

func TestSimulateSignalResolvesAndSimulates(t *testing.T) {
	series := forwardSeries()

	out := SimulateSignal(series, Signal{Index: 0, State: StateBuy}, Config{})

	assert.Equal(t, StateBuy, out.State)
	assert.Equal(t, EntryMethodSignalClose, out.EntryMethod)
	assert.Equal(t, 0, out.EntryIndex)
	assert.InDelta(t, 25.6, out.EntryPrice, 1e-9)
	require.True(t, out.Evaluable)
	assert.True(t, out.IsSuccess)
}

func TestSimulateSignalMidUsesEntryBarWindow(t *testing.T) {
	// A MID entry resolves to the signal bar itself, the forward window
	// still starts strictly after it.
	series := forwardSeries()

	out := SimulateSignal(series, Signal{Index: 3, State: StateMid}, Config{ForwardHorizon: 4})

	assert.Equal(t, 3, out.EntryIndex)
	assert.InDelta(t, series[3].Low, out.EntryPrice, 1e-9)
	assert.Equal(t, EntryMethodSignalLow, out.EntryMethod)
	require.True(t, out.Evaluable)
	// Offsets 1..4 from bar 3 include the offset 5 trough at absolute
	// index 5, days to trough counts from the entry bar.
	assert.Equal(t, 2, out.DaysToTrough)
	assert.InDelta(t, 24.0, out.TroughPrice, 1e-9)
}
