package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	outcomes := []Outcome{
		{State: StateBuy, Evaluable: true, IsSuccess: true, MaxGain: 0.10, MaxDrawdown: -0.02, DaysToPeak: 4},
		{State: StateBuy, Evaluable: true, IsSuccess: false, MaxGain: 0.01, MaxDrawdown: -0.08, DaysToPeak: 12},
		{State: StateMid, Evaluable: true, IsSuccess: true, MaxGain: 0.07, MaxDrawdown: -0.01, DaysToPeak: 2},
		{State: StateBuy, Evaluable: false},
	}

	sum := Summarize(outcomes)

	assert.Equal(t, 4, sum.Signals)
	assert.Equal(t, 3, sum.Evaluated)
	assert.Equal(t, 1, sum.Unevaluable, "a too recent signal is excluded, not failed")
	assert.Equal(t, 2, sum.Wins)
	assert.InDelta(t, 2.0/3.0, sum.WinRate, 1e-9)
	assert.InDelta(t, 0.06, sum.AvgMaxGain, 1e-9)
	assert.InDelta(t, -0.11/3.0, sum.AvgMaxDrawdown, 1e-9)
	assert.InDelta(t, 6.0, sum.AvgDaysToPeak, 1e-9)

	buy := sum.ByState[StateBuy]
	assert.Equal(t, 3, buy.Signals)
	assert.Equal(t, 2, buy.Evaluated)
	assert.Equal(t, 1, buy.Wins)
	assert.InDelta(t, 0.5, buy.WinRate, 1e-9)
	assert.InDelta(t, 0.055, buy.AvgMaxGain, 1e-9)

	mid := sum.ByState[StateMid]
	assert.Equal(t, 1, mid.Evaluated)
	assert.InDelta(t, 1.0, mid.WinRate, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)

	assert.Zero(t, sum.Signals)
	assert.Zero(t, sum.WinRate)
	assert.Empty(t, sum.ByState)
}

func TestSummarizeAllUnevaluable(t *testing.T) {
	sum := Summarize([]Outcome{
		{State: StateBuy, Evaluable: false},
		{State: StatePre, Evaluable: false},
	})

	assert.Equal(t, 2, sum.Signals)
	assert.Equal(t, 2, sum.Unevaluable)
	assert.Zero(t, sum.Evaluated)
	assert.Zero(t, sum.WinRate, "no evaluable outcome means no rate, not a zero win rate over losses")
}

// End to end: pipeline signal, entry resolution, simulation, aggregation.
func TestScreenAndBacktestRoundTrip(t *testing.T) {
	series := abyssSeries()

	// Extend the canonical series with a profitable follow through so the
	// emitted signal can be evaluated forward.
	future := appendTrend(series, 20, 26.0, 28.5, 300_000, 300_000)

	eval, err := Evaluate(series, Config{})
	require.NoError(t, err)
	require.NotNil(t, eval.Signal)

	out := SimulateSignal(future, *eval.Signal, Config{})
	require.True(t, out.Evaluable)
	assert.True(t, out.IsSuccess)
	assert.Equal(t, EntryMethodSignalClose, out.EntryMethod)

	sum := Summarize([]Outcome{out})
	assert.Equal(t, 1, sum.Wins)
	assert.InDelta(t, 1.0, sum.WinRate, 1e-9)
}
