package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateAbyssBottom(t *testing.T) {
	series := abyssSeries()

	eval, err := Evaluate(series, Config{})
	require.NoError(t, err)
	require.NotNil(t, eval.Signal, "all four gates should pass")

	assert.Equal(t, len(series)-1, eval.Signal.Index, "the signal sits on the last bar")
	assert.Equal(t, StateBuy, eval.Signal.State)
	require.Len(t, eval.Stages, 4)
	for _, stage := range eval.Stages {
		assert.True(t, stage.Passed, "stage %s should pass", stage.Stage)
	}

	decline := eval.Stages[0]
	assert.Equal(t, StageDeepDecline, decline.Stage)
	assert.InDelta(t, 0.746, decline.Values["drop_percent"], 0.01)
	assert.Less(t, decline.Values["price_position"], 0.05)

	hib := eval.Stages[1]
	assert.Equal(t, StageHibernation, hib.Stage)
	assert.InDelta(t, 28.5, hib.Values["support"], 1e-9)
	assert.InDelta(t, 31.5, hib.Values["resistance"], 1e-9)
	assert.InDelta(t, 0.1, hib.Values["volatility"], 0.001)

	wash := eval.Stages[2]
	assert.Equal(t, StageWashout, wash.Stage)
	assert.InDelta(t, 25.0, wash.Values["pit_low"], 1e-9)
	assert.Greater(t, wash.Values["pit_days"], 40.0)

	liftoff := eval.Stages[3]
	assert.Equal(t, StageLiftoff, liftoff.Stage)
	assert.InDelta(t, 0.024, liftoff.Values["rise_from_bottom"], 0.001)
}

func TestEvaluateShallowDeclineFailsFirstGate(t *testing.T) {
	eval, err := Evaluate(shallowDeclineSeries(), Config{})
	require.NoError(t, err)

	assert.Nil(t, eval.Signal)
	require.Len(t, eval.Stages, 1, "a first gate failure must not run later stages")
	assert.Equal(t, StageDeepDecline, eval.Stages[0].Stage)
	assert.False(t, eval.Stages[0].Passed)
	assert.Contains(t, eval.Stages[0].Reason, "drop")
}

func TestEvaluateInsufficientData(t *testing.T) {
	series := abyssSeries()

	exact := series[len(series)-DefaultLongTermWindow:]
	eval, err := Evaluate(exact, Config{})
	require.NoError(t, err, "a series of exactly the long term window is evaluated")
	assert.NotNil(t, eval.Signal)

	short := series[len(series)-DefaultLongTermWindow+1:]
	_, err = Evaluate(short, Config{})
	assert.ErrorIs(t, err, ErrInsufficientData, "one bar fewer is rejected")

	_, err = Evaluate(Series{}, Config{})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEvaluateDeterminism(t *testing.T) {
	series := abyssSeries()

	first, err := Evaluate(series, Config{})
	require.NoError(t, err)
	second, err := Evaluate(series, Config{})
	require.NoError(t, err)

	assert.Equal(t, first, second, "repeated evaluation must be bit identical")
}

// Each case tightens one threshold so a specific gate rejects the canonical
// series, proving that later stages are never executed after a failure.
func TestEvaluateStopsAtFirstFailedGate(t *testing.T) {
	series := abyssSeries()

	tests := []struct {
		name       string
		cfg        Config
		wantStages int
		wantStage  Stage
	}{
		{
			name:       "deep decline rejects",
			cfg:        Config{MinDropPercent: 0.99},
			wantStages: 1,
			wantStage:  StageDeepDecline,
		},
		{
			name:       "hibernation rejects",
			cfg:        Config{HibernationVolatilityMax: 0.01},
			wantStages: 2,
			wantStage:  StageHibernation,
		},
		{
			name:       "washout rejects",
			cfg:        Config{WashoutVolumeShrinkRatio: 0.10},
			wantStages: 3,
			wantStage:  StageWashout,
		},
		{
			name:       "liftoff rejects",
			cfg:        Config{LiftoffVolumeIncreaseRatio: 5.0},
			wantStages: 4,
			wantStage:  StageLiftoff,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval, err := Evaluate(series, tt.cfg)
			require.NoError(t, err)

			assert.Nil(t, eval.Signal)
			require.Len(t, eval.Stages, tt.wantStages)
			last := eval.LastStage()
			assert.Equal(t, tt.wantStage, last.Stage)
			assert.False(t, last.Passed)
			for _, stage := range eval.Stages[:len(eval.Stages)-1] {
				assert.True(t, stage.Passed)
			}
		})
	}
}

func TestEvaluateDegenerateRange(t *testing.T) {
	flat := appendFlat(Series{}, 600, 100, 0, 1000)

	eval, err := Evaluate(flat, Config{})
	require.NoError(t, err, "a degenerate range is a failed gate, never an error")
	assert.Nil(t, eval.Signal)
	require.Len(t, eval.Stages, 1)
	assert.Contains(t, eval.Stages[0].Reason, "degenerate")
}

func TestEvaluateVolumeShrinkGate(t *testing.T) {
	t.Run("recent volume too heavy", func(t *testing.T) {
		series := abyssSeries()
		for i := len(series) - 30; i < len(series); i++ {
			series[i].Volume = 450_000
		}

		eval, err := Evaluate(series, Config{})
		require.NoError(t, err)
		assert.Nil(t, eval.Signal)
		require.Len(t, eval.Stages, 1)
		assert.Contains(t, eval.Stages[0].Reason, "shrink threshold")
	})

	t.Run("shrunk on average but not sustained", func(t *testing.T) {
		// Twenty quiet bars and ten spikes keep the mean below the
		// threshold while most-bars quiescence is violated.
		series := abyssSeries()
		for i := 0; i < 30; i++ {
			idx := len(series) - 30 + i
			if i < 20 {
				series[idx].Volume = 100_000
			} else {
				series[idx].Volume = 400_000
			}
		}

		eval, err := Evaluate(series, Config{})
		require.NoError(t, err)
		assert.Nil(t, eval.Signal)
		require.Len(t, eval.Stages, 1)
		assert.Contains(t, eval.Stages[0].Reason, "not sustained")
	})
}

func TestEvaluateHibernationExcludesWashout(t *testing.T) {
	// Push the washout dip into what would otherwise be hibernation bars.
	// With a washout window that no longer covers the whole dip, the
	// hibernation window picks up dipping bars and volatility rises.
	series := abyssSeries()

	eval, err := Evaluate(series, Config{WashoutWindow: 20})
	require.NoError(t, err)
	assert.Nil(t, eval.Signal)
	require.Len(t, eval.Stages, 2)
	assert.Equal(t, StageHibernation, eval.LastStage().Stage)
	assert.False(t, eval.LastStage().Passed)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{MinDropPercent: 0.25, WashoutWindow: 40}.withDefaults()

	assert.Equal(t, 0.25, cfg.MinDropPercent, "overrides survive")
	assert.Equal(t, 40, cfg.WashoutWindow)
	assert.Equal(t, DefaultLongTermWindow, cfg.LongTermWindow, "untouched fields pick up defaults")
	assert.Equal(t, DefaultSuccessThreshold, cfg.SuccessThreshold)
	assert.Equal(t, DefaultConfig(), Config{}.withDefaults())
}
