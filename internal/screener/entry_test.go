package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// entrySeries has hand picked lows so each resolution mode lands on a known
// bar: lows are 9.0 8.0 7.0 9.5 9.2 6.0 6.5 5.5 9.8 9.1.
func entrySeries() Series {
	lows := []float64{9.0, 8.0, 7.0, 9.5, 9.2, 6.0, 6.5, 5.5, 9.8, 9.1}
	s := Series{}
	for i, low := range lows {
		s = append(s, Candle{
			Timestamp: testBase + int64(i)*dayStep,
			Open:      low + 0.5,
			High:      low + 1.5,
			Low:       low,
			Close:     low + 1.0,
			Volume:    1000,
		})
	}
	return s
}

func TestResolveEntry(t *testing.T) {
	series := entrySeries()

	tests := []struct {
		name        string
		signalIndex int
		state       SignalState
		wantIndex   int
		wantPrice   float64
		wantMethod  EntryMethod
	}{
		{
			name:        "pre fills on the lowest future low",
			signalIndex: 4,
			state:       StatePre,
			wantIndex:   7,
			wantPrice:   5.5,
			wantMethod:  EntryMethodFutureLow,
		},
		{
			name:        "pre at the series end falls back to close",
			signalIndex: 9,
			state:       StatePre,
			wantIndex:   9,
			wantPrice:   10.1,
			wantMethod:  EntryMethodSignalClose,
		},
		{
			name:        "mid fills on the signal bar low",
			signalIndex: 5,
			state:       StateMid,
			wantIndex:   5,
			wantPrice:   6.0,
			wantMethod:  EntryMethodSignalLow,
		},
		{
			name:        "post fills on the lowest prior low",
			signalIndex: 7,
			state:       StatePost,
			wantIndex:   5,
			wantPrice:   6.0,
			wantMethod:  EntryMethodPullbackLow,
		},
		{
			name:        "post at the series start falls back to close",
			signalIndex: 0,
			state:       StatePost,
			wantIndex:   0,
			wantPrice:   10.0,
			wantMethod:  EntryMethodSignalClose,
		},
		{
			name:        "terminal buy fills at the signal close",
			signalIndex: 6,
			state:       StateBuy,
			wantIndex:   6,
			wantPrice:   7.5,
			wantMethod:  EntryMethodSignalClose,
		},
		{
			name:        "unlabeled signal fills at the signal close",
			signalIndex: 6,
			state:       StateNone,
			wantIndex:   6,
			wantPrice:   7.5,
			wantMethod:  EntryMethodSignalClose,
		},
		{
			name:        "unrecognized state is flagged, not conflated",
			signalIndex: 6,
			state:       SignalState("LATE"),
			wantIndex:   6,
			wantPrice:   7.5,
			wantMethod:  EntryMethodCloseFallback,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := ResolveEntry(series, tt.signalIndex, tt.state, DefaultEntryLookback, DefaultEntryLookahead)

			assert.Equal(t, tt.wantIndex, entry.Index)
			assert.InDelta(t, tt.wantPrice, entry.Price, 1e-9)
			assert.Equal(t, tt.wantMethod, entry.Method)
		})
	}
}

func TestResolveEntryLookaheadBound(t *testing.T) {
	series := entrySeries()

	// Signal at 2 with a lookahead of 2 may only see bars 3 and 4, the much
	// lower bar 5 is out of reach.
	entry := ResolveEntry(series, 2, StatePre, 5, 2)
	assert.Equal(t, 4, entry.Index)
	assert.InDelta(t, 9.2, entry.Price, 1e-9)
}

// The resolved price must always sit inside the resolved bar's range, for
// every state and every valid index.
func TestResolveEntryPriceContainment(t *testing.T) {
	series := abyssSeries()
	states := []SignalState{StatePre, StateMid, StatePost, StateBuy, StateNone, SignalState("???")}

	for _, state := range states {
		for _, idx := range []int{0, 1, 100, 300, len(series) / 2, len(series) - 2, len(series) - 1} {
			entry := ResolveEntry(series, idx, state, DefaultEntryLookback, DefaultEntryLookahead)

			require.GreaterOrEqual(t, entry.Index, 0)
			require.Less(t, entry.Index, len(series))
			bar := series[entry.Index]
			assert.GreaterOrEqual(t, entry.Price, bar.Low,
				"state %s index %d resolved below the bar range", state, idx)
			assert.LessOrEqual(t, entry.Price, bar.High,
				"state %s index %d resolved above the bar range", state, idx)
		}
	}
}

func TestResolveEntryPanicsOnBadIndex(t *testing.T) {
	series := entrySeries()

	assert.Panics(t, func() { ResolveEntry(series, -1, StateMid, 5, 3) })
	assert.Panics(t, func() { ResolveEntry(series, len(series), StateMid, 5, 3) })
	assert.Panics(t, func() { ResolveEntry(Series{}, 0, StateBuy, 5, 3) })
}
