package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbyssGeneratorFindsTheReversalBar(t *testing.T) {
	series := abyssSeries()

	signals, err := AbyssGenerator{}.Generate(series, Config{})
	require.NoError(t, err)

	// Every earlier prefix ends on a declining or unconfirmed bar, only the
	// final reversal bar survives all four gates.
	require.Len(t, signals, 1)
	assert.Equal(t, Signal{Index: len(series) - 1, State: StateBuy}, signals[0])
}

func TestAbyssGeneratorShortSeries(t *testing.T) {
	series := abyssSeries()[:100]

	_, err := AbyssGenerator{}.Generate(series, Config{})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestBreakoutGeneratorStates(t *testing.T) {
	s := appendFlat(Series{}, 70, 10, 0.5, 1000)
	// Approach, cross and follow through bars around the 10.5 rolling high.
	s = append(s,
		Candle{Timestamp: nextTimestamp(s), Open: 10.0, High: 10.45, Low: 9.9, Close: 10.4, Volume: 1000},
		Candle{Timestamp: nextTimestamp(s), Open: 10.4, High: 10.9, Low: 10.3, Close: 10.8, Volume: 1500},
		Candle{Timestamp: nextTimestamp(s), Open: 10.8, High: 11.1, Low: 10.7, Close: 11.0, Volume: 1500},
		Candle{Timestamp: nextTimestamp(s), Open: 11.0, High: 11.0, Low: 9.9, Close: 10.0, Volume: 800},
	)

	signals, err := BreakoutGenerator{}.Generate(s, Config{})
	require.NoError(t, err)

	require.Len(t, signals, 3)
	assert.Equal(t, Signal{Index: 70, State: StatePre}, signals[0])
	assert.Equal(t, Signal{Index: 71, State: StateMid}, signals[1])
	assert.Equal(t, Signal{Index: 72, State: StatePost}, signals[2])
}

func TestBreakoutGeneratorShortSeries(t *testing.T) {
	_, err := BreakoutGenerator{}.Generate(appendFlat(Series{}, 30, 10, 0.5, 1000), Config{})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

// Generator names are the dispatch keys for the backtest runner.
func TestGeneratorNames(t *testing.T) {
	assert.Equal(t, "abyss", AbyssGenerator{}.Name())
	assert.Equal(t, "breakout", BreakoutGenerator{}.Name())
}
