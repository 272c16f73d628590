package strategy

import (
	"testing"
	"time"

	"abyss-screener/internal/dto"
	"abyss-screener/internal/screener"
	"abyss-screener/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replaySeries is six flat daily bars starting at a fixed epoch, enough to
// exercise the index to date mapping without caring about pattern logic.
func replaySeries() screener.Series {
	base := int64(1700000000)
	series := make(screener.Series, 0, 6)
	for i := 0; i < 6; i++ {
		series = append(series, screener.Candle{
			Timestamp: base + int64(i)*86400,
			Open:      10,
			High:      11,
			Low:       9,
			Close:     10.5,
			Volume:    1000,
		})
	}
	return series
}

func TestToTradeOutcomeMapsSignalAndEntryDates(t *testing.T) {
	runID := uuid.New()
	stock := dto.StockInfo{StockCode: "BBCA", Exchange: "IDX"}
	series := replaySeries()
	sig := screener.Signal{Index: 2, State: screener.StateBuy}
	outcome := screener.Outcome{
		State:        screener.StateBuy,
		EntryIndex:   3,
		EntryPrice:   10.5,
		EntryMethod:  screener.EntryMethodSignalClose,
		Evaluable:    true,
		PeakPrice:    11.8,
		TroughPrice:  9.9,
		MaxGain:      0.1238,
		MaxDrawdown:  -0.0571,
		DaysToPeak:   2,
		DaysToTrough: 1,
		IsSuccess:    true,
	}

	row := toTradeOutcome(runID, stock, series, sig, outcome)

	assert.Equal(t, runID, row.BacktestRunID)
	assert.Equal(t, "BBCA", row.StockCode)
	assert.Equal(t, "IDX", row.Exchange)
	assert.Equal(t, "BUY", row.State)

	wib := utils.GetWibTimeLocation()
	assert.Equal(t, time.Unix(series[2].Timestamp, 0).In(wib), row.SignalDate)
	assert.Equal(t, time.Unix(series[3].Timestamp, 0).In(wib), row.EntryDate)
	assert.Equal(t, wib, row.SignalDate.Location())

	assert.InDelta(t, 10.5, row.EntryPrice, 1e-9)
	assert.Equal(t, "signal_close", row.EntryMethod)
	assert.True(t, row.Evaluable)
	assert.InDelta(t, 11.8, row.PeakPrice, 1e-9)
	assert.InDelta(t, 9.9, row.TroughPrice, 1e-9)
	assert.InDelta(t, 0.1238, row.MaxGain, 1e-9)
	assert.InDelta(t, -0.0571, row.MaxDrawdown, 1e-9)
	assert.Equal(t, 2, row.DaysToPeak)
	assert.Equal(t, 1, row.DaysToTrough)
	assert.True(t, row.IsSuccess)
}

// A stored row rebuilt through ToOutcome must aggregate exactly like the
// live simulation it came from, the report endpoint depends on that.
func TestToTradeOutcomeRoundTrip(t *testing.T) {
	series := replaySeries()
	sig := screener.Signal{Index: 1, State: screener.StateBuy}
	outcome := screener.SimulateSignal(series, sig, screener.Config{})
	require.True(t, outcome.Evaluable)

	row := toTradeOutcome(uuid.New(), dto.StockInfo{StockCode: "ANTM", Exchange: "IDX"}, series, sig, outcome)
	rebuilt := row.ToOutcome()

	// The row stores dates rather than indexes.
	outcome.EntryIndex = 0
	assert.Equal(t, outcome, rebuilt)
}
