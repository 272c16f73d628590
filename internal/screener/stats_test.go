package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeriesWindowStats(t *testing.T) {
	s := Series{
		{Timestamp: testBase, Open: 10, High: 12, Low: 9, Close: 11, Volume: 100},
		{Timestamp: testBase + dayStep, Open: 11, High: 15, Low: 10, Close: 14, Volume: 300},
		{Timestamp: testBase + 2*dayStep, Open: 14, High: 14.5, Low: 8, Close: 9, Volume: 200},
	}

	assert.Equal(t, 15.0, s.HighestHigh())
	assert.Equal(t, 8.0, s.LowestLow())
	assert.InDelta(t, 11.333, s.MeanClose(), 0.001)
	assert.Equal(t, 200.0, s.MeanVolume())

	empty := Series{}
	assert.Equal(t, 0.0, empty.HighestHigh())
	assert.Equal(t, 0.0, empty.LowestLow())
	assert.Equal(t, 0.0, empty.MeanClose())
	assert.Equal(t, 0.0, empty.MeanVolume())
}

func TestSeriesWindowing(t *testing.T) {
	s := appendFlat(Series{}, 10, 50, 1, 1000)

	assert.Equal(t, 10, s.Len())
	assert.Equal(t, 3, len(s.Tail(3)))
	assert.Equal(t, 10, len(s.Tail(25)), "tail larger than the series returns everything")
	assert.Equal(t, 4, len(s.Window(2, 6)))
	assert.Equal(t, 0, len(s.Window(6, 2)), "inverted bounds yield an empty window")
	assert.Equal(t, 5, len(s.Window(-3, 5)), "bounds are clamped")
}

func TestPricePosition(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		low   float64
		high  float64
		want  float64
	}{
		{name: "middle of the range", price: 50, low: 0, high: 100, want: 0.5},
		{name: "at the low", price: 10, low: 10, high: 20, want: 0},
		{name: "at the high", price: 20, low: 10, high: 20, want: 1},
		{name: "below the low clamps to zero", price: 5, low: 10, high: 20, want: 0},
		{name: "above the high clamps to one", price: 25, low: 10, high: 20, want: 1},
		{name: "degenerate range", price: 10, low: 10, high: 10, want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PricePosition(tt.price, tt.low, tt.high))
		})
	}
}

func TestRangeVolatility(t *testing.T) {
	assert.InDelta(t, 0.1, rangeVolatility(28.5, 31.5, 30), 1e-9)
	assert.Equal(t, -1.0, rangeVolatility(1, 2, 0), "zero reference price is degenerate")
	assert.Equal(t, 0.0, rangeVolatility(30, 30, 30), "flat window has no volatility")
}
