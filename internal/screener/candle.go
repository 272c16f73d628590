package screener

import "time"

// Candle is one daily OHLCV bar. Prices satisfy low <= open,close <= high
// and volume is never negative. Candles are value types and are never
// mutated after the series is built.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

// Date returns the candle timestamp as a time value.
func (c Candle) Date() time.Time {
	return time.Unix(c.Timestamp, 0)
}

// Series is a chronologically ordered sequence of daily candles, oldest
// first. Calendar gaps are simply absent bars. The series is read-only for
// every consumer in this package.
type Series []Candle

func (s Series) Len() int {
	return len(s)
}

// Last returns the most recent candle. Panics on an empty series, callers
// are expected to check Len first.
func (s Series) Last() Candle {
	return s[len(s)-1]
}

// Tail returns the trailing n bars, or the whole series when it is shorter.
func (s Series) Tail(n int) Series {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Window returns bars [from, to). Both bounds are clamped into range so a
// window request can never panic.
func (s Series) Window(from, to int) Series {
	if from < 0 {
		from = 0
	}
	if to > len(s) {
		to = len(s)
	}
	if from >= to {
		return Series{}
	}
	return s[from:to]
}
