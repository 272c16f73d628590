package screener

import "fmt"

// EntryMethod describes how an entry price was picked. close_fallback marks
// a signal state this package does not recognize, the fill is still the
// signal bar close but the label makes the fallthrough visible downstream.
type EntryMethod string

const (
	EntryMethodFutureLow     EntryMethod = "future_low"
	EntryMethodSignalLow     EntryMethod = "signal_low"
	EntryMethodPullbackLow   EntryMethod = "pullback_low"
	EntryMethodSignalClose   EntryMethod = "signal_close"
	EntryMethodCloseFallback EntryMethod = "close_fallback"
)

// Entry is a concrete fill. Price always lies within [low, high] of the bar
// at Index, it is never extrapolated.
type Entry struct {
	Price  float64     `json:"price"`
	Index  int         `json:"index"`
	Method EntryMethod `json:"method"`
}

// ResolveEntry translates a state labeled signal into a realistic fill.
//
//	PRE   buys the lowest low of the next lookahead bars, the move has not
//	      started yet. Falls back to the signal close at the series end.
//	MID   buys the signal bar's own low, an intraday entry on the dip.
//	POST  buys the lowest low of the previous lookback bars, a pullback
//	      entry. Falls back to the signal close at the series start.
//	BUY and NONE fill at the signal bar close.
//
// Non positive lookback or lookahead fall back to the package defaults. An
// out of range index is a caller contract violation and panics.
func ResolveEntry(series Series, signalIndex int, state SignalState, lookback, lookahead int) Entry {
	if signalIndex < 0 || signalIndex >= len(series) {
		panic(fmt.Sprintf("screener: signal index %d out of range for %d bars", signalIndex, len(series)))
	}
	if lookback <= 0 {
		lookback = DefaultEntryLookback
	}
	if lookahead <= 0 {
		lookahead = DefaultEntryLookahead
	}

	signalClose := Entry{
		Price:  series[signalIndex].Close,
		Index:  signalIndex,
		Method: EntryMethodSignalClose,
	}

	switch state {
	case StatePre:
		idx, ok := lowestLowIndex(series, signalIndex+1, signalIndex+1+lookahead)
		if !ok {
			return signalClose
		}
		return Entry{Price: series[idx].Low, Index: idx, Method: EntryMethodFutureLow}

	case StateMid:
		return Entry{Price: series[signalIndex].Low, Index: signalIndex, Method: EntryMethodSignalLow}

	case StatePost:
		idx, ok := lowestLowIndex(series, signalIndex-lookback, signalIndex)
		if !ok {
			return signalClose
		}
		return Entry{Price: series[idx].Low, Index: idx, Method: EntryMethodPullbackLow}

	case StateBuy, StateNone:
		return signalClose

	default:
		signalClose.Method = EntryMethodCloseFallback
		return signalClose
	}
}

// lowestLowIndex returns the index of the lowest low over bars [from, to),
// clamped into range. ok is false when the clamped window is empty.
func lowestLowIndex(series Series, from, to int) (int, bool) {
	if from < 0 {
		from = 0
	}
	if to > len(series) {
		to = len(series)
	}
	if from >= to {
		return 0, false
	}
	idx := from
	for i := from + 1; i < to; i++ {
		if series[i].Low < series[idx].Low {
			idx = i
		}
	}
	return idx, true
}
