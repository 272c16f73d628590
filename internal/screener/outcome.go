package screener

import "fmt"

// Outcome is the forward simulation result for one signal. Evaluable is
// false when no bar exists after the entry, such a signal is too recent to
// judge and is excluded from aggregate statistics instead of being counted
// as a failure.
type Outcome struct {
	State        SignalState `json:"state"`
	EntryIndex   int         `json:"entry_index"`
	EntryPrice   float64     `json:"entry_price"`
	EntryMethod  EntryMethod `json:"entry_method,omitempty"`
	Evaluable    bool        `json:"evaluable"`
	PeakPrice    float64     `json:"peak_price"`
	TroughPrice  float64     `json:"trough_price"`
	MaxGain      float64     `json:"max_gain"`
	MaxDrawdown  float64     `json:"max_drawdown"`
	DaysToPeak   int         `json:"days_to_peak"`
	DaysToTrough int         `json:"days_to_trough"`
	IsSuccess    bool        `json:"is_success"`
}

// Simulate walks the bounded window after the entry bar and measures the
// best and worst excursion relative to the entry price. The window is
// [entryIndex+1, entryIndex+1+horizon) clamped to the series, so nothing
// before or at the entry bar leaks into the outcome. Success means the peak
// gain reached the threshold, the path taken to get there is irrelevant.
//
// The entry price must be positive, which ResolveEntry guarantees for well
// formed series. A non positive horizon or threshold falls back to the
// package defaults. An out of range entry index is a caller contract
// violation and panics.
func Simulate(series Series, entryIndex int, entryPrice float64, horizon int, successThreshold float64) Outcome {
	if entryIndex < 0 || entryIndex >= len(series) {
		panic(fmt.Sprintf("screener: entry index %d out of range for %d bars", entryIndex, len(series)))
	}
	if horizon <= 0 {
		horizon = DefaultForwardHorizon
	}
	if successThreshold <= 0 {
		successThreshold = DefaultSuccessThreshold
	}

	out := Outcome{EntryIndex: entryIndex, EntryPrice: entryPrice}

	from := entryIndex + 1
	to := from + horizon
	if to > len(series) {
		to = len(series)
	}
	if from >= to {
		// Entry at the very end of the data, nothing to observe yet.
		return out
	}
	out.Evaluable = true

	peakIdx, troughIdx := from, from
	for i := from + 1; i < to; i++ {
		if series[i].High > series[peakIdx].High {
			peakIdx = i
		}
		if series[i].Low < series[troughIdx].Low {
			troughIdx = i
		}
	}

	out.PeakPrice = series[peakIdx].High
	out.TroughPrice = series[troughIdx].Low
	out.MaxGain = (out.PeakPrice - entryPrice) / entryPrice
	out.MaxDrawdown = (out.TroughPrice - entryPrice) / entryPrice
	out.DaysToPeak = peakIdx - entryIndex
	out.DaysToTrough = troughIdx - entryIndex
	out.IsSuccess = out.MaxGain >= successThreshold
	return out
}

// SimulateSignal resolves the entry for a signal and simulates its forward
// outcome in one step.
func SimulateSignal(series Series, sig Signal, cfg Config) Outcome {
	cfg = cfg.withDefaults()
	entry := ResolveEntry(series, sig.Index, sig.State, cfg.EntryLookback, cfg.EntryLookahead)
	out := Simulate(series, entry.Index, entry.Price, cfg.ForwardHorizon, cfg.SuccessThreshold)
	out.State = sig.State
	out.EntryMethod = entry.Method
	return out
}
