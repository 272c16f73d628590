package screener

import (
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientData marks a series too short for the configured windows.
// It is a skip condition for the caller, never a fatal one.
var ErrInsufficientData = errors.New("insufficient data")

// SignalState is the closed set of labels a strategy can attach to a bar.
// PRE, MID and POST describe where a generic breakout strategy thinks price
// sits relative to the move. BUY is the abyss pipeline terminal state.
type SignalState string

const (
	StateNone SignalState = "NONE"
	StatePre  SignalState = "PRE"
	StateMid  SignalState = "MID"
	StatePost SignalState = "POST"
	StateBuy  SignalState = "BUY"
)

// Signal points at one bar of a series.
type Signal struct {
	Index int         `json:"index"`
	State SignalState `json:"state"`
}

// Stage identifies one gate of the pipeline.
type Stage string

const (
	StageDeepDecline Stage = "deep_decline"
	StageHibernation Stage = "hibernation"
	StageWashout     Stage = "washout"
	StageLiftoff     Stage = "liftoff"
)

// StageResult is the audit record of a single executed gate. Values holds
// the named scalars the gate computed. The exact key set is diagnostic
// output, not a compatibility surface.
type StageResult struct {
	Stage  Stage              `json:"stage"`
	Passed bool               `json:"passed"`
	Reason string             `json:"reason,omitempty"`
	Values map[string]float64 `json:"values,omitempty"`
}

// Evaluation is the outcome of one pipeline run. Stages contains one entry
// per executed gate, in order. A failed gate short circuits the run, so a
// failure at stage k leaves exactly k entries and Signal nil. Signal is set
// only when all four gates pass and always points at the last bar.
type Evaluation struct {
	Signal *Signal       `json:"signal,omitempty"`
	Stages []StageResult `json:"stages"`
}

// LastStage returns the final executed stage result.
func (e *Evaluation) LastStage() StageResult {
	if len(e.Stages) == 0 {
		return StageResult{}
	}
	return e.Stages[len(e.Stages)-1]
}

// hibernationCarry and washoutCarry move diagnostics between adjacent
// gates. They are rebuilt on every evaluation and never cached across
// series, thresholds may differ between calls.
type hibernationCarry struct {
	support    float64
	resistance float64
	avgVolume  float64
}

type washoutCarry struct {
	pitLow       float64
	pitAvgVolume float64
}

// Evaluate runs the four stage abyss bottoming pipeline over the most
// recent bar of the series. Gates run in order with AND semantics and no
// backtracking. Gate failures are results, not errors, the only error is
// ErrInsufficientData when the series cannot cover the configured windows.
func Evaluate(series Series, cfg Config) (*Evaluation, error) {
	cfg = cfg.withDefaults()

	if len(series) < cfg.LongTermWindow {
		return nil, fmt.Errorf("%w: %d bars, need %d", ErrInsufficientData, len(series), cfg.LongTermWindow)
	}
	if len(series) < cfg.WashoutWindow+cfg.HibernationWindow {
		return nil, fmt.Errorf("%w: %d bars, need %d for hibernation and washout",
			ErrInsufficientData, len(series), cfg.WashoutWindow+cfg.HibernationWindow)
	}

	eval := &Evaluation{}

	decline := evalDeepDecline(series, cfg)
	eval.Stages = append(eval.Stages, decline)
	if !decline.Passed {
		return eval, nil
	}

	hibResult, hib := evalHibernation(series, cfg)
	eval.Stages = append(eval.Stages, hibResult)
	if !hibResult.Passed {
		return eval, nil
	}

	washResult, wash := evalWashout(series, cfg, hib)
	eval.Stages = append(eval.Stages, washResult)
	if !washResult.Passed {
		return eval, nil
	}

	liftoff := evalLiftoff(series, cfg, wash)
	eval.Stages = append(eval.Stages, liftoff)
	if !liftoff.Passed {
		return eval, nil
	}

	eval.Signal = &Signal{Index: len(series) - 1, State: StateBuy}
	return eval, nil
}

// evalDeepDecline checks that price sits near the bottom of its long term
// range after a large drop, and that volume has dried up in a sustained way
// rather than for a single quiet day.
func evalDeepDecline(series Series, cfg Config) StageResult {
	res := StageResult{Stage: StageDeepDecline, Values: map[string]float64{}}

	window := series.Tail(cfg.LongTermWindow)
	high := window.HighestHigh()
	low := window.LowestLow()
	current := window.Last().Close

	res.Values["high"] = high
	res.Values["low"] = low
	res.Values["close"] = current

	if high <= low {
		res.Reason = "degenerate price range, high equals low"
		return res
	}

	pricePosition := PricePosition(current, low, high)
	dropPercent := (high - current) / high
	res.Values["price_position"] = pricePosition
	res.Values["drop_percent"] = dropPercent

	if pricePosition > cfg.PriceLowPercentile {
		res.Reason = fmt.Sprintf("price position %.3f above limit %.3f", pricePosition, cfg.PriceLowPercentile)
		return res
	}
	if dropPercent < cfg.MinDropPercent {
		res.Reason = fmt.Sprintf("drop %.1f%% below minimum %.1f%%", dropPercent*100, cfg.MinDropPercent*100)
		return res
	}

	refVolume := window.MeanVolume()
	recent := series.Tail(cfg.VolumeConsistencyWindow)
	recentVolume := recent.MeanVolume()
	res.Values["reference_volume"] = refVolume
	res.Values["recent_volume"] = recentVolume

	if refVolume <= 0 {
		res.Reason = "no volume in reference window"
		return res
	}

	volumeRatio := recentVolume / refVolume
	res.Values["volume_ratio"] = volumeRatio
	if volumeRatio > cfg.VolumeShrinkThreshold {
		res.Reason = fmt.Sprintf("recent volume ratio %.2f above shrink threshold %.2f", volumeRatio, cfg.VolumeShrinkThreshold)
		return res
	}

	// The shrunk average alone is not enough, most individual bars inside
	// the consistency window have to sit below the shrunk reference level.
	limit := cfg.VolumeShrinkThreshold * refVolume
	quiet := 0
	for _, c := range recent {
		if float64(c.Volume) <= limit {
			quiet++
		}
	}
	need := int(math.Ceil(volumeConsistencyFraction * float64(len(recent))))
	res.Values["quiet_bars"] = float64(quiet)
	if quiet < need {
		res.Reason = fmt.Sprintf("volume shrink not sustained, %d of %d quiet bars, need %d", quiet, len(recent), need)
		return res
	}

	res.Passed = true
	return res
}

// evalHibernation measures the consolidation window that precedes the
// washout. Support and resistance found here feed the washout gate.
func evalHibernation(series Series, cfg Config) (StageResult, hibernationCarry) {
	res := StageResult{Stage: StageHibernation, Values: map[string]float64{}}

	end := len(series) - cfg.WashoutWindow
	window := series.Window(end-cfg.HibernationWindow, end)

	support := window.LowestLow()
	resistance := window.HighestHigh()
	meanClose := window.MeanClose()
	avgVolume := window.MeanVolume()

	res.Values["support"] = support
	res.Values["resistance"] = resistance
	res.Values["avg_volume"] = avgVolume

	volatility := rangeVolatility(support, resistance, meanClose)
	res.Values["volatility"] = volatility

	if volatility <= 0 {
		res.Reason = "degenerate hibernation range"
		return res, hibernationCarry{}
	}
	if volatility > cfg.HibernationVolatilityMax {
		res.Reason = fmt.Sprintf("volatility %.3f above limit %.3f", volatility, cfg.HibernationVolatilityMax)
		return res, hibernationCarry{}
	}

	res.Passed = true
	return res, hibernationCarry{support: support, resistance: resistance, avgVolume: avgVolume}
}

// evalWashout looks for a break below the hibernation support that happens
// on thinner volume than the consolidation itself, a climactic low without
// selling pressure.
func evalWashout(series Series, cfg Config, hib hibernationCarry) (StageResult, washoutCarry) {
	res := StageResult{Stage: StageWashout, Values: map[string]float64{}}

	window := series.Tail(cfg.WashoutWindow)
	windowLow := window.LowestLow()
	breakLevel := hib.support * cfg.WashoutBreakThreshold

	res.Values["window_low"] = windowLow
	res.Values["break_level"] = breakLevel

	if windowLow >= breakLevel {
		res.Reason = fmt.Sprintf("low %.2f never broke below %.2f", windowLow, breakLevel)
		return res, washoutCarry{}
	}

	pitDays := 0
	pitVolume := 0.0
	for _, c := range window {
		if c.Low < hib.support {
			pitDays++
			pitVolume += float64(c.Volume)
		}
	}
	res.Values["pit_days"] = float64(pitDays)

	if pitDays < cfg.MinPitDays {
		res.Reason = fmt.Sprintf("only %d bars below support, need %d", pitDays, cfg.MinPitDays)
		return res, washoutCarry{}
	}

	pitAvgVolume := pitVolume / float64(pitDays)
	res.Values["pit_avg_volume"] = pitAvgVolume

	if hib.avgVolume <= 0 {
		res.Reason = "no volume in hibernation window"
		return res, washoutCarry{}
	}

	volumeRatio := pitAvgVolume / hib.avgVolume
	res.Values["volume_ratio"] = volumeRatio
	if volumeRatio > cfg.WashoutVolumeShrinkRatio {
		res.Reason = fmt.Sprintf("pit volume ratio %.2f above limit %.2f", volumeRatio, cfg.WashoutVolumeShrinkRatio)
		return res, washoutCarry{}
	}

	// The window minimum is below support, so it belongs to a pit bar.
	res.Values["pit_low"] = windowLow
	res.Passed = true
	return res, washoutCarry{pitLow: windowLow, pitAvgVolume: pitAvgVolume}
}

// evalLiftoff inspects only the most recent bar, a reversal candle still
// near the pit low with volume confirming participation.
func evalLiftoff(series Series, cfg Config, wash washoutCarry) StageResult {
	res := StageResult{Stage: StageLiftoff, Values: map[string]float64{}}

	if len(series) < 2 {
		res.Reason = "no prior bar to compare against"
		return res
	}

	last := series.Last()
	prior := series[len(series)-2]

	res.Values["open"] = last.Open
	res.Values["close"] = last.Close
	res.Values["prior_close"] = prior.Close
	res.Values["volume"] = float64(last.Volume)
	res.Values["pit_low"] = wash.pitLow
	res.Values["pit_avg_volume"] = wash.pitAvgVolume

	if last.Close <= last.Open || last.Close <= prior.Close {
		res.Reason = "no reversal candle on the last bar"
		return res
	}

	if wash.pitLow <= 0 {
		res.Reason = "degenerate pit low"
		return res
	}

	rise := (last.Close - wash.pitLow) / wash.pitLow
	res.Values["rise_from_bottom"] = rise
	if rise > cfg.MaxRiseFromBottom {
		res.Reason = fmt.Sprintf("close %.1f%% above pit low, limit %.1f%%", rise*100, cfg.MaxRiseFromBottom*100)
		return res
	}

	required := wash.pitAvgVolume * cfg.LiftoffVolumeIncreaseRatio
	res.Values["required_volume"] = required
	if float64(last.Volume) < required {
		res.Reason = fmt.Sprintf("volume %.0f below required %.0f", float64(last.Volume), required)
		return res
	}

	res.Passed = true
	return res
}
