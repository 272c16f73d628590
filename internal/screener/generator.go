package screener

import "fmt"

// SignalGenerator emits state labeled signals over a historical series.
// Implementations are pure, the backtest service keeps them in a plain
// dispatch table keyed by name.
type SignalGenerator interface {
	Name() string
	Generate(series Series, cfg Config) ([]Signal, error)
}

// AbyssGenerator replays the four stage pipeline over every historical
// prefix of the series. The pipeline only ever signals on its last bar, so
// walking the prefixes recovers every bar on which the screener would have
// fired at the time.
type AbyssGenerator struct{}

func (AbyssGenerator) Name() string {
	return "abyss"
}

func (AbyssGenerator) Generate(series Series, cfg Config) ([]Signal, error) {
	cfg = cfg.withDefaults()

	start := cfg.LongTermWindow
	if min := cfg.WashoutWindow + cfg.HibernationWindow; min > start {
		start = min
	}
	if len(series) < start {
		return nil, fmt.Errorf("%w: %d bars, need %d", ErrInsufficientData, len(series), start)
	}

	var signals []Signal
	for cut := start; cut <= len(series); cut++ {
		eval, err := Evaluate(series[:cut], cfg)
		if err != nil {
			return nil, err
		}
		if eval.Signal != nil {
			signals = append(signals, Signal{Index: cut - 1, State: StateBuy})
		}
	}
	return signals, nil
}

// Breakout generator tunables. The rolling window is a quarter year of
// daily bars, the approach band marks closes just under the rolling high.
const (
	breakoutWindow       = 60
	breakoutApproachBand = 0.02
)

// BreakoutGenerator is a deliberately simple rolling high breakout strategy
// used to exercise the generic entry resolution path. PRE marks a close
// just below the rolling high, MID the bar that crosses it, POST a bar that
// was already above it.
type BreakoutGenerator struct{}

func (BreakoutGenerator) Name() string {
	return "breakout"
}

func (BreakoutGenerator) Generate(series Series, cfg Config) ([]Signal, error) {
	if len(series) <= breakoutWindow {
		return nil, fmt.Errorf("%w: %d bars, need more than %d", ErrInsufficientData, len(series), breakoutWindow)
	}

	var signals []Signal
	aboveBefore := false
	for i := breakoutWindow; i < len(series); i++ {
		rollingHigh := series.Window(i-breakoutWindow, i).HighestHigh()
		close := series[i].Close

		switch {
		case close > rollingHigh && !aboveBefore:
			signals = append(signals, Signal{Index: i, State: StateMid})
			aboveBefore = true
		case close > rollingHigh:
			signals = append(signals, Signal{Index: i, State: StatePost})
		case close >= rollingHigh*(1-breakoutApproachBand):
			signals = append(signals, Signal{Index: i, State: StatePre})
			aboveBefore = false
		default:
			aboveBefore = false
		}
	}
	return signals, nil
}
