package dto

import (
	"abyss-screener/internal/screener"
)

const (
	Interval1Day  string = "1d"
	Interval1Week string = "1w"

	Range6Month string = "6mo"
	Range1Year  string = "1y"
	Range2Year  string = "2y"
	Range5Year  string = "5y"
	Range10Year string = "10y"
	RangeMax    string = "max"
)

// Generator names accepted by the backtest runner.
const (
	GeneratorAbyss    string = "abyss"
	GeneratorBreakout string = "breakout"
)

// Backtest run statuses, persisted verbatim on the run row.
const (
	BacktestStatusRunning   string = "running"
	BacktestStatusCompleted string = "completed"
	BacktestStatusFailed    string = "failed"
)

// AI narrative stances.
const (
	StanceAccumulate string = "ACCUMULATE"
	StanceWatch      string = "WATCH"
	StanceAvoid      string = "AVOID"
)

func SignalStateText(state screener.SignalState) string {
	switch state {
	case screener.StateBuy:
		return "🟢 Buy"
	case screener.StatePre:
		return "🔵 Pre Move"
	case screener.StateMid:
		return "🟡 Mid Move"
	case screener.StatePost:
		return "🟠 Post Move"
	case screener.StateNone:
		return "⚪ None"
	default:
		return "⚪ Unknown"
	}
}

func StageText(stage screener.Stage) string {
	switch stage {
	case screener.StageDeepDecline:
		return "Deep Decline"
	case screener.StageHibernation:
		return "Hibernation"
	case screener.StageWashout:
		return "Washout"
	case screener.StageLiftoff:
		return "Liftoff"
	default:
		return "Unknown"
	}
}

func StanceText(stance string) string {
	switch stance {
	case StanceAccumulate:
		return "🟢 Accumulate"
	case StanceWatch:
		return "🟡 Watch"
	case StanceAvoid:
		return "🔴 Avoid"
	default:
		return "⚪ Unknown"
	}
}
