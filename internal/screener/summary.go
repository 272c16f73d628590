package screener

// StateSummary aggregates outcomes for one signal state.
type StateSummary struct {
	Signals        int     `json:"signals"`
	Evaluated      int     `json:"evaluated"`
	Wins           int     `json:"wins"`
	WinRate        float64 `json:"win_rate"`
	AvgMaxGain     float64 `json:"avg_max_gain"`
	AvgMaxDrawdown float64 `json:"avg_max_drawdown"`
}

// Summary is the derived view over a set of outcomes. Rates and means cover
// evaluable outcomes only, signals that were too recent to judge are counted
// in Unevaluable and influence nothing else. Summaries are recomputed on
// demand and never updated in place.
type Summary struct {
	Signals        int                          `json:"signals"`
	Evaluated      int                          `json:"evaluated"`
	Unevaluable    int                          `json:"unevaluable"`
	Wins           int                          `json:"wins"`
	WinRate        float64                      `json:"win_rate"`
	AvgMaxGain     float64                      `json:"avg_max_gain"`
	AvgMaxDrawdown float64                      `json:"avg_max_drawdown"`
	AvgDaysToPeak  float64                      `json:"avg_days_to_peak"`
	ByState        map[SignalState]StateSummary `json:"by_state"`
}

// Summarize folds outcomes into a Summary.
func Summarize(outcomes []Outcome) Summary {
	sum := Summary{ByState: map[SignalState]StateSummary{}}

	var gain, drawdown, daysToPeak float64
	stateGain := map[SignalState]float64{}
	stateDrawdown := map[SignalState]float64{}

	for _, out := range outcomes {
		sum.Signals++
		st := sum.ByState[out.State]
		st.Signals++

		if !out.Evaluable {
			sum.Unevaluable++
			sum.ByState[out.State] = st
			continue
		}

		sum.Evaluated++
		st.Evaluated++
		gain += out.MaxGain
		drawdown += out.MaxDrawdown
		daysToPeak += float64(out.DaysToPeak)
		stateGain[out.State] += out.MaxGain
		stateDrawdown[out.State] += out.MaxDrawdown
		if out.IsSuccess {
			sum.Wins++
			st.Wins++
		}
		sum.ByState[out.State] = st
	}

	if sum.Evaluated > 0 {
		n := float64(sum.Evaluated)
		sum.WinRate = float64(sum.Wins) / n
		sum.AvgMaxGain = gain / n
		sum.AvgMaxDrawdown = drawdown / n
		sum.AvgDaysToPeak = daysToPeak / n
	}

	for state, st := range sum.ByState {
		if st.Evaluated > 0 {
			n := float64(st.Evaluated)
			st.WinRate = float64(st.Wins) / n
			st.AvgMaxGain = stateGain[state] / n
			st.AvgMaxDrawdown = stateDrawdown[state] / n
			sum.ByState[state] = st
		}
	}

	return sum
}
