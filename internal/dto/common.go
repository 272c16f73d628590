package dto

// DataTimeframe pairs a candle interval with the lookback range requested
// from the provider, e.g. {"1d", "5y"}.
type DataTimeframe struct {
	Interval string `json:"interval"`
	Range    string `json:"range"`
}

// DefaultDailyTimeframe is the timeframe the screener operates on. The
// pipeline windows are expressed in daily bars, so anything else would shift
// their meaning.
func DefaultDailyTimeframe(dataRange string) DataTimeframe {
	if dataRange == "" {
		dataRange = Range5Year
	}
	return DataTimeframe{Interval: Interval1Day, Range: dataRange}
}
