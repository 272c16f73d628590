package screener

// Window statistics used by the stage gates. All helpers are pure and
// return 0 on an empty window so the gates stay total over any input.

// HighestHigh returns the maximum high over the series.
func (s Series) HighestHigh() float64 {
	if len(s) == 0 {
		return 0
	}
	max := s[0].High
	for _, c := range s[1:] {
		if c.High > max {
			max = c.High
		}
	}
	return max
}

// LowestLow returns the minimum low over the series.
func (s Series) LowestLow() float64 {
	if len(s) == 0 {
		return 0
	}
	min := s[0].Low
	for _, c := range s[1:] {
		if c.Low < min {
			min = c.Low
		}
	}
	return min
}

// MeanClose returns the arithmetic mean of the closes.
func (s Series) MeanClose() float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range s {
		sum += c.Close
	}
	return sum / float64(len(s))
}

// MeanVolume returns the arithmetic mean of the volumes.
func (s Series) MeanVolume() float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range s {
		sum += float64(c.Volume)
	}
	return sum / float64(len(s))
}

// PricePosition ranks price inside the [low, high] range as a fraction in
// [0, 1]. A degenerate range (high <= low) returns -1 so callers can treat
// it as a failed gate instead of dividing by zero.
func PricePosition(price, low, high float64) float64 {
	if high <= low {
		return -1
	}
	pos := (price - low) / (high - low)
	if pos < 0 {
		return 0
	}
	if pos > 1 {
		return 1
	}
	return pos
}

// rangeVolatility measures the width of a window relative to its mean close.
// The reference is the mean close, never the raw support, otherwise a
// near-zero support blows the ratio up. Returns -1 when the reference is not
// positive so the caller fails the gate instead of dividing by zero.
func rangeVolatility(support, resistance, meanClose float64) float64 {
	if meanClose <= 0 {
		return -1
	}
	return (resistance - support) / meanClose
}
