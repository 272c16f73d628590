package screener

import "time"

// Synthetic series builders shared by the package tests. Bars are a day
// apart and always respect low <= open,close <= high.

const dayStep = int64(24 * 60 * 60)

var testBase = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC).Unix()

func nextTimestamp(s Series) int64 {
	if len(s) == 0 {
		return testBase
	}
	return s[len(s)-1].Timestamp + dayStep
}

// appendFlat adds n bars that open and close at price with highs and lows
// spread around it.
func appendFlat(s Series, n int, price, spread float64, volume int64) Series {
	for i := 0; i < n; i++ {
		s = append(s, Candle{
			Timestamp: nextTimestamp(s),
			Open:      price,
			High:      price + spread,
			Low:       price - spread,
			Close:     price,
			Volume:    volume,
		})
	}
	return s
}

// appendTrend adds n bars whose closes and volumes move linearly between
// the given endpoints. Each bar opens at the previous close.
func appendTrend(s Series, n int, fromClose, toClose float64, fromVolume, toVolume int64) Series {
	prevClose := fromClose
	if len(s) > 0 {
		prevClose = s[len(s)-1].Close
	}
	for i := 0; i < n; i++ {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		close := fromClose + (toClose-fromClose)*t
		volume := float64(fromVolume) + (float64(toVolume)-float64(fromVolume))*t
		open := prevClose

		high := open
		if close > high {
			high = close
		}
		low := open
		if close < low {
			low = close
		}
		s = append(s, Candle{
			Timestamp: nextTimestamp(s),
			Open:      open,
			High:      high + 0.3,
			Low:       low - 0.2,
			Close:     close,
			Volume:    int64(volume),
		})
		prevClose = close
	}
	return s
}

// abyssSeries builds the canonical 600 bar bottoming shape: a flat top
// around 100, a long decline to 30 on shrinking volume, a quiet base around
// 30, a 50 bar washout dipping to 25 on thin volume and a final reversal
// bar closing at 25.6 on expanded volume.
func abyssSeries() Series {
	s := Series{}
	s = appendFlat(s, 179, 100, 1.0, 1_000_000)
	s = appendTrend(s, 200, 100, 30, 1_000_000, 300_000)
	s = appendFlat(s, 170, 30, 1.5, 250_000)
	s = appendTrend(s, 50, 29, 25.2, 150_000, 150_000)
	s = append(s, Candle{
		Timestamp: nextTimestamp(s),
		Open:      25.1,
		High:      25.8,
		Low:       25.0,
		Close:     25.6,
		Volume:    400_000,
	})
	return s
}

// shallowDeclineSeries mirrors abyssSeries but only falls to 75, a 25 percent
// drop that the deep decline gate must reject.
func shallowDeclineSeries() Series {
	s := Series{}
	s = appendFlat(s, 179, 100, 1.0, 1_000_000)
	s = appendTrend(s, 200, 100, 75, 1_000_000, 300_000)
	s = appendFlat(s, 170, 75, 1.5, 250_000)
	s = appendTrend(s, 50, 74, 70.4, 150_000, 150_000)
	s = append(s, Candle{
		Timestamp: nextTimestamp(s),
		Open:      70.3,
		High:      71.3,
		Low:       70.1,
		Close:     71.0,
		Volume:    400_000,
	})
	return s
}
