package dto

import (
	"abyss-screener/internal/screener"
)

type StockOHLCV struct {
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
	Timestamp int64   `json:"timestamp"`
}

type StockData struct {
	MarketPrice float64      `json:"market_price"`
	Range       string       `json:"range"`
	Interval    string       `json:"interval"`
	OHLCV       []StockOHLCV `json:"ohlc"`
}

// ToSeries converts provider bars into the candle series the pipeline
// consumes. Ordering is preserved, providers already return ascending bars.
func (d *StockData) ToSeries() screener.Series {
	series := make(screener.Series, 0, len(d.OHLCV))
	for _, bar := range d.OHLCV {
		series = append(series, screener.Candle{
			Timestamp: bar.Timestamp,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		})
	}
	return series
}

type GetStockDataParam struct {
	StockCode string `json:"stock_code"`
	Exchange  string `json:"exchange"`
	Range     string `json:"range"`
	Interval  string `json:"interval"`
}

// Yahoo Finance API Response
type YahooFinanceResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}
