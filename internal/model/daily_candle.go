package model

import (
	"time"

	"abyss-screener/internal/screener"
)

// DailyCandle is one OHLCV bar in the local candle store. Date is midnight
// WIB, one row per symbol per trading day.
type DailyCandle struct {
	ID        uint      `gorm:"primarykey"`
	StockCode string    `gorm:"not null;uniqueIndex:idx_daily_candles_symbol_date,priority:1"`
	Exchange  string    `gorm:"not null;uniqueIndex:idx_daily_candles_symbol_date,priority:2"`
	Date      time.Time `gorm:"not null;uniqueIndex:idx_daily_candles_symbol_date,priority:3"`
	Open      float64   `gorm:"not null"`
	High      float64   `gorm:"not null"`
	Low       float64   `gorm:"not null"`
	Close     float64   `gorm:"not null"`
	Volume    int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (DailyCandle) TableName() string {
	return "daily_candles"
}

func (c *DailyCandle) ToCandle() screener.Candle {
	return screener.Candle{
		Timestamp: c.Date.Unix(),
		Open:      c.Open,
		High:      c.High,
		Low:       c.Low,
		Close:     c.Close,
		Volume:    c.Volume,
	}
}

type GetDailyCandlesParam struct {
	StockCode string
	Exchange  string
	From      *time.Time
	To        *time.Time
	Limit     *int
}
