package model

import (
	"time"
)

// Watchlist subscribes one chat to buy alerts for one symbol.
type Watchlist struct {
	ID        uint      `gorm:"primarykey"`
	ChatID    int64     `gorm:"not null;uniqueIndex:idx_watchlists_chat_symbol,priority:1"`
	Username  string    `gorm:"type:varchar(255)"`
	StockCode string    `gorm:"not null;uniqueIndex:idx_watchlists_chat_symbol,priority:2"`
	Exchange  string    `gorm:"not null;uniqueIndex:idx_watchlists_chat_symbol,priority:3"`
	IsActive  *bool     `gorm:"default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Watchlist) TableName() string {
	return "watchlists"
}

type GetWatchlistParam struct {
	ChatID    *int64
	StockCode *string
	Exchange  *string
	IsActive  *bool
}
