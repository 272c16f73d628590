package dto

import (
	"abyss-screener/internal/model"
	"abyss-screener/pkg/utils"

	"gopkg.in/telebot.v3"
)

// RequestWatchData captures a /watch command from a chat.
type RequestWatchData struct {
	ChatID    int64
	Username  string
	StockCode string
	Exchange  string
}

func NewRequestWatchData(user *telebot.User, stockCode string, exchange string) *RequestWatchData {
	return &RequestWatchData{
		ChatID:    user.ID,
		Username:  user.Username,
		StockCode: stockCode,
		Exchange:  exchange,
	}
}

func (r *RequestWatchData) ToWatchlistEntity() *model.Watchlist {
	return &model.Watchlist{
		ChatID:    r.ChatID,
		Username:  r.Username,
		StockCode: r.StockCode,
		Exchange:  r.Exchange,
		IsActive:  utils.ToPointer(true),
	}
}
