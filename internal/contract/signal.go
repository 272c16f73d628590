package contract

import (
	"context"

	"abyss-screener/internal/model"
)

// SignalContract decouples the screening strategies from the alert delivery
// layer. The Telegram service implements it.
type SignalContract interface {
	SendBuySignal(ctx context.Context, signal *model.StockSignal) (bool, error)
}
