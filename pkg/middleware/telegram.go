package middleware

import (
	"context"
	"time"

	"gopkg.in/telebot.v3"
)

const defaultHandlerTimeout = 5 * time.Minute

// WithContext wraps a telebot handler with a per-update timeout context
// derived from rootCtx. timeout zero or negative falls back to five minutes.
func WithContext(rootCtx context.Context, timeout time.Duration, handler func(ctx context.Context, c telebot.Context) error) func(c telebot.Context) error {
	if timeout <= 0 {
		timeout = defaultHandlerTimeout
	}
	return func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(rootCtx, timeout)
		defer cancel()

		return handler(ctx, c)
	}
}
