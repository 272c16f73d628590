package telegram

import (
	"context"
	"sync"
	"time"

	"abyss-screener/config"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// TelegramRateLimiter serializes outgoing bot traffic under the Telegram API
// limits: a global budget plus per-user and per-chat budgets.
type TelegramRateLimiter struct {
	cfg             *config.TelegramConfig
	log             *logger.Logger
	globalLimiter   *rate.Limiter
	userLimiters    map[int64]*limiterEntry
	messageLimiters map[int64]*limiterEntry
	bot             *telebot.Bot
	mu              sync.Mutex
	editMu          sync.Mutex
	wg              sync.WaitGroup
}

func NewTelegramRateLimiter(cfg *config.TelegramConfig, log *logger.Logger, bot *telebot.Bot) *TelegramRateLimiter {
	return &TelegramRateLimiter{
		cfg:             cfg,
		log:             log,
		bot:             bot,
		globalLimiter:   rate.NewLimiter(rate.Limit(cfg.MaxGlobalRequestPerSecond), cfg.MaxGlobalRequestPerSecond),
		userLimiters:    make(map[int64]*limiterEntry),
		messageLimiters: make(map[int64]*limiterEntry),
	}
}

func (t *TelegramRateLimiter) Send(ctx context.Context, c telebot.Context, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	if err := t.checkRateLimit(ctx, c.Sender().ID, c.Chat().ID); err != nil {
		return nil, err
	}
	return t.bot.Send(c.Chat(), what, opts...)
}

func (t *TelegramRateLimiter) SendWithoutMsg(ctx context.Context, c telebot.Context, what interface{}, opts ...interface{}) error {
	_, err := t.Send(ctx, c, what, opts...)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to send message", logger.ErrorField(err))
		return err
	}
	return nil
}

func (t *TelegramRateLimiter) SendMessageUser(ctx context.Context, message string, chatID int64, opts ...interface{}) error {
	if err := t.checkRateLimit(ctx, chatID, chatID); err != nil {
		return err
	}
	_, err := t.bot.Send(&telebot.User{ID: chatID}, message, opts...)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to send message to user", logger.ErrorField(err), logger.Field("chat_id", chatID))
	}
	return err
}

func (t *TelegramRateLimiter) Edit(ctx context.Context, c telebot.Context, msg *telebot.Message, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	if err := t.checkRateLimit(ctx, c.Sender().ID, c.Chat().ID); err != nil {
		return nil, err
	}

	t.editMu.Lock()
	defer t.editMu.Unlock()
	return t.bot.Edit(msg, what, opts...)
}

func (t *TelegramRateLimiter) EditWithoutMsg(ctx context.Context, c telebot.Context, what interface{}, opts ...interface{}) error {
	_, err := t.Edit(ctx, c, c.Message(), what, opts...)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to edit message", logger.ErrorField(err))
		return err
	}
	return nil
}

func (t *TelegramRateLimiter) Delete(ctx context.Context, c telebot.Context, msg *telebot.Message) error {
	if err := t.checkRateLimit(ctx, c.Sender().ID, c.Chat().ID); err != nil {
		return err
	}
	t.editMu.Lock()
	defer t.editMu.Unlock()
	return t.bot.Delete(msg)
}

func (t *TelegramRateLimiter) Respond(ctx context.Context, c telebot.Context, resp ...*telebot.CallbackResponse) error {
	if err := t.checkRateLimit(ctx, c.Sender().ID, c.Chat().ID); err != nil {
		return err
	}
	return c.Respond(resp...)
}

func (t *TelegramRateLimiter) getUserLimiter(userID int64) *limiterEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, exists := t.userLimiters[userID]; exists {
		entry.lastAccess = time.Now()
		return entry
	}

	entry := &limiterEntry{
		limiter:    rate.NewLimiter(rate.Limit(t.cfg.MaxUserRequestPerSecond), t.cfg.MaxUserRequestPerSecond),
		lastAccess: time.Now(),
	}
	t.userLimiters[userID] = entry
	return entry
}

func (t *TelegramRateLimiter) getMessageLimiter(chatID int64) *limiterEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, exists := t.messageLimiters[chatID]; exists {
		entry.lastAccess = time.Now()
		return entry
	}

	entry := &limiterEntry{
		limiter:    rate.NewLimiter(rate.Limit(t.cfg.MaxEditMessagePerSecond), t.cfg.MaxEditMessagePerSecond),
		lastAccess: time.Now(),
	}
	t.messageLimiters[chatID] = entry
	return entry
}

func (t *TelegramRateLimiter) checkRateLimit(ctx context.Context, senderID int64, chatID int64) error {
	userLimiter := t.getUserLimiter(senderID)
	messageLimiter := t.getMessageLimiter(chatID)

	if err := messageLimiter.limiter.Wait(ctx); err != nil {
		t.log.ErrorContext(ctx, "Failed to wait for message rate limit", logger.ErrorField(err))
		return err
	}
	if err := t.globalLimiter.Wait(ctx); err != nil {
		t.log.ErrorContext(ctx, "Failed to wait for global rate limit", logger.ErrorField(err))
		return err
	}
	if err := userLimiter.limiter.Wait(ctx); err != nil {
		t.log.ErrorContext(ctx, "Failed to wait for user rate limit", logger.ErrorField(err))
		return err
	}
	return nil
}

func (t *TelegramRateLimiter) StartCleanupExpired(ctx context.Context) {
	t.wg.Add(1)
	utils.GoSafe(func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.cfg.RateLimitCleanupDuration)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				t.log.Info("Received signal to stop Telegram rate limiter cleanup expired")
				return
			case <-ticker.C:
				t.mu.Lock()
				now := time.Now()
				for userID, entry := range t.userLimiters {
					if now.Sub(entry.lastAccess) > t.cfg.RatelimitExpireDuration {
						delete(t.userLimiters, userID)
					}
				}
				for chatID, entry := range t.messageLimiters {
					if now.Sub(entry.lastAccess) > t.cfg.RatelimitExpireDuration {
						delete(t.messageLimiters, chatID)
					}
				}
				t.mu.Unlock()
			}
		}
	})
}

func (t *TelegramRateLimiter) StopCleanupExpired() {
	t.wg.Wait()
	t.log.Info("Telegram rate limiter stopped")
}
