package telegram

import (
	"context"
	"net/http"

	"abyss-screener/internal/dto"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/middleware"

	"github.com/labstack/echo/v4"
	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) WithContext(handler func(ctx context.Context, c telebot.Context) error) func(c telebot.Context) error {
	return middleware.WithContext(t.ctx, t.cfg.Telegram.TimeoutDuration, handler)
}

func (t *TelegramBotHandler) RegisterHandlers() {
	t.echo.POST("/api/v1/telegram/webhook", func(c echo.Context) error {
		var update telebot.Update
		if err := c.Bind(&update); err != nil {
			t.log.ErrorContext(t.ctx, "Cannot bind JSON", logger.ErrorField(err))
			badRequest := dto.NewBadRequestResponse(err.Error())
			return c.JSON(http.StatusBadRequest, badRequest)
		}
		t.bot.ProcessUpdate(update)
		return c.JSON(http.StatusOK, dto.NewBaseResponse(http.StatusOK, "ok", nil))
	})

	t.bot.Handle("/start", t.WithContext(t.handleStart))
	t.bot.Handle("/help", t.WithContext(t.handleHelp))
	t.bot.Handle("/cancel", t.handleCancel)
	t.bot.Handle("/screen", t.WithContext(t.handleStartScreen), t.IsOnConversationMiddleware())
	t.bot.Handle("/signals", t.WithContext(t.handleSignals), t.IsOnConversationMiddleware())
	t.bot.Handle("/watch", t.WithContext(t.handleWatch), t.IsOnConversationMiddleware())
	t.bot.Handle("/unwatch", t.WithContext(t.handleUnwatch), t.IsOnConversationMiddleware())
	t.bot.Handle("/watchlist", t.WithContext(t.handleWatchlist), t.IsOnConversationMiddleware())
	t.bot.Handle("/backtest", t.WithContext(t.handleBacktest), t.IsOnConversationMiddleware())
	t.bot.Handle("/scheduler", t.WithContext(t.handleScheduler), t.IsOnConversationMiddleware())
	t.bot.Handle(telebot.OnText, t.WithContext(t.handleConversation))

	t.bot.Handle(&btnNarrateSignal, t.WithContext(t.handleBtnNarrateSignal))
	t.bot.Handle(&btnScreenStock, t.WithContext(t.handleBtnScreenStock))
	t.bot.Handle(&btnDeleteMessage, t.WithContext(t.handleBtnDeleteMessage))
	t.bot.Handle(&btnRunBacktest, t.WithContext(t.handleBtnRunBacktest))
	t.bot.Handle(&btnBacktestReport, t.WithContext(t.handleBtnBacktestReport))
	t.bot.Handle(&btnDetailJob, t.WithContext(t.handleBtnDetailJob))
	t.bot.Handle(&btnActionRunJob, t.WithContext(t.handleBtnActionRunJob))
	t.bot.Handle(&btnActionBackToJobList, t.WithContext(t.handleBtnActionBackToJobList))
}
