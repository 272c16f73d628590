package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"abyss-screener/internal/dto"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"

	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) handleStartScreen(ctx context.Context, c telebot.Context) error {
	userID := c.Sender().ID
	t.inmemoryCache.Set(fmt.Sprintf(UserStateKey, userID), StateWaitingScreenSymbol, t.cfg.Cache.TelegramStateExpDuration)
	return c.Send("Silakan masukkan simbol saham yang ingin Anda screening beserta dengan exchange code (contoh: IDX:BBCA, NASDAQ:TSLA).")
}

func (t *TelegramBotHandler) handleBtnScreenStock(ctx context.Context, c telebot.Context) error {
	return t.showScreeningWithLoading(ctx, c, false)
}

func (t *TelegramBotHandler) handleScreenSymbol(ctx context.Context, c telebot.Context) error {
	defer t.ResetUserState(c.Sender().ID)

	return t.showScreeningWithLoading(ctx, c, true)
}

func (t *TelegramBotHandler) showScreeningWithLoading(ctx context.Context, c telebot.Context, shouldSendMsg bool) error {

	stopChan := make(chan struct{})

	msg := t.showLoadingFlowScreening(c, stopChan, shouldSendMsg)

	symbol := c.Data()

	if symbol == "" {
		symbol = c.Text()
	}

	utils.GoSafe(func() {
		newCtx, cancel := context.WithTimeout(t.ctx, t.cfg.Telegram.TimeoutDuration)
		defer cancel()

		result, err := t.service.TelegramBotService.ScreenStock(newCtx, symbol)
		if err != nil {
			close(stopChan)
			t.log.ErrorContext(ctx, "Failed to screen stock", logger.ErrorField(err))

			// Send error message
			_, err = t.telegram.Send(newCtx, c, fmt.Sprintf("❌ Gagal melakukan screening: %s", err.Error()))
			if err != nil {
				t.log.ErrorContext(newCtx, "Failed to send error message", logger.ErrorField(err))
			}
			return
		}

		close(stopChan)

		err = t.showScreenResult(newCtx, c, msg, result)

		if err != nil {
			t.log.ErrorContext(newCtx, "Failed to show screen result", logger.ErrorField(err))
			return
		}

	})

	return nil
}

func (t *TelegramBotHandler) showLoadingFlowScreening(c telebot.Context, stop <-chan struct{}, shouldSendNewMsg bool) *telebot.Message {

	msgRoot := c.Message()
	initial := "Sedang memindai pola bottoming, mohon tunggu"

	var msg *telebot.Message
	var err error

	// Cek apakah pesan terakhir berasal dari bot
	if msgRoot == nil || msgRoot.Sender == nil || !msgRoot.Sender.IsBot || shouldSendNewMsg {
		msg, err = t.telegram.Send(t.ctx, c, initial, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
		if err != nil {
			t.log.ErrorContext(t.ctx, "Failed to send loading message", logger.ErrorField(err))
			return nil
		}
	} else {
		msg, err = t.telegram.Edit(t.ctx, c, msgRoot, initial)
		if err != nil {
			t.log.ErrorContext(t.ctx, "Failed to edit loading message", logger.ErrorField(err))
			return nil
		}
	}

	go func() {
		dots := []string{"⏳", "⏳⏳", "⏳⏳⏳"}
		i := 0
		ctx, cancel := context.WithTimeout(t.ctx, t.cfg.Telegram.TimeoutAsyncDuration)
		defer cancel()
		for {
			if utils.ShouldStopChan(stop, t.log) {
				return
			}
			if !utils.ShouldContinue(ctx, t.log) {
				return
			}
			_, err := t.telegram.Edit(ctx, c, msg, fmt.Sprintf("%s%s", initial, dots[i%len(dots)]))

			if err != nil {
				t.log.ErrorContext(ctx, "Failed to update loading animation", logger.ErrorField(err))
				return
			}
			i++
			time.Sleep(500 * time.Millisecond)

		}
	}()

	return msg
}

func (t *TelegramBotHandler) showScreenResult(ctx context.Context, c telebot.Context, loadingMsg *telebot.Message, result *dto.ScreenStockResult) error {
	symbolWithExchange := result.Exchange + ":" + result.StockCode

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("<b>%s - %s</b>\n", dto.SignalStateText(result.State), symbolWithExchange))
	sb.WriteString(fmt.Sprintf("<i>📅 Update: %s</i>\n", utils.PrettyDate(utils.TimeNowWIB())))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("💰 <b>Harga</b>: %s\n", utils.FormatPrice(result.Close, result.Exchange)))
	sb.WriteString(fmt.Sprintf("🗓️ <b>Candle</b>: %s\n", utils.PrettyDate(utils.TimeToWIB(time.Unix(result.Timestamp, 0)))))

	if len(result.Stages) > 0 {
		sb.WriteString("\n")
		sb.WriteString("<b>📶 Tahapan Pola</b>\n")
		for _, stage := range result.Stages {
			icon := "✅"
			if !stage.Passed {
				icon = "❌"
			}
			sb.WriteString(fmt.Sprintf("%s <b>%s</b> - %s\n", icon, dto.StageText(stage.Stage), stage.Reason))
		}
	}

	menu := &telebot.ReplyMarkup{}
	row := []telebot.Row{}

	if result.IsBuy() {
		sb.WriteString("\n")
		sb.WriteString("👉 <i>Klik tombol di bawah ini untuk melihat narasi AI</i>")
		btnNarrate := menu.Data(btnNarrateSignal.Text, btnNarrateSignal.Unique, fmt.Sprintf(btnNarrateSignal.Data, symbolWithExchange))
		row = append(row, menu.Row(btnNarrate))
	}

	row = append(row, menu.Row(btnDeleteMessage))
	menu.Inline(row...)

	_, err := t.telegram.Edit(ctx, c, loadingMsg, sb.String(), menu, telebot.ModeHTML)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to edit message", logger.ErrorField(err))
		return err
	}

	return nil
}
