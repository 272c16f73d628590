package telegram

import (
	"context"
	"fmt"
	"strings"

	"abyss-screener/internal/dto"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"

	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) handleBtnNarrateSignal(ctx context.Context, c telebot.Context) error {
	markup := &telebot.ReplyMarkup{}
	markup.Inline(markup.Row(btnDeleteMessage))

	_, err := t.telegram.Edit(ctx, c, c.Message(), markup, telebot.ModeHTML)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to edit message", logger.ErrorField(err))
		return err
	}

	stopChan := make(chan struct{})

	msg := t.showLoadingFlowScreening(c, stopChan, true)

	symbol := c.Data()

	if symbol == "" {
		symbol = c.Text()
	}

	utils.GoSafe(func() {
		newCtx, cancel := context.WithTimeout(t.ctx, t.cfg.Telegram.TimeoutAsyncDuration)
		defer cancel()

		narrative, err := t.service.TelegramBotService.NarrateSignal(newCtx, symbol)
		close(stopChan)
		if err != nil {
			t.log.ErrorContext(ctx, "Failed to narrate signal", logger.ErrorField(err))

			// Send error message
			_, err = t.telegram.Edit(newCtx, c, msg, fmt.Sprintf("❌ Gagal membuat narasi AI: %s", err.Error()))
			if err != nil {
				t.log.ErrorContext(newCtx, "Failed to send error message", logger.ErrorField(err))
			}
			return
		}

		err = t.telegram.Delete(newCtx, c, msg)
		if err != nil {
			t.log.ErrorContext(newCtx, "Failed to delete loading message", logger.ErrorField(err))
			return
		}

		err = t.showNarrative(newCtx, c, narrative)
		if err != nil {
			t.log.ErrorContext(newCtx, "Failed to show narrative", logger.ErrorField(err))
			return
		}
	})

	return nil
}

func (t *TelegramBotHandler) showNarrative(ctx context.Context, c telebot.Context, narrative *dto.AINarrateSignalResponse) error {
	sb := strings.Builder{}

	symbolWithExchange := narrative.Exchange + ":" + narrative.StockCode

	sb.WriteString(fmt.Sprintf("<b>%s - %s <i>(berdasarkan AI)</i></b>\n", dto.StanceText(narrative.Stance), symbolWithExchange))
	sb.WriteString(fmt.Sprintf("<i>⏰ %s</i>\n", utils.PrettyDate(narrative.Timestamp)))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("<b>💰 Harga: %s</b>\n", utils.FormatPrice(narrative.MarketPrice, narrative.Exchange)))
	sb.WriteString(fmt.Sprintf("<b>🤖 Confidence:</b> %d/100\n", int(narrative.Confidence)))

	sb.WriteString("\n")
	sb.WriteString("<b>📌 Key Observations:</b>\n")
	for k, observation := range narrative.KeyObservations {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", utils.PrettyKey(k), utils.SafeText(observation)))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("<b>⚠️ Risiko:</b>\n%s\n", utils.SafeText(narrative.Risks)))
	sb.WriteString("\n")
	sb.WriteString("<b>🧠 Alasan Pengambilan Keputusan</b>\n")
	sb.WriteString(utils.SafeText(narrative.Reason))
	sb.WriteString("\n")

	menu := &telebot.ReplyMarkup{}
	row := []telebot.Row{}
	btnRescreen := menu.Data(btnScreenStock.Text, btnScreenStock.Unique, fmt.Sprintf(btnScreenStock.Data, symbolWithExchange))
	row = append(row, menu.Row(btnRescreen), menu.Row(btnDeleteMessage))
	menu.Inline(row...)

	_, err := t.telegram.Send(ctx, c, sb.String(), menu, telebot.ModeHTML)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to send message show narrative", logger.ErrorField(err))
		return err
	}

	return nil
}
