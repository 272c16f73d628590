package telegram

import (
	"context"
	"fmt"
	"strings"

	"abyss-screener/internal/dto"
	"abyss-screener/internal/screener"
	"abyss-screener/pkg/cache"
	"abyss-screener/pkg/common"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"

	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) handleSignals(ctx context.Context, c telebot.Context) error {
	signals, err := t.service.TelegramBotService.LatestSignals(ctx, nil)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to get latest signals", logger.ErrorField(err))
		_, errSend := t.telegram.Send(ctx, c, commonErrorInternal)
		if errSend != nil {
			t.log.ErrorContext(ctx, "Failed to send internal error message", logger.ErrorField(errSend))
		}
		return err
	}

	if len(signals) == 0 {
		msgNotExist := `📭 *Belum Ada Sinyal*

Screening harian belum menemukan saham yang menyelesaikan pola bottoming.

📌 Yang bisa kamu lakukan sambil menunggu:

1️⃣ Gunakan /screen untuk cek satu saham secara manual.

2️⃣ Tambahkan saham favoritmu lewat /watch agar langsung dapat alert saat sinyal BUY muncul.

💡 Sinyal baru akan muncul di sini setiap kali screening harian menemukan pola yang lengkap.`

		_, errSend := t.telegram.Send(ctx, c, msgNotExist, telebot.ModeMarkdown)
		if errSend != nil {
			t.log.ErrorContext(ctx, "Failed to send no signals message", logger.ErrorField(errSend))
		}
		return errSend
	}

	sb := strings.Builder{}
	sb.WriteString("📶 <b>Sinyal Terbaru</b>\n")
	sb.WriteString("Hasil screening pola bottoming yang paling baru. Tekan tombol di bawah untuk screening ulang dengan data terkini.\n")

	var symbols []string
	for _, signal := range signals {
		symbolWithExchange := fmt.Sprintf("%s:%s", signal.Exchange, signal.StockCode)
		symbols = append(symbols, symbolWithExchange)

		sb.WriteString(fmt.Sprintf("\n<b>───── %s ─────</b>\n", symbolWithExchange))
		sb.WriteString(fmt.Sprintf("%s | 💰 %s\n", dto.SignalStateText(screener.SignalState(signal.State)), utils.FormatPrice(signal.MarketPrice, signal.Exchange)))
		sb.WriteString(fmt.Sprintf("🗓️ %s\n", utils.PrettyDate(signal.Timestamp)))

		// A screen run after the signal leaves a fresher close in cache.
		if cached, ok := cache.GetFromCache[*dto.ScreenStockResult](fmt.Sprintf(common.KEY_LAST_SCREEN, symbolWithExchange)); ok && cached.Close > 0 && signal.MarketPrice > 0 {
			sb.WriteString(fmt.Sprintf("📊 Sejak sinyal: %s\n", utils.FormatChangeWithIcon(signal.MarketPrice, cached.Close)))
		}
	}

	menu := &telebot.ReplyMarkup{}
	rows := []telebot.Row{}
	var tempRow []telebot.Btn

	for _, symbol := range symbols {
		tempRow = append(tempRow, menu.Data(symbol, btnScreenStock.Unique, symbol))
		if len(tempRow) == 2 {
			rows = append(rows, menu.Row(tempRow...))
			tempRow = []telebot.Btn{}
		}
	}

	if len(tempRow) > 0 {
		tempRow = append(tempRow, btnDeleteMessage)
		rows = append(rows, menu.Row(tempRow...))
	} else {
		rows = append(rows, menu.Row(btnDeleteMessage))
	}

	menu.Inline(rows...)
	_, errSend := t.telegram.Send(ctx, c, sb.String(), menu, telebot.ModeHTML)
	if errSend != nil {
		t.log.ErrorContext(ctx, "Failed to send signals message", logger.ErrorField(errSend))
	}
	return errSend
}
