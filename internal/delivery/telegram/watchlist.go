package telegram

import (
	"context"
	"fmt"
	"strings"

	"abyss-screener/internal/dto"
	"abyss-screener/pkg/cache"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"

	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) handleWatch(ctx context.Context, c telebot.Context) error {
	userID := c.Sender().ID
	t.inmemoryCache.Set(fmt.Sprintf(UserStateKey, userID), StateWaitingWatchSymbol, t.cfg.Cache.TelegramStateExpDuration)
	return c.Send("👀 Masukkan kode saham yang ingin kamu pantau beserta exchange code <i>(contoh: IDX:ANTM, NASDAQ:TSLA)</i>:", telebot.ModeHTML)
}

func (t *TelegramBotHandler) handleUnwatch(ctx context.Context, c telebot.Context) error {
	userID := c.Sender().ID
	t.inmemoryCache.Set(fmt.Sprintf(UserStateKey, userID), StateWaitingUnwatchSymbol, t.cfg.Cache.TelegramStateExpDuration)
	return c.Send("🙈 Masukkan kode saham yang ingin kamu hapus dari watchlist <i>(contoh: IDX:ANTM, NASDAQ:TSLA)</i>:", telebot.ModeHTML)
}

func (t *TelegramBotHandler) handleWatchConversation(ctx context.Context, c telebot.Context) error {
	userID := c.Sender().ID

	state, ok := cache.GetFromCache[int](fmt.Sprintf(UserStateKey, userID))
	if !ok {
		t.ResetUserState(userID)
		_, err := t.telegram.Send(ctx, c, commonErrorInternal)
		return err
	}

	symbol := strings.ToUpper(strings.TrimSpace(c.Text()))
	stockCode, exchange, err := utils.ParseStockSymbol(symbol)
	if err != nil {
		// Keep the state so the user can retry with a corrected symbol.
		_, errSend := t.telegram.Send(ctx, c, "Format kode saham tidak valid. Silakan masukkan kode saham dan exchange (contoh: IDX:ANTM, NASDAQ:TSLA).")
		return errSend
	}

	t.ResetUserState(userID)

	req := dto.NewRequestWatchData(c.Sender(), stockCode, exchange)

	if state == StateWaitingWatchSymbol {
		return t.addToWatchlist(ctx, c, req)
	}
	return t.removeFromWatchlist(ctx, c, req)
}

func (t *TelegramBotHandler) addToWatchlist(ctx context.Context, c telebot.Context, req *dto.RequestWatchData) error {
	if err := t.service.TelegramBotService.Watch(ctx, req); err != nil {
		t.log.ErrorContext(ctx, "Failed to add watchlist entry", logger.ErrorField(err))
		_, errSend := t.telegram.Send(ctx, c, commonErrorInternal)
		if errSend != nil {
			t.log.ErrorContext(ctx, "Failed to send internal error message", logger.ErrorField(errSend))
		}
		return err
	}

	msg := fmt.Sprintf(`✅ <b>%s:%s</b> masuk watchlist!

Kamu akan menerima alert di chat ini setiap kali saham tersebut menyelesaikan pola bottoming.

Lihat daftar lengkap dengan /watchlist.`, req.Exchange, req.StockCode)
	_, err := t.telegram.Send(ctx, c, msg, telebot.ModeHTML)
	return err
}

func (t *TelegramBotHandler) removeFromWatchlist(ctx context.Context, c telebot.Context, req *dto.RequestWatchData) error {
	if err := t.service.TelegramBotService.Unwatch(ctx, req); err != nil {
		t.log.ErrorContext(ctx, "Failed to remove watchlist entry", logger.ErrorField(err))
		_, errSend := t.telegram.Send(ctx, c, fmt.Sprintf("❌ Gagal menghapus dari watchlist: %s", err.Error()))
		if errSend != nil {
			t.log.ErrorContext(ctx, "Failed to send error message", logger.ErrorField(errSend))
		}
		return err
	}

	msg := fmt.Sprintf("🙈 <b>%s:%s</b> dihapus dari watchlist. Kamu tidak akan menerima alert untuk saham ini lagi.", req.Exchange, req.StockCode)
	_, err := t.telegram.Send(ctx, c, msg, telebot.ModeHTML)
	return err
}

func (t *TelegramBotHandler) handleWatchlist(ctx context.Context, c telebot.Context) error {
	watchlists, err := t.service.TelegramBotService.GetWatchlist(ctx, c.Sender().ID)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to get watchlist", logger.ErrorField(err))
		_, errSend := t.telegram.Send(ctx, c, commonErrorInternal)
		if errSend != nil {
			t.log.ErrorContext(ctx, "Failed to send internal error message", logger.ErrorField(errSend))
		}
		return err
	}

	if len(watchlists) == 0 {
		msgNotExist := `📭 *Watchlist Kamu Masih Kosong*

Belum ada saham yang kamu pantau.

📌 Begini cara kerjanya:

1️⃣ Gunakan perintah */watch* lalu masukkan kode saham (contoh: IDX:ANTM).

2️⃣ Setiap kali screening harian menemukan pola bottoming lengkap pada saham itu, kamu langsung menerima alert BUY di chat ini.

3️⃣ Hapus saham dari pantauan kapan saja dengan */unwatch*.`

		_, errSend := t.telegram.Send(ctx, c, msgNotExist, telebot.ModeMarkdown)
		if errSend != nil {
			t.log.ErrorContext(ctx, "Failed to send empty watchlist message", logger.ErrorField(errSend))
		}
		return errSend
	}

	sb := strings.Builder{}
	sb.WriteString("📋 <b>Watchlist Kamu</b>\n")
	sb.WriteString("Saham di bawah ini dipantau oleh screening harian. Tekan tombol untuk screening ulang sekarang.\n\n")

	var symbols []string
	for _, entry := range watchlists {
		symbolWithExchange := fmt.Sprintf("%s:%s", entry.Exchange, entry.StockCode)
		symbols = append(symbols, symbolWithExchange)
		sb.WriteString(fmt.Sprintf("• <b>%s</b> (sejak %s)\n", symbolWithExchange, utils.PrettyDate(utils.TimeToWIB(entry.CreatedAt))))
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
		t.log.ErrorContext(ctx, "Failed to send watchlist message", logger.ErrorField(errSend))
	}
	return errSend
}
