package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"abyss-screener/config"
	"abyss-screener/internal/contract"
	"abyss-screener/internal/dto"
	"abyss-screener/internal/model"
	"abyss-screener/internal/repository"
	"abyss-screener/internal/screener"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/telegram"
	"abyss-screener/pkg/utils"

	"gopkg.in/telebot.v3"
)

type SendSignalService interface {
	contract.SignalContract
}

type sendSignalService struct {
	cfg                 *config.Config
	log                 *logger.Logger
	telegram            *telegram.TelegramRateLimiter
	watchlistRepository repository.WatchlistRepository
}

func NewSendSignalService(
	cfg *config.Config,
	log *logger.Logger,
	telegram *telegram.TelegramRateLimiter,
	watchlistRepository repository.WatchlistRepository,
) SendSignalService {
	return &sendSignalService{
		cfg:                 cfg,
		log:                 log,
		telegram:            telegram,
		watchlistRepository: watchlistRepository,
	}
}

func (s *sendSignalService) SendBuySignal(ctx context.Context, signal *model.StockSignal) (bool, error) {
	if signal == nil {
		s.log.Warn("No stock signal to send")
		return false, nil
	}

	watchers, err := s.watchlistRepository.Get(ctx, &model.GetWatchlistParam{
		StockCode: utils.ToPointer(signal.StockCode),
		Exchange:  utils.ToPointer(signal.Exchange),
		IsActive:  utils.ToPointer(true),
	})
	if err != nil {
		s.log.Error("Failed to get watchlist recipients", logger.ErrorField(err))
		return false, err
	}

	chatIDs := map[int64]struct{}{}
	for _, watcher := range watchers {
		chatIDs[watcher.ChatID] = struct{}{}
	}

	// The broadcast channel receives every buy signal regardless of watchlists.
	if broadcastID, errParse := strconv.ParseInt(s.cfg.Telegram.ChatID, 10, 64); errParse == nil && broadcastID != 0 {
		chatIDs[broadcastID] = struct{}{}
	}

	if len(chatIDs) == 0 {
		s.log.Debug("No recipient for buy signal",
			logger.StringField("stock_code", signal.StockCode),
			logger.StringField("exchange", signal.Exchange),
		)
		return false, nil
	}

	sb := strings.Builder{}

	sb.WriteString(fmt.Sprintf("<b>🟢 Signal BUY - %s:%s</b>\n", signal.Exchange, signal.StockCode))
	sb.WriteString(fmt.Sprintf("<i>📅 Update: %s</i>\n", utils.PrettyDate(utils.TimeNowWIB())))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("💰 <b>Harga</b>: %s\n", utils.FormatPrice(signal.MarketPrice, signal.Exchange)))
	sb.WriteString(fmt.Sprintf("🗓️ <b>Candle</b>: %s\n", utils.PrettyDate(signal.Timestamp)))

	var stages []screener.StageResult
	if len(signal.Stages) > 0 {
		if errStages := json.Unmarshal(signal.Stages, &stages); errStages != nil {
			s.log.ErrorContext(ctx, "Failed to decode signal stages", logger.ErrorField(errStages))
		}
	}

	if len(stages) > 0 {
		sb.WriteString("\n")
		sb.WriteString("<b>📶 Tahapan Pola</b>\n")
		for _, stage := range stages {
			icon := "✅"
			if !stage.Passed {
				icon = "❌"
			}
			sb.WriteString(fmt.Sprintf("%s <b>%s</b> - %s\n", icon, dto.StageText(stage.Stage), stage.Reason))
		}
	}

	sb.WriteString("\n")
	sb.WriteString("👉 <i>Klik tombol di bawah ini untuk melihat narasi AI</i>")

	menu := &telebot.ReplyMarkup{}
	btnNarrate := menu.Data("🤖 Narasi AI", "btn_signal_narrative", fmt.Sprintf("%s:%s", signal.Exchange, signal.StockCode))
	btnDeleteMessage := menu.Data("🗑️ Hapus Pesan", "btn_delete_message")
	menu.Inline(menu.Row(btnNarrate, btnDeleteMessage))

	for chatID := range chatIDs {
		errSend := s.telegram.SendMessageUser(ctx, sb.String(), chatID, menu, telebot.ModeHTML)
		if errSend != nil {
			s.log.ErrorContextWithAlert(ctx, "Failed to send buy signal", logger.ErrorField(errSend))
		}
	}
	return true, nil
}
