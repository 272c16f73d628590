package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"abyss-screener/internal/dto"
	"abyss-screener/internal/model"
	"abyss-screener/internal/strategy"
	"abyss-screener/pkg/logger"
	"abyss-screener/pkg/utils"

	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) handleBacktest(ctx context.Context, c telebot.Context) error {
	runs, err := t.service.BacktestService.GetRuns(ctx, 5)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to get backtest runs", logger.ErrorField(err))
		_, errSend := t.telegram.Send(ctx, c, commonErrorInternal)
		if errSend != nil {
			t.log.ErrorContext(ctx, "Failed to send internal error message", logger.ErrorField(errSend))
		}
		return err
	}

	sb := strings.Builder{}
	sb.WriteString("📊 <b>Backtest Strategi</b>\n")
	sb.WriteString("Replay sinyal terhadap data historis untuk menilai seberapa sering pola berlanjut naik.\n")

	if len(runs) == 0 {
		sb.WriteString("\nBelum ada run yang tersimpan. Jalankan backtest pertama lewat tombol di bawah 👇\n")
	} else {
		sb.WriteString("\n🗂 Run terakhir:\n")
		for _, run := range runs {
			icon := backtestStatusIcon(run.Status)
			sb.WriteString(fmt.Sprintf("\n<b>───── %s | %s ─────</b>\n", run.Generator, run.DataRange))
			sb.WriteString(fmt.Sprintf("%s %s | %s\n", icon, strings.ToUpper(run.Status), utils.PrettyDate(utils.TimeToWIB(run.StartedAt))))
			if run.Evaluated > 0 {
				sb.WriteString(fmt.Sprintf("🧪 Simbol: %d | Sinyal: %d | Win Rate: %.1f%%\n", run.Symbols, run.Signals, run.WinRate*100))
				sb.WriteString(fmt.Sprintf("📈 Avg Gain: %s | Avg DD: %s\n", utils.FormatPercentage(run.AvgMaxGain*100), utils.FormatPercentage(run.AvgMaxDrawdown*100)))
			}
		}
		sb.WriteString("\n<i>👉 Pilih run untuk lihat detail, atau jalankan run baru</i>\n")
	}

	menu := &telebot.ReplyMarkup{}
	rows := []telebot.Row{}
	var tempRow []telebot.Btn

	for _, run := range runs {
		label := fmt.Sprintf("%s %s", run.Generator, utils.TimeToWIB(run.StartedAt).Format("01/02 15:04"))
		tempRow = append(tempRow, menu.Data(label, btnBacktestReport.Unique, run.ID.String()))
		if len(tempRow) == 2 {
			rows = append(rows, menu.Row(tempRow...))
			tempRow = []telebot.Btn{}
		}
	}
	if len(tempRow) > 0 {
		rows = append(rows, menu.Row(tempRow...))
	}

	rows = append(rows, menu.Row(
		menu.Data("▶️ Run Abyss", btnRunBacktest.Unique, dto.GeneratorAbyss),
		menu.Data("▶️ Run Breakout", btnRunBacktest.Unique, dto.GeneratorBreakout),
	))
	rows = append(rows, menu.Row(btnDeleteMessage))
	menu.Inline(rows...)

	msgExist := c.Message()
	if msgExist != nil && msgExist.Sender.ID == t.bot.Me.ID {
		_, err = t.telegram.Edit(ctx, c, msgExist, sb.String(), menu, telebot.ModeHTML)
		return err
	}

	_, err = t.telegram.Send(ctx, c, sb.String(), menu, telebot.ModeHTML)
	return err
}

func (t *TelegramBotHandler) handleBtnRunBacktest(ctx context.Context, c telebot.Context) error {
	generator := c.Data()

	stopChan := make(chan struct{})
	msg := t.showLoadingGeneral(ctx, c, stopChan)

	utils.GoSafe(func() {
		newCtx, cancel := context.WithTimeout(t.ctx, t.cfg.Backtest.Timeout)
		defer cancel()

		report, err := t.service.BacktestService.RunBacktest(newCtx, dto.BacktestRequest{Generator: generator})
		close(stopChan)
		if err != nil {
			if errors.Is(err, strategy.ErrBacktestAlreadyRunning) {
				_, errSend := t.telegram.Edit(newCtx, c, msg, fmt.Sprintf("⏳ Backtest %s masih berjalan, tunggu sampai selesai dulu ya.", generator))
				if errSend != nil {
					t.log.ErrorContext(newCtx, "Failed to send busy message", logger.ErrorField(errSend))
				}
				return
			}

			t.log.ErrorContext(newCtx, "Failed to run backtest", logger.ErrorField(err))
			_, errSend := t.telegram.Edit(newCtx, c, msg, fmt.Sprintf("❌ Gagal menjalankan backtest: %s", err.Error()))
			if errSend != nil {
				t.log.ErrorContext(newCtx, "Failed to send error message", logger.ErrorField(errSend))
			}
			return
		}

		if err := t.showBacktestReport(newCtx, c, msg, report); err != nil {
			t.log.ErrorContext(newCtx, "Failed to show backtest report", logger.ErrorField(err))
		}
	})

	return nil
}

func (t *TelegramBotHandler) showBacktestReport(ctx context.Context, c telebot.Context, msg *telebot.Message, report *dto.BacktestReport) error {
	duration := report.FinishedAt.Sub(report.StartedAt)

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("📊 <b>Hasil Backtest - %s</b>\n", report.Generator))
	sb.WriteString(fmt.Sprintf("<i>📅 Range %s | %d simbol | %.1fs</i>\n", report.Range, report.Symbols, duration.Seconds()))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("🧪 <b>Sinyal</b>: %d | <b>Dievaluasi</b>: %d\n", report.Summary.Signals, report.Summary.Evaluated))
	sb.WriteString(fmt.Sprintf("🏆 <b>Win Rate</b>: %.1f%% (%d/%d)\n", report.Summary.WinRate*100, report.Summary.Wins, report.Summary.Evaluated))
	sb.WriteString(fmt.Sprintf("📈 <b>Avg Max Gain</b>: %s\n", utils.FormatPercentage(report.Summary.AvgMaxGain*100)))
	sb.WriteString(fmt.Sprintf("📉 <b>Avg Max Drawdown</b>: %s\n", utils.FormatPercentage(report.Summary.AvgMaxDrawdown*100)))
	sb.WriteString(fmt.Sprintf("⏱️ <b>Avg Hari ke Puncak</b>: %.1f\n", report.Summary.AvgDaysToPeak))

	if len(report.Summary.ByState) > 1 {
		sb.WriteString("\n<b>📶 Per State:</b>\n")
		for state, stateSummary := range report.Summary.ByState {
			if stateSummary.Evaluated == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("• %s: %d sinyal | WR %.1f%% | Gain %s\n",
				state, stateSummary.Signals, stateSummary.WinRate*100, utils.FormatPercentage(stateSummary.AvgMaxGain*100)))
		}
	}

	if report.ReportPath != "" {
		sb.WriteString(fmt.Sprintf("\n📄 Chart: <code>%s</code>\n", report.ReportPath))
	}

	menu := &telebot.ReplyMarkup{}
	menu.Inline(menu.Row(btnDeleteMessage))

	_, err := t.telegram.Edit(ctx, c, msg, sb.String(), menu, telebot.ModeHTML)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to edit backtest report message", logger.ErrorField(err))
	}
	return err
}

func (t *TelegramBotHandler) handleBtnBacktestReport(ctx context.Context, c telebot.Context) error {
	runID := c.Data()

	run, outcomes, err := t.service.BacktestService.GetRunReport(ctx, runID)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to get backtest run report", logger.ErrorField(err))
		_, errSend := t.telegram.Send(ctx, c, commonErrorInternal)
		if errSend != nil {
			t.log.ErrorContext(ctx, "Failed to send internal error message", logger.ErrorField(errSend))
		}
		return err
	}

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("📊 <b>Backtest %s | %s</b>\n", run.Generator, run.DataRange))
	sb.WriteString(fmt.Sprintf("%s %s | %s\n", backtestStatusIcon(run.Status), strings.ToUpper(run.Status), utils.PrettyDate(utils.TimeToWIB(run.StartedAt))))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("🧪 <b>Simbol</b>: %d | <b>Sinyal</b>: %d | <b>Dievaluasi</b>: %d\n", run.Symbols, run.Signals, run.Evaluated))
	sb.WriteString(fmt.Sprintf("🏆 <b>Win Rate</b>: %.1f%% (%d/%d)\n", run.WinRate*100, run.Wins, run.Evaluated))
	sb.WriteString(fmt.Sprintf("📈 <b>Avg Max Gain</b>: %s\n", utils.FormatPercentage(run.AvgMaxGain*100)))
	sb.WriteString(fmt.Sprintf("📉 <b>Avg Max Drawdown</b>: %s\n", utils.FormatPercentage(run.AvgMaxDrawdown*100)))
	sb.WriteString(fmt.Sprintf("⏱️ <b>Avg Hari ke Puncak</b>: %.1f\n", run.AvgDaysToPeak))

	if run.ErrorMessage.Valid && run.ErrorMessage.String != "" {
		sb.WriteString(fmt.Sprintf("\n❌ <b>Error</b>: %s\n", run.ErrorMessage.String))
	}

	if best := bestOutcomes(outcomes, 5); len(best) > 0 {
		sb.WriteString("\n<b>🏅 Outcome Terbaik:</b>\n")
		for _, outcome := range best {
			sb.WriteString(fmt.Sprintf("• %s:%s | Gain %s | %d hari\n",
				outcome.Exchange, outcome.StockCode, utils.FormatPercentage(outcome.MaxGain*100), outcome.DaysToPeak))
		}
	}

	if run.ReportPath.Valid && run.ReportPath.String != "" {
		sb.WriteString(fmt.Sprintf("\n📄 Chart: <code>%s</code>\n", run.ReportPath.String))
	}

	menu := &telebot.ReplyMarkup{}
	menu.Inline(menu.Row(btnDeleteMessage))

	_, err = t.telegram.Edit(ctx, c, c.Message(), sb.String(), menu, telebot.ModeHTML)
	return err
}

func backtestStatusIcon(status string) string {
	switch status {
	case dto.BacktestStatusRunning:
		return "🟡"
	case dto.BacktestStatusCompleted:
		return "🟢"
	case dto.BacktestStatusFailed:
		return "🔴"
	default:
		return "⚪"
	}
}

// bestOutcomes returns up to n evaluable outcomes sorted by max gain.
func bestOutcomes(outcomes []model.TradeOutcome, n int) []model.TradeOutcome {
	evaluable := make([]model.TradeOutcome, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Evaluable {
			evaluable = append(evaluable, outcome)
		}
	}

	sort.Slice(evaluable, func(i, j int) bool {
		return evaluable[i].MaxGain > evaluable[j].MaxGain
	})

	if len(evaluable) > n {
		evaluable = evaluable[:n]
	}
	return evaluable
}
