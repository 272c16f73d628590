package telegram

import (
	"fmt"
	"strings"
	"time"

	"abyss-screener/pkg/utils"
)

// AlertType represents the type of alert
type AlertType string

const (
	BuySignal     AlertType = "BUY_SIGNAL"
	WatchlistOnly AlertType = "WATCHLIST"
)

// FormatSignalAlertForTelegram formats a detected signal into a Markdown string for Telegram.
func FormatSignalAlertForTelegram(alertType AlertType, symbol string, closePrice float64, stage string, timestamp int64) string {
	var builder strings.Builder

	var title, emoji string
	switch alertType {
	case BuySignal:
		title = "Buy Signal Detected!"
		emoji = "🚀"
	case WatchlistOnly:
		title = "Bottoming Watch"
		emoji = "👀"
	default:
		title = "Screener Alert"
		emoji = "🔔"
	}

	builder.WriteString(fmt.Sprintf("%s [%s] %s\n", emoji, symbol, title))
	builder.WriteString(fmt.Sprintf("💰Close: %.2f | Stage: %s\n", closePrice, stage))
	builder.WriteString(fmt.Sprintf("%s\n", utils.PrettyDate(time.Unix(timestamp, 0))))
	return builder.String()
}

func FormatErrorAlertMessage(time time.Time, errType string, errMsg string, data string) string {
	return fmt.Sprintf(`📛 [ERROR ALERT]
%s
🔧 %s
⚠️ %s

📄 Data: %s
`, utils.PrettyDate(time), errType, errMsg, data)
}
