package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"abyss-screener/config"
	"abyss-screener/pkg/common"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AlertCore relays flagged error entries to Telegram on top of the wrapped core.
type AlertCore struct {
	cfg      *config.Config
	core     zapcore.Core
	minLevel zapcore.Level
}

// NewAlertCore wraps core so entries carrying the alert field are forwarded
// to the configured Telegram chat.
func NewAlertCore(cfg *config.Config, core zapcore.Core) zapcore.Core {
	return &AlertCore{
		cfg:      cfg,
		core:     core,
		minLevel: zapcore.ErrorLevel,
	}
}

// WithTelegramAlerts returns a logger whose flagged error entries are relayed
// to Telegram. Entries are flagged via ErrorContextWithAlert.
func (l *Logger) WithTelegramAlerts(cfg *config.Config) *Logger {
	wrapped := l.Logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return NewAlertCore(cfg, core)
	}))
	return &Logger{wrapped}
}

func (a *AlertCore) Enabled(lvl zapcore.Level) bool {
	return a.core.Enabled(lvl)
}

func (a *AlertCore) With(fields []zapcore.Field) zapcore.Core {
	return &AlertCore{
		cfg:      a.cfg,
		core:     a.core.With(fields),
		minLevel: a.minLevel,
	}
}

func (a *AlertCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if a.Enabled(entry.Level) {
		return a.core.Check(entry, checkedEntry).AddCore(entry, a)
	}
	return checkedEntry
}

func (a *AlertCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	shouldSend := false
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT && f.Type == zapcore.BoolType && f.Integer == 1 {
			shouldSend = true
			break
		}
	}
	if entry.Level >= a.minLevel && shouldSend {
		go a.sendTelegramAlert(entry, fields) // async so logging never blocks
	}
	return a.core.Write(entry, fields)
}

func (a *AlertCore) Sync() error {
	return a.core.Sync()
}

func (a *AlertCore) sendTelegramAlert(entry zapcore.Entry, fields []zapcore.Field) {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}

	var sb strings.Builder
	for k, v := range enc.Fields {
		if k == common.KEY_LOG_HOOK_SEND_ALERT {
			continue
		}
		sb.WriteString(fmt.Sprintf("• %s: %v\n", k, v))
	}

	message := fmt.Sprintf(
		"🚨 *%s Alert*\n\n*Message:* %s\n\n*Fields:*\n%s\n*Time:* %s",
		entry.Level.CapitalString(),
		entry.Message,
		sb.String(),
		entry.Time.Format("2006-01-02 15:04:05"),
	)

	token := a.cfg.Telegram.BotToken
	chatID := a.cfg.Telegram.ChatID
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", token)

	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       message,
		"parse_mode": "Markdown",
	}

	jsonBody, _ := json.Marshal(payload)
	http.Post(url, "application/json", bytes.NewBuffer(jsonBody))
}
