package common

const (
	KEY_SIGNAL_SENT      = "signal_sent:%s"
	KEY_LAST_SCREEN      = "last_screen:%s"
	KEY_CANDLE_SNAPSHOT  = "candle_snapshot:%s:%s"
	KEY_BACKTEST_RUNNING = "backtest_running:%s"
)

const (
	EXCHANGE_IDX    = "IDX"
	EXCHANGE_NASDAQ = "NASDAQ"
	EXCHANGE_NYSE   = "NYSE"
)

func GetExchangeList() []string {
	return []string{
		EXCHANGE_IDX,
		EXCHANGE_NASDAQ,
		EXCHANGE_NYSE,
	}
}

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
)
