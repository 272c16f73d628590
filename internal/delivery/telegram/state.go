package telegram

const (
	UserStateKey = "user_state:%d"
	UserDataKey  = "user_data:%d"
)

const (
	StateIdle = 0

	// /screen states
	StateWaitingScreenSymbol = 1

	// watchlist states
	StateWaitingWatchSymbol   = 10
	StateWaitingUnwatchSymbol = 11
)
