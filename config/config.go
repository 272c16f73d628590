package config

import (
	"fmt"
	"strings"
	"time"

	"abyss-screener/internal/screener"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log          Logger          `mapstructure:"logger"`
	DB           Database        `mapstructure:"database"`
	API          API             `mapstructure:"api"`
	Scheduler    Scheduler       `mapstructure:"scheduler"`
	Screener     screener.Config `mapstructure:"screener"`
	Screening    Screening       `mapstructure:"screening"`
	Backtest     Backtest        `mapstructure:"backtest"`
	TradingView  TradingView     `mapstructure:"tradingview"`
	YahooFinance YahooFinance    `mapstructure:"yahoo_finance"`
	Gemini       Gemini          `mapstructure:"gemini"`
	Cache        Cache           `mapstructure:"cache"`
	Telegram     TelegramConfig  `mapstructure:"telegram"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type Scheduler struct {
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	TimeoutDuration time.Duration `mapstructure:"timeout_duration"`
}

type API struct {
	Port int `mapstructure:"port"`
}

// Screening bounds the live screener fan-out, one goroutine per symbol up to
// MaxConcurrency, the whole batch cancelled after Timeout.
type Screening struct {
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// Backtest bounds the historical replay fan-out. DataRange is the lookback
// requested from the candle provider when a run does not specify its own.
type Backtest struct {
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	Timeout        time.Duration `mapstructure:"timeout"`
	DataRange      string        `mapstructure:"data_range"`
	ReportDir      string        `mapstructure:"report_dir"`
}

type TradingView struct {
	BaseURLScanner    string        `mapstructure:"base_url_scanner"`
	BaseTimeout       time.Duration `mapstructure:"base_timeout"`
	MaxRequestPerMin  int           `mapstructure:"max_request_per_min"`
	MaxUniverseStocks int           `mapstructure:"max_universe_stocks"`
}

type YahooFinance struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
}

type Gemini struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseModel           string        `mapstructure:"base_model"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int           `mapstructure:"max_token_per_minute"`
}

type Cache struct {
	DefaultExpiration        time.Duration `mapstructure:"default_expiration"`
	CleanupInterval          time.Duration `mapstructure:"cleanup_interval"`
	SysParamExpDuration      time.Duration `mapstructure:"sys_param_exp_duration"`
	TelegramStateExpDuration time.Duration `mapstructure:"telegram_state_exp_duration"`
}

type TelegramConfig struct {
	BotToken                  string        `mapstructure:"bot_token"`
	ChatID                    string        `mapstructure:"chat_id"`
	WebhookURL                string        `mapstructure:"webhook_url"`
	TimeoutDuration           time.Duration `mapstructure:"timeout_duration"`
	TimeoutAsyncDuration      time.Duration `mapstructure:"timeout_async_duration"`
	MaxGlobalRequestPerSecond int           `mapstructure:"max_global_request_per_second"`
	MaxUserRequestPerSecond   int           `mapstructure:"max_user_request_per_second"`
	MaxEditMessagePerSecond   int           `mapstructure:"max_edit_message_per_second"`
	RatelimitExpireDuration   time.Duration `mapstructure:"ratelimit_expire_duration"`
	RateLimitCleanupDuration  time.Duration `mapstructure:"rate_limit_cleanup_duration"`
	MaxShowSignalHistory      int           `mapstructure:"max_show_signal_history"`
	SignalFreshnessDuration   time.Duration `mapstructure:"signal_freshness_duration"`
}

func Load() (*Config, error) {
	// .env is optional, deployments usually inject environment variables directly.
	_ = godotenv.Load()

	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
