package dto

import (
	"time"

	"abyss-screener/internal/screener"
)

// BacktestRequest defines the parameters for one backtest run. An empty
// StockCodes slice replays the configured default universe.
type BacktestRequest struct {
	StockCodes []string         `json:"stock_codes"`
	Exchange   string           `json:"exchange"`
	Generator  string           `json:"generator" validate:"omitempty,oneof=abyss breakout"`
	Range      string           `json:"range"`
	Thresholds *screener.Config `json:"thresholds"`
}

// SymbolBacktestResult holds the replayed signals and their simulated
// forward outcomes for a single symbol. Error is set when the symbol was
// skipped, usually because its history is too short for the windows.
type SymbolBacktestResult struct {
	StockCode string             `json:"stock_code"`
	Exchange  string             `json:"exchange"`
	Bars      int                `json:"bars"`
	Signals   []screener.Signal  `json:"signals"`
	Outcomes  []screener.Outcome `json:"outcomes"`
	Summary   screener.Summary   `json:"summary"`
	Error     string             `json:"error,omitempty"`
}

// BacktestReport is the aggregate view over a finished run.
type BacktestReport struct {
	RunID      string                 `json:"run_id"`
	Generator  string                 `json:"generator"`
	Range      string                 `json:"range"`
	Status     string                 `json:"status"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Symbols    int                    `json:"symbols"`
	Summary    screener.Summary       `json:"summary"`
	PerSymbol  []SymbolBacktestResult `json:"per_symbol"`
	ReportPath string                 `json:"report_path,omitempty"`
}
