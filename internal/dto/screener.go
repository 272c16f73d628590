package dto

import (
	"time"

	"abyss-screener/internal/screener"
)

// ScreenRequest asks for a one-off screening pass. An empty StockCodes slice
// screens the configured default universe. Thresholds overrides any subset of
// the pipeline tunables for this request only.
type ScreenRequest struct {
	StockCodes []string         `json:"stock_codes"`
	Exchange   string           `json:"exchange"`
	Thresholds *screener.Config `json:"thresholds"`
	Notify     bool             `json:"notify"`
}

// ScreenStockResult is the pipeline verdict for one symbol. Stages carries
// the per-gate audit trail so a reader can see exactly where a candidate
// dropped out.
type ScreenStockResult struct {
	StockCode string                 `json:"stock_code"`
	Exchange  string                 `json:"exchange"`
	State     screener.SignalState   `json:"state"`
	Close     float64                `json:"close"`
	Timestamp int64                  `json:"timestamp"`
	Stages    []screener.StageResult `json:"stages"`
	Error     string                 `json:"error,omitempty"`
}

func (r *ScreenStockResult) IsBuy() bool {
	return r.State == screener.StateBuy
}

// ScreenSummary aggregates one screening pass over a universe.
type ScreenSummary struct {
	Total     int                 `json:"total"`
	Signals   int                 `json:"signals"`
	Skipped   int                 `json:"skipped"`
	Failed    int                 `json:"failed"`
	StartedAt time.Time           `json:"started_at"`
	Duration  time.Duration       `json:"duration"`
	Results   []ScreenStockResult `json:"results"`
}
