package dto

import (
	"time"

	"abyss-screener/internal/screener"
)

// AINarrateSignalParam feeds one screening verdict to the narrative model.
// Stages is the full gate audit trail, the model reads the diagnostic values
// instead of recomputing anything.
type AINarrateSignalParam struct {
	StockCode   string                 `json:"stock_code"`
	Exchange    string                 `json:"exchange"`
	State       screener.SignalState   `json:"state"`
	MarketPrice float64                `json:"market_price"`
	Stages      []screener.StageResult `json:"stages"`
	OHLCV       []StockOHLCV           `json:"ohlcv"`
}

type GeminiAPIRequest struct {
	Contents []Content `json:"contents"`
}

type GeminiAPIResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is a candidate response from the Gemini API.
type Candidate struct {
	Content Content `json:"content"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

// AINarrateSignalResponse is the JSON contract the model must return.
type AINarrateSignalResponse struct {
	StockCode       string            `json:"stock_code"`
	Exchange        string            `json:"exchange"`
	Stance          string            `json:"stance"`
	Confidence      float64           `json:"confidence"`
	KeyObservations map[string]string `json:"key_observations"`
	Risks           string            `json:"risks"`
	Reason          string            `json:"reason"`
	MarketPrice     float64           `json:"market_price"`
	Timestamp       time.Time         `json:"timestamp"`
}
