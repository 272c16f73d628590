package model

import (
	"time"

	"gorm.io/datatypes"
)

// StockSignal is one persisted screening verdict. Stages holds the per-gate
// audit trail as emitted by the pipeline, OHLCV a short snapshot of the bars
// around the signal for display and narration.
type StockSignal struct {
	ID                uint           `gorm:"primarykey"`
	SignalNarrativeID *uint          `gorm:"null"`
	HashIdentifier    string         `gorm:"not null"`
	StockCode         string         `gorm:"not null"`
	Exchange          string         `gorm:"not null"`
	State             string         `gorm:"not null"`
	Timestamp         time.Time      `gorm:"not null"`
	MarketPrice       float64        `gorm:"not null"`
	Stages            datatypes.JSON `gorm:"type:jsonb"`
	OHLCV             datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	SignalNarrative *SignalNarrative `gorm:"foreignKey:SignalNarrativeID"`
}

func (StockSignal) TableName() string {
	return "stock_signals"
}

type GetLatestSignalParam struct {
	StockCode      string
	Exchange       string
	TimestampAfter time.Time
}

type GetStockSignalsParam struct {
	StockCodes []string
	Exchange   string
	States     []string
	After      *time.Time
	Limit      *int
}

type UpdateStockSignalFilterParam struct {
	SignalNarrativeID *uint
	HashIdentifier    *string
	StockCode         *string
}

type UpdateStockSignalValueParam struct {
	HashIdentifier    *string
	SignalNarrativeID *uint
}

type UpdateStockSignalParam struct {
	Filter UpdateStockSignalFilterParam
	Value  UpdateStockSignalValueParam
}
