package model

import (
	"time"

	"abyss-screener/internal/screener"

	"github.com/google/uuid"
)

// TradeOutcome is one simulated forward outcome inside a backtest run.
// Evaluable false rows are signals too close to the end of the data, they
// stay stored for completeness but carry no excursion numbers.
type TradeOutcome struct {
	ID            uint      `gorm:"primarykey"`
	BacktestRunID uuid.UUID `gorm:"type:uuid;not null;index"`
	StockCode     string    `gorm:"not null"`
	Exchange      string    `gorm:"not null"`
	State         string    `gorm:"type:varchar(10);not null"`
	SignalDate    time.Time `gorm:"not null"`
	EntryDate     time.Time `gorm:"not null"`
	EntryPrice    float64   `gorm:"not null"`
	EntryMethod   string    `gorm:"type:varchar(20);not null"`
	Evaluable     bool      `gorm:"not null;default:false"`
	PeakPrice     float64   `gorm:"not null;default:0"`
	TroughPrice   float64   `gorm:"not null;default:0"`
	MaxGain       float64   `gorm:"not null;default:0"`
	MaxDrawdown   float64   `gorm:"not null;default:0"`
	DaysToPeak    int       `gorm:"not null;default:0"`
	DaysToTrough  int       `gorm:"not null;default:0"`
	IsSuccess     bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (TradeOutcome) TableName() string {
	return "trade_outcomes"
}

// ToOutcome rebuilds the in-memory outcome for re-aggregation.
func (t *TradeOutcome) ToOutcome() screener.Outcome {
	return screener.Outcome{
		State:        screener.SignalState(t.State),
		EntryPrice:   t.EntryPrice,
		EntryMethod:  screener.EntryMethod(t.EntryMethod),
		Evaluable:    t.Evaluable,
		PeakPrice:    t.PeakPrice,
		TroughPrice:  t.TroughPrice,
		MaxGain:      t.MaxGain,
		MaxDrawdown:  t.MaxDrawdown,
		DaysToPeak:   t.DaysToPeak,
		DaysToTrough: t.DaysToTrough,
		IsSuccess:    t.IsSuccess,
	}
}

type GetTradeOutcomesParam struct {
	BacktestRunID *uuid.UUID
	StockCode     string
	States        []string
	OnlyEvaluable *bool
	Limit         *int
}
