package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BacktestRun is one historical replay over a universe. The aggregate
// columns mirror the run summary so listings never have to refold the
// outcome rows.
type BacktestRun struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Generator      string         `gorm:"type:varchar(50);not null"`
	Exchange       string         `gorm:"type:varchar(20);not null"`
	DataRange      string         `gorm:"type:varchar(10);not null"`
	Thresholds     datatypes.JSON `gorm:"type:jsonb"`
	Status         string         `gorm:"type:varchar(20);not null"`
	Symbols        int            `gorm:"not null;default:0"`
	Signals        int            `gorm:"not null;default:0"`
	Evaluated      int            `gorm:"not null;default:0"`
	Wins           int            `gorm:"not null;default:0"`
	WinRate        float64        `gorm:"not null;default:0"`
	AvgMaxGain     float64        `gorm:"not null;default:0"`
	AvgMaxDrawdown float64        `gorm:"not null;default:0"`
	AvgDaysToPeak  float64        `gorm:"not null;default:0"`
	ReportPath     sql.NullString `gorm:"type:text"`
	ErrorMessage   sql.NullString `gorm:"type:text"`
	StartedAt      time.Time      `gorm:"not null"`
	FinishedAt     sql.NullTime
	CreatedAt      time.Time `gorm:"autoCreateTime"`

	Outcomes []TradeOutcome `gorm:"foreignKey:BacktestRunID"`
}

func (BacktestRun) TableName() string {
	return "backtest_runs"
}

type GetBacktestRunsParam struct {
	IDs      []uuid.UUID
	Statuses []string
	Limit    *int
}
