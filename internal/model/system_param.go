package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// SysParamScreenerThresholds overrides any subset of the pipeline
	// tunables without a redeploy. Stored as a screener.Config JSON object.
	SysParamScreenerThresholds = "SCREENER_THRESHOLDS"

	// SysParamDefaultUniverse is the symbol list screened when a request
	// names none. Stored as a JSON array of "EXCHANGE:CODE" strings.
	SysParamDefaultUniverse = "DEFAULT_UNIVERSE"
)

type SystemParameter struct {
	Name        string         `gorm:"column:name;type:varchar(100);primaryKey" json:"name"`
	Value       datatypes.JSON `gorm:"column:value;type:jsonb" json:"value"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

func (SystemParameter) TableName() string {
	return "system_parameters"
}
