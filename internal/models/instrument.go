package models

import (
	"time"

	"gorm.io/gorm"
)

// Instrument 标的基础信息和最新价格
type Instrument struct {
	ID         string         `gorm:"primaryKey;size:26" json:"id"`
	Symbol     string         `gorm:"size:32;not null;uniqueIndex" json:"symbol"`
	Name       string         `gorm:"size:128" json:"name"`
	Exchange   string         `gorm:"size:32" json:"exchange"`
	BaseAsset  string         `gorm:"size:16" json:"base_asset"`
	QuoteAsset string         `gorm:"size:16" json:"quote_asset"`
	LastPrice  float64        `gorm:"type:decimal(20,8)" json:"last_price"` // 最新价格，0 表示尚未获取
	LastUpdate *time.Time     `json:"last_update"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (Instrument) TableName() string {
	return "instruments"
}
