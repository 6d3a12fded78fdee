package models

import (
	"time"
)

// PriceBar 历史价格K线，按 (instrument_id, timestamp, interval) 唯一
type PriceBar struct {
	ID           string    `gorm:"primaryKey;size:26" json:"id"`
	InstrumentID string    `gorm:"size:26;not null;uniqueIndex:uix_price_bar" json:"instrument_id"`
	Timestamp    time.Time `gorm:"not null;uniqueIndex:uix_price_bar;index" json:"timestamp"`
	Interval     string    `gorm:"size:8;not null;uniqueIndex:uix_price_bar" json:"interval"` // 1m/5m/15m/30m/1h/1d
	Open         float64   `gorm:"type:decimal(20,8)" json:"open"`
	High         float64   `gorm:"type:decimal(20,8)" json:"high"`
	Low          float64   `gorm:"type:decimal(20,8)" json:"low"`
	Close        float64   `gorm:"type:decimal(20,8)" json:"close"`
	Volume       float64   `gorm:"type:decimal(28,8)" json:"volume"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (PriceBar) TableName() string {
	return "price_bars"
}
