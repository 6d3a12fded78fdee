package models

import (
	"time"

	"gorm.io/gorm"
)

// TradePosition 持仓信息，按 (account_id, symbol) 唯一
// 数量为 0 表示已清仓，记录保留不删除
type TradePosition struct {
	ID            string         `gorm:"primaryKey;size:26" json:"id"`
	AccountID     string         `gorm:"size:26;not null;uniqueIndex:uix_position" json:"account_id"`
	Symbol        string         `gorm:"size:32;not null;uniqueIndex:uix_position" json:"symbol"`
	Quantity      float64        `gorm:"type:decimal(20,8);not null" json:"quantity"`       // 持仓数量，始终 >= 0
	AverageCost   float64        `gorm:"type:decimal(20,8);not null" json:"average_cost"`   // 持仓成本
	CurrentPrice  float64        `gorm:"type:decimal(20,8)" json:"current_price"`           // 最新价格
	MarketValue   float64        `gorm:"type:decimal(20,8)" json:"market_value"`            // 市值 = 数量 * 最新价格
	UnrealizedPnl float64        `gorm:"type:decimal(20,8)" json:"unrealized_pnl"`          // 未实现盈亏
	RealizedPnl   float64        `gorm:"type:decimal(20,8);default:0" json:"realized_pnl"`  // 累计已实现盈亏
	OpenDate      time.Time      `gorm:"not null" json:"open_date"`                         // 首次建仓时间
	LastUpdate    time.Time      `json:"last_update"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (TradePosition) TableName() string {
	return "trade_positions"
}

// IsFlat 是否空仓
func (p *TradePosition) IsFlat() bool {
	return p.Quantity <= 0
}

// RefreshValuation 按最新价格刷新市值和未实现盈亏
func (p *TradePosition) RefreshValuation(price float64, now time.Time) {
	p.CurrentPrice = price
	p.MarketValue = p.Quantity * price
	p.UnrealizedPnl = p.MarketValue - p.AverageCost*p.Quantity
	p.LastUpdate = now
}

// Flatten 清仓后归零市值相关字段，保留已实现盈亏
func (p *TradePosition) Flatten(now time.Time) {
	p.Quantity = 0
	p.CurrentPrice = 0
	p.MarketValue = 0
	p.UnrealizedPnl = 0
	p.LastUpdate = now
}
