package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderSide 订单方向
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"  // 买入
	OrderSideSell OrderSide = "sell" // 卖出
)

// OrderType 订单类型
type OrderType string

const (
	OrderTypeMarket OrderType = "market" // 市价单，自动成交唯一类型
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusFilled OrderStatus = "filled" // 已成交，模拟撮合不存在部分成交和拒单
)

// TradeOrder 成交记录，仅追加，核心流程不会修改或删除
type TradeOrder struct {
	ID               string         `gorm:"primaryKey;size:26" json:"id"`
	AccountID        string         `gorm:"size:26;not null;index" json:"account_id"`
	TaskID           string         `gorm:"size:26;index" json:"task_id"` // 为空表示手动下单
	Symbol           string         `gorm:"size:32;not null;index" json:"symbol"`
	OrderType        OrderType      `gorm:"type:varchar(16);not null" json:"order_type"`
	Side             OrderSide      `gorm:"type:varchar(8);not null" json:"side"`
	Quantity         float64        `gorm:"type:decimal(20,8);not null" json:"quantity"`        // 请求数量
	Price            float64        `gorm:"type:decimal(20,8);not null" json:"price"`           // 成交价格
	Status           OrderStatus    `gorm:"type:varchar(16);not null" json:"status"`
	FilledQuantity   float64        `gorm:"type:decimal(20,8);not null" json:"filled_quantity"` // 成交数量
	AverageFillPrice float64        `gorm:"type:decimal(20,8)" json:"average_fill_price"`       // 成交均价
	Commission       float64        `gorm:"type:decimal(20,8);not null" json:"commission"`      // 手续费
	SignalAt         time.Time      `gorm:"index" json:"signal_at"`                             // 触发信号所在K线时间，用于幂等去重
	OrderTime        time.Time      `gorm:"not null" json:"order_time"`
	FillTime         time.Time      `json:"fill_time"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (TradeOrder) TableName() string {
	return "trade_orders"
}

// Notional 成交金额（不含手续费）
func (o *TradeOrder) Notional() float64 {
	return o.FilledQuantity * o.AverageFillPrice
}
