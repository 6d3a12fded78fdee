package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StrategyKind 策略类型
type StrategyKind string

const (
	StrategyKindBuiltin StrategyKind = "builtin" // 内置指标策略，按名称注册
	StrategyKindRule    StrategyKind = "rule"    // 规则策略，买卖条件为受限表达式
)

// Strategy 交易策略定义
// 策略不再存放可执行代码：内置策略通过注册名引用，规则策略的
// 买卖条件是在固定指标环境里求值的布尔表达式，没有任何进程权限
type Strategy struct {
	ID          string            `gorm:"primaryKey;size:26" json:"id"`
	Name        string            `gorm:"size:64;not null" json:"name"`
	Description string            `gorm:"type:text" json:"description"`
	Kind        StrategyKind      `gorm:"type:varchar(16);not null" json:"kind"`
	Builtin     string            `gorm:"size:32" json:"builtin"`       // 内置策略注册名，如 sma_cross
	BuyRule     string            `gorm:"type:text" json:"buy_rule"`    // 买入条件表达式
	SellRule    string            `gorm:"type:text" json:"sell_rule"`   // 卖出条件表达式
	Parameters  datatypes.JSONMap `gorm:"type:json" json:"parameters"`  // 默认参数，可被任务参数覆盖
	IsActive    bool              `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (Strategy) TableName() string {
	return "strategies"
}
