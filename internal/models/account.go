package models

import (
	"time"

	"gorm.io/gorm"
)

// AccountStatus 账户状态
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"    // 正常
	AccountStatusInactive  AccountStatus = "inactive"  // 停用
	AccountStatusSuspended AccountStatus = "suspended" // 冻结
)

// TradingAccount 模拟交易账户
type TradingAccount struct {
	ID             string         `gorm:"primaryKey;size:26" json:"id"`
	Name           string         `gorm:"size:64;not null" json:"name"`
	Broker         string         `gorm:"size:64" json:"broker"`                                        // 券商/经纪商
	AccountNumber  string         `gorm:"size:64;uniqueIndex" json:"account_number"`                    // 账户号码
	InitialBalance float64        `gorm:"type:decimal(20,8);not null" json:"initial_balance"`           // 初始资金
	CurrentBalance float64        `gorm:"type:decimal(20,8);not null" json:"current_balance"`           // 当前可用资金
	Status         AccountStatus  `gorm:"type:varchar(16);not null;default:'active'" json:"status"`     // active/inactive/suspended
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (TradingAccount) TableName() string {
	return "trading_accounts"
}

// IsActive 账户是否可交易
func (a *TradingAccount) IsActive() bool {
	return a.Status == AccountStatusActive
}
