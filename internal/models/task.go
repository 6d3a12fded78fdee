package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskStatus 交易任务状态
type TaskStatus string

const (
	TaskStatusInactive  TaskStatus = "inactive"  // 未启动
	TaskStatusActive    TaskStatus = "active"    // 运行中，调度器会评估
	TaskStatusPaused    TaskStatus = "paused"    // 暂停
	TaskStatusCompleted TaskStatus = "completed" // 已完成
	TaskStatusFailed    TaskStatus = "failed"    // 失败
)

// TradingTask 交易任务：一个策略绑定一个账户和一组标的，按计划周期评估
type TradingTask struct {
	ID          string                      `gorm:"primaryKey;size:26" json:"id"`
	Name        string                      `gorm:"size:64;not null" json:"name"`
	Description string                      `gorm:"type:text" json:"description"`
	StrategyID  string                      `gorm:"size:26;not null;index" json:"strategy_id"`
	AccountID   string                      `gorm:"size:26;not null;index" json:"account_id"`
	Symbols     datatypes.JSONSlice[string] `gorm:"type:json" json:"symbols"`    // 交易标的列表
	Parameters  datatypes.JSONMap           `gorm:"type:json" json:"parameters"` // 策略参数，原样透传
	Schedule    string                      `gorm:"size:64" json:"schedule"`     // 交易时段，如 "daily 09:30-15:00"
	Status      TaskStatus                  `gorm:"type:varchar(16);not null;default:'inactive';index" json:"status"`
	LastRun     *time.Time                  `json:"last_run"` // 最近一次评估时间
	CreatedAt   time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt              `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (TradingTask) TableName() string {
	return "trading_tasks"
}

// IsActive 任务是否参与调度
func (t *TradingTask) IsActive() bool {
	return t.Status == TaskStatusActive
}
