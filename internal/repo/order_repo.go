package repo

import (
	"context"
	"time"

	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewOrderRepo(db *gorm.DB) *OrderRepo {
	return &OrderRepo{
		Repository: orz.NewRepository[models.TradeOrder, string](db),
	}
}

type OrderRepo struct {
	orz.Repository[models.TradeOrder, string]
}

// FindByTaskID 查找指定任务的最近订单
func (r OrderRepo) FindByTaskID(ctx context.Context, taskID string, limit int) ([]models.TradeOrder, error) {
	var orders []models.TradeOrder
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("task_id = ?", taskID).
		Order("order_time DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// FindByAccountID 查找指定账户的最近订单
func (r OrderRepo) FindByAccountID(ctx context.Context, accountID string, limit int) ([]models.TradeOrder, error) {
	var orders []models.TradeOrder
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("account_id = ?", accountID).
		Order("order_time DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// FindRecent 查找全部最近订单
func (r OrderRepo) FindRecent(ctx context.Context, limit int) ([]models.TradeOrder, error) {
	var orders []models.TradeOrder
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("order_time DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// ExistsBySignal 是否已存在同一信号产生的订单，用于重试时去重
func (r OrderRepo) ExistsBySignal(ctx context.Context, accountID, symbol string, signalAt time.Time) (bool, error) {
	var count int64
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("account_id = ? AND symbol = ? AND signal_at = ?", accountID, symbol, signalAt).
		Count(&count).Error
	return count > 0, err
}
