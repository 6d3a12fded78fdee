package repo

import (
	"context"

	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewAccountRepo(db *gorm.DB) *AccountRepo {
	return &AccountRepo{
		Repository: orz.NewRepository[models.TradingAccount, string](db),
	}
}

type AccountRepo struct {
	orz.Repository[models.TradingAccount, string]
}

// FindByAccountNumber 根据账户号码查找账户
func (r AccountRepo) FindByAccountNumber(ctx context.Context, accountNumber string) (m models.TradingAccount, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("account_number = ?", accountNumber).
		First(&m).Error
	return m, err
}

// UpdateBalance 更新账户可用资金
func (r AccountRepo) UpdateBalance(ctx context.Context, id string, balance float64) error {
	db := r.GetDB(ctx)
	return db.Table(r.GetTableName()).
		Where("id = ?", id).
		Update("current_balance", balance).Error
}
