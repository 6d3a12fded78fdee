package repo

import (
	"context"

	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewPositionRepo(db *gorm.DB) *PositionRepo {
	return &PositionRepo{
		Repository: orz.NewRepository[models.TradePosition, string](db),
	}
}

type PositionRepo struct {
	orz.Repository[models.TradePosition, string]
}

// FindByAccountAndSymbol 查找账户在某标的上的持仓
func (r PositionRepo) FindByAccountAndSymbol(ctx context.Context, accountID, symbol string) (m models.TradePosition, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("account_id = ? AND symbol = ?", accountID, symbol).
		First(&m).Error
	return m, err
}

// FindByAccountID 查找账户的全部持仓
func (r PositionRepo) FindByAccountID(ctx context.Context, accountID string) ([]models.TradePosition, error) {
	var positions []models.TradePosition
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("account_id = ?", accountID).
		Order("symbol ASC").
		Find(&positions).Error
	return positions, err
}

// FindOpenBySymbol 查找某标的在全部账户下的非空仓持仓
func (r PositionRepo) FindOpenBySymbol(ctx context.Context, symbol string) ([]models.TradePosition, error) {
	var positions []models.TradePosition
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("symbol = ? AND quantity > 0", symbol).
		Find(&positions).Error
	return positions, err
}

// FindOpenByAccountID 查找账户的非空仓持仓
func (r PositionRepo) FindOpenByAccountID(ctx context.Context, accountID string) ([]models.TradePosition, error) {
	var positions []models.TradePosition
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("account_id = ? AND quantity > 0", accountID).
		Order("symbol ASC").
		Find(&positions).Error
	return positions, err
}
