package repo

import (
	"context"
	"time"

	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewInstrumentRepo(db *gorm.DB) *InstrumentRepo {
	return &InstrumentRepo{
		Repository: orz.NewRepository[models.Instrument, string](db),
	}
}

type InstrumentRepo struct {
	orz.Repository[models.Instrument, string]
}

// FindBySymbol 根据标的代码查找
func (r InstrumentRepo) FindBySymbol(ctx context.Context, symbol string) (m models.Instrument, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("symbol = ?", symbol).
		First(&m).Error
	return m, err
}

// UpdateLastPrice 更新标的最新价格
func (r InstrumentRepo) UpdateLastPrice(ctx context.Context, id string, price float64, at time.Time) error {
	db := r.GetDB(ctx)
	return db.Table(r.GetTableName()).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_price":  price,
			"last_update": at,
		}).Error
}
