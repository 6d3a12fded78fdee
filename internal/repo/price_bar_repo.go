package repo

import (
	"context"

	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func NewPriceBarRepo(db *gorm.DB) *PriceBarRepo {
	return &PriceBarRepo{
		Repository: orz.NewRepository[models.PriceBar, string](db),
	}
}

type PriceBarRepo struct {
	orz.Repository[models.PriceBar, string]
}

// FindRecentByInstrument 查找标的最近的K线，按时间倒序
func (r PriceBarRepo) FindRecentByInstrument(ctx context.Context, instrumentID, interval string, limit int) ([]models.PriceBar, error) {
	var bars []models.PriceBar
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("instrument_id = ? AND `interval` = ?", instrumentID, interval).
		Order("timestamp DESC").
		Limit(limit).
		Find(&bars).Error
	return bars, err
}

// CreateIgnoreDuplicate 写入K线，同一 (标的, 时间, 周期) 已存在时跳过
func (r PriceBarRepo) CreateIgnoreDuplicate(ctx context.Context, bar *models.PriceBar) error {
	db := r.GetDB(ctx)
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(bar).Error
}
