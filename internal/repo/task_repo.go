package repo

import (
	"context"
	"time"

	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewTaskRepo(db *gorm.DB) *TaskRepo {
	return &TaskRepo{
		Repository: orz.NewRepository[models.TradingTask, string](db),
	}
}

type TaskRepo struct {
	orz.Repository[models.TradingTask, string]
}

// FindByStatus 根据状态查找任务
func (r TaskRepo) FindByStatus(ctx context.Context, status models.TaskStatus) ([]models.TradingTask, error) {
	var tasks []models.TradingTask
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

// UpdateStatus 更新任务状态
func (r TaskRepo) UpdateStatus(ctx context.Context, id string, status models.TaskStatus) error {
	db := r.GetDB(ctx)
	return db.Table(r.GetTableName()).
		Where("id = ?", id).
		Update("status", status).Error
}

// UpdateLastRun 更新任务最近评估时间
func (r TaskRepo) UpdateLastRun(ctx context.Context, id string, lastRun time.Time) error {
	db := r.GetDB(ctx)
	return db.Table(r.GetTableName()).
		Where("id = ?", id).
		Update("last_run", lastRun).Error
}
