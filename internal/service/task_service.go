package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/GodLucas1/AIQuant/internal/repo"
	"github.com/GodLucas1/AIQuant/internal/xe"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskService 交易任务管理服务
// 启停只是状态切换，实际执行由调度器驱动
type TaskService struct {
	logger *zap.Logger

	*orz.Service
	*repo.TaskRepo

	accountRepo  *repo.AccountRepo
	strategyRepo *repo.StrategyRepo
	orderRepo    *repo.OrderRepo
}

// NewTaskService 创建交易任务服务
func NewTaskService(db *gorm.DB, logger *zap.Logger) *TaskService {
	return &TaskService{
		logger:       logger,
		Service:      orz.NewService(db),
		TaskRepo:     repo.NewTaskRepo(db),
		accountRepo:  repo.NewAccountRepo(db),
		strategyRepo: repo.NewStrategyRepo(db),
		orderRepo:    repo.NewOrderRepo(db),
	}
}

// CreateTask 创建任务，校验关联的账户和策略存在
func (s *TaskService) CreateTask(ctx context.Context, task *models.TradingTask) error {
	if err := s.validateTask(ctx, task); err != nil {
		return err
	}

	task.ID = ulid.Make().String()
	if task.Status == "" {
		task.Status = models.TaskStatusInactive
	}
	return s.Create(ctx, task)
}

// UpdateTask 更新任务
func (s *TaskService) UpdateTask(ctx context.Context, task *models.TradingTask) error {
	existing, err := s.FindById(ctx, task.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return xe.ErrTaskNotFound
	}
	if err != nil {
		return err
	}
	if err := s.validateTask(ctx, task); err != nil {
		return err
	}

	task.Status = existing.Status
	task.LastRun = existing.LastRun
	task.CreatedAt = existing.CreatedAt
	return s.Save(ctx, task)
}

// DeleteTask 删除任务
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.FindById(ctx, id); errors.Is(err, gorm.ErrRecordNotFound) {
		return xe.ErrTaskNotFound
	} else if err != nil {
		return err
	}
	return s.DeleteById(ctx, id)
}

// StartTask 启动任务，进入调度
func (s *TaskService) StartTask(ctx context.Context, id string) error {
	task, err := s.FindById(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return xe.ErrTaskNotFound
	}
	if err != nil {
		return err
	}
	if task.IsActive() {
		return xe.ErrTaskAlreadyActive
	}

	account, err := s.accountRepo.FindById(ctx, task.AccountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return xe.ErrAccountNotFound
	}
	if err != nil {
		return err
	}
	if !account.IsActive() {
		return xe.ErrAccountNotActive
	}

	s.logger.Info("task started", zap.String("task_id", id), zap.String("task_name", task.Name))
	return s.UpdateStatus(ctx, id, models.TaskStatusActive)
}

// StopTask 暂停任务，调度器不再评估
func (s *TaskService) StopTask(ctx context.Context, id string) error {
	task, err := s.FindById(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return xe.ErrTaskNotFound
	}
	if err != nil {
		return err
	}
	if !task.IsActive() {
		return xe.ErrTaskNotActive
	}

	s.logger.Info("task stopped", zap.String("task_id", id), zap.String("task_name", task.Name))
	return s.UpdateStatus(ctx, id, models.TaskStatusPaused)
}

// TaskDetail 任务详情，包含最近订单
type TaskDetail struct {
	models.TradingTask
	Orders []models.TradeOrder `json:"orders"`
}

// GetDetail 获取任务详情
func (s *TaskService) GetDetail(ctx context.Context, id string) (*TaskDetail, error) {
	task, err := s.FindById(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, xe.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.FindByTaskID(ctx, id, 50)
	if err != nil {
		return nil, err
	}

	return &TaskDetail{TradingTask: task, Orders: orders}, nil
}

// validateTask 校验任务引用和交易时段定义
func (s *TaskService) validateTask(ctx context.Context, task *models.TradingTask) error {
	if _, err := s.accountRepo.FindById(ctx, task.AccountID); errors.Is(err, gorm.ErrRecordNotFound) {
		return xe.ErrAccountNotFound
	} else if err != nil {
		return err
	}
	if _, err := s.strategyRepo.FindById(ctx, task.StrategyID); errors.Is(err, gorm.ErrRecordNotFound) {
		return xe.ErrStrategyNotFound
	} else if err != nil {
		return err
	}
	if len(task.Symbols) == 0 {
		return fmt.Errorf("%w: task needs at least one symbol", xe.ErrInvalidParams)
	}
	if task.Schedule != "" {
		if _, _, err := ParseDailyWindow(task.Schedule); err != nil {
			return fmt.Errorf("%w: invalid schedule: %v", xe.ErrInvalidParams, err)
		}
	}
	return nil
}
