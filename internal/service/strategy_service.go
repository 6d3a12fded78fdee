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

// StrategyService 策略管理服务
type StrategyService struct {
	logger *zap.Logger

	*orz.Service
	*repo.StrategyRepo
}

// NewStrategyService 创建策略服务
func NewStrategyService(db *gorm.DB, logger *zap.Logger) *StrategyService {
	return &StrategyService{
		logger:       logger,
		Service:      orz.NewService(db),
		StrategyRepo: repo.NewStrategyRepo(db),
	}
}

// CreateStrategy 创建策略，写入前校验策略定义
func (s *StrategyService) CreateStrategy(ctx context.Context, strategy *models.Strategy) error {
	if err := validateStrategy(strategy); err != nil {
		return err
	}
	strategy.ID = ulid.Make().String()
	return s.Create(ctx, strategy)
}

// UpdateStrategy 更新策略
func (s *StrategyService) UpdateStrategy(ctx context.Context, strategy *models.Strategy) error {
	existing, err := s.FindById(ctx, strategy.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return xe.ErrStrategyNotFound
	}
	if err != nil {
		return err
	}
	if err := validateStrategy(strategy); err != nil {
		return err
	}

	strategy.CreatedAt = existing.CreatedAt
	return s.Save(ctx, strategy)
}

// DeleteStrategy 删除策略
func (s *StrategyService) DeleteStrategy(ctx context.Context, id string) error {
	if _, err := s.FindById(ctx, id); errors.Is(err, gorm.ErrRecordNotFound) {
		return xe.ErrStrategyNotFound
	} else if err != nil {
		return err
	}
	return s.DeleteById(ctx, id)
}

// validateStrategy 校验策略定义是否可求值
// 内置策略必须是已注册的名称，规则策略的买卖条件必须可编译
func validateStrategy(strategy *models.Strategy) error {
	switch strategy.Kind {
	case models.StrategyKindBuiltin:
		if _, ok := builtinStrategies[strategy.Builtin]; !ok {
			return fmt.Errorf("%w: unknown builtin strategy %q", xe.ErrInvalidParams, strategy.Builtin)
		}
	case models.StrategyKindRule:
		if strategy.BuyRule == "" && strategy.SellRule == "" {
			return fmt.Errorf("%w: rule strategy needs at least one rule", xe.ErrInvalidParams)
		}
		if strategy.BuyRule != "" {
			if _, err := compileRule(strategy.BuyRule); err != nil {
				return fmt.Errorf("%w: invalid buy rule: %v", xe.ErrInvalidParams, err)
			}
		}
		if strategy.SellRule != "" {
			if _, err := compileRule(strategy.SellRule); err != nil {
				return fmt.Errorf("%w: invalid sell rule: %v", xe.ErrInvalidParams, err)
			}
		}
	default:
		return fmt.Errorf("%w: unknown strategy kind %q", xe.ErrInvalidParams, strategy.Kind)
	}
	return nil
}
