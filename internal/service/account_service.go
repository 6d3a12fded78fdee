package service

import (
	"context"
	"errors"

	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/GodLucas1/AIQuant/internal/repo"
	"github.com/GodLucas1/AIQuant/internal/xe"
	"github.com/GodLucas1/AIQuant/pkg/nostd"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccountService 交易账户管理服务
type AccountService struct {
	logger *zap.Logger

	*orz.Service
	*repo.AccountRepo

	positionRepo *repo.PositionRepo
	orderRepo    *repo.OrderRepo
}

// NewAccountService 创建交易账户服务
func NewAccountService(db *gorm.DB, logger *zap.Logger) *AccountService {
	return &AccountService{
		logger:       logger,
		Service:      orz.NewService(db),
		AccountRepo:  repo.NewAccountRepo(db),
		positionRepo: repo.NewPositionRepo(db),
		orderRepo:    repo.NewOrderRepo(db),
	}
}

// CreateAccount 创建账户，账户号码不能重复
func (s *AccountService) CreateAccount(ctx context.Context, account *models.TradingAccount) error {
	if account.AccountNumber != "" {
		_, err := s.FindByAccountNumber(ctx, account.AccountNumber)
		if err == nil {
			return xe.ErrAccountNumberUsed
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	account.ID = ulid.Make().String()
	account.CurrentBalance = nostd.RoundMoney(account.InitialBalance)
	if account.Status == "" {
		account.Status = models.AccountStatusActive
	}
	return s.Create(ctx, account)
}

// AccountDetail 账户详情，包含持仓和总权益
type AccountDetail struct {
	models.TradingAccount
	Positions        []models.TradePosition `json:"positions"`
	TotalMarketValue float64                `json:"total_market_value"` // 持仓总市值
	TotalEquity      float64                `json:"total_equity"`       // 可用资金 + 持仓总市值
}

// GetDetail 获取账户详情
func (s *AccountService) GetDetail(ctx context.Context, id string) (*AccountDetail, error) {
	account, err := s.FindById(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, xe.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	positions, err := s.positionRepo.FindByAccountID(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	var marketValue float64
	for _, p := range positions {
		marketValue += p.MarketValue
	}

	return &AccountDetail{
		TradingAccount:   account,
		Positions:        positions,
		TotalMarketValue: nostd.RoundMoney(marketValue),
		TotalEquity:      nostd.RoundMoney(account.CurrentBalance + marketValue),
	}, nil
}

// GetPositions 获取账户的全部持仓
func (s *AccountService) GetPositions(ctx context.Context, id string) ([]models.TradePosition, error) {
	if _, err := s.FindById(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xe.ErrAccountNotFound
		}
		return nil, err
	}
	return s.positionRepo.FindByAccountID(ctx, id)
}

// GetOrders 获取账户的最近订单
func (s *AccountService) GetOrders(ctx context.Context, id string, limit int) ([]models.TradeOrder, error) {
	if _, err := s.FindById(ctx, id); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, xe.ErrAccountNotFound
	} else if err != nil {
		return nil, err
	}
	return s.orderRepo.FindByAccountID(ctx, id, limit)
}
