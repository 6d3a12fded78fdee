package service

import (
	"context"
	"errors"
	"time"

	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/GodLucas1/AIQuant/internal/repo"
	"github.com/GodLucas1/AIQuant/pkg/nostd"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cashBufferRatio 买入时最多动用的资金比例，其余 5% 作为缓冲保留
const cashBufferRatio = 0.95

// LedgerService 持仓与资金账本
// 以 (账户, 标的) 为单位执行信号驱动的状态机：
//   - 买入会整体重置持仓的数量和成本（rebase on buy 策略，刻意不做加权摊薄）
//   - 卖出最多卖到清仓，清仓后记录保留并归零市值字段
//   - 资金不足或无仓可卖是告警级的空操作，不是错误
//
// 每次被接受的转移恰好追加一条已成交订单记录
type LedgerService struct {
	logger *zap.Logger

	*orz.Service

	orderRepo    *repo.OrderRepo
	positionRepo *repo.PositionRepo
	accountRepo  *repo.AccountRepo
}

// NewLedgerService 创建账本服务
func NewLedgerService(db *gorm.DB, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		logger:       logger,
		Service:      orz.NewService(db),
		orderRepo:    repo.NewOrderRepo(db),
		positionRepo: repo.NewPositionRepo(db),
		accountRepo:  repo.NewAccountRepo(db),
	}
}

// ApplySignal 把一个信号作用到账户的持仓和资金上
// 返回产生的订单；被拒绝或无事可做时返回 (nil, nil)
// 一个信号的资金、持仓、订单写入要么全部落库要么全部回滚：
// 外层已有事务时走保存点，失败只撤销本信号，不影响同一事务里的其他信号
func (s *LedgerService) ApplySignal(ctx context.Context, account *models.TradingAccount,
	taskID, symbol string, signal Signal, price float64, now time.Time) (*models.TradeOrder, error) {

	if signal.Action == SignalActionHold {
		return nil, nil
	}
	if price <= 0 {
		return nil, errors.New("no current price for symbol " + symbol)
	}

	balance := account.CurrentBalance
	var order *models.TradeOrder
	err := s.orderRepo.GetDB(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.applySignal(orz.WithTx(ctx, tx), account, taskID, symbol, signal, price, now)
		return err
	})
	if err != nil {
		// 数据库已回滚，内存里的余额也要还原，后续信号才能继续用同一个账户对象
		account.CurrentBalance = balance
		return nil, err
	}
	return order, nil
}

func (s *LedgerService) applySignal(ctx context.Context, account *models.TradingAccount,
	taskID, symbol string, signal Signal, price float64, now time.Time) (*models.TradeOrder, error) {

	// 重试场景下同一信号只成交一次
	if taskID != "" && !signal.Time.IsZero() {
		exists, err := s.orderRepo.ExistsBySignal(ctx, account.ID, symbol, signal.Time)
		if err != nil {
			return nil, err
		}
		if exists {
			s.logger.Info("signal already executed, skipping",
				zap.String("account_id", account.ID),
				zap.String("symbol", symbol),
				zap.Time("signal_at", signal.Time))
			return nil, nil
		}
	}

	switch signal.Action {
	case SignalActionBuy:
		return s.applyBuy(ctx, account, taskID, symbol, signal, price, now)
	case SignalActionSell:
		return s.applySell(ctx, account, taskID, symbol, signal, price, now)
	default:
		return nil, nil
	}
}

func (s *LedgerService) applyBuy(ctx context.Context, account *models.TradingAccount,
	taskID, symbol string, signal Signal, price float64, now time.Time) (*models.TradeOrder, error) {

	requested := nostd.FloorQuantity(signal.Quantity)
	affordable := nostd.FloorQuantity(account.CurrentBalance / price)

	quantity := requested
	if affordable < quantity {
		quantity = affordable
	}

	if quantity <= 0 {
		s.logger.Warn("buy rejected: no affordable quantity",
			zap.String("account_id", account.ID),
			zap.String("symbol", symbol),
			zap.Float64("requested", signal.Quantity),
			zap.Float64("balance", account.CurrentBalance))
		return nil, nil
	}

	commission := nostd.RoundMoney(CalculateCommission(quantity, price))
	cost := nostd.RoundMoney(quantity*price + commission)
	buffer := nostd.RoundMoney(account.CurrentBalance * cashBufferRatio)

	// 超出可动用资金直接拒绝，不缩量成交
	if cost > buffer {
		s.logger.Warn("buy rejected: insufficient funds",
			zap.String("account_id", account.ID),
			zap.String("symbol", symbol),
			zap.Float64("cost", cost),
			zap.Float64("usable", buffer))
		return nil, nil
	}

	account.CurrentBalance = nostd.RoundMoney(account.CurrentBalance - cost)
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	position, err := s.positionRepo.FindByAccountAndSymbol(ctx, account.ID, symbol)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created := models.TradePosition{
			ID:          ulid.Make().String(),
			AccountID:   account.ID,
			Symbol:      symbol,
			Quantity:    quantity,
			AverageCost: price,
			OpenDate:    now,
		}
		created.RefreshValuation(price, now)
		if err := s.positionRepo.Create(ctx, &created); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else {
		// rebase on buy：重复买入直接重置数量和成本
		position.Quantity = quantity
		position.AverageCost = price
		position.RefreshValuation(price, now)
		if err := s.positionRepo.Save(ctx, &position); err != nil {
			return nil, err
		}
	}

	order := s.newFilledOrder(account.ID, taskID, symbol, models.OrderSideBuy, quantity, price, commission, signal.Time, now)
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("buy order filled",
		zap.String("account_id", account.ID),
		zap.String("symbol", symbol),
		zap.Float64("quantity", quantity),
		zap.Float64("price", price),
		zap.Float64("commission", commission),
		zap.Float64("balance", account.CurrentBalance))

	return order, nil
}

func (s *LedgerService) applySell(ctx context.Context, account *models.TradingAccount,
	taskID, symbol string, signal Signal, price float64, now time.Time) (*models.TradeOrder, error) {

	position, err := s.positionRepo.FindByAccountAndSymbol(ctx, account.ID, symbol)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && position.IsFlat()) {
		s.logger.Warn("sell skipped: nothing to sell",
			zap.String("account_id", account.ID),
			zap.String("symbol", symbol))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	requested := nostd.FloorQuantity(signal.Quantity)
	if requested <= 0 {
		requested = position.Quantity
	}

	quantity := requested
	if position.Quantity < quantity {
		quantity = position.Quantity
	}

	commission := nostd.RoundMoney(CalculateCommission(quantity, price))
	proceeds := nostd.RoundMoney(quantity*price - commission)
	realized := nostd.RoundMoney(proceeds - position.AverageCost*quantity)

	account.CurrentBalance = nostd.RoundMoney(account.CurrentBalance + proceeds)
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	position.Quantity -= quantity
	position.RealizedPnl = nostd.RoundMoney(position.RealizedPnl + realized)
	if position.Quantity > 0 {
		position.RefreshValuation(price, now)
	} else {
		position.Flatten(now)
	}
	if err := s.positionRepo.Save(ctx, &position); err != nil {
		return nil, err
	}

	order := s.newFilledOrder(account.ID, taskID, symbol, models.OrderSideSell, quantity, price, commission, signal.Time, now)
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("sell order filled",
		zap.String("account_id", account.ID),
		zap.String("symbol", symbol),
		zap.Float64("quantity", quantity),
		zap.Float64("price", price),
		zap.Float64("commission", commission),
		zap.Float64("realized_pnl", realized),
		zap.Float64("balance", account.CurrentBalance))

	return order, nil
}

func (s *LedgerService) newFilledOrder(accountID, taskID, symbol string, side models.OrderSide,
	quantity, price, commission float64, signalAt, now time.Time) *models.TradeOrder {
	return &models.TradeOrder{
		ID:               ulid.Make().String(),
		AccountID:        accountID,
		TaskID:           taskID,
		Symbol:           symbol,
		OrderType:        models.OrderTypeMarket,
		Side:             side,
		Quantity:         quantity,
		Price:            price,
		Status:           models.OrderStatusFilled,
		FilledQuantity:   quantity,
		AverageFillPrice: price,
		Commission:       commission,
		SignalAt:         signalAt,
		OrderTime:        now,
		FillTime:         now,
	}
}

// RefreshValuations 价格刷新后同步未清仓持仓的市值和未实现盈亏
func (s *LedgerService) RefreshValuations(ctx context.Context, symbol string, price float64, now time.Time) error {
	positions, err := s.positionRepo.FindOpenBySymbol(ctx, symbol)
	if err != nil {
		return err
	}

	for i := range positions {
		positions[i].RefreshValuation(price, now)
		if err := s.positionRepo.Save(ctx, &positions[i]); err != nil {
			return err
		}
	}

	return nil
}
