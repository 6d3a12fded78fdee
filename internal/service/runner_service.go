package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/GodLucas1/AIQuant/internal/config"
	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/GodLucas1/AIQuant/internal/repo"
	"github.com/GodLucas1/AIQuant/internal/telegram"
	"github.com/GodLucas1/AIQuant/internal/xe"
	"github.com/go-orz/orz"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RunnerService 交易任务执行器
// 每轮扫描全部活跃任务，逐任务独立事务执行，单个任务失败不影响其余任务
// 同一时间最多只有一轮在执行，上一轮未结束时新一轮直接放弃
type RunnerService struct {
	logger *zap.Logger

	*orz.Service

	conf config.TradingConf

	taskRepo     *repo.TaskRepo
	accountRepo  *repo.AccountRepo
	strategyRepo *repo.StrategyRepo

	gate     *TradingWindowGate
	signals  *SignalService
	market   *MarketService
	ledger   *LedgerService
	notifier *telegram.Notifier

	mu    sync.Mutex
	nowFn func() time.Time
}

func NewRunnerService(db *gorm.DB, conf config.TradingConf, gate *TradingWindowGate,
	signals *SignalService, market *MarketService, ledger *LedgerService,
	notifier *telegram.Notifier, logger *zap.Logger) *RunnerService {
	return &RunnerService{
		logger:       logger,
		Service:      orz.NewService(db),
		conf:         conf,
		taskRepo:     repo.NewTaskRepo(db),
		accountRepo:  repo.NewAccountRepo(db),
		strategyRepo: repo.NewStrategyRepo(db),
		gate:         gate,
		signals:      signals,
		market:       market,
		ledger:       ledger,
		notifier:     notifier,
		nowFn:        time.Now,
	}
}

// RunOnce 执行一轮任务评估
func (s *RunnerService) RunOnce(ctx context.Context) error {
	if !s.mu.TryLock() {
		s.logger.Warn("previous pass still running, skipping")
		return xe.ErrPassInProgress
	}
	defer s.mu.Unlock()

	tasks, err := s.taskRepo.FindByStatus(ctx, models.TaskStatusActive)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	for i := range tasks {
		task := tasks[i]
		if err := s.runTask(ctx, &task); err != nil {
			s.logger.Error("task execution failed",
				zap.String("task_id", task.ID),
				zap.String("task_name", task.Name),
				zap.Error(err))
		}
	}
	return nil
}

// runTask 在独立事务内执行单个任务
func (s *RunnerService) runTask(ctx context.Context, task *models.TradingTask) error {
	now := s.nowFn()

	// 交易时段外不评估，也不更新 last_run
	if !s.gate.Admit(task.Schedule, now) {
		s.logger.Debug("outside trading window",
			zap.String("task_id", task.ID),
			zap.String("schedule", task.Schedule))
		return nil
	}

	return s.Transaction(ctx, func(ctx context.Context) error {
		account, err := s.accountRepo.FindById(ctx, task.AccountID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return xe.ErrAccountNotFound
		}
		if err != nil {
			return err
		}
		if !account.IsActive() {
			s.logger.Warn("account not active, skipping task",
				zap.String("task_id", task.ID),
				zap.String("account_id", account.ID))
			return nil
		}

		strategy, err := s.strategyRepo.FindById(ctx, task.StrategyID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return xe.ErrStrategyNotFound
		}
		if err != nil {
			return err
		}

		// 逐标的评估，单个标的失败只记录日志
		for _, symbol := range task.Symbols {
			if err := s.runSymbol(ctx, task, &account, &strategy, symbol, now); err != nil {
				s.logger.Error("symbol evaluation failed",
					zap.String("task_id", task.ID),
					zap.String("symbol", symbol),
					zap.Error(err))
			}
		}

		return s.taskRepo.UpdateLastRun(ctx, task.ID, now)
	})
}

func (s *RunnerService) runSymbol(ctx context.Context, task *models.TradingTask,
	account *models.TradingAccount, strategy *models.Strategy, symbol string, now time.Time) error {

	lookback := s.conf.HistoryLookback
	if lookback <= 0 {
		lookback = 100
	}

	history, err := s.market.GetPriceHistory(ctx, symbol, lookback)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		s.logger.Warn("no price history for symbol",
			zap.String("task_id", task.ID),
			zap.String("symbol", symbol))
		return nil
	}

	bars := make([]Bar, len(history))
	for i, h := range history {
		bars[i] = Bar{
			Timestamp: h.Timestamp,
			Open:      h.Open,
			High:      h.High,
			Low:       h.Low,
			Close:     h.Close,
			Volume:    h.Volume,
		}
	}

	signals, err := s.signals.GenerateSignals(ctx, strategy, bars, task.Parameters)
	if err != nil {
		return err
	}
	if len(signals) == 0 {
		return nil
	}

	// 只执行最后一根K线对应的信号
	latest := signals[len(signals)-1]
	if latest.Action == SignalActionHold {
		return nil
	}

	price := bars[len(bars)-1].Close
	order, err := s.ledger.ApplySignal(ctx, account, task.ID, symbol, latest, price, now)
	if err != nil {
		return err
	}
	if order != nil {
		s.notifier.NotifyOrderFilled(account, order)
	}
	return nil
}
