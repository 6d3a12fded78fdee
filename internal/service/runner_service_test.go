package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GodLucas1/AIQuant/internal/config"
	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/GodLucas1/AIQuant/internal/xe"
	"github.com/GodLucas1/AIQuant/pkg/marketdata"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// stubProvider 测试用行情数据源，任务执行路径只读本地K线，不会触达它
type stubProvider struct{}

func (stubProvider) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*marketdata.Kline, error) {
	return nil, errors.New("not implemented")
}

func (stubProvider) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, errors.New("not implemented")
}

func (stubProvider) GetSymbolInfo(ctx context.Context, symbol string) (*marketdata.SymbolInfo, error) {
	return nil, errors.New("not implemented")
}

type runnerFixture struct {
	db     *gorm.DB
	runner *RunnerService
	ledger *LedgerService
}

func newRunnerFixture(t *testing.T, now time.Time) *runnerFixture {
	t.Helper()

	db := newTestDB(t)
	logger := zap.NewNop()
	conf := config.TradingConf{HistoryLookback: 100, BarInterval: "1h"}

	ledger := NewLedgerService(db, logger)
	market := NewMarketService(db, conf, stubProvider{}, ledger, logger)
	gate := NewTradingWindowGate(time.UTC, logger)
	signals := NewSignalService(time.Second, logger)

	runner := NewRunnerService(db, conf, gate, signals, market, ledger, nil, logger)
	runner.nowFn = func() time.Time { return now }

	return &runnerFixture{db: db, runner: runner, ledger: ledger}
}

func (f *runnerFixture) seedStrategy(t *testing.T) *models.Strategy {
	t.Helper()
	strategy := models.Strategy{
		ID:       ulid.Make().String(),
		Name:     "追涨",
		Kind:     models.StrategyKindRule,
		BuyRule:  "close > prev_close",
		SellRule: "close < prev_close",
		IsActive: true,
	}
	if err := f.db.Create(&strategy).Error; err != nil {
		t.Fatal(err)
	}
	return &strategy
}

func (f *runnerFixture) seedTask(t *testing.T, accountID, strategyID string,
	symbols []string, status models.TaskStatus) *models.TradingTask {
	t.Helper()
	task := models.TradingTask{
		ID:         ulid.Make().String(),
		Name:       "测试任务",
		StrategyID: strategyID,
		AccountID:  accountID,
		Symbols:    datatypes.NewJSONSlice(symbols),
		Parameters: datatypes.JSONMap{"quantity": 100.0},
		Schedule:   "daily 00:00-23:59",
		Status:     status,
	}
	if err := f.db.Create(&task).Error; err != nil {
		t.Fatal(err)
	}
	return &task
}

// seedBars 为标的写入一段逐根上涨的小时K线
func (f *runnerFixture) seedBars(t *testing.T, symbol string, closes []float64, end time.Time) {
	t.Helper()
	instrument := models.Instrument{
		ID:     ulid.Make().String(),
		Symbol: symbol,
	}
	if err := f.db.Create(&instrument).Error; err != nil {
		t.Fatal(err)
	}

	for i, c := range closes {
		bar := models.PriceBar{
			ID:           ulid.Make().String(),
			InstrumentID: instrument.ID,
			Timestamp:    end.Add(time.Duration(i-len(closes)) * time.Hour),
			Interval:     "1h",
			Open:         c,
			High:         c,
			Low:          c,
			Close:        c,
			Volume:       1000,
		}
		if err := f.db.Create(&bar).Error; err != nil {
			t.Fatal(err)
		}
	}
}

func (f *runnerFixture) reloadTask(t *testing.T, id string) models.TradingTask {
	t.Helper()
	var task models.TradingTask
	if err := f.db.First(&task, "id = ?", id).Error; err != nil {
		t.Fatal(err)
	}
	return task
}

func TestRunOnceExecutesActiveTask(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	f := newRunnerFixture(t, now)
	ctx := context.Background()

	account := newTestAccount(t, f.db, 100000)
	strategy := f.seedStrategy(t)
	task := f.seedTask(t, account.ID, strategy.ID, []string{"600519"}, models.TaskStatusActive)
	f.seedBars(t, "600519", []float64{10, 11, 12}, now)

	if err := f.runner.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}

	if n := countOrders(t, f.db); n != 1 {
		t.Fatalf("expected 1 order, got %d", n)
	}

	got := f.reloadTask(t, task.ID)
	if got.LastRun == nil || !got.LastRun.Equal(now) {
		t.Errorf("last_run = %v, want %v", got.LastRun, now)
	}

	balance := reloadAccount(t, f.db, account.ID).CurrentBalance
	if balance >= 100000 {
		t.Errorf("balance = %v, expected deduction after buy", balance)
	}
}

func TestRunOnceSkipsInactiveTask(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	f := newRunnerFixture(t, now)
	ctx := context.Background()

	account := newTestAccount(t, f.db, 100000)
	strategy := f.seedStrategy(t)
	task := f.seedTask(t, account.ID, strategy.ID, []string{"600519"}, models.TaskStatusPaused)
	f.seedBars(t, "600519", []float64{10, 11, 12}, now)

	if err := f.runner.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}

	if n := countOrders(t, f.db); n != 0 {
		t.Errorf("paused task produced %d orders", n)
	}
	if got := f.reloadTask(t, task.ID); got.LastRun != nil {
		t.Errorf("paused task last_run = %v, want nil", got.LastRun)
	}
}

func TestRunOnceOutsideTradingWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	f := newRunnerFixture(t, now)
	ctx := context.Background()

	account := newTestAccount(t, f.db, 100000)
	strategy := f.seedStrategy(t)
	task := f.seedTask(t, account.ID, strategy.ID, []string{"600519"}, models.TaskStatusActive)
	task.Schedule = "daily 14:00-15:00"
	if err := f.db.Save(task).Error; err != nil {
		t.Fatal(err)
	}
	f.seedBars(t, "600519", []float64{10, 11, 12}, now)

	if err := f.runner.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}

	if n := countOrders(t, f.db); n != 0 {
		t.Errorf("expected no orders outside window, got %d", n)
	}
	if got := f.reloadTask(t, task.ID); got.LastRun != nil {
		t.Errorf("last_run should stay nil when window denies, got %v", got.LastRun)
	}
}

func TestRunOnceSkipsInactiveAccount(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	f := newRunnerFixture(t, now)
	ctx := context.Background()

	account := newTestAccount(t, f.db, 100000)
	if err := f.db.Model(account).Update("status", models.AccountStatusSuspended).Error; err != nil {
		t.Fatal(err)
	}
	strategy := f.seedStrategy(t)
	f.seedTask(t, account.ID, strategy.ID, []string{"600519"}, models.TaskStatusActive)
	f.seedBars(t, "600519", []float64{10, 11, 12}, now)

	if err := f.runner.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}

	if n := countOrders(t, f.db); n != 0 {
		t.Errorf("suspended account produced %d orders", n)
	}
}

func TestRunOnceIsolatesSymbolFailures(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	f := newRunnerFixture(t, now)
	ctx := context.Background()

	account := newTestAccount(t, f.db, 100000)
	strategy := f.seedStrategy(t)
	// 第一个标的没有任何行情数据，第二个正常
	task := f.seedTask(t, account.ID, strategy.ID, []string{"000001", "600519"}, models.TaskStatusActive)
	f.seedBars(t, "600519", []float64{10, 11, 12}, now)

	if err := f.runner.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}

	if n := countOrders(t, f.db); n != 1 {
		t.Errorf("expected healthy symbol to trade, got %d orders", n)
	}
	if got := f.reloadTask(t, task.ID); got.LastRun == nil {
		t.Error("last_run should update even when one symbol fails")
	}
}

func TestRunOnceIsIdempotentForSameSignal(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	f := newRunnerFixture(t, now)
	ctx := context.Background()

	account := newTestAccount(t, f.db, 100000)
	strategy := f.seedStrategy(t)
	f.seedTask(t, account.ID, strategy.ID, []string{"600519"}, models.TaskStatusActive)
	f.seedBars(t, "600519", []float64{10, 11, 12}, now)

	if err := f.runner.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.runner.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}

	// 行情未更新，第二轮的信号时间与第一轮相同，不应重复成交
	if n := countOrders(t, f.db); n != 1 {
		t.Errorf("expected 1 order after two passes, got %d", n)
	}
}

func TestRunOnceRejectsOverlappingPass(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	f := newRunnerFixture(t, now)

	f.runner.mu.Lock()
	defer f.runner.mu.Unlock()

	err := f.runner.RunOnce(context.Background())
	if !errors.Is(err, xe.ErrPassInProgress) {
		t.Fatalf("expected ErrPassInProgress, got %v", err)
	}
}
