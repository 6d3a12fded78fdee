package service

import (
	"context"
	"testing"
	"time"

	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	// 内存库按连接隔离，限制为单连接
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		models.TradingAccount{}, models.Strategy{}, models.TradingTask{},
		models.TradeOrder{}, models.TradePosition{},
		models.Instrument{}, models.PriceBar{},
	); err != nil {
		t.Fatal(err)
	}
	return db
}

func newTestAccount(t *testing.T, db *gorm.DB, balance float64) *models.TradingAccount {
	t.Helper()
	account := models.TradingAccount{
		ID:             ulid.Make().String(),
		Name:           "测试账户",
		AccountNumber:  ulid.Make().String(),
		InitialBalance: balance,
		CurrentBalance: balance,
		Status:         models.AccountStatusActive,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatal(err)
	}
	return &account
}

func reloadAccount(t *testing.T, db *gorm.DB, id string) models.TradingAccount {
	t.Helper()
	var account models.TradingAccount
	if err := db.First(&account, "id = ?", id).Error; err != nil {
		t.Fatal(err)
	}
	return account
}

func loadPosition(t *testing.T, db *gorm.DB, accountID, symbol string) models.TradePosition {
	t.Helper()
	var position models.TradePosition
	if err := db.First(&position, "account_id = ? AND symbol = ?", accountID, symbol).Error; err != nil {
		t.Fatal(err)
	}
	return position
}

func countOrders(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.TradeOrder{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

var testNow = time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)

func TestApplySignalBuy(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, zap.NewNop())
	account := newTestAccount(t, db, 100000)
	ctx := context.Background()

	signal := Signal{Action: SignalActionBuy, Quantity: 100, Time: testNow}
	order, err := ledger.ApplySignal(ctx, account, "task1", "600519", signal, 50, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if order == nil {
		t.Fatal("expected an order")
	}

	// 手续费 max(5, 100*50*0.001) = 5，总成本 5005
	if order.Commission != 5 {
		t.Errorf("commission = %v, want 5", order.Commission)
	}
	if order.FilledQuantity != 100 || order.AverageFillPrice != 50 {
		t.Errorf("fill = %v @ %v, want 100 @ 50", order.FilledQuantity, order.AverageFillPrice)
	}
	if order.Side != models.OrderSideBuy || order.Status != models.OrderStatusFilled {
		t.Errorf("unexpected order side/status: %s/%s", order.Side, order.Status)
	}

	got := reloadAccount(t, db, account.ID)
	if got.CurrentBalance != 94995 {
		t.Errorf("balance = %v, want 94995", got.CurrentBalance)
	}

	position := loadPosition(t, db, account.ID, "600519")
	if position.Quantity != 100 || position.AverageCost != 50 {
		t.Errorf("position = %v @ %v, want 100 @ 50", position.Quantity, position.AverageCost)
	}
	if position.MarketValue != 5000 {
		t.Errorf("market value = %v, want 5000", position.MarketValue)
	}
}

func TestApplySignalBuyInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, zap.NewNop())
	account := newTestAccount(t, db, 1000)
	ctx := context.Background()

	signal := Signal{Action: SignalActionBuy, Quantity: 100, Time: testNow}
	order, err := ledger.ApplySignal(ctx, account, "task1", "600519", signal, 100, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if order != nil {
		t.Fatal("expected buy to be rejected")
	}

	got := reloadAccount(t, db, account.ID)
	if got.CurrentBalance != 1000 {
		t.Errorf("balance changed to %v on rejected buy", got.CurrentBalance)
	}
	if n := countOrders(t, db); n != 0 {
		t.Errorf("expected no orders, got %d", n)
	}
}

func TestApplySignalBuyZeroQuantity(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, zap.NewNop())
	account := newTestAccount(t, db, 100000)
	ctx := context.Background()

	signal := Signal{Action: SignalActionBuy, Quantity: 0, Time: testNow}
	order, err := ledger.ApplySignal(ctx, account, "task1", "600519", signal, 50, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if order != nil {
		t.Fatal("expected zero-quantity buy to be rejected")
	}
}

func TestApplySignalBuyRebasesExistingPosition(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, zap.NewNop())
	account := newTestAccount(t, db, 100000)
	ctx := context.Background()

	first := Signal{Action: SignalActionBuy, Quantity: 50, Time: testNow}
	if _, err := ledger.ApplySignal(ctx, account, "task1", "600519", first, 40, testNow); err != nil {
		t.Fatal(err)
	}

	second := Signal{Action: SignalActionBuy, Quantity: 100, Time: testNow.Add(time.Minute)}
	if _, err := ledger.ApplySignal(ctx, account, "task1", "600519", second, 50, testNow.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	// 重复买入直接重置持仓，不做成本摊薄
	position := loadPosition(t, db, account.ID, "600519")
	if position.Quantity != 100 || position.AverageCost != 50 {
		t.Errorf("position = %v @ %v, want rebased 100 @ 50", position.Quantity, position.AverageCost)
	}
}

func TestApplySignalSellPartial(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, zap.NewNop())
	account := newTestAccount(t, db, 100000)
	ctx := context.Background()

	buy := Signal{Action: SignalActionBuy, Quantity: 100, Time: testNow}
	if _, err := ledger.ApplySignal(ctx, account, "task1", "600519", buy, 50, testNow); err != nil {
		t.Fatal(err)
	}
	balanceAfterBuy := reloadAccount(t, db, account.ID).CurrentBalance

	sell := Signal{Action: SignalActionSell, Quantity: 50, Time: testNow.Add(time.Minute)}
	order, err := ledger.ApplySignal(ctx, account, "task1", "600519", sell, 60, testNow.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if order == nil {
		t.Fatal("expected a sell order")
	}

	// 手续费 max(5, 50*60*0.001) = 5，净入账 2995，已实现盈亏 2995 - 50*50 = 495
	got := reloadAccount(t, db, account.ID)
	if got.CurrentBalance != balanceAfterBuy+2995 {
		t.Errorf("balance = %v, want %v", got.CurrentBalance, balanceAfterBuy+2995)
	}

	position := loadPosition(t, db, account.ID, "600519")
	if position.Quantity != 50 {
		t.Errorf("remaining quantity = %v, want 50", position.Quantity)
	}
	if position.RealizedPnl != 495 {
		t.Errorf("realized pnl = %v, want 495", position.RealizedPnl)
	}
	if position.AverageCost != 50 {
		t.Errorf("average cost = %v, want unchanged 50", position.AverageCost)
	}
}

func TestApplySignalSellMoreThanHeld(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, zap.NewNop())
	account := newTestAccount(t, db, 100000)
	ctx := context.Background()

	buy := Signal{Action: SignalActionBuy, Quantity: 100, Time: testNow}
	if _, err := ledger.ApplySignal(ctx, account, "task1", "600519", buy, 50, testNow); err != nil {
		t.Fatal(err)
	}

	sell := Signal{Action: SignalActionSell, Quantity: 200, Time: testNow.Add(time.Minute)}
	order, err := ledger.ApplySignal(ctx, account, "task1", "600519", sell, 60, testNow.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if order == nil || order.FilledQuantity != 100 {
		t.Fatalf("expected sell clamped to 100, got %+v", order)
	}

	position := loadPosition(t, db, account.ID, "600519")
	if !position.IsFlat() {
		t.Errorf("expected flat position, got quantity %v", position.Quantity)
	}
	if position.MarketValue != 0 || position.UnrealizedPnl != 0 {
		t.Errorf("flat position should have zero valuation, got mv=%v upnl=%v", position.MarketValue, position.UnrealizedPnl)
	}
}

func TestApplySignalSellFullWithZeroQuantity(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, zap.NewNop())
	account := newTestAccount(t, db, 100000)
	ctx := context.Background()

	buy := Signal{Action: SignalActionBuy, Quantity: 100, Time: testNow}
	if _, err := ledger.ApplySignal(ctx, account, "task1", "600519", buy, 50, testNow); err != nil {
		t.Fatal(err)
	}

	// 数量为 0 的卖出信号表示清仓
	sell := Signal{Action: SignalActionSell, Quantity: 0, Time: testNow.Add(time.Minute)}
	order, err := ledger.ApplySignal(ctx, account, "task1", "600519", sell, 60, testNow.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if order == nil || order.FilledQuantity != 100 {
		t.Fatalf("expected full liquidation of 100, got %+v", order)
	}
}

func TestApplySignalSellWithoutPosition(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, zap.NewNop())
	account := newTestAccount(t, db, 100000)
	ctx := context.Background()

	sell := Signal{Action: SignalActionSell, Quantity: 50, Time: testNow}
	order, err := ledger.ApplySignal(ctx, account, "task1", "600519", sell, 60, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if order != nil {
		t.Fatal("expected sell without position to be a no-op")
	}
	if n := countOrders(t, db); n != 0 {
		t.Errorf("expected no orders, got %d", n)
	}
}

func TestApplySignalHoldIsNoop(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, zap.NewNop())
	account := newTestAccount(t, db, 100000)
	ctx := context.Background()

	hold := Signal{Action: SignalActionHold, Time: testNow}
	order, err := ledger.ApplySignal(ctx, account, "task1", "600519", hold, 50, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if order != nil {
		t.Fatal("hold should not produce an order")
	}
}

func TestApplySignalDeduplicatesBySignalTime(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, zap.NewNop())
	account := newTestAccount(t, db, 100000)
	ctx := context.Background()

	signal := Signal{Action: SignalActionBuy, Quantity: 100, Time: testNow}
	if _, err := ledger.ApplySignal(ctx, account, "task1", "600519", signal, 50, testNow); err != nil {
		t.Fatal(err)
	}

	// 同一信号重放不应再次成交
	order, err := ledger.ApplySignal(ctx, account, "task1", "600519", signal, 50, testNow.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if order != nil {
		t.Fatal("expected replayed signal to be skipped")
	}
	if n := countOrders(t, db); n != 1 {
		t.Errorf("expected exactly 1 order, got %d", n)
	}
}

func TestApplySignalRollsBackPartialWrites(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, zap.NewNop())
	account := newTestAccount(t, db, 100000)
	ctx := context.Background()

	// 持仓表缺失让买入在扣款之后失败，扣掉的余额必须随之回滚
	if err := db.Migrator().DropTable(&models.TradePosition{}); err != nil {
		t.Fatal(err)
	}

	signal := Signal{Action: SignalActionBuy, Quantity: 100, Time: testNow}
	if _, err := ledger.ApplySignal(ctx, account, "task1", "600519", signal, 50, testNow); err == nil {
		t.Fatal("expected an error")
	}

	if account.CurrentBalance != 100000 {
		t.Errorf("in-memory balance = %v, want 100000", account.CurrentBalance)
	}
	if got := reloadAccount(t, db, account.ID); got.CurrentBalance != 100000 {
		t.Errorf("balance = %v, want 100000", got.CurrentBalance)
	}
	if n := countOrders(t, db); n != 0 {
		t.Errorf("expected no orders, got %d", n)
	}

	// 没有留下半套状态，恢复后同一信号可以完整重放，资金只扣一次
	if err := db.AutoMigrate(models.TradePosition{}); err != nil {
		t.Fatal(err)
	}
	order, err := ledger.ApplySignal(ctx, account, "task1", "600519", signal, 50, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if order == nil {
		t.Fatal("expected an order")
	}
	if got := reloadAccount(t, db, account.ID); got.CurrentBalance != 94995 {
		t.Errorf("balance = %v, want 94995", got.CurrentBalance)
	}
}

func TestApplySignalFailureKeepsOuterTransactionUsable(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, zap.NewNop())
	account := newTestAccount(t, db, 100000)
	ctx := context.Background()

	if err := db.Migrator().DropTable(&models.TradePosition{}); err != nil {
		t.Fatal(err)
	}

	// 外层事务里单个信号失败走保存点回滚，事务本身仍然可以提交
	err := ledger.Transaction(ctx, func(ctx context.Context) error {
		signal := Signal{Action: SignalActionBuy, Quantity: 100, Time: testNow}
		if _, err := ledger.ApplySignal(ctx, account, "task1", "600519", signal, 50, testNow); err == nil {
			t.Error("expected an error")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := reloadAccount(t, db, account.ID); got.CurrentBalance != 100000 {
		t.Errorf("balance = %v, want 100000", got.CurrentBalance)
	}
	if n := countOrders(t, db); n != 0 {
		t.Errorf("expected no orders, got %d", n)
	}
}

func TestRefreshValuations(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, zap.NewNop())
	account := newTestAccount(t, db, 100000)
	ctx := context.Background()

	buy := Signal{Action: SignalActionBuy, Quantity: 100, Time: testNow}
	if _, err := ledger.ApplySignal(ctx, account, "task1", "600519", buy, 50, testNow); err != nil {
		t.Fatal(err)
	}

	later := testNow.Add(time.Hour)
	if err := ledger.RefreshValuations(ctx, "600519", 55, later); err != nil {
		t.Fatal(err)
	}

	position := loadPosition(t, db, account.ID, "600519")
	if position.CurrentPrice != 55 || position.MarketValue != 5500 {
		t.Errorf("valuation = %v / %v, want 55 / 5500", position.CurrentPrice, position.MarketValue)
	}
	if position.UnrealizedPnl != 500 {
		t.Errorf("unrealized pnl = %v, want 500", position.UnrealizedPnl)
	}
}
