//go:build wireinject
// +build wireinject

package internal

import (
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GodLucas1/AIQuant/internal/config"
	"github.com/GodLucas1/AIQuant/internal/handler"
	"github.com/GodLucas1/AIQuant/internal/service"
)

var (
	handlerSet = wire.NewSet(
		handler.NewTradingHandler,
	)

	tradingSet = wire.NewSet(
		provideTradingConf,
		provideLocation,
		provideMarketProvider,
		provideSignalService,
		service.NewTradingWindowGate,
		service.NewLedgerService,
		service.NewMarketService,
		service.NewRunnerService,
		service.NewScheduler,
		service.NewAccountService,
		service.NewStrategyService,
		service.NewTaskService,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		handlerSet,
		tradingSet,
		provideNotifier,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}
