package internal

import (
	"time"

	"go.uber.org/zap"

	"github.com/GodLucas1/AIQuant/internal/config"
	"github.com/GodLucas1/AIQuant/internal/service"
	"github.com/GodLucas1/AIQuant/internal/telegram"
	"github.com/GodLucas1/AIQuant/pkg/marketdata"
)

const defaultTimezone = "Asia/Shanghai"

func provideTradingConf(conf *config.Config) config.TradingConf {
	return conf.Trading
}

// provideLocation 解析交易时区，解析失败时退回默认时区
func provideLocation(conf *config.Config, logger *zap.Logger) *time.Location {
	timezone := conf.Trading.Timezone
	if timezone == "" {
		timezone = defaultTimezone
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn("invalid timezone, falling back to default",
			zap.String("timezone", timezone), zap.Error(err))
		location, _ = time.LoadLocation(defaultTimezone)
	}
	return location
}

// provideMarketProvider 创建行情数据源
func provideMarketProvider(conf *config.Config, logger *zap.Logger) marketdata.Provider {
	if conf.Binance.APIKey == "" || conf.Binance.Secret == "" {
		logger.Warn("Binance API credentials not configured; some private endpoints may fail")
	}

	logger.Info("Binance market data provider initialized",
		zap.Bool("testnet", conf.Binance.Testnet),
		zap.Bool("has_credentials", conf.Binance.APIKey != "" && conf.Binance.Secret != ""),
	)
	return marketdata.NewBinanceProvider(
		conf.Binance.APIKey,
		conf.Binance.Secret,
		conf.Binance.ProxyURL,
		conf.Binance.Testnet,
	)
}

// provideSignalService 按配置的超时创建信号服务
func provideSignalService(conf *config.Config, logger *zap.Logger) *service.SignalService {
	timeout := time.Duration(conf.Trading.StrategyTimeoutSeconds) * time.Second
	return service.NewSignalService(timeout, logger)
}

// provideNotifier 创建 Telegram 通知器，未启用时为 nil
func provideNotifier(conf *config.Config, logger *zap.Logger) *telegram.Notifier {
	notifier, err := telegram.NewNotifier(conf.Telegram, logger)
	if err != nil {
		logger.Error("failed to init telegram notifier", zap.Error(err))
		return nil
	}
	return notifier
}
