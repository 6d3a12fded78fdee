package config

type Config struct {
	Trading  TradingConf  `json:"trading"`
	Binance  BinanceConf  `json:"binance"`
	Telegram TelegramConf `json:"telegram"`
}

type TradingConf struct {
	Timezone               string `json:"timezone"`                 // 交易时段时区，默认 Asia/Shanghai
	HistoryLookback        int    `json:"history_lookback"`         // 策略评估取用的K线数量，默认100
	BarInterval            string `json:"bar_interval"`             // K线周期，默认 1h
	StrategyTimeoutSeconds int    `json:"strategy_timeout_seconds"` // 单次策略求值超时，默认5
}

type BinanceConf struct {
	APIKey   string `json:"api_key"`
	Secret   string `json:"secret"`
	ProxyURL string `json:"proxy_url"` // 代理地址，例如: http://127.0.0.1:7890
	Testnet  bool   `json:"testnet"`   // 是否使用测试网
}

type TelegramConf struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  string `json:"chat_id"`
}
