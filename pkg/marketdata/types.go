package marketdata

import "time"

// 通用行情类型定义，独立于任何特定数据源
// 这样可以方便地支持多个数据源（币安、OKX、Bybit等）

// Kline K线数据
type Kline struct {
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// SymbolInfo 标的信息
type SymbolInfo struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	Status     string
}
