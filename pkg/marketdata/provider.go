package marketdata

import "context"

// Provider 行情数据源接口，核心流程只依赖这三种能力
type Provider interface {
	// GetKlines 获取K线数据，按时间从旧到新排列
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*Kline, error)
	// GetLastPrice 获取最新成交价
	GetLastPrice(ctx context.Context, symbol string) (float64, error)
	// GetSymbolInfo 获取标的基础信息
	GetSymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error)
}
