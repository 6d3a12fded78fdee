package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
)

// BinanceProvider 币安现货行情客户端
type BinanceProvider struct {
	client         *binance.Client
	symbolInfoMap  map[string]*SymbolInfo
	symbolInfoLock sync.RWMutex
}

var _ Provider = (*BinanceProvider)(nil)

// NewBinanceProvider 创建币安行情客户端
func NewBinanceProvider(apiKey, secretKey, proxyURL string, testnet bool) *BinanceProvider {
	var client *binance.Client
	if proxyURL != "" {
		client = binance.NewProxiedClient(apiKey, secretKey, proxyURL)
	} else {
		client = binance.NewClient(apiKey, secretKey)
	}

	if testnet {
		binance.UseTestnet = true
	}

	return &BinanceProvider{
		client:        client,
		symbolInfoMap: make(map[string]*SymbolInfo),
	}
}

// GetKlines 获取K线数据
func (b *BinanceProvider) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*Kline, error) {
	klines, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	result := make([]*Kline, 0, len(klines))
	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		closePrice, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		result = append(result, &Kline{
			OpenTime:  time.Unix(k.OpenTime/1000, 0),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			CloseTime: time.Unix(k.CloseTime/1000, 0),
		})
	}

	return result, nil
}

// GetLastPrice 获取最新成交价
func (b *BinanceProvider) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get last price: %w", err)
	}

	if len(prices) == 0 {
		return 0, fmt.Errorf("no price data for symbol %s", symbol)
	}

	price, _ := strconv.ParseFloat(prices[0].Price, 64)
	return price, nil
}

// GetSymbolInfo 获取标的信息
func (b *BinanceProvider) GetSymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error) {
	// 标的基础信息几乎不变，进程内缓存
	b.symbolInfoLock.RLock()
	if info, exists := b.symbolInfoMap[symbol]; exists {
		b.symbolInfoLock.RUnlock()
		return info, nil
	}
	b.symbolInfoLock.RUnlock()

	exchangeInfo, err := b.client.NewExchangeInfoService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange info: %w", err)
	}

	for _, s := range exchangeInfo.Symbols {
		if s.Symbol == symbol {
			info := &SymbolInfo{
				Symbol:     s.Symbol,
				BaseAsset:  s.BaseAsset,
				QuoteAsset: s.QuoteAsset,
				Status:     s.Status,
			}

			b.symbolInfoLock.Lock()
			b.symbolInfoMap[symbol] = info
			b.symbolInfoLock.Unlock()

			return info, nil
		}
	}

	return nil, fmt.Errorf("symbol %s not found", symbol)
}
