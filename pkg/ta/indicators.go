package ta

import (
	talib "github.com/markcheno/go-talib"
)

// 指标计算统一走 go-talib，这里只做薄封装，
// 输入长度不足时返回空切片而不是 panic

// SMA 简单移动平均
func SMA(closes []float64, period int) []float64 {
	if len(closes) < period || period <= 0 {
		return nil
	}
	return talib.Sma(closes, period)
}

// EMA 指数移动平均
func EMA(closes []float64, period int) []float64 {
	if len(closes) < period || period <= 0 {
		return nil
	}
	return talib.Ema(closes, period)
}

// RSI 相对强弱指标
func RSI(closes []float64, period int) []float64 {
	if len(closes) <= period || period <= 0 {
		return nil
	}
	return talib.Rsi(closes, period)
}

// MACD 指数平滑异同平均线，返回 macd、signal、histogram 三条序列
func MACD(closes []float64, fast, slow, signal int) ([]float64, []float64, []float64) {
	if len(closes) < slow+signal {
		return nil, nil, nil
	}
	return talib.Macd(closes, fast, slow, signal)
}

// ATR 平均真实波幅
func ATR(highs, lows, closes []float64, period int) []float64 {
	if len(closes) <= period || period <= 0 {
		return nil
	}
	return talib.Atr(highs, lows, closes, period)
}
