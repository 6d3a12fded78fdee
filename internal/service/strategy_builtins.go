package service

import (
	"github.com/GodLucas1/AIQuant/pkg/ta"
	"github.com/spf13/cast"
)

// builtinStrategy 内置策略：输入K线和参数，输出与K线对齐的信号序列
// 历史长度不足以计算指标时返回 nil
type builtinStrategy func(bars []Bar, params map[string]interface{}) []Signal

// builtinStrategies 内置策略注册表
var builtinStrategies = map[string]builtinStrategy{
	"sma_cross":     smaCrossStrategy,
	"rsi_reversion": rsiReversionStrategy,
	"macd_cross":    macdCrossStrategy,
	"breakout":      breakoutStrategy,
}

// BuiltinStrategyNames 返回全部内置策略名称，供API展示
func BuiltinStrategyNames() []string {
	names := make([]string, 0, len(builtinStrategies))
	for name := range builtinStrategies {
		names = append(names, name)
	}
	return names
}

func closesOf(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func holdSignals(bars []Bar) []Signal {
	signals := make([]Signal, len(bars))
	for i, b := range bars {
		signals[i] = Signal{Action: SignalActionHold, Time: b.Timestamp}
	}
	return signals
}

// smaCrossStrategy 双均线交叉：快线上穿慢线买入，下穿卖出
func smaCrossStrategy(bars []Bar, params map[string]interface{}) []Signal {
	fastPeriod := intParam(params, "fast_period", 5)
	slowPeriod := intParam(params, "slow_period", 20)
	quantity := cast.ToFloat64(params["quantity"])

	warmup := slowPeriod
	if fastPeriod > warmup {
		warmup = fastPeriod
	}
	if len(bars) <= warmup {
		return nil
	}

	closes := closesOf(bars)
	fast := ta.SMA(closes, fastPeriod)
	slow := ta.SMA(closes, slowPeriod)

	signals := holdSignals(bars)
	for i := warmup; i < len(bars); i++ {
		if ta.Crossover(fast[:i+1], slow[:i+1]) {
			signals[i].Action = SignalActionBuy
			signals[i].Quantity = quantity
		} else if ta.Crossunder(fast[:i+1], slow[:i+1]) {
			signals[i].Action = SignalActionSell
		}
	}
	return signals
}

// rsiReversionStrategy RSI超买超卖反转：低于买入阈值买入，高于卖出阈值卖出
func rsiReversionStrategy(bars []Bar, params map[string]interface{}) []Signal {
	period := intParam(params, "rsi_period", 14)
	buyThreshold := floatParam(params, "buy_threshold", 30)
	sellThreshold := floatParam(params, "sell_threshold", 70)
	quantity := cast.ToFloat64(params["quantity"])

	if len(bars) <= period {
		return nil
	}

	rsi := ta.RSI(closesOf(bars), period)

	signals := holdSignals(bars)
	for i := period; i < len(bars); i++ {
		if rsi[i] < buyThreshold {
			signals[i].Action = SignalActionBuy
			signals[i].Quantity = quantity
		} else if rsi[i] > sellThreshold {
			signals[i].Action = SignalActionSell
		}
	}
	return signals
}

// macdCrossStrategy MACD金叉死叉
func macdCrossStrategy(bars []Bar, params map[string]interface{}) []Signal {
	fastPeriod := intParam(params, "fast_period", 12)
	slowPeriod := intParam(params, "slow_period", 26)
	signalPeriod := intParam(params, "signal_period", 9)
	quantity := cast.ToFloat64(params["quantity"])

	warmup := slowPeriod + signalPeriod
	if fastPeriod+signalPeriod > warmup {
		warmup = fastPeriod + signalPeriod
	}
	if len(bars) <= warmup {
		return nil
	}

	macd, macdSignal, _ := ta.MACD(closesOf(bars), fastPeriod, slowPeriod, signalPeriod)
	if macd == nil {
		return nil
	}

	signals := holdSignals(bars)
	for i := warmup; i < len(bars); i++ {
		if ta.Crossover(macd[:i+1], macdSignal[:i+1]) {
			signals[i].Action = SignalActionBuy
			signals[i].Quantity = quantity
		} else if ta.Crossunder(macd[:i+1], macdSignal[:i+1]) {
			signals[i].Action = SignalActionSell
		}
	}
	return signals
}

// breakoutStrategy 通道突破：收盘价突破前N根最高价买入，跌破前N根最低价卖出
func breakoutStrategy(bars []Bar, params map[string]interface{}) []Signal {
	lookback := intParam(params, "lookback", 20)
	quantity := cast.ToFloat64(params["quantity"])

	if len(bars) <= lookback {
		return nil
	}

	signals := holdSignals(bars)
	for i := lookback; i < len(bars); i++ {
		highs := make([]float64, 0, lookback)
		lows := make([]float64, 0, lookback)
		for j := i - lookback; j < i; j++ {
			highs = append(highs, bars[j].High)
			lows = append(lows, bars[j].Low)
		}

		if bars[i].Close > ta.Highest(highs, lookback) {
			signals[i].Action = SignalActionBuy
			signals[i].Quantity = quantity
		} else if bars[i].Close < ta.Lowest(lows, lookback) {
			signals[i].Action = SignalActionSell
		}
	}
	return signals
}

func floatParam(params map[string]interface{}, key string, fallback float64) float64 {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	return cast.ToFloat64(v)
}
