package service

import (
	"context"
	"fmt"
	"time"

	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/GodLucas1/AIQuant/pkg/ta"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// 规则环境里 MACD 的固定参数
const (
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
)

// SignalAction 信号动作
type SignalAction string

const (
	SignalActionBuy  SignalAction = "buy"
	SignalActionSell SignalAction = "sell"
	SignalActionHold SignalAction = "hold"
)

// Signal 策略对单根K线给出的交易指令
// 每轮评估只有序列中最后一个信号会被执行
type Signal struct {
	Action   SignalAction `json:"action"`
	Quantity float64      `json:"quantity"` // 0 表示按默认规则：买入拒绝，卖出清仓
	Time     time.Time    `json:"time"`     // 信号所在K线时间
}

// Bar 策略评估使用的K线，按时间从旧到新排列
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// SignalService 策略信号求值服务
// 策略逻辑被限制为价格序列和参数上的纯函数：内置策略按名称分发，
// 规则策略在固定指标环境里求布尔表达式，两者都没有任何进程权限，
// 且整体受超时约束，防止单个策略阻塞调度
type SignalService struct {
	logger  *zap.Logger
	timeout time.Duration
}

// NewSignalService 创建信号服务
func NewSignalService(timeout time.Duration, logger *zap.Logger) *SignalService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SignalService{
		logger:  logger,
		timeout: timeout,
	}
}

// GenerateSignals 对一组K线求值策略，返回与K线对齐的信号序列
// 历史长度不足时返回空序列；策略本身出错返回错误，由调用方按标的隔离
func (s *SignalService) GenerateSignals(ctx context.Context, strategy *models.Strategy,
	bars []Bar, parameters map[string]interface{}) ([]Signal, error) {

	if len(bars) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		signals []Signal
		err     error
	}

	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("strategy evaluation panic: %v", r)}
			}
		}()

		signals, err := s.evaluate(strategy, bars, parameters)
		ch <- result{signals: signals, err: err}
	}()

	select {
	case r := <-ch:
		return r.signals, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("strategy %s evaluation timed out: %w", strategy.ID, ctx.Err())
	}
}

func (s *SignalService) evaluate(strategy *models.Strategy, bars []Bar,
	parameters map[string]interface{}) ([]Signal, error) {

	params := mergeParameters(strategy.Parameters, parameters)

	switch strategy.Kind {
	case models.StrategyKindBuiltin:
		builtin, ok := builtinStrategies[strategy.Builtin]
		if !ok {
			return nil, fmt.Errorf("unknown builtin strategy %q", strategy.Builtin)
		}
		return builtin(bars, params), nil
	case models.StrategyKindRule:
		return s.evaluateRules(strategy, bars, params)
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", strategy.Kind)
	}
}

// mergeParameters 任务参数覆盖策略默认参数
func mergeParameters(defaults, overrides map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// evaluateRules 求值规则策略：买卖条件为布尔表达式，
// 环境只暴露每根K线的价格、常用指标和参数包
func (s *SignalService) evaluateRules(strategy *models.Strategy, bars []Bar,
	params map[string]interface{}) ([]Signal, error) {

	buyProgram, err := compileRule(strategy.BuyRule)
	if err != nil {
		return nil, fmt.Errorf("buy rule: %w", err)
	}
	sellProgram, err := compileRule(strategy.SellRule)
	if err != nil {
		return nil, fmt.Errorf("sell rule: %w", err)
	}

	fastPeriod := intParam(params, "fast_period", 5)
	slowPeriod := intParam(params, "slow_period", 20)
	rsiPeriod := intParam(params, "rsi_period", 14)
	quantity := cast.ToFloat64(params["quantity"])

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	smaFast := ta.SMA(closes, fastPeriod)
	smaSlow := ta.SMA(closes, slowPeriod)
	emaFast := ta.EMA(closes, fastPeriod)
	emaSlow := ta.EMA(closes, slowPeriod)
	rsi := ta.RSI(closes, rsiPeriod)
	macd, macdSignal, macdHist := ta.MACD(closes, macdFastPeriod, macdSlowPeriod, macdSignalPeriod)

	// 指标在暖机区间内没有定义，暖机段的 0 值不能当真实值参与判断：
	// 规则引用到的指标全部就绪之前只输出持有，历史不足以让指标就绪时返回空序列
	referenced, err := referencedIdentifiers(strategy.BuyRule, strategy.SellRule)
	if err != nil {
		return nil, err
	}
	startIndex := ruleStartIndex(referenced, fastPeriod, slowPeriod, rsiPeriod)
	if startIndex >= len(bars) {
		return nil, nil
	}

	at := func(series []float64, i int) float64 {
		if i < len(series) {
			return series[i]
		}
		return 0
	}

	signals := make([]Signal, 0, len(bars))
	for i, bar := range bars {
		if i < startIndex {
			signals = append(signals, Signal{Action: SignalActionHold, Time: bar.Timestamp})
			continue
		}

		prevClose := bar.Close
		if i > 0 {
			prevClose = bars[i-1].Close
		}

		env := map[string]interface{}{
			"open":        bar.Open,
			"high":        bar.High,
			"low":         bar.Low,
			"close":       bar.Close,
			"volume":      bar.Volume,
			"prev_close":  prevClose,
			"sma_fast":    at(smaFast, i),
			"sma_slow":    at(smaSlow, i),
			"ema_fast":    at(emaFast, i),
			"ema_slow":    at(emaSlow, i),
			"rsi":         at(rsi, i),
			"macd":        at(macd, i),
			"macd_signal": at(macdSignal, i),
			"macd_hist":   at(macdHist, i),
			"params":      params,
		}

		signal := Signal{Action: SignalActionHold, Time: bar.Timestamp}

		if buy, err := runRule(buyProgram, env); err != nil {
			return nil, fmt.Errorf("buy rule at bar %d: %w", i, err)
		} else if buy {
			signal.Action = SignalActionBuy
			signal.Quantity = quantity
		} else if sell, err := runRule(sellProgram, env); err != nil {
			return nil, fmt.Errorf("sell rule at bar %d: %w", i, err)
		} else if sell {
			signal.Action = SignalActionSell
		}

		signals = append(signals, signal)
	}

	return signals, nil
}

func compileRule(rule string) (*vm.Program, error) {
	if rule == "" {
		return nil, nil
	}
	return expr.Compile(rule, expr.AsBool())
}

func runRule(program *vm.Program, env map[string]interface{}) (bool, error) {
	if program == nil {
		return false, nil
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	triggered, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("rule did not evaluate to a boolean")
	}
	return triggered, nil
}

// referencedIdentifiers 解析规则表达式引用到的全部标识符
func referencedIdentifiers(rules ...string) (map[string]bool, error) {
	names := make(identCollector)
	for _, rule := range rules {
		if rule == "" {
			continue
		}
		tree, err := parser.Parse(rule)
		if err != nil {
			return nil, err
		}
		ast.Walk(&tree.Node, names)
	}
	return names, nil
}

type identCollector map[string]bool

func (c identCollector) Visit(node *ast.Node) {
	if ident, ok := (*node).(*ast.IdentifierNode); ok {
		c[ident.Value] = true
	}
}

// ruleStartIndex 返回规则引用的指标全部就绪的首根K线下标
// 只用价格字段的规则从第一根K线就可求值
func ruleStartIndex(referenced map[string]bool, fastPeriod, slowPeriod, rsiPeriod int) int {
	ready := map[string]int{
		"sma_fast":    fastPeriod - 1,
		"ema_fast":    fastPeriod - 1,
		"sma_slow":    slowPeriod - 1,
		"ema_slow":    slowPeriod - 1,
		"rsi":         rsiPeriod,
		"macd":        macdSlowPeriod + macdSignalPeriod,
		"macd_signal": macdSlowPeriod + macdSignalPeriod,
		"macd_hist":   macdSlowPeriod + macdSignalPeriod,
	}

	start := 0
	for name, index := range ready {
		if referenced[name] && index > start {
			start = index
		}
	}
	return start
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	n := cast.ToInt(v)
	if n <= 0 {
		return fallback
	}
	return n
}
