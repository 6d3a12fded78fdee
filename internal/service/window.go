package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// scheduleDailyPrefix 交易时段描述符的固定前缀
// 合法格式形如 "daily 09:30-15:00"，按交易所时区的本地时间解释，区间两端闭合
const scheduleDailyPrefix = "daily"

// TradingWindowGate 交易时段闸门
// 只有当前时间落在任务声明的每日时段内才放行评估，
// 描述符缺失或无法解析一律拒绝（fail-closed），不向上抛错
type TradingWindowGate struct {
	logger   *zap.Logger
	location *time.Location
}

// NewTradingWindowGate 创建交易时段闸门
func NewTradingWindowGate(location *time.Location, logger *zap.Logger) *TradingWindowGate {
	return &TradingWindowGate{
		logger:   logger,
		location: location,
	}
}

// Admit 判断当前时间是否在交易时段内
func (g *TradingWindowGate) Admit(schedule string, now time.Time) bool {
	startMinute, endMinute, err := ParseDailyWindow(schedule)
	if err != nil {
		g.logger.Warn("invalid schedule descriptor, denying execution",
			zap.String("schedule", schedule),
			zap.Error(err))
		return false
	}

	local := now.In(g.location)
	nowMinute := local.Hour()*60 + local.Minute()

	return startMinute <= nowMinute && nowMinute <= endMinute
}

// ParseDailyWindow 解析每日交易时段描述符，返回起止时间（按当日第几分钟计）
func ParseDailyWindow(schedule string) (startMinute, endMinute int, err error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return 0, 0, fmt.Errorf("schedule is empty")
	}

	rest, ok := strings.CutPrefix(schedule, scheduleDailyPrefix)
	if !ok {
		return 0, 0, fmt.Errorf("schedule %q does not start with %q", schedule, scheduleDailyPrefix)
	}

	parts := strings.Split(strings.TrimSpace(rest), "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("schedule %q is not a HH:MM-HH:MM range", schedule)
	}

	startMinute, err = parseMinuteOfDay(parts[0])
	if err != nil {
		return 0, 0, err
	}
	endMinute, err = parseMinuteOfDay(parts[1])
	if err != nil {
		return 0, 0, err
	}

	if endMinute < startMinute {
		return 0, 0, fmt.Errorf("schedule %q ends before it starts", schedule)
	}

	return startMinute, endMinute, nil
}

func parseMinuteOfDay(s string) (int, error) {
	fields := strings.Split(strings.TrimSpace(s), ":")
	if len(fields) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}

	hour, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}

	return hour*60 + minute, nil
}
