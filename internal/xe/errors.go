package xe

import "github.com/go-orz/orz"

var (
	ErrInvalidParams      = orz.NewError(10400, "参数无效")
	ErrAccountNotFound    = orz.NewError(10000, "交易账户不存在")
	ErrAccountNotActive   = orz.NewError(10001, "交易账户不可用")
	ErrAccountNumberUsed  = orz.NewError(10002, "账户号码已被使用")
	ErrStrategyNotFound   = orz.NewError(10003, "策略不存在")
	ErrTaskNotFound       = orz.NewError(10004, "交易任务不存在")
	ErrTaskAlreadyActive  = orz.NewError(10005, "交易任务已在运行中")
	ErrTaskNotActive      = orz.NewError(10006, "交易任务未在运行")
	ErrInstrumentNotFound = orz.NewError(10007, "标的不存在")
	ErrPassInProgress     = orz.NewError(10008, "上一轮评估尚未结束")
)
