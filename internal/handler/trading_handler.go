package handler

import (
	"net/http"

	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/GodLucas1/AIQuant/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// TradingHandler 交易系统HTTP处理器
type TradingHandler struct {
	accountService  *service.AccountService
	strategyService *service.StrategyService
	taskService     *service.TaskService
	marketService   *service.MarketService
	runnerService   *service.RunnerService
	scheduler       *service.Scheduler
	logger          *zap.Logger
}

// NewTradingHandler 创建交易处理器
func NewTradingHandler(
	accountService *service.AccountService,
	strategyService *service.StrategyService,
	taskService *service.TaskService,
	marketService *service.MarketService,
	runnerService *service.RunnerService,
	scheduler *service.Scheduler,
	logger *zap.Logger,
) *TradingHandler {
	return &TradingHandler{
		accountService:  accountService,
		strategyService: strategyService,
		taskService:     taskService,
		marketService:   marketService,
		runnerService:   runnerService,
		scheduler:       scheduler,
		logger:          logger,
	}
}

// RegisterRoutes 注册路由
func (h *TradingHandler) RegisterRoutes(g *echo.Group) {
	trading := g.Group("/trading")

	// 账户
	trading.GET("/accounts", h.GetAccounts)
	trading.POST("/accounts", h.CreateAccount)
	trading.GET("/accounts/:id", h.GetAccountDetail)
	trading.GET("/accounts/:id/orders", h.GetAccountOrders)
	trading.GET("/accounts/:id/positions", h.GetAccountPositions)

	// 策略
	trading.GET("/strategies", h.GetStrategies)
	trading.POST("/strategies", h.CreateStrategy)
	trading.PUT("/strategies/:id", h.UpdateStrategy)
	trading.DELETE("/strategies/:id", h.DeleteStrategy)
	trading.GET("/strategies/builtins", h.GetBuiltinStrategies)

	// 任务
	trading.GET("/tasks", h.GetTasks)
	trading.POST("/tasks", h.CreateTask)
	trading.GET("/tasks/:id", h.GetTaskDetail)
	trading.PUT("/tasks/:id", h.UpdateTask)
	trading.DELETE("/tasks/:id", h.DeleteTask)
	trading.POST("/tasks/:id/start", h.StartTask)
	trading.POST("/tasks/:id/stop", h.StopTask)

	// 行情
	trading.GET("/instruments", h.GetInstruments)
	trading.GET("/instruments/:symbol/history", h.GetPriceHistory)

	// 调度
	trading.GET("/scheduler/status", h.GetSchedulerStatus)
	trading.POST("/scheduler/run-now", h.RunNow)
}

// GetAccounts 获取账户列表
// GET /api/trading/accounts
func (h *TradingHandler) GetAccounts(c echo.Context) error {
	ctx := c.Request().Context()
	accounts, err := h.accountService.FindAll(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accounts)
}

type createAccountRequest struct {
	Name           string  `json:"name" validate:"required,max=64"`
	Broker         string  `json:"broker" validate:"max=64"`
	AccountNumber  string  `json:"account_number" validate:"max=64"`
	InitialBalance float64 `json:"initial_balance" validate:"gte=0"`
}

// CreateAccount 创建账户
// POST /api/trading/accounts
func (h *TradingHandler) CreateAccount(c echo.Context) error {
	var req createAccountRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	account := models.TradingAccount{
		Name:           req.Name,
		Broker:         req.Broker,
		AccountNumber:  req.AccountNumber,
		InitialBalance: req.InitialBalance,
	}
	if err := h.accountService.CreateAccount(c.Request().Context(), &account); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// GetAccountDetail 获取账户详情，包含持仓和总权益
// GET /api/trading/accounts/:id
func (h *TradingHandler) GetAccountDetail(c echo.Context) error {
	detail, err := h.accountService.GetDetail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

// GetAccountOrders 获取账户的最近订单
// GET /api/trading/accounts/:id/orders
func (h *TradingHandler) GetAccountOrders(c echo.Context) error {
	limit := cast.ToInt(c.QueryParam("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	orders, err := h.accountService.GetOrders(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// GetAccountPositions 获取账户的全部持仓
// GET /api/trading/accounts/:id/positions
func (h *TradingHandler) GetAccountPositions(c echo.Context) error {
	positions, err := h.accountService.GetPositions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, positions)
}

// GetStrategies 获取策略列表
// GET /api/trading/strategies
func (h *TradingHandler) GetStrategies(c echo.Context) error {
	strategies, err := h.strategyService.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, strategies)
}

type strategyRequest struct {
	Name        string                 `json:"name" validate:"required,max=64"`
	Description string                 `json:"description"`
	Kind        string                 `json:"kind" validate:"required,oneof=builtin rule"`
	Builtin     string                 `json:"builtin" validate:"max=32"`
	BuyRule     string                 `json:"buy_rule"`
	SellRule    string                 `json:"sell_rule"`
	Parameters  map[string]interface{} `json:"parameters"`
}

func (req *strategyRequest) toModel() models.Strategy {
	return models.Strategy{
		Name:        req.Name,
		Description: req.Description,
		Kind:        models.StrategyKind(req.Kind),
		Builtin:     req.Builtin,
		BuyRule:     req.BuyRule,
		SellRule:    req.SellRule,
		Parameters:  req.Parameters,
		IsActive:    true,
	}
}

// CreateStrategy 创建策略
// POST /api/trading/strategies
func (h *TradingHandler) CreateStrategy(c echo.Context) error {
	var req strategyRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	strategy := req.toModel()
	if err := h.strategyService.CreateStrategy(c.Request().Context(), &strategy); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, strategy)
}

// UpdateStrategy 更新策略
// PUT /api/trading/strategies/:id
func (h *TradingHandler) UpdateStrategy(c echo.Context) error {
	var req strategyRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	strategy := req.toModel()
	strategy.ID = c.Param("id")
	if err := h.strategyService.UpdateStrategy(c.Request().Context(), &strategy); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, strategy)
}

// DeleteStrategy 删除策略
// DELETE /api/trading/strategies/:id
func (h *TradingHandler) DeleteStrategy(c echo.Context) error {
	if err := h.strategyService.DeleteStrategy(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// GetBuiltinStrategies 获取内置策略名称列表
// GET /api/trading/strategies/builtins
func (h *TradingHandler) GetBuiltinStrategies(c echo.Context) error {
	return c.JSON(http.StatusOK, service.BuiltinStrategyNames())
}

// GetTasks 获取任务列表
// GET /api/trading/tasks
func (h *TradingHandler) GetTasks(c echo.Context) error {
	tasks, err := h.taskService.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

type taskRequest struct {
	Name        string                 `json:"name" validate:"required,max=64"`
	Description string                 `json:"description"`
	StrategyID  string                 `json:"strategy_id" validate:"required"`
	AccountID   string                 `json:"account_id" validate:"required"`
	Symbols     []string               `json:"symbols" validate:"required,min=1"`
	Parameters  map[string]interface{} `json:"parameters"`
	Schedule    string                 `json:"schedule" validate:"max=64"`
}

func (req *taskRequest) toModel() models.TradingTask {
	return models.TradingTask{
		Name:        req.Name,
		Description: req.Description,
		StrategyID:  req.StrategyID,
		AccountID:   req.AccountID,
		Symbols:     datatypes.NewJSONSlice(req.Symbols),
		Parameters:  req.Parameters,
		Schedule:    req.Schedule,
	}
}

// CreateTask 创建任务
// POST /api/trading/tasks
func (h *TradingHandler) CreateTask(c echo.Context) error {
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task := req.toModel()
	if err := h.taskService.CreateTask(c.Request().Context(), &task); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// GetTaskDetail 获取任务详情，包含最近订单
// GET /api/trading/tasks/:id
func (h *TradingHandler) GetTaskDetail(c echo.Context) error {
	detail, err := h.taskService.GetDetail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

// UpdateTask 更新任务
// PUT /api/trading/tasks/:id
func (h *TradingHandler) UpdateTask(c echo.Context) error {
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task := req.toModel()
	task.ID = c.Param("id")
	if err := h.taskService.UpdateTask(c.Request().Context(), &task); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// DeleteTask 删除任务
// DELETE /api/trading/tasks/:id
func (h *TradingHandler) DeleteTask(c echo.Context) error {
	if err := h.taskService.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// StartTask 启动任务
// POST /api/trading/tasks/:id/start
func (h *TradingHandler) StartTask(c echo.Context) error {
	if err := h.taskService.StartTask(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// StopTask 暂停任务
// POST /api/trading/tasks/:id/stop
func (h *TradingHandler) StopTask(c echo.Context) error {
	if err := h.taskService.StopTask(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// GetInstruments 获取全部标的
// GET /api/trading/instruments
func (h *TradingHandler) GetInstruments(c echo.Context) error {
	instruments, err := h.marketService.ListInstruments(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, instruments)
}

// GetPriceHistory 获取某标的的历史K线
// GET /api/trading/instruments/:symbol/history
func (h *TradingHandler) GetPriceHistory(c echo.Context) error {
	limit := cast.ToInt(c.QueryParam("limit"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	bars, err := h.marketService.GetPriceHistory(c.Request().Context(), c.Param("symbol"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bars)
}

// GetSchedulerStatus 获取调度器状态
// GET /api/trading/scheduler/status
func (h *TradingHandler) GetSchedulerStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.Status())
}

// RunNow 立即执行一轮任务评估
// POST /api/trading/scheduler/run-now
func (h *TradingHandler) RunNow(c echo.Context) error {
	if err := h.runnerService.RunOnce(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}
