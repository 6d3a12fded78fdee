package internal

import (
	"context"
	"fmt"
	"net/http"

	"github.com/GodLucas1/AIQuant/internal/config"
	"github.com/GodLucas1/AIQuant/internal/handler"
	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/GodLucas1/AIQuant/internal/service"
	"github.com/GodLucas1/AIQuant/internal/telegram"
	"github.com/GodLucas1/AIQuant/pkg/nostd"
	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewAIQuantApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	return framework.Run()
}

func NewAIQuantApp() orz.Application {
	return &AIQuantApp{}
}

var _ orz.Application = (*AIQuantApp)(nil)

type AppComponents struct {
	TradingHandler *handler.TradingHandler

	Scheduler       *service.Scheduler
	RunnerService   *service.RunnerService
	MarketService   *service.MarketService
	AccountService  *service.AccountService
	StrategyService *service.StrategyService
	TaskService     *service.TaskService

	Notifier *telegram.Notifier
}

type AIQuantApp struct {
	components *AppComponents
	conf       *config.Config
}

// GetComponents 获取应用组件
func (r *AIQuantApp) GetComponents() *AppComponents {
	return r.components
}

func (r *AIQuantApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf

	if err := db.AutoMigrate(
		models.TradingAccount{}, models.Strategy{}, models.TradingTask{},
		models.TradeOrder{}, models.TradePosition{},
		models.Instrument{}, models.PriceBar{},
	); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	if err := r.Init(logger); err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true
	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	api := e.Group("/api")
	{
		if r.components.TradingHandler != nil {
			r.components.TradingHandler.RegisterRoutes(api)
		}
	}

	return nil
}

func (r *AIQuantApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("AIQuant Trading System Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	if components.Scheduler == nil {
		return fmt.Errorf("scheduler not available")
	}

	if err := components.Scheduler.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start scheduler: %v", err)
	}
	return nil
}
