package service

import (
	"context"
	"fmt"
	"time"

	"github.com/GodLucas1/AIQuant/internal/telegram"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 后台作业的触发计划，时间按配置的交易时区解释
const (
	cronRefreshInstruments = "0 18 * * 1-5"   // 工作日 18:00 刷新标的元数据
	cronRefreshPrices      = "5 9-16 * * 1-5" // 工作日 9-16 点每小时第 5 分钟刷新价格
	cronRunTasks           = "* 9-15 * * 1-5" // 工作日 9-15 点每分钟评估任务
)

// Scheduler 后台作业调度器
// 三个作业互相独立，任一作业上一次还没跑完时跳过本次触发
type Scheduler struct {
	logger   *zap.Logger
	location *time.Location

	runner   *RunnerService
	market   *MarketService
	notifier *telegram.Notifier

	cron      *cron.Cron
	isRunning bool
}

// NewScheduler 创建调度器
func NewScheduler(location *time.Location, runner *RunnerService, market *MarketService,
	notifier *telegram.Notifier, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger:   logger,
		location: location,
		runner:   runner,
		market:   market,
		notifier: notifier,
	}
}

// Start 启动调度器
func (s *Scheduler) Start(ctx context.Context) error {
	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	cronLogger := &zapCronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"refresh_instruments", cronRefreshInstruments, s.market.RefreshInstruments},
		{"refresh_prices", cronRefreshPrices, s.market.RefreshActivePrices},
		{"run_tasks", cronRunTasks, s.runner.RunOnce},
	}

	for _, job := range jobs {
		job := job
		_, err := s.cron.AddFunc(job.spec, func() {
			if err := job.run(context.Background()); err != nil {
				s.logger.Error("scheduled job failed",
					zap.String("job", job.name), zap.Error(err))
				s.notifier.NotifyError(job.name, err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to add cron job %s: %w", job.name, err)
		}
	}

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("scheduler started",
		zap.String("timezone", s.location.String()),
		zap.String("instruments_cron", cronRefreshInstruments),
		zap.String("prices_cron", cronRefreshPrices),
		zap.String("tasks_cron", cronRunTasks))
	return nil
}

// Stop 停止调度器，等待正在执行的作业结束
func (s *Scheduler) Stop() {
	if !s.isRunning {
		return
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	s.isRunning = false
	s.logger.Info("scheduler stopped")
}

// SchedulerStatus 调度器运行状态
type SchedulerStatus struct {
	Running  bool        `json:"running"`
	Timezone string      `json:"timezone"`
	NextRuns []time.Time `json:"next_runs"`
}

// Status 返回运行状态和各作业的下次触发时间
func (s *Scheduler) Status() SchedulerStatus {
	status := SchedulerStatus{
		Running:  s.isRunning,
		Timezone: s.location.String(),
	}
	if s.cron != nil {
		for _, entry := range s.cron.Entries() {
			status.NextRuns = append(status.NextRuns, entry.Next)
		}
	}
	return status
}

// zapCronLogger 把 cron 的日志接到 zap 上
type zapCronLogger struct {
	logger *zap.Logger
}

func (l *zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Infow(msg, keysAndValues...)
}

func (l *zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
