package telegram

import (
	"fmt"
	"time"

	"github.com/GodLucas1/AIQuant/internal/config"
	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Notifier 通过 Telegram 推送交易通知
// 未启用时为 nil，所有方法对 nil 接收者安全，调用方无需判空
type Notifier struct {
	logger *zap.Logger
	conf   config.TelegramConf
	client *tele.Bot
}

// NewNotifier 创建通知器，配置未启用时返回 nil
func NewNotifier(conf config.TelegramConf, logger *zap.Logger) (*Notifier, error) {
	if !conf.Enabled {
		return nil, nil
	}

	client, err := tele.NewBot(tele.Settings{
		ParseMode: tele.ModeMarkdown,
		Token:     conf.Token,
		Poller:    &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}

	return &Notifier{
		logger: logger,
		conf:   conf,
		client: client,
	}, nil
}

// NotifyOrderFilled 推送成交通知
func (r *Notifier) NotifyOrderFilled(account *models.TradingAccount, order *models.TradeOrder) {
	if r == nil {
		return
	}

	var action string
	if order.Side == models.OrderSideBuy {
		action = "买入"
	} else {
		action = "卖出"
	}

	msg := fmt.Sprintf("*订单成交*\n账户: %s\n标的: %s\n方向: %s\n数量: %.0f\n价格: %.2f\n手续费: %.2f\n余额: %.2f",
		account.AccountNumber, order.Symbol, action,
		order.FilledQuantity, order.AverageFillPrice, order.Commission, account.CurrentBalance)
	r.send(msg)
}

// NotifyError 推送后台作业失败告警
func (r *Notifier) NotifyError(job string, err error) {
	if r == nil {
		return
	}
	r.send(fmt.Sprintf("*作业失败*\n作业: %s\n错误: %s", job, err.Error()))
}

func (r *Notifier) send(msg string) {
	chatId := cast.ToInt64(r.conf.ChatID)
	_, err := r.client.Send(tele.ChatID(chatId), msg, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	if err != nil {
		r.logger.Error("failed to send telegram message", zap.Error(err))
	}
}
