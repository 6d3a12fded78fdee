package service

import (
	"context"
	"errors"
	"time"

	"github.com/GodLucas1/AIQuant/internal/config"
	"github.com/GodLucas1/AIQuant/internal/models"
	"github.com/GodLucas1/AIQuant/internal/repo"
	"github.com/GodLucas1/AIQuant/internal/xe"
	"github.com/GodLucas1/AIQuant/pkg/marketdata"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MarketService 行情数据维护
// 定时刷新标的元数据和价格，并把最新K线落库供策略评估读取
type MarketService struct {
	logger *zap.Logger

	*orz.Service

	conf     config.TradingConf
	provider marketdata.Provider

	instrumentRepo *repo.InstrumentRepo
	priceBarRepo   *repo.PriceBarRepo
	taskRepo       *repo.TaskRepo

	ledger *LedgerService
}

func NewMarketService(db *gorm.DB, conf config.TradingConf, provider marketdata.Provider,
	ledger *LedgerService, logger *zap.Logger) *MarketService {
	return &MarketService{
		logger:         logger,
		Service:        orz.NewService(db),
		conf:           conf,
		provider:       provider,
		instrumentRepo: repo.NewInstrumentRepo(db),
		priceBarRepo:   repo.NewPriceBarRepo(db),
		taskRepo:       repo.NewTaskRepo(db),
		ledger:         ledger,
	}
}

// ListInstruments 获取全部标的
func (s *MarketService) ListInstruments(ctx context.Context) ([]models.Instrument, error) {
	return s.instrumentRepo.FindAll(ctx)
}

// RefreshInstruments 刷新全部标的的基础信息
// 单个标的失败只记录日志，不影响其余标的
func (s *MarketService) RefreshInstruments(ctx context.Context) error {
	instruments, err := s.instrumentRepo.FindAll(ctx)
	if err != nil {
		return err
	}

	var refreshed int
	for i := range instruments {
		instrument := instruments[i]
		info, err := s.provider.GetSymbolInfo(ctx, instrument.Symbol)
		if err != nil {
			s.logger.Error("failed to fetch symbol info",
				zap.String("symbol", instrument.Symbol), zap.Error(err))
			continue
		}

		instrument.BaseAsset = info.BaseAsset
		instrument.QuoteAsset = info.QuoteAsset
		if instrument.Name == "" {
			instrument.Name = info.Symbol
		}
		if err := s.instrumentRepo.Save(ctx, &instrument); err != nil {
			s.logger.Error("failed to save instrument",
				zap.String("symbol", instrument.Symbol), zap.Error(err))
			continue
		}
		refreshed++
	}

	s.logger.Info("instrument metadata refreshed",
		zap.Int("total", len(instruments)), zap.Int("refreshed", refreshed))
	return nil
}

// RefreshActivePrices 刷新活跃任务涉及标的的最新价格
// 最新K线写入历史表，重复K线静默忽略，同时同步持仓估值
func (s *MarketService) RefreshActivePrices(ctx context.Context) error {
	symbols, err := s.activeSymbols(ctx)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		return nil
	}

	now := time.Now()
	for _, symbol := range symbols {
		if err := s.refreshSymbolPrice(ctx, symbol, now); err != nil {
			s.logger.Error("failed to refresh price",
				zap.String("symbol", symbol), zap.Error(err))
		}
	}

	s.logger.Info("active prices refreshed", zap.Int("symbols", len(symbols)))
	return nil
}

func (s *MarketService) refreshSymbolPrice(ctx context.Context, symbol string, now time.Time) error {
	instrument, err := s.ensureInstrument(ctx, symbol)
	if err != nil {
		return err
	}

	klines, err := s.provider.GetKlines(ctx, symbol, s.conf.BarInterval, 1)
	if err != nil {
		return err
	}
	if len(klines) == 0 {
		return errors.New("no kline data for symbol " + symbol)
	}

	latest := klines[len(klines)-1]
	if err := s.instrumentRepo.UpdateLastPrice(ctx, instrument.ID, latest.Close, now); err != nil {
		return err
	}

	bar := models.PriceBar{
		ID:           ulid.Make().String(),
		InstrumentID: instrument.ID,
		Timestamp:    latest.OpenTime,
		Interval:     s.conf.BarInterval,
		Open:         latest.Open,
		High:         latest.High,
		Low:          latest.Low,
		Close:        latest.Close,
		Volume:       latest.Volume,
	}
	if err := s.priceBarRepo.CreateIgnoreDuplicate(ctx, &bar); err != nil {
		return err
	}

	return s.ledger.RefreshValuations(ctx, symbol, latest.Close, now)
}

// ensureInstrument 按标的代码查找标的，不存在时自动创建
func (s *MarketService) ensureInstrument(ctx context.Context, symbol string) (models.Instrument, error) {
	instrument, err := s.instrumentRepo.FindBySymbol(ctx, symbol)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		instrument = models.Instrument{
			ID:     ulid.Make().String(),
			Symbol: symbol,
		}
		if info, infoErr := s.provider.GetSymbolInfo(ctx, symbol); infoErr == nil {
			instrument.Name = info.Symbol
			instrument.BaseAsset = info.BaseAsset
			instrument.QuoteAsset = info.QuoteAsset
		}
		if err := s.instrumentRepo.Create(ctx, &instrument); err != nil {
			return instrument, err
		}
		return instrument, nil
	}
	return instrument, err
}

// activeSymbols 收集全部活跃任务涉及的标的，去重
func (s *MarketService) activeSymbols(ctx context.Context) ([]string, error) {
	tasks, err := s.taskRepo.FindByStatus(ctx, models.TaskStatusActive)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var symbols []string
	for _, task := range tasks {
		for _, symbol := range task.Symbols {
			if _, ok := seen[symbol]; ok {
				continue
			}
			seen[symbol] = struct{}{}
			symbols = append(symbols, symbol)
		}
	}
	return symbols, nil
}

// GetPriceHistory 读取某标的的历史K线，按时间从旧到新排列
func (s *MarketService) GetPriceHistory(ctx context.Context, symbol string, limit int) ([]models.PriceBar, error) {
	instrument, err := s.instrumentRepo.FindBySymbol(ctx, symbol)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, xe.ErrInstrumentNotFound
	}
	if err != nil {
		return nil, err
	}

	bars, err := s.priceBarRepo.FindRecentByInstrument(ctx, instrument.ID, s.conf.BarInterval, limit)
	if err != nil {
		return nil, err
	}

	// 仓库按时间倒序返回，这里翻转成正序
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

// GetLastPrice 读取某标的的最新价格，本地没有时回源到行情数据源
func (s *MarketService) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	instrument, err := s.instrumentRepo.FindBySymbol(ctx, symbol)
	if err == nil && instrument.LastPrice > 0 {
		return instrument.LastPrice, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	return s.provider.GetLastPrice(ctx, symbol)
}
