package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"finquest/internal/cache"
	"finquest/internal/core"
	"finquest/internal/log"
	"finquest/internal/sources"
)

const (
	// DefaultForecastTimeout bounds the concurrent fetch of one forecast.
	DefaultForecastTimeout = 7 * time.Second

	defaultForecastCacheSize = 64
	defaultForecastCacheTTL  = time.Minute
)

// ForecastConfig wires a ForecastService.
type ForecastConfig struct {
	Snapshot sources.TransactionSource
	Live     sources.TransactionSource // nil when no aggregator is configured
	Budgets  sources.BudgetReader
	Taxonomy core.Taxonomy

	// PreferLive makes the live source the default for requests that do
	// not choose one.
	PreferLive  bool
	MonthToDate bool

	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
	Now       func() time.Time
}

// ForecastRequest selects the date and source of one forecast.
type ForecastRequest struct {
	Today   time.Time // zero means now
	UseLive bool
}

// ForecastService runs the forecast pipeline against the configured
// providers and caches reports per source and day.
type ForecastService struct {
	snapshot    sources.TransactionSource
	live        sources.TransactionSource
	budgets     sources.BudgetReader
	taxonomy    core.Taxonomy
	preferLive  bool
	monthToDate bool
	timeout     time.Duration
	now         func() time.Time

	reports    *cache.LRUCache[core.Report]
	logger     *log.Logger
	structured *log.StructuredLogger
}

func NewForecastService(cfg ForecastConfig, logger *log.Logger) *ForecastService {
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultForecastTimeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultForecastCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultForecastCacheTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if len(cfg.Taxonomy.Rules) == 0 {
		cfg.Taxonomy = core.DefaultTaxonomy()
	}

	logger = logger.WithComponent(log.ComponentForecast)
	return &ForecastService{
		snapshot:    cfg.Snapshot,
		live:        cfg.Live,
		budgets:     cfg.Budgets,
		taxonomy:    cfg.Taxonomy,
		preferLive:  cfg.PreferLive,
		monthToDate: cfg.MonthToDate,
		timeout:     cfg.Timeout,
		now:         cfg.Now,
		reports:     cache.NewLRUCache[core.Report](cfg.CacheSize, cfg.CacheTTL).WithClock(cfg.Now),
		logger:      logger,
		structured:  log.NewStructuredLogger(logger),
	}
}

// Forecast returns the report for req, from cache when possible.
func (s *ForecastService) Forecast(ctx context.Context, req ForecastRequest) (core.Report, error) {
	src, err := s.source(req.UseLive)
	if err != nil {
		return core.Report{}, err
	}
	today := req.Today
	if today.IsZero() {
		today = s.now()
	}

	key := fmt.Sprintf("%s|%s", src.Kind(), today.Format(time.DateOnly))
	if report, ok := s.reports.Get(key); ok {
		s.logger.DebugContext(ctx, "Forecast served from cache", log.FieldSource, string(src.Kind()))
		return report, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		raws    []core.RawTransaction
		budgets core.BudgetMap
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raws, err = src.FetchTransactions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		budgets, err = s.budgets.ReadBudgets(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Report{}, err
	}

	report := core.Run(core.PipelineInput{
		Transactions: raws,
		Source:       src.Kind(),
		Budgets:      budgets,
		Taxonomy:     s.taxonomy,
		Today:        today,
		MonthToDate:  s.monthToDate,
	})
	s.reports.Set(key, report)

	for _, dropped := range report.Dropped {
		s.logger.WarnContext(ctx, "Transaction record skipped",
			log.FieldSource, string(dropped.Source),
			"index", dropped.Index,
			"field", dropped.Field,
			log.FieldError, dropped.Err.Error())
	}
	s.structured.LogForecastGenerated(ctx, string(src.Kind()),
		len(report.Forecast), overBudget(report.Forecast), len(raws)-len(report.Dropped), len(report.Dropped))

	return report, nil
}

// Transactions returns the normalized transactions of the selected source.
func (s *ForecastService) Transactions(ctx context.Context, useLive bool) (core.Batch, error) {
	src, err := s.source(useLive)
	if err != nil {
		return core.Batch{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raws, err := src.FetchTransactions(ctx)
	if err != nil {
		return core.Batch{}, err
	}
	return core.NormalizeAll(raws, src.Kind(), s.taxonomy), nil
}

// LiveTransactions returns the live source's records untouched.
func (s *ForecastService) LiveTransactions(ctx context.Context) ([]core.RawTransaction, error) {
	if s.live == nil {
		return nil, sources.ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.live.FetchTransactions(ctx)
}

// Invalidate drops every cached report.
func (s *ForecastService) Invalidate() {
	s.reports.Purge()
}

// CacheStats reports the forecast cache counters.
func (s *ForecastService) CacheStats() cache.Stats {
	return s.reports.Stats()
}

// Cache exposes the report cache for periodic cleanup.
func (s *ForecastService) Cache() cache.Cleaner {
	return s.reports
}

func (s *ForecastService) source(useLive bool) (sources.TransactionSource, error) {
	if useLive || (s.preferLive && s.live != nil) {
		if s.live == nil {
			return nil, sources.ErrNotConfigured
		}
		return s.live, nil
	}
	if s.snapshot == nil {
		return nil, fmt.Errorf("no transaction source configured")
	}
	return s.snapshot, nil
}

func overBudget(f core.Forecast) int {
	n := 0
	for _, e := range f {
		if e.Status == core.StatusOverBudget {
			n++
		}
	}
	return n
}
