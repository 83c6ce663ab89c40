package cli

import (
	"fmt"

	"finquest/internal/backend"
	"finquest/internal/config"
	"finquest/internal/core"
	"finquest/internal/log"
	"finquest/internal/services"
	"finquest/internal/sources"
)

// App holds the services every binary builds from one backend.
type App struct {
	Taxonomy    core.Taxonomy
	Forecast    *services.ForecastService
	Budgets     *services.BudgetService
	Sync        *services.SyncService
	Credentials *services.CredentialService // nil without Plaid
}

type invalidator interface {
	Invalidate() error
}

// NewApp wires the services over result. publisher may be nil, in which
// case syncs run inline.
func NewApp(cfg *config.Config, result *backend.BackendResult, publisher services.Publisher, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Discard()
	}
	taxonomy, err := cfg.LoadTaxonomy()
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	forecast := services.NewForecastService(services.ForecastConfig{
		Snapshot:    result.Backend,
		Live:        result.LiveSource,
		Budgets:     result.Backend,
		Taxonomy:    taxonomy,
		PreferLive:  cfg.ForecastSource == config.ForecastSourceLive,
		MonthToDate: cfg.ForecastMonthToDate,
	}, logger)

	app := &App{
		Taxonomy: taxonomy,
		Forecast: forecast,
		Budgets:  services.NewBudgetService(result.Backend, taxonomy, logger, forecast.Invalidate),
	}

	// Syncs read Plaid directly so they never see the cache file, then
	// drop both the file cache and the forecast cache.
	var live sources.TransactionSource
	if result.Plaid != nil {
		live = result.Plaid
		app.Credentials = services.NewCredentialService(result.Plaid, logger)
	}
	app.Sync = services.NewSyncService(live, result.Backend, taxonomy, publisher, logger)
	app.Sync.OnSynced(forecast.Invalidate)
	if cached, ok := result.LiveSource.(invalidator); ok {
		app.Sync.OnSynced(func() {
			if err := cached.Invalidate(); err != nil {
				logger.Warn("Failed to drop transactions cache file", log.FieldError, err)
			}
		})
	}

	return app, nil
}
