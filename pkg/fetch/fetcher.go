// Package fetch provides per-domain EPİAŞ fetchers: build the request,
// walk every page, normalize the records.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sternrassler/epias-client/pkg/epias"
	"github.com/Sternrassler/epias-client/pkg/normalize"
	"github.com/Sternrassler/epias-client/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds fetcher configuration.
type Config struct {
	// MaxConcurrency bounds per-entity fan-out.
	MaxConcurrency int

	// FilterKey carries the entity id for clearing-quantity requests. The
	// upstream documentation and samples disagree on the field name.
	FilterKey epias.FilterKey

	Pagination pagination.Config
}

// DefaultConfig returns the default fetcher configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		FilterKey:      epias.FilterKeyPowerPlant,
		Pagination:     pagination.DefaultConfig(),
	}
}

// Fetcher runs domain fetches against one authenticated client.
type Fetcher struct {
	requester pagination.Requester
	pages     *pagination.Driver
	config    Config
	logger    zerolog.Logger
}

// New creates a fetcher on top of an authenticated requester (*client.Client).
func New(requester pagination.Requester, cfg Config) (*Fetcher, error) {
	if requester == nil {
		return nil, errors.New("requester is required")
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	if cfg.FilterKey == "" {
		cfg.FilterKey = DefaultConfig().FilterKey
	}
	if !cfg.FilterKey.Valid() {
		return nil, fmt.Errorf("unknown organization filter key %q", cfg.FilterKey)
	}

	return &Fetcher{
		requester: requester,
		pages:     pagination.NewDriver(requester, cfg.Pagination),
		config:    cfg,
		logger:    log.With().Str("component", "fetch").Logger(),
	}, nil
}

// fetchTable walks every page of endpoint for q and normalizes the result.
func fetchTable[R normalize.Row](ctx context.Context, f *Fetcher, endpoint epias.Endpoint, q epias.Query, fn func([]json.RawMessage) *normalize.Table[R]) (*normalize.Table[R], error) {
	records, err := f.pages.FetchContent(ctx, endpoint, q)
	if err != nil {
		f.logger.Error().Err(err).Str("endpoint", endpoint.String()).Msg("Fetch failed")
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}

	table := fn(records)
	f.logger.Info().
		Str("endpoint", endpoint.String()).
		Str("domain", table.Domain).
		Int("records", table.Len()).
		Int("invalid", table.InvalidCount()).
		Int("warnings", len(table.Warnings)).
		Msg("Fetched")
	return table, nil
}

// PTF fetches day-ahead market clearing prices.
func (f *Fetcher) PTF(ctx context.Context, rng epias.DateRange) (*normalize.Table[normalize.PriceRow], error) {
	q, err := epias.NewQuery(rng, epias.Filters{})
	if err != nil {
		return nil, err
	}
	return fetchTable(ctx, f, epias.DAMMCP, q, normalize.PTF)
}

// SMF fetches system marginal prices.
func (f *Fetcher) SMF(ctx context.Context, rng epias.DateRange) (*normalize.Table[normalize.MarginalPriceRow], error) {
	q, err := epias.NewQuery(rng, epias.Filters{})
	if err != nil {
		return nil, err
	}
	return fetchTable(ctx, f, epias.BPMSystemMarginalPrice, q, normalize.SMF)
}

// Generation fetches realtime generation of an organization, optionally
// narrowed to one power plant.
func (f *Fetcher) Generation(ctx context.Context, orgID int64, rng epias.DateRange, powerPlantID *int64) (*normalize.Table[normalize.GenerationRow], error) {
	q, err := epias.NewQuery(rng, epias.Filters{OrganizationID: &orgID, PowerPlantID: powerPlantID})
	if err != nil {
		return nil, err
	}
	return fetchTable(ctx, f, epias.GenerationRealtime, q, normalize.Generation)
}

// KGUP fetches the final daily production plan of an organization.
func (f *Fetcher) KGUP(ctx context.Context, orgID int64, rng epias.DateRange) (*normalize.Table[normalize.PlannedGenerationRow], error) {
	q, err := epias.NewQuery(rng, epias.Filters{OrganizationID: &orgID})
	if err != nil {
		return nil, err
	}
	return fetchTable(ctx, f, epias.GenerationDPP, q, normalize.KGUP)
}

// Consumption fetches consumption quantities, optionally for one province.
func (f *Fetcher) Consumption(ctx context.Context, rng epias.DateRange, provinceID *int64) (*normalize.Table[normalize.ConsumptionRow], error) {
	q, err := epias.NewQuery(rng, epias.Filters{ProvinceID: provinceID})
	if err != nil {
		return nil, err
	}
	return fetchTable(ctx, f, epias.ConsumptionQuantity, q, normalize.Consumption)
}

// ClearingQuantity fetches day-ahead matched quantities for one entity. The
// id is sent under the configured filter key.
func (f *Fetcher) ClearingQuantity(ctx context.Context, entityID int64, rng epias.DateRange) (*normalize.Table[normalize.ClearingRow], error) {
	q, err := epias.NewQuery(rng, epias.Filters{})
	if err != nil {
		return nil, err
	}
	return fetchTable(ctx, f, epias.DAMClearingQuantity, q.WithEntity(f.config.FilterKey, entityID), normalize.ClearingQuantity)
}

// BilateralContracts fetches the bid and offer sides concurrently and pivots
// them on (side, contract type).
func (f *Fetcher) BilateralContracts(ctx context.Context, rng epias.DateRange) (*normalize.PivotTable, error) {
	q, err := epias.NewQuery(rng, epias.Filters{})
	if err != nil {
		return nil, err
	}

	var buy, sell []json.RawMessage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		buy, err = f.pages.FetchContent(gctx, epias.BilateralContractsBid, q)
		return err
	})
	g.Go(func() error {
		var err error
		sell, err = f.pages.FetchContent(gctx, epias.BilateralContractsOffer, q)
		return err
	})
	if err := g.Wait(); err != nil {
		f.logger.Error().Err(err).Msg("Failed to fetch bilateral contracts")
		return nil, fmt.Errorf("fetch bilateral contracts: %w", err)
	}

	pivot := normalize.BilateralContracts(buy, sell)
	f.logger.Info().
		Str("domain", pivot.Domain).
		Int("rows", pivot.Len()).
		Int("columns", len(pivot.Columns)).
		Int("invalid", pivot.InvalidCount).
		Msg("Fetched")
	return pivot, nil
}
