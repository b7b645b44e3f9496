package fetch

import (
	"context"
	"errors"
	"slices"

	"github.com/Sternrassler/epias-client/pkg/auth"
	"github.com/Sternrassler/epias-client/pkg/epias"
	"github.com/Sternrassler/epias-client/pkg/normalize"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var fanoutFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "epias_fanout_failures_total",
		Help: "Per-entity fetch failures absorbed by a fan-out batch",
	},
	[]string{"domain"},
)

// Batch holds the result of a per-entity fan-out. Every requested id has a
// table; ids whose fetch failed map to an empty table and appear in Failures.
type Batch[R normalize.Row] struct {
	ID       string
	Domain   string
	Tables   map[int64]*normalize.Table[R]
	Failures map[int64]error
}

// IDs returns the entity ids in ascending order.
func (b *Batch[R]) IDs() []int64 {
	ids := make([]int64, 0, len(b.Tables))
	for id := range b.Tables {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Failed returns the ids whose fetch failed, ascending.
func (b *Batch[R]) Failed() []int64 {
	ids := make([]int64, 0, len(b.Failures))
	for id := range b.Failures {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Combined merges all entity tables into one, ordered by timestamp.
func (b *Batch[R]) Combined() *normalize.Table[R] {
	ids := b.IDs()
	tables := make([]*normalize.Table[R], 0, len(ids))
	for _, id := range ids {
		tables = append(tables, b.Tables[id])
	}
	merged := normalize.Concat(tables...)
	if merged.Domain == "" {
		merged.Domain = b.Domain
	}
	return merged
}

// GenerationByOrganization fetches realtime generation for every organization
// with bounded concurrency. A failing organization yields an empty table.
func (f *Fetcher) GenerationByOrganization(ctx context.Context, orgIDs []int64, rng epias.DateRange) (*Batch[normalize.GenerationRow], error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return fanOut(ctx, f, normalize.DomainGeneration, normalize.GenerationColumns, orgIDs,
		func(ctx context.Context, id int64) (*normalize.Table[normalize.GenerationRow], error) {
			return f.Generation(ctx, id, rng, nil)
		})
}

// KGUPByOrganization fetches production plans for every organization with
// bounded concurrency. A failing organization yields an empty table.
func (f *Fetcher) KGUPByOrganization(ctx context.Context, orgIDs []int64, rng epias.DateRange) (*Batch[normalize.PlannedGenerationRow], error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return fanOut(ctx, f, normalize.DomainKGUP, normalize.PlannedGenerationColumns, orgIDs,
		func(ctx context.Context, id int64) (*normalize.Table[normalize.PlannedGenerationRow], error) {
			return f.KGUP(ctx, id, rng)
		})
}

// fanOut runs fetch for each distinct id. Entity failures are absorbed into
// the batch, except authentication failures which no other entity could
// survive, and cancellation of ctx.
func fanOut[R normalize.Row](ctx context.Context, f *Fetcher, domain string, columns []string, ids []int64, fetch func(context.Context, int64) (*normalize.Table[R], error)) (*Batch[R], error) {
	ids = distinct(ids)
	batch := &Batch[R]{
		ID:       uuid.NewString(),
		Domain:   domain,
		Tables:   make(map[int64]*normalize.Table[R], len(ids)),
		Failures: make(map[int64]error),
	}
	logger := f.logger.With().Str("batch_id", batch.ID).Str("domain", domain).Logger()
	logger.Info().Int("entities", len(ids)).Int("concurrency", f.config.MaxConcurrency).Msg("Starting fan-out")

	tables := make([]*normalize.Table[R], len(ids))
	errs := make([]error, len(ids))

	// Plain group: one entity failing must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(f.config.MaxConcurrency)
	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			tables[i], errs[i] = fetch(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		logger.Warn().Err(err).Msg("Fan-out cancelled")
		return nil, err
	}

	for i, id := range ids {
		err := errs[i]
		if err == nil {
			batch.Tables[id] = tables[i]
			continue
		}
		var authErr *auth.AuthenticationError
		if errors.As(err, &authErr) {
			logger.Error().Err(err).Int64("entity_id", id).Msg("Authentication failed, aborting fan-out")
			return nil, err
		}

		fanoutFailuresTotal.WithLabelValues(domain).Inc()
		logger.Error().Err(err).Int64("entity_id", id).Msg("Entity fetch failed, substituting empty table")
		batch.Tables[id] = normalize.NewTable[R](domain, columns)
		batch.Failures[id] = err
	}

	logger.Info().
		Int("entities", len(ids)).
		Int("failed", len(batch.Failures)).
		Msg("Fan-out complete")
	return batch, nil
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
