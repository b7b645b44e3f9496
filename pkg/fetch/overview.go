package fetch

import (
	"context"
	"errors"
	"sync"

	"github.com/Sternrassler/epias-client/pkg/auth"
	"github.com/Sternrassler/epias-client/pkg/epias"
	"github.com/Sternrassler/epias-client/pkg/normalize"
	"golang.org/x/sync/errgroup"
)

// Overview part names, used as keys in Overview.Failures.
const (
	PartUEVCBs     = "uevcb_list"
	PartGeneration = "generation"
	PartKGUP       = "kgup"
	PartPTF        = "ptf"
	PartSMF        = "smf"
)

// Overview bundles everything known about one organization over a range.
// A failed part is left empty and recorded in Failures.
type Overview struct {
	OrganizationID int64
	Range          epias.DateRange
	UEVCBs         []epias.UEVCB
	Generation     *normalize.Table[normalize.GenerationRow]
	KGUP           *normalize.Table[normalize.PlannedGenerationRow]
	PTF            *normalize.Table[normalize.PriceRow]
	SMF            *normalize.Table[normalize.MarginalPriceRow]
	Failures       map[string]error
}

// OrganizationOverview fetches the settlement units, generation, plans and
// market prices for orgID concurrently.
func (f *Fetcher) OrganizationOverview(ctx context.Context, orgID int64, rng epias.DateRange) (*Overview, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	ov := &Overview{
		OrganizationID: orgID,
		Range:          rng,
		UEVCBs:         []epias.UEVCB{},
		Generation:     normalize.NewTable[normalize.GenerationRow](normalize.DomainGeneration, normalize.GenerationColumns),
		KGUP:           normalize.NewTable[normalize.PlannedGenerationRow](normalize.DomainKGUP, normalize.PlannedGenerationColumns),
		PTF:            normalize.NewTable[normalize.PriceRow](normalize.DomainPTF, normalize.PriceColumns),
		SMF:            normalize.NewTable[normalize.MarginalPriceRow](normalize.DomainSMF, normalize.MarginalPriceColumns),
		Failures:       make(map[string]error),
	}

	var (
		mu      sync.Mutex
		authErr error
	)
	record := func(part string, err error) {
		mu.Lock()
		defer mu.Unlock()
		var ae *auth.AuthenticationError
		if errors.As(err, &ae) && authErr == nil {
			authErr = err
		}
		ov.Failures[part] = err
		f.logger.Error().Err(err).Int64("entity_id", orgID).Str("part", part).Msg("Overview part failed")
	}

	var g errgroup.Group
	g.SetLimit(f.config.MaxConcurrency)
	g.Go(func() error {
		units, err := f.UEVCBs(ctx, orgID)
		if err != nil {
			record(PartUEVCBs, err)
			return nil
		}
		ov.UEVCBs = units
		return nil
	})
	g.Go(func() error {
		t, err := f.Generation(ctx, orgID, rng, nil)
		if err != nil {
			record(PartGeneration, err)
			return nil
		}
		ov.Generation = t
		return nil
	})
	g.Go(func() error {
		t, err := f.KGUP(ctx, orgID, rng)
		if err != nil {
			record(PartKGUP, err)
			return nil
		}
		ov.KGUP = t
		return nil
	})
	g.Go(func() error {
		t, err := f.PTF(ctx, rng)
		if err != nil {
			record(PartPTF, err)
			return nil
		}
		ov.PTF = t
		return nil
	})
	g.Go(func() error {
		t, err := f.SMF(ctx, rng)
		if err != nil {
			record(PartSMF, err)
			return nil
		}
		ov.SMF = t
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if authErr != nil {
		return nil, authErr
	}
	return ov, nil
}
