package fetch

import (
	"context"
	"fmt"

	"github.com/Sternrassler/epias-client/pkg/epias"
)

// Organizations lists market participants active in rng.
func (f *Fetcher) Organizations(ctx context.Context, rng epias.DateRange) ([]epias.Organization, error) {
	q, err := epias.NewQuery(rng, epias.Filters{})
	if err != nil {
		return nil, err
	}
	raw, err := f.requester.Call(ctx, epias.GenerationOrgList, q)
	if err != nil {
		return nil, fmt.Errorf("fetch organizations: %w", err)
	}
	orgs, err := epias.DecodeList[epias.Organization](raw, epias.KeyOrganizations)
	if err != nil {
		return nil, err
	}
	f.logger.Info().Int("count", len(orgs)).Msg("Fetched organizations")
	return orgs, nil
}

// PowerPlants lists generation facilities.
func (f *Fetcher) PowerPlants(ctx context.Context) ([]epias.PowerPlant, error) {
	raw, err := f.requester.Call(ctx, epias.GenerationPowerPlantList, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch power plants: %w", err)
	}
	plants, err := epias.DecodeList[epias.PowerPlant](raw, epias.KeyPowerPlants)
	if err != nil {
		return nil, err
	}
	f.logger.Info().Int("count", len(plants)).Msg("Fetched power plants")
	return plants, nil
}

// UEVCBs lists the settlement units of an organization.
func (f *Fetcher) UEVCBs(ctx context.Context, orgID int64) ([]epias.UEVCB, error) {
	q := epias.NewFilterQuery(epias.Filters{OrganizationID: &orgID})
	raw, err := f.requester.Call(ctx, epias.GenerationUEVCBList, q)
	if err != nil {
		return nil, fmt.Errorf("fetch uevcb list for org %d: %w", orgID, err)
	}
	units, err := epias.DecodeList[epias.UEVCB](raw, epias.KeyUEVCBs)
	if err != nil {
		return nil, err
	}
	f.logger.Info().Int64("entity_id", orgID).Int("count", len(units)).Msg("Fetched UEVCBs")
	return units, nil
}
