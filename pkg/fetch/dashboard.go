package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Sternrassler/epias-client/pkg/auth"
	"github.com/Sternrassler/epias-client/pkg/epias"
	"github.com/Sternrassler/epias-client/pkg/normalize"
	"golang.org/x/sync/errgroup"
)

// Dashboard panel names, used as keys in Dashboard.Panels and Dashboard.Failures.
const (
	PanelBPM           = "bpm"
	PanelDAM           = "dam"
	PanelIDM           = "idm"
	PanelConsumption   = "consumption"
	PanelGeneration    = "generation"
	PanelWeightedPrice = "weighted_price"
)

// DashboardPanels maps each panel to its endpoint, in display order.
var DashboardPanels = []struct {
	Name     string
	Endpoint epias.Endpoint
}{
	{PanelBPM, epias.DashboardBPM},
	{PanelDAM, epias.DashboardDAM},
	{PanelIDM, epias.DashboardIDM},
	{PanelConsumption, epias.DashboardConsumption},
	{PanelGeneration, epias.DashboardGeneration},
	{PanelWeightedPrice, epias.DashboardWeightedPrice},
}

// Dashboard is the market summary shown on the transparency platform's
// landing page. Every panel is present; a failed one is empty and recorded
// in Failures.
type Dashboard struct {
	FetchedAt time.Time
	Panels    map[string]*normalize.Table[normalize.DashboardRow]
	Failures  map[string]error
}

// Failed returns the failed panel names in display order.
func (d *Dashboard) Failed() []string {
	var out []string
	for _, p := range DashboardPanels {
		if d.Failures[p.Name] != nil {
			out = append(out, p.Name)
		}
	}
	return out
}

// Dashboard fetches every dashboard panel concurrently.
func (f *Fetcher) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{
		FetchedAt: time.Now().In(epias.MarketLocation),
		Panels:    make(map[string]*normalize.Table[normalize.DashboardRow], len(DashboardPanels)),
		Failures:  make(map[string]error),
	}
	for _, p := range DashboardPanels {
		d.Panels[p.Name] = normalize.NewTable[normalize.DashboardRow](normalize.DomainDashboard, normalize.DashboardColumns)
	}

	var (
		mu      sync.Mutex
		authErr error
	)
	var g errgroup.Group
	g.SetLimit(f.config.MaxConcurrency)
	for _, p := range DashboardPanels {
		g.Go(func() error {
			raw, err := f.requester.Call(ctx, p.Endpoint, nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				var ae *auth.AuthenticationError
				if errors.As(err, &ae) && authErr == nil {
					authErr = err
				}
				d.Failures[p.Name] = err
				fanoutFailuresTotal.WithLabelValues(normalize.DomainDashboard).Inc()
				f.logger.Error().Err(err).Str("panel", p.Name).Msg("Dashboard panel failed")
				return nil
			}
			d.Panels[p.Name] = normalize.Dashboard(raw, d.FetchedAt)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if authErr != nil {
		return nil, authErr
	}

	f.logger.Info().
		Int("panels", len(DashboardPanels)).
		Int("failed", len(d.Failures)).
		Msg("Dashboard fetched")
	return d, nil
}
