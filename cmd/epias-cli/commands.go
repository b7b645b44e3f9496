package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Sternrassler/epias-client/pkg/fetch"
	"github.com/Sternrassler/epias-client/pkg/normalize"
	"github.com/rs/zerolog/log"
)

// tabular is anything that renders as a header plus string records.
// normalize.Table and normalize.PivotTable implement it.
type tabular interface {
	Header() []string
	Records() [][]string
}

// listTable is a tabular built by hand for reference lists and summaries.
type listTable struct {
	header  []string
	records [][]string
}

func (l *listTable) Header() []string    { return l.header }
func (l *listTable) Records() [][]string { return l.records }

type command func(ctx context.Context, f *fetch.Fetcher, o options) (tabular, error)

var commands = map[string]command{
	"orgs":               orgsCommand,
	"plants":             plantsCommand,
	"uevcbs":             uevcbsCommand,
	"ptf":                ptfCommand,
	"smf":                smfCommand,
	"consumption":        consumptionCommand,
	"bilateral":          bilateralCommand,
	"generation":         generationCommand,
	"kgup":               kgupCommand,
	"clearing":           clearingCommand,
	"price-stats":        priceStatsCommand,
	"generation-summary": generationSummaryCommand,
	"overview":           overviewCommand,
	"dashboard":          dashboardCommand,
}

func execute(ctx context.Context, f *fetch.Fetcher, name string, o options) (tabular, error) {
	cmd, ok := commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	return cmd(ctx, f, o)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orgsCommand(ctx context.Context, f *fetch.Fetcher, o options) (tabular, error) {
	rng, err := o.dateRange()
	if err != nil {
		return nil, err
	}
	orgs, err := f.Organizations(ctx, rng)
	if err != nil {
		return nil, err
	}
	t := &listTable{header: []string{"id", "name", "eic", "status"}}
	for _, org := range orgs {
		t.records = append(t.records, []string{strconv.FormatInt(org.ID, 10), org.Name, org.EIC, org.Status})
	}
	return t, nil
}

func plantsCommand(ctx context.Context, f *fetch.Fetcher, _ options) (tabular, error) {
	plants, err := f.PowerPlants(ctx)
	if err != nil {
		return nil, err
	}
	t := &listTable{header: []string{"id", "name", "short_name", "eic"}}
	for _, p := range plants {
		t.records = append(t.records, []string{strconv.FormatInt(p.ID, 10), p.Name, p.ShortName, p.EIC})
	}
	return t, nil
}

func uevcbsCommand(ctx context.Context, f *fetch.Fetcher, o options) (tabular, error) {
	if o.org == 0 {
		return nil, fmt.Errorf("%w: -org is required", errUsage)
	}
	units, err := f.UEVCBs(ctx, o.org)
	if err != nil {
		return nil, err
	}
	t := &listTable{header: []string{"id", "name", "eic", "organization_id"}}
	for _, u := range units {
		t.records = append(t.records, []string{
			strconv.FormatInt(u.ID, 10), u.Name, u.EIC, strconv.FormatInt(u.OrganizationID, 10),
		})
	}
	return t, nil
}

func ptfCommand(ctx context.Context, f *fetch.Fetcher, o options) (tabular, error) {
	rng, err := o.dateRange()
	if err != nil {
		return nil, err
	}
	return f.PTF(ctx, rng)
}

func smfCommand(ctx context.Context, f *fetch.Fetcher, o options) (tabular, error) {
	rng, err := o.dateRange()
	if err != nil {
		return nil, err
	}
	return f.SMF(ctx, rng)
}

func consumptionCommand(ctx context.Context, f *fetch.Fetcher, o options) (tabular, error) {
	rng, err := o.dateRange()
	if err != nil {
		return nil, err
	}
	return f.Consumption(ctx, rng, optionalID(o.province))
}

func bilateralCommand(ctx context.Context, f *fetch.Fetcher, o options) (tabular, error) {
	rng, err := o.dateRange()
	if err != nil {
		return nil, err
	}
	return f.BilateralContracts(ctx, rng)
}

func generationCommand(ctx context.Context, f *fetch.Fetcher, o options) (tabular, error) {
	rng, err := o.dateRange()
	if err != nil {
		return nil, err
	}
	ids, err := o.orgIDs()
	if err != nil {
		return nil, err
	}
	switch len(ids) {
	case 0:
		return nil, fmt.Errorf("%w: -org or -orgs is required", errUsage)
	case 1:
		return f.Generation(ctx, ids[0], rng, optionalID(o.plant))
	}

	batch, err := f.GenerationByOrganization(ctx, ids, rng)
	if err != nil {
		return nil, err
	}
	reportFailures(batch.ID, batch.Failures)
	return batch.Combined(), nil
}

func kgupCommand(ctx context.Context, f *fetch.Fetcher, o options) (tabular, error) {
	rng, err := o.dateRange()
	if err != nil {
		return nil, err
	}
	ids, err := o.orgIDs()
	if err != nil {
		return nil, err
	}
	switch len(ids) {
	case 0:
		return nil, fmt.Errorf("%w: -org or -orgs is required", errUsage)
	case 1:
		return f.KGUP(ctx, ids[0], rng)
	}

	batch, err := f.KGUPByOrganization(ctx, ids, rng)
	if err != nil {
		return nil, err
	}
	reportFailures(batch.ID, batch.Failures)
	return batch.Combined(), nil
}

func reportFailures(batchID string, failures map[int64]error) {
	for id, err := range failures {
		log.Warn().Str("component", "cli").Str("batch_id", batchID).Int64("entity_id", id).Err(err).
			Msg("Organization missing from output")
	}
}

func clearingCommand(ctx context.Context, f *fetch.Fetcher, o options) (tabular, error) {
	if o.entity == 0 {
		return nil, fmt.Errorf("%w: -entity is required", errUsage)
	}
	rng, err := o.dateRange()
	if err != nil {
		return nil, err
	}
	return f.ClearingQuantity(ctx, o.entity, rng)
}

func priceStatsCommand(ctx context.Context, f *fetch.Fetcher, o options) (tabular, error) {
	rng, err := o.dateRange()
	if err != nil {
		return nil, err
	}
	table, err := f.PTF(ctx, rng)
	if err != nil {
		return nil, err
	}

	t := &listTable{header: []string{"count", "mean", "median", "std", "min", "max", "volatility"}}
	stats, ok := normalize.PriceStatistics(normalize.Column(table, func(r normalize.PriceRow) float64 { return r.Price }))
	if !ok {
		return t, nil
	}
	t.records = [][]string{{
		strconv.Itoa(stats.Count),
		formatFloat(stats.Mean),
		formatFloat(stats.Median),
		formatFloat(stats.Std),
		formatFloat(stats.Min),
		formatFloat(stats.Max),
		formatFloat(stats.Volatility),
	}}
	return t, nil
}

func generationSummaryCommand(ctx context.Context, f *fetch.Fetcher, o options) (tabular, error) {
	if o.org == 0 {
		return nil, fmt.Errorf("%w: -org is required", errUsage)
	}
	rng, err := o.dateRange()
	if err != nil {
		return nil, err
	}
	table, err := f.Generation(ctx, o.org, rng, optionalID(o.plant))
	if err != nil {
		return nil, err
	}

	t := &listTable{header: []string{"type", "count", "total", "mean", "max", "min"}}
	for _, s := range normalize.AggregateGenerationByType(table) {
		t.records = append(t.records, []string{
			s.Type, strconv.Itoa(s.Count), formatFloat(s.Total), formatFloat(s.Mean), formatFloat(s.Max), formatFloat(s.Min),
		})
	}
	return t, nil
}

func overviewCommand(ctx context.Context, f *fetch.Fetcher, o options) (tabular, error) {
	if o.org == 0 {
		return nil, fmt.Errorf("%w: -org is required", errUsage)
	}
	rng, err := o.dateRange()
	if err != nil {
		return nil, err
	}
	ov, err := f.OrganizationOverview(ctx, o.org, rng)
	if err != nil {
		return nil, err
	}

	t := &listTable{header: []string{"part", "rows", "invalid", "warnings", "error"}}
	add := func(part string, rows, invalid, warnings int) {
		var msg string
		if err := ov.Failures[part]; err != nil {
			msg = err.Error()
		}
		t.records = append(t.records, []string{part, strconv.Itoa(rows), strconv.Itoa(invalid), strconv.Itoa(warnings), msg})
	}
	add(fetch.PartUEVCBs, len(ov.UEVCBs), 0, 0)
	add(fetch.PartGeneration, ov.Generation.Len(), ov.Generation.InvalidCount(), len(ov.Generation.Warnings))
	add(fetch.PartKGUP, ov.KGUP.Len(), ov.KGUP.InvalidCount(), len(ov.KGUP.Warnings))
	add(fetch.PartPTF, ov.PTF.Len(), ov.PTF.InvalidCount(), len(ov.PTF.Warnings))
	add(fetch.PartSMF, ov.SMF.Len(), ov.SMF.InvalidCount(), len(ov.SMF.Warnings))
	return t, nil
}

func dashboardCommand(ctx context.Context, f *fetch.Fetcher, _ options) (tabular, error) {
	d, err := f.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range d.Failed() {
		log.Warn().Err(d.Failures[name]).Str("panel", name).Msg("Dashboard panel skipped")
	}

	t := &listTable{header: append([]string{"panel"}, normalize.DashboardColumns...)}
	for _, p := range fetch.DashboardPanels {
		for _, rec := range d.Panels[p.Name].Records() {
			t.records = append(t.records, append([]string{p.Name}, rec...))
		}
	}
	return t, nil
}
