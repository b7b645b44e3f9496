package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/epias-client/pkg/epias"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "epias_pages_fetched_total",
	Help: "Pages fetched from paginated endpoints",
}, []string{"endpoint"})

// Config holds pagination driver configuration
type Config struct {
	// PageSize is the requested page size. Clamped to (0, MaxPageSize].
	PageSize int
	// MaxPageSize is the upper bound for any page request
	MaxPageSize int
	// MaxConcurrency is the maximum number of pages in flight (1 = sequential)
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
	// Sort is sent with every page request when set
	Sort *epias.PageSort
}

// DefaultConfig returns the default driver configuration
func DefaultConfig() Config {
	return Config{
		PageSize:       100,
		MaxPageSize:    1000,
		MaxConcurrency: 4,
		Timeout:        60 * time.Second,
	}
}

// Requester is the single-request surface the driver needs. *client.Client
// implements it.
type Requester interface {
	Call(ctx context.Context, endpoint epias.Endpoint, payload any) (json.RawMessage, error)
}

// Page is the content of one fetched page
type Page struct {
	Number  int
	Content []json.RawMessage
}

// Driver fetches every page of a paginated endpoint
type Driver struct {
	requester Requester
	config    Config
	logger    zerolog.Logger
}

// NewDriver creates a new driver, filling unset config fields with defaults
func NewDriver(requester Requester, config Config) *Driver {
	def := DefaultConfig()
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = def.MaxPageSize
	}
	if config.PageSize <= 0 {
		config.PageSize = def.PageSize
	}
	if config.PageSize > config.MaxPageSize {
		config.PageSize = config.MaxPageSize
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}

	return &Driver{
		requester: requester,
		config:    config,
		logger:    log.With().Str("component", "pagination").Logger(),
	}
}

// pageSize resolves the size for q: an explicit page cursor wins over the
// configured default, both clamped to MaxPageSize.
func (d *Driver) pageSize(q epias.Query) int {
	size := d.config.PageSize
	if p := q.Page(); p != nil && p.Size > 0 {
		size = p.Size
	}
	if size > d.config.MaxPageSize {
		size = d.config.MaxPageSize
	}
	return size
}

// FetchAll fetches the first page, and when the server reports more, the
// remaining pages with bounded concurrency. Pages are returned in page
// order. A page reporting no content ends the sequence. Any page failure
// fails the whole call.
func (d *Driver) FetchAll(ctx context.Context, endpoint epias.Endpoint, q epias.Query) ([]Page, error) {
	start := time.Now()
	size := d.pageSize(q)

	first, err := d.fetchPage(ctx, endpoint, q, 1, size)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}
	pagesFetchedTotal.WithLabelValues(endpoint.String()).Inc()

	// No metadata or nothing on page 1 means there is nothing else to walk.
	if first.Info == nil || first.Info.TotalPages <= 1 || len(first.Content) == 0 {
		d.logger.Debug().
			Str("endpoint", endpoint.String()).
			Int("records", len(first.Content)).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return []Page{{Number: 1, Content: first.Content}}, nil
	}

	totalPages := first.Info.TotalPages
	d.logger.Info().
		Str("endpoint", endpoint.String()).
		Int("total_pages", totalPages).
		Int("total_records", first.Info.Total).
		Msg("Starting page fetch")

	pages := make([]Page, totalPages)
	pages[0] = Page{Number: 1, Content: first.Content}

	// lastPage shrinks to the page before the first empty one.
	var lastPage atomic.Int64
	lastPage.Store(int64(totalPages))
	var fetched atomic.Int64
	fetched.Store(1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.config.MaxConcurrency)

	for n := 2; n <= totalPages; n++ {
		if gctx.Err() != nil || int64(n) > lastPage.Load() {
			break
		}
		g.Go(func() error {
			if int64(n) > lastPage.Load() {
				return nil
			}
			page, err := d.fetchPage(gctx, endpoint, q, n, size)
			if err != nil {
				d.logger.Warn().
					Err(err).
					Str("endpoint", endpoint.String()).
					Int("page", n).
					Msg("Page fetch failed")
				return fmt.Errorf("page %d: %w", n, err)
			}
			pagesFetchedTotal.WithLabelValues(endpoint.String()).Inc()

			if len(page.Content) == 0 {
				shrink(&lastPage, int64(n-1))
				return nil
			}
			pages[n-1] = Page{Number: n, Content: page.Content}

			if done := fetched.Add(1); done%50 == 0 {
				d.logger.Info().
					Int64("fetched", done).
					Int("total", totalPages).
					Float64("progress_pct", float64(done)/float64(totalPages)*100).
					Msg("Fetch progress")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages = pages[:lastPage.Load()]

	d.logger.Info().
		Str("endpoint", endpoint.String()).
		Int("pages", len(pages)).
		Int("total", totalPages).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return pages, nil
}

// FetchContent returns the concatenated page contents in page order.
func (d *Driver) FetchContent(ctx context.Context, endpoint epias.Endpoint, q epias.Query) ([]json.RawMessage, error) {
	pages, err := d.FetchAll(ctx, endpoint, q)
	if err != nil {
		return nil, err
	}
	var n int
	for _, p := range pages {
		n += len(p.Content)
	}
	out := make([]json.RawMessage, 0, n)
	for _, p := range pages {
		out = append(out, p.Content...)
	}
	return out, nil
}

func (d *Driver) fetchPage(ctx context.Context, endpoint epias.Endpoint, q epias.Query, number, size int) (epias.Page, error) {
	pageCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	req := epias.PageRequest{Number: number, Size: size}
	if d.config.Sort != nil {
		sort := *d.config.Sort
		req.Sort = &sort
	} else if p := q.Page(); p != nil && p.Sort != nil {
		req.Sort = p.Sort
	}

	raw, err := d.requester.Call(pageCtx, endpoint, q.WithPage(req))
	if err != nil {
		return epias.Page{}, err
	}
	return epias.DecodePage(raw)
}

// shrink lowers v to n if n is smaller.
func shrink(v *atomic.Int64, n int64) {
	for {
		cur := v.Load()
		if n >= cur || v.CompareAndSwap(cur, n) {
			return
		}
	}
}
