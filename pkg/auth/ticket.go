// Package auth manages the CAS ticket-granting ticket (TGT) required by every
// EPİAŞ transparency data endpoint.
package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	// TicketPrefix is the literal every valid CAS ticket starts with.
	TicketPrefix = "TGT-"

	// TicketPath is appended to the configured auth URL.
	TicketPath = "/cas/v1/tickets"

	// MinRefreshMargin is the smallest allowed early-refresh margin.
	MinRefreshMargin = 60 * time.Second
)

var ticketRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "epias_ticket_refresh_total",
	Help: "Ticket refresh attempts against the CAS endpoint by result",
}, []string{"result"})

// Ticket is an issued TGT and the instant after which it must not be sent.
// ExpiresAt already has the refresh margin subtracted.
type Ticket struct {
	Value     string
	ExpiresAt time.Time
}

// IsZero reports whether no ticket has been issued.
func (t Ticket) IsZero() bool {
	return t.Value == ""
}

// Config holds the CAS credentials and ticket lifetime settings.
type Config struct {
	// AuthURL is the CAS base URL, e.g. https://giris.epias.com.tr
	AuthURL  string
	Username string
	Password string

	// Validity is how long the CAS server honours a ticket.
	Validity time.Duration

	// RefreshMargin is subtracted from Validity. Clamped to MinRefreshMargin.
	RefreshMargin time.Duration

	// Timeout for the ticket request.
	Timeout time.Duration
}

// DefaultConfig returns production CAS settings for the given credentials.
func DefaultConfig(username, password string) Config {
	return Config{
		AuthURL:       "https://giris.epias.com.tr",
		Username:      username,
		Password:      password,
		Validity:      2 * time.Hour,
		RefreshMargin: 10 * time.Minute,
		Timeout:       10 * time.Second,
	}
}

// Option customizes a Manager.
type Option func(*Manager)

// WithHTTPClient overrides the HTTP client used for ticket requests.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger overrides the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// Manager owns the single cached ticket. It is safe for concurrent use;
// at most one CAS request is in flight at any time.
type Manager struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
	logger     zerolog.Logger

	mu     sync.RWMutex
	ticket Ticket

	refresh singleflight.Group
}

// New creates a ticket manager. No network call is made until the first Current.
func New(cfg Config, opts ...Option) (*Manager, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.AuthURL == "" {
		return nil, fmt.Errorf("auth url is required")
	}
	if cfg.Validity <= 0 {
		return nil, fmt.Errorf("ticket validity must be positive (got %s)", cfg.Validity)
	}
	if cfg.RefreshMargin < MinRefreshMargin {
		cfg.RefreshMargin = MinRefreshMargin
	}
	if cfg.RefreshMargin >= cfg.Validity {
		return nil, fmt.Errorf("refresh margin %s must be shorter than validity %s", cfg.RefreshMargin, cfg.Validity)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	m := &Manager{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
		logger:     log.With().Str("component", "auth").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Current returns the cached ticket, requesting a new one when none is cached,
// the cached one has reached its (margin-adjusted) expiry, or forceRefresh is set.
func (m *Manager) Current(ctx context.Context, forceRefresh bool) (Ticket, error) {
	m.mu.RLock()
	cached := m.ticket
	m.mu.RUnlock()

	if !forceRefresh && m.valid(cached) {
		return cached, nil
	}
	return m.Refresh(ctx, cached)
}

// Refresh replaces stale with a newly issued ticket. If another caller has
// already replaced stale, the newer cached ticket is returned without a CAS
// round trip, so a burst of authorization failures costs one refresh.
//
// The CAS request is shared by every waiting caller, so it runs detached from
// ctx and is bounded by Config.Timeout instead. A caller whose ctx ends stops
// waiting without failing the others.
func (m *Manager) Refresh(ctx context.Context, stale Ticket) (Ticket, error) {
	ch := m.refresh.DoChan("tgt", func() (any, error) {
		m.mu.RLock()
		cached := m.ticket
		m.mu.RUnlock()

		if cached.Value != stale.Value && m.valid(cached) {
			return cached, nil
		}

		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.Timeout)
		defer cancel()

		value, err := m.requestTicket(reqCtx)
		if err != nil {
			ticketRefreshTotal.WithLabelValues("error").Inc()
			return Ticket{}, err
		}

		issued := Ticket{
			Value:     value,
			ExpiresAt: m.now().Add(m.cfg.Validity - m.cfg.RefreshMargin),
		}

		m.mu.Lock()
		m.ticket = issued
		m.mu.Unlock()

		ticketRefreshTotal.WithLabelValues("success").Inc()
		m.logger.Info().
			Time("expires_at", issued.ExpiresAt).
			Msg("Ticket refreshed")
		return issued, nil
	})

	select {
	case <-ctx.Done():
		return Ticket{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Ticket{}, res.Err
		}
		return res.Val.(Ticket), nil
	}
}

func (m *Manager) valid(t Ticket) bool {
	return !t.IsZero() && m.now().Before(t.ExpiresAt)
}

// requestTicket performs the CAS form POST and validates the returned body.
func (m *Manager) requestTicket(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("username", m.cfg.Username)
	form.Set("password", m.cfg.Password)

	endpoint := strings.TrimRight(m.cfg.AuthURL, "/") + TicketPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthenticationError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/plain")

	m.logger.Debug().Str("url", endpoint).Msg("Requesting ticket")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logger.Error().Err(err).Msg("Ticket request failed")
		return "", &AuthenticationError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthenticationError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.logger.Error().Int("status", resp.StatusCode).Msg("CAS rejected ticket request")
		return "", &AuthenticationError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	ticket := strings.TrimSpace(string(body))
	if !strings.HasPrefix(ticket, TicketPrefix) {
		m.logger.Error().Int("status", resp.StatusCode).Msg("CAS returned malformed ticket")
		return "", &AuthenticationError{StatusCode: resp.StatusCode, Err: ErrUnexpectedTicketFormat}
	}

	return ticket, nil
}
