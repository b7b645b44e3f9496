// Package client provides the authenticated EPİAŞ HTTP client: ticket
// header injection, a single re-authentication on rejected tickets, and
// error classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/epias-client/pkg/auth"
	"github.com/Sternrassler/epias-client/pkg/epias"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for EPİAŞ client operations.
var (
	epiasRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epias_requests_total",
		Help: "Total EPİAŞ data requests by endpoint and status",
	}, []string{"endpoint", "status"})

	epiasRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "epias_request_duration_seconds",
		Help:    "EPİAŞ request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	epiasErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epias_errors_total",
		Help: "Total EPİAŞ request errors by class",
	}, []string{"class"})
)

// TicketSource supplies the TGT header value. *auth.Manager implements it.
type TicketSource interface {
	Current(ctx context.Context, forceRefresh bool) (auth.Ticket, error)
	Refresh(ctx context.Context, stale auth.Ticket) (auth.Ticket, error)
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the data service root, e.g. epias.DefaultBaseURL.
	BaseURL string

	// UserAgent header sent with every request. Optional.
	UserAgent string

	// AcceptLanguage selects the language of server messages.
	AcceptLanguage string

	// Timeout per HTTP attempt.
	Timeout time.Duration
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:        epias.DefaultBaseURL,
		UserAgent:      "epias-client/1.0",
		AcceptLanguage: "en",
		Timeout:        30 * time.Second,
	}
}

// Client is the authenticated EPİAŞ client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	tickets    TicketSource
	config     Config
	logger     zerolog.Logger
}

// New creates a new client.
func New(cfg Config, tickets TicketSource) (*Client, error) {
	if tickets == nil {
		return nil, ErrNoTicketSource
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = "en"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tickets:    tickets,
		config:     cfg,
		logger:     log.With().Str("component", "client").Logger(),
	}, nil
}

// Request sends payload (JSON-encoded, may be nil) to path and returns the
// decoded-as-JSON response body. A ticket rejection (401/406) triggers one
// ticket refresh and exactly one retry.
func (c *Client) Request(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
	}

	startTime := time.Now()
	defer func() {
		epiasRequestDuration.WithLabelValues(path).Observe(time.Since(startTime).Seconds())
	}()

	resp, err := c.withAuthRetry(ctx, path, func(ticket auth.Ticket) (*response, error) {
		return c.send(ctx, method, path, body, ticket)
	})
	if err != nil {
		return nil, err
	}

	if resp.status < 200 || resp.status > 299 {
		errClass := classifyStatus(resp.status)
		epiasErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("endpoint", path).
			Int("status", resp.status).
			Str("error_class", string(errClass)).
			Msg("EPİAŞ request error")
		return nil, &APIError{
			StatusCode: resp.status,
			Endpoint:   path,
			ErrorClass: errClass,
			Message:    resultDescription(resp.body, resp.status),
			Body:       string(resp.body),
		}
	}

	if !json.Valid(resp.body) {
		epiasErrorsTotal.WithLabelValues(string(ErrorClassServer)).Inc()
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidJSON)
	}
	return json.RawMessage(resp.body), nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON payload.
func (c *Client) Post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPost, path, payload)
}

// Call requests a catalogued endpoint using its registered method. GET
// endpoints ignore payload.
func (c *Client) Call(ctx context.Context, endpoint epias.Endpoint, payload any) (json.RawMessage, error) {
	if endpoint.Method() == http.MethodGet {
		return c.Get(ctx, endpoint.String())
	}
	return c.Post(ctx, endpoint.String(), payload)
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

type response struct {
	status int
	body   []byte
}

// send performs one HTTP attempt with the given ticket. Transport failures
// come back as *APIError with class network.
func (c *Client) send(ctx context.Context, method, path string, body []byte, ticket auth.Ticket) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("TGT", ticket.Value)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", c.config.AcceptLanguage)
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	c.logger.Debug().
		Str("endpoint", path).
		Str("method", method).
		Msg("Executing EPİAŞ request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", path).Msg("HTTP request failed")
		epiasErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		epiasRequestsTotal.WithLabelValues(path, "network_error").Inc()
		return nil, &APIError{Endpoint: path, ErrorClass: ErrorClassNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		epiasErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   path,
			ErrorClass: ErrorClassNetwork,
			Err:        fmt.Errorf("read response: %w", err),
		}
	}

	epiasRequestsTotal.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()
	return &response{status: resp.StatusCode, body: data}, nil
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.config.BaseURL + path
}

// resultDescription pulls the server's message out of an error body,
// falling back to the HTTP status text.
func resultDescription(body []byte, status int) string {
	var env struct {
		ResultDescription string `json:"resultDescription"`
		Message           string `json:"message"`
	}
	if json.Unmarshal(body, &env) == nil {
		if env.ResultDescription != "" {
			return env.ResultDescription
		}
		if env.Message != "" {
			return env.Message
		}
	}
	return http.StatusText(status)
}
