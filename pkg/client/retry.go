package client

import (
	"context"
	"fmt"

	"github.com/Sternrassler/epias-client/pkg/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var epiasAuthRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "epias_auth_retries_total",
	Help: "Retries after a rejected ticket by result",
}, []string{"result"})

// Auth retry results.
const (
	retryRecovered    = "recovered"
	retryRejected     = "rejected"
	retryRefreshError = "refresh_error"
	retryFailed       = "error"
)

// withAuthRetry runs attempt with the current ticket. When the server rejects
// the ticket the stale ticket is refreshed and attempt runs exactly once more;
// whatever that second attempt returns is final. Other statuses, including
// 5xx, are returned unretried.
func (c *Client) withAuthRetry(ctx context.Context, endpoint string, attempt func(auth.Ticket) (*response, error)) (*response, error) {
	ticket, err := c.tickets.Current(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("acquire ticket: %w", err)
	}

	resp, err := attempt(ticket)
	if err != nil || !isAuthRejection(resp.status) {
		return resp, err
	}

	c.logger.Info().
		Str("endpoint", endpoint).
		Int("status", resp.status).
		Msg("Ticket rejected, refreshing and retrying once")

	fresh, err := c.tickets.Refresh(ctx, ticket)
	if err != nil {
		epiasAuthRetriesTotal.WithLabelValues(retryRefreshError).Inc()
		return nil, fmt.Errorf("refresh ticket: %w", err)
	}

	resp, err = attempt(fresh)
	switch {
	case err != nil:
		epiasAuthRetriesTotal.WithLabelValues(retryFailed).Inc()
	case isAuthRejection(resp.status):
		epiasAuthRetriesTotal.WithLabelValues(retryRejected).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.status).
			Msg("Ticket rejected after refresh")
	default:
		epiasAuthRetriesTotal.WithLabelValues(retryRecovered).Inc()
	}
	return resp, err
}
