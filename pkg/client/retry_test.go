package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/epias-client/pkg/auth"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTickets hands out TGT-1, TGT-2, ... without a CAS server.
type stubTickets struct {
	mu         sync.Mutex
	seq        int
	current    auth.Ticket
	refreshes  int
	currentErr error
	refreshErr error
}

func (s *stubTickets) Current(ctx context.Context, forceRefresh bool) (auth.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentErr != nil {
		return auth.Ticket{}, s.currentErr
	}
	if s.current.IsZero() || forceRefresh {
		s.issue()
	}
	return s.current, nil
}

func (s *stubTickets) Refresh(ctx context.Context, stale auth.Ticket) (auth.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	if s.refreshErr != nil {
		return auth.Ticket{}, s.refreshErr
	}
	if s.current.Value == stale.Value {
		s.issue()
	}
	return s.current, nil
}

func (s *stubTickets) issue() {
	s.seq++
	s.current = auth.Ticket{Value: fmt.Sprintf("TGT-%d", s.seq), ExpiresAt: time.Now().Add(time.Hour)}
}

func newStubClient(t *testing.T, tickets TicketSource) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: "http://epias.invalid", Timeout: time.Second}, tickets)
	require.NoError(t, err)
	return c
}

// scripted returns an attempt func replaying statuses in order and recording
// the ticket each attempt used.
func scripted(statuses ...int) (func(auth.Ticket) (*response, error), *[]string) {
	var used []string
	i := 0
	return func(ticket auth.Ticket) (*response, error) {
		used = append(used, ticket.Value)
		status := statuses[i]
		if i < len(statuses)-1 {
			i++
		}
		return &response{status: status, body: []byte(`{}`)}, nil
	}, &used
}

func TestWithAuthRetry_SuccessNoRefresh(t *testing.T) {
	tickets := &stubTickets{}
	c := newStubClient(t, tickets)

	attempt, used := scripted(http.StatusOK)
	resp, err := c.withAuthRetry(context.Background(), "/x", attempt)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, []string{"TGT-1"}, *used)
	assert.Equal(t, 0, tickets.refreshes)
}

func TestWithAuthRetry_RecoversOnce(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusNotAcceptable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			tickets := &stubTickets{}
			c := newStubClient(t, tickets)
			before := promtest.ToFloat64(epiasAuthRetriesTotal.WithLabelValues(retryRecovered))

			attempt, used := scripted(status, http.StatusOK)
			resp, err := c.withAuthRetry(context.Background(), "/x", attempt)

			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.status)
			assert.Equal(t, []string{"TGT-1", "TGT-2"}, *used)
			assert.Equal(t, 1, tickets.refreshes)
			assert.Equal(t, before+1, promtest.ToFloat64(epiasAuthRetriesTotal.WithLabelValues(retryRecovered)))
		})
	}
}

func TestWithAuthRetry_SecondRejectionIsFinal(t *testing.T) {
	tickets := &stubTickets{}
	c := newStubClient(t, tickets)

	attempt, used := scripted(http.StatusUnauthorized, http.StatusUnauthorized, http.StatusOK)
	resp, err := c.withAuthRetry(context.Background(), "/x", attempt)

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Len(t, *used, 2)
	assert.Equal(t, 1, tickets.refreshes)
}

func TestWithAuthRetry_ServerErrorNotRetried(t *testing.T) {
	tickets := &stubTickets{}
	c := newStubClient(t, tickets)

	attempt, used := scripted(http.StatusInternalServerError, http.StatusOK)
	resp, err := c.withAuthRetry(context.Background(), "/x", attempt)

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.status)
	assert.Len(t, *used, 1)
	assert.Equal(t, 0, tickets.refreshes)
}

func TestWithAuthRetry_RefreshFailure(t *testing.T) {
	authErr := &auth.AuthenticationError{StatusCode: http.StatusUnauthorized, Body: "bad credentials"}
	tickets := &stubTickets{refreshErr: authErr}
	c := newStubClient(t, tickets)

	attempt, used := scripted(http.StatusUnauthorized, http.StatusOK)
	_, err := c.withAuthRetry(context.Background(), "/x", attempt)

	require.Error(t, err)
	var target *auth.AuthenticationError
	assert.True(t, errors.As(err, &target))
	assert.Len(t, *used, 1, "no retry without a fresh ticket")
}

func TestWithAuthRetry_TicketUnavailable(t *testing.T) {
	tickets := &stubTickets{currentErr: auth.ErrMissingCredentials}
	c := newStubClient(t, tickets)

	attempt, used := scripted(http.StatusOK)
	_, err := c.withAuthRetry(context.Background(), "/x", attempt)

	assert.ErrorIs(t, err, auth.ErrMissingCredentials)
	assert.Empty(t, *used)
}
