package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/epias-client/pkg/auth"
	"github.com/Sternrassler/epias-client/pkg/client"
	"github.com/Sternrassler/epias-client/pkg/epias"
	"github.com/Sternrassler/epias-client/pkg/fetch"
	"github.com/Sternrassler/epias-client/pkg/metrics"
	"github.com/rs/zerolog/log"
)

func newServeMux(fetcher *fetch.Fetcher) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/data/", dataHandler(fetcher))
	return mux
}

func serve(ctx context.Context, addr string, fetcher *fetch.Fetcher) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newServeMux(fetcher),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("component", "cli").Str("addr", addr).Msg("Starting EPİAŞ data server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// dataHandler runs a command named by the path, e.g. /data/ptf?start=2024-01-01,
// with query parameters in place of flags.
func dataHandler(fetcher *fetch.Fetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/data/")
		if _, ok := commands[name]; !ok {
			http.Error(w, fmt.Sprintf("unknown command %q", name), http.StatusNotFound)
			return
		}

		o, err := queryOptions(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
		defer cancel()

		result, err := execute(ctx, fetcher, name, o)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}

		if o.format == "json" {
			w.Header().Set("Content-Type", "application/json")
		} else {
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		}
		if err := write(w, o.format, result); err != nil {
			log.Error().Str("component", "cli").Err(err).Msg("Failed to write response")
		}
	}
}

func queryOptions(r *http.Request) (options, error) {
	q := r.URL.Query()
	o := options{
		start:  q.Get("start"),
		end:    q.Get("end"),
		orgs:   q.Get("orgs"),
		format: q.Get("format"),
	}
	if o.format == "" {
		o.format = "csv"
	}
	if o.format != "csv" && o.format != "json" {
		return o, fmt.Errorf("format must be csv or json, got %q", o.format)
	}
	for key, dst := range map[string]*int64{
		"org":      &o.org,
		"plant":    &o.plant,
		"province": &o.province,
		"entity":   &o.entity,
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return o, fmt.Errorf("%s: invalid id %q", key, v)
		}
		*dst = id
	}
	return o, nil
}

// statusFor maps a fetch error to the status returned to HTTP callers.
func statusFor(err error) int {
	var (
		vErr    *epias.ValidationError
		authErr *auth.AuthenticationError
	)
	switch {
	case errors.Is(err, errUsage), errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case client.StatusCode(err) != 0:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
