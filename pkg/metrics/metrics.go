// Package metrics exposes the Prometheus registry used by the EPİAŞ client.
// Metrics are declared with promauto in the package that owns them (auth,
// client, pagination, normalize, fetch); this package lists them and serves
// them over HTTP.
//
// Ticket Metrics (pkg/auth):
//   - epias_ticket_refresh_total{result} (Counter): CAS ticket requests by result
//
// Request Metrics (pkg/client):
//   - epias_requests_total{endpoint, status} (Counter): Data requests by endpoint and HTTP status
//   - epias_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - epias_errors_total{class} (Counter): Errors by class (client, auth, server, network)
//   - epias_auth_retries_total{result} (Counter): Retries after a rejected ticket
//
// Pagination Metrics (pkg/pagination):
//   - epias_pages_fetched_total{endpoint} (Counter): Pages fetched per endpoint
//
// Normalization Metrics (pkg/normalize):
//   - epias_normalize_warnings_total{domain, field} (Counter): Defaulted or invalid fields
//
// Fan-out Metrics (pkg/fetch):
//   - epias_fanout_failures_total{domain} (Counter): Entity or dashboard panel failures absorbed by a batch
//
// Example Prometheus Queries:
//
//	# Ticket rejections recovered by a refresh
//	rate(epias_auth_retries_total{result="recovered"}[5m])
//
//	# Upstream error rate
//	sum(rate(epias_errors_total{class="server"}[5m])) / sum(rate(epias_requests_total[5m]))
//
//	# P95 request latency
//	histogram_quantile(0.95, rate(epias_request_duration_seconds_bucket[5m]))
//
//	# Data quality by domain
//	sum by (domain) (rate(epias_normalize_warnings_total[1h]))
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every promauto metric of the client lands in.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the matching gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Descriptor documents one client metric.
type Descriptor struct {
	Name    string
	Type    string
	Labels  []string
	Package string
}

// Catalogue lists every metric the client registers.
var Catalogue = []Descriptor{
	{Name: "epias_ticket_refresh_total", Type: "counter", Labels: []string{"result"}, Package: "auth"},
	{Name: "epias_requests_total", Type: "counter", Labels: []string{"endpoint", "status"}, Package: "client"},
	{Name: "epias_request_duration_seconds", Type: "histogram", Labels: []string{"endpoint"}, Package: "client"},
	{Name: "epias_errors_total", Type: "counter", Labels: []string{"class"}, Package: "client"},
	{Name: "epias_auth_retries_total", Type: "counter", Labels: []string{"result"}, Package: "client"},
	{Name: "epias_pages_fetched_total", Type: "counter", Labels: []string{"endpoint"}, Package: "pagination"},
	{Name: "epias_normalize_warnings_total", Type: "counter", Labels: []string{"domain", "field"}, Package: "normalize"},
	{Name: "epias_fanout_failures_total", Type: "counter", Labels: []string{"domain"}, Package: "fetch"},
}

// Lookup returns the catalogue entry for name.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range Catalogue {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}
