package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sternrassler/epias-client/internal/config"
	"github.com/Sternrassler/epias-client/internal/testutil"
	"github.com/Sternrassler/epias-client/pkg/auth"
	"github.com/Sternrassler/epias-client/pkg/client"
	"github.com/Sternrassler/epias-client/pkg/epias"
	"github.com/Sternrassler/epias-client/pkg/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv points the configuration at the mock.
func setupEnv(t *testing.T, mock *testutil.MockEPIAS) {
	t.Helper()
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv("EPIAS_USERNAME", "user")
	t.Setenv("EPIAS_PASSWORD", "secret")
	t.Setenv("EPIAS_ENVIRONMENT", "development")
	t.Setenv("EPIAS_API_BASE_URL", mock.URL())
	t.Setenv("EPIAS_AUTH_URL", mock.URL())
	t.Setenv("EPIAS_LOG_LEVEL", "error")
}

func ptfItems() []map[string]any {
	return []map[string]any{
		{"date": "2024-03-10T00:00:00+03:00", "price": 100.5, "hour": 0},
		{"date": "2024-03-10T01:00:00+03:00", "price": "200", "hour": 1},
	}
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun_Usage(t *testing.T) {
	_, stderr, err := runCLI(t)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, "commands:")

	_, stderr, err = runCLI(t, "weather")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, `unknown command "weather"`)
}

func TestRun_FlagErrors(t *testing.T) {
	mock := testutil.NewMockEPIAS()
	defer mock.Close()
	setupEnv(t, mock)

	_, _, err := runCLI(t, "ptf")
	assert.ErrorIs(t, err, errUsage)
	assert.ErrorContains(t, err, "-start is required")

	_, _, err = runCLI(t, "ptf", "-start", "10.03.2024")
	assert.ErrorIs(t, err, errUsage)

	_, _, err = runCLI(t, "ptf", "-start", "2024-03-10", "-format", "xml")
	assert.ErrorContains(t, err, "-format must be csv or json")

	_, _, err = runCLI(t, "clearing", "-start", "2024-03-10")
	assert.ErrorContains(t, err, "-entity is required")

	assert.Empty(t, mock.Requests())
}

func TestRun_MissingCredentials(t *testing.T) {
	mock := testutil.NewMockEPIAS()
	defer mock.Close()
	setupEnv(t, mock)
	t.Setenv("EPIAS_PASSWORD", "")

	_, _, err := runCLI(t, "ptf", "-start", "2024-03-10")
	assert.ErrorContains(t, err, "credentials.password is required")
}

func TestRun_PTFAsCSV(t *testing.T) {
	mock := testutil.NewMockEPIAS()
	defer mock.Close()
	setupEnv(t, mock)
	mock.SetHandler(string(epias.DAMMCP), testutil.PagedHandler(ptfItems()))

	stdout, _, err := runCLI(t, "ptf", "-start", "2024-03-10")
	require.NoError(t, err)

	assert.Equal(t, "datetime,price,hour\n"+
		"2024-03-10T00:00:00+03:00,100.5,0\n"+
		"2024-03-10T01:00:00+03:00,200,1\n", stdout)
}

func TestRun_OutputFile(t *testing.T) {
	mock := testutil.NewMockEPIAS()
	defer mock.Close()
	setupEnv(t, mock)
	mock.SetHandler(string(epias.DAMMCP), testutil.PagedHandler(ptfItems()))

	path := filepath.Join(t.TempDir(), "ptf.json")
	stdout, _, err := runCLI(t, "ptf", "-start", "2024-03-10", "-format", "json", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rows []map[string]string
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "100.5", rows[0]["price"])
}

func TestRun_OrganizationsAsJSON(t *testing.T) {
	mock := testutil.NewMockEPIAS()
	defer mock.Close()
	setupEnv(t, mock)
	mock.SetResponse(string(epias.GenerationOrgList), testutil.JSON(map[string]any{
		"body": map[string]any{"organizations": []map[string]any{{"id": 12, "name": "Enerji A.Ş.", "eic": "40X"}}},
	}))

	stdout, _, err := runCLI(t, "orgs", "-start", "2024-03-10", "-format", "json")
	require.NoError(t, err)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	assert.Equal(t, []map[string]string{{"id": "12", "name": "Enerji A.Ş.", "eic": "40X", "status": ""}}, rows)
}

func TestRun_GenerationFanOutSkipsFailedOrganization(t *testing.T) {
	mock := testutil.NewMockEPIAS()
	defer mock.Close()
	setupEnv(t, mock)
	mock.SetHandler(string(epias.GenerationRealtime), func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			OrganizationID int64 `json:"organizationId"`
		}
		_ = json.Unmarshal(body, &req)
		if req.OrganizationID == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		testutil.PagedHandler([]map[string]any{{
			"date":           "2024-03-10T05:00:00+03:00",
			"powerPlantName": fmt.Sprintf("Plant %d", req.OrganizationID),
			"generationType": "Güneş",
			"generation":     42,
		}})(w, r)
	})

	stdout, _, err := runCLI(t, "generation", "-start", "2024-03-10", "-orgs", "1, 2,3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "datetime,power_plant,power_plant_id,type,value", lines[0])
	assert.Contains(t, stdout, "Plant 1")
	assert.Contains(t, stdout, "Plant 3")
	assert.NotContains(t, stdout, "Plant 2")
}

func TestRun_PriceStats(t *testing.T) {
	mock := testutil.NewMockEPIAS()
	defer mock.Close()
	setupEnv(t, mock)
	mock.SetHandler(string(epias.DAMMCP), testutil.PagedHandler(ptfItems()))

	stdout, _, err := runCLI(t, "price-stats", "-start", "2024-03-10")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "count,mean,median,std,min,max,volatility", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2,150.25,150.25,"), lines[1])
}

func TestRun_Dashboard(t *testing.T) {
	mock := testutil.NewMockEPIAS()
	defer mock.Close()
	setupEnv(t, mock)
	for _, p := range fetch.DashboardPanels {
		mock.SetResponse(string(p.Endpoint), testutil.JSON(map[string]any{"body": map[string]any{"summary": map[string]any{}}}))
	}
	mock.SetResponse(string(epias.DashboardDAM), testutil.JSON(map[string]any{
		"body": map[string]any{"data": []map[string]any{{"name": "ptf", "value": 2450.5, "change": 1, "date": "2024-03-10T12:00:00+03:00"}}},
	}))
	mock.SetResponse(string(epias.DashboardBPM), testutil.Status(http.StatusBadGateway))

	stdout, _, err := runCLI(t, "dashboard")
	require.NoError(t, err)

	assert.Equal(t, "panel,datetime,metric,value,change\n"+
		"dam,2024-03-10T12:00:00+03:00,ptf,2450.5,1\n", stdout)
}

func newTestMux(t *testing.T, mock *testutil.MockEPIAS) http.Handler {
	t.Helper()
	setupEnv(t, mock)
	cfg, err := config.LoadAndValidate("")
	require.NoError(t, err)
	f, err := newFetcher(cfg)
	require.NoError(t, err)
	return newServeMux(f)
}

func TestServe_Health(t *testing.T) {
	mock := testutil.NewMockEPIAS()
	defer mock.Close()

	rec := httptest.NewRecorder()
	newTestMux(t, mock).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestServe_Data(t *testing.T) {
	mock := testutil.NewMockEPIAS()
	defer mock.Close()
	mock.SetHandler(string(epias.DAMMCP), testutil.PagedHandler(ptfItems()))
	mock.SetResponse(string(epias.BPMSystemMarginalPrice), testutil.Status(http.StatusServiceUnavailable))
	mux := newTestMux(t, mock)

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{name: "csv", path: "/data/ptf?start=2024-03-10", status: http.StatusOK, body: "datetime,price,hour\n"},
		{name: "json", path: "/data/ptf?start=2024-03-10&format=json", status: http.StatusOK, body: `"price": "100.5"`},
		{name: "unknown command", path: "/data/weather", status: http.StatusNotFound},
		{name: "missing start", path: "/data/ptf", status: http.StatusBadRequest, body: "-start is required"},
		{name: "bad id", path: "/data/uevcbs?org=abc", status: http.StatusBadRequest, body: "invalid id"},
		{name: "upstream failure", path: "/data/smf?start=2024-03-10", status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Contains(t, rec.Body.String(), tt.body)
			}
		})
	}
}

func TestServe_Metrics(t *testing.T) {
	mock := testutil.NewMockEPIAS()
	defer mock.Close()
	mock.SetHandler(string(epias.DAMMCP), testutil.PagedHandler(ptfItems()))
	mux := newTestMux(t, mock)

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/data/ptf?start=2024-03-10", nil))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "epias_requests_total")
	assert.Contains(t, rec.Body.String(), "epias_pages_fetched_total")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("%w: x", errUsage)))
	assert.Equal(t, http.StatusBadRequest, statusFor(&epias.ValidationError{Field: "endDate"}))
	assert.Equal(t, http.StatusUnauthorized, statusFor(fmt.Errorf("acquire ticket: %w", &auth.AuthenticationError{StatusCode: 401})))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusBadGateway, statusFor(&client.APIError{StatusCode: 500}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
