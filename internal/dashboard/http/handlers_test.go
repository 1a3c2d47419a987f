package dashboardhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/sales-dashboard/internal/dashboard"
	"github.com/odyssey-erp/sales-dashboard/internal/dashboard/ui"
	"github.com/odyssey-erp/sales-dashboard/internal/salesapi"
	"github.com/odyssey-erp/sales-dashboard/internal/shared"
	"github.com/odyssey-erp/sales-dashboard/internal/view"
)

const acmePayload = `{
	"total_sales": 5000,
	"avg_sales_per_transaction": 25.5,
	"top_product": "Widget",
	"daily_sales_trend": [{"date": "2024-01-01", "sales": 2000}, {"date": "2024-01-02", "sales": 3000}],
	"category_sales": {"Widget": 3000, "Gadget": 2000},
	"day_sales": {},
	"region_sales": {"North": 5000}
}`

type upstream struct {
	mu        sync.Mutex
	companies func(w http.ResponseWriter)
	dashboard func(w http.ResponseWriter, r *http.Request)
	requests  []string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.requests = append(u.requests, r.URL.RequestURI())
	companies, dash := u.companies, u.dashboard
	u.mu.Unlock()
	switch {
	case r.URL.Path == "/api/companies":
		companies(w)
	case strings.HasPrefix(r.URL.Path, "/api/dashboard/"):
		dash(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (u *upstream) seen() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string{}, u.requests...)
}

func okCompanies(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`["Acme", "Globex"]`))
}

func okDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(acmePayload))
}

type fixture struct {
	handler  *Handler
	router   chi.Router
	registry *dashboard.Registry
	upstream *upstream
	session  *shared.Session
	csrf     *shared.CSRFManager
}

func newFixture(t *testing.T, up *upstream, settle time.Duration) *fixture {
	t.Helper()
	if up.companies == nil {
		up.companies = okCompanies
	}
	if up.dashboard == nil {
		up.dashboard = okDashboard
	}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	client := salesapi.NewClient(srv.URL)
	registry := dashboard.NewRegistry(context.Background(), client, dashboard.RegistryConfig{
		Defaults: salesapi.DateRange{Start: "2024-01-01", End: "2024-01-31"},
	})
	t.Cleanup(registry.Close)

	templates, err := view.NewEngine()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sessions := shared.NewSessionManager(rdb, "salesdash_session", "secret", time.Hour, false)
	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	csrf := shared.NewCSRFManager("csrfsecret")
	handler := NewHandler(nil, registry, templates, ui.SVGRenderers(), csrf, Options{SettleTimeout: settle})
	router := chi.NewRouter()
	handler.MountRoutes(router)
	return &fixture{handler: handler, router: router, registry: registry, upstream: up, session: sess, csrf: csrf}
}

func (f *fixture) do(method, target string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), f.session))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) settle(t *testing.T) dashboard.State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st := f.registry.View(f.session.ID).WaitIdle(ctx)
	require.False(t, st.Pending(), "view did not settle")
	return st
}

func TestDashboardRendersKPIsAndCharts(t *testing.T) {
	f := newFixture(t, &upstream{}, 2*time.Second)

	rr := f.do(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()

	assert.Contains(t, body, "$5,000")
	assert.Contains(t, body, "$25.5")
	assert.Contains(t, body, "Widget")
	assert.Contains(t, body, `<option value="Acme" selected>`)
	assert.Contains(t, body, `value="2024-01-01"`)
	assert.Contains(t, body, "Daily Sales Trend")
	assert.Contains(t, body, "<svg")
	assert.NotContains(t, body, `http-equiv="refresh"`)
	assert.Contains(t, body, `name="csrf_token"`)

	assert.Contains(t, f.upstream.seen(), "/api/dashboard/Acme?end_date=2024-01-31&start_date=2024-01-01")
}

func TestDashboardWhileLoadingShowsSkeletonAndRefresh(t *testing.T) {
	release := make(chan struct{})
	up := &upstream{dashboard: func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		okDashboard(w, r)
	}}
	f := newFixture(t, up, 20*time.Millisecond)
	defer close(release)

	rr := f.do(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "skeleton-container")
	assert.Contains(t, body, `http-equiv="refresh"`)
	assert.NotContains(t, body, "kpi-card")
}

func TestDashboardShowsUpstreamError(t *testing.T) {
	up := &upstream{dashboard: func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}}
	f := newFixture(t, up, 2*time.Second)

	rr := f.do(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, salesapi.MsgNoData)
	assert.NotContains(t, body, "kpi-card")
}

func TestDashboardDirectoryFailure(t *testing.T) {
	up := &upstream{companies: func(w http.ResponseWriter) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}}
	f := newFixture(t, up, 2*time.Second)

	rr := f.do(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), dashboard.MsgDirectoryFailed)
	assert.Len(t, f.upstream.seen(), 1)
}

func TestSelectionRedirectsAndRefetches(t *testing.T) {
	f := newFixture(t, &upstream{}, 2*time.Second)
	f.settle(t)

	rr := f.do(http.MethodPost, "/dashboard/selection", url.Values{
		"company":    {"Globex"},
		"start_date": {"2024-03-01"},
		"end_date":   {"2024-02-01"},
	}, nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	st := f.settle(t)
	assert.Equal(t, "Globex", st.Selected)
	assert.Equal(t, "2024-03-01", st.Range.Start)
	assert.NotNil(t, st.Aggregate)
	assert.Contains(t, f.upstream.seen(), "/api/dashboard/Globex?end_date=2024-02-01&start_date=2024-03-01")
}

func TestSelectionRejectsMalformedDate(t *testing.T) {
	f := newFixture(t, &upstream{}, 2*time.Second)
	f.settle(t)

	rr := f.do(http.MethodPost, "/dashboard/selection", url.Values{
		"company":    {"Acme"},
		"start_date": {"01/02/2024"},
		"end_date":   {"2024-01-31"},
	}, nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	flash := f.session.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, shared.FlashError, flash.Kind)
	assert.Contains(t, flash.Message, "start date")

	rr = f.do(http.MethodPost, "/dashboard/selection", url.Values{"company": {""}}, map[string]string{"Accept": "application/json"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid company")
}

func TestSelectionRejectsCompanyOutsideDirectory(t *testing.T) {
	f := newFixture(t, &upstream{}, 2*time.Second)
	f.settle(t)
	requests := len(f.upstream.seen())

	form := url.Values{
		"company":    {"Not A Company"},
		"start_date": {"2024-01-01"},
		"end_date":   {"2024-01-31"},
	}
	rr := f.do(http.MethodPost, "/dashboard/selection", form, nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	flash := f.session.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, shared.FlashError, flash.Kind)

	rr = f.do(http.MethodPost, "/dashboard/selection", form, map[string]string{"Accept": "application/json"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid company")

	st := f.settle(t)
	assert.Equal(t, "Acme", st.Selected)
	assert.Len(t, f.upstream.seen(), requests)
}

func TestSelectionAfterDirectoryFailureIsRejected(t *testing.T) {
	up := &upstream{companies: func(w http.ResponseWriter) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}}
	f := newFixture(t, up, 2*time.Second)

	rr := f.do(http.MethodPost, "/dashboard/selection", url.Values{
		"company":    {"Anything"},
		"start_date": {"2024-01-01"},
		"end_date":   {"2024-01-31"},
	}, map[string]string{"Accept": "application/json"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, []string{"/api/companies"}, f.upstream.seen())
}

func TestStateEndpoint(t *testing.T) {
	f := newFixture(t, &upstream{}, 2*time.Second)
	f.settle(t)

	rr := f.do(http.MethodGet, "/dashboard/state", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var st struct {
		Companies []string `json:"companies"`
		Selected  string   `json:"selected_company"`
		Loading   bool     `json:"loading"`
		Aggregate struct {
			TotalSales    float64         `json:"total_sales"`
			CategorySales json.RawMessage `json:"category_sales"`
		} `json:"aggregate"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, []string{"Acme", "Globex"}, st.Companies)
	assert.Equal(t, "Acme", st.Selected)
	assert.False(t, st.Loading)
	assert.Equal(t, 5000.0, st.Aggregate.TotalSales)
	assert.Equal(t, `{"Widget":3000,"Gadget":2000}`, string(st.Aggregate.CategorySales))
}

func TestChartsEndpoint(t *testing.T) {
	f := newFixture(t, &upstream{}, 2*time.Second)
	f.settle(t)

	rr := f.do(http.MethodGet, "/dashboard/charts", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Charts map[string]struct {
			Type     string   `json:"type"`
			Labels   []string `json:"labels"`
			Datasets []struct {
				Label           string    `json:"label"`
				Data            []float64 `json:"data"`
				BackgroundColor []string  `json:"backgroundColor"`
			} `json:"datasets"`
		} `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	product := resp.Charts["category_sales"]
	assert.Equal(t, "bar", product.Type)
	assert.Equal(t, []string{"Widget", "Gadget"}, product.Labels)
	assert.Equal(t, []float64{3000, 2000}, product.Datasets[0].Data)
	assert.Equal(t, []string{"#2ecc71", "#3498db"}, product.Datasets[0].BackgroundColor)
	assert.Equal(t, "Daily Sales", resp.Charts["daily_sales_trend"].Datasets[0].Label)
	assert.Equal(t, "pie", resp.Charts["region_sales"].Type)
}

func TestCSVExport(t *testing.T) {
	f := newFixture(t, &upstream{}, 2*time.Second)
	f.settle(t)

	rr := f.do(http.MethodGet, "/dashboard/export.csv", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "sales-Acme-2024-01-01-2024-01-31.csv")
	assert.Contains(t, rr.Body.String(), "Total Sales,5000.00")
}

func TestCSVExportWithoutAggregateConflicts(t *testing.T) {
	up := &upstream{companies: func(w http.ResponseWriter) {
		_, _ = w.Write([]byte(`[]`))
	}}
	f := newFixture(t, up, 2*time.Second)
	f.settle(t)

	rr := f.do(http.MethodGet, "/dashboard/export.csv", nil, nil)
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestHandlersRequireSession(t *testing.T) {
	f := newFixture(t, &upstream{}, 2*time.Second)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/state", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
