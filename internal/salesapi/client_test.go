package salesapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string][]string
}

func (o *recordingObserver) ObserveUpstream(endpoint, outcome string, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[string][]string)
	}
	o.outcomes[endpoint] = append(o.outcomes[endpoint], outcome)
}

func TestCompaniesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/companies", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`["Company X","Company Y"]`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := NewClient(srv.URL+"/", WithObserver(obs))
	companies, err := client.Companies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Company X", "Company Y"}, companies)
	assert.Equal(t, []string{"ok"}, obs.outcomes[endpointCompanies])
}

func TestCompaniesNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Companies(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindDecode, Kind(err))
}

func TestCompaniesNullIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Companies(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindDecode, Kind(err))
}

func TestCompaniesEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	companies, err := NewClient(srv.URL).Companies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{}, companies)
}

func TestWithTimeoutKeepsCustomHTTPClient(t *testing.T) {
	transport := &http.Transport{}
	custom := &http.Client{Transport: transport}

	client := NewClient("http://sales.local", WithHTTPClient(custom), WithTimeout(5*time.Second))
	assert.Same(t, transport, client.httpClient.Transport)
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	assert.Zero(t, custom.Timeout, "caller's client is not mutated")

	client = NewClient("http://sales.local", WithTimeout(5*time.Second), WithHTTPClient(custom))
	assert.Same(t, custom, client.httpClient)
}

func TestCompaniesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Companies(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindStatus, Kind(err))
}

func TestDashboardRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dashboard/Company X", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2024-03-31", r.URL.Query().Get("end_date"))
		_, _ = w.Write([]byte(`{
			"company_name": "Company X",
			"total_sales": 5000,
			"avg_sales_per_transaction": 25.5,
			"top_product": "Widget",
			"daily_sales_trend": [{"date": "2024-01-01", "sales": 10}, {"date": "2024-01-02", "sales": 20}],
			"category_sales": {"Product B": 30, "Product A": 10},
			"day_sales": {"Monday": 5, "Tuesday": null},
			"region_sales": {"North": 100, "South": 50}
		}`))
	}))
	defer srv.Close()

	agg, err := NewClient(srv.URL).Dashboard(context.Background(), "Company X", DateRange{Start: "2024-01-01", End: "2024-03-31"})
	require.NoError(t, err)
	assert.Equal(t, "Company X", agg.CompanyName)
	assert.Equal(t, 5000.0, agg.TotalSales)
	assert.Equal(t, 25.5, agg.AvgSalesPerTransaction)
	assert.Equal(t, "Widget", agg.TopProduct)
	assert.Equal(t, []DailySales{{Date: "2024-01-01", Sales: 10}, {Date: "2024-01-02", Sales: 20}}, agg.DailySalesTrend)
	assert.Equal(t, []string{"Product B", "Product A"}, agg.CategorySales.Keys())
	assert.Equal(t, []float64{5, 0}, agg.DaySales.Values())
	assert.Equal(t, Breakdown{{Key: "North", Value: 100}, {Key: "South", Value: 50}}, agg.RegionSales)
}

func TestDashboardNon2xxIgnoresBody(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"error": "something specific"}`))
		}))

		agg, err := NewClient(srv.URL).Dashboard(context.Background(), "Acme", DateRange{Start: "2024-01-01", End: "2024-01-31"})
		srv.Close()

		require.Error(t, err)
		assert.Nil(t, agg)
		assert.Equal(t, MsgNoData, err.Error())
		assert.Equal(t, KindStatus, Kind(err))
	}
}

func TestDashboardMalformedPayload(t *testing.T) {
	cases := map[string]string{
		"truncated":       `{"total_sales": 5`,
		"breakdown array": `{"category_sales": [1, 2]}`,
		"bad date":        `{"daily_sales_trend": [{"date": "01/02/2024", "sales": 1}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Dashboard(context.Background(), "Acme", DateRange{Start: "2024-01-01", End: "2024-01-31"})
			require.Error(t, err)
			assert.Equal(t, KindDecode, Kind(err))
		})
	}
}

func TestDashboardTransportAndCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Dashboard(context.Background(), "Acme", DateRange{Start: "2024-01-01", End: "2024-01-31"})
	require.Error(t, err)
	assert.Equal(t, KindTransport, Kind(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewClient(url).Dashboard(ctx, "Acme", DateRange{Start: "2024-01-01", End: "2024-01-31"})
	require.Error(t, err)
	assert.Equal(t, KindCanceled, Kind(err))
}
