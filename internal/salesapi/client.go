// Package salesapi is the typed client for the remote sales aggregate API.
package salesapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	endpointCompanies = "companies"
	endpointDashboard = "dashboard"
)

// Observer receives one notification per outbound request.
type Observer interface {
	ObserveUpstream(endpoint, outcome string, elapsed time.Duration)
}

// Client talks to the sales API. Both endpoints share one base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	observer   Observer
	logger     *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every request. Zero leaves requests unbounded. It sets
// the timeout on a copy of the current http.Client, so a client passed
// earlier through WithHTTPClient keeps its transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithObserver attaches request metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger attaches a logger for upstream failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient constructs a client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{},
		validate:   validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Companies fetches the company directory.
func (c *Client) Companies(ctx context.Context) (companies []string, err error) {
	start := time.Now()
	defer func() { c.observe(endpointCompanies, err, start) }()

	resp, err := c.get(ctx, "/api/companies", nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !successful(resp.StatusCode) {
		return nil, &StatusError{Endpoint: endpointCompanies, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(&companies); err != nil {
		return nil, &DecodeError{Endpoint: endpointCompanies, Err: err}
	}
	if companies == nil {
		return nil, &DecodeError{Endpoint: endpointCompanies, Err: errNullDirectory}
	}
	return companies, nil
}

// Dashboard fetches the aggregate for company over r.
func (c *Client) Dashboard(ctx context.Context, company string, r DateRange) (agg *Aggregate, err error) {
	start := time.Now()
	defer func() { c.observe(endpointDashboard, err, start) }()

	query := url.Values{}
	query.Set("start_date", r.Start)
	query.Set("end_date", r.End)
	resp, err := c.get(ctx, "/api/dashboard/"+url.PathEscape(company), query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !successful(resp.StatusCode) {
		return nil, &StatusError{Endpoint: endpointDashboard, StatusCode: resp.StatusCode, message: MsgNoData}
	}

	var payload Aggregate
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &DecodeError{Endpoint: endpointDashboard, Err: err}
	}
	if err := c.validate.Struct(payload); err != nil {
		return nil, &DecodeError{Endpoint: endpointDashboard, Err: err}
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("salesapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("salesapi: GET %s: %w", path, err)
	}
	return resp, nil
}

func (c *Client) observe(endpoint string, err error, start time.Time) {
	outcome := "ok"
	if err != nil {
		outcome = string(Kind(err))
		if c.logger != nil && Kind(err) != KindCanceled {
			c.logger.Warn("sales api request failed", slog.String("endpoint", endpoint), slog.Any("error", err))
		}
	}
	if c.observer != nil {
		c.observer.ObserveUpstream(endpoint, outcome, time.Since(start))
	}
}

func successful(code int) bool {
	return code >= 200 && code < 300
}
