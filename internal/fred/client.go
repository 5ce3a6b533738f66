// Package fred implements a series fetcher against the FRED observations API.
package fred

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"yieldcurve-lab/internal/domain"
	"yieldcurve-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.stlouisfed.org/fred"
	DefaultTimeout     = 10 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Range used when the caller leaves start or end unset.
var (
	DefaultStart = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	DefaultEnd   = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// ErrMissingAPIKey is returned by NewHTTPClient when no API key is configured.
var ErrMissingAPIKey = errors.New("fred: api key not set")

// HTTPError is returned for a non-2xx response that survived all retries.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fred: unexpected status %d: %s", e.StatusCode, e.Body)
}

// retryable reports whether the status is worth another attempt.
func (e *HTTPError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// HTTPClient fetches series observations over HTTP.
type HTTPClient struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	logger      zerolog.Logger
	metrics     *observability.Metrics
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithBaseURL overrides the API root, e.g. for a proxy or a test server.
func WithBaseURL(u string) ClientOption {
	return func(c *HTTPClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.logger = l
	}
}

// WithMetrics records request and retry counts.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *HTTPClient) {
		c.metrics = m
	}
}

// NewHTTPClient creates a new FRED client.
func NewHTTPClient(apiKey string, opts ...ClientOption) (*HTTPClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	c := &HTTPClient{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// observationsResponse is the subset of /series/observations we read.
type observationsResponse struct {
	Observations []observation `json:"observations"`
}

type observation struct {
	Date  string    `json:"date"`
	Value flexValue `json:"value"`
}

// flexValue accepts the value as a JSON string (FRED's documented shape) or a
// bare number, and keeps it as text. null decodes to "".
type flexValue string

func (v *flexValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = flexValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("observation value: %w", err)
	}
	*v = flexValue(n.String())
	return nil
}

// FetchSeries downloads all observations of seriesID within [start, end].
// Zero start or end fall back to DefaultStart and DefaultEnd. Values are
// returned verbatim, including missing-data sentinels such as ".".
func (c *HTTPClient) FetchSeries(ctx context.Context, seriesID string, start, end time.Time) ([]domain.RawObservation, error) {
	if start.IsZero() {
		start = DefaultStart
	}
	if end.IsZero() {
		end = DefaultEnd
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("file_type", "json")
	params.Set("observation_start", domain.FormatDate(start))
	params.Set("observation_end", domain.FormatDate(end))

	began := time.Now()
	var resp observationsResponse
	if err := c.get(ctx, "/series/observations", params, &resp); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", seriesID, err)
	}
	c.metrics.RecordFetch(seriesID, time.Since(began))

	out := make([]domain.RawObservation, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		d, err := domain.ParseDate(o.Date)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: parse date %q: %w", seriesID, o.Date, err)
		}
		out = append(out, domain.RawObservation{Date: d, Value: string(o.Value)})
	}

	return out, nil
}

// get performs a GET with retries and exponential backoff. The api key is
// appended here so it never reaches the log line.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("api_key", c.apiKey)
	reqURL := endpoint + "?" + query.Encode()

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.metrics.RecordFetchRetry()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		c.logger.Debug().
			Str("url", endpoint).
			Str("params", params.Encode()).
			Int("attempt", attempt+1).
			Msg("GET")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			c.metrics.RecordFetchRequest("error")
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", redact(err, c.apiKey))
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.metrics.RecordFetchRequest(strconv.Itoa(resp.StatusCode))
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
			c.logger.Error().
				Str("url", endpoint).
				Int("status", resp.StatusCode).
				Msg("HTTP error")
			if !httpErr.retryable() {
				return httpErr
			}
			lastErr = httpErr
			continue
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			// Malformed payloads are not retried
			return fmt.Errorf("unmarshal response: %w", err)
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// redact strips the api key from transport errors, which embed the request URL.
func redact(err error, apiKey string) error {
	msg := err.Error()
	if !strings.Contains(msg, apiKey) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, apiKey, "REDACTED"))
}
