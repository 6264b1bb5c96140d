package client

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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Request outcomes reported to the Observer
const (
	OutcomeOK           = "ok"
	OutcomeNetworkError = "network_error"
	OutcomeHTTPError    = "http_error"
	OutcomeParseError   = "parse_error"
)

// Observer receives the outcome and duration of every backend request
type Observer interface {
	ObserveRequest(outcome string, duration time.Duration)
}

// Client performs GET requests against the DataOps backend
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     zerolog.Logger
	observer   Observer
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithObserver registers a request observer, typically the metrics recorder
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New creates a client for the backend at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: must be absolute", baseURL)
	}

	c := &Client{
		baseURL: u,
		// No timeout: each call is a single attempt bounded only by ctx
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ResolveURL resolves path against base and, when params is non-empty,
// replaces the query string with the encoded params.
func ResolveURL(base *url.URL, path string, params map[string]string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}

	u := base.ResolveReference(ref)
	if len(params) > 0 {
		values := make(url.Values, len(params))
		for k, v := range params {
			values.Set(k, v)
		}
		u.RawQuery = values.Encode()
	}
	return u, nil
}

// Get issues a GET for path with the given query params and returns the
// response body, which is guaranteed to be valid JSON.
func (c *Client) Get(ctx context.Context, path string, params map[string]string) (json.RawMessage, error) {
	u, err := ResolveURL(c.baseURL, path, params)
	if err != nil {
		return nil, err
	}
	target := u.String()

	c.logger.Info().Str("url", target).Msg("GET")
	start := time.Now()

	body, err := c.do(ctx, target)
	c.observe(err, time.Since(start))
	if err != nil {
		c.logFailure(target, err)
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, target string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The request already failed; an unreadable body is reported as empty
		bodyBytes, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			bodyBytes = nil
		}
		return nil, &HTTPError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       string(bodyBytes),
		}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ParseError{URL: target, Err: err}
	}

	var raw json.RawMessage
	if err := json.Unmarshal(bodyBytes, &raw); err != nil {
		return nil, &ParseError{URL: target, Err: err}
	}
	return raw, nil
}

// Getter fetches a raw JSON body from a backend path. *Client implements it.
type Getter interface {
	Get(ctx context.Context, path string, params map[string]string) (json.RawMessage, error)
}

// GetJSON issues a GET through g and decodes the body into T
func GetJSON[T any](ctx context.Context, g Getter, path string, params map[string]string) (T, error) {
	var zero T
	body, err := g.Get(ctx, path, params)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return zero, &ParseError{URL: requestTarget(g, path, params), Err: err}
	}
	return out, nil
}

// requestTarget names a request for error messages, as a full URL when g
// exposes its base URL and as the bare path otherwise
func requestTarget(g Getter, path string, params map[string]string) string {
	b, ok := g.(interface{ BaseURL() string })
	if !ok {
		return path
	}
	base, err := url.Parse(b.BaseURL())
	if err != nil {
		return path
	}
	u, err := ResolveURL(base, path, params)
	if err != nil {
		return path
	}
	return u.String()
}

func (c *Client) observe(err error, d time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveRequest(Outcome(err), d)
}

func (c *Client) logFailure(target string, err error) {
	event := c.logger.Error().Str("url", target)

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		event = event.Int("status", httpErr.StatusCode)
		if detail := httpErr.Detail(); detail != "" {
			event = event.Str("detail", detail)
		}
	}
	event.Err(err).Msg("backend request failed")
}

// Outcome classifies err into one of the Outcome* constants
func Outcome(err error) string {
	var (
		httpErr  *HTTPError
		parseErr *ParseError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &httpErr):
		return OutcomeHTTPError
	case errors.As(err, &parseErr):
		return OutcomeParseError
	default:
		return OutcomeNetworkError
	}
}

// statusText strips the numeric code from resp.Status ("404 Not Found" -> "Not Found")
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
