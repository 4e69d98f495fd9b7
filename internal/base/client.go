// Package base provides the HTTP transport shared by Bento API calls.
package base

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/olgasafonova/bento-mcp-server/internal/infra"
	"github.com/olgasafonova/bento-mcp-server/metrics"
)

const (
	// DefaultTimeout for API requests
	DefaultTimeout = 30 * time.Second

	// MaxConcurrentRequests limits parallel API calls
	MaxConcurrentRequests = 5

	// DefaultRateLimit is the outbound budget in requests per second
	DefaultRateLimit = 10

	// DefaultMaxRetry is the attempt count for idempotent requests
	DefaultMaxRetry = 3

	// MaxResponseSize caps how much of a response body is read
	MaxResponseSize = 10 << 20

	// DefaultUserAgent is sent when a request does not set its own
	DefaultUserAgent = "bento-mcp-server/1.0"
)

// Client provides common HTTP client infrastructure with rate limiting,
// bounded concurrency, circuit breaking and retries.
type Client struct {
	HTTPClient     *http.Client
	Logger         *slog.Logger
	CircuitBreaker *infra.CircuitBreaker
	Limiter        *rate.Limiter
	Semaphore      chan struct{}
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.HTTPClient = c
	}
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) ClientOption {
	return func(client *Client) {
		client.Logger = l
	}
}

// WithTimeout replaces the HTTP client with one using the given timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.HTTPClient = newHTTPClient(d)
	}
}

// WithRateLimit sets the outbound request budget. A non-positive rps disables limiting.
func WithRateLimit(rps float64) ClientOption {
	return func(client *Client) {
		if rps <= 0 {
			client.Limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		client.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCircuitBreaker sets a custom circuit breaker
func WithCircuitBreaker(cb *infra.CircuitBreaker) ClientOption {
	return func(client *Client) {
		client.CircuitBreaker = cb
	}
}

// NewClient creates a new base client with default settings
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		HTTPClient: newHTTPClient(DefaultTimeout),
		Logger:     slog.Default(),
		CircuitBreaker: infra.NewCircuitBreakerWithConfig(infra.BreakerConfig{
			OnStateChange: func(_, to infra.CircuitState) {
				metrics.SetCircuitState(int(to))
			},
		}),
		Limiter:   rate.NewLimiter(DefaultRateLimit, DefaultRateLimit),
		Semaphore: make(chan struct{}, MaxConcurrentRequests),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Close releases idle connections held by the client
func (c *Client) Close() {
	if c.HTTPClient != nil {
		c.HTTPClient.CloseIdleConnections()
	}
}

// CircuitBreakerStats returns the current circuit breaker state
func (c *Client) CircuitBreakerStats() infra.CircuitBreakerStats {
	return c.CircuitBreaker.Stats()
}

// AcquireSlot blocks until a request slot is available or context is canceled
func (c *Client) AcquireSlot(ctx context.Context) error {
	select {
	case c.Semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context canceled while waiting for request slot: %w", ctx.Err())
	}
}

// ReleaseSlot releases a request slot
func (c *Client) ReleaseSlot() {
	<-c.Semaphore
}

// WaitForBudget blocks until the rate limiter admits one request
func (c *Client) WaitForBudget(ctx context.Context) error {
	if c.Limiter == nil {
		return nil
	}

	r := c.Limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("rate limiter cannot admit request")
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}

	metrics.RateLimitWaits.Inc()
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return fmt.Errorf("context canceled while waiting for rate limiter: %w", ctx.Err())
	}
}

// CheckCircuitBreaker returns nil if requests are allowed, or an error if the circuit is open
func (c *Client) CheckCircuitBreaker() error {
	if !c.CircuitBreaker.Allow() {
		stats := c.CircuitBreaker.Stats()
		return &infra.ErrCircuitOpen{
			RetryAt:  stats.RetryAt,
			Failures: stats.ConsecutiveFails,
		}
	}
	return nil
}

// RequestConfig configures a single HTTP request
type RequestConfig struct {
	Method    string // defaults to GET
	URL       string
	Body      []byte // sent as application/json when non-nil
	UserAgent string
	Username  string // Basic auth, sent when non-empty
	Password  string
	MaxRetry  int // attempts for GET requests, defaults to 3
}

func (cfg RequestConfig) method() string {
	if cfg.Method == "" {
		return http.MethodGet
	}
	return cfg.Method
}

// attempts returns how many times the request may be sent.
// Only idempotent reads are retried.
func (cfg RequestConfig) attempts() int {
	if m := cfg.method(); m != http.MethodGet && m != http.MethodHead {
		return 1
	}
	if cfg.MaxRetry <= 0 {
		return DefaultMaxRetry
	}
	return cfg.MaxRetry
}

// DoRequest performs an HTTP request with circuit breaker, rate limiting, and retries.
// Returns the response body and status on any non-5xx response; the caller
// interprets 4xx statuses and then calls RecordSuccess or RecordFailure.
func (c *Client) DoRequest(ctx context.Context, cfg RequestConfig) ([]byte, int, error) {
	if err := c.CheckCircuitBreaker(); err != nil {
		return nil, 0, err
	}

	// Requests that end without a recorded outcome hand their probe slot back.
	recorded := false
	defer func() {
		if !recorded {
			c.CircuitBreaker.Release()
		}
	}()

	if err := c.AcquireSlot(ctx); err != nil {
		return nil, 0, err
	}
	defer c.ReleaseSlot()

	maxAttempts := cfg.attempts()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			metrics.APIRetries.Inc()
			backoff := time.Duration(attempt*attempt) * 100 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, 0, fmt.Errorf("context canceled during backoff: %w", ctx.Err())
			}
		}

		if err := c.WaitForBudget(ctx); err != nil {
			return nil, 0, err
		}

		req, err := newRequest(ctx, cfg)
		if err != nil {
			return nil, 0, err
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, 0, fmt.Errorf("request canceled: %w", ctx.Err())
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			c.Logger.Warn("Bento API request failed",
				"attempt", attempt+1,
				"method", req.Method,
				"path", req.URL.Path,
				"error", err)
			continue
		}

		body, err := readAndClose(resp)
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			if attempt+1 >= maxAttempts {
				// Let the caller surface the 429 as an API error.
				recorded = true
				return body, resp.StatusCode, nil
			}
			if wait, ok := retryAfter(resp); ok {
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				}
			}
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error %d: %s", resp.StatusCode, Truncate(string(body), 200))
			continue
		}

		// The caller records the outcome.
		recorded = true
		return body, resp.StatusCode, nil
	}

	recorded = true
	c.CircuitBreaker.RecordFailure()
	return nil, 0, lastErr
}

// RecordSuccess records a successful request with the circuit breaker
func (c *Client) RecordSuccess() {
	c.CircuitBreaker.RecordSuccess()
}

// RecordFailure records a failed request with the circuit breaker
func (c *Client) RecordFailure() {
	c.CircuitBreaker.RecordFailure()
}

func newRequest(ctx context.Context, cfg RequestConfig) (*http.Request, error) {
	var body io.Reader
	if cfg.Body != nil {
		body = bytes.NewReader(cfg.Body)
	}

	req, err := http.NewRequestWithContext(ctx, cfg.method(), cfg.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if cfg.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	} else {
		req.Header.Set("User-Agent", DefaultUserAgent)
	}
	if cfg.Username != "" {
		req.SetBasicAuth(cfg.Username, cfg.Password)
	}
	return req, nil
}

// retryAfter parses a Retry-After header given in seconds
func retryAfter(resp *http.Response) (time.Duration, bool) {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// readAndClose reads at most MaxResponseSize bytes of the body and closes it
func readAndClose(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeds %d bytes", MaxResponseSize)
	}
	return body, nil
}

// Truncate shortens s to at most maxLen bytes plus "...", never splitting a rune.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := max(maxLen, 0)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// newHTTPClient creates an HTTP client with optimized transport settings
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       120 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
