package base

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olgasafonova/bento-mcp-server/internal/infra"
)

func TestNewClient(t *testing.T) {
	client := NewClient()
	if client == nil {
		t.Fatal("NewClient returned nil")
	}
	defer client.Close()

	if client.HTTPClient == nil {
		t.Error("HTTPClient is nil")
	}
	if client.Logger == nil {
		t.Error("Logger is nil")
	}
	if client.CircuitBreaker == nil {
		t.Error("CircuitBreaker is nil")
	}
	if client.Limiter == nil {
		t.Error("Limiter is nil")
	}
	if client.Semaphore == nil {
		t.Error("Semaphore is nil")
	}
}

func TestNewClientWithOptions(t *testing.T) {
	customHTTP := &http.Client{Timeout: 60 * time.Second}
	customLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	customBreaker := infra.NewCircuitBreaker()

	client := NewClient(
		WithHTTPClient(customHTTP),
		WithLogger(customLogger),
		WithCircuitBreaker(customBreaker),
	)
	defer client.Close()

	if client.HTTPClient != customHTTP {
		t.Error("custom HTTP client was not set")
	}
	if client.Logger != customLogger {
		t.Error("custom logger was not set")
	}
	if client.CircuitBreaker != customBreaker {
		t.Error("custom circuit breaker was not set")
	}
}

func TestWithTimeout(t *testing.T) {
	client := NewClient(WithTimeout(5 * time.Second))
	defer client.Close()

	if client.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", client.HTTPClient.Timeout)
	}
}

func TestWithRateLimit(t *testing.T) {
	tests := []struct {
		name      string
		rps       float64
		wantNil   bool
		wantBurst int
	}{
		{"disabled", 0, true, 0},
		{"fractional", 0.5, false, 1},
		{"whole", 20, false, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(WithRateLimit(tt.rps))
			defer client.Close()

			if tt.wantNil {
				if client.Limiter != nil {
					t.Error("expected limiter to be disabled")
				}
				return
			}
			if client.Limiter.Burst() != tt.wantBurst {
				t.Errorf("burst = %d, want %d", client.Limiter.Burst(), tt.wantBurst)
			}
		})
	}
}

func TestClient_DefaultValues(t *testing.T) {
	client := NewClient()
	defer client.Close()

	if client.HTTPClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.HTTPClient.Timeout, DefaultTimeout)
	}
	if cap(client.Semaphore) != MaxConcurrentRequests {
		t.Errorf("semaphore capacity = %d, want %d", cap(client.Semaphore), MaxConcurrentRequests)
	}
}

func TestClient_AcquireReleaseSlot(t *testing.T) {
	client := NewClient()
	defer client.Close()

	if err := client.AcquireSlot(context.Background()); err != nil {
		t.Fatalf("AcquireSlot failed: %v", err)
	}
	client.ReleaseSlot()
}

func TestClient_AcquireSlot_ContextCanceled(t *testing.T) {
	client := &Client{
		Semaphore: make(chan struct{}, 1),
	}

	ctx, cancel := context.WithCancel(context.Background())
	client.Semaphore <- struct{}{}
	cancel()

	if err := client.AcquireSlot(ctx); err == nil {
		t.Error("expected error when context is canceled")
	}
}

func TestClient_WaitForBudget_ContextCanceled(t *testing.T) {
	client := NewClient(WithRateLimit(0.001))
	defer client.Close()

	// Drain the single token.
	if err := client.WaitForBudget(context.Background()); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := client.WaitForBudget(ctx); err == nil {
		t.Error("expected error when budget is exhausted and context expires")
	}
}

func TestClient_WaitForBudget_Disabled(t *testing.T) {
	client := NewClient(WithRateLimit(0))
	defer client.Close()

	for range 100 {
		if err := client.WaitForBudget(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestClient_CircuitBreakerStats(t *testing.T) {
	client := NewClient()
	defer client.Close()

	if stats := client.CircuitBreakerStats(); stats.State != "closed" {
		t.Errorf("initial circuit breaker state = %q, want 'closed'", stats.State)
	}
}

func TestClient_CheckCircuitBreaker_Open(t *testing.T) {
	client := NewClient()
	defer client.Close()

	for range 10 {
		client.RecordFailure()
	}

	err := client.CheckCircuitBreaker()
	if err == nil {
		t.Fatal("expected error when circuit is open")
	}
	if _, ok := err.(*infra.ErrCircuitOpen); !ok {
		t.Errorf("expected *infra.ErrCircuitOpen, got %T", err)
	}
}

func TestClient_RecordSuccess(t *testing.T) {
	client := NewClient()
	defer client.Close()

	client.RecordFailure()
	client.RecordFailure()
	client.RecordSuccess()

	if stats := client.CircuitBreakerStats(); stats.ConsecutiveFails != 0 {
		t.Errorf("consecutive fails = %d, want 0 after success", stats.ConsecutiveFails)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"longer than max length", 10, "longer tha..."},
		{"", 5, ""},
		{"abc", 0, "..."},
		{"abcd", 3, "abc..."},
		{"héllo", 2, "h..."},
		{"日本語", 4, "日..."},
		{"日本語", 6, "日本..."},
	}

	for _, tt := range tests {
		if result := Truncate(tt.input, tt.maxLen); result != tt.expected {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestReadAndClose(t *testing.T) {
	resp := &http.Response{Body: io.NopCloser(strings.NewReader("test response body"))}

	data, err := readAndClose(resp)
	if err != nil {
		t.Fatalf("readAndClose failed: %v", err)
	}
	if string(data) != "test response body" {
		t.Errorf("got %q, want 'test response body'", string(data))
	}
}

func TestReadAndClose_ResponseTooLarge(t *testing.T) {
	largeData := make([]byte, MaxResponseSize+100)
	resp := &http.Response{Body: io.NopCloser(bytes.NewReader(largeData))}

	if _, err := readAndClose(resp); err == nil {
		t.Error("expected error for oversized response")
	}
}

func TestReadAndClose_ReadError(t *testing.T) {
	resp := &http.Response{Body: io.NopCloser(&errorReader{})}

	if _, err := readAndClose(resp); err == nil {
		t.Error("expected error when read fails")
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
		ok     bool
	}{
		{"", 0, false},
		{"2", 2 * time.Second, true},
		{"invalid", 0, false},
		{"-1", 0, false},
	}

	for _, tt := range tests {
		resp := &http.Response{Header: http.Header{}}
		if tt.header != "" {
			resp.Header.Set("Retry-After", tt.header)
		}
		got, ok := retryAfter(resp)
		if got != tt.want || ok != tt.ok {
			t.Errorf("retryAfter(%q) = (%v, %v), want (%v, %v)", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDoRequest_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Error("Accept header not set")
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	body, statusCode, err := client.DoRequest(context.Background(), RequestConfig{
		URL:      server.URL,
		MaxRetry: 1,
	})
	if err != nil {
		t.Fatalf("DoRequest failed: %v", err)
	}
	if statusCode != http.StatusOK {
		t.Errorf("status code = %d, want 200", statusCode)
	}
	if string(body) != `{"status":"ok"}` {
		t.Errorf("body = %q", string(body))
	}
}

func TestDoRequest_PostWithBodyAndAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "pk" || pass != "sk" {
			t.Errorf("basic auth = (%q, %q, %v)", user, pass, ok)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if payload["name"] != "vip" {
			t.Errorf("payload = %v", payload)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	_, statusCode, err := client.DoRequest(context.Background(), RequestConfig{
		Method:   http.MethodPost,
		URL:      server.URL,
		Body:     []byte(`{"name":"vip"}`),
		Username: "pk",
		Password: "sk",
	})
	if err != nil {
		t.Fatalf("DoRequest failed: %v", err)
	}
	if statusCode != http.StatusCreated {
		t.Errorf("status code = %d, want 201", statusCode)
	}
}

func TestDoRequest_UserAgent(t *testing.T) {
	var receivedUA atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUA.Store(r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	_, _, _ = client.DoRequest(context.Background(), RequestConfig{URL: server.URL, UserAgent: "custom-agent/1.0", MaxRetry: 1})
	if got := receivedUA.Load(); got != "custom-agent/1.0" {
		t.Errorf("User-Agent = %v, want 'custom-agent/1.0'", got)
	}

	_, _, _ = client.DoRequest(context.Background(), RequestConfig{URL: server.URL, MaxRetry: 1})
	if got := receivedUA.Load(); got != DefaultUserAgent {
		t.Errorf("User-Agent = %v, want %q", got, DefaultUserAgent)
	}
}

func TestDoRequest_CircuitOpen(t *testing.T) {
	client := NewClient()
	defer client.Close()

	for range 10 {
		client.RecordFailure()
	}

	if _, _, err := client.DoRequest(context.Background(), RequestConfig{URL: "http://example.com"}); err == nil {
		t.Error("expected error when circuit is open")
	}
}

func TestDoRequest_ServerError_Retries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("server error"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	body, statusCode, err := client.DoRequest(context.Background(), RequestConfig{URL: server.URL, MaxRetry: 5})
	if err != nil {
		t.Fatalf("DoRequest failed: %v", err)
	}
	if statusCode != http.StatusOK || string(body) != "success" {
		t.Errorf("got (%d, %q), want (200, success)", statusCode, string(body))
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestDoRequest_PostIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	_, _, err := client.DoRequest(context.Background(), RequestConfig{
		Method:   http.MethodPost,
		URL:      server.URL,
		Body:     []byte(`{}`),
		MaxRetry: 5,
	})
	if err == nil {
		t.Error("expected error for 502")
	}
	if attempts.Load() != 1 {
		t.Errorf("attempts = %d, want 1", attempts.Load())
	}
}

func TestDoRequest_RateLimited(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	body, statusCode, err := client.DoRequest(ctx, RequestConfig{URL: server.URL, MaxRetry: 3})
	if err != nil {
		t.Fatalf("DoRequest failed: %v", err)
	}
	if statusCode != http.StatusOK || string(body) != "success" {
		t.Errorf("got (%d, %q), want (200, success)", statusCode, string(body))
	}
}

func TestDoRequest_RateLimited_LastAttemptReturnsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	body, statusCode, err := client.DoRequest(context.Background(), RequestConfig{URL: server.URL, MaxRetry: 1})
	if err != nil {
		t.Fatalf("DoRequest failed: %v", err)
	}
	if statusCode != http.StatusTooManyRequests {
		t.Errorf("status code = %d, want 429", statusCode)
	}
	if !strings.Contains(string(body), "slow down") {
		t.Errorf("body = %q", string(body))
	}
}

func TestDoRequest_RateLimited_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, _, err := client.DoRequest(ctx, RequestConfig{URL: server.URL, MaxRetry: 2}); err == nil {
		t.Error("expected error when context is canceled during Retry-After wait")
	}
}

func TestDoRequest_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := client.DoRequest(ctx, RequestConfig{URL: server.URL, MaxRetry: 1}); err == nil {
		t.Error("expected error when context is canceled")
	}
}

func TestDoRequest_AllRetriesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("always fails"))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	_, _, err := client.DoRequest(context.Background(), RequestConfig{URL: server.URL, MaxRetry: 2})
	if err == nil {
		t.Fatal("expected error when all retries fail")
	}
	if stats := client.CircuitBreakerStats(); stats.ConsecutiveFails != 1 {
		t.Errorf("consecutive fails = %d, want 1", stats.ConsecutiveFails)
	}
}

func TestDoRequest_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not found"))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	body, statusCode, err := client.DoRequest(context.Background(), RequestConfig{URL: server.URL, MaxRetry: 1})
	if err != nil {
		t.Fatalf("DoRequest failed: %v", err)
	}
	if statusCode != http.StatusNotFound {
		t.Errorf("status code = %d, want 404", statusCode)
	}
	if string(body) != "not found" {
		t.Errorf("body = %q, want 'not found'", string(body))
	}
}

func TestDoRequest_DefaultMaxRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	_, _, _ = client.DoRequest(context.Background(), RequestConfig{URL: server.URL})

	if attempts.Load() != DefaultMaxRetry {
		t.Errorf("attempts = %d, want %d", attempts.Load(), DefaultMaxRetry)
	}
}

func TestDoRequest_BackoffContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, _, err := client.DoRequest(ctx, RequestConfig{URL: server.URL, MaxRetry: 10}); err == nil {
		t.Error("expected error when context is canceled during backoff")
	}
}

type errorReader struct{}

func (e *errorReader) Read(p []byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestDoRequest_CanceledProbesDoNotLockBreaker(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	cb := infra.NewCircuitBreakerWithConfig(infra.BreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     10 * time.Millisecond,
		HalfOpenMax:      1,
	})
	client := NewClient(WithCircuitBreaker(cb), WithRateLimit(0))
	defer client.Close()

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	// Both half-open probes are abandoned by their callers.
	for i := range 2 {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		_, _, err := client.DoRequest(ctx, RequestConfig{URL: server.URL, MaxRetry: 1})
		cancel()
		if err == nil {
			t.Fatalf("probe %d: expected cancellation error", i+1)
		}
		var openErr *infra.ErrCircuitOpen
		if errors.As(err, &openErr) {
			t.Fatalf("probe %d: rejected by breaker before reaching the API: %v", i+1, err)
		}
	}

	healthy.Store(true)

	body, status, err := client.DoRequest(context.Background(), RequestConfig{URL: server.URL, MaxRetry: 1})
	if err != nil {
		t.Fatalf("breaker stayed shut after abandoned probes: %v (state=%s)", err, cb.State())
	}
	if status != http.StatusOK || string(body) != `{"ok":true}` {
		t.Errorf("status=%d body=%q", status, body)
	}

	client.RecordSuccess()
	if cb.State() != infra.CircuitClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestDoRequest_AcquireSlotCanceledReleasesProbe(t *testing.T) {
	cb := infra.NewCircuitBreakerWithConfig(infra.BreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     10 * time.Millisecond,
		HalfOpenMax:      1,
	})
	client := NewClient(WithCircuitBreaker(cb), WithRateLimit(0))
	defer client.Close()

	for range MaxConcurrentRequests {
		if err := client.AcquireSlot(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	defer func() {
		for range MaxConcurrentRequests {
			client.ReleaseSlot()
		}
	}()

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	for i := range 3 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, _, err := client.DoRequest(ctx, RequestConfig{URL: "http://127.0.0.1:0"})
		cancel()
		var openErr *infra.ErrCircuitOpen
		if errors.As(err, &openErr) {
			t.Fatalf("call %d rejected by breaker: %v", i+1, err)
		}
	}
}

func TestCheckCircuitBreaker_HalfOpenRetryAtIsSet(t *testing.T) {
	cb := infra.NewCircuitBreakerWithConfig(infra.BreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     10 * time.Millisecond,
		HalfOpenMax:      1,
	})
	client := NewClient(WithCircuitBreaker(cb))
	defer client.Close()

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	cb.Allow()
	cb.Allow()

	err := client.CheckCircuitBreaker()
	var openErr *infra.ErrCircuitOpen
	if !errors.As(err, &openErr) {
		t.Fatalf("expected *infra.ErrCircuitOpen, got %v", err)
	}
	if openErr.RetryAt.IsZero() {
		t.Error("RetryAt should not be the zero time while half-open")
	}
}
