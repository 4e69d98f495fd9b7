package main

import (
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/olgasafonova/bento-mcp-server/metrics"
)

// RateLimiter keeps one token bucket per client IP.
// Each bucket holds rate tokens and refills them over interval.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter starts a limiter allowing rate requests per interval per IP.
func NewRateLimiter(requests int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     requests,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		every := rl.interval / time.Duration(max(rl.rate, 1))
		v = &visitor{limiter: rate.NewLimiter(rate.Every(every), max(rl.rate, 1))}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// cleanup drops buckets idle for longer than a few refill intervals.
func (rl *RateLimiter) cleanup() {
	ttl := max(3*rl.interval, time.Minute)
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if now.Sub(v.lastSeen) > ttl {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// SecurityConfig configures the HTTP transport guard.
type SecurityConfig struct {
	// RateLimit is requests per minute per IP; 0 disables limiting
	RateLimit int
	// MaxBodySize caps request bodies in bytes; 0 disables the cap
	MaxBodySize int64
	// AuthToken, when set, must be presented as a Bearer token
	AuthToken string
}

// SecurityMiddleware authenticates, rate limits and measures HTTP requests.
type SecurityMiddleware struct {
	next    http.Handler
	logger  *slog.Logger
	config  SecurityConfig
	limiter *RateLimiter
}

// NewSecurityMiddleware wraps next with the configured checks.
func NewSecurityMiddleware(next http.Handler, logger *slog.Logger, config SecurityConfig) *SecurityMiddleware {
	sm := &SecurityMiddleware{
		next:   next,
		logger: logger,
		config: config,
	}
	if config.RateLimit > 0 {
		sm.limiter = NewRateLimiter(config.RateLimit, time.Minute)
	}
	return sm
}

// Close releases the rate limiter.
func (sm *SecurityMiddleware) Close() {
	if sm.limiter != nil {
		sm.limiter.Close()
	}
}

func (sm *SecurityMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	}()
	defer recoverPanic(sm.logger, "http request")

	ip := clientIP(r)

	if sm.config.AuthToken != "" {
		if reason := sm.authenticate(r); reason != "" {
			metrics.AuthFailures.WithLabelValues(reason).Inc()
			sm.logger.Warn("Rejected unauthenticated request", "ip", ip, "reason", reason)
			rec.Header().Set("WWW-Authenticate", `Bearer realm="bento-mcp-server"`)
			http.Error(rec, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	if sm.limiter != nil && !sm.limiter.Allow(ip) {
		metrics.RateLimitRejections.Inc()
		sm.logger.Warn("Rate limit exceeded", "ip", ip)
		rec.Header().Set("Retry-After", "60")
		http.Error(rec, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	if sm.config.MaxBodySize > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(rec, r.Body, sm.config.MaxBodySize)
	}

	sm.next.ServeHTTP(rec, r)
}

// authenticate returns a failure reason, or "" when the token matches.
func (sm *SecurityMiddleware) authenticate(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "missing"
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "malformed"
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(sm.config.AuthToken)) != 1 {
		return "invalid"
	}
	return ""
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
