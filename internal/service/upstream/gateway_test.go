package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	rcache "SentiPulse/internal/service/cache"
	"SentiPulse/internal/service/ratelimit"
	xhttp "SentiPulse/pkg/http"
	"SentiPulse/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordUpstreamRequest(service, result string) {}
func (nopMetrics) RecordRateLimitDenied(service string)         {}
func (nopMetrics) RecordCacheLookup(cache string, hit bool)     {}
func (nopMetrics) RecordPostsIngested(source string, n int)     {}
func (nopMetrics) RecordError(kind string)                      {}
func (nopMetrics) RecordLatency(op string, seconds float64)     {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testGateway(t *testing.T, baseURL string, maxRequests int) *Gateway {
	t.Helper()
	limiter := ratelimit.New(ratelimit.WindowConfig{
		Service:     "social",
		MaxRequests: maxRequests,
		Window:      time.Minute,
		RetryAfter:  5 * time.Millisecond,
	})
	return NewGateway("social", baseURL, "test-key",
		xhttp.NewClient(xhttp.WithTimeout(2*time.Second)),
		limiter,
		rcache.New(100, time.Minute),
		time.Minute, 3,
		testLogger(t), nopMetrics{})
}

func TestCallCachesResponse(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	g := testGateway(t, srv.URL, 10)
	params := map[string]string{"symbol": "BTC"}

	for i := 0; i < 3; i++ {
		if _, err := g.Call(context.Background(), "/v1/posts", params); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", n)
	}
}

func TestCallRetriesOn429(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	g := testGateway(t, srv.URL, 10)
	if _, err := g.Call(context.Background(), "/v1/posts", nil); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if n := atomic.LoadInt64(&hits); n != 2 {
		t.Fatalf("expected 2 upstream hits, got %d", n)
	}
}

func TestCallUnavailableAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := testGateway(t, srv.URL, 10)
	_, err := g.Call(context.Background(), "/v1/posts", nil)

	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
	if ue.Service != "social" || ue.Status != http.StatusServiceUnavailable {
		t.Fatalf("unexpected error fields %+v", ue)
	}
}

func TestCallQuotaExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	limiter := ratelimit.New(ratelimit.WindowConfig{
		Service:     "social",
		MaxRequests: 1,
		Window:      time.Minute,
		RetryAfter:  time.Millisecond,
	})
	g := NewGateway("social", srv.URL, "",
		xhttp.NewClient(), limiter, rcache.New(100, time.Minute),
		time.Minute, 0, testLogger(t), nopMetrics{})

	if _, err := g.Call(context.Background(), "/v1/posts", map[string]string{"symbol": "BTC"}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	// different key, cache miss, quota spent
	_, err := g.Call(context.Background(), "/v1/posts", map[string]string{"symbol": "ETH"})
	var lee *ratelimit.LimitExceededError
	if !errors.As(err, &lee) {
		t.Fatalf("expected LimitExceededError, got %v", err)
	}
}

func TestCallSendsAuthHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	g := testGateway(t, srv.URL, 10)
	if _, err := g.Call(context.Background(), "/v1/posts", nil); err != nil {
		t.Fatalf("call: %v", err)
	}
	if got != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", got)
	}
}
