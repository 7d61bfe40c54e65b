package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	xhttp "SentiPulse/pkg/http"
)

func testLimiter(max int, window, retryAfter time.Duration) *Limiter {
	return New(WindowConfig{
		Service:     "price",
		MaxRequests: max,
		Window:      window,
		RetryAfter:  retryAfter,
	})
}

func TestAdmitUnderLimit(t *testing.T) {
	l := testLimiter(3, time.Minute, time.Second)
	for i := 0; i < 3; i++ {
		ok, _ := l.Admit("price")
		if !ok {
			t.Fatalf("request %d denied under limit", i)
		}
	}
	ok, wait := l.Admit("price")
	if ok {
		t.Fatalf("expected denial at limit")
	}
	if wait != time.Second {
		t.Fatalf("unexpected retry-after %v", wait)
	}
}

func TestAdmitWindowSlides(t *testing.T) {
	l := testLimiter(2, time.Minute, time.Second)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	l.Admit("price")
	l.Admit("price")
	if ok, _ := l.Admit("price"); ok {
		t.Fatalf("expected denial")
	}

	// first record falls out of the window, capacity frees up
	l.now = func() time.Time { return base.Add(61 * time.Second) }
	if ok, _ := l.Admit("price"); !ok {
		t.Fatalf("expected admission after window slide")
	}
}

func TestAdmitUnknownService(t *testing.T) {
	l := testLimiter(1, time.Minute, time.Second)
	for i := 0; i < 10; i++ {
		if ok, _ := l.Admit("unconfigured"); !ok {
			t.Fatalf("unknown service must degrade open")
		}
	}
}

func TestExecuteSuccess(t *testing.T) {
	l := testLimiter(5, time.Minute, time.Millisecond)
	calls := 0
	err := l.Execute(context.Background(), "price", func(ctx context.Context) error {
		calls++
		return nil
	}, 3)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected single call, got %d", calls)
	}
}

func TestExecuteExhaustedNoRetries(t *testing.T) {
	l := testLimiter(1, time.Minute, time.Hour)
	l.Admit("price")

	start := time.Now()
	err := l.Execute(context.Background(), "price", func(ctx context.Context) error {
		t.Fatalf("action must not run when denied")
		return nil
	}, 0)

	var lee *LimitExceededError
	if !errors.As(err, &lee) {
		t.Fatalf("expected LimitExceededError, got %v", err)
	}
	if lee.Service != "price" || lee.Retries != 0 {
		t.Fatalf("unexpected error fields %+v", lee)
	}
	// maxRetries=0 must fail without sleeping the retry-after
	if time.Since(start) > time.Second {
		t.Fatalf("expected immediate failure")
	}
}

func TestExecuteRetriesThenSucceeds(t *testing.T) {
	l := testLimiter(1, 20*time.Millisecond, 25*time.Millisecond)
	l.Admit("price")

	calls := 0
	err := l.Execute(context.Background(), "price", func(ctx context.Context) error {
		calls++
		return nil
	}, 3)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one call after denial cleared, got %d", calls)
	}
}

func TestExecuteRetriesOn429(t *testing.T) {
	l := testLimiter(10, time.Minute, time.Millisecond)
	calls := 0
	err := l.Execute(context.Background(), "price", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &xhttp.StatusError{Code: 429}
		}
		return nil
	}, 2)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected retry after 429, got %d calls", calls)
	}
}

func TestExecute429Exhausted(t *testing.T) {
	l := testLimiter(10, time.Minute, time.Millisecond)
	err := l.Execute(context.Background(), "price", func(ctx context.Context) error {
		return &xhttp.StatusError{Code: 429}
	}, 1)
	var lee *LimitExceededError
	if !errors.As(err, &lee) {
		t.Fatalf("expected LimitExceededError, got %v", err)
	}
}

func TestExecuteTransientExhausted(t *testing.T) {
	l := testLimiter(10, time.Minute, time.Millisecond)
	upstream := &xhttp.StatusError{Code: 503}
	err := l.Execute(context.Background(), "price", func(ctx context.Context) error {
		return upstream
	}, 1)
	var se *xhttp.StatusError
	if !errors.As(err, &se) || se.Code != 503 {
		t.Fatalf("expected the upstream error back, got %v", err)
	}
}

func TestExecuteNonRetryableError(t *testing.T) {
	l := testLimiter(10, time.Minute, time.Second)
	boom := errors.New("bad payload")
	calls := 0
	err := l.Execute(context.Background(), "price", func(ctx context.Context) error {
		calls++
		return boom
	}, 5)
	if !errors.Is(err, boom) {
		t.Fatalf("expected error to propagate, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("non-retryable errors must not retry, got %d calls", calls)
	}
}

func TestExecuteContextCancelled(t *testing.T) {
	l := testLimiter(1, time.Minute, time.Hour)
	l.Admit("price")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Execute(ctx, "price", func(ctx context.Context) error {
		return nil
	}, 5)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
