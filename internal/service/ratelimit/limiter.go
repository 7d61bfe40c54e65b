package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	xhttp "SentiPulse/pkg/http"
)

// WindowConfig describes one upstream service's quota window. Immutable
// after the limiter is constructed.
type WindowConfig struct {
	Service     string
	MaxRequests int
	Window      time.Duration
	RetryAfter  time.Duration
}

// LimitExceededError reports that a service's quota stayed exhausted for
// the whole bounded retry loop. Retryable from the caller's point of view.
type LimitExceededError struct {
	Service string
	Retries int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s after %d retries", e.Service, e.Retries)
}

type record struct {
	at    time.Time
	count int
}

// Limiter is a per-service sliding-window admission controller shared by
// all request tasks. One mutex serializes window mutations; retry sleeps
// happen outside the lock and suspend only the calling goroutine.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]WindowConfig
	records map[string][]record
	now     func() time.Time
}

// New creates a limiter for the given service windows.
func New(windows ...WindowConfig) *Limiter {
	l := &Limiter{
		windows: make(map[string]WindowConfig, len(windows)),
		records: make(map[string][]record, len(windows)),
		now:     time.Now,
	}
	for _, w := range windows {
		l.windows[w.Service] = w
	}
	return l
}

// Admit decides whether one request for service may go out now. On denial
// it returns the service's configured retry-after hint. Unknown services
// are admitted: admission control degrades open rather than erroring.
func (l *Limiter) Admit(service string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg, ok := l.windows[service]
	if !ok {
		return true, 0
	}

	now := l.now()
	recs := l.records[service]

	// Drop records that fell out of the window.
	cutoff := now.Add(-cfg.Window)
	keep := recs[:0]
	total := 0
	for _, r := range recs {
		if r.at.After(cutoff) {
			keep = append(keep, r)
			total += r.count
		}
	}

	if total >= cfg.MaxRequests {
		l.records[service] = keep
		return false, cfg.RetryAfter
	}

	l.records[service] = append(keep, record{at: now, count: 1})
	return true, 0
}

// RetryAfter returns the configured backoff hint for service.
func (l *Limiter) RetryAfter(service string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.windows[service].RetryAfter
}

// Execute runs action under admission control with a bounded retry loop of
// maxRetries+1 attempts. Denials sleep the configured retry-after; upstream
// 429s sleep at least that long, honoring any larger Retry-After header;
// transient upstream failures (5xx/network) back off the same way. Any
// other error propagates immediately. Sleeps are context-aware and never
// block other tasks.
func (l *Limiter) Execute(ctx context.Context, service string, action func(ctx context.Context) error, maxRetries int) error {
	for attempt := 0; ; attempt++ {
		allowed, wait := l.Admit(service)
		if !allowed {
			if attempt >= maxRetries {
				return &LimitExceededError{Service: service, Retries: maxRetries}
			}
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
			continue
		}

		err := action(ctx)
		if err == nil {
			return nil
		}

		var se *xhttp.StatusError
		if errors.As(err, &se) && (se.TooManyRequests() || se.Transient()) {
			if attempt >= maxRetries {
				if se.TooManyRequests() {
					return &LimitExceededError{Service: service, Retries: maxRetries}
				}
				return err
			}
			wait := l.RetryAfter(service)
			if se.TooManyRequests() && se.RetryAfter > wait {
				wait = se.RetryAfter
			}
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
			continue
		}

		return err
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
