package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"sync"
	"testing"
	"time"

	"SentiPulse/internal/domain/models"
	drepo "SentiPulse/internal/domain/repository"
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

// randomSource produces a different post set on every fetch, which the
// aggregator cache must hide from consumers inside one window.
type randomSource struct {
	mu      sync.Mutex
	fetches int
	name    string
	err     error
}

func (s *randomSource) Name() string {
	if s.name != "" {
		return s.name
	}
	return models.SourcePrimary
}

func (s *randomSource) FetchPosts(_ context.Context, symbol string, window time.Duration) ([]models.NormalizedPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	n := rand.Intn(20) + 5
	posts := make([]models.NormalizedPost, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, models.NormalizedPost{
			ID:             fmt.Sprintf("%s-%d-%d", symbol, s.fetches, i),
			AccountID:      fmt.Sprintf("acct-%d", i%3),
			Sentiment:      models.SentimentPositive,
			SentimentScore: rand.Float64(),
			Impact:         models.ImpactLow,
			PublishedAt:    time.Now(),
		})
	}
	return posts, nil
}

func TestGetTweetDataConsistentWithinWindow(t *testing.T) {
	src := &randomSource{}
	agg := NewUnifiedAggregator(src, NewSyntheticSource(5*time.Minute), nil, 5*time.Minute, testLogger(t), nopMetrics{})

	first, err := agg.GetTweetData(context.Background(), "btc", "24h")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := agg.GetTweetData(context.Background(), "BTC", "24h")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if first != second {
		t.Fatalf("expected the identical cached result")
	}
	if !reflect.DeepEqual(first.Posts, second.Posts) {
		t.Fatalf("expected identical post ordering")
	}
	if src.fetches != 1 {
		t.Fatalf("expected one source fetch, got %d", src.fetches)
	}
}

func TestGetTweetDataExpiredWindowRefetches(t *testing.T) {
	src := &randomSource{}
	agg := NewUnifiedAggregator(src, NewSyntheticSource(5*time.Minute), nil, 5*time.Minute, testLogger(t), nopMetrics{})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return base }
	if _, err := agg.GetTweetData(context.Background(), "BTC", "24h"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	agg.now = func() time.Time { return base.Add(6 * time.Minute) }
	if _, err := agg.GetTweetData(context.Background(), "BTC", "24h"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if src.fetches != 2 {
		t.Fatalf("expected refetch after TTL, got %d fetches", src.fetches)
	}
}

func TestGetTweetDataConcurrentSingleFetch(t *testing.T) {
	src := &randomSource{}
	agg := NewUnifiedAggregator(src, NewSyntheticSource(5*time.Minute), nil, 5*time.Minute, testLogger(t), nopMetrics{})

	const callers = 16
	results := make([]*models.AggregateResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := agg.GetTweetData(context.Background(), "ETH", "1h")
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = r
		}(i)
	}
	wg.Wait()

	if src.fetches != 1 {
		t.Fatalf("expected one source fetch for concurrent callers, got %d", src.fetches)
	}
	for i := 1; i < callers; i++ {
		if results[i] != results[0] {
			t.Fatalf("caller %d observed a different result", i)
		}
	}
}

func TestGetTweetDataDegradesToFallback(t *testing.T) {
	src := &randomSource{err: errors.New("upstream down")}
	agg := NewUnifiedAggregator(src, NewSyntheticSource(5*time.Minute), nil, 5*time.Minute, testLogger(t), nopMetrics{})

	result, err := agg.GetTweetData(context.Background(), "BTC", "24h")
	if err != nil {
		t.Fatalf("expected fallback to serve, got %v", err)
	}
	if result.DataSource != models.SourceFallback {
		t.Fatalf("expected fallback data source, got %s", result.DataSource)
	}
	if result.TotalPosts == 0 {
		t.Fatalf("expected synthetic posts")
	}
}

func TestBuildAggregateDistributions(t *testing.T) {
	now := time.Now()
	posts := []models.NormalizedPost{
		{AccountID: "a", Sentiment: models.SentimentPositive, SentimentScore: 0.8, Impact: models.ImpactHigh},
		{AccountID: "a", Sentiment: models.SentimentPositive, SentimentScore: 0.4, Impact: models.ImpactMedium},
		{AccountID: "b", Sentiment: models.SentimentNegative, SentimentScore: -0.6, Impact: models.ImpactLow},
	}

	r := buildAggregate("BTC", drepo.TF24h, posts, models.SourcePrimary, now)
	if r.TotalPosts != 3 {
		t.Fatalf("unexpected total %d", r.TotalPosts)
	}
	if r.SentimentDistribution[models.SentimentPositive] != 2 || r.SentimentDistribution[models.SentimentNegative] != 1 {
		t.Fatalf("unexpected sentiment distribution %+v", r.SentimentDistribution)
	}
	if r.ImpactDistribution[models.ImpactHigh] != 1 {
		t.Fatalf("unexpected impact distribution %+v", r.ImpactDistribution)
	}
	if got, want := r.AvgSentimentScore, (0.8+0.4-0.6)/3; !almostEqual(got, want) {
		t.Fatalf("avg %v, want %v", got, want)
	}
	if r.MonitoredAccountCount != 2 {
		t.Fatalf("unexpected account count %d", r.MonitoredAccountCount)
	}
}

func TestBuildAggregateEmpty(t *testing.T) {
	r := buildAggregate("BTC", drepo.TF1h, nil, models.SourcePrimary, time.Now())
	if r.AvgSentimentScore != 0 {
		t.Fatalf("expected 0 avg on empty posts, got %v", r.AvgSentimentScore)
	}
	if r.TotalPosts != 0 || r.MonitoredAccountCount != 0 {
		t.Fatalf("unexpected empty aggregate %+v", r)
	}
}

func TestSyntheticStableWithinWindow(t *testing.T) {
	src := NewSyntheticSource(5 * time.Minute)
	base := time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC)
	src.now = func() time.Time { return base }

	a, _ := src.FetchPosts(context.Background(), "BTC", 24*time.Hour)
	src.now = func() time.Time { return base.Add(2 * time.Minute) } // same window
	b, _ := src.FetchPosts(context.Background(), "BTC", 24*time.Hour)

	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical synthetic posts within one window")
	}

	src.now = func() time.Time { return base.Add(10 * time.Minute) } // next window
	c, _ := src.FetchPosts(context.Background(), "BTC", 24*time.Hour)
	if reflect.DeepEqual(a, c) {
		t.Fatalf("expected drift across windows")
	}
}

func TestSyntheticBaselineJitter(t *testing.T) {
	src := NewSyntheticSource(5 * time.Minute)
	posts, err := src.FetchPosts(context.Background(), "BTC", 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	// 24h baseline 120, jitter ±20%
	if len(posts) < 96 || len(posts) > 144 {
		t.Fatalf("post count %d outside jitter band", len(posts))
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
