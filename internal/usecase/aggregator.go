package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"SentiPulse/internal/domain/models"
	drepo "SentiPulse/internal/domain/repository"
	"SentiPulse/pkg/logger"
)

// UnifiedAggregator is the consistency backbone: every consumer of a
// (symbol, timeframe) pair observes the same AggregateResult within one
// cache window. Concurrent misses for the same key serialize so the source
// is fetched once per window.
type UnifiedAggregator struct {
	primary  drepo.DataSource
	fallback drepo.DataSource
	archive  drepo.PostArchive // optional, best-effort history sink
	ttl      time.Duration
	log      *logger.Logger
	metrics  drepo.Metrics
	now      func() time.Time

	mu      sync.Mutex
	results map[string]*cachedResult
	flights map[string]*flight
}

type cachedResult struct {
	result   *models.AggregateResult
	storedAt time.Time
}

type flight struct {
	done   chan struct{}
	result *models.AggregateResult
	err    error
}

// NewUnifiedAggregator creates the aggregator. fallback must be non-nil;
// when primary is nil the aggregator runs entirely on the fallback source.
func NewUnifiedAggregator(primary, fallback drepo.DataSource, archive drepo.PostArchive, ttl time.Duration, log *logger.Logger, metrics drepo.Metrics) *UnifiedAggregator {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UnifiedAggregator{
		primary:  primary,
		fallback: fallback,
		archive:  archive,
		ttl:      ttl,
		log:      log,
		metrics:  metrics,
		now:      time.Now,
		results:  make(map[string]*cachedResult),
		flights:  make(map[string]*flight),
	}
}

// GetTweetData returns the canonical aggregate for (symbol, timeframe),
// serving a live cached result when one exists.
func (a *UnifiedAggregator) GetTweetData(ctx context.Context, symbol string, timeframe drepo.Timeframe) (*models.AggregateResult, error) {
	sym := strings.ToUpper(symbol)
	tf := drepo.NormalizeTimeframe(string(timeframe))
	key := fmt.Sprintf("%s:%s", sym, tf)

	a.mu.Lock()
	if c, ok := a.results[key]; ok && a.now().Sub(c.storedAt) <= a.ttl {
		a.mu.Unlock()
		a.metrics.RecordCacheLookup("aggregate", true)
		return c.result, nil
	}
	if f, ok := a.flights[key]; ok {
		a.mu.Unlock()
		a.metrics.RecordCacheLookup("aggregate", true)
		select {
		case <-f.done:
			return f.result, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f := &flight{done: make(chan struct{})}
	a.flights[key] = f
	a.mu.Unlock()
	a.metrics.RecordCacheLookup("aggregate", false)

	// a caller abandoning the request must not cancel the fetch; the
	// result is cached for the next caller either way
	result, err := a.refresh(context.WithoutCancel(ctx), sym, tf)

	a.mu.Lock()
	delete(a.flights, key)
	if err == nil {
		a.results[key] = &cachedResult{result: result, storedAt: a.now()}
	}
	a.mu.Unlock()

	f.result = result
	f.err = err
	close(f.done)
	return result, err
}

// refresh fetches posts from the selected source and assembles a fresh
// aggregate. A primary failure degrades to the fallback source rather than
// failing the caller.
func (a *UnifiedAggregator) refresh(ctx context.Context, symbol string, tf drepo.Timeframe) (*models.AggregateResult, error) {
	start := time.Now()
	defer func() {
		a.metrics.RecordLatency("aggregate_refresh", time.Since(start).Seconds())
	}()

	source := a.primary
	if source == nil {
		source = a.fallback
	}

	posts, err := source.FetchPosts(ctx, symbol, tf.Duration())
	if err != nil && source.Name() == models.SourcePrimary {
		a.log.Warn("primary source failed, degrading to fallback",
			logger.String("symbol", symbol),
			logger.String("timeframe", string(tf)),
			logger.Error(err))
		a.metrics.RecordError("primary_source")
		source = a.fallback
		posts, err = source.FetchPosts(ctx, symbol, tf.Duration())
	}
	if err != nil {
		return nil, err
	}

	result := buildAggregate(symbol, tf, posts, source.Name(), a.now())

	if a.archive != nil && source.Name() == models.SourcePrimary && len(posts) > 0 {
		go func(posts []models.NormalizedPost) {
			cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := a.archive.StoreBatch(cctx, symbol, posts); err != nil {
				a.log.Warn("post archive write failed",
					logger.String("symbol", symbol),
					logger.Error(err))
			}
		}(posts)
	}

	return result, nil
}

// buildAggregate assembles the canonical result shape from a post set.
func buildAggregate(symbol string, tf drepo.Timeframe, posts []models.NormalizedPost, source string, now time.Time) *models.AggregateResult {
	sentDist := map[models.Sentiment]int{
		models.SentimentPositive: 0,
		models.SentimentNegative: 0,
		models.SentimentNeutral:  0,
	}
	impDist := map[models.Impact]int{
		models.ImpactLow:    0,
		models.ImpactMedium: 0,
		models.ImpactHigh:   0,
	}

	accounts := make(map[string]struct{})
	var sum float64
	for _, p := range posts {
		sentDist[p.Sentiment]++
		impDist[p.Impact]++
		sum += p.SentimentScore
		if p.AccountID != "" {
			accounts[p.AccountID] = struct{}{}
		}
	}

	avg := 0.0
	if len(posts) > 0 {
		avg = sum / float64(len(posts))
	}

	return &models.AggregateResult{
		Symbol:                symbol,
		Timeframe:             string(tf),
		TotalPosts:            len(posts),
		Posts:                 posts,
		SentimentDistribution: sentDist,
		ImpactDistribution:    impDist,
		AvgSentimentScore:     avg,
		MonitoredAccountCount: len(accounts),
		DataSource:            source,
		LastUpdate:            now,
	}
}

// InvalidateAll drops every cached aggregate. Used by tests and the admin
// surface only.
func (a *UnifiedAggregator) InvalidateAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = make(map[string]*cachedResult)
}
