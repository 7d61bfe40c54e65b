package repository

import (
	"context"
	"time"

	"SentiPulse/internal/domain/models"
)

// DataSource produces normalized posts for a symbol within a lookback
// window. Exactly two implementations exist: the gateway-backed primary
// source and the synthetic fallback. Callers never branch on which one they
// hold.
type DataSource interface {
	FetchPosts(ctx context.Context, symbol string, window time.Duration) ([]models.NormalizedPost, error)
	Name() string // models.SourcePrimary or models.SourceFallback
}

// PostStream is a live feed of normalized posts (websocket-backed).
type PostStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PostEvent, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// PostArchive stores normalized posts for history-backed computations.
type PostArchive interface {
	StoreBatch(ctx context.Context, symbol string, posts []models.NormalizedPost) error
	QueryWindow(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.NormalizedPost, error)
	Health(ctx context.Context) error
	Close() error
}

// AlertSink fans derived alert events out to the notification pipeline.
type AlertSink interface {
	Publish(ctx context.Context, events []models.AlertEvent) error
	Close() error
}

// Metrics abstracts the observability recorder.
type Metrics interface {
	RecordUpstreamRequest(service, result string)
	RecordRateLimitDenied(service string)
	RecordCacheLookup(cache string, hit bool)
	RecordPostsIngested(source string, n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
