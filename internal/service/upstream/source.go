package upstream

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"SentiPulse/internal/domain/models"
	"SentiPulse/internal/domain/repository"
	"SentiPulse/internal/service/ratelimit"
	"SentiPulse/pkg/logger"
)

// RealSource is the gateway-backed primary DataSource. Posts come from
// the social and news REST upstreams plus the live stream buffer, deduped
// by ID and trimmed to the requested window.
type RealSource struct {
	social     *Gateway
	news       *Gateway
	buffer     *PostBuffer // nil when streaming is disabled
	normalizer *Normalizer
	log        *logger.Logger
	metrics    repository.Metrics
}

// NewRealSource creates the primary data source.
func NewRealSource(social, news *Gateway, buffer *PostBuffer, normalizer *Normalizer, log *logger.Logger, metrics repository.Metrics) *RealSource {
	return &RealSource{
		social:     social,
		news:       news,
		buffer:     buffer,
		normalizer: normalizer,
		log:        log,
		metrics:    metrics,
	}
}

// Name reports this source as the primary path.
func (s *RealSource) Name() string { return models.SourcePrimary }

// FetchPosts returns all posts observed for symbol within the lookback
// window. The social upstream is mandatory; a news failure degrades to
// social-only results.
func (s *RealSource) FetchPosts(ctx context.Context, symbol string, window time.Duration) ([]models.NormalizedPost, error) {
	sym := strings.ToUpper(symbol)
	params := map[string]string{
		"symbol": sym,
		"hours":  strconv.Itoa(int(window.Hours())),
	}

	body, err := s.social.Call(ctx, "/v1/posts", params)
	if err != nil {
		return nil, err
	}
	posts, err := s.normalizer.Posts(body)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPostsIngested("social", len(posts))

	if s.news != nil {
		newsBody, err := s.news.Call(ctx, "/v1/articles", params)
		if err != nil {
			var ue *UnavailableError
			if !errors.As(err, &ue) && !isThrottled(err) {
				return nil, err
			}
			s.log.Warn("news upstream degraded, continuing with social only",
				logger.String("symbol", sym),
				logger.Error(err))
		} else if newsPosts, err := s.normalizer.Posts(newsBody); err == nil {
			s.metrics.RecordPostsIngested("news", len(newsPosts))
			posts = append(posts, newsPosts...)
		}
	}

	if s.buffer != nil {
		buffered := s.buffer.Recent(sym, window)
		if len(buffered) > 0 {
			s.metrics.RecordPostsIngested("stream", len(buffered))
			posts = append(posts, buffered...)
		}
	}

	return trimWindow(dedupe(posts), window), nil
}

// dedupe keeps the first occurrence of each post ID.
func dedupe(posts []models.NormalizedPost) []models.NormalizedPost {
	seen := make(map[string]struct{}, len(posts))
	out := posts[:0]
	for _, p := range posts {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// trimWindow drops posts older than the window and sorts newest first.
func trimWindow(posts []models.NormalizedPost, window time.Duration) []models.NormalizedPost {
	cutoff := time.Now().Add(-window)
	out := posts[:0]
	for _, p := range posts {
		if p.PublishedAt.After(cutoff) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out
}

// PriceService fetches normalized price history through the price gateway.
type PriceService struct {
	gateway    *Gateway
	normalizer *Normalizer
}

// NewPriceService creates a price fetcher over the price gateway.
func NewPriceService(gateway *Gateway, normalizer *Normalizer) *PriceService {
	return &PriceService{gateway: gateway, normalizer: normalizer}
}

// History returns price points for symbol over the last days days.
func (p *PriceService) History(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	body, err := p.gateway.Call(ctx, "/v1/prices", map[string]string{
		"symbol": strings.ToUpper(symbol),
		"days":   strconv.Itoa(days),
	})
	if err != nil {
		return nil, err
	}
	points, err := p.normalizer.Prices(body)
	if err != nil {
		return nil, err
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points, nil
}

func isThrottled(err error) bool {
	var lee *ratelimit.LimitExceededError
	return errors.As(err, &lee)
}
