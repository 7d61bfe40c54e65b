package di

import (
	"context"
	"fmt"
	"time"

	"SentiPulse/internal/domain/repository"
	domservice "SentiPulse/internal/domain/service"
	"SentiPulse/internal/handler/api"
	internalrepo "SentiPulse/internal/repository"
	rcache "SentiPulse/internal/service/cache"
	"SentiPulse/internal/service/ratelimit"
	"SentiPulse/internal/service/sentiment"
	"SentiPulse/internal/service/upstream"
	"SentiPulse/internal/usecase"
	pkgcache "SentiPulse/pkg/cache"
	pkgch "SentiPulse/pkg/clickhouse"
	"SentiPulse/pkg/config"
	xhttp "SentiPulse/pkg/http"
	pkgkafka "SentiPulse/pkg/kafka"
	applogger "SentiPulse/pkg/logger"
	"SentiPulse/pkg/metrics"
	"SentiPulse/pkg/server"
)

// Upstream service names used for rate-limit windows and metrics labels.
const (
	ServicePrice  = "price"
	ServiceSocial = "social"
	ServiceNews   = "news"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideLimiter creates the shared sliding-window limiter with one window
// per upstream service.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	window := func(name string, u config.UpstreamConfig) ratelimit.WindowConfig {
		return ratelimit.WindowConfig{
			Service:     name,
			MaxRequests: u.MaxRequests,
			Window:      u.Window,
			RetryAfter:  u.RetryAfter,
		}
	}
	return ratelimit.New(
		window(ServicePrice, cfg.Upstreams.Price),
		window(ServiceSocial, cfg.Upstreams.Social),
		window(ServiceNews, cfg.Upstreams.News),
	)
}

// ProvideResponseCache creates the in-process L1 response cache.
func ProvideResponseCache(cfg *config.Config) *rcache.ResponseCache {
	return rcache.New(cfg.Cache.MaxSize, cfg.Cache.DefaultTTL)
}

// ProvideSharedCache creates the optional Redis-backed L2 cache. Returns
// nil when Redis is disabled.
func ProvideSharedCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient() *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(30 * time.Second))
}

// ProvideScorer creates the sentiment scorer.
func ProvideScorer() domservice.SentimentScorer {
	return sentiment.NewLexiconScorer()
}

// ProvideNormalizer creates the upstream payload normalizer.
func ProvideNormalizer(scorer domservice.SentimentScorer, l *applogger.Logger, m repository.Metrics) *upstream.Normalizer {
	return upstream.NewNormalizer(scorer, l, m)
}

// ProvidePostBuffer creates the per-symbol live post buffer.
func ProvidePostBuffer(cfg *config.Config) *upstream.PostBuffer {
	return upstream.NewPostBuffer(cfg.Stream.BufferTTL)
}

func gateway(name string, u config.UpstreamConfig, client *xhttp.Client, limiter *ratelimit.Limiter, local *rcache.ResponseCache, shared pkgcache.Service, l *applogger.Logger, m repository.Metrics) *upstream.Gateway {
	opts := []upstream.GatewayOption{}
	if shared != nil {
		opts = append(opts, upstream.WithSharedCache(shared))
	}
	return upstream.NewGateway(name, u.BaseURL, u.APIKey, client, limiter, local, u.CacheTTL, u.MaxRetries, l, m, opts...)
}

// ProvideRealSource builds the gateway-backed primary data source over the
// social and news upstreams.
func ProvideRealSource(cfg *config.Config, client *xhttp.Client, limiter *ratelimit.Limiter, local *rcache.ResponseCache, shared pkgcache.Service, buffer *upstream.PostBuffer, normalizer *upstream.Normalizer, l *applogger.Logger, m repository.Metrics) *upstream.RealSource {
	social := gateway(ServiceSocial, cfg.Upstreams.Social, client, limiter, local, shared, l, m)
	var news *upstream.Gateway
	if cfg.Upstreams.News.BaseURL != "" {
		news = gateway(ServiceNews, cfg.Upstreams.News, client, limiter, local, shared, l, m)
	}
	if !cfg.Stream.Enabled {
		buffer = nil
	}
	return upstream.NewRealSource(social, news, buffer, normalizer, l, m)
}

// ProvidePriceService builds the price history fetcher. Returns nil when no
// price upstream is configured.
func ProvidePriceService(cfg *config.Config, client *xhttp.Client, limiter *ratelimit.Limiter, local *rcache.ResponseCache, shared pkgcache.Service, normalizer *upstream.Normalizer, l *applogger.Logger, m repository.Metrics) *upstream.PriceService {
	if cfg.Upstreams.Price.BaseURL == "" {
		return nil
	}
	g := gateway(ServicePrice, cfg.Upstreams.Price, client, limiter, local, shared, l, m)
	return upstream.NewPriceService(g, normalizer)
}

// ProvideClickHouseClient creates the archive connection and ensures its
// schema. Returns nil when the archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvidePostArchive creates the ClickHouse-backed post archive. Returns a
// nil interface when the archive is disabled.
func ProvidePostArchive(ch *pkgch.Client, l *applogger.Logger) repository.PostArchive {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHPostArchive(ch, l)
}

// ProvideKafkaProducer creates the Kafka producer. Returns nil when the
// alert fan-out is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAlertSink creates the Kafka alert sink, nil when disabled.
func ProvideAlertSink(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) repository.AlertSink {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaAlertSink(producer, cfg.Kafka.Topic, l)
}

// ProvideSyntheticSource creates the fallback data source aligned to the
// aggregate cache window.
func ProvideSyntheticSource(cfg *config.Config) *usecase.SyntheticSource {
	return usecase.NewSyntheticSource(cfg.Aggregator.TTL)
}

// ProvideAggregator creates the unified aggregator. Fallback mode drops the
// primary source entirely so every fetch is synthetic.
func ProvideAggregator(cfg *config.Config, real *upstream.RealSource, synthetic *usecase.SyntheticSource, archive repository.PostArchive, l *applogger.Logger, m repository.Metrics) *usecase.UnifiedAggregator {
	var primary repository.DataSource
	if !cfg.Aggregator.FallbackMode {
		primary = real
	}
	return usecase.NewUnifiedAggregator(primary, synthetic, archive, cfg.Aggregator.TTL, l, m)
}

// ProvideCorrelationEngine creates the correlation engine.
func ProvideCorrelationEngine(agg *usecase.UnifiedAggregator, archive repository.PostArchive, l *applogger.Logger, m repository.Metrics) *usecase.CorrelationEngine {
	return usecase.NewCorrelationEngine(agg, archive, l, m)
}

// ProvideAlertDeriver creates the alert deriver.
func ProvideAlertDeriver(sink repository.AlertSink, l *applogger.Logger, m repository.Metrics) *usecase.AlertDeriver {
	return usecase.NewAlertDeriver(sink, l, m)
}

// ProvideStreamCollector creates the live social stream collector, nil
// when streaming is disabled.
func ProvideStreamCollector(cfg *config.Config, buffer *upstream.PostBuffer, normalizer *upstream.Normalizer, l *applogger.Logger, m repository.Metrics) *usecase.StreamCollector {
	if !cfg.Stream.Enabled || cfg.Upstreams.Social.StreamURL == "" {
		return nil
	}
	stream := upstream.NewSocialStream(
		cfg.Upstreams.Social.APIKey,
		cfg.Upstreams.Social.StreamURL,
		cfg.Stream.Symbols,
		cfg.Stream.Reconnect,
		cfg.Stream.Ping,
		normalizer,
		l,
	)
	return usecase.NewStreamCollector(stream, buffer, m)
}

// ProvideDashboardHandler creates the HTTP handler.
func ProvideDashboardHandler(l *applogger.Logger, agg *usecase.UnifiedAggregator, corr *usecase.CorrelationEngine, alerts *usecase.AlertDeriver, prices *upstream.PriceService, collector *usecase.StreamCollector) *api.DashboardHandler {
	return api.NewDashboardHandler(l, agg, corr, alerts, prices, collector)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *applogger.Logger, handler *api.DashboardHandler, collector *usecase.StreamCollector, archive repository.PostArchive, sink repository.AlertSink, shared pkgcache.Service) *server.App {
	return server.New(cfg, l, handler, collector, archive, sink, shared)
}
