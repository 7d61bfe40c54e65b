package upstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SentiPulse/internal/domain/repository"
	rcache "SentiPulse/internal/service/cache"
	"SentiPulse/internal/service/ratelimit"
	pkgcache "SentiPulse/pkg/cache"
	xhttp "SentiPulse/pkg/http"
	"SentiPulse/pkg/logger"
)

// UnavailableError reports an upstream that stayed down through the retry
// loop. Status is the last HTTP code seen, 0 for transport failures.
type UnavailableError struct {
	Service string
	Status  int
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("upstream %s unavailable (status %d)", e.Service, e.Status)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// Gateway fronts one quota-limited upstream API. Reads go cache-first: a
// fresh cached body never touches the limiter, so cache hits cost nothing
// against the service quota.
type Gateway struct {
	service    string
	baseURL    string
	apiKey     string
	client     *xhttp.Client
	limiter    *ratelimit.Limiter
	local      *rcache.ResponseCache
	shared     pkgcache.Service // optional cross-replica L2
	ttl        time.Duration
	maxRetries int
	log        *logger.Logger
	metrics    repository.Metrics
}

// NewGateway creates a gateway for one named upstream service.
func NewGateway(service, baseURL, apiKey string, client *xhttp.Client, limiter *ratelimit.Limiter, local *rcache.ResponseCache, ttl time.Duration, maxRetries int, log *logger.Logger, metrics repository.Metrics, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		service:    service,
		baseURL:    baseURL,
		apiKey:     apiKey,
		client:     client,
		limiter:    limiter,
		local:      local,
		ttl:        ttl,
		maxRetries: maxRetries,
		log:        log,
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithSharedCache attaches a cross-replica cache behind the in-process one.
func WithSharedCache(shared pkgcache.Service) GatewayOption {
	return func(g *Gateway) {
		g.shared = shared
	}
}

// Service returns the upstream service name this gateway fronts.
func (g *Gateway) Service() string { return g.service }

// Call fetches endpoint with params, consulting the caches before spending
// quota. The returned body is the raw upstream payload.
func (g *Gateway) Call(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	key := rcache.Key(g.service+endpoint, params)

	if v, ok := g.local.Get(key); ok {
		g.metrics.RecordCacheLookup("response", true)
		return v.([]byte), nil
	}
	g.metrics.RecordCacheLookup("response", false)

	if g.shared != nil {
		if b, err := g.shared.Get(ctx, key); err == nil {
			g.metrics.RecordCacheLookup("shared", true)
			g.local.Set(key, b, g.ttl)
			return b, nil
		}
		g.metrics.RecordCacheLookup("shared", false)
	}

	var body []byte
	start := time.Now()
	err := g.limiter.Execute(ctx, g.service, func(ctx context.Context) error {
		b, err := g.fetch(ctx, endpoint, params)
		if err != nil {
			return err
		}
		body = b
		return nil
	}, g.maxRetries)
	g.metrics.RecordLatency("upstream_"+g.service, time.Since(start).Seconds())

	if err != nil {
		var lee *ratelimit.LimitExceededError
		if errors.As(err, &lee) {
			g.metrics.RecordRateLimitDenied(g.service)
			g.metrics.RecordUpstreamRequest(g.service, "throttled")
			return nil, err
		}
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Transient() {
			g.metrics.RecordUpstreamRequest(g.service, "unavailable")
			g.log.Warn("upstream unavailable",
				logger.String("service", g.service),
				logger.Int("status", se.Code),
				logger.Error(err))
			return nil, &UnavailableError{Service: g.service, Status: se.Code, Err: err}
		}
		g.metrics.RecordUpstreamRequest(g.service, "error")
		return nil, err
	}

	g.metrics.RecordUpstreamRequest(g.service, "ok")
	g.local.Set(key, body, g.ttl)
	if g.shared != nil {
		if err := g.shared.Set(ctx, key, body, g.ttl); err != nil {
			g.log.Debug("shared cache set failed",
				logger.String("service", g.service),
				logger.Error(err))
		}
	}
	return body, nil
}

func (g *Gateway) fetch(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	query := make(map[string][]string, len(params))
	for k, v := range params {
		query[k] = []string{v}
	}

	headers := map[string]string{}
	if g.apiKey != "" {
		headers["Authorization"] = "Bearer " + g.apiKey
	}

	return g.client.GetRaw(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         g.baseURL + endpoint,
		Headers:     headers,
		QueryParams: query,
	})
}
