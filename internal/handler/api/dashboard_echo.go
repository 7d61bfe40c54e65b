package api

import (
	"errors"
	"time"

	models "SentiPulse/internal/domain/models"
	domrepo "SentiPulse/internal/domain/repository"
	"SentiPulse/internal/service/ratelimit"
	"SentiPulse/internal/service/upstream"
	"SentiPulse/internal/usecase"
	xhttp "SentiPulse/pkg/http"
	xlogger "SentiPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DashboardHandler implements the Echo-based HTTP surface consumed by the
// dashboard UI.
type DashboardHandler struct {
	logger      *xlogger.Logger
	agg         *usecase.UnifiedAggregator
	correlation *usecase.CorrelationEngine
	alerts      *usecase.AlertDeriver
	prices      *upstream.PriceService // nil when the price upstream is disabled
	collector   *usecase.StreamCollector
}

func NewDashboardHandler(logger *xlogger.Logger, agg *usecase.UnifiedAggregator, correlation *usecase.CorrelationEngine, alerts *usecase.AlertDeriver, prices *upstream.PriceService, collector *usecase.StreamCollector) *DashboardHandler {
	return &DashboardHandler{
		logger:      logger,
		agg:         agg,
		correlation: correlation,
		alerts:      alerts,
		prices:      prices,
		collector:   collector,
	}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/tweets", h.Tweets)
	g.GET("/correlation", h.Correlation)
	g.GET("/alerts", h.Alerts)
	g.GET("/price", h.Price)
	g.GET("/health", h.Health)
}

func (h *DashboardHandler) Tweets(c echo.Context) error {
	req := &models.TweetsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.Timeframe)

	res, err := h.agg.GetTweetData(c.Request().Context(), req.Symbol, tf)
	if err != nil {
		h.logger.Error("tweets usecase error", xlogger.Error(err))
		return h.upstreamErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Correlation(c echo.Context) error {
	req := &models.CorrelationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.correlation.Correlate(c.Request().Context(), req.Symbol, req.Days)
	if err != nil {
		h.logger.Error("correlation usecase error", xlogger.Error(err))
		return h.upstreamErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Alerts(c echo.Context) error {
	req := &models.AlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.Timeframe)

	agg, err := h.agg.GetTweetData(c.Request().Context(), req.Symbol, tf)
	if err != nil {
		h.logger.Error("alerts usecase error", xlogger.Error(err))
		return h.upstreamErrorResponse(c, err)
	}

	events := h.alerts.DeriveAlerts(agg.Symbol, agg.Posts)
	h.alerts.Publish(c.Request().Context(), events)
	return xhttp.SuccessResponse(c, events)
}

func (h *DashboardHandler) Price(c echo.Context) error {
	req := &models.PriceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.prices == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("price upstream disabled"))
	}

	tf := domrepo.NormalizeTimeframe(req.Timeframe)
	days := int(tf.Duration() / (24 * time.Hour))
	if days < 1 {
		days = 1
	}

	res, err := h.prices.History(c.Request().Context(), req.Symbol, days)
	if err != nil {
		h.logger.Error("price usecase error", xlogger.Error(err))
		return h.upstreamErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

type healthStatus struct {
	Status          string `json:"status"`
	StreamConnected bool   `json:"stream_connected"`
}

func (h *DashboardHandler) Health(c echo.Context) error {
	status := healthStatus{Status: "ok"}
	if h.collector != nil {
		status.StreamConnected = h.collector.IsConnected()
	}
	return xhttp.SuccessResponse(c, status)
}

// upstreamErrorResponse maps the core error taxonomy onto HTTP statuses.
func (h *DashboardHandler) upstreamErrorResponse(c echo.Context, err error) error {
	var lee *ratelimit.LimitExceededError
	if errors.As(err, &lee) {
		return xhttp.AppErrorResponse(c,
			xhttp.TooManyRequestsError(lee.Error()).WithParam("service", lee.Service))
	}
	var ue *upstream.UnavailableError
	if errors.As(err, &ue) {
		return xhttp.AppErrorResponse(c,
			xhttp.UnavailableError(ue.Error()).WithParam("service", ue.Service))
	}
	return xhttp.AppErrorResponse(c, err)
}
