package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"SentiPulse/internal/domain/models"
	drepo "SentiPulse/internal/domain/repository"
	"SentiPulse/pkg/logger"
)

// AlertDeriver turns high-impact posts into discrete alert events. Pure
// over its input: it never re-queries upstreams.
type AlertDeriver struct {
	sink    drepo.AlertSink // optional fan-out to the notification pipeline
	log     *logger.Logger
	metrics drepo.Metrics
}

// NewAlertDeriver creates the deriver. sink may be nil.
func NewAlertDeriver(sink drepo.AlertSink, log *logger.Logger, metrics drepo.Metrics) *AlertDeriver {
	return &AlertDeriver{sink: sink, log: log, metrics: metrics}
}

// DeriveAlerts maps posts with impact=high to alerts, sorted by priority
// descending then trigger time descending.
func (d *AlertDeriver) DeriveAlerts(symbol string, posts []models.NormalizedPost) []models.AlertEvent {
	sym := strings.ToUpper(symbol)

	events := make([]models.AlertEvent, 0)
	for _, p := range posts {
		if p.Impact != models.ImpactHigh {
			continue
		}
		events = append(events, deriveAlert(sym, p))
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Priority != events[j].Priority {
			return events[i].Priority > events[j].Priority
		}
		return events[i].TriggeredAt.After(events[j].TriggeredAt)
	})
	return events
}

// Publish fans events out to the alert sink, best effort.
func (d *AlertDeriver) Publish(ctx context.Context, events []models.AlertEvent) {
	if d.sink == nil || len(events) == 0 {
		return
	}
	if err := d.sink.Publish(ctx, events); err != nil {
		d.log.Warn("alert fan-out failed",
			logger.Int("events", len(events)),
			logger.Error(err))
		d.metrics.RecordError("alert_publish")
	}
}

func deriveAlert(symbol string, p models.NormalizedPost) models.AlertEvent {
	engagement := p.Engagement.Total()

	return models.AlertEvent{
		ID:              fmt.Sprintf("alert-%s-%s", symbol, p.ID),
		Symbol:          symbol,
		Type:            alertType(p, engagement),
		Severity:        alertSeverity(p.SentimentScore, engagement),
		Title:           alertTitle(symbol, p),
		Message:         p.Content,
		SentimentScore:  p.SentimentScore,
		Impact:          p.Impact,
		AccountUsername: p.AccountUsername,
		TriggeredAt:     p.PublishedAt,
		Priority:        alertPriority(p, engagement),
	}
}

func alertSeverity(score float64, engagement int) string {
	abs := math.Abs(score)
	switch {
	case abs > 0.8 && engagement > 500:
		return models.SeverityCritical
	case abs > 0.6 && engagement > 200:
		return models.SeverityHigh
	case abs > 0.4 && engagement > 50:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func alertType(p models.NormalizedPost, engagement int) string {
	switch {
	case p.SentimentScore > 0.5:
		return models.AlertBullishSignal
	case p.SentimentScore < -0.5:
		return models.AlertBearishSignal
	case engagement > 1000:
		return models.AlertViralContent
	case p.AccountFollowers > 100000:
		return models.AlertInfluencerPost
	default:
		return models.AlertMarketSentiment
	}
}

func alertPriority(p models.NormalizedPost, engagement int) int {
	priority := 5.0
	priority += math.Abs(p.SentimentScore) * 3
	if engagement > 1000 {
		priority += 2
	} else if engagement > 500 {
		priority += 1
	}
	if p.AccountVerified {
		priority += 1
	}
	if p.AccountFollowers > 100000 {
		priority += 1
	}

	n := int(math.Round(priority))
	if n < 1 {
		n = 1
	}
	if n > 10 {
		n = 10
	}
	return n
}

func alertTitle(symbol string, p models.NormalizedPost) string {
	switch {
	case p.SentimentScore > 0.5:
		return fmt.Sprintf("Bullish signal on %s from @%s", symbol, p.AccountUsername)
	case p.SentimentScore < -0.5:
		return fmt.Sprintf("Bearish signal on %s from @%s", symbol, p.AccountUsername)
	default:
		return fmt.Sprintf("High-impact %s post from @%s", symbol, p.AccountUsername)
	}
}
