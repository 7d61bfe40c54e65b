package usecase

import (
	"testing"
	"time"

	"SentiPulse/internal/domain/models"
)

func TestDeriveAlertsSpecimen(t *testing.T) {
	d := NewAlertDeriver(nil, testLogger(t), nopMetrics{})
	posts := []models.NormalizedPost{{
		ID:              "p1",
		AccountUsername: "whale",
		Impact:          models.ImpactHigh,
		SentimentScore:  0.9,
		Engagement:      models.Engagement{Likes: 600},
		PublishedAt:     time.Now(),
		Content:         "BTC moon",
	}}

	events := d.DeriveAlerts("BTC", posts)
	if len(events) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(events))
	}
	if events[0].Severity != models.SeverityCritical {
		t.Fatalf("expected critical severity, got %s", events[0].Severity)
	}
	if events[0].Type != models.AlertBullishSignal {
		t.Fatalf("expected bullish_signal, got %s", events[0].Type)
	}
}

func TestDeriveAlertsSkipsLowImpact(t *testing.T) {
	d := NewAlertDeriver(nil, testLogger(t), nopMetrics{})
	posts := []models.NormalizedPost{
		{ID: "1", Impact: models.ImpactLow, SentimentScore: 0.9, Engagement: models.Engagement{Likes: 9999}},
		{ID: "2", Impact: models.ImpactMedium, SentimentScore: -0.9, Engagement: models.Engagement{Likes: 9999}},
	}
	if events := d.DeriveAlerts("BTC", posts); len(events) != 0 {
		t.Fatalf("expected no alerts from non-high impact, got %d", len(events))
	}
}

func TestDeriveAlertsSortOrder(t *testing.T) {
	d := NewAlertDeriver(nil, testLogger(t), nopMetrics{})
	now := time.Now()
	posts := []models.NormalizedPost{
		{ID: "low", Impact: models.ImpactHigh, SentimentScore: 0.1, PublishedAt: now.Add(-time.Hour)},
		{ID: "big", Impact: models.ImpactHigh, SentimentScore: 0.95, AccountVerified: true,
			AccountFollowers: 150000, Engagement: models.Engagement{Likes: 1500}, PublishedAt: now.Add(-2 * time.Hour)},
		{ID: "mid-old", Impact: models.ImpactHigh, SentimentScore: 0.45, PublishedAt: now.Add(-3 * time.Hour)},
		{ID: "mid-new", Impact: models.ImpactHigh, SentimentScore: 0.45, PublishedAt: now.Add(-time.Minute)},
	}

	events := d.DeriveAlerts("BTC", posts)
	if len(events) != 4 {
		t.Fatalf("expected 4 alerts, got %d", len(events))
	}
	if events[0].ID != "alert-BTC-big" {
		t.Fatalf("expected highest priority first, got %s", events[0].ID)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Priority > events[i-1].Priority {
			t.Fatalf("priority order broken at %d", i)
		}
		if events[i].Priority == events[i-1].Priority &&
			events[i].TriggeredAt.After(events[i-1].TriggeredAt) {
			t.Fatalf("trigger-time tiebreak broken at %d", i)
		}
	}
}

func TestAlertTypeBands(t *testing.T) {
	cases := []struct {
		name string
		post models.NormalizedPost
		want string
	}{
		{"bullish", models.NormalizedPost{SentimentScore: 0.6}, models.AlertBullishSignal},
		{"bearish", models.NormalizedPost{SentimentScore: -0.6}, models.AlertBearishSignal},
		{"viral", models.NormalizedPost{SentimentScore: 0.1, Engagement: models.Engagement{Likes: 1200}}, models.AlertViralContent},
		{"influencer", models.NormalizedPost{SentimentScore: 0.1, AccountFollowers: 200000}, models.AlertInfluencerPost},
		{"default", models.NormalizedPost{SentimentScore: 0.1}, models.AlertMarketSentiment},
	}
	for _, c := range cases {
		if got := alertType(c.post, c.post.Engagement.Total()); got != c.want {
			t.Fatalf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}

func TestAlertPriorityClamped(t *testing.T) {
	p := models.NormalizedPost{
		SentimentScore:   1.0,
		AccountVerified:  true,
		AccountFollowers: 500000,
		Engagement:       models.Engagement{Likes: 5000},
	}
	if got := alertPriority(p, p.Engagement.Total()); got != 10 {
		t.Fatalf("expected clamp to 10, got %d", got)
	}
	if got := alertPriority(models.NormalizedPost{}, 0); got != 5 {
		t.Fatalf("expected base priority 5, got %d", got)
	}
}

func TestAlertSeverityBands(t *testing.T) {
	cases := []struct {
		score      float64
		engagement int
		want       string
	}{
		{0.9, 600, models.SeverityCritical},
		{-0.85, 501, models.SeverityCritical},
		{0.7, 300, models.SeverityHigh},
		{0.5, 100, models.SeverityMedium},
		{0.9, 10, models.SeverityLow}, // engagement too low
		{0.2, 5000, models.SeverityLow},
	}
	for _, c := range cases {
		if got := alertSeverity(c.score, c.engagement); got != c.want {
			t.Fatalf("alertSeverity(%v, %d) = %s, want %s", c.score, c.engagement, got, c.want)
		}
	}
}
