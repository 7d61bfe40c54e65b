package upstream

import (
	"testing"
	"time"

	"SentiPulse/internal/domain/models"
	"SentiPulse/internal/service/sentiment"
)

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	return NewNormalizer(sentiment.NewLexiconScorer(), testLogger(t), nopMetrics{})
}

func TestPostsPartialSuccess(t *testing.T) {
	body := []byte(`{"items":[
		{"id":"1","account":{"id":"a1","username":"whale","followers":120000,"verified":true},"text":"BTC breakout incoming, bullish","created_at":"2025-06-01T10:00:00Z","metrics":{"likes":500,"reposts":80,"replies":30,"quotes":10}},
		{"id":"","text":"missing id","created_at":"2025-06-01T10:00:00Z"},
		{"id":"3","account":{"id":"a2","username":"trader"},"text":"crash fear everywhere","created_at":"not-a-time"},
		{"id":"4","account":{"id":"a3","username":"news"},"text":"dump and liquidation wave","created_at":"2025-06-01T11:00:00Z","metrics":{"likes":20}}
	]}`)

	posts, err := testNormalizer(t).Posts(body)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 valid posts, got %d", len(posts))
	}

	p := posts[0]
	if p.ID != "1" || p.AccountUsername != "whale" || !p.AccountVerified {
		t.Fatalf("unexpected post %+v", p)
	}
	if p.Sentiment != models.SentimentPositive {
		t.Fatalf("expected positive sentiment, got %s", p.Sentiment)
	}
	if p.Engagement.Total() != 620 {
		t.Fatalf("unexpected engagement %d", p.Engagement.Total())
	}
	if !p.PublishedAt.Equal(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected published_at %v", p.PublishedAt)
	}

	if posts[1].Sentiment != models.SentimentNegative {
		t.Fatalf("expected negative sentiment, got %s", posts[1].Sentiment)
	}
}

func TestPostsBadEnvelope(t *testing.T) {
	if _, err := testNormalizer(t).Posts([]byte(`not json`)); err == nil {
		t.Fatalf("expected envelope error")
	}
}

func TestPostsEmpty(t *testing.T) {
	posts, err := testNormalizer(t).Posts([]byte(`{"items":[]}`))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("expected no posts, got %d", len(posts))
	}
}

func TestPricesPartialSuccess(t *testing.T) {
	body := []byte(`{"items":[
		{"symbol":"BTC","price":64250.5,"volume":1200,"timestamp":"2025-06-01T10:00:00Z"},
		{"symbol":"BTC","price":-1,"timestamp":"2025-06-01T11:00:00Z"},
		{"symbol":"BTC","price":64900,"volume":900,"timestamp":"2025-06-01T12:00:00Z"}
	]}`)

	points, err := testNormalizer(t).Prices(body)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 valid points, got %d", len(points))
	}
	if points[0].Price != 64250.5 || points[1].Price != 64900 {
		t.Fatalf("unexpected prices %+v", points)
	}
}

func TestDedupeKeepsFirst(t *testing.T) {
	now := time.Now()
	posts := dedupe([]models.NormalizedPost{
		{ID: "1", Content: "first", PublishedAt: now},
		{ID: "2", PublishedAt: now},
		{ID: "1", Content: "dup", PublishedAt: now},
	})
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].Content != "first" {
		t.Fatalf("expected first occurrence kept")
	}
}

func TestTrimWindowSortsNewestFirst(t *testing.T) {
	now := time.Now()
	posts := trimWindow([]models.NormalizedPost{
		{ID: "old", PublishedAt: now.Add(-48 * time.Hour)},
		{ID: "a", PublishedAt: now.Add(-2 * time.Hour)},
		{ID: "b", PublishedAt: now.Add(-1 * time.Hour)},
	}, 24*time.Hour)

	if len(posts) != 2 {
		t.Fatalf("expected 2 posts inside window, got %d", len(posts))
	}
	if posts[0].ID != "b" || posts[1].ID != "a" {
		t.Fatalf("expected newest first, got %v then %v", posts[0].ID, posts[1].ID)
	}
}
