package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"SentiPulse/internal/domain/models"
)

func testEngine(t *testing.T) *CorrelationEngine {
	t.Helper()
	agg := NewUnifiedAggregator(nil, NewSyntheticSource(5*time.Minute), nil, 5*time.Minute, testLogger(t), nopMetrics{})
	return NewCorrelationEngine(agg, nil, testLogger(t), nopMetrics{})
}

func TestCorrelateAccountZeroPosts(t *testing.T) {
	e := testEngine(t)
	ac := e.correlateAccount("BTC", "a1", "ghost", nil, 7)

	if ac.CorrelationStrength != 0 {
		t.Fatalf("expected 0 strength, got %v", ac.CorrelationStrength)
	}
	if ac.PredictionAccuracy != 0 {
		t.Fatalf("expected 0 accuracy, got %v", ac.PredictionAccuracy)
	}
	if math.IsNaN(ac.CorrelationStrength) || math.IsNaN(ac.PredictionAccuracy) || math.IsNaN(ac.CombinedScore) {
		t.Fatalf("NaN leaked into result %+v", ac)
	}
	if ac.DataQuality != models.QualityInsufficient {
		t.Fatalf("expected insufficient quality, got %s", ac.DataQuality)
	}
	if len(ac.Points) != 7 {
		t.Fatalf("expected one point per day, got %d", len(ac.Points))
	}
}

func TestCorrelateAccountClampsCorrelation(t *testing.T) {
	e := testEngine(t)
	now := time.Now()
	posts := make([]models.NormalizedPost, 0, 30)
	for i := 0; i < 30; i++ {
		posts = append(posts, models.NormalizedPost{
			ID:             string(rune('a' + i)),
			AccountID:      "a1",
			SentimentScore: 0.9,
			PublishedAt:    now.Add(-time.Duration(i) * time.Hour),
		})
	}

	ac := e.correlateAccount("BTC", "a1", "whale", posts, 7)
	for _, pt := range ac.Points {
		if pt.Correlation < -1 || pt.Correlation > 1 {
			t.Fatalf("correlation %v out of range on %s", pt.Correlation, pt.Date)
		}
	}
	if ac.CorrelationStrength < 0 || ac.CorrelationStrength > 1 {
		t.Fatalf("strength %v out of range", ac.CorrelationStrength)
	}
	if ac.PredictionAccuracy < 0 || ac.PredictionAccuracy > 1 {
		t.Fatalf("accuracy %v out of range", ac.PredictionAccuracy)
	}
}

func TestCorrelateAccountDeterministic(t *testing.T) {
	e := testEngine(t)
	fixed := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	posts := []models.NormalizedPost{
		{ID: "1", AccountID: "a1", SentimentScore: 0.7, PublishedAt: fixed.Add(-2 * time.Hour)},
		{ID: "2", AccountID: "a1", SentimentScore: -0.3, PublishedAt: fixed.Add(-26 * time.Hour)},
	}

	a := e.correlateAccount("BTC", "a1", "whale", posts, 7)
	b := e.correlateAccount("BTC", "a1", "whale", posts, 7)
	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			t.Fatalf("nondeterministic point %d: %+v vs %+v", i, a.Points[i], b.Points[i])
		}
	}
}

func TestCorrelateRanksByCombinedScore(t *testing.T) {
	e := testEngine(t)
	results, err := e.Correlate(context.Background(), "btc", 7)
	if err != nil {
		t.Fatalf("correlate: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected synthetic accounts in result")
	}
	for i := 1; i < len(results); i++ {
		if results[i].CombinedScore > results[i-1].CombinedScore {
			t.Fatalf("results not sorted descending at %d", i)
		}
	}
	for _, r := range results {
		want := 0.6*r.CorrelationStrength + 0.4*r.RelevanceScore
		if !almostEqual(r.CombinedScore, want) {
			t.Fatalf("combined score %v, want %v", r.CombinedScore, want)
		}
	}
}

func TestDataQualityBands(t *testing.T) {
	cases := []struct {
		posts, days int
		want        string
	}{
		{60, 7, models.QualityGood},
		{51, 30, models.QualityGood},
		{30, 7, models.QualityLimited},
		{21, 7, models.QualityLimited},
		{20, 7, models.QualityInsufficient},
		{0, 7, models.QualityInsufficient},
		{100, 3, models.QualityInsufficient}, // window too short
	}
	for _, c := range cases {
		if got := dataQuality(c.posts, c.days); got != c.want {
			t.Fatalf("dataQuality(%d, %d) = %s, want %s", c.posts, c.days, got, c.want)
		}
	}
}

func TestDayImpactBands(t *testing.T) {
	cases := []struct {
		score float64
		want  models.Impact
	}{
		{0.6, models.ImpactHigh},
		{-0.51, models.ImpactHigh},
		{0.3, models.ImpactMedium},
		{-0.21, models.ImpactMedium},
		{0.2, models.ImpactLow},
		{0, models.ImpactLow},
	}
	for _, c := range cases {
		if got := dayImpact(c.score); got != c.want {
			t.Fatalf("dayImpact(%v) = %s, want %s", c.score, got, c.want)
		}
	}
}
