package usecase

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"SentiPulse/internal/domain/models"
	drepo "SentiPulse/internal/domain/repository"
	"SentiPulse/pkg/logger"
	"SentiPulse/pkg/util"
)

const minCorrelationDays = 7

// CorrelationEngine computes day-bucketed sentiment vs. price-movement
// correlation per tracked account.
//
// The price-change series is derived from sentiment plus bounded seeded
// noise. It is a documented stand-in pending a real price-feed
// integration; its numbers must not be presented as market history.
type CorrelationEngine struct {
	aggregator *UnifiedAggregator
	archive    drepo.PostArchive // optional deeper history source
	log        *logger.Logger
	metrics    drepo.Metrics
	now        func() time.Time
}

// NewCorrelationEngine creates the engine. archive may be nil, in which
// case history is limited to the aggregator's in-window posts.
func NewCorrelationEngine(aggregator *UnifiedAggregator, archive drepo.PostArchive, log *logger.Logger, metrics drepo.Metrics) *CorrelationEngine {
	return &CorrelationEngine{
		aggregator: aggregator,
		archive:    archive,
		log:        log,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Correlate computes per-account correlation over the last windowDays days,
// ranked by 0.6*correlationStrength + 0.4*relevanceScore descending.
func (e *CorrelationEngine) Correlate(ctx context.Context, symbol string, windowDays int) ([]models.AccountCorrelation, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	sym := strings.ToUpper(symbol)

	start := time.Now()
	defer func() {
		e.metrics.RecordLatency("correlate", time.Since(start).Seconds())
	}()

	posts, err := e.history(ctx, sym, windowDays)
	if err != nil {
		return nil, err
	}

	byAccount := make(map[string][]models.NormalizedPost)
	usernames := make(map[string]string)
	for _, p := range posts {
		if p.AccountID == "" {
			continue
		}
		byAccount[p.AccountID] = append(byAccount[p.AccountID], p)
		usernames[p.AccountID] = p.AccountUsername
	}

	results := make([]models.AccountCorrelation, 0, len(byAccount))
	for id, accountPosts := range byAccount {
		ac := e.correlateAccount(sym, id, usernames[id], accountPosts, windowDays)
		results = append(results, ac)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		return results[i].AccountID < results[j].AccountID
	})
	return results, nil
}

// history pulls posts covering the window, preferring the archive when one
// is wired.
func (e *CorrelationEngine) history(ctx context.Context, symbol string, windowDays int) ([]models.NormalizedPost, error) {
	now := e.now()
	if e.archive != nil {
		posts, err := e.archive.QueryWindow(ctx, symbol, now.AddDate(0, 0, -windowDays), now, 10000)
		if err == nil {
			return posts, nil
		}
		e.log.Warn("archive query failed, using aggregate window",
			logger.String("symbol", symbol),
			logger.Error(err))
		e.metrics.RecordError("archive_query")
	}

	agg, err := e.aggregator.GetTweetData(ctx, symbol, drepo.TF7d)
	if err != nil {
		return nil, err
	}
	return agg.Posts, nil
}

func (e *CorrelationEngine) correlateAccount(symbol, accountID, username string, posts []models.NormalizedPost, windowDays int) models.AccountCorrelation {
	now := e.now()

	buckets := make(map[string][]models.NormalizedPost)
	for _, p := range posts {
		buckets[util.DayKey(p.PublishedAt)] = append(buckets[util.DayKey(p.PublishedAt)], p)
	}

	points := make([]models.CorrelationPoint, 0, windowDays)
	var absCorrSum float64
	var dailyScores []float64

	for d := 0; d < windowDays; d++ {
		day := now.AddDate(0, 0, -d)
		key := util.DayKey(day)
		bucket := buckets[key]

		score := 0.0
		if len(bucket) > 0 {
			var sum float64
			for _, p := range bucket {
				sum += p.SentimentScore
			}
			score = sum / float64(len(bucket))
			dailyScores = append(dailyScores, score)
		}

		priceChange := score*0.05 + seededNoise(symbol, accountID, key)*0.05 + cyclic(d)
		corr := clamp(clamp(score, -1, 1)*clamp(priceChange*10, -1, 1), -1, 1)
		absCorrSum += math.Abs(corr)

		points = append(points, models.CorrelationPoint{
			Date:           key,
			SentimentScore: score,
			PriceChange:    priceChange,
			Correlation:    corr,
			PostCount:      len(bucket),
			Impact:         dayImpact(score),
		})
	}

	totalPosts := len(posts)
	strength := 0.0
	if windowDays > 0 && totalPosts > 0 {
		strength = absCorrSum / float64(windowDays)
	}

	accuracy := 0.3 * math.Min(1, float64(totalPosts)/10)
	if len(dailyScores) > 0 {
		accuracy += 0.7 * (1 - math.Sqrt(variance(dailyScores)))
	}
	accuracy = clamp(accuracy, 0, 1)

	relevance := 0.6*math.Min(1, float64(totalPosts)/50) + 0.4*meanAbs(dailyScores)

	return models.AccountCorrelation{
		AccountID:           accountID,
		Username:            username,
		Points:              points,
		CorrelationStrength: strength,
		PredictionAccuracy:  accuracy,
		RelevanceScore:      relevance,
		CombinedScore:       0.6*strength + 0.4*relevance,
		TotalPosts:          totalPosts,
		DataQuality:         dataQuality(totalPosts, windowDays),
	}
}

// dataQuality labels the sample size so the UI can warn about weak data.
// A window shorter than a week can never rate better than insufficient.
func dataQuality(totalPosts, windowDays int) string {
	if windowDays < minCorrelationDays {
		return models.QualityInsufficient
	}
	switch {
	case totalPosts > 50:
		return models.QualityGood
	case totalPosts > 20:
		return models.QualityLimited
	default:
		return models.QualityInsufficient
	}
}

func dayImpact(score float64) models.Impact {
	abs := math.Abs(score)
	switch {
	case abs > 0.5:
		return models.ImpactHigh
	case abs > 0.2:
		return models.ImpactMedium
	default:
		return models.ImpactLow
	}
}

// seededNoise returns a stable value in [-1, 1] for the given day so
// repeated computations agree.
func seededNoise(symbol, accountID, day string) float64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s", symbol, accountID, day)
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	return rng.Float64()*2 - 1
}

// cyclic adds a weekly seasonality term to the price stand-in.
func cyclic(day int) float64 {
	return 0.02 * math.Sin(2*math.Pi*float64(day)/7)
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return sq / float64(len(xs))
}

func meanAbs(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += math.Abs(x)
	}
	return sum / float64(len(xs))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
