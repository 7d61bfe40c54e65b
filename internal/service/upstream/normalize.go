package upstream

import (
	"encoding/json"
	"fmt"

	"SentiPulse/internal/domain/models"
	"SentiPulse/internal/domain/repository"
	"SentiPulse/internal/domain/service"
	"SentiPulse/pkg/logger"
	"SentiPulse/pkg/util"
)

type envelope struct {
	Items []json.RawMessage `json:"items"`
}

type rawPost struct {
	ID      string `json:"id"`
	Account struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		Followers int    `json:"followers"`
		Verified  bool   `json:"verified"`
	} `json:"account"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	Metrics   struct {
		Likes   int `json:"likes"`
		Reposts int `json:"reposts"`
		Replies int `json:"replies"`
		Quotes  int `json:"quotes"`
	} `json:"metrics"`
}

type rawPrice struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Timestamp string  `json:"timestamp"`
}

// Normalizer converts raw upstream payloads into domain models. Batches
// succeed partially: a malformed item is logged and dropped, never failing
// the items around it.
type Normalizer struct {
	scorer  service.SentimentScorer
	log     *logger.Logger
	metrics repository.Metrics
}

// NewNormalizer creates a normalizer scoring text with scorer.
func NewNormalizer(scorer service.SentimentScorer, log *logger.Logger, metrics repository.Metrics) *Normalizer {
	return &Normalizer{scorer: scorer, log: log, metrics: metrics}
}

// Posts parses an upstream post payload into normalized posts.
func (n *Normalizer) Posts(body []byte) ([]models.NormalizedPost, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode post envelope: %w", err)
	}

	posts := make([]models.NormalizedPost, 0, len(env.Items))
	for _, item := range env.Items {
		p, err := n.post(item)
		if err != nil {
			n.drop("post", err)
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (n *Normalizer) post(item json.RawMessage) (models.NormalizedPost, error) {
	var raw rawPost
	if err := json.Unmarshal(item, &raw); err != nil {
		return models.NormalizedPost{}, fmt.Errorf("decode post: %w", err)
	}
	if raw.ID == "" {
		return models.NormalizedPost{}, fmt.Errorf("post missing id")
	}
	if raw.Text == "" {
		return models.NormalizedPost{}, fmt.Errorf("post %s missing text", raw.ID)
	}
	publishedAt, ok := util.ParseTime(raw.CreatedAt)
	if !ok {
		return models.NormalizedPost{}, fmt.Errorf("post %s bad created_at %q", raw.ID, raw.CreatedAt)
	}

	score := n.scorer.Score(raw.Text)
	return models.NormalizedPost{
		ID:               raw.ID,
		AccountID:        raw.Account.ID,
		AccountUsername:  raw.Account.Username,
		AccountFollowers: raw.Account.Followers,
		AccountVerified:  raw.Account.Verified,
		Content:          raw.Text,
		PublishedAt:      publishedAt,
		Sentiment:        score.Sentiment,
		SentimentScore:   score.SentimentScore,
		Impact:           score.Impact,
		ImpactScore:      score.ImpactScore,
		Engagement: models.Engagement{
			Likes:   raw.Metrics.Likes,
			Reposts: raw.Metrics.Reposts,
			Replies: raw.Metrics.Replies,
			Quotes:  raw.Metrics.Quotes,
		},
	}, nil
}

// Prices parses an upstream price payload into normalized price points.
func (n *Normalizer) Prices(body []byte) ([]models.PricePoint, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode price envelope: %w", err)
	}

	points := make([]models.PricePoint, 0, len(env.Items))
	for _, item := range env.Items {
		var raw rawPrice
		if err := json.Unmarshal(item, &raw); err != nil {
			n.drop("price", fmt.Errorf("decode price: %w", err))
			continue
		}
		ts, ok := util.ParseTime(raw.Timestamp)
		if !ok {
			n.drop("price", fmt.Errorf("price %s bad timestamp %q", raw.Symbol, raw.Timestamp))
			continue
		}
		if raw.Price <= 0 {
			n.drop("price", fmt.Errorf("price %s not positive", raw.Symbol))
			continue
		}
		points = append(points, models.PricePoint{
			Symbol:    raw.Symbol,
			Timestamp: ts,
			Price:     raw.Price,
			Volume:    raw.Volume,
		})
	}
	return points, nil
}

func (n *Normalizer) drop(kind string, err error) {
	n.log.Warn("dropping malformed item",
		logger.String("kind", kind),
		logger.Error(err))
	if n.metrics != nil {
		n.metrics.RecordError("normalize_" + kind)
	}
}
