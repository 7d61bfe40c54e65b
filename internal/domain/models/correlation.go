package models

// Data quality labels attached to a correlation computation so downstream
// UI can warn about weak sample sizes.
const (
	QualityGood         = "good"
	QualityLimited      = "limited"
	QualityInsufficient = "insufficient"
)

// CorrelationPoint is one day-bucket of sentiment vs. price movement for a
// single tracked account. Derived on demand, never persisted on its own.
type CorrelationPoint struct {
	Date           string  `json:"date"` // YYYY-MM-DD
	SentimentScore float64 `json:"sentiment_score"`
	PriceChange    float64 `json:"price_change"`
	Correlation    float64 `json:"correlation"`
	PostCount      int     `json:"post_count"`
	Impact         Impact  `json:"impact"`
}

// AccountCorrelation aggregates an account's daily correlation points over
// the requested window.
//
// PriceChange values are a documented stand-in derived from sentiment plus
// bounded noise, not real market history; do not present them as ground
// truth pending a real price-feed integration.
type AccountCorrelation struct {
	AccountID           string             `json:"account_id"`
	Username            string             `json:"username"`
	Points              []CorrelationPoint `json:"points"`
	CorrelationStrength float64            `json:"correlation_strength"`
	PredictionAccuracy  float64            `json:"prediction_accuracy"`
	RelevanceScore      float64            `json:"relevance_score"`
	CombinedScore       float64            `json:"combined_score"`
	TotalPosts          int                `json:"total_posts"`
	DataQuality         string             `json:"data_quality"`
}
