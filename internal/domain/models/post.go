package models

import "time"

// Sentiment classifies the tone of a post.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Impact classifies the expected market impact of a post.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Engagement holds per-post engagement counters as reported upstream.
type Engagement struct {
	Likes   int `json:"likes"`
	Reposts int `json:"reposts"`
	Replies int `json:"replies"`
	Quotes  int `json:"quotes"`
}

// Total returns the combined engagement count.
func (e Engagement) Total() int {
	return e.Likes + e.Reposts + e.Replies + e.Quotes
}

// NormalizedPost is the unified representation of a social media or news item,
// regardless of which upstream API produced it. Immutable once built.
type NormalizedPost struct {
	ID               string     `json:"id"`
	AccountID        string     `json:"account_id"`
	AccountUsername  string     `json:"account_username"`
	AccountFollowers int        `json:"account_followers"`
	AccountVerified  bool       `json:"account_verified"`
	Content          string     `json:"content"`
	PublishedAt      time.Time  `json:"published_at"`
	Sentiment        Sentiment  `json:"sentiment"`
	SentimentScore   float64    `json:"sentiment_score"` // [-1, 1]
	Impact           Impact     `json:"impact"`
	ImpactScore      float64    `json:"impact_score"` // [0, 1]
	Engagement       Engagement `json:"engagement"`
}

// PostEvent is a streamed post tagged with the symbol it arrived under.
type PostEvent struct {
	Symbol string         `json:"symbol"`
	Post   NormalizedPost `json:"post"`
}

// PricePoint is a normalized upstream price sample.
type PricePoint struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
}
