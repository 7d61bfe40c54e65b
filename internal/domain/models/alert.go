package models

import "time"

// Alert severities, highest first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Alert types.
const (
	AlertBullishSignal   = "bullish_signal"
	AlertBearishSignal   = "bearish_signal"
	AlertViralContent    = "viral_content"
	AlertInfluencerPost  = "influencer_post"
	AlertMarketSentiment = "market_sentiment"
)

// AlertEvent is a discrete alert derived from a high-impact post. Ephemeral:
// not required to persist beyond the response (and optional fan-out).
type AlertEvent struct {
	ID              string    `json:"id"`
	Symbol          string    `json:"symbol"`
	Type            string    `json:"type"`
	Severity        string    `json:"severity"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	SentimentScore  float64   `json:"sentiment_score"`
	Impact          Impact    `json:"impact"`
	AccountUsername string    `json:"account_username"`
	TriggeredAt     time.Time `json:"triggered_at"`
	Priority        int       `json:"priority"` // 1..10
}
