package models

import "time"

// Data source tags reported on an AggregateResult.
const (
	SourcePrimary  = "primary"
	SourceFallback = "fallback"
)

// AggregateResult is the canonical per-(symbol, timeframe) view every
// consumer observes. Treat as read-only once returned: refreshes build a
// new result, they never mutate a cached one.
type AggregateResult struct {
	Symbol                string            `json:"symbol"`
	Timeframe             string            `json:"timeframe"`
	TotalPosts            int               `json:"total_posts"`
	Posts                 []NormalizedPost  `json:"posts"`
	SentimentDistribution map[Sentiment]int `json:"sentiment_distribution"`
	ImpactDistribution    map[Impact]int    `json:"impact_distribution"`
	AvgSentimentScore     float64           `json:"avg_sentiment_score"`
	MonitoredAccountCount int               `json:"monitored_account_count"`
	DataSource            string            `json:"data_source"`
	LastUpdate            time.Time         `json:"last_update"`
}
