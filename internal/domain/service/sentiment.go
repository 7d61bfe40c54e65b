package service

import "SentiPulse/internal/domain/models"

// SentimentResult is the output of the text scoring contract.
type SentimentResult struct {
	Sentiment      models.Sentiment
	SentimentScore float64 // [-1, 1]
	Impact         models.Impact
	ImpactScore    float64 // [0, 1]
}

// SentimentScorer is the pure text -> sentiment/impact contract. How scores
// are computed linguistically is outside this core; it is consumed as
// input/output only.
type SentimentScorer interface {
	Score(text string) SentimentResult
}
