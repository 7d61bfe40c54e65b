package sentiment

import (
	"strings"

	"SentiPulse/internal/domain/models"
	"SentiPulse/internal/domain/service"
)

// LexiconScorer is the default SentimentScorer: a small keyword lexicon
// good enough for development and the synthetic path. Production
// deployments inject a model-backed scorer behind the same contract.
type LexiconScorer struct{}

// NewLexiconScorer creates the lexicon-backed scorer.
func NewLexiconScorer() service.SentimentScorer {
	return &LexiconScorer{}
}

var positiveWords = map[string]float64{
	"bullish": 1.0, "moon": 0.9, "pump": 0.7, "surge": 0.8, "rally": 0.8,
	"breakout": 0.8, "ath": 0.9, "buy": 0.5, "long": 0.4, "gain": 0.6,
	"profit": 0.6, "up": 0.3, "strong": 0.5, "growth": 0.5, "adoption": 0.6,
}

var negativeWords = map[string]float64{
	"bearish": 1.0, "dump": 0.8, "crash": 1.0, "plunge": 0.9, "drop": 0.5,
	"sell": 0.5, "short": 0.4, "loss": 0.6, "scam": 0.9, "rug": 0.9,
	"down": 0.3, "weak": 0.5, "fear": 0.6, "liquidation": 0.8, "fud": 0.7,
}

var intensifiers = map[string]struct{}{
	"massive": {}, "huge": {}, "breaking": {}, "urgent": {}, "alert": {},
}

// Score classifies text into sentiment and expected market impact.
func (s *LexiconScorer) Score(text string) service.SentimentResult {
	words := strings.Fields(strings.ToLower(text))

	var pos, neg float64
	intensity := 0.0
	for _, w := range words {
		w = strings.Trim(w, ".,!?#$@:;\"'()")
		if v, ok := positiveWords[w]; ok {
			pos += v
		}
		if v, ok := negativeWords[w]; ok {
			neg += v
		}
		if _, ok := intensifiers[w]; ok {
			intensity += 0.15
		}
	}
	intensity += 0.1 * float64(strings.Count(text, "!"))
	if intensity > 0.5 {
		intensity = 0.5
	}

	score := 0.0
	if total := pos + neg; total > 0 {
		score = (pos - neg) / total
	}
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}

	sent := models.SentimentNeutral
	switch {
	case score > 0.15:
		sent = models.SentimentPositive
	case score < -0.15:
		sent = models.SentimentNegative
	}

	impactScore := abs(score)*0.6 + intensity
	if impactScore > 1 {
		impactScore = 1
	}
	impact := models.ImpactLow
	switch {
	case impactScore >= 0.7:
		impact = models.ImpactHigh
	case impactScore >= 0.4:
		impact = models.ImpactMedium
	}

	return service.SentimentResult{
		Sentiment:      sent,
		SentimentScore: score,
		Impact:         impact,
		ImpactScore:    impactScore,
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
