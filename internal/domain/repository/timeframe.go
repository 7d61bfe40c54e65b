package repository

import "time"

// Timeframe is a supported dashboard aggregation window.
type Timeframe string

const (
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF24h Timeframe = "24h"
	TF7d  Timeframe = "7d"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1h, TF4h, TF24h, TF7d:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF24h }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// Duration returns the lookback window covered by the timeframe.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF1h:
		return time.Hour
	case TF4h:
		return 4 * time.Hour
	case TF7d:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// SyntheticBaseline returns the expected synthetic post volume for the
// timeframe before jitter is applied. Used by the fallback data source only.
func (tf Timeframe) SyntheticBaseline() int {
	switch tf {
	case TF1h:
		return 8
	case TF4h:
		return 25
	case TF7d:
		return 600
	default:
		return 120
	}
}
