package models

// Requests for the dashboard HTTP endpoints. Defined in domain for consistency and reuse.

type TweetsRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"24h" validate:"oneof=1h 4h 24h 7d"`
}

type CorrelationRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Days   int    `query:"days" json:"days" default:"7" validate:"gte=1,lte=90"`
}

type AlertsRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"24h" validate:"oneof=1h 4h 24h 7d"`
}

type PriceRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"24h" validate:"oneof=1h 4h 24h 7d"`
}
