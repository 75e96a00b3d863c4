package models

// Requests for the series HTTP and stream endpoints.

type SeriesRequest struct {
	ProxyID    string  `query:"proxy" json:"proxy" validate:"required_without=Identifier"`
	Kind       string  `query:"kind" json:"kind" validate:"required_with=Identifier,omitempty,oneof=equity stock fund etf economic-series economic fred probability-market market polymarket"`
	Identifier string  `query:"identifier" json:"identifier" validate:"omitempty,max=128"`
	Transform  string  `query:"transform" json:"transform" validate:"omitempty,max=16"`
	Baseline   float64 `query:"baseline" json:"baseline" validate:"gte=0"`
	TF         string  `query:"tf" json:"tf" validate:"omitempty,oneof=1M 3M 6M YTD 1Y ALL 1H 6H 1D 1W MAX"`
}

type HeadlinesRequest struct {
	ProxyID string `query:"proxy" json:"proxy" validate:"required_without=Query"`
	Query   string `query:"q" json:"q" validate:"omitempty,max=256"`
	Limit   int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=50"`
}

// StreamSelection is a client frame on the series stream.
type StreamSelection struct {
	ProxyID   string `json:"proxy" validate:"required"`
	Timeframe string `json:"timeframe" validate:"omitempty,oneof=1M 3M 6M YTD 1Y ALL 1H 6H 1D 1W MAX"`
}

// StreamFrame is a server frame on the series stream.
type StreamFrame struct {
	ProxyID   string        `json:"proxy"`
	Timeframe string        `json:"timeframe"`
	Result    *SeriesResult `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
}
