package models

import "time"

// Timeframe is a symbolic span selector such as YTD or 1W.
type Timeframe string

// Price family (equity, fund, economic-series).
const (
	TF1M  Timeframe = "1M"
	TF3M  Timeframe = "3M"
	TF6M  Timeframe = "6M"
	TFYTD Timeframe = "YTD"
	TF1Y  Timeframe = "1Y"
	TFALL Timeframe = "ALL"
)

// Market family (probability-market). 1M is shared with the price family.
const (
	TF1H  Timeframe = "1H"
	TF6H  Timeframe = "6H"
	TF1D  Timeframe = "1D"
	TF1W  Timeframe = "1W"
	TFMAX Timeframe = "MAX"
)

// Family groups timeframe tokens that share one vocabulary.
type Family string

const (
	FamilyPrice  Family = "price"
	FamilyMarket Family = "market"
)

// PriceTimeframes lists the price family from shortest to widest span.
var PriceTimeframes = []Timeframe{TF1M, TF3M, TF6M, TFYTD, TF1Y, TFALL}

// MarketTimeframes lists the market family from shortest to widest span.
var MarketTimeframes = []Timeframe{TF1H, TF6H, TF1D, TF1W, TF1M, TFMAX}

// Timeframes returns the ordered tokens of a family.
func Timeframes(f Family) []Timeframe {
	if f == FamilyMarket {
		return MarketTimeframes
	}
	return PriceTimeframes
}

// IsValidTimeframe returns true if tf belongs to family f.
func IsValidTimeframe(f Family, tf Timeframe) bool {
	for _, v := range Timeframes(f) {
		if v == tf {
			return true
		}
	}
	return false
}

// DefaultTimeframe returns the default token of a family.
func DefaultTimeframe(f Family) Timeframe {
	if f == FamilyMarket {
		return TF1M
	}
	return TFYTD
}

// NormalizeTimeframe converts a raw string to a valid token of family f.
// Empty input yields the family default; unknown input returns false.
func NormalizeTimeframe(f Family, s string) (Timeframe, bool) {
	if s == "" {
		return DefaultTimeframe(f), true
	}
	tf := Timeframe(s)
	if IsValidTimeframe(f, tf) {
		return tf, true
	}
	return "", false
}

// TimeRange is a half-open [Start, End) interval in UTC.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls in [Start, End]. End is inclusive so the
// latest observation at "now" is kept.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days returns the span length in days.
func (r TimeRange) Days() float64 {
	return r.End.Sub(r.Start).Hours() / 24
}

// SamplingPolicy controls upstream query density and synthetic point count.
type SamplingPolicy struct {
	Interval string `json:"interval"`
	Fidelity int    `json:"fidelity,omitempty"` // minutes, market family only
	Points   int    `json:"points"`
}
