package models

import "time"

// DataPoint is one observation. Value is always finite.
type DataPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Provenance tells whether a series came from a live source.
type Provenance string

const (
	ProvenanceLive         Provenance = "live"
	ProvenanceInterpolated Provenance = "interpolated"
	ProvenanceSynthetic    Provenance = "synthetic"
)

// Series is an adapter or fallback output.
type Series struct {
	Points     []DataPoint `json:"points"`
	Provenance Provenance  `json:"provenance"`
}

// IsLive reports whether every point was observed upstream.
func (s Series) IsLive() bool { return s.Provenance == ProvenanceLive }

// SeriesQuery carries everything an adapter needs for one fetch.
type SeriesQuery struct {
	Timeframe Timeframe
	Range     TimeRange
	Sampling  SamplingPolicy
	Transform string
}

// NormalizedRow is one calendar day of a merged table. PctReturn is nil when
// the primary base value is zero; a benchmark key is absent when that
// benchmark has no point on the same day.
type NormalizedRow struct {
	Date       string             `json:"date"`
	Value      float64            `json:"value"`
	PctReturn  *float64           `json:"pctReturn,omitempty"`
	Benchmarks map[string]float64 `json:"benchmarks,omitempty"`
}

// SeriesSummary is the period change shown next to a chart.
type SeriesSummary struct {
	Start     float64  `json:"start"`
	Current   float64  `json:"current"`
	Change    float64  `json:"change"`
	ChangePct *float64 `json:"changePct,omitempty"`
}

// SeriesResult is the facade output for one (descriptor, timeframe).
type SeriesResult struct {
	ProxyID     string          `json:"proxyId,omitempty"`
	Kind        ProxyKind       `json:"kind"`
	Identifier  string          `json:"identifier"`
	Timeframe   Timeframe       `json:"timeframe"`
	Range       TimeRange       `json:"range"`
	Points      []DataPoint     `json:"points"`
	Provenance  Provenance      `json:"provenance"`
	IsSynthetic bool            `json:"isSynthetic"`
	Rows        []NormalizedRow `json:"rows,omitempty"`
	Benchmarks  []string        `json:"benchmarks,omitempty"`
	Summary     *SeriesSummary  `json:"summary,omitempty"`
	Baseline    *Baseline       `json:"baseline,omitempty"`
}

// SeriesEvent records how one fetch was resolved.
type SeriesEvent struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	Identifier string     `json:"identifier"`
	Timeframe  Timeframe  `json:"timeframe"`
	Role       string     `json:"role"` // primary or benchmark
	Provenance Provenance `json:"provenance,omitempty"`
	Points     int        `json:"points"`
	ErrorKind  string     `json:"errorKind,omitempty"`
	Error      string     `json:"error,omitempty"`
	At         time.Time  `json:"at"`
}

// Headline is one news item for a news proxy.
type Headline struct {
	Title       string    `json:"title"`
	Source      string    `json:"source,omitempty"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"publishedAt,omitempty"`
}
