package models

import (
	"encoding/json"
	"strings"
)

// ProxyKind identifies the family of a trackable quantity.
type ProxyKind string

const (
	KindEquity   ProxyKind = "equity"
	KindFund     ProxyKind = "fund"
	KindEconomic ProxyKind = "economic-series"
	KindMarket   ProxyKind = "probability-market"
	KindNews     ProxyKind = "news"
)

// ParseProxyKind maps a catalog or request token to a kind. The legacy
// catalog tokens stock, etf, fred and polymarket are accepted too.
func ParseProxyKind(s string) (ProxyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equity", "stock":
		return KindEquity, nil
	case "fund", "etf":
		return KindFund, nil
	case "economic-series", "economic", "fred":
		return KindEconomic, nil
	case "probability-market", "market", "polymarket":
		return KindMarket, nil
	case "news":
		return KindNews, nil
	default:
		return "", ErrUnknownKind
	}
}

// Family returns the timeframe vocabulary used by the kind.
func (k ProxyKind) Family() Family {
	if k == KindMarket {
		return FamilyMarket
	}
	return FamilyPrice
}

// Source is the closed set of proxy sources. Dispatch goes through
// SourceVisitor so that adding a variant breaks every unhandled switch at
// compile time.
type Source interface {
	Kind() ProxyKind
	Identifier() string
	Accept(v SourceVisitor) error
	sealed()
}

// SourceVisitor handles every Source variant.
type SourceVisitor interface {
	VisitEquity(s EquitySource) error
	VisitFund(s FundSource) error
	VisitEconomic(s EconomicSource) error
	VisitMarket(s MarketSource) error
	VisitNews(s NewsSource) error
}

type EquitySource struct {
	Ticker string `json:"ticker"`
}

func (s EquitySource) Kind() ProxyKind              { return KindEquity }
func (s EquitySource) Identifier() string           { return s.Ticker }
func (s EquitySource) Accept(v SourceVisitor) error { return v.VisitEquity(s) }
func (EquitySource) sealed()                        {}

type FundSource struct {
	Ticker string `json:"ticker"`
}

func (s FundSource) Kind() ProxyKind              { return KindFund }
func (s FundSource) Identifier() string           { return s.Ticker }
func (s FundSource) Accept(v SourceVisitor) error { return v.VisitFund(s) }
func (FundSource) sealed()                        {}

// EconomicSource is a FRED-style series code with an optional transform
// such as "pc1" (percent change from a year ago).
type EconomicSource struct {
	Series    string `json:"series"`
	Transform string `json:"transform,omitempty"`
}

func (s EconomicSource) Kind() ProxyKind              { return KindEconomic }
func (s EconomicSource) Identifier() string           { return s.Series }
func (s EconomicSource) Accept(v SourceVisitor) error { return v.VisitEconomic(s) }
func (EconomicSource) sealed()                        {}

type MarketSource struct {
	Slug  string `json:"slug"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

func (s MarketSource) Kind() ProxyKind              { return KindMarket }
func (s MarketSource) Identifier() string           { return s.Slug }
func (s MarketSource) Accept(v SourceVisitor) error { return v.VisitMarket(s) }
func (MarketSource) sealed()                        {}

type NewsSource struct {
	Query string `json:"query"`
}

func (s NewsSource) Kind() ProxyKind              { return KindNews }
func (s NewsSource) Identifier() string           { return s.Query }
func (s NewsSource) Accept(v SourceVisitor) error { return v.VisitNews(s) }
func (NewsSource) sealed()                        {}

// NewSource builds the variant for kind. transform only applies to
// economic series.
func NewSource(kind ProxyKind, identifier, transform string) (Source, error) {
	switch kind {
	case KindEquity:
		return EquitySource{Ticker: identifier}, nil
	case KindFund:
		return FundSource{Ticker: identifier}, nil
	case KindEconomic:
		return EconomicSource{Series: identifier, Transform: transform}, nil
	case KindMarket:
		return MarketSource{Slug: identifier}, nil
	case KindNews:
		return NewsSource{Query: identifier}, nil
	default:
		return nil, ErrUnknownKind
	}
}

// Baseline is the reference recorded at prediction time.
type Baseline struct {
	Value float64 `json:"value" yaml:"value"`
	Date  string  `json:"date" yaml:"date"`
	Label string  `json:"label,omitempty" yaml:"label"`
}

// ProxyDescriptor identifies one trackable quantity. Read-only at runtime.
type ProxyDescriptor struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Source      Source    `json:"-"`
	Unit        string    `json:"unit,omitempty"`
	Description string    `json:"description,omitempty"`
	Baseline    *Baseline `json:"baseline,omitempty"`
}

// Kind returns the source kind, or "" when no source is attached.
func (d ProxyDescriptor) Kind() ProxyKind {
	if d.Source == nil {
		return ""
	}
	return d.Source.Kind()
}

// Identifier returns the external identifier of the source.
func (d ProxyDescriptor) Identifier() string {
	if d.Source == nil {
		return ""
	}
	return d.Source.Identifier()
}

// Anchor returns the baseline value when one is recorded.
func (d ProxyDescriptor) Anchor() *float64 {
	if d.Baseline == nil || d.Baseline.Value <= 0 {
		return nil
	}
	v := d.Baseline.Value
	return &v
}

func (d ProxyDescriptor) MarshalJSON() ([]byte, error) {
	type alias ProxyDescriptor
	return json.Marshal(struct {
		alias
		Kind       ProxyKind `json:"kind"`
		Identifier string    `json:"identifier"`
		Source     Source    `json:"source,omitempty"`
	}{alias: alias(d), Kind: d.Kind(), Identifier: d.Identifier(), Source: d.Source})
}

// Prediction is a public claim with its optional proxies.
type Prediction struct {
	ID         string            `json:"id"`
	HostID     string            `json:"hostId"`
	CategoryID string            `json:"categoryId"`
	Title      string            `json:"prediction"`
	Rationale  string            `json:"rationale,omitempty"`
	Proxies    []ProxyDescriptor `json:"proxies"`
}

type Host struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type Category struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Catalog is the static dataset served to viewers.
type Catalog struct {
	Hosts       []Host       `json:"hosts"`
	Categories  []Category   `json:"categories"`
	Predictions []Prediction `json:"predictions"`
}
