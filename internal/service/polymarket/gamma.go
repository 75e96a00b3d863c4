package polymarket

import (
	"context"
	"encoding/json"
	"strings"

	"ProxyPull/internal/service/upstream"
	xhttp "ProxyPull/pkg/http"
	"ProxyPull/pkg/util"
)

const SourceName = "polymarket"

// Market is a market record from the Gamma API.
type Market struct {
	ID            string          `json:"id"`
	ConditionID   string          `json:"conditionId"`
	Slug          string          `json:"slug"`
	Question      string          `json:"question"`
	Outcomes      json.RawMessage `json:"outcomes"`
	OutcomePrices json.RawMessage `json:"outcomePrices"` // JSON string: "[\"0.75\", \"0.25\"]"
}

// Snapshot returns the current first-outcome probability as a percentage.
func (m Market) Snapshot() (float64, bool) {
	prices := decodeStringList(m.OutcomePrices)
	if len(prices) == 0 {
		return 0, false
	}
	p, ok := util.ParseFinite(prices[0])
	if !ok || p < 0 || p > 1 {
		return 0, false
	}
	return p * 100, true
}

// decodeStringList accepts both a JSON array and a JSON string holding one.
func decodeStringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err == nil {
		return out
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(inner), &out); err != nil {
		return nil
	}
	return out
}

// MarketFinder resolves a market slug to a market record.
type MarketFinder interface {
	BySlug(ctx context.Context, slug string) (*Market, error)
	Search(ctx context.Context, text string) (*Market, error)
}

// Gamma queries the market metadata API.
type Gamma struct {
	*upstream.Base
}

func NewGamma(baseURL string, client *xhttp.Client) *Gamma {
	return &Gamma{Base: upstream.NewBase(SourceName, baseURL, client)}
}

// BySlug returns the market whose slug matches exactly, or nil.
func (g *Gamma) BySlug(ctx context.Context, slug string) (*Market, error) {
	return g.first(ctx, map[string][]string{"slug": {slug}})
}

// Search returns the first open market matching text, or nil.
func (g *Gamma) Search(ctx context.Context, text string) (*Market, error) {
	return g.first(ctx, map[string][]string{
		"_limit":     {"5"},
		"closed":     {"false"},
		"textSearch": {text},
	})
}

func (g *Gamma) first(ctx context.Context, query map[string][]string) (*Market, error) {
	var markets []Market
	if err := g.GetJSON(ctx, "/markets", query, &markets); err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, nil
	}
	return &markets[0], nil
}

// SearchText turns a slug into the free-text query used when no market
// carries the exact slug.
func SearchText(slug string) string {
	return strings.TrimSpace(strings.ReplaceAll(slug, "-", " "))
}
