package fallback

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"ProxyPull/internal/domain/models"
	"ProxyPull/internal/domain/service"
)

const (
	// share of the gap to the target closed per step
	priceReversion       = 0.1
	probabilityReversion = 0.05
	// noise amplitude: 2% of the target for prices, 2 points for probabilities
	priceNoise       = 0.04
	probabilityNoise = 4.0
	// a step never loses more than 20% of the running value
	priceFloorRatio = 0.8
	minPrice        = 0.01

	trendSpread    = 20.0
	trendJitter    = 3.0
	trendReversion = 0.1
	trendSteps     = 30
)

// Option configures Generator.
type Option func(*Generator)

// WithReferencePrices adds or replaces known prices by ticker.
func WithReferencePrices(prices map[string]float64) Option {
	return func(g *Generator) {
		for k, v := range prices {
			if v > 0 {
				g.prices[strings.ToUpper(k)] = v
			}
		}
	}
}

// WithReferenceProbabilities adds or replaces known probabilities by slug.
func WithReferenceProbabilities(probs map[string]float64) Option {
	return func(g *Generator) {
		for k, v := range probs {
			if v >= minProbability && v <= maxProbability {
				g.probabilities[strings.ToLower(k)] = v
			}
		}
	}
}

// WithRandSource replaces the seeded rng factory.
func WithRandSource(fn func(seed uint64) *rand.Rand) Option {
	return func(g *Generator) {
		g.newRand = fn
	}
}

// Generator produces synthetic series for sources that could not be read.
type Generator struct {
	prices        map[string]float64
	probabilities map[string]float64
	newRand       func(seed uint64) *rand.Rand
}

var (
	_ service.FallbackGenerator = (*Generator)(nil)
	_ service.TrendInterpolator = (*Generator)(nil)
)

func New(opts ...Option) *Generator {
	g := &Generator{
		prices:        make(map[string]float64, len(referencePrices)),
		probabilities: make(map[string]float64, len(referenceProbabilities)),
		newRand: func(seed uint64) *rand.Rand {
			return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		},
	}
	for k, v := range referencePrices {
		g.prices[k] = v
	}
	for k, v := range referenceProbabilities {
		g.probabilities[k] = v
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns req.Points evenly spaced points over req.Range. The walk
// starts at the known reference value when there is one and reverts toward
// the anchor, so the tail of the series sits near the baseline.
func (g *Generator) Generate(req service.FallbackRequest) []models.DataPoint {
	n := req.Points
	if n < 2 {
		n = 2
	}
	rng := g.newRand(seedFor(req.Identifier, req.Range.Start))
	times := spread(req.Range, n)

	if req.Scale == service.ScaleProbability {
		return g.probabilityWalk(rng, req, times)
	}
	return g.priceWalk(rng, req, times)
}

func (g *Generator) priceWalk(rng *rand.Rand, req service.FallbackRequest, times []time.Time) []models.DataPoint {
	ref, hasRef := g.prices[strings.ToUpper(req.Identifier)]
	target := defaultPrice
	switch {
	case req.Anchor != nil && *req.Anchor > 0:
		target = *req.Anchor
	case hasRef:
		target = ref
	}
	v := target
	if hasRef {
		v = ref
	}

	out := make([]models.DataPoint, len(times))
	for i, ts := range times {
		if i > 0 {
			next := v + priceReversion*(target-v) + (rng.Float64()-0.5)*priceNoise*target
			v = math.Max(next, priceFloorRatio*v)
		}
		out[i] = models.DataPoint{Timestamp: ts, Value: math.Max(round2(v), minPrice)}
	}
	return out
}

func (g *Generator) probabilityWalk(rng *rand.Rand, req service.FallbackRequest, times []time.Time) []models.DataPoint {
	start := defaultProbability
	ref, hasRef := g.probabilityFor(req.Identifier)
	switch {
	case hasRef:
		start = ref
	case req.Anchor != nil:
		start = *req.Anchor
	}
	start = clampProbability(start)
	target := start
	if req.Anchor != nil {
		target = clampProbability(*req.Anchor)
	}

	v := start
	out := make([]models.DataPoint, len(times))
	for i, ts := range times {
		if i > 0 {
			v = clampProbability(v + probabilityReversion*(target-v) + (rng.Float64()-0.5)*probabilityNoise)
		}
		out[i] = models.DataPoint{Timestamp: ts, Value: round2(v)}
	}
	return out
}

// Trend interpolates from a random start near current to exactly current.
// Intermediate points stay within [5,95]; the last point is current as given.
// steps <= 0 uses the default of 30 steps (31 points).
func (g *Generator) Trend(r models.TimeRange, current float64, steps int) []models.DataPoint {
	if steps <= 0 {
		steps = trendSteps
	}
	target := clampProbability(current)
	rng := g.newRand(seedFor("trend", r.Start) ^ math.Float64bits(current))
	times := spread(r, steps+1)

	v := clampProbability(target + (rng.Float64()-0.5)*trendSpread)
	out := make([]models.DataPoint, len(times))
	for i, ts := range times {
		if i > 0 {
			v = clampProbability(v + (target-v)*trendReversion + (rng.Float64()-0.5)*trendJitter)
		}
		out[i] = models.DataPoint{Timestamp: ts, Value: round2(v)}
	}
	// the snapshot is a real observation, never clamped
	out[len(out)-1].Value = current
	return out
}

func (g *Generator) probabilityFor(slug string) (float64, bool) {
	slug = strings.ToLower(slug)
	if v, ok := g.probabilities[slug]; ok {
		return v, true
	}
	keys := make([]string, 0, len(g.probabilities))
	for k := range g.probabilities {
		keys = append(keys, k)
	}
	// a slug that embeds a known slug inherits it; the longest match wins
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	for _, k := range keys {
		if strings.Contains(slug, k) {
			return g.probabilities[k], true
		}
	}
	return 0, false
}

func spread(r models.TimeRange, n int) []time.Time {
	out := make([]time.Time, n)
	span := r.End.Sub(r.Start)
	for i := 0; i < n; i++ {
		out[i] = r.Start.Add(time.Duration(float64(span) * float64(i) / float64(n-1)))
	}
	return out
}

func seedFor(identifier string, start time.Time) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(identifier))
	_, _ = h.Write([]byte(start.UTC().Format("2006-01-02")))
	return h.Sum64()
}

func clampProbability(v float64) float64 {
	return math.Min(maxProbability, math.Max(minProbability, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
