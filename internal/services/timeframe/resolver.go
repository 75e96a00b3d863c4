package timeframe

import (
	"fmt"
	"time"

	"ProxyPull/internal/domain/models"
)

// Epoch is the start of ALL and MAX.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type policy struct {
	interval string
	fidelity int
	points   int
}

var pricePolicies = map[models.Timeframe]policy{
	models.TF1M:  {interval: "1d", points: 30},
	models.TF3M:  {interval: "1d", points: 60},
	models.TF6M:  {interval: "1d", points: 90},
	models.TFYTD: {interval: "1d", points: 120},
	models.TF1Y:  {interval: "1wk", points: 150},
	models.TFALL: {interval: "1wk", points: 200},
}

var marketPolicies = map[models.Timeframe]policy{
	models.TF1H:  {interval: "1d", fidelity: 1, points: 60},
	models.TF6H:  {interval: "1d", fidelity: 5, points: 72},
	models.TF1D:  {interval: "1d", fidelity: 15, points: 96},
	models.TF1W:  {interval: "1w", fidelity: 60, points: 168},
	models.TF1M:  {interval: "1m", fidelity: 360, points: 120},
	models.TFMAX: {interval: "max", fidelity: 1440, points: 200},
}

// ResolveRange maps tf of family f to a concrete range ending at now.
func ResolveRange(f models.Family, tf models.Timeframe, now, epoch time.Time) (models.TimeRange, error) {
	if !models.IsValidTimeframe(f, tf) {
		return models.TimeRange{}, fmt.Errorf("%w: %q for %s", models.ErrInvalidTimeframe, tf, f)
	}
	now = now.UTC()
	epoch = epoch.UTC()

	var start time.Time
	if f == models.FamilyMarket {
		switch tf {
		case models.TF1H:
			start = now.Add(-time.Hour)
		case models.TF6H:
			start = now.Add(-6 * time.Hour)
		case models.TF1D:
			start = now.AddDate(0, 0, -1)
		case models.TF1W:
			start = now.AddDate(0, 0, -7)
		case models.TF1M:
			start = now.AddDate(0, -1, 0)
		case models.TFMAX:
			start = earliest(epoch, now.AddDate(0, -1, 0))
		}
	} else {
		switch tf {
		case models.TF1M:
			start = now.AddDate(0, -1, 0)
		case models.TF3M:
			start = now.AddDate(0, -3, 0)
		case models.TF6M:
			start = now.AddDate(0, -6, 0)
		case models.TFYTD:
			start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		case models.TF1Y:
			start = now.AddDate(-1, 0, 0)
		case models.TFALL:
			start = earliest(epoch, now.AddDate(-1, 0, 0))
		}
	}

	// clock skew
	if start.After(now) {
		start = now
	}
	return models.TimeRange{Start: start, End: now}, nil
}

// ResolveSampling returns the sampling policy of tf in family f.
func ResolveSampling(f models.Family, tf models.Timeframe) (models.SamplingPolicy, error) {
	table := pricePolicies
	if f == models.FamilyMarket {
		table = marketPolicies
	}
	p, ok := table[tf]
	if !ok {
		return models.SamplingPolicy{}, fmt.Errorf("%w: %q for %s", models.ErrInvalidTimeframe, tf, f)
	}
	return models.SamplingPolicy{Interval: p.interval, Fidelity: p.fidelity, Points: p.points}, nil
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// Option configures Resolver.
type Option func(*Resolver)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithEpoch overrides the ALL/MAX start.
func WithEpoch(epoch time.Time) Option {
	return func(r *Resolver) {
		r.epoch = epoch
	}
}

// Resolver binds the pure functions to a clock.
type Resolver struct {
	now   func() time.Time
	epoch time.Time
}

func New(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now, epoch: Epoch}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now returns the resolver clock in UTC.
func (r *Resolver) Now() time.Time { return r.now().UTC() }

// Resolve returns both range and sampling for one token.
func (r *Resolver) Resolve(f models.Family, tf models.Timeframe) (models.TimeRange, models.SamplingPolicy, error) {
	rng, err := ResolveRange(f, tf, r.now(), r.epoch)
	if err != nil {
		return models.TimeRange{}, models.SamplingPolicy{}, err
	}
	sp, err := ResolveSampling(f, tf)
	if err != nil {
		return models.TimeRange{}, models.SamplingPolicy{}, err
	}
	return rng, sp, nil
}
