package usecase

import (
	"strings"

	"ProxyPull/internal/domain/models"
)

// MaxBenchmarks caps the comparison series per chart.
const MaxBenchmarks = 2

var (
	DefaultBenchmarks        = []string{"SPY", "QQQ"}
	DefaultExcludedBenchmark = []string{"HG=F", "BZ=F", "CL=F", "DX-Y.NYB", "GLD", "SLV"}
)

// BenchmarkPolicy decides which index series a price chart is compared to.
// Commodities, currencies and futures are never compared against equity
// indices, and multi-year charts skip the comparison altogether.
type BenchmarkPolicy struct {
	symbols  []string
	excluded map[string]struct{}
}

func NewBenchmarkPolicy(symbols, excluded []string) *BenchmarkPolicy {
	if len(symbols) == 0 {
		symbols = DefaultBenchmarks
	}
	if excluded == nil {
		excluded = DefaultExcludedBenchmark
	}

	p := &BenchmarkPolicy{excluded: make(map[string]struct{}, len(excluded))}
	seen := map[string]bool{}
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] || len(p.symbols) == MaxBenchmarks {
			continue
		}
		seen[s] = true
		p.symbols = append(p.symbols, s)
	}
	for _, s := range excluded {
		p.excluded[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	return p
}

// Symbols returns the configured benchmark tickers.
func (p *BenchmarkPolicy) Symbols() []string {
	return append([]string(nil), p.symbols...)
}

// For returns the benchmarks to fetch alongside ticker, or nil.
func (p *BenchmarkPolicy) For(kind models.ProxyKind, ticker string, tf models.Timeframe) []string {
	if kind != models.KindEquity && kind != models.KindFund {
		return nil
	}
	if tf == models.TFALL {
		return nil
	}
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if _, ok := p.excluded[t]; ok || strings.Contains(t, "=F") {
		return nil
	}
	return p.Symbols()
}
