package usecase

import (
	"testing"

	"ProxyPull/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func TestBenchmarkPolicyDefaults(t *testing.T) {
	p := NewBenchmarkPolicy(nil, nil)
	assert.Equal(t, []string{"SPY", "QQQ"}, p.Symbols())
	assert.Equal(t, []string{"SPY", "QQQ"}, p.For(models.KindEquity, "amzn", models.TFYTD))
	assert.Equal(t, []string{"SPY", "QQQ"}, p.For(models.KindFund, "ARKK", models.TF1M))
}

func TestBenchmarkPolicySkips(t *testing.T) {
	p := NewBenchmarkPolicy(nil, nil)
	cases := map[string]struct {
		kind   models.ProxyKind
		ticker string
		tf     models.Timeframe
	}{
		"all timeframe":   {models.KindEquity, "AMZN", models.TFALL},
		"economic":        {models.KindEconomic, "CPIAUCSL", models.TF1Y},
		"market":          {models.KindMarket, "stripe-ipo", models.TF1M},
		"excluded":        {models.KindFund, "gld", models.TF1Y},
		"dollar index":    {models.KindFund, "DX-Y.NYB", models.TF3M},
		"unlisted future": {models.KindFund, "NG=F", models.TF3M},
	}
	for name, c := range cases {
		assert.Nil(t, p.For(c.kind, c.ticker, c.tf), name)
	}
}

func TestBenchmarkPolicyCustomSymbols(t *testing.T) {
	p := NewBenchmarkPolicy([]string{" dia ", "DIA", "iwm", "spy"}, []string{})
	assert.Equal(t, []string{"DIA", "IWM"}, p.Symbols())
	assert.Equal(t, []string{"DIA", "IWM"}, p.For(models.KindFund, "GLD", models.TF6M))

	syms := p.Symbols()
	syms[0] = "XXX"
	assert.Equal(t, "DIA", p.Symbols()[0])
}
