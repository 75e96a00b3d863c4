package fallback

// Last known prices used as the starting value of synthetic price series.
var referencePrices = map[string]float64{
	"AMZN":     220,
	"SAP":      250,
	"ORCL":     170,
	"CRM":      340,
	"MSFT":     420,
	"TSLA":     410,
	"HOOD":     40,
	"NFLX":     870,
	"COIN":     260,
	"QQQ":      525,
	"REMX":     38,
	"HG=F":     4.25,
	"BZ=F":     76,
	"DX-Y.NYB": 108,
	"SPY":      590,
}

// Last known probabilities (percent) keyed by full market slug. Markets
// that were re-listed under a new slug carry both.
var referenceProbabilities = map[string]float64{
	"will-the-democratic-party-control-the-house-after-the-2026-midterm-elections": 79,
	"will-jd-vance-win-the-2028-republican-presidential-nomination":                54,
	"will-jd-vance-win-the-2028-us-presidential-election":                          29,
	"russia-x-ukraine-ceasefire-before-2027":                                       50,
	"will-china-invade-taiwan-before-2027":                                         5,
	"khamenei-out-as-supreme-leader-of-iran-by-march-31":                           44,
	"khamenei-out-as-supreme-leader-of-iran-by-december-31-2026":                   44,
	"will-the-iranian-regime-fall-by-january-31":                                   16,
	"will-the-iranian-regime-fall-by-the-end-of-2026":                              16,
	"spacex-space-exploration-technologies-corp-ipo-before-2027":                   15,
	"stripe-ipo-before-2027":                                                       25,
}

const (
	defaultPrice       = 100.0
	defaultProbability = 50.0

	minProbability = 5.0
	maxProbability = 95.0
)
