package yahoo

import (
	"time"

	"ProxyPull/internal/domain/models"
)

var rangeTokens = map[models.Timeframe]string{
	models.TF1M:  "1mo",
	models.TF3M:  "3mo",
	models.TF6M:  "6mo",
	models.TFYTD: "ytd",
	models.TF1Y:  "1y",
	models.TFALL: "max",
}

// RangeFor maps the query onto the provider range vocabulary. Unknown
// tokens fall back to the narrowest range covering q.Range.
func RangeFor(q models.SeriesQuery) string {
	if r, ok := rangeTokens[q.Timeframe]; ok {
		return r
	}
	switch days := q.Range.Days(); {
	case days <= 31:
		return "1mo"
	case days <= 92:
		return "3mo"
	case days <= 184:
		return "6mo"
	case days <= 366:
		return "1y"
	default:
		return "max"
	}
}

// IntervalFor derives the provider interval from the sampling policy,
// forcing weekly bars on multi-year ranges.
func IntervalFor(q models.SeriesQuery, rng string) string {
	if rng == "1y" || rng == "max" {
		return "1wk"
	}
	switch q.Sampling.Interval {
	case "1wk", "1w":
		return "1wk"
	default:
		return "1d"
	}
}

func unixUTC(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
