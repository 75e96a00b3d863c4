package normalizer

import (
	"math"
	"sort"
	"time"

	"ProxyPull/internal/domain/models"
)

// DayLayout is the calendar-day key. Days are truncated in UTC.
const DayLayout = "2006-01-02"

// DayKey returns the UTC calendar day of t.
func DayKey(t time.Time) string { return t.UTC().Format(DayLayout) }

type daily struct {
	days   []string
	values map[string]float64
}

// byDay keys points by UTC day; the latest point of a day wins and
// non-finite values are skipped.
func byDay(points []models.DataPoint) daily {
	sorted := SortPoints(points)
	d := daily{values: make(map[string]float64, len(sorted))}
	for _, p := range sorted {
		k := DayKey(p.Timestamp)
		if _, seen := d.values[k]; !seen {
			d.days = append(d.days, k)
		}
		d.values[k] = p.Value
	}
	return d
}

func (d daily) base() (float64, bool) {
	if len(d.days) == 0 {
		return 0, false
	}
	return d.values[d.days[0]], true
}

// Merge aligns primary and benchmarks by calendar day. Each series is
// re-based on its own first day. A zero base leaves the returns of that
// series out; a benchmark fills a row only on an exact day match.
func Merge(primary []models.DataPoint, benchmarks map[string][]models.DataPoint) []models.NormalizedRow {
	p := byDay(primary)
	if len(p.days) == 0 {
		return []models.NormalizedRow{}
	}
	pBase, _ := p.base()

	type bench struct {
		name string
		d    daily
		base float64
	}
	names := make([]string, 0, len(benchmarks))
	for name := range benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)

	benches := make([]bench, 0, len(names))
	for _, name := range names {
		d := byDay(benchmarks[name])
		b, ok := d.base()
		if !ok || b == 0 {
			continue
		}
		benches = append(benches, bench{name: name, d: d, base: b})
	}

	rows := make([]models.NormalizedRow, 0, len(p.days))
	for _, day := range p.days {
		v := p.values[day]
		row := models.NormalizedRow{Date: day, Value: v}
		if pBase != 0 {
			r := PctChange(pBase, v)
			row.PctReturn = &r
		}
		for _, b := range benches {
			bv, ok := b.d.values[day]
			if !ok {
				continue
			}
			if row.Benchmarks == nil {
				row.Benchmarks = make(map[string]float64, len(benches))
			}
			row.Benchmarks[b.name] = PctChange(b.base, bv)
		}
		rows = append(rows, row)
	}
	return rows
}

// PctChange returns the percent change from base to v. base must be non-zero.
func PctChange(base, v float64) float64 {
	return (v - base) * 100 / base
}

// SortPoints returns the finite points of in, ordered by timestamp.
func SortPoints(in []models.DataPoint) []models.DataPoint {
	out := make([]models.DataPoint, 0, len(in))
	for _, p := range in {
		if IsFinite(p.Value) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// TrimToRange keeps the points of in that fall inside r.
func TrimToRange(in []models.DataPoint, r models.TimeRange) []models.DataPoint {
	out := make([]models.DataPoint, 0, len(in))
	for _, p := range in {
		if r.Contains(p.Timestamp) {
			out = append(out, p)
		}
	}
	return out
}

// Summarize reports the change between the first and last point. The
// percent change is only set for a positive start.
func Summarize(points []models.DataPoint) *models.SeriesSummary {
	sorted := SortPoints(points)
	if len(sorted) == 0 {
		return nil
	}
	first, last := sorted[0].Value, sorted[len(sorted)-1].Value
	s := &models.SeriesSummary{Start: first, Current: last, Change: last - first}
	if first > 0 {
		pct := PctChange(first, last)
		s.ChangePct = &pct
	}
	return s
}

func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
