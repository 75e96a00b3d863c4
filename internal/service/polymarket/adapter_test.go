package polymarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"ProxyPull/internal/domain/models"
	"ProxyPull/internal/services/fallback"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monthRange = models.TimeRange{
	Start: time.Date(2026, time.September, 18, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC),
}

func monthQuery() models.SeriesQuery {
	return models.SeriesQuery{
		Timeframe: models.TF1M,
		Range:     monthRange,
		Sampling:  models.SamplingPolicy{Interval: "1m", Fidelity: 360, Points: 120},
	}
}

type fakeUpstream struct {
	exact    string
	search   string
	history  string
	searches int32
	lookups  int32
}

func (f *fakeUpstream) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/markets":
			if q.Get("slug") != "" {
				atomic.AddInt32(&f.lookups, 1)
				_, _ = w.Write([]byte(f.exact))
				return
			}
			atomic.AddInt32(&f.searches, 1)
			assert.Equal(t, "5", q.Get("_limit"))
			assert.Equal(t, "false", q.Get("closed"))
			assert.Equal(t, "stripe ipo before 2027", q.Get("textSearch"))
			_, _ = w.Write([]byte(f.search))
		case "/prices-history":
			assert.Equal(t, "0xabc", q.Get("market"))
			assert.Equal(t, "1m", q.Get("interval"))
			assert.Equal(t, "360", q.Get("fidelity"))
			_, _ = w.Write([]byte(f.history))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *Client {
	return New(NewGamma(srv.URL, nil), NewClob(srv.URL, nil), fallback.New())
}

func unix(t time.Time) string { return strconv.FormatInt(t.Unix(), 10) }

func TestFetchExactSlugSkipsSearch(t *testing.T) {
	inRange := monthRange.Start.Add(48 * time.Hour)
	before := monthRange.Start.Add(-48 * time.Hour)
	f := &fakeUpstream{
		exact:   `[{"conditionId":"0xabc","slug":"stripe-ipo-before-2027","outcomePrices":"[\"0.25\", \"0.75\"]"}]`,
		history: `{"history":[{"t":` + unix(before) + `,"p":0.1},{"t":` + unix(inRange) + `,"p":0.25}]}`,
	}
	srv := f.server(t)

	s, err := newClient(srv).Fetch(context.Background(), "stripe-ipo-before-2027", monthQuery())
	require.NoError(t, err)
	assert.Equal(t, models.ProvenanceLive, s.Provenance)
	require.Len(t, s.Points, 1)
	assert.Equal(t, inRange, s.Points[0].Timestamp)
	assert.InDelta(t, 25, s.Points[0].Value, 1e-9)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.lookups))
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.searches))
}

func TestFetchFallsBackToTextSearch(t *testing.T) {
	at := monthRange.Start.Add(24 * time.Hour)
	f := &fakeUpstream{
		exact:   `[]`,
		search:  `[{"conditionId":"0xabc","outcomePrices":["0.3","0.7"]}]`,
		history: `{"history":[{"t":` + unix(at) + `,"p":0.3}]}`,
	}
	srv := f.server(t)

	s, err := newClient(srv).Fetch(context.Background(), "stripe-ipo-before-2027", monthQuery())
	require.NoError(t, err)
	require.Len(t, s.Points, 1)
	assert.InDelta(t, 30, s.Points[0].Value, 1e-9)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.searches))
}

func TestFetchInterpolatesFromSnapshot(t *testing.T) {
	f := &fakeUpstream{
		exact:   `[{"conditionId":"0xabc","outcomePrices":"[\"0.62\", \"0.38\"]"}]`,
		history: `{"history":[]}`,
	}
	srv := f.server(t)

	s, err := newClient(srv).Fetch(context.Background(), "stripe-ipo-before-2027", monthQuery())
	require.NoError(t, err)
	assert.Equal(t, models.ProvenanceInterpolated, s.Provenance)
	require.Len(t, s.Points, TrendSteps+1)
	assert.Equal(t, monthRange.Start, s.Points[0].Timestamp)
	assert.InDelta(t, 62, s.Points[len(s.Points)-1].Value, 1e-9)
	for _, p := range s.Points {
		assert.GreaterOrEqual(t, p.Value, 5.0)
		assert.LessOrEqual(t, p.Value, 95.0)
	}
}

func TestFetchNoMarketIsNotFound(t *testing.T) {
	f := &fakeUpstream{exact: `[]`, search: `[]`}
	srv := f.server(t)

	_, err := newClient(srv).Fetch(context.Background(), "stripe-ipo-before-2027", monthQuery())
	se, ok := models.AsSourceError(err)
	require.True(t, ok)
	assert.Equal(t, models.NotFound, se.Kind)
}

func TestFetchNoHistoryNoSnapshotIsNotFound(t *testing.T) {
	f := &fakeUpstream{
		exact:   `[{"conditionId":"0xabc"}]`,
		history: `{"history":[]}`,
	}
	srv := f.server(t)

	_, err := newClient(srv).Fetch(context.Background(), "stripe-ipo-before-2027", monthQuery())
	se, ok := models.AsSourceError(err)
	require.True(t, ok)
	assert.Equal(t, models.NotFound, se.Kind)
}

func TestSnapshotRejectsOutOfRange(t *testing.T) {
	_, ok := Market{OutcomePrices: []byte(`"[\"1.5\"]"`)}.Snapshot()
	assert.False(t, ok)
	_, ok = Market{}.Snapshot()
	assert.False(t, ok)
	v, ok := Market{OutcomePrices: []byte(`["0.05"]`)}.Snapshot()
	assert.True(t, ok)
	assert.InDelta(t, 5, v, 1e-9)
}
