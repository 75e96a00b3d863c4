package yahoo

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"ProxyPull/internal/domain/models"
	"ProxyPull/internal/service/upstream"
	"ProxyPull/internal/services/normalizer"
	xhttp "ProxyPull/pkg/http"
	"ProxyPull/pkg/util"
)

const SourceName = "yahoo"

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// forwardedPoint is the pre-normalized shape served by the same-origin
// forwarding endpoint.
type forwardedPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// Client fetches daily or weekly closes from the chart API.
type Client struct {
	*upstream.Base
}

func New(baseURL string, client *xhttp.Client) *Client {
	return &Client{Base: upstream.NewBase(SourceName, baseURL, client)}
}

// Fetch returns closes of ticker within q.Range.
func (c *Client) Fetch(ctx context.Context, ticker string, q models.SeriesQuery) (models.Series, error) {
	if ticker == "" {
		return models.Series{}, c.NotFound("empty ticker")
	}
	rng := RangeFor(q)
	query := map[string][]string{
		"range":    {rng},
		"interval": {IntervalFor(q, rng)},
	}

	var raw json.RawMessage
	if err := c.GetJSON(ctx, "/v8/finance/chart/"+url.PathEscape(ticker), query, &raw); err != nil {
		return models.Series{}, err
	}

	points, err := c.parse(raw)
	if err != nil {
		return models.Series{}, err
	}
	points = normalizer.TrimToRange(normalizer.SortPoints(points), q.Range)
	if len(points) == 0 {
		return models.Series{}, c.NotFound("no closes for %s in range", ticker)
	}
	return models.Series{Points: points, Provenance: models.ProvenanceLive}, nil
}

func (c *Client) parse(raw json.RawMessage) ([]models.DataPoint, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return c.parseForwarded(trimmed)
	}

	var resp chartResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, c.Malformed("decode chart: %v", err)
	}
	if len(resp.Chart.Result) == 0 {
		if resp.Chart.Error != nil {
			return nil, c.NotFound("%s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
		}
		return nil, c.Malformed("chart has no result")
	}

	res := resp.Chart.Result[0]
	if res.Timestamp == nil || len(res.Indicators.Quote) == 0 || res.Indicators.Quote[0].Close == nil {
		return nil, c.Malformed("missing timestamp or close arrays")
	}
	closes := res.Indicators.Quote[0].Close

	n := len(res.Timestamp)
	if len(closes) < n {
		n = len(closes)
	}
	out := make([]models.DataPoint, 0, n)
	for i := 0; i < n; i++ {
		if closes[i] == nil || !normalizer.IsFinite(*closes[i]) {
			continue
		}
		out = append(out, models.DataPoint{Timestamp: unixUTC(res.Timestamp[i]), Value: *closes[i]})
	}
	return out, nil
}

func (c *Client) parseForwarded(raw []byte) ([]models.DataPoint, error) {
	var rows []forwardedPoint
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, c.Malformed("decode forwarded series: %v", err)
	}
	out := make([]models.DataPoint, 0, len(rows))
	for _, r := range rows {
		if r.Value == nil || !normalizer.IsFinite(*r.Value) {
			continue
		}
		ts, ok := util.ParseTime(r.Date)
		if !ok {
			continue
		}
		out = append(out, models.DataPoint{Timestamp: ts.UTC(), Value: *r.Value})
	}
	return out, nil
}
