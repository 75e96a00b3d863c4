package fred

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"ProxyPull/internal/domain/models"
	"ProxyPull/internal/service/upstream"
	"ProxyPull/internal/services/normalizer"
	xhttp "ProxyPull/pkg/http"
	"ProxyPull/pkg/util"
)

const SourceName = "fred"

// Mode selects the upstream shape.
type Mode string

const (
	// ModeAPI uses the keyed JSON observations endpoint.
	ModeAPI Mode = "api"
	// ModeCSV uses the public graph CSV export through a forwarding endpoint.
	ModeCSV Mode = "csv"
)

type observationsResponse struct {
	Observations *[]observation `json:"observations"`
}

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// Option configures Client.
type Option func(*Client)

// WithAPIKey sets the credential required by ModeAPI.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithMode sets the upstream mode.
func WithMode(m Mode) Option {
	return func(c *Client) {
		if m != "" {
			c.mode = m
		}
	}
}

// Client fetches economic series observations.
type Client struct {
	*upstream.Base
	apiKey string
	mode   Mode
}

func New(baseURL string, client *xhttp.Client, opts ...Option) *Client {
	c := &Client{Base: upstream.NewBase(SourceName, baseURL, client), mode: ModeAPI}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the observations of series within q.Range, transformed by
// q.Transform when set. Missing-value placeholders are dropped.
func (c *Client) Fetch(ctx context.Context, series string, q models.SeriesQuery) (models.Series, error) {
	if series == "" {
		return models.Series{}, c.NotFound("empty series code")
	}

	var (
		points []models.DataPoint
		err    error
	)
	if c.mode == ModeCSV {
		points, err = c.fetchCSV(ctx, series, q)
	} else {
		points, err = c.fetchAPI(ctx, series, q)
	}
	if err != nil {
		return models.Series{}, err
	}

	points = normalizer.TrimToRange(normalizer.SortPoints(points), q.Range)
	if len(points) == 0 {
		return models.Series{}, c.NotFound("no observations for %s in range", series)
	}
	return models.Series{Points: points, Provenance: models.ProvenanceLive}, nil
}

func (c *Client) fetchAPI(ctx context.Context, series string, q models.SeriesQuery) ([]models.DataPoint, error) {
	if c.apiKey == "" {
		return nil, models.SourceErrorf(SourceName, models.Unauthorized, "api key not configured")
	}
	query := map[string][]string{
		"series_id":         {series},
		"api_key":           {c.apiKey},
		"file_type":         {"json"},
		"observation_start": {util.FormatDate(q.Range.Start)},
		"observation_end":   {util.FormatDate(q.Range.End)},
	}
	if q.Transform != "" {
		query["units"] = []string{q.Transform}
	}

	var resp observationsResponse
	if err := c.GetJSON(ctx, "/fred/series/observations", query, &resp); err != nil {
		return nil, err
	}
	if resp.Observations == nil {
		return nil, c.Malformed("missing observations")
	}

	out := make([]models.DataPoint, 0, len(*resp.Observations))
	for _, o := range *resp.Observations {
		if p, ok := toPoint(o.Date, o.Value); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *Client) fetchCSV(ctx context.Context, series string, q models.SeriesQuery) ([]models.DataPoint, error) {
	query := map[string][]string{
		"id":   {series},
		"cosd": {util.FormatDate(q.Range.Start)},
		"coed": {util.FormatDate(q.Range.End)},
	}
	if q.Transform != "" {
		query["transformation"] = []string{q.Transform}
	}

	body, err := c.GetBytes(ctx, "/graph/fredgraph.csv", query)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil || len(header) < 2 {
		return nil, c.Malformed("csv header missing")
	}
	if !strings.Contains(strings.ToLower(header[0]), "date") {
		return nil, c.Malformed("unexpected csv header %q", strings.Join(header, ","))
	}

	var out []models.DataPoint
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, c.Malformed("read csv: %v", err)
		}
		if len(rec) < 2 {
			continue
		}
		if p, ok := toPoint(rec[0], rec[1]); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func toPoint(date, value string) (models.DataPoint, bool) {
	v, ok := util.ParseFinite(value)
	if !ok {
		return models.DataPoint{}, false
	}
	ts, ok := util.ParseTime(strings.TrimSpace(date))
	if !ok {
		return models.DataPoint{}, false
	}
	return models.DataPoint{Timestamp: ts.UTC(), Value: v}, true
}
