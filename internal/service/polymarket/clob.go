package polymarket

import (
	"context"
	"strconv"

	"ProxyPull/internal/service/upstream"
	xhttp "ProxyPull/pkg/http"
)

// HistoryPoint is one probability sample: unix seconds and a price in [0,1].
type HistoryPoint struct {
	T int64   `json:"t"`
	P float64 `json:"p"`
}

type historyResponse struct {
	History []HistoryPoint `json:"history"`
}

// HistoryFetcher returns price history for a market condition.
type HistoryFetcher interface {
	History(ctx context.Context, conditionID, interval string, fidelity int) ([]HistoryPoint, error)
}

// Clob queries the order book price history API.
type Clob struct {
	*upstream.Base
}

func NewClob(baseURL string, client *xhttp.Client) *Clob {
	return &Clob{Base: upstream.NewBase(SourceName, baseURL, client)}
}

func (c *Clob) History(ctx context.Context, conditionID, interval string, fidelity int) ([]HistoryPoint, error) {
	query := map[string][]string{
		"market":   {conditionID},
		"interval": {interval},
	}
	if fidelity > 0 {
		query["fidelity"] = []string{strconv.Itoa(fidelity)}
	}

	var resp historyResponse
	if err := c.GetJSON(ctx, "/prices-history", query, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}
