package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ProxyPull/internal/domain/models"
	xhttp "ProxyPull/pkg/http"
)

// Base is the shared foundation of the source adapters: one named source,
// one base URL, one client, and classification of every failure into a
// *models.SourceError.
type Base struct {
	name    string
	baseURL string
	client  *xhttp.Client
}

func NewBase(name, baseURL string, client *xhttp.Client) *Base {
	if client == nil {
		client = xhttp.NewClient()
	}
	return &Base{name: name, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Name returns the source name used in errors, metrics and cache keys.
func (b *Base) Name() string { return b.name }

// URL joins path onto the base URL.
func (b *Base) URL(path string) string {
	if path == "" {
		return b.baseURL
	}
	return b.baseURL + "/" + strings.TrimLeft(path, "/")
}

// GetJSON issues a GET under the base URL and decodes JSON into dest.
func (b *Base) GetJSON(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.URL(path),
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: query,
	}, dest); err != nil {
		return b.Classify(fmt.Errorf("get %s: %w", path, err))
	}
	return nil
}

// GetBytes issues a GET under the base URL and returns the raw body.
func (b *Base) GetBytes(ctx context.Context, path string, query map[string][]string) ([]byte, error) {
	var body []byte
	if err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.URL(path),
		QueryParams: query,
	}, &body); err != nil {
		return nil, b.Classify(fmt.Errorf("get %s: %w", path, err))
	}
	return body, nil
}

// Classify maps a transport failure onto the source error taxonomy.
func (b *Base) Classify(err error) *models.SourceError {
	if se, ok := models.AsSourceError(err); ok {
		return se
	}

	var status *xhttp.StatusError
	if errors.As(err, &status) {
		switch status.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return models.NewSourceError(b.name, models.Unauthorized, err)
		case http.StatusNotFound:
			return models.NewSourceError(b.name, models.NotFound, err)
		default:
			return models.NewSourceError(b.name, models.Unavailable, err)
		}
	}

	var decode *xhttp.DecodeError
	if errors.As(err, &decode) {
		return models.NewSourceError(b.name, models.MalformedResponse, err)
	}

	// network failure, timeout, open breaker, rate limiter wait
	return models.NewSourceError(b.name, models.Unavailable, err)
}

// Malformed builds a MalformedResponse error for this source.
func (b *Base) Malformed(format string, a ...interface{}) *models.SourceError {
	return models.SourceErrorf(b.name, models.MalformedResponse, format, a...)
}

// NotFound builds a NotFound error for this source.
func (b *Base) NotFound(format string, a ...interface{}) *models.SourceError {
	return models.SourceErrorf(b.name, models.NotFound, format, a...)
}
