package api

import (
	"context"
	"errors"

	"ProxyPull/internal/domain/models"
	xhttp "ProxyPull/pkg/http"
)

// toAppError maps use case errors onto HTTP statuses. Source failures
// never get here; the use cases replace them with synthetic data.
func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrProxyNotFound):
		return xhttp.MissingError("ERR_PROXY_NOT_FOUND", "proxy", err)
	case errors.Is(err, models.ErrInvalidTimeframe):
		return xhttp.RequestError("ERR_INVALID_TIMEFRAME", "tf", err)
	case errors.Is(err, models.ErrUnknownKind):
		return xhttp.RequestError("ERR_UNKNOWN_KIND", "kind", err)
	case errors.Is(err, models.ErrMissingIdentifier):
		return xhttp.RequestError("ERR_MISSING_IDENTIFIER", "identifier", err)
	case errors.Is(err, models.ErrNotNumeric), errors.Is(err, models.ErrNotNews):
		return xhttp.RequestError("ERR_WRONG_ENDPOINT", "proxy", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return xhttp.UnavailableError("ERR_CANCELLED", "request cancelled", err)
	default:
		return xhttp.InternalError("unexpected error").WithError(err)
	}
}
