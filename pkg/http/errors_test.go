package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBadToken = errors.New("invalid timeframe: \"2Y\"")

func TestAppErrorConstructors(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
		field  string
	}{
		{RequestError("ERR_INVALID_TIMEFRAME", "tf", errBadToken), http.StatusBadRequest, "tf"},
		{MissingError("ERR_PROXY_NOT_FOUND", "proxy", errBadToken), http.StatusNotFound, "proxy"},
		{UnavailableError("ERR_CANCELLED", "request cancelled", errBadToken), http.StatusServiceUnavailable, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.Status, tc.err.Code)
		assert.Equal(t, tc.field, tc.err.Field, tc.err.Code)
		assert.True(t, errors.Is(tc.err, errBadToken), tc.err.Code)
	}

	assert.Equal(t, errBadToken.Error(), RequestError("X", "tf", errBadToken).Error())
	assert.Equal(t, "request cancelled: "+errBadToken.Error(), UnavailableError("X", "request cancelled", errBadToken).Error())
}

func TestAppErrorResponseWritesStatus(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/series", nil), rec)

	require.NoError(t, AppErrorResponse(c, MissingError("ERR_PROXY_NOT_FOUND", "proxy", errBadToken)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_PROXY_NOT_FOUND")
}
