package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndParseRetriesTemporaryStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "proxypull-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(WithRetry(3, time.Millisecond), WithHeader("User-Agent", "proxypull-test"))
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSendAndParseDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithRetry(3, time.Millisecond))
	err := c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.False(t, se.Temporary())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSendAndParseDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, &out)
	var de *DecodeError
	assert.True(t, errors.As(err, &de))
}

func TestSendAndParseRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte("DATE,VALUE\n"))
	}))
	defer srv.Close()

	var body []byte
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         srv.URL,
		QueryParams: map[string][]string{"q": {"a"}},
	}, &body)
	require.NoError(t, err)
	assert.Equal(t, "DATE,VALUE\n", string(body))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(WithBreaker("test", 2, time.Minute))
	opts := &RequestOptions{Method: MethodGet, URL: srv.URL}
	for i := 0; i < 2; i++ {
		err := c.SendAndParse(context.Background(), opts, nil)
		var se *StatusError
		require.True(t, errors.As(err, &se))
	}

	err := c.SendAndParse(context.Background(), opts, nil)
	assert.True(t, IsCircuitOpen(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithBreaker("test", 1, time.Minute))
	for i := 0; i < 3; i++ {
		err := c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
		assert.False(t, IsCircuitOpen(err))
	}
}

func TestHostLimiterPerHost(t *testing.T) {
	l := NewHostLimiter(0.001, 1)
	assert.True(t, l.Allow("a.example"))
	assert.False(t, l.Allow("a.example"))
	assert.True(t, l.Allow("b.example"))
}
