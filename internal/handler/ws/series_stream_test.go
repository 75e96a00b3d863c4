package ws

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ProxyPull/internal/domain/models"
	xlogger "ProxyPull/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedResolver answers "slow" only after release is closed; every other
// proxy resolves at once.
type gatedResolver struct {
	release chan struct{}
	mu      sync.Mutex
	calls   []string
}

func (r *gatedResolver) GetProxySeries(ctx context.Context, id, tf string) (*models.SeriesResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, id)
	r.mu.Unlock()

	if id == "missing" {
		return nil, fmt.Errorf("%w: %s", models.ErrProxyNotFound, id)
	}
	if id == "slow" {
		select {
		case <-r.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	tfv := models.Timeframe(tf)
	if tfv == "" {
		tfv = models.TFYTD
	}
	return &models.SeriesResult{ProxyID: id, Timeframe: tfv, Provenance: models.ProvenanceLive}, nil
}

func (r *gatedResolver) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func dial(t *testing.T, r Resolver) *websocket.Conn {
	t.Helper()
	e := echo.New()
	NewSeriesStreamHandler(xlogger.Nop(), r, WithPingInterval(time.Second)).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/series"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn, wait time.Duration) (models.StreamFrame, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	var f models.StreamFrame
	err := conn.ReadJSON(&f)
	return f, err
}

func TestStaleSelectionIsNotDelivered(t *testing.T) {
	r := &gatedResolver{release: make(chan struct{})}
	conn := dial(t, r)

	require.NoError(t, conn.WriteJSON(models.StreamSelection{ProxyID: "slow", Timeframe: "YTD"}))
	require.Eventually(t, func() bool { return len(r.seen()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, conn.WriteJSON(models.StreamSelection{ProxyID: "amzn", Timeframe: "1M"}))

	f, err := readFrame(t, conn, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "amzn", f.ProxyID)
	assert.Equal(t, "1M", f.Timeframe)
	require.NotNil(t, f.Result)
	assert.Empty(t, f.Error)

	close(r.release)
	_, err = readFrame(t, conn, 300*time.Millisecond)
	assert.Error(t, err, "the superseded selection must not produce a frame")
}

func TestSelectionErrorsAreReported(t *testing.T) {
	conn := dial(t, &gatedResolver{release: make(chan struct{})})

	require.NoError(t, conn.WriteJSON(models.StreamSelection{ProxyID: "missing"}))
	f, err := readFrame(t, conn, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "missing", f.ProxyID)
	assert.Nil(t, f.Result)
	assert.Contains(t, f.Error, "proxy not found")

	require.NoError(t, conn.WriteJSON(models.StreamSelection{ProxyID: "amzn", Timeframe: "5Y"}))
	f, err = readFrame(t, conn, 2*time.Second)
	require.NoError(t, err)
	assert.Contains(t, f.Error, "ERR_ONEOF")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	f, err = readFrame(t, conn, 2*time.Second)
	require.NoError(t, err)
	assert.Contains(t, f.Error, "invalid frame")
}

func TestDefaultTimeframeIsEchoed(t *testing.T) {
	conn := dial(t, &gatedResolver{release: make(chan struct{})})

	require.NoError(t, conn.WriteJSON(models.StreamSelection{ProxyID: "amzn"}))
	f, err := readFrame(t, conn, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "YTD", f.Timeframe)
	require.NotNil(t, f.Result)
}
