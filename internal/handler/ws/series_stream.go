package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"ProxyPull/internal/domain/models"
	"ProxyPull/internal/service/metrics"
	xhttp "ProxyPull/pkg/http"
	xlogger "ProxyPull/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Resolver resolves one catalog proxy selection.
type Resolver interface {
	GetProxySeries(ctx context.Context, proxyID, tf string) (*models.SeriesResult, error)
}

// Option configures SeriesStreamHandler.
type Option func(*SeriesStreamHandler)

// WithPingInterval sets the keepalive ping period. The peer must answer
// within twice the interval.
func WithPingInterval(d time.Duration) Option {
	return func(h *SeriesStreamHandler) { h.pingInterval = d }
}

// WithAllowedOrigins restricts the upgrade to the given origins. "*" or an
// empty list accepts any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *SeriesStreamHandler) {
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			if o == "*" {
				return
			}
			allowed[o] = true
		}
		if len(allowed) == 0 {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			return allowed[r.Header.Get("Origin")]
		}
	}
}

// SeriesStreamHandler serves /ws/series. A viewer sends its current
// selection; every selection is resolved in the background and only the
// result of the latest selection is written back.
type SeriesStreamHandler struct {
	series       Resolver
	log          *xlogger.Logger
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	writeWait    time.Duration
	maxMessage   int64
}

func NewSeriesStreamHandler(log *xlogger.Logger, series Resolver, opts ...Option) *SeriesStreamHandler {
	metrics.Register()
	h := &SeriesStreamHandler{
		series:       series,
		log:          log,
		pingInterval: 30 * time.Second,
		writeWait:    10 * time.Second,
		maxMessage:   4 << 10,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 << 10,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *SeriesStreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/series", h.Serve)
}

func (h *SeriesStreamHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already replied
		h.log.Debug("ws upgrade failed", xlogger.Error(err))
		return nil
	}

	s := &session{
		id:      uuid.NewString(),
		handler: h,
		conn:    conn,
		out:     make(chan outFrame, 4),
	}
	metrics.StreamSessions.Inc()
	defer metrics.StreamSessions.Dec()
	h.log.Debug("ws session opened", xlogger.String("session", s.id), xlogger.String("remote", c.RealIP()))

	s.run(context.WithoutCancel(c.Request().Context()))

	h.log.Debug("ws session closed", xlogger.String("session", s.id))
	return nil
}

type outFrame struct {
	gen   uint64
	frame models.StreamFrame
}

type session struct {
	id      string
	handler *SeriesStreamHandler
	conn    *websocket.Conn
	out     chan outFrame

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	pending sync.WaitGroup
}

func (s *session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop(ctx)
	}()

	s.readLoop(ctx)
	cancel()
	s.pending.Wait()
	<-done
	_ = s.conn.Close()
}

func (s *session) readLoop(ctx context.Context) {
	h := s.handler
	s.conn.SetReadLimit(h.maxMessage)
	_ = s.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("ws read ended", xlogger.String("session", s.id), xlogger.Error(err))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))

		var sel models.StreamSelection
		if err := json.Unmarshal(data, &sel); err != nil {
			s.reject(ctx, sel, "invalid frame: "+err.Error())
			continue
		}
		if verr := xhttp.Validate(ctx, &sel); verr != nil {
			b, _ := json.Marshal(verr)
			s.reject(ctx, sel, string(b))
			continue
		}
		s.selectSeries(ctx, sel)
	}
}

// selectSeries makes sel the current selection and resolves it. The
// previous resolution loses its caller; its fetch still completes into the
// cache.
func (s *session) selectSeries(ctx context.Context, sel models.StreamSelection) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()

		res, err := s.handler.series.GetProxySeries(rctx, sel.ProxyID, sel.Timeframe)
		frame := models.StreamFrame{ProxyID: sel.ProxyID, Timeframe: sel.Timeframe, Result: res}
		if err != nil {
			if errors.Is(err, context.Canceled) && !s.isCurrent(gen) {
				metrics.StreamFrames.WithLabelValues("stale").Inc()
				return
			}
			frame.Result = nil
			frame.Error = err.Error()
		}
		if res != nil && frame.Timeframe == "" {
			frame.Timeframe = string(res.Timeframe)
		}
		s.send(ctx, gen, frame)
	}()
}

// reject answers an unusable client frame. It does not change the current
// selection.
func (s *session) reject(ctx context.Context, sel models.StreamSelection, msg string) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	s.send(ctx, gen, models.StreamFrame{ProxyID: sel.ProxyID, Timeframe: sel.Timeframe, Error: msg})
}

func (s *session) send(ctx context.Context, gen uint64, f models.StreamFrame) {
	if !s.isCurrent(gen) {
		metrics.StreamFrames.WithLabelValues("stale").Inc()
		return
	}
	select {
	case s.out <- outFrame{gen: gen, frame: f}:
	case <-ctx.Done():
	}
}

func (s *session) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen
}

func (s *session) writeLoop(ctx context.Context) {
	h := s.handler
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = s.conn.Close()
				return
			}
		case of := <-s.out:
			// a newer selection may have arrived while this frame was queued
			if !s.isCurrent(of.gen) {
				metrics.StreamFrames.WithLabelValues("stale").Inc()
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := s.conn.WriteJSON(of.frame); err != nil {
				h.log.Debug("ws write failed", xlogger.String("session", s.id), xlogger.Error(err))
				_ = s.conn.Close()
				return
			}
			outcome := "sent"
			if of.frame.Error != "" {
				outcome = "error"
			}
			metrics.StreamFrames.WithLabelValues(outcome).Inc()
		}
	}
}
