package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"blog_api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms

	// streamLookback re-reads recent events so ones committed late with an
	// earlier timestamp are still delivered; already sent ids are skipped.
	streamLookback = 2 * time.Second
	streamBatch    = 500

	envelopeActivity = "activity"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConnect streams activity events. The first message carries everything
// after ?since= (default: connect time); later ticks send only events not
// delivered before.
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)
	cursor := newActivityCursor(parseSince(c))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()
	if err := h.sendActivity(ctx, conn, cursor, true); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.sendActivity(ctx, conn, cursor, false); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// Helper: parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	interval := defaultInterval

	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return interval
}

// parseSince reads ?since= in any format the activity endpoint accepts,
// falling back to the current time.
func parseSince(c *gin.Context) time.Time {
	if s := c.Query("since"); s != "" {
		if t, err := parseQueryTime(s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

// Helper: startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// activityCursor tracks what a stream has delivered. Events are fetched from
// slightly before the newest one sent, never before the requested start.
type activityCursor struct {
	floor  time.Time
	latest time.Time
	sent   map[string]time.Time
}

func newActivityCursor(since time.Time) *activityCursor {
	return &activityCursor{floor: since, latest: since, sent: make(map[string]time.Time)}
}

func (c *activityCursor) from() time.Time {
	if from := c.latest.Add(-streamLookback); from.After(c.floor) {
		return from
	}
	return c.floor
}

// take returns the events not delivered yet and records them.
func (c *activityCursor) take(events []models.PostEvent) []models.PostEvent {
	fresh := make([]models.PostEvent, 0, len(events))
	for _, e := range events {
		if _, dup := c.sent[e.EventID]; dup {
			continue
		}
		c.sent[e.EventID] = e.OccurredAt
		if e.OccurredAt.After(c.latest) {
			c.latest = e.OccurredAt
		}
		fresh = append(fresh, e)
	}

	horizon := c.latest.Add(-streamLookback)
	for id, at := range c.sent {
		if at.Before(horizon) {
			delete(c.sent, id)
		}
	}
	return fresh
}

// Helper: sendActivity writes events the cursor has not delivered yet.
// Empty batches are only written when always is set.
func (h *Handler) sendActivity(ctx context.Context, conn *websocket.Conn, cursor *activityCursor, always bool) error {
	events, err := h.services.EventLog.Since(ctx, cursor.from(), streamBatch)
	if err == nil && len(events) >= streamBatch {
		// a full window of repeats would stall the stream; read past it
		if fresh := cursor.take(events); len(fresh) > 0 {
			return writeActivity(conn, fresh)
		}
		events, err = h.services.EventLog.Since(ctx, cursor.latest, streamBatch)
	}
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_list_activity_failed", "err", err)
		}
		return err
	}

	fresh := cursor.take(events)
	if len(fresh) == 0 && !always {
		return nil
	}
	return writeActivity(conn, fresh)
}

func writeActivity(conn *websocket.Conn, events []models.PostEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: envelopeActivity, Data: events})
}
