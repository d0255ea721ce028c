package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"authentication_api/internal/models"
	"authentication_api/internal/service"

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
	defaultBacklog   = 15 * time.Minute
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // bearer auth already ran
}

// auditCursor tracks the newest event delivered so that polling with an
// inclusive lower bound never repeats an event.
type auditCursor struct {
	since time.Time
	seen  map[string]struct{} // ids of delivered events at exactly since
}

func newAuditCursor(since time.Time) *auditCursor {
	return &auditCursor{since: since.UTC(), seen: map[string]struct{}{}}
}

// advance filters out already delivered events and moves the cursor.
// events must be ordered oldest first.
func (cur *auditCursor) advance(events []models.AuditEvent) []models.AuditEvent {
	fresh := make([]models.AuditEvent, 0, len(events))
	for _, e := range events {
		if e.OccurredAt.Before(cur.since) {
			continue
		}
		if _, dup := cur.seen[e.EventID]; dup && e.OccurredAt.Equal(cur.since) {
			continue
		}
		fresh = append(fresh, e)
	}
	for _, e := range fresh {
		if e.OccurredAt.After(cur.since) {
			cur.since = e.OccurredAt
			cur.seen = map[string]struct{}{}
		}
		cur.seen[e.EventID] = struct{}{}
	}
	return fresh
}

// @Summary      Stream audit events
// @Description  WebSocket. Sends events from the last 15 minutes (or ?since=RFC3339), then new events every ?interval (max 10s).
// @Tags         audit
// @Param        type      query  string  false  "Event type"
// @Param        since     query  string  false  "Backlog start (RFC3339)"
// @Param        interval  query  string  false  "Poll interval, e.g. 2s"
// @Router       /api/v1/audit/ws [get]
// @Security     BearerAuth
func (h *Handler) auditStream(c *gin.Context) {
	interval := h.parseInterval(c)
	cursor := newAuditCursor(parseSince(c))
	eventType := strings.ToUpper(strings.TrimSpace(c.Query("type")))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()
	if err := h.sendEvents(ctx, conn, cursor, eventType, true); err != nil {
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
			if err := h.sendEvents(ctx, conn, cursor, eventType, false); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
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
	return defaultInterval
}

// parseSince reads ?since; anything unparsable falls back to the default backlog.
func parseSince(c *gin.Context) time.Time {
	if s := c.Query("since"); s != "" {
		if t, err := parseQueryTime(s); err == nil {
			return t
		}
	}
	return time.Now().Add(-defaultBacklog)
}

// startReader drains incoming messages to handle control frames and detect closure.
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

// sendEvents writes events newer than the cursor. Empty batches are only
// written on the initial send.
func (h *Handler) sendEvents(ctx context.Context, conn *websocket.Conn, cursor *auditCursor, eventType string, initial bool) error {
	events, err := h.services.ListEvents(ctx, service.AuditFilter{From: cursor.since, Type: eventType})
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_list_events_failed", "err", err)
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(wsEnvelope{Type: "error", Error: "failed to load audit events"})
		return err
	}

	fresh := cursor.advance(events)
	if len(fresh) == 0 && !initial {
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: "events", Data: fresh})
}
