package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"authentication_api/internal/models"
	"authentication_api/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339, 'YYYY-MM-DD HH:MM:SS' or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339, 'YYYY-MM-DD HH:MM:SS' or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

type auditEventsResponse struct {
	Count  int                 `json:"count"`
	Events []models.AuditEvent `json:"events"`
}

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// parseAuditFilter reads from/to/type query parameters. A date-only 'to' is
// the end of that day, inclusive.
func parseAuditFilter(c *gin.Context) (service.AuditFilter, string) {
	var f service.AuditFilter
	f.Type = strings.ToUpper(strings.TrimSpace(c.Query("type")))

	if qs := c.Query("from"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			return f, errFromInvalid
		}
		f.From = t
	}
	if qs := c.Query("to"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			return f, errToInvalid
		}
		if isDateOnly(qs) {
			t = t.Add(24*time.Hour - time.Nanosecond).UTC()
		}
		f.To = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, "'from' must be <= 'to'"
	}
	return f, ""
}

// @Summary      List audit events
// @Description  Filter by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). If 'to' is date-only, it is treated as end-of-day inclusive.
// @Tags         audit
// @Produce      json
// @Param        from  query     string  false  "Start of range"  example(2025-08-01)
// @Param        to    query     string  false  "End of range. Date-only treated as end of day."  example(2025-08-31)
// @Param        type  query     string  false  "Event type"  Enums(USER_CREATED,USER_UPDATED,USER_DELETED,LOGIN_SUCCEEDED,LOGIN_FAILED,TOKEN_ISSUED)
// @Success      200   {object}  auditEventsResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/v1/audit [get]
// @Security     BearerAuth
func (h *Handler) getAuditEvents(c *gin.Context) {
	f, msg := parseAuditFilter(c)
	if msg != "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
		return
	}

	events, err := h.services.ListEvents(c.Request.Context(), f)
	if err != nil {
		h.writeServiceError(c, "audit_list_failed", err, "from", f.From, "to", f.To, "type", f.Type)
		return
	}
	c.JSON(http.StatusOK, auditEventsResponse{Count: len(events), Events: events})
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
