package models

import "time"

// Audit event types.
const (
	EventUserCreated    = "USER_CREATED"
	EventUserUpdated    = "USER_UPDATED"
	EventUserDeleted    = "USER_DELETED"
	EventLoginSucceeded = "LOGIN_SUCCEEDED"
	EventLoginFailed    = "LOGIN_FAILED"
	EventTokenIssued    = "TOKEN_ISSUED"
)

// AuditEvent is a single entry of the directory's append-only audit log.
type AuditEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`              // USER_CREATED | USER_UPDATED | ...
	UserID      int64     `json:"user_id,omitempty"` // 0 when the subject is unknown
	Username    string    `json:"username,omitempty"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
