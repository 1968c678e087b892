package domain

import "time"

// AuditLog records every significant action in the system for compliance.
type AuditLog struct {
	ID         int64     `json:"id"          db:"id"`
	IdentityID string    `json:"identity_id" db:"identity_id"`
	Action     string    `json:"action"      db:"action"`
	Resource   string    `json:"resource"    db:"resource"`
	Details    string    `json:"details"     db:"details"` // JSON blob
	IP         string    `json:"ip"          db:"ip"`
	UserAgent  string    `json:"user_agent"  db:"user_agent"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// Audit action constants.
const (
	AuditActionHTTPRequest = "http_request"
	AuditActionLogin       = "login"
	AuditActionLogout      = "logout"
	AuditActionRegister    = "register"
	AuditActionDocument    = "document"
	AuditActionRating      = "rating"
)
