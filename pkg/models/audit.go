package models

import "time"

// AuditEntry records a single API request.
type AuditEntry struct {
	ID             int64     `json:"id"`
	RequestID      string    `json:"request_id"`
	Timestamp      time.Time `json:"timestamp"`
	UserEmail      string    `json:"user_email,omitempty"`
	Operation      string    `json:"operation"`
	Path           string    `json:"path"`
	ResponseCode   int       `json:"response_code"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	ClientIP       string    `json:"client_ip"`
}
