package models

import "time"

// AuditAction is the pipeline action an audit entry describes.
type AuditAction string

const (
	ActionIngest   AuditAction = "ingest"
	ActionScore    AuditAction = "score"
	ActionFreeze   AuditAction = "freeze"
	ActionUnfreeze AuditAction = "unfreeze"
)

// AuditEntry is one line of audit.log. Entries are never updated.
type AuditEntry struct {
	ID        string      `json:"id"`
	Action    AuditAction `json:"action"`
	ChildID   string      `json:"childId"`
	ParentID  string      `json:"parentId,omitempty"`
	MessageID string      `json:"messageId,omitempty"`
	RiskScore *int        `json:"riskScore,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	IPAddress string      `json:"ipAddress,omitempty"`
	UserAgent string      `json:"userAgent,omitempty"`
}

// ScoreLogEntry is one line of scores.log.
type ScoreLogEntry struct {
	MessageID string    `json:"messageId"`
	ChildID   string    `json:"childId"`
	Score     int       `json:"score"`
	RiskLevel RiskTier  `json:"riskLevel"`
	Flags     []string  `json:"flags"`
	Timestamp time.Time `json:"timestamp"`
}

// RequestOrigin carries caller metadata copied into audit entries.
type RequestOrigin struct {
	IPAddress string
	UserAgent string
}
