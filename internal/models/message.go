package models

import "time"

// Message is one decoded communication from a monitored child.
type Message struct {
	ID         string    `json:"messageId"`
	ChildID    string    `json:"childId"`
	DeviceID   string    `json:"deviceId,omitempty"`
	Content    string    `json:"content"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// RiskTier is the ordinal bucket derived from a numeric score.
type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskMedium   RiskTier = "medium"
	RiskHigh     RiskTier = "high"
	RiskCritical RiskTier = "critical"
)

// ScoringResult is the output of evaluating a message. Score is 0-100,
// Confidence is 0-1 and Flags holds the deduplicated matched phrases.
type ScoringResult struct {
	Score      int      `json:"score"`
	RiskTier   RiskTier `json:"riskLevel"`
	Flags      []string `json:"flags"`
	Confidence float64  `json:"confidence"`
}
