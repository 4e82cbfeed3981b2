package models

import "time"

const (
	// SystemActor is recorded when no human actor is known.
	SystemActor = "system"

	DefaultFreezeReason = "Frozen by parent"
	AutoFreezeReason    = "auto: critical threat"
)

// FreezeRecord is the current freeze state of one child.
// Reason, SetAt and SetBy are zero for a child that was never touched.
type FreezeRecord struct {
	ChildID string    `json:"childId"`
	Frozen  bool      `json:"frozen"`
	Reason  string    `json:"reason,omitempty"`
	SetAt   time.Time `json:"setAt"`
	SetBy   string    `json:"setBy,omitempty"`
}
