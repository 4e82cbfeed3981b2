package models

// IngestRequest is the body of POST /ingest.
type IngestRequest struct {
	ChildID          string `json:"childId"`
	EncryptedPayload string `json:"encryptedPayload"`
	DeviceID         string `json:"deviceId,omitempty"`
	Signature        string `json:"signature,omitempty"`
}

// IngestResponse is returned by a successful ingest.
type IngestResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"messageId"`
	Frozen    bool   `json:"frozen"`
}

// ScoreRequest is the body of POST /score.
type ScoreRequest struct {
	ChildID          string `json:"childId"`
	EncryptedPayload string `json:"encryptedPayload"`
	MessageID        string `json:"messageId,omitempty"`
	Signature        string `json:"signature,omitempty"`
}

// ScoreResponse is returned by a successful score.
type ScoreResponse struct {
	Status      string   `json:"status"`
	Score       int      `json:"score"`
	RiskLevel   RiskTier `json:"riskLevel"`
	Flagged     bool     `json:"flagged"`
	Flags       []string `json:"flags"`
	Explanation string   `json:"explanation"`
	MessageID   string   `json:"messageId"`
	AutoFrozen  bool     `json:"autoFrozen"`
}

// FreezeRequest is the body of POST /freeze.
type FreezeRequest struct {
	ChildID  string `json:"childId"`
	ParentID string `json:"parentId,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// UnfreezeRequest is the body of POST /unfreeze.
type UnfreezeRequest struct {
	ChildID  string `json:"childId"`
	ParentID string `json:"parentId,omitempty"`
}

// FreezeResponse reports a child's freeze state. Timestamp is Unix milliseconds.
type FreezeResponse struct {
	Status    string `json:"status"`
	Frozen    bool   `json:"frozen"`
	ChildID   string `json:"childId"`
	Reason    string `json:"reason,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
}
