package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vigilance-engine/internal/audit"
	"vigilance-engine/internal/clock"
	"vigilance-engine/internal/crypto"
	"vigilance-engine/internal/models"
	"vigilance-engine/internal/repository"
	"vigilance-engine/internal/scorer"
)

// ErrInternal marks failures that are not the caller's fault.
var ErrInternal = errors.New("internal error")

const (
	DefaultRecentLimit = 100
	MaxRecentLimit     = 1000
)

// PipelineService sequences codec, scorer, freeze ledger and audit trail
// for every external operation.
type PipelineService interface {
	Ingest(req models.IngestRequest, origin models.RequestOrigin) (*IngestResult, error)
	Score(req models.ScoreRequest, origin models.RequestOrigin) (*ScoreOutcome, error)
	Freeze(req models.FreezeRequest, origin models.RequestOrigin) (*models.FreezeRecord, error)
	Unfreeze(req models.UnfreezeRequest, origin models.RequestOrigin) (*models.FreezeRecord, error)
	Status(childID string) (*models.FreezeRecord, error)
	RecentAudit(limit int) []models.AuditEntry
	RecentScores(limit int) []models.ScoreLogEntry
}

// IngestResult is the outcome of a successful ingest.
type IngestResult struct {
	MessageID string
	Frozen    bool
}

// ScoreOutcome is a scoring result plus the fields derived from policy.
type ScoreOutcome struct {
	models.ScoringResult
	MessageID   string
	Flagged     bool
	Explanation string
	AutoFrozen  bool
}

// Policy holds the thresholds applied to a score.
type Policy struct {
	FlagThreshold       int
	AutoFreezeThreshold int
}

// DefaultPolicy flags at 50 and auto-freezes at 90.
var DefaultPolicy = Policy{FlagThreshold: 50, AutoFreezeThreshold: 90}

// Dependencies are the collaborators a pipeline is built from.
type Dependencies struct {
	Codec    *crypto.PayloadCodec
	Scorer   scorer.Scorer
	Freezes  repository.FreezeRepository
	Messages repository.MessageRepository
	Recorder audit.Recorder
	Clock    clock.Clock
	Logger   *zap.Logger
	// NewID generates message and audit ids; defaults to random UUIDs.
	NewID func() string
}

type pipelineService struct {
	codec    *crypto.PayloadCodec
	scorer   scorer.Scorer
	freezes  repository.FreezeRepository
	messages repository.MessageRepository
	recorder audit.Recorder
	clock    clock.Clock
	newID    func() string
	policy   Policy
	verbose  bool
	logger   *zap.Logger
}

// NewPipelineService builds the orchestrator. verbose promotes per-action
// trace logs from debug to info.
func NewPipelineService(deps Dependencies, policy Policy, verbose bool) PipelineService {
	newID := deps.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewMonotonic(nil)
	}
	return &pipelineService{
		codec:    deps.Codec,
		scorer:   deps.Scorer,
		freezes:  deps.Freezes,
		messages: deps.Messages,
		recorder: deps.Recorder,
		clock:    clk,
		newID:    newID,
		policy:   policy,
		verbose:  verbose,
		logger:   deps.Logger,
	}
}

func (s *pipelineService) Ingest(req models.IngestRequest, origin models.RequestOrigin) (*IngestResult, error) {
	content, err := s.open(req.ChildID, req.EncryptedPayload, req.Signature)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:         s.newID(),
		ChildID:    req.ChildID,
		DeviceID:   req.DeviceID,
		Content:    content,
		ReceivedAt: s.clock.Now(),
	}
	if err := s.messages.Save(msg); err != nil {
		s.logger.Error("Failed to store message", zap.String("message_id", msg.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to store message: %v", ErrInternal, err)
	}

	s.recorder.Record(models.AuditEntry{
		ID:        s.newID(),
		Action:    models.ActionIngest,
		ChildID:   msg.ChildID,
		MessageID: msg.ID,
		Timestamp: msg.ReceivedAt,
		IPAddress: origin.IPAddress,
		UserAgent: origin.UserAgent,
	})

	status, err := s.freezes.Status(msg.ChildID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read freeze state: %v", ErrInternal, err)
	}

	s.trace("Message ingested",
		zap.String("child_id", msg.ChildID),
		zap.String("message_id", msg.ID),
		zap.String("device_id", msg.DeviceID),
		zap.Bool("frozen", status.Frozen))

	return &IngestResult{MessageID: msg.ID, Frozen: status.Frozen}, nil
}

func (s *pipelineService) Score(req models.ScoreRequest, origin models.RequestOrigin) (*ScoreOutcome, error) {
	content, err := s.open(req.ChildID, req.EncryptedPayload, req.Signature)
	if err != nil {
		return nil, err
	}

	result := s.scorer.Score(content)

	messageID := req.MessageID
	if messageID == "" {
		messageID = s.newID()
	} else if prior, err := s.messages.GetByID(messageID); err == nil {
		s.logger.Debug("Scoring previously ingested message",
			zap.String("message_id", messageID),
			zap.Bool("same_child", prior.ChildID == req.ChildID))
	}

	now := s.clock.Now()
	s.recorder.RecordScoringEvent(models.ScoreLogEntry{
		MessageID: messageID,
		ChildID:   req.ChildID,
		Score:     result.Score,
		RiskLevel: result.RiskTier,
		Flags:     result.Flags,
		Timestamp: now,
	})

	score := result.Score
	s.recorder.Record(models.AuditEntry{
		ID:        s.newID(),
		Action:    models.ActionScore,
		ChildID:   req.ChildID,
		MessageID: messageID,
		RiskScore: &score,
		Timestamp: now,
		IPAddress: origin.IPAddress,
		UserAgent: origin.UserAgent,
	})

	outcome := &ScoreOutcome{
		ScoringResult: result,
		MessageID:     messageID,
		Flagged:       result.Score >= s.policy.FlagThreshold,
		Explanation:   scorer.Explanation(result.Score),
	}

	s.trace("Message scored",
		zap.String("child_id", req.ChildID),
		zap.String("message_id", messageID),
		zap.Int("score", result.Score),
		zap.String("risk_level", string(result.RiskTier)),
		zap.Bool("flagged", outcome.Flagged))

	if result.Score >= s.policy.AutoFreezeThreshold {
		if err := s.autoFreeze(req.ChildID, messageID, result.Score, origin); err != nil {
			return nil, err
		}
		outcome.AutoFrozen = true
	}

	return outcome, nil
}

// autoFreeze is the only path by which scoring changes freeze state.
func (s *pipelineService) autoFreeze(childID, messageID string, score int, origin models.RequestOrigin) error {
	rec, err := s.freezes.Freeze(childID, models.AutoFreezeReason, models.SystemActor)
	if err != nil {
		s.logger.Error("Auto-freeze failed", zap.String("child_id", childID), zap.Error(err))
		return fmt.Errorf("%w: auto-freeze failed: %v", ErrInternal, err)
	}

	s.recorder.Record(models.AuditEntry{
		ID:        s.newID(),
		Action:    models.ActionFreeze,
		ChildID:   childID,
		ParentID:  rec.SetBy,
		MessageID: messageID,
		RiskScore: &score,
		Reason:    rec.Reason,
		Timestamp: rec.SetAt,
		IPAddress: origin.IPAddress,
		UserAgent: origin.UserAgent,
	})

	s.logger.Warn("Critical threat detected, child frozen automatically",
		zap.String("child_id", childID),
		zap.String("message_id", messageID),
		zap.Int("score", score))
	return nil
}

func (s *pipelineService) Freeze(req models.FreezeRequest, origin models.RequestOrigin) (*models.FreezeRecord, error) {
	if req.ChildID == "" {
		return nil, models.MissingFields("childId")
	}

	rec, err := s.freezes.Freeze(req.ChildID, req.Reason, req.ParentID)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(models.AuditEntry{
		ID:        s.newID(),
		Action:    models.ActionFreeze,
		ChildID:   rec.ChildID,
		ParentID:  rec.SetBy,
		Reason:    rec.Reason,
		Timestamp: rec.SetAt,
		IPAddress: origin.IPAddress,
		UserAgent: origin.UserAgent,
	})

	s.trace("Child frozen",
		zap.String("child_id", rec.ChildID),
		zap.String("actor", rec.SetBy),
		zap.String("reason", rec.Reason))

	return rec, nil
}

func (s *pipelineService) Unfreeze(req models.UnfreezeRequest, origin models.RequestOrigin) (*models.FreezeRecord, error) {
	if req.ChildID == "" {
		return nil, models.MissingFields("childId")
	}

	rec, err := s.freezes.Unfreeze(req.ChildID, req.ParentID)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(models.AuditEntry{
		ID:        s.newID(),
		Action:    models.ActionUnfreeze,
		ChildID:   rec.ChildID,
		ParentID:  rec.SetBy,
		Timestamp: rec.SetAt,
		IPAddress: origin.IPAddress,
		UserAgent: origin.UserAgent,
	})

	s.trace("Child unfrozen", zap.String("child_id", rec.ChildID), zap.String("actor", rec.SetBy))

	return rec, nil
}

func (s *pipelineService) Status(childID string) (*models.FreezeRecord, error) {
	return s.freezes.Status(childID)
}

func (s *pipelineService) RecentAudit(limit int) []models.AuditEntry {
	return s.recorder.RecentEntries(clampLimit(limit))
}

func (s *pipelineService) RecentScores(limit int) []models.ScoreLogEntry {
	return s.recorder.RecentScores(clampLimit(limit))
}

// open validates presence, then decodes and bounds the payload.
func (s *pipelineService) open(childID, encoded, signature string) (string, error) {
	var missing []string
	if childID == "" {
		missing = append(missing, "childId")
	}
	if encoded == "" {
		missing = append(missing, "encryptedPayload")
	}
	if len(missing) > 0 {
		return "", models.MissingFields(missing...)
	}

	content, err := s.codec.Decode(encoded, signature)
	if err != nil {
		s.logger.Debug("Payload decode failed", zap.String("child_id", childID), zap.Error(err))
		return "", err
	}

	if !s.codec.Validate(content) {
		return "", &models.ValidationError{
			Reason: fmt.Sprintf("Invalid decrypted payload format: content must be 1 to %d characters", s.codec.MaxChars()),
		}
	}
	return content, nil
}

func (s *pipelineService) trace(msg string, fields ...zap.Field) {
	if s.verbose {
		s.logger.Info(msg, fields...)
		return
	}
	s.logger.Debug(msg, fields...)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}
