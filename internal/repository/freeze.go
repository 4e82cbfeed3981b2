package repository

import (
	"sync"

	"go.uber.org/zap"

	"vigilance-engine/internal/clock"
	"vigilance-engine/internal/models"
)

// FreezeRepository is the authoritative per-child freeze state.
type FreezeRepository interface {
	Freeze(childID, reason, actor string) (*models.FreezeRecord, error)
	Unfreeze(childID, actor string) (*models.FreezeRecord, error)
	Status(childID string) (*models.FreezeRecord, error)
}

type freezeRepository struct {
	mu      sync.RWMutex
	records map[string]models.FreezeRecord
	clock   clock.Clock
	logger  *zap.Logger
}

// NewFreezeRepository creates an empty in-memory ledger. Every child starts unfrozen.
func NewFreezeRepository(clk clock.Clock, logger *zap.Logger) FreezeRepository {
	return &freezeRepository{
		records: make(map[string]models.FreezeRecord),
		clock:   clk,
		logger:  logger,
	}
}

// Freeze marks childID frozen, overwriting any previous reason, time and actor.
func (r *freezeRepository) Freeze(childID, reason, actor string) (*models.FreezeRecord, error) {
	if childID == "" {
		return nil, models.MissingFields("childId")
	}
	if reason == "" {
		reason = models.DefaultFreezeReason
	}
	if actor == "" {
		actor = models.SystemActor
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := models.FreezeRecord{
		ChildID: childID,
		Frozen:  true,
		Reason:  reason,
		SetAt:   r.clock.Now(),
		SetBy:   actor,
	}
	r.records[childID] = rec

	r.logger.Debug("Freeze state set", zap.String("child_id", childID), zap.String("actor", actor))
	return &rec, nil
}

// Unfreeze marks childID unfrozen. Unfreezing an unfrozen child only refreshes the timestamp.
func (r *freezeRepository) Unfreeze(childID, actor string) (*models.FreezeRecord, error) {
	if childID == "" {
		return nil, models.MissingFields("childId")
	}
	if actor == "" {
		actor = models.SystemActor
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := models.FreezeRecord{
		ChildID: childID,
		Frozen:  false,
		SetAt:   r.clock.Now(),
		SetBy:   actor,
	}
	r.records[childID] = rec

	r.logger.Debug("Freeze state cleared", zap.String("child_id", childID), zap.String("actor", actor))
	return &rec, nil
}

// Status returns the current state; an unknown child is unfrozen with no reason or time.
func (r *freezeRepository) Status(childID string) (*models.FreezeRecord, error) {
	if childID == "" {
		return nil, models.MissingFields("childId")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[childID]
	if !ok {
		return &models.FreezeRecord{ChildID: childID}, nil
	}
	return &rec, nil
}
