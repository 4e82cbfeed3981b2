package repository

import (
	"errors"
	"sync"

	"vigilance-engine/internal/models"
)

var (
	ErrMessageExists   = errors.New("message already exists")
	ErrMessageNotFound = errors.New("message not found")
)

// MessageRepository holds ingested messages until they are scored.
type MessageRepository interface {
	Save(msg *models.Message) error
	GetByID(id string) (*models.Message, error)
	Count() int
}

type messageRepository struct {
	mu       sync.RWMutex
	messages map[string]models.Message
}

// NewMessageRepository creates an empty in-memory message store.
func NewMessageRepository() MessageRepository {
	return &messageRepository{
		messages: make(map[string]models.Message),
	}
}

func (r *messageRepository) Save(msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.messages[msg.ID]; exists {
		return ErrMessageExists
	}
	r.messages[msg.ID] = *msg
	return nil
}

func (r *messageRepository) GetByID(id string) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msg, ok := r.messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	return &msg, nil
}

func (r *messageRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages)
}
