package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"transportdesk/internal/models"
)

// MockResetRepository is an in-memory implementation of ResetRepository.
type MockResetRepository struct {
	resets map[string]models.PasswordReset
	mu     sync.RWMutex
}

// NewMockResetRepository creates a new instance of MockResetRepository.
func NewMockResetRepository() *MockResetRepository {
	return &MockResetRepository{
		resets: make(map[string]models.PasswordReset),
	}
}

// Create adds a new reset token.
func (r *MockResetRepository) Create(_ context.Context, reset *models.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reset.ID == "" {
		reset.ID = uuid.New().String()
	}
	if reset.CreatedAt.IsZero() {
		reset.CreatedAt = time.Now()
	}
	r.resets[reset.ID] = *reset
	return nil
}

// GetByToken returns the reset matching the token.
func (r *MockResetRepository) GetByToken(_ context.Context, token string) (*models.PasswordReset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.resets {
		if p.Token == token {
			reset := p
			return &reset, nil
		}
	}
	return nil, ErrNotFound
}

// MarkUsed flags a token as consumed.
func (r *MockResetRepository) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reset, ok := r.resets[id]
	if !ok {
		return ErrNotFound
	}
	reset.Used = true
	r.resets[id] = reset
	return nil
}

// DeleteOthers purges every token for the user except keepID.
func (r *MockResetRepository) DeleteOthers(_ context.Context, userID, keepID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.resets {
		if p.UserID == userID && id != keepID {
			delete(r.resets, id)
		}
	}
	return nil
}

// CountForUser reports outstanding tokens for a user. Test helper.
func (r *MockResetRepository) CountForUser(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.resets {
		if p.UserID == userID {
			n++
		}
	}
	return n
}
