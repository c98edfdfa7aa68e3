package repositories

import (
	"context"

	"transportdesk/internal/models"
)

// ResetRepository defines the interface for password-reset token access.
type ResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	GetByToken(ctx context.Context, token string) (*models.PasswordReset, error)
	MarkUsed(ctx context.Context, id string) error

	// DeleteOthers purges every outstanding token for the user except keepID.
	DeleteOthers(ctx context.Context, userID, keepID string) error
}
