package models

import "time"

// PasswordReset is a single-use password reset token scoped to one user.
// Expired documents are removed by a TTL index on ExpiresAt.
type PasswordReset struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Token     string    `json:"-" bson:"token"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	Used      bool      `json:"used" bson:"used"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (p *PasswordReset) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
