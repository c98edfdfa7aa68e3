package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"transportdesk/internal/models"
)

// MongoResetRepository is a MongoDB implementation of ResetRepository.
type MongoResetRepository struct {
	col *mongo.Collection
}

// NewMongoResetRepository creates a new instance of MongoResetRepository.
func NewMongoResetRepository(db *mongo.Database) *MongoResetRepository {
	return &MongoResetRepository{
		col: db.Collection("password_resets"),
	}
}

// EnsureIndexes creates the token index and a TTL index so expired tokens
// are removed by the server without application cleanup.
func (r *MongoResetRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	if err != nil {
		return fmt.Errorf("failed to create password-reset indexes: %w", err)
	}
	return nil
}

// Create inserts a new reset token document.
func (r *MongoResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	if reset.ID == "" {
		reset.ID = uuid.New().String()
	}
	if reset.CreatedAt.IsZero() {
		reset.CreatedAt = time.Now()
	}
	if _, err := r.col.InsertOne(ctx, reset); err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}
	return nil
}

// GetByToken returns the reset document matching the token.
func (r *MongoResetRepository) GetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := r.col.FindOne(ctx, bson.M{"token": token}).Decode(&reset); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get password reset: %w", err)
	}
	return &reset, nil
}

// MarkUsed flags a token as consumed.
func (r *MongoResetRepository) MarkUsed(ctx context.Context, id string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"used": true}})
	if err != nil {
		return fmt.Errorf("failed to mark password reset used: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOthers purges every outstanding token for the user except keepID.
func (r *MongoResetRepository) DeleteOthers(ctx context.Context, userID, keepID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{
		"user_id": userID,
		"_id":     bson.M{"$ne": keepID},
	})
	if err != nil {
		return fmt.Errorf("failed to purge password resets for user %s: %w", userID, err)
	}
	return nil
}
