package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"transportdesk/internal/models"
)

// MongoEntryRepository is a MongoDB implementation of EntryRepository.
type MongoEntryRepository struct {
	col *mongo.Collection
}

// NewMongoEntryRepository creates a new instance of MongoEntryRepository.
func NewMongoEntryRepository(db *mongo.Database) *MongoEntryRepository {
	return &MongoEntryRepository{
		col: db.Collection("transport_entries"),
	}
}

// EnsureIndexes creates the indexes the entry collection relies on. The
// unique index on business_id is the backstop for the ID allocator: two
// racing creates computing the same sequence surface as a duplicate-key
// error on the second insert.
func (r *MongoEntryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "business_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create entry indexes: %w", err)
	}
	return nil
}

// Create inserts a new entry document.
func (r *MongoEntryRepository) Create(ctx context.Context, entry *models.TransportEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if _, err := r.col.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to create entry: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

// GetByID retrieves an entry by its internal ID.
func (r *MongoEntryRepository) GetByID(ctx context.Context, id string) (*models.TransportEntry, error) {
	var entry models.TransportEntry
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entry %s: %w", id, err)
	}
	return &entry, nil
}

// Update replaces an existing entry document.
func (r *MongoEntryRepository) Update(ctx context.Context, entry *models.TransportEntry) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": entry.ID}, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to update entry %s: %w", entry.ID, ErrDuplicateKey)
		}
		return fmt.Errorf("failed to update entry %s: %w", entry.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete hard-deletes an entry document.
func (r *MongoEntryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// buildFilter translates an EntryFilter into a MongoDB query document.
func buildFilter(f EntryFilter) bson.M {
	query := bson.M{"user_id": f.UserID}
	if f.Status != "" {
		query["bill.status"] = f.Status
	}
	if f.From != "" {
		query["from_location"] = substringRegex(f.From)
	}
	if f.To != "" {
		query["to_location"] = substringRegex(f.To)
	}
	if f.Search != "" {
		re := substringRegex(f.Search)
		query["$or"] = bson.A{
			bson.M{"business_id": re},
			bson.M{"vehicle_no": re},
			bson.M{"from_location": re},
			bson.M{"to_location": re},
			bson.M{"bill.invoice_no": re},
			bson.M{"owner.driver_name": re},
		}
	}
	return query
}

// substringRegex builds a case-insensitive substring matcher. The needle is
// quoted so user input is never interpreted as a pattern.
func substringRegex(needle string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(needle), "$options": "i"}
}

// Find returns one page of matching entries plus the total match count.
// Ordering is created_at descending with _id descending as a stable tiebreak.
func (r *MongoEntryRepository) Find(ctx context.Context, filter EntryFilter) ([]models.TransportEntry, int64, error) {
	query := buildFilter(filter)

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count entries: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(filter.Skip)
	if filter.Limit > 0 {
		opts = opts.SetLimit(filter.Limit)
	}

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find entries: %w", err)
	}
	entries := []models.TransportEntry{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, 0, fmt.Errorf("failed to decode entries: %w", err)
	}
	return entries, total, nil
}

// MaxBusinessID returns the lexicographically greatest business ID with the
// given prefix, or "" when no entry matches. Correct only while the
// zero-padded suffix keeps lexicographic and numeric order aligned (up to
// 9999 per financial year), a known limit of the ID scheme.
func (r *MongoEntryRepository) MaxBusinessID(ctx context.Context, prefix string) (string, error) {
	var entry models.TransportEntry
	err := r.col.FindOne(ctx,
		bson.M{"business_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}},
		options.FindOne().
			SetSort(bson.D{{Key: "business_id", Value: -1}}).
			SetProjection(bson.M{"business_id": 1}),
	).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up max business id: %w", err)
	}
	return entry.BusinessID, nil
}

// statusGroup is one row of the per-status aggregation pipeline.
type statusGroup struct {
	Status string  `bson:"_id"`
	Count  int64   `bson:"count"`
	Amount float64 `bson:"amount"`
}

// Stats aggregates the user's entries with a single $group pipeline plus a
// count of documents created at or after since.
func (r *MongoEntryRepository) Stats(ctx context.Context, userID string, since time.Time) (*models.EntryStats, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"user_id": userID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":    "$bill.status",
			"count":  bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$bill.total"},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate entry stats: %w", err)
	}
	var groups []statusGroup
	if err := cur.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode entry stats: %w", err)
	}

	stats := &models.EntryStats{ByStatus: make(map[string]int64)}
	for _, g := range groups {
		stats.ByStatus[g.Status] = g.Count
		stats.Total += g.Count
		stats.TotalAmount += g.Amount
	}

	recent, err := r.col.CountDocuments(ctx, bson.M{
		"user_id":    userID,
		"created_at": bson.M{"$gte": since},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count recent entries: %w", err)
	}
	stats.RecentCount = recent
	return stats, nil
}
