package repositories

import (
	"context"
	"time"

	"transportdesk/internal/models"
)

// EntryFilter describes a scoped, paginated entry query. UserID is always
// set by the caller; everything else is optional. Skip/Limit are applied
// after filtering, with ordering fixed at created_at desc, _id desc.
type EntryFilter struct {
	UserID string
	Search string // case-insensitive substring across id/vehicle/route/invoice/driver
	Status string // exact match against bill.status
	From   string // case-insensitive substring against from_location
	To     string // case-insensitive substring against to_location
	Skip   int64
	Limit  int64
}

// EntryRepository defines the interface for transport-entry data access.
type EntryRepository interface {
	Create(ctx context.Context, entry *models.TransportEntry) error
	GetByID(ctx context.Context, id string) (*models.TransportEntry, error)
	Update(ctx context.Context, entry *models.TransportEntry) error
	Delete(ctx context.Context, id string) error

	// Find returns one page of matching entries plus the total match count.
	Find(ctx context.Context, filter EntryFilter) ([]models.TransportEntry, int64, error)

	// MaxBusinessID returns the lexicographically greatest business ID with
	// the given prefix, or "" when no entry matches.
	MaxBusinessID(ctx context.Context, prefix string) (string, error)

	// Stats aggregates the user's entries: totals, per-status counts, billing
	// sum, and the count of entries created at or after since.
	Stats(ctx context.Context, userID string, since time.Time) (*models.EntryStats, error)
}
