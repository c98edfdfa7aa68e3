package services

import (
	"context"
	"fmt"
	"time"

	"transportdesk/internal/models"
	"transportdesk/internal/repositories"
)

// Query limits enforced before any store access.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 5000
	MaxSearchLength  = 100
)

// EntryListQuery carries the caller's list parameters after defaults have
// been applied at the boundary.
type EntryListQuery struct {
	Search string
	Status string
	From   string
	To     string
	Page   int
	Limit  int
}

// EntryService handles business logic for transport entries: ID allocation,
// scoped queries, and the per-user statistics summary. The clock is injected
// so the trailing-7-day window is testable.
type EntryService struct {
	repo  repositories.EntryRepository
	alloc *EntryIDAllocator
	now   func() time.Time
}

// NewEntryService creates a new EntryService. now may be nil, in which case
// time.Now is used.
func NewEntryService(repo repositories.EntryRepository, now func() time.Time) *EntryService {
	if now == nil {
		now = time.Now
	}
	return &EntryService{
		repo:  repo,
		alloc: NewEntryIDAllocator(repo.MaxBusinessID),
		now:   now,
	}
}

// Create allocates the entry's business ID and persists it for the given
// owner. A duplicate business ID (two racing creates computing the same
// sequence) surfaces as repositories.ErrDuplicateKey for the boundary to
// classify as retryable.
func (s *EntryService) Create(ctx context.Context, userID string, entry *models.TransportEntry) (*models.TransportEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("entry create called without an owner scope")
	}

	entry.ID = ""
	entry.UserID = userID
	if entry.Date.IsZero() {
		entry.Date = s.now()
	}
	if entry.Bill.Status == "" {
		entry.Bill.Status = models.StatusPending
	}
	if !models.IsValidStatus(entry.Bill.Status) {
		return nil, NewValidationError("bill.status", "must be one of PENDING, IN_PROGRESS, COMPLETED, CANCELLED")
	}

	businessID, err := s.alloc.Next(ctx, entry.Date)
	if err != nil {
		return nil, err
	}
	entry.BusinessID = businessID
	entry.CreatedAt = s.now()
	entry.UpdatedAt = entry.CreatedAt

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Get returns a single entry, enforcing owner-only access. A record owned by
// someone else yields ErrForbidden, a missing one repositories.ErrNotFound.
func (s *EntryService) Get(ctx context.Context, userID, id string) (*models.TransportEntry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, ErrForbidden
	}
	return entry, nil
}

// Update replaces an entry's mutable fields. The business ID, owner, and
// creation time are preserved regardless of what the caller sent.
func (s *EntryService) Update(ctx context.Context, userID, id string, updated *models.TransportEntry) (*models.TransportEntry, error) {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if updated.Bill.Status == "" {
		updated.Bill.Status = existing.Bill.Status
	}
	if !models.IsValidStatus(updated.Bill.Status) {
		return nil, NewValidationError("bill.status", "must be one of PENDING, IN_PROGRESS, COMPLETED, CANCELLED")
	}

	updated.ID = existing.ID
	updated.BusinessID = existing.BusinessID
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	if updated.Date.IsZero() {
		updated.Date = existing.Date
	}
	updated.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete hard-deletes an entry after the ownership check.
func (s *EntryService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// List executes a scoped, filtered, paginated entry query. Invalid page or
// limit values are rejected before querying, never clamped. A page beyond
// the last still runs and returns an empty page.
func (s *EntryService) List(ctx context.Context, userID string, q EntryListQuery) ([]models.TransportEntry, *models.Pagination, error) {
	if userID == "" {
		return nil, nil, fmt.Errorf("entry list called without an owner scope")
	}
	if q.Page < 1 {
		return nil, nil, NewValidationError("page", "must be a positive integer")
	}
	if q.Limit < 1 || q.Limit > MaxPageLimit {
		return nil, nil, NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", MaxPageLimit))
	}
	if len(q.Search) > MaxSearchLength {
		return nil, nil, NewValidationError("search", fmt.Sprintf("must be at most %d characters", MaxSearchLength))
	}
	if q.Status != "" && !models.IsValidStatus(q.Status) {
		return nil, nil, NewValidationError("status", "must be one of PENDING, IN_PROGRESS, COMPLETED, CANCELLED")
	}

	filter := repositories.EntryFilter{
		UserID: userID,
		Search: q.Search,
		Status: q.Status,
		From:   q.From,
		To:     q.To,
		Skip:   int64(q.Page-1) * int64(q.Limit),
		Limit:  int64(q.Limit),
	}
	entries, total, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	pages := 0
	if total > 0 {
		pages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	pg := &models.Pagination{
		Total:   total,
		Page:    q.Page,
		Pages:   pages,
		HasNext: q.Page < pages,
		HasPrev: q.Page > 1,
	}
	return entries, pg, nil
}

// Stats returns the per-user summary. The trailing-7-day window is anchored
// to the injected clock at call time.
func (s *EntryService) Stats(ctx context.Context, userID string) (*models.EntryStats, error) {
	if userID == "" {
		return nil, fmt.Errorf("entry stats called without an owner scope")
	}
	since := s.now().AddDate(0, 0, -7)
	stats, err := s.repo.Stats(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	// Normalize: every status present, zero-filled when absent.
	if stats.ByStatus == nil {
		stats.ByStatus = make(map[string]int64)
	}
	for _, status := range models.EntryStatuses {
		if _, ok := stats.ByStatus[status]; !ok {
			stats.ByStatus[status] = 0
		}
	}
	return stats, nil
}
