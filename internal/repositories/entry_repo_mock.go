package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"transportdesk/internal/models"
)

// MockEntryRepository is an in-memory implementation of EntryRepository. It
// mirrors the MongoDB repository's query semantics (case-insensitive
// substring search, created_at/_id descending order, unique business IDs) so
// services can be exercised without a database.
type MockEntryRepository struct {
	entries map[string]models.TransportEntry
	mu      sync.RWMutex
}

// NewMockEntryRepository creates a new instance of MockEntryRepository.
func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{
		entries: make(map[string]models.TransportEntry),
	}
}

// Create adds a new entry, enforcing business-ID uniqueness like the
// database's unique index would.
func (r *MockEntryRepository) Create(_ context.Context, entry *models.TransportEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if entry.BusinessID != "" && e.BusinessID == entry.BusinessID {
			return ErrDuplicateKey
		}
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	r.entries[entry.ID] = *entry
	return nil
}

// GetByID returns an entry by its internal ID.
func (r *MockEntryRepository) GetByID(_ context.Context, id string) (*models.TransportEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &entry, nil
}

// Update replaces an existing entry.
func (r *MockEntryRepository) Update(_ context.Context, entry *models.TransportEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[entry.ID]; !ok {
		return ErrNotFound
	}
	r.entries[entry.ID] = *entry
	return nil
}

// Delete removes an entry by its internal ID.
func (r *MockEntryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func matches(e models.TransportEntry, f EntryFilter) bool {
	if e.UserID != f.UserID {
		return false
	}
	if f.Status != "" && e.Bill.Status != f.Status {
		return false
	}
	if f.From != "" && !containsFold(e.FromLocation, f.From) {
		return false
	}
	if f.To != "" && !containsFold(e.ToLocation, f.To) {
		return false
	}
	if f.Search != "" {
		hit := containsFold(e.BusinessID, f.Search) ||
			containsFold(e.VehicleNo, f.Search) ||
			containsFold(e.FromLocation, f.Search) ||
			containsFold(e.ToLocation, f.Search) ||
			containsFold(e.Bill.InvoiceNo, f.Search) ||
			containsFold(e.Owner.DriverName, f.Search)
		if !hit {
			return false
		}
	}
	return true
}

// Find returns one page of matching entries plus the total match count,
// ordered by created_at descending with _id descending as a tiebreak.
func (r *MockEntryRepository) Find(_ context.Context, filter EntryFilter) ([]models.TransportEntry, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.TransportEntry, 0)
	for _, e := range r.entries {
		if matches(e, filter) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := filter.Skip
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

// MaxBusinessID returns the lexicographically greatest business ID with the
// given prefix, or "" when no entry matches.
func (r *MockEntryRepository) MaxBusinessID(_ context.Context, prefix string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	max := ""
	for _, e := range r.entries {
		if strings.HasPrefix(e.BusinessID, prefix) && e.BusinessID > max {
			max = e.BusinessID
		}
	}
	return max, nil
}

// Stats aggregates the user's entries in memory.
func (r *MockEntryRepository) Stats(_ context.Context, userID string, since time.Time) (*models.EntryStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &models.EntryStats{ByStatus: make(map[string]int64)}
	for _, e := range r.entries {
		if e.UserID != userID {
			continue
		}
		stats.Total++
		stats.ByStatus[e.Bill.Status]++
		stats.TotalAmount += e.Bill.Total
		if !e.CreatedAt.Before(since) {
			stats.RecentCount++
		}
	}
	return stats, nil
}
