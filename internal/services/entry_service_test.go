package services_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transportdesk/internal/models"
	"transportdesk/internal/repositories"
	"transportdesk/internal/services"
)

// fakeClock is a controllable clock for the entry service.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newEntryFixture() (*services.EntryService, *repositories.MockEntryRepository, *fakeClock) {
	repo := repositories.NewMockEntryRepository()
	clock := &fakeClock{now: date(2024, time.June, 1)}
	return services.NewEntryService(repo, clock.Now), repo, clock
}

func validEntry(vehicle string) *models.TransportEntry {
	return &models.TransportEntry{
		VehicleNo:    vehicle,
		FromLocation: "Mumbai",
		ToLocation:   "Delhi",
		Bill: models.BillData{
			InvoiceNo: "INV-" + vehicle,
			Total:     100,
		},
	}
}

func TestEntryService_CreateAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newEntryFixture()

	e1 := validEntry("MH12AB0001")
	e1.Date = date(2024, time.April, 1)
	created, err := svc.Create(ctx, "u1", e1)
	require.NoError(t, err)
	assert.Equal(t, "TE-FY2024-25-0001", created.BusinessID)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, models.StatusPending, created.Bill.Status)
	assert.Equal(t, clock.Now(), created.CreatedAt)

	e2 := validEntry("MH12AB0002")
	e2.Date = date(2024, time.April, 2)
	created, err = svc.Create(ctx, "u1", e2)
	require.NoError(t, err)
	assert.Equal(t, "TE-FY2024-25-0002", created.BusinessID)

	// A different financial year starts its own sequence at 1.
	e3 := validEntry("MH12AB0003")
	e3.Date = date(2024, time.March, 31)
	created, err = svc.Create(ctx, "u1", e3)
	require.NoError(t, err)
	assert.Equal(t, "TE-FY2023-24-0001", created.BusinessID)
}

func TestEntryService_CreateDefaultsDateToNow(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newEntryFixture()
	clock.now = date(2025, time.February, 10) // before April: FY 2024-25

	created, err := svc.Create(ctx, "u1", validEntry("KA01XY1111"))
	require.NoError(t, err)
	assert.Equal(t, clock.now, created.Date)
	assert.True(t, strings.HasPrefix(created.BusinessID, "TE-FY2024-25-"))
}

func TestEntryService_CreateRejectsBadStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newEntryFixture()

	entry := validEntry("KA01XY1111")
	entry.Bill.Status = "DONE"
	_, err := svc.Create(ctx, "u1", entry)
	require.Error(t, err)
	var vErr *services.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func seedEntries(t *testing.T, svc *services.EntryService, clock *fakeClock, userID string, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		entry := validEntry(fmt.Sprintf("MH12AB%04d", i))
		created, err := svc.Create(context.Background(), userID, entry)
		require.NoError(t, err)
		ids = append(ids, created.ID)
		clock.Advance(time.Minute)
	}
	return ids
}

func TestEntryService_ListPagination(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newEntryFixture()
	seedEntries(t, svc, clock, "u1", 25)

	q := services.EntryListQuery{Page: 1, Limit: 10}
	entries, pg, err := svc.List(ctx, "u1", q)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
	assert.Equal(t, int64(25), pg.Total)
	assert.Equal(t, 3, pg.Pages)
	assert.True(t, pg.HasNext)
	assert.False(t, pg.HasPrev)

	q.Page = 3
	entries, pg, err = svc.List(ctx, "u1", q)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	assert.False(t, pg.HasNext)
	assert.True(t, pg.HasPrev)

	// A page past the end is an empty page, not an error.
	q.Page = 4
	entries, pg, err = svc.List(ctx, "u1", q)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 3, pg.Pages)
	assert.False(t, pg.HasNext)
}

func TestEntryService_ListConcatenatingPagesYieldsAllRecords(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newEntryFixture()
	seedEntries(t, svc, clock, "u1", 23)

	seen := make(map[string]bool)
	var prev time.Time
	for page := 1; page <= 3; page++ {
		entries, pg, err := svc.List(ctx, "u1", services.EntryListQuery{Page: page, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, pg.Pages)
		for _, e := range entries {
			assert.False(t, seen[e.ID], "entry %s appeared twice", e.ID)
			seen[e.ID] = true
			if !prev.IsZero() {
				assert.False(t, e.CreatedAt.After(prev), "ordering must be newest first")
			}
			prev = e.CreatedAt
		}
	}
	assert.Len(t, seen, 23)
}

func TestEntryService_ListEmpty(t *testing.T) {
	svc, _, _ := newEntryFixture()

	entries, pg, err := svc.List(context.Background(), "u1", services.EntryListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int64(0), pg.Total)
	assert.Equal(t, 0, pg.Pages)
	assert.False(t, pg.HasNext)
	assert.False(t, pg.HasPrev)
}

func TestEntryService_ListValidation(t *testing.T) {
	svc, _, _ := newEntryFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		q    services.EntryListQuery
	}{
		{"zero page", services.EntryListQuery{Page: 0, Limit: 10}},
		{"negative page", services.EntryListQuery{Page: -1, Limit: 10}},
		{"zero limit", services.EntryListQuery{Page: 1, Limit: 0}},
		{"limit above cap", services.EntryListQuery{Page: 1, Limit: 5001}},
		{"unknown status", services.EntryListQuery{Page: 1, Limit: 10, Status: "DONE"}},
		{"search too long", services.EntryListQuery{Page: 1, Limit: 10, Search: strings.Repeat("x", 101)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.List(ctx, "u1", tt.q)
			var vErr *services.ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestEntryService_ListOwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newEntryFixture()

	mine := validEntry("MH12AB0001")
	_, err := svc.Create(ctx, "u1", mine)
	require.NoError(t, err)
	clock.Advance(time.Minute)

	theirs := validEntry("MH12AB0002")
	_, err = svc.Create(ctx, "u2", theirs)
	require.NoError(t, err)

	// A search matching both owners' records still only returns the caller's.
	entries, pg, err := svc.List(ctx, "u1", services.EntryListQuery{Page: 1, Limit: 10, Search: "mh12ab"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), pg.Total)
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].UserID)
}

func TestEntryService_ListFilters(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newEntryFixture()

	a := validEntry("MH12AB0001")
	a.FromLocation = "Mumbai"
	a.ToLocation = "Delhi"
	a.Bill.Status = models.StatusCompleted
	a.Owner.DriverName = "Ramesh Kumar"
	_, err := svc.Create(ctx, "u1", a)
	require.NoError(t, err)
	clock.Advance(time.Minute)

	b := validEntry("KA01XY0002")
	b.FromLocation = "Bengaluru"
	b.ToLocation = "Chennai"
	_, err = svc.Create(ctx, "u1", b)
	require.NoError(t, err)

	byStatus, _, err := svc.List(ctx, "u1", services.EntryListQuery{Page: 1, Limit: 10, Status: models.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "MH12AB0001", byStatus[0].VehicleNo)

	byRoute, _, err := svc.List(ctx, "u1", services.EntryListQuery{Page: 1, Limit: 10, From: "beng", To: "chen"})
	require.NoError(t, err)
	require.Len(t, byRoute, 1)
	assert.Equal(t, "KA01XY0002", byRoute[0].VehicleNo)

	byDriver, _, err := svc.List(ctx, "u1", services.EntryListQuery{Page: 1, Limit: 10, Search: "ramesh"})
	require.NoError(t, err)
	require.Len(t, byDriver, 1)
	assert.Equal(t, "MH12AB0001", byDriver[0].VehicleNo)
}

func TestEntryService_GetEnforcesOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newEntryFixture()

	created, err := svc.Create(ctx, "u1", validEntry("MH12AB0001"))
	require.NoError(t, err)

	got, err := svc.Get(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.BusinessID, got.BusinessID)

	_, err = svc.Get(ctx, "u2", created.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = svc.Get(ctx, "u1", "missing")
	assert.True(t, services.IsNotFound(err))
}

func TestEntryService_UpdatePreservesIdentity(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newEntryFixture()

	created, err := svc.Create(ctx, "u1", validEntry("MH12AB0001"))
	require.NoError(t, err)

	update := validEntry("MH12AB9999")
	update.BusinessID = "TE-FY2030-31-0042" // must be ignored
	update.UserID = "attacker"              // must be ignored
	update.Bill.Status = models.StatusCompleted

	updated, err := svc.Update(ctx, "u1", created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, created.BusinessID, updated.BusinessID)
	assert.Equal(t, "u1", updated.UserID)
	assert.Equal(t, "MH12AB9999", updated.VehicleNo)
	assert.Equal(t, models.StatusCompleted, updated.Bill.Status)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(ctx, "u2", created.ID, validEntry("X"))
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestEntryService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newEntryFixture()

	created, err := svc.Create(ctx, "u1", validEntry("MH12AB0001"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", created.ID), services.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, "u1", created.ID))
	assert.True(t, services.IsNotFound(svc.Delete(ctx, "u1", created.ID)))
}

func TestEntryService_Stats(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newEntryFixture()

	// Two older entries, outside the trailing-7-day window once the clock
	// advances.
	old1 := validEntry("MH12AB0001")
	old1.Bill.Total = 100
	_, err := svc.Create(ctx, "u1", old1)
	require.NoError(t, err)

	old2 := validEntry("MH12AB0002")
	old2.Bill.Total = 50
	old2.Bill.Status = models.StatusCompleted
	_, err = svc.Create(ctx, "u1", old2)
	require.NoError(t, err)

	clock.Advance(10 * 24 * time.Hour)

	recent := validEntry("MH12AB0003")
	recent.Bill.Total = 200
	recent.Bill.Status = models.StatusCompleted
	_, err = svc.Create(ctx, "u1", recent)
	require.NoError(t, err)

	// Another user's entries never leak into the stats scope.
	_, err = svc.Create(ctx, "u2", validEntry("KA01XY0001"))
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, 350.0, stats.TotalAmount)
	assert.Equal(t, int64(1), stats.RecentCount)

	// Fully populated, zero-filled status map.
	assert.Len(t, stats.ByStatus, len(models.EntryStatuses))
	assert.Equal(t, int64(1), stats.ByStatus[models.StatusPending])
	assert.Equal(t, int64(2), stats.ByStatus[models.StatusCompleted])
	assert.Equal(t, int64(0), stats.ByStatus[models.StatusInProgress])
	assert.Equal(t, int64(0), stats.ByStatus[models.StatusCancelled])

	// Per-status counts always sum to the total.
	var sum int64
	for _, n := range stats.ByStatus {
		sum += n
	}
	assert.Equal(t, stats.Total, sum)
}

func TestEntryService_StatsEmpty(t *testing.T) {
	svc, _, _ := newEntryFixture()

	stats, err := svc.Stats(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Total)
	assert.Equal(t, 0.0, stats.TotalAmount)
	assert.Len(t, stats.ByStatus, len(models.EntryStatuses))
}
