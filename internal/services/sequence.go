package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// entryIDPrefix starts every business-facing transport-entry ID.
const entryIDPrefix = "TE-FY"

// FinancialYear returns the accounting-year label for a date, e.g. "2024-25".
// The year runs April 1 through March 31: an April-or-later date belongs to
// (Y, Y+1), an earlier one to (Y-1, Y).
func FinancialYear(t time.Time) string {
	year := t.Year()
	if t.Month() >= time.April {
		return fmt.Sprintf("%d-%02d", year, (year+1)%100)
	}
	return fmt.Sprintf("%d-%02d", year-1, year%100)
}

// MaxBusinessIDFunc looks up the lexicographically greatest existing business
// ID with the given prefix, returning "" when none exists.
type MaxBusinessIDFunc func(ctx context.Context, prefix string) (string, error)

// EntryIDAllocator assigns business-facing IDs of the form
// TE-FY<year>-<seq>, with the sequence scoped per financial year and
// zero-padded to 4 digits. The lookup function is injected so tests can
// simulate concurrent interleavings.
//
// The read-max-then-increment sequence is not atomic: two concurrent creates
// in the same financial year can compute the same next ID. The unique index
// on business_id rejects the second insert, which callers surface as a
// retryable duplicate error. The lexicographic max lookup also stops
// agreeing with numeric order once a year's sequence passes 9999; that is a
// known limit of the scheme, not guarded here.
type EntryIDAllocator struct {
	maxID MaxBusinessIDFunc
}

// NewEntryIDAllocator creates an allocator backed by the given lookup.
func NewEntryIDAllocator(maxID MaxBusinessIDFunc) *EntryIDAllocator {
	return &EntryIDAllocator{maxID: maxID}
}

// Next computes the business ID for an entry effective on the given date.
// The result is assigned once, before persistence, and never changes.
func (a *EntryIDAllocator) Next(ctx context.Context, date time.Time) (string, error) {
	prefix := entryIDPrefix + FinancialYear(date) + "-"

	last, err := a.maxID(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to look up last entry id: %w", err)
	}

	seq := 1
	if strings.HasPrefix(last, prefix) {
		if n, convErr := strconv.Atoi(strings.TrimPrefix(last, prefix)); convErr == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}
