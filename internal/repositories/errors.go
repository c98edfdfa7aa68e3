package repositories

import "errors"

// Sentinel errors shared by every repository implementation. Service code
// matches them with errors.Is regardless of the backing store.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)
