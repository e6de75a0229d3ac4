package models

import "time"

// SyncItem is one pending unit of sync work. At most one live item exists
// per (EntityType, EntityID) pair; re-queuing coalesces into the existing
// row, raising its priority to the maximum of old and new.
type SyncItem struct {
	// EntityType and EntityID identify the local record to push.
	// Numeric ids are stringified; photo ids are UUID strings.
	EntityType EntityType
	EntityID   string

	// Priority orders the queue, higher first. It is caller-assigned; the
	// default scheme is configured per entity type, not hard-coded here.
	Priority int

	// RetryCount is incremented on every failed attempt.
	RetryCount int

	// LastError holds the reason of the most recent failed attempt.
	LastError string

	// Dead marks an item that exceeded the configured retry cutoff. Dead
	// items are excluded from pending queries but never silently deleted;
	// they can be revived explicitly.
	Dead bool

	CreatedAt     time.Time
	LastAttemptAt time.Time // zero if the item was never attempted
}
