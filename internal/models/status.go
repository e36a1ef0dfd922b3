package models

import "time"

// SyncStatus is the consolidated outcome of one sync cycle across all kinds.
//
// LastSyncedAt is the time of the cycle only when no pending items remain
// afterwards; otherwise the value from the previous fully-successful cycle is
// retained. HasConflicts is false on return: conflicts are resolved
// synchronously during the cycle (ResolvedConflicts counts them).
type SyncStatus struct {
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty"`
	IsPending         bool       `json:"is_pending"`
	HasConflicts      bool       `json:"has_conflicts"`
	PendingSyncItems  int        `json:"pending_sync_items"`
	ResolvedConflicts int        `json:"resolved_conflicts"`
}
