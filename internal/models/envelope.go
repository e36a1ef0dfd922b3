// Package models defines the synchronized entity types shared by the client,
// the server and the sync engine.
package models

import "time"

// Kind identifies one synchronized collection.
type Kind string

const (
	KindExpenses   Kind = "expenses"
	KindCategories Kind = "categories"
	KindSettings   Kind = "settings"
)

// Envelope is the common set of synchronization fields embedded in every
// synchronized entity.
//
// ID is globally unique and never reassigned; it is the join key between the
// local and remote snapshots. UpdatedAt strictly increases on every local
// mutation. LastSyncedAt is nil until the record has been reconciled at least
// once. Deleted is a tombstone flag; only expenses use it.
type Envelope struct {
	ID           string     `json:"id"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	Deleted      bool       `json:"deleted,omitempty"`
}

// Env returns the envelope itself so entity types can expose it uniformly.
func (e *Envelope) Env() *Envelope { return e }

// Pending reports whether the record has local changes not yet confirmed
// remotely: it was never synced, or was mutated after the last sync point.
func (e *Envelope) Pending() bool {
	return e.LastSyncedAt == nil || e.UpdatedAt.After(*e.LastSyncedAt)
}

// Touch bumps UpdatedAt to now. If now does not advance past the current
// value (clock skew, sub-resolution edits) the timestamp is nudged forward
// instead, keeping UpdatedAt strictly increasing per write.
func (e *Envelope) Touch(now time.Time) {
	if !now.After(e.UpdatedAt) {
		now = e.UpdatedAt.Add(time.Millisecond)
	}
	e.UpdatedAt = now
}

// StampSynced records a successful reconciliation at t.
func (e *Envelope) StampSynced(t time.Time) {
	ts := t
	e.LastSyncedAt = &ts
}

// Valid reports whether the envelope carries the fields the sync engine
// requires. Remote records failing this are skipped for the cycle.
func (e *Envelope) Valid() bool {
	return e.ID != "" && !e.UpdatedAt.IsZero()
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}
