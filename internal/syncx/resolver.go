package syncx

import (
	"time"

	"github.com/aleksv/spendsync/internal/models"
)

// Entity is implemented by every synchronized record type. Clone must return
// an independent copy so the engine never mutates a caller's snapshot.
type Entity[T any] interface {
	Env() *models.Envelope
	Clone() T
}

// ConflictEvent records one resolved pair of concurrent edits. The losing
// side's edit is discarded (last-writer-wins is lossy), so the event is the
// only trace the conflict leaves.
type ConflictEvent struct {
	Kind            models.Kind `json:"kind"`
	ID              string      `json:"id"`
	LocalUpdatedAt  time.Time   `json:"local_updated_at"`
	RemoteUpdatedAt time.Time   `json:"remote_updated_at"`
	RemoteWon       bool        `json:"remote_won"`
}

// InConflict reports whether both sides changed the record since the last
// confirmed sync point. Three facts are required: the local record has been
// synced before, the remote copy moved past that point, and so did the local
// copy. If only one side changed there is no conflict; the changed side wins
// without resolution.
func InConflict(local, remote *models.Envelope) bool {
	if local.LastSyncedAt == nil {
		return false
	}
	base := *local.LastSyncedAt
	return remote.UpdatedAt.After(base) && local.UpdatedAt.After(base)
}

// Resolve picks a winner between two concurrent versions of the same logical
// record: last-writer-wins by UpdatedAt, ties favor remote. The winner is
// returned as a copy with LastSyncedAt stamped to now. Pure and
// deterministic: the same pair always yields the same winner.
func Resolve[T Entity[T]](kind models.Kind, local, remote T, now time.Time) (T, ConflictEvent) {
	le, re := local.Env(), remote.Env()

	remoteWon := !le.UpdatedAt.After(re.UpdatedAt)
	var winner T
	if remoteWon {
		winner = remote.Clone()
	} else {
		winner = local.Clone()
	}
	winner.Env().StampSynced(now)

	return winner, ConflictEvent{
		Kind:            kind,
		ID:              le.ID,
		LocalUpdatedAt:  le.UpdatedAt,
		RemoteUpdatedAt: re.UpdatedAt,
		RemoteWon:       remoteWon,
	}
}
