package syncx

import (
	"time"

	"github.com/aleksv/spendsync/internal/models"
)

// PlanResult is the outcome of planning one entity kind's merge cycle.
//
// Merged is the new local snapshot (copies; the inputs are left untouched).
// PendingPush is the subset of Merged that must be written to the remote
// store to converge it; entries alias Merged, so stamping them after a
// successful push updates the snapshot in place. SkippedRemote counts remote
// records excluded from this cycle because their envelope was malformed.
type PlanResult[T Entity[T]] struct {
	Merged        []T
	PendingPush   []T
	Conflicts     []ConflictEvent
	SkippedRemote int
}

// Plan reconciles a local collection against the remote collection of the
// same kind.
//
// For every local record: a record absent remotely is kept and pushed if it
// still has unconfirmed changes; a record changed on both sides since its
// last sync point is resolved (last-writer-wins) and the resolution is pushed
// back; a record changed only remotely is adopted; a record changed only
// locally is kept and pushed; an unchanged record is kept as-is. Remote
// records with no local counterpart are adopted. Adopted and resolved records
// get LastSyncedAt stamped to now.
//
// Plan is idempotent: planning the merged output against the same remote
// input yields the same snapshot with nothing left to push (conflicts cannot
// reoccur because the first pass stamps the sync point past both sides).
func Plan[T Entity[T]](kind models.Kind, local, remote []T, now time.Time) PlanResult[T] {
	var res PlanResult[T]

	remoteByID := make(map[string]T, len(remote))
	for _, r := range remote {
		if !r.Env().Valid() {
			res.SkippedRemote++
			continue
		}
		remoteByID[r.Env().ID] = r
	}

	for _, l := range local {
		env := l.Env()

		r, ok := remoteByID[env.ID]
		if !ok {
			// Pure local addition, or a record the remote store has already
			// purged; only unconfirmed changes go back out.
			kept := l.Clone()
			res.Merged = append(res.Merged, kept)
			if env.Pending() {
				res.PendingPush = append(res.PendingPush, kept)
			}
			continue
		}
		delete(remoteByID, env.ID)

		renv := r.Env()
		switch {
		case InConflict(env, renv):
			winner, ev := Resolve(kind, l, r, now)
			res.Conflicts = append(res.Conflicts, ev)
			res.Merged = append(res.Merged, winner)
			// The resolved value must reach the remote store even when the
			// remote side won, so the loser's replica converges too.
			res.PendingPush = append(res.PendingPush, winner)

		case env.LastSyncedAt != nil && renv.UpdatedAt.After(*env.LastSyncedAt):
			// Only the remote side moved: adopt it, nothing to push.
			adopted := r.Clone()
			adopted.Env().StampSynced(now)
			res.Merged = append(res.Merged, adopted)

		case env.Pending():
			// Only the local side moved (or it was never synced).
			kept := l.Clone()
			res.Merged = append(res.Merged, kept)
			res.PendingPush = append(res.PendingPush, kept)

		default:
			res.Merged = append(res.Merged, l.Clone())
		}
	}

	// Whatever was not consumed above exists only remotely: adopt it.
	// Iterate the input slice, not the map, to keep output order stable.
	for _, r := range remote {
		env := r.Env()
		if _, ok := remoteByID[env.ID]; !ok {
			continue
		}
		delete(remoteByID, env.ID)
		adopted := r.Clone()
		adopted.Env().StampSynced(now)
		res.Merged = append(res.Merged, adopted)
	}

	return res
}

// PlanSingleton reconciles the per-user settings record. A nil remote means
// no remote record exists yet; the local value is then pushed unconditionally
// as the initial remote state.
func PlanSingleton[T Entity[T]](kind models.Kind, local, remote T, hasRemote bool, now time.Time) (merged T, push bool, ev *ConflictEvent) {
	env := local.Env()

	if !hasRemote {
		return local.Clone(), true, nil
	}

	renv := remote.Env()
	switch {
	case InConflict(env, renv):
		winner, event := Resolve(kind, local, remote, now)
		return winner, true, &event

	case env.LastSyncedAt != nil && renv.UpdatedAt.After(*env.LastSyncedAt):
		adopted := remote.Clone()
		adopted.Env().StampSynced(now)
		return adopted, false, nil

	case env.Pending():
		return local.Clone(), true, nil

	default:
		return local.Clone(), false, nil
	}
}
