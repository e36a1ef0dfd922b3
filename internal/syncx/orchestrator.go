package syncx

import (
	"context"
	"sync"

	"github.com/aleksv/spendsync/internal/logging"
	"github.com/aleksv/spendsync/internal/models"
)

// Orchestrator drives one merge+push cycle per entity kind and aggregates the
// outcome. The three kinds are independent: a failure in one never aborts the
// others, and the best merged state achievable is still committed locally.
type Orchestrator struct {
	local  LocalStore
	remote RemoteStore
	pusher *Pusher
	clock  Clock
	log    logging.Logger
}

func NewOrchestrator(local LocalStore, remote RemoteStore, clock Clock, log logging.Logger) *Orchestrator {
	return &Orchestrator{
		local:  local,
		remote: remote,
		pusher: NewPusher(remote, clock),
		clock:  clock,
		log:    log,
	}
}

// Result carries the merged snapshots and the consolidated status of one
// SyncAll cycle. The snapshots replace the caller's in-memory state.
type Result struct {
	Expenses   []*models.Expense
	Categories []*models.Category
	Settings   *models.Settings
	Status     models.SyncStatus
}

type kindOutcome struct {
	pending   int
	conflicts int
	err       error
}

// SyncAll reconciles all three collections for the user concurrently.
//
// The caller must treat the passed snapshots as immutable while the cycle is
// in flight (single-writer-per-device); the returned snapshots are the new
// authoritative local state. prev is the status of the previous cycle, used
// to retain LastSyncedAt when pending items remain.
func (o *Orchestrator) SyncAll(ctx context.Context, userID string,
	expenses []*models.Expense, categories []*models.Category, settings *models.Settings,
	prev models.SyncStatus) (*Result, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	var expOut, catOut, setOut kindOutcome

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		res.Expenses, expOut = o.syncExpenses(ctx, userID, expenses)
	}()
	go func() {
		defer wg.Done()
		res.Categories, catOut = o.syncCategories(ctx, userID, categories)
	}()
	go func() {
		defer wg.Done()
		res.Settings, setOut = o.syncSettings(ctx, userID, settings)
	}()
	wg.Wait()

	st := models.SyncStatus{
		PendingSyncItems:  expOut.pending + catOut.pending + setOut.pending,
		ResolvedConflicts: expOut.conflicts + catOut.conflicts + setOut.conflicts,
	}
	st.IsPending = st.PendingSyncItems > 0 || expOut.err != nil || catOut.err != nil || setOut.err != nil
	if st.IsPending {
		st.LastSyncedAt = prev.LastSyncedAt
	} else {
		now := o.clock()
		st.LastSyncedAt = &now
	}
	res.Status = st

	return res, nil
}

func (o *Orchestrator) syncExpenses(ctx context.Context, userID string, local []*models.Expense) ([]*models.Expense, kindOutcome) {
	var out kindOutcome

	remote, err := o.remote.QueryExpenses(ctx, userID)
	if err != nil {
		o.log.Error(ctx, "remote query failed", "kind", models.KindExpenses, "error", err)
		out.err = err
		out.pending = countPending(local)
		return local, out
	}

	plan := Plan(models.KindExpenses, local, remote, o.clock())
	o.reportPlan(ctx, models.KindExpenses, plan.Conflicts, plan.SkippedRemote)
	out.conflicts = len(plan.Conflicts)

	merged := plan.Merged
	if _, err := o.pusher.PushExpenses(ctx, userID, plan.PendingPush); err != nil {
		o.log.Error(ctx, "remote push failed", "kind", models.KindExpenses, "error", err)
		out.err = err
	} else {
		// Deletion is confirmed remotely; the tombstones have done their job.
		merged = dropConfirmedTombstones(merged)
	}

	if err := o.local.SaveExpenses(ctx, merged); err != nil {
		o.log.Error(ctx, "local commit failed", "kind", models.KindExpenses, "error", err)
		if out.err == nil {
			out.err = err
		}
	}

	out.pending = countPending(merged)
	return merged, out
}

func (o *Orchestrator) syncCategories(ctx context.Context, userID string, local []*models.Category) ([]*models.Category, kindOutcome) {
	var out kindOutcome

	remote, err := o.remote.QueryCategories(ctx, userID)
	if err != nil {
		o.log.Error(ctx, "remote query failed", "kind", models.KindCategories, "error", err)
		out.err = err
		out.pending = countPending(local)
		return local, out
	}

	plan := Plan(models.KindCategories, local, remote, o.clock())
	o.reportPlan(ctx, models.KindCategories, plan.Conflicts, plan.SkippedRemote)
	out.conflicts = len(plan.Conflicts)

	if _, err := o.pusher.PushCategories(ctx, userID, plan.PendingPush); err != nil {
		o.log.Error(ctx, "remote push failed", "kind", models.KindCategories, "error", err)
		out.err = err
	}

	if err := o.local.SaveCategories(ctx, plan.Merged); err != nil {
		o.log.Error(ctx, "local commit failed", "kind", models.KindCategories, "error", err)
		if out.err == nil {
			out.err = err
		}
	}

	out.pending = countPending(plan.Merged)
	return plan.Merged, out
}

func (o *Orchestrator) syncSettings(ctx context.Context, userID string, local *models.Settings) (*models.Settings, kindOutcome) {
	var out kindOutcome

	remote, err := o.remote.GetSettings(ctx, userID)
	if err != nil {
		o.log.Error(ctx, "remote query failed", "kind", models.KindSettings, "error", err)
		out.err = err
		if local != nil && local.Pending() {
			out.pending = 1
		}
		return local, out
	}

	// A device with no local settings yet simply adopts the remote record.
	if local == nil {
		if remote == nil {
			return nil, out
		}
		adopted := remote.Clone()
		adopted.StampSynced(o.clock())
		if err := o.local.SaveSettings(ctx, adopted); err != nil {
			o.log.Error(ctx, "local commit failed", "kind", models.KindSettings, "error", err)
			out.err = err
		}
		return adopted, out
	}

	merged, push, ev := PlanSingleton(models.KindSettings, local, remote, remote != nil, o.clock())
	if ev != nil {
		out.conflicts = 1
		o.reportPlan(ctx, models.KindSettings, []ConflictEvent{*ev}, 0)
	}

	if push {
		if _, err := o.pusher.PushSettings(ctx, userID, merged); err != nil {
			o.log.Error(ctx, "remote push failed", "kind", models.KindSettings, "error", err)
			out.err = err
		}
	}

	if err := o.local.SaveSettings(ctx, merged); err != nil {
		o.log.Error(ctx, "local commit failed", "kind", models.KindSettings, "error", err)
		if out.err == nil {
			out.err = err
		}
	}

	if merged.Pending() {
		out.pending = 1
	}
	return merged, out
}

func (o *Orchestrator) reportPlan(ctx context.Context, kind models.Kind, conflicts []ConflictEvent, skipped int) {
	for _, ev := range conflicts {
		o.log.Warn(ctx, "conflict resolved",
			"kind", ev.Kind,
			"id", ev.ID,
			"local_updated_at", ev.LocalUpdatedAt,
			"remote_updated_at", ev.RemoteUpdatedAt,
			"remote_won", ev.RemoteWon,
		)
	}
	if skipped > 0 {
		o.log.Warn(ctx, "skipped malformed remote records", "kind", kind, "count", skipped)
	}
}

func countPending[T Entity[T]](items []T) int {
	n := 0
	for _, it := range items {
		if it.Env().Pending() {
			n++
		}
	}
	return n
}

// dropConfirmedTombstones removes tombstoned expenses whose deletion the
// remote store has acknowledged. Unconfirmed tombstones stay so the delete is
// retried instead of lost.
func dropConfirmedTombstones(items []*models.Expense) []*models.Expense {
	kept := items[:0]
	for _, e := range items {
		if e.Deleted && !e.Pending() {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
