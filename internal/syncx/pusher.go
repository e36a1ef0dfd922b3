package syncx

import (
	"context"
	"time"

	"github.com/aleksv/spendsync/internal/models"
)

// Pusher submits one kind's pending records to the remote store. All writes
// for a kind go out as batches; if any batch fails, no pending item is marked
// synced, so the whole set is retried on the next cycle (all-or-nothing per
// kind, never cross-kind).
type Pusher struct {
	remote RemoteStore
	clock  Clock
}

func NewPusher(remote RemoteStore, clock Clock) *Pusher {
	return &Pusher{remote: remote, clock: clock}
}

// PushExpenses writes the pending expenses out: tombstoned records become
// remote deletes, the rest upserts. On success every pushed record's
// LastSyncedAt is advanced to the push timestamp, which is returned.
func (p *Pusher) PushExpenses(ctx context.Context, userID string, pending []*models.Expense) (time.Time, error) {
	var upserts []*models.Expense
	var deletes []string
	for _, e := range pending {
		if e.Deleted {
			deletes = append(deletes, e.ID)
		} else {
			upserts = append(upserts, e)
		}
	}

	if len(upserts) > 0 {
		if err := p.remote.BatchUpsertExpenses(ctx, userID, upserts); err != nil {
			return time.Time{}, err
		}
	}
	if len(deletes) > 0 {
		if err := p.remote.BatchDeleteExpenses(ctx, userID, deletes); err != nil {
			return time.Time{}, err
		}
	}

	now := p.clock()
	for _, e := range pending {
		e.StampSynced(now)
	}
	return now, nil
}

// PushCategories writes the pending categories out. Categories carry no
// tombstones, so the batch is upserts only.
func (p *Pusher) PushCategories(ctx context.Context, userID string, pending []*models.Category) (time.Time, error) {
	if len(pending) > 0 {
		if err := p.remote.BatchUpsertCategories(ctx, userID, pending); err != nil {
			return time.Time{}, err
		}
	}
	now := p.clock()
	for _, c := range pending {
		c.StampSynced(now)
	}
	return now, nil
}

// PushSettings writes the per-user settings record.
func (p *Pusher) PushSettings(ctx context.Context, userID string, s *models.Settings) (time.Time, error) {
	if err := p.remote.PutSettings(ctx, userID, s); err != nil {
		return time.Time{}, err
	}
	now := p.clock()
	s.StampSynced(now)
	return now, nil
}
