package syncx

import (
	"context"

	"github.com/aleksv/spendsync/internal/models"
)

// RemoteStore is the shared remote document store the engine converges.
// Query results are ordered by updated_at descending (cosmetic; the planner
// does not rely on order). Batch operations are atomic-or-nothing within one
// call. GetSettings returns (nil, nil) when no record exists for the user.
type RemoteStore interface {
	QueryExpenses(ctx context.Context, userID string) ([]*models.Expense, error)
	BatchUpsertExpenses(ctx context.Context, userID string, items []*models.Expense) error
	BatchDeleteExpenses(ctx context.Context, userID string, ids []string) error

	QueryCategories(ctx context.Context, userID string) ([]*models.Category, error)
	BatchUpsertCategories(ctx context.Context, userID string, items []*models.Category) error

	GetSettings(ctx context.Context, userID string) (*models.Settings, error)
	PutSettings(ctx context.Context, userID string, s *models.Settings) error
}

// LocalStore persists merged snapshots on the device. Implementations must
// preserve envelope fields verbatim. Saves replace the whole collection: the
// merged snapshot is the new authoritative local state, not a patch.
type LocalStore interface {
	SaveExpenses(ctx context.Context, items []*models.Expense) error
	SaveCategories(ctx context.Context, items []*models.Category) error
	SaveSettings(ctx context.Context, s *models.Settings) error
}
