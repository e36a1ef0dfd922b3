// Package records provides persistence for the synchronized per-user
// collections: expenses, categories and settings.
package records

import (
	"context"

	"github.com/aleksv/spendsync/internal/models"
)

type Repository interface {
	// SelectExpenses returns the user's expenses, tombstones included,
	// ordered by updated_at descending.
	SelectExpenses(ctx context.Context, userID string) ([]*models.Expense, error)

	// UpsertExpense writes one expense row for the user.
	UpsertExpense(ctx context.Context, userID string, e *models.Expense) error

	// DeleteExpenses removes the rows with the given ids. Missing ids are
	// not an error (deletes are idempotent).
	DeleteExpenses(ctx context.Context, userID string, ids []string) error

	// SelectCategories returns the user's categories ordered by updated_at
	// descending.
	SelectCategories(ctx context.Context, userID string) ([]*models.Category, error)

	// UpsertCategory writes one category row for the user.
	UpsertCategory(ctx context.Context, userID string, c *models.Category) error

	// GetSettings returns the user's settings record, or common.ErrorNotFound.
	GetSettings(ctx context.Context, userID string) (*models.Settings, error)

	// UpsertSettings overwrites the user's settings record.
	UpsertSettings(ctx context.Context, userID string, s *models.Settings) error
}
