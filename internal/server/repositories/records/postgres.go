package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aleksv/spendsync/internal/common"
	"github.com/aleksv/spendsync/internal/dbx"
	"github.com/aleksv/spendsync/internal/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx), so batch writes can run inside one transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) SelectExpenses(ctx context.Context, userID string) ([]*models.Expense, error) {
	query := `
		SELECT id, amount, currency, original_amount, original_currency,
		       category_id, description, date, receipt_key,
		       updated_at, last_synced_at, deleted
		FROM expenses
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Expense
	for rows.Next() {
		var (
			e      models.Expense
			orig   sql.NullFloat64
			synced sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.Amount, &e.Currency, &orig, &e.OriginalCurrency,
			&e.CategoryID, &e.Description, &e.Date, &e.ReceiptKey,
			&e.UpdatedAt, &synced, &e.Deleted); err != nil {
			return nil, err
		}
		if orig.Valid {
			v := orig.Float64
			e.OriginalAmount = &v
		}
		if synced.Valid {
			t := synced.Time.UTC()
			e.LastSyncedAt = &t
		}
		e.Date = e.Date.UTC()
		e.UpdatedAt = e.UpdatedAt.UTC()
		result = append(result, &e)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) UpsertExpense(ctx context.Context, userID string, e *models.Expense) error {
	query := `
		INSERT INTO expenses (user_id, id, amount, currency, original_amount, original_currency,
			category_id, description, date, receipt_key, updated_at, last_synced_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, id) DO UPDATE SET
			amount = excluded.amount,
			currency = excluded.currency,
			original_amount = excluded.original_amount,
			original_currency = excluded.original_currency,
			category_id = excluded.category_id,
			description = excluded.description,
			date = excluded.date,
			receipt_key = excluded.receipt_key,
			updated_at = excluded.updated_at,
			last_synced_at = excluded.last_synced_at,
			deleted = excluded.deleted
	`
	var orig any
	if e.OriginalAmount != nil {
		orig = *e.OriginalAmount
	}
	var synced any
	if e.LastSyncedAt != nil {
		synced = *e.LastSyncedAt
	}
	if _, err := r.db.ExecContext(ctx, query,
		userID, e.ID, e.Amount, e.Currency, orig, e.OriginalCurrency,
		e.CategoryID, e.Description, e.Date, e.ReceiptKey,
		e.UpdatedAt, synced, e.Deleted); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteExpenses(ctx context.Context, userID string, ids []string) error {
	query := `
		DELETE FROM expenses
		WHERE user_id = $1 AND id = ANY($2)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, ids); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SelectCategories(ctx context.Context, userID string) ([]*models.Category, error) {
	query := `
		SELECT id, name, color, icon, is_default, updated_at, last_synced_at
		FROM categories
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Category
	for rows.Next() {
		var (
			c      models.Category
			synced sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Icon, &c.IsDefault,
			&c.UpdatedAt, &synced); err != nil {
			return nil, err
		}
		if synced.Valid {
			t := synced.Time.UTC()
			c.LastSyncedAt = &t
		}
		c.UpdatedAt = c.UpdatedAt.UTC()
		result = append(result, &c)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) UpsertCategory(ctx context.Context, userID string, c *models.Category) error {
	query := `
		INSERT INTO categories (user_id, id, name, color, icon, is_default, updated_at, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			icon = excluded.icon,
			is_default = excluded.is_default,
			updated_at = excluded.updated_at,
			last_synced_at = excluded.last_synced_at
	`
	var synced any
	if c.LastSyncedAt != nil {
		synced = *c.LastSyncedAt
	}
	if _, err := r.db.ExecContext(ctx, query,
		userID, c.ID, c.Name, c.Color, c.Icon, c.IsDefault, c.UpdatedAt, synced); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetSettings(ctx context.Context, userID string) (*models.Settings, error) {
	query := `
		SELECT id, currency, week_start_day, month_start_day, theme, show_decimals,
		       updated_at, last_synced_at
		FROM settings
		WHERE user_id = $1
	`
	var (
		s      models.Settings
		synced sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.ID, &s.Currency,
		&s.WeekStartDay, &s.MonthStartDay, &s.Theme, &s.ShowDecimals,
		&s.UpdatedAt, &synced)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if synced.Valid {
		t := synced.Time.UTC()
		s.LastSyncedAt = &t
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

func (r *PostgresRepository) UpsertSettings(ctx context.Context, userID string, s *models.Settings) error {
	query := `
		INSERT INTO settings (user_id, id, currency, week_start_day, month_start_day,
			theme, show_decimals, updated_at, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			id = excluded.id,
			currency = excluded.currency,
			week_start_day = excluded.week_start_day,
			month_start_day = excluded.month_start_day,
			theme = excluded.theme,
			show_decimals = excluded.show_decimals,
			updated_at = excluded.updated_at,
			last_synced_at = excluded.last_synced_at
	`
	var synced any
	if s.LastSyncedAt != nil {
		synced = *s.LastSyncedAt
	}
	if _, err := r.db.ExecContext(ctx, query,
		userID, s.ID, s.Currency, s.WeekStartDay, s.MonthStartDay,
		s.Theme, s.ShowDecimals, s.UpdatedAt, synced); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
