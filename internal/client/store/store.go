// Package store is the local SQLite persistence layer of the CLI. It holds
// the offline snapshot of all synchronized collections plus the sync cursor.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/aleksv/spendsync/internal/client/migrations"
	"github.com/aleksv/spendsync/internal/common"
	"github.com/aleksv/spendsync/internal/dbx"
	"github.com/aleksv/spendsync/internal/models"
)

// Store wraps the local SQLite database. All timestamps are persisted as Unix
// milliseconds (UTC); last_synced_at is NULL until the record has synced once.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (s *Store) Close() error { return s.db.Close() }

func msec(t time.Time) int64 { return t.UnixMilli() }

func msecp(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.UnixMilli()
	return &v
}

func fromMsec(v int64) time.Time { return time.UnixMilli(v).UTC() }

func fromMsecp(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMsec(v.Int64)
	return &t
}

// --- expenses ---

const expenseColumns = `id, amount, currency, original_amount, original_currency,
	category_id, description, date, receipt_key, updated_at, last_synced_at, deleted`

func scanExpense(rows *sql.Rows) (*models.Expense, error) {
	var (
		e        models.Expense
		orig     sql.NullFloat64
		date     int64
		updated  int64
		synced   sql.NullInt64
		deleted  int
		origCurr string
	)
	if err := rows.Scan(&e.ID, &e.Amount, &e.Currency, &orig, &origCurr,
		&e.CategoryID, &e.Description, &date, &e.ReceiptKey, &updated, &synced, &deleted); err != nil {
		return nil, err
	}
	if orig.Valid {
		v := orig.Float64
		e.OriginalAmount = &v
	}
	e.OriginalCurrency = origCurr
	e.Date = fromMsec(date)
	e.UpdatedAt = fromMsec(updated)
	e.LastSyncedAt = fromMsecp(synced)
	e.Deleted = deleted != 0
	return &e, nil
}

// LoadExpenses returns the full local snapshot, tombstones included.
func (s *Store) LoadExpenses(ctx context.Context) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `select `+expenseColumns+` from expenses order by date desc, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select expenses: %w", err)
	}
	defer rows.Close()

	var result []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetExpense returns one expense by id, tombstoned or not.
func (s *Store) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `select `+expenseColumns+` from expenses where id=?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select expense: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, common.ErrorNotFound
	}
	return scanExpense(rows)
}

func upsertExpense(ctx context.Context, tx dbx.DBTX, e *models.Expense) error {
	query := `insert into expenses (` + expenseColumns + `)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		on conflict(id) do update set
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
			deleted = excluded.deleted`

	var orig any
	if e.OriginalAmount != nil {
		orig = *e.OriginalAmount
	}
	var synced any
	if v := msecp(e.LastSyncedAt); v != nil {
		synced = *v
	}
	_, err := tx.ExecContext(ctx, query,
		e.ID, e.Amount, e.Currency, orig, e.OriginalCurrency,
		e.CategoryID, e.Description, msec(e.Date), e.ReceiptKey,
		msec(e.UpdatedAt), synced, e.Deleted)
	if err != nil {
		return fmt.Errorf("failed to upsert expense: %w", err)
	}
	return nil
}

// UpsertExpense writes a single expense row.
func (s *Store) UpsertExpense(ctx context.Context, e *models.Expense) error {
	return upsertExpense(ctx, s.db, e)
}

// SaveExpenses replaces the whole expense snapshot in one transaction. The
// sync engine commits merged snapshots through this.
func (s *Store) SaveExpenses(ctx context.Context, items []*models.Expense) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `delete from expenses`); err != nil {
			return fmt.Errorf("failed to clear expenses: %w", err)
		}
		for _, e := range items {
			if err := upsertExpense(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// CountExpensesInCategory counts live expenses referencing the category.
func (s *Store) CountExpensesInCategory(ctx context.Context, categoryID string) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`select count(*) from expenses where category_id=? and deleted=0`, categoryID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return n, nil
}

// --- categories ---

const categoryColumns = `id, name, color, icon, is_default, updated_at, last_synced_at`

func scanCategory(rows *sql.Rows) (*models.Category, error) {
	var (
		c         models.Category
		isDefault int
		updated   int64
		synced    sql.NullInt64
	)
	if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Icon, &isDefault, &updated, &synced); err != nil {
		return nil, err
	}
	c.IsDefault = isDefault != 0
	c.UpdatedAt = fromMsec(updated)
	c.LastSyncedAt = fromMsecp(synced)
	return &c, nil
}

// LoadCategories returns all categories.
func (s *Store) LoadCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `select `+categoryColumns+` from categories order by name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select categories: %w", err)
	}
	defer rows.Close()

	var result []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// GetCategory returns one category by id.
func (s *Store) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `select `+categoryColumns+` from categories where id=?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select category: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, common.ErrorNotFound
	}
	return scanCategory(rows)
}

func upsertCategory(ctx context.Context, tx dbx.DBTX, c *models.Category) error {
	query := `insert into categories (` + categoryColumns + `)
		values (?, ?, ?, ?, ?, ?, ?)
		on conflict(id) do update set
			name = excluded.name,
			color = excluded.color,
			icon = excluded.icon,
			is_default = excluded.is_default,
			updated_at = excluded.updated_at,
			last_synced_at = excluded.last_synced_at`

	var synced any
	if v := msecp(c.LastSyncedAt); v != nil {
		synced = *v
	}
	_, err := tx.ExecContext(ctx, query,
		c.ID, c.Name, c.Color, c.Icon, c.IsDefault, msec(c.UpdatedAt), synced)
	if err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}
	return nil
}

// UpsertCategory writes a single category row.
func (s *Store) UpsertCategory(ctx context.Context, c *models.Category) error {
	return upsertCategory(ctx, s.db, c)
}

// DeleteCategory removes the category row. The caller is responsible for the
// no-live-expense guard.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from categories where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrorNotFound
	}
	return nil
}

// SaveCategories replaces the whole category snapshot in one transaction.
func (s *Store) SaveCategories(ctx context.Context, items []*models.Category) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `delete from categories`); err != nil {
			return fmt.Errorf("failed to clear categories: %w", err)
		}
		for _, c := range items {
			if err := upsertCategory(ctx, tx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- settings ---

// LoadSettings returns the settings record, or common.ErrorNotFound if the
// device has none yet.
func (s *Store) LoadSettings(ctx context.Context) (*models.Settings, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, currency, week_start_day, month_start_day, theme, show_decimals,
			updated_at, last_synced_at from settings limit 1`)

	var (
		st       models.Settings
		decimals int
		updated  int64
		synced   sql.NullInt64
	)
	err := row.Scan(&st.ID, &st.Currency, &st.WeekStartDay, &st.MonthStartDay,
		&st.Theme, &decimals, &updated, &synced)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select settings: %w", err)
	}
	st.ShowDecimals = decimals != 0
	st.UpdatedAt = fromMsec(updated)
	st.LastSyncedAt = fromMsecp(synced)
	return &st, nil
}

// SaveSettings overwrites the settings record.
func (s *Store) SaveSettings(ctx context.Context, st *models.Settings) error {
	query := `insert into settings
		(id, currency, week_start_day, month_start_day, theme, show_decimals, updated_at, last_synced_at)
		values (?, ?, ?, ?, ?, ?, ?, ?)
		on conflict(id) do update set
			currency = excluded.currency,
			week_start_day = excluded.week_start_day,
			month_start_day = excluded.month_start_day,
			theme = excluded.theme,
			show_decimals = excluded.show_decimals,
			updated_at = excluded.updated_at,
			last_synced_at = excluded.last_synced_at`

	var synced any
	if v := msecp(st.LastSyncedAt); v != nil {
		synced = *v
	}
	_, err := s.db.ExecContext(ctx, query,
		st.ID, st.Currency, st.WeekStartDay, st.MonthStartDay,
		st.Theme, st.ShowDecimals, msec(st.UpdatedAt), synced)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// --- sync cursor ---

// LoadStatus returns the persisted cursor of the last fully-successful cycle.
// A device that never synced gets a zero-value status.
func (s *Store) LoadStatus(ctx context.Context) (models.SyncStatus, error) {
	row := s.db.QueryRowContext(ctx, `select last_synced_at from sync_state where id=1`)

	var synced sql.NullInt64
	err := row.Scan(&synced)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncStatus{}, nil
	}
	if err != nil {
		return models.SyncStatus{}, fmt.Errorf("failed to select sync state: %w", err)
	}
	return models.SyncStatus{LastSyncedAt: fromMsecp(synced)}, nil
}

// SaveStatus persists the cycle cursor.
func (s *Store) SaveStatus(ctx context.Context, st models.SyncStatus) error {
	var synced any
	if v := msecp(st.LastSyncedAt); v != nil {
		synced = *v
	}
	_, err := s.db.ExecContext(ctx,
		`insert into sync_state (id, last_synced_at) values (1, ?)
		on conflict(id) do update set last_synced_at = excluded.last_synced_at`, synced)
	if err != nil {
		return fmt.Errorf("failed to save sync state: %w", err)
	}
	return nil
}
