package records

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/aleksv/spendsync/internal/common"
	"github.com/aleksv/spendsync/internal/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var expenseCols = []string{
	"id", "amount", "currency", "original_amount", "original_currency",
	"category_id", "description", "date", "receipt_key",
	"updated_at", "last_synced_at", "deleted",
}

func TestSelectExpenses_ScansNullables(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	date := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	updated := date.Add(time.Hour)
	synced := updated.Add(time.Minute)

	rows := sqlmock.NewRows(expenseCols).
		AddRow("e1", 12.5, "EUR", nil, "", "c1", "lunch", date, "", updated, nil, false).
		AddRow("e2", 40.0, "EUR", 45.5, "USD", "", "hotel", date, "receipts/u/x.jpg", updated, synced, true)

	mock.ExpectQuery(`(?s)SELECT\s+id,\s*amount,.*FROM\s+expenses\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := repo.SelectExpenses(context.Background(), "u1")
	if err != nil {
		t.Fatalf("SelectExpenses error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}

	if got[0].OriginalAmount != nil || got[0].LastSyncedAt != nil || got[0].Deleted {
		t.Fatalf("null columns must stay nil: %+v", got[0])
	}
	if got[1].OriginalAmount == nil || *got[1].OriginalAmount != 45.5 {
		t.Fatalf("unexpected original amount: %+v", got[1].OriginalAmount)
	}
	if got[1].LastSyncedAt == nil || !got[1].LastSyncedAt.Equal(synced) {
		t.Fatalf("unexpected last_synced_at: %+v", got[1].LastSyncedAt)
	}
	if !got[1].Deleted {
		t.Fatalf("tombstone flag lost")
	}
}

func TestUpsertExpense_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+expenses\s*\(user_id,\s*id,.*ON\s+CONFLICT\s*\(user_id,\s*id\)\s+DO\s+UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	e := &models.Expense{
		Envelope: models.Envelope{ID: "e1", UpdatedAt: time.Now().UTC()},
		Amount:   12.5,
		Currency: "EUR",
		Date:     time.Now().UTC(),
	}
	if err := repo.UpsertExpense(context.Background(), "u1", e); err != nil {
		t.Fatalf("UpsertExpense error: %v", err)
	}
}

func TestGetSettings_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+id,\s*currency,.*FROM\s+settings\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs("u1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetSettings(context.Background(), "u1")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpsertSettings_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+settings\s*\(user_id,\s*id,.*ON\s+CONFLICT\s*\(user_id\)\s+DO\s+UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := models.DefaultSettings()
	s.ID = "settings"
	s.UpdatedAt = time.Now().UTC()
	if err := repo.UpsertSettings(context.Background(), "u1", s); err != nil {
		t.Fatalf("UpsertSettings error: %v", err)
	}
}
