package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/aleksv/spendsync/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^\s*INSERT\s+INTO\s+refresh_tokens\s*\(user_id,\s*token,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`
const findQ = `(?s)^\s*SELECT\s+user_id,\s*expires_at\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`
const deleteQ = `(?s)^\s*DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).
		WithArgs("u1", "tok", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), "u1", "tok", time.Hour); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).
		WithArgs("u1", "tok", sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	if err := repo.Create(context.Background(), "u1", "tok", time.Hour); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFind_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	expires := time.Now().Add(time.Hour).UTC()
	rows := sqlmock.NewRows([]string{"user_id", "expires_at"}).AddRow("u1", expires)
	mock.ExpectQuery(findQ).
		WithArgs("tok").
		WillReturnRows(rows)

	got, err := repo.Find(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if got.UserID != "u1" || got.Token != "tok" || !got.Expires.Equal(expires) {
		t.Fatalf("unexpected token: %+v", got)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "tok"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}
