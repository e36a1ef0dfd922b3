package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksv/spendsync/internal/common"
	"github.com/aleksv/spendsync/internal/models"

	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleExpense(id string) *models.Expense {
	orig := 23.5
	synced := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	return &models.Expense{
		Envelope: models.Envelope{
			ID:           id,
			UpdatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			LastSyncedAt: &synced,
		},
		Amount:           19.99,
		Currency:         "EUR",
		OriginalAmount:   &orig,
		OriginalCurrency: "USD",
		CategoryID:       "cat1",
		Description:      "lunch",
		Date:             time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
		ReceiptKey:       "receipts/u1/r1",
	}
}

func TestExpenses_RoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	e := sampleExpense("e1")
	require.NoError(t, s.UpsertExpense(ctx, e))

	got, err := s.GetExpense(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, e, got)

	// update the same row
	e.Amount = 25
	e.Deleted = true
	e.LastSyncedAt = nil
	require.NoError(t, s.UpsertExpense(ctx, e))

	got, err = s.GetExpense(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 25.0, got.Amount)
	assert.True(t, got.Deleted)
	assert.Nil(t, got.LastSyncedAt)
}

func TestExpenses_NilOptionalFields(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	e := sampleExpense("e1")
	e.OriginalAmount = nil
	e.OriginalCurrency = ""
	e.LastSyncedAt = nil
	require.NoError(t, s.UpsertExpense(ctx, e))

	got, err := s.GetExpense(ctx, "e1")
	require.NoError(t, err)
	assert.Nil(t, got.OriginalAmount)
	assert.Nil(t, got.LastSyncedAt)
}

func TestGetExpense_NotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.GetExpense(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSaveExpenses_ReplacesSnapshot(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertExpense(ctx, sampleExpense("old")))

	fresh := []*models.Expense{sampleExpense("a"), sampleExpense("b")}
	require.NoError(t, s.SaveExpenses(ctx, fresh))

	all, err := s.LoadExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	_, err = s.GetExpense(ctx, "old")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCountExpensesInCategory_IgnoresTombstones(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	live := sampleExpense("e1")
	dead := sampleExpense("e2")
	dead.Deleted = true
	other := sampleExpense("e3")
	other.CategoryID = "cat2"
	require.NoError(t, s.SaveExpenses(ctx, []*models.Expense{live, dead, other}))

	n, err := s.CountExpensesInCategory(ctx, "cat1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCategories_RoundTripAndDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	c := &models.Category{
		Envelope:  models.Envelope{ID: "c1", UpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		Name:      "Groceries",
		Color:     "#00ff00",
		Icon:      "cart",
		IsDefault: true,
	}
	require.NoError(t, s.UpsertCategory(ctx, c))

	got, err := s.GetCategory(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c, got)

	require.NoError(t, s.DeleteCategory(ctx, "c1"))
	err = s.DeleteCategory(ctx, "c1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSettings_NotFoundThenRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.LoadSettings(ctx)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	st := models.DefaultSettings()
	st.ID = "settings"
	st.UpdatedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveSettings(ctx, st))

	got, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, st, got)

	st.Currency = "USD"
	require.NoError(t, s.SaveSettings(ctx, st))
	got, err = s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Currency)
}

func TestStatus_DefaultAndRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	st, err := s.LoadStatus(ctx)
	require.NoError(t, err)
	assert.Nil(t, st.LastSyncedAt)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveStatus(ctx, models.SyncStatus{LastSyncedAt: &at}))

	st, err = s.LoadStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, st.LastSyncedAt)
	assert.Equal(t, at, *st.LastSyncedAt)
}
