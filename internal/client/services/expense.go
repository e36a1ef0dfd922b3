// Package services holds the client-side application services: local CRUD on
// the offline snapshot, summaries, receipt handling, auth and the sync cycle.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aleksv/spendsync/internal/client/store"
	"github.com/aleksv/spendsync/internal/common"
	"github.com/aleksv/spendsync/internal/models"
	"github.com/aleksv/spendsync/internal/syncx"
)

// ExpenseParams carries user-editable expense fields.
type ExpenseParams struct {
	Amount           float64
	Currency         string
	OriginalAmount   *float64
	OriginalCurrency string
	CategoryID       string
	Description      string
	Date             time.Time
}

// CategoryTotal is one row of a monthly summary.
type CategoryTotal struct {
	CategoryID string
	Total      float64
}

// MonthlySummary aggregates spending for one accounting month.
type MonthlySummary struct {
	From       time.Time
	To         time.Time
	Total      float64
	ByCategory []CategoryTotal
}

type ExpenseService interface {
	Add(ctx context.Context, p ExpenseParams) (*models.Expense, error)
	Update(ctx context.Context, id string, p ExpenseParams) (*models.Expense, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Expense, error)
	Summary(ctx context.Context, year int, month time.Month) (*MonthlySummary, error)
}

type expenseService struct {
	store    *store.Store
	settings SettingsService
	clock    syncx.Clock
}

func NewExpenseService(s *store.Store, settings SettingsService, clock syncx.Clock) ExpenseService {
	return &expenseService{store: s, settings: settings, clock: clock}
}

func (s *expenseService) validate(ctx context.Context, p ExpenseParams) error {
	if p.Amount <= 0 {
		return common.ErrorInvalidAmount
	}
	if p.CategoryID != "" {
		if _, err := s.store.GetCategory(ctx, p.CategoryID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorInvalidCategory
			}
			return err
		}
	}
	return nil
}

func (s *expenseService) Add(ctx context.Context, p ExpenseParams) (*models.Expense, error) {
	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}

	e := &models.Expense{
		Envelope:         models.Envelope{ID: uuid.NewString()},
		Amount:           p.Amount,
		Currency:         p.Currency,
		OriginalAmount:   p.OriginalAmount,
		OriginalCurrency: p.OriginalCurrency,
		CategoryID:       p.CategoryID,
		Description:      p.Description,
		Date:             p.Date,
	}
	e.Touch(s.clock())

	if err := s.store.UpsertExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	return e, nil
}

func (s *expenseService) Update(ctx context.Context, id string, p ExpenseParams) (*models.Expense, error) {
	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}

	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Deleted {
		return nil, common.ErrorNotFound
	}

	e.Amount = p.Amount
	e.Currency = p.Currency
	e.OriginalAmount = p.OriginalAmount
	e.OriginalCurrency = p.OriginalCurrency
	e.CategoryID = p.CategoryID
	e.Description = p.Description
	e.Date = p.Date
	e.Touch(s.clock())

	if err := s.store.UpsertExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	return e, nil
}

// Delete tombstones the expense so the deletion survives sync instead of
// being resurrected by the remote copy.
func (s *expenseService) Delete(ctx context.Context, id string) error {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if e.Deleted {
		return common.ErrorNotFound
	}

	e.Deleted = true
	e.Touch(s.clock())

	if err := s.store.UpsertExpense(ctx, e); err != nil {
		return fmt.Errorf("error deleting expense: %w", err)
	}
	return nil
}

// List returns live expenses, newest first.
func (s *expenseService) List(ctx context.Context) ([]*models.Expense, error) {
	all, err := s.store.LoadExpenses(ctx)
	if err != nil {
		return nil, err
	}
	live := make([]*models.Expense, 0, len(all))
	for _, e := range all {
		if !e.Deleted {
			live = append(live, e)
		}
	}
	return live, nil
}

// Summary totals live expenses for the accounting month containing the given
// calendar month. The month boundary follows the user's MonthStartDay setting.
func (s *expenseService) Summary(ctx context.Context, year int, month time.Month) (*MonthlySummary, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	from := time.Date(year, month, st.MonthStartDay, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	live, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	sum := &MonthlySummary{From: from, To: to}
	byCat := map[string]float64{}
	for _, e := range live {
		if e.Date.Before(from) || !e.Date.Before(to) {
			continue
		}
		sum.Total += e.Amount
		byCat[e.CategoryID] += e.Amount
	}

	for id, total := range byCat {
		sum.ByCategory = append(sum.ByCategory, CategoryTotal{CategoryID: id, Total: total})
	}
	sort.Slice(sum.ByCategory, func(i, j int) bool {
		if sum.ByCategory[i].Total != sum.ByCategory[j].Total {
			return sum.ByCategory[i].Total > sum.ByCategory[j].Total
		}
		return sum.ByCategory[i].CategoryID < sum.ByCategory[j].CategoryID
	})
	return sum, nil
}
