package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aleksv/spendsync/internal/client/store"
	"github.com/aleksv/spendsync/internal/common"
	"github.com/aleksv/spendsync/internal/models"
	"github.com/aleksv/spendsync/internal/syncx"
)

// SettingsParams carries user-editable preference fields.
type SettingsParams struct {
	Currency      string
	WeekStartDay  int
	MonthStartDay int
	Theme         string
	ShowDecimals  bool
}

type SettingsService interface {
	// Get returns the device settings, creating the defaults on first access.
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, p SettingsParams) (*models.Settings, error)
}

type settingsService struct {
	store *store.Store
	clock syncx.Clock
}

func NewSettingsService(s *store.Store, clock syncx.Clock) SettingsService {
	return &settingsService{store: s, clock: clock}
}

func (s *settingsService) Get(ctx context.Context) (*models.Settings, error) {
	st, err := s.store.LoadSettings(ctx)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	// First run: seed defaults so the record takes part in the next sync.
	st = models.DefaultSettings()
	st.ID = "settings"
	st.Touch(s.clock())
	if err := s.store.SaveSettings(ctx, st); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	return st, nil
}

func (s *settingsService) Update(ctx context.Context, p SettingsParams) (*models.Settings, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	st.Currency = p.Currency
	st.WeekStartDay = p.WeekStartDay
	st.MonthStartDay = p.MonthStartDay
	st.Theme = p.Theme
	st.ShowDecimals = p.ShowDecimals
	st.Touch(s.clock())

	if err := s.store.SaveSettings(ctx, st); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	return st, nil
}
