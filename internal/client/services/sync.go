package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aleksv/spendsync/internal/client/store"
	"github.com/aleksv/spendsync/internal/common"
	"github.com/aleksv/spendsync/internal/logging"
	"github.com/aleksv/spendsync/internal/models"
	"github.com/aleksv/spendsync/internal/syncx"
)

type SyncService interface {
	// Run executes one full sync cycle and returns its consolidated status.
	Run(ctx context.Context, userID string) (models.SyncStatus, error)
}

type syncService struct {
	store        *store.Store
	orchestrator *syncx.Orchestrator
	log          logging.Logger
}

func NewSyncService(s *store.Store, remote syncx.RemoteStore, clock syncx.Clock, log logging.Logger) SyncService {
	return &syncService{
		store:        s,
		orchestrator: syncx.NewOrchestrator(s, remote, clock, log),
		log:          log,
	}
}

func (s *syncService) Run(ctx context.Context, userID string) (models.SyncStatus, error) {
	expenses, err := s.store.LoadExpenses(ctx)
	if err != nil {
		return models.SyncStatus{}, fmt.Errorf("error loading expenses: %w", err)
	}
	categories, err := s.store.LoadCategories(ctx)
	if err != nil {
		return models.SyncStatus{}, fmt.Errorf("error loading categories: %w", err)
	}
	settings, err := s.store.LoadSettings(ctx)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return models.SyncStatus{}, fmt.Errorf("error loading settings: %w", err)
	}
	prev, err := s.store.LoadStatus(ctx)
	if err != nil {
		return models.SyncStatus{}, fmt.Errorf("error loading sync state: %w", err)
	}

	res, err := s.orchestrator.SyncAll(ctx, userID, expenses, categories, settings, prev)
	if err != nil {
		return models.SyncStatus{}, err
	}

	if err := s.store.SaveStatus(ctx, res.Status); err != nil {
		return res.Status, fmt.Errorf("error saving sync state: %w", err)
	}

	s.log.Info(ctx, "sync cycle finished",
		"pending", res.Status.PendingSyncItems,
		"conflicts", res.Status.ResolvedConflicts,
		"is_pending", res.Status.IsPending,
	)
	return res.Status, nil
}
