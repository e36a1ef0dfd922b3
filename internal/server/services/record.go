package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aleksv/spendsync/internal/common"
	"github.com/aleksv/spendsync/internal/dbx"
	"github.com/aleksv/spendsync/internal/models"
	"github.com/aleksv/spendsync/internal/server/cache"
	"github.com/aleksv/spendsync/internal/server/repositories/repomanager"
)

// RecordService serves the synchronized per-user collections. Reads go
// through the cache when one is configured; every write invalidates the
// affected collection.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       *cache.Cache
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager, c *cache.Cache) *RecordService {
	return &RecordService{db: db, repomanager: m, cache: c}
}

// QueryExpenses returns all of the user's expenses, tombstones included.
func (s *RecordService) QueryExpenses(ctx context.Context, userID string) ([]*models.Expense, error) {
	key := cache.CollectionKey(userID, string(models.KindExpenses))
	var cached []*models.Expense
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	repo := s.repomanager.Records(s.db)
	items, err := repo.SelectExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error selecting expenses: %w", err)
	}
	_ = s.cache.Set(ctx, key, items)
	return items, nil
}

// BatchUpsertExpenses writes the given expenses in one transaction.
func (s *RecordService) BatchUpsertExpenses(ctx context.Context, userID string, items []*models.Expense) error {
	for _, e := range items {
		if !e.Valid() {
			return common.ErrorInternal
		}
	}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Records(tx)
		for _, e := range items {
			if err := repo.UpsertExpense(ctx, userID, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error upserting expenses: %w", err)
	}
	return s.cache.Invalidate(ctx, cache.CollectionKey(userID, string(models.KindExpenses)))
}

// BatchDeleteExpenses removes the rows with the given ids. Unknown ids are
// ignored so a retried delete succeeds.
func (s *RecordService) BatchDeleteExpenses(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	repo := s.repomanager.Records(s.db)
	if err := repo.DeleteExpenses(ctx, userID, ids); err != nil {
		return fmt.Errorf("error deleting expenses: %w", err)
	}
	return s.cache.Invalidate(ctx, cache.CollectionKey(userID, string(models.KindExpenses)))
}

// QueryCategories returns all of the user's categories.
func (s *RecordService) QueryCategories(ctx context.Context, userID string) ([]*models.Category, error) {
	key := cache.CollectionKey(userID, string(models.KindCategories))
	var cached []*models.Category
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	repo := s.repomanager.Records(s.db)
	items, err := repo.SelectCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error selecting categories: %w", err)
	}
	_ = s.cache.Set(ctx, key, items)
	return items, nil
}

// BatchUpsertCategories writes the given categories in one transaction.
func (s *RecordService) BatchUpsertCategories(ctx context.Context, userID string, items []*models.Category) error {
	for _, c := range items {
		if !c.Valid() {
			return common.ErrorInternal
		}
	}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Records(tx)
		for _, c := range items {
			if err := repo.UpsertCategory(ctx, userID, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error upserting categories: %w", err)
	}
	return s.cache.Invalidate(ctx, cache.CollectionKey(userID, string(models.KindCategories)))
}

// GetSettings returns the user's settings record, or common.ErrorNotFound
// when the user has never pushed one.
func (s *RecordService) GetSettings(ctx context.Context, userID string) (*models.Settings, error) {
	key := cache.CollectionKey(userID, string(models.KindSettings))
	var cached models.Settings
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	repo := s.repomanager.Records(s.db)
	settings, err := repo.GetSettings(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error selecting settings: %w", err)
	}
	_ = s.cache.Set(ctx, key, settings)
	return settings, nil
}

// PutSettings overwrites the user's settings record.
func (s *RecordService) PutSettings(ctx context.Context, userID string, settings *models.Settings) error {
	if !settings.Valid() {
		return common.ErrorInternal
	}
	repo := s.repomanager.Records(s.db)
	if err := repo.UpsertSettings(ctx, userID, settings); err != nil {
		return fmt.Errorf("error upserting settings: %w", err)
	}
	return s.cache.Invalidate(ctx, cache.CollectionKey(userID, string(models.KindSettings)))
}
