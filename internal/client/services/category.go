package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aleksv/spendsync/internal/client/store"
	"github.com/aleksv/spendsync/internal/common"
	"github.com/aleksv/spendsync/internal/models"
	"github.com/aleksv/spendsync/internal/syncx"
)

// CategoryParams carries user-editable category fields.
type CategoryParams struct {
	Name  string
	Color string
	Icon  string
}

type CategoryService interface {
	Add(ctx context.Context, p CategoryParams) (*models.Category, error)
	Update(ctx context.Context, id string, p CategoryParams) (*models.Category, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Category, error)
}

type categoryService struct {
	store *store.Store
	clock syncx.Clock
}

func NewCategoryService(s *store.Store, clock syncx.Clock) CategoryService {
	return &categoryService{store: s, clock: clock}
}

func (s *categoryService) Add(ctx context.Context, p CategoryParams) (*models.Category, error) {
	if p.Name == "" {
		return nil, common.ErrorInvalidCategory
	}

	c := &models.Category{
		Envelope: models.Envelope{ID: uuid.NewString()},
		Name:     p.Name,
		Color:    p.Color,
		Icon:     p.Icon,
	}
	c.Touch(s.clock())

	if err := s.store.UpsertCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	return c, nil
}

func (s *categoryService) Update(ctx context.Context, id string, p CategoryParams) (*models.Category, error) {
	if p.Name == "" {
		return nil, common.ErrorInvalidCategory
	}

	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Name = p.Name
	c.Color = p.Color
	c.Icon = p.Icon
	c.Touch(s.clock())

	if err := s.store.UpsertCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	return c, nil
}

// Delete removes the category if no live expense references it.
func (s *categoryService) Delete(ctx context.Context, id string) error {
	n, err := s.store.CountExpensesInCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return common.ErrorCategoryInUse
	}
	return s.store.DeleteCategory(ctx, id)
}

func (s *categoryService) List(ctx context.Context) ([]*models.Category, error) {
	return s.store.LoadCategories(ctx)
}
