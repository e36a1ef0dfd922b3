// Package users provides persistence for user accounts.
package users

import (
	"context"

	"github.com/aleksv/spendsync/internal/server/models"
)

type Repository interface {
	// Create inserts the user and fills in the generated id.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByLogin returns the user with the given username, or
	// common.ErrorNotFound.
	GetUserByLogin(ctx context.Context, userName string) (*models.User, error)
}
