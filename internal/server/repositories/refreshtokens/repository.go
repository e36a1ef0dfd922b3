// Package refreshtokens provides persistence for the refresh tokens used in
// the server's authentication flow.
package refreshtokens

import (
	"context"
	"time"

	"github.com/aleksv/spendsync/internal/server/models"
)

type Repository interface {
	// Create inserts a new refresh token for userID valid for the given
	// duration.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns the token row, or common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token by its token string.
	Delete(ctx context.Context, token string) error
}
