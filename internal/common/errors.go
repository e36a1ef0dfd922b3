// Package common defines shared constants and sentinel errors used across
// client and server layers of SpendSync. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation / item-specific errors.
	ErrorCategoryInUse   = errors.New("category is referenced by expenses")
	ErrorInvalidAmount   = errors.New("invalid amount")
	ErrorInvalidCategory = errors.New("invalid category")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
