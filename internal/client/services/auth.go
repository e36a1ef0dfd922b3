package services

import (
	"context"

	"github.com/aleksv/spendsync/internal/client/remote"
	"github.com/aleksv/spendsync/internal/common"
)

type AuthService interface {
	Register(ctx context.Context, username string, password []byte) error
	Login(ctx context.Context, username string, password []byte) error
	Ping(ctx context.Context) error
}

type authService struct {
	client *remote.Client
}

func NewAuthService(client *remote.Client) AuthService {
	return &authService{client: client}
}

// Register creates the account. The password buffer is wiped before return.
func (s *authService) Register(ctx context.Context, username string, password []byte) error {
	defer common.WipeByteArray(password)
	return s.client.Register(ctx, username, string(password))
}

// Login signs in. The password buffer is wiped before return.
func (s *authService) Login(ctx context.Context, username string, password []byte) error {
	defer common.WipeByteArray(password)
	return s.client.Login(ctx, username, string(password))
}

func (s *authService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
