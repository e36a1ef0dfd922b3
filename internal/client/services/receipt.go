package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aleksv/spendsync/internal/client/remote"
	"github.com/aleksv/spendsync/internal/client/store"
	"github.com/aleksv/spendsync/internal/common"
	"github.com/aleksv/spendsync/internal/syncx"
)

type ReceiptService interface {
	// Attach uploads the file behind path to object storage via a presigned
	// URL and links the resulting key to the expense.
	Attach(ctx context.Context, expenseID, path string) error

	// DownloadURL returns a short-lived URL for the expense's receipt.
	DownloadURL(ctx context.Context, expenseID string) (string, error)
}

type receiptService struct {
	store  *store.Store
	client *remote.Client
	clock  syncx.Clock
}

func NewReceiptService(s *store.Store, client *remote.Client, clock syncx.Clock) ReceiptService {
	return &receiptService{store: s, client: client, clock: clock}
}

func (s *receiptService) Attach(ctx context.Context, expenseID, path string) error {
	e, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	if e.Deleted {
		return common.ErrorNotFound
	}

	presigned, err := s.client.PresignReceiptUpload(ctx, expenseID, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("error requesting upload url: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	if err := s.client.UploadReceipt(ctx, presigned.URL, f); err != nil {
		return err
	}

	e.ReceiptKey = presigned.Key
	e.Touch(s.clock())
	if err := s.store.UpsertExpense(ctx, e); err != nil {
		return fmt.Errorf("saving error: %w", err)
	}
	return nil
}

func (s *receiptService) DownloadURL(ctx context.Context, expenseID string) (string, error) {
	e, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return "", err
	}
	if e.ReceiptKey == "" {
		return "", common.ErrorNotFound
	}

	presigned, err := s.client.PresignReceiptDownload(ctx, e.ReceiptKey)
	if err != nil {
		return "", fmt.Errorf("error requesting download url: %w", err)
	}
	return presigned.URL, nil
}
