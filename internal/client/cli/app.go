// Package cli is the interactive terminal frontend: a small REPL over the
// client services.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/aleksv/spendsync/internal/client/config"
	"github.com/aleksv/spendsync/internal/client/remote"
	"github.com/aleksv/spendsync/internal/client/services"
	"github.com/aleksv/spendsync/internal/client/store"
	"github.com/aleksv/spendsync/internal/logging"
	"github.com/aleksv/spendsync/internal/syncx"

	_ "modernc.org/sqlite"
)

type App struct {
	config *config.Config
	store  *store.Store
	client *remote.Client

	auth       services.AuthService
	expenses   services.ExpenseService
	categories services.CategoryService
	settings   services.SettingsService
	receipts   services.ReceiptService
	sync       services.SyncService

	userName string
	reader   *bufio.Reader
	log      logging.Logger
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	st, err := store.Open(ctx, c.DatabaseFile)
	if err != nil {
		return nil, err
	}

	client := remote.NewClient(c.ServerURL, c.RequestTimeout)
	clock := syncx.SystemClock

	settings := services.NewSettingsService(st, clock)

	return &App{
		config:     c,
		store:      st,
		client:     client,
		auth:       services.NewAuthService(client),
		expenses:   services.NewExpenseService(st, settings, clock),
		categories: services.NewCategoryService(st, clock),
		settings:   settings,
		receipts:   services.NewReceiptService(st, client, clock),
		sync:       services.NewSyncService(st, client, clock, log),
		reader:     bufio.NewReader(os.Stdin),
		log:        log,
	}, nil
}

func (a *App) Close() error {
	return a.store.Close()
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return "offline"
	}
	return a.userName
}

// Run starts the interactive loop and blocks until exit or EOF.
func (a *App) Run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
