package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksv/spendsync/internal/common"
	"github.com/aleksv/spendsync/internal/dbx"
	"github.com/aleksv/spendsync/internal/logging"
	"github.com/aleksv/spendsync/internal/models"
	"github.com/aleksv/spendsync/internal/server/cache"
	serverconfig "github.com/aleksv/spendsync/internal/server/config"
	servermodels "github.com/aleksv/spendsync/internal/server/models"
	recordsrepo "github.com/aleksv/spendsync/internal/server/repositories/records"
	refreshtokensrepo "github.com/aleksv/spendsync/internal/server/repositories/refreshtokens"
	usersrepo "github.com/aleksv/spendsync/internal/server/repositories/users"
	"github.com/aleksv/spendsync/internal/server/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- fakes ---

type fakeUsersRepo struct {
	byName map[string]*servermodels.User
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *servermodels.User) (*servermodels.User, error) {
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	created := &servermodels.User{ID: "u-" + u.UserName, UserName: u.UserName, Salt: u.Salt, Verifier: u.Verifier}
	f.byName[u.UserName] = created
	return created, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*servermodels.User, error) {
	u, ok := f.byName[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeRefreshRepo struct {
	tokens map[string]*servermodels.RefreshToken
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	f.tokens[token] = &servermodels.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*servermodels.RefreshToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

type fakeRecordsRepo struct {
	expenses   map[string]*models.Expense
	categories map[string]*models.Category
	settings   *models.Settings
}

func (f *fakeRecordsRepo) SelectExpenses(ctx context.Context, userID string) ([]*models.Expense, error) {
	var out []*models.Expense
	for _, e := range f.expenses {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeRecordsRepo) UpsertExpense(ctx context.Context, userID string, e *models.Expense) error {
	f.expenses[e.ID] = e
	return nil
}

func (f *fakeRecordsRepo) DeleteExpenses(ctx context.Context, userID string, ids []string) error {
	for _, id := range ids {
		delete(f.expenses, id)
	}
	return nil
}

func (f *fakeRecordsRepo) SelectCategories(ctx context.Context, userID string) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRecordsRepo) UpsertCategory(ctx context.Context, userID string, c *models.Category) error {
	f.categories[c.ID] = c
	return nil
}

func (f *fakeRecordsRepo) GetSettings(ctx context.Context, userID string) (*models.Settings, error) {
	if f.settings == nil {
		return nil, common.ErrorNotFound
	}
	return f.settings, nil
}

func (f *fakeRecordsRepo) UpsertSettings(ctx context.Context, userID string, s *models.Settings) error {
	f.settings = s
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	c *fakeRecordsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Records(db dbx.DBTX) recordsrepo.Repository             { return m.c }

// --- helpers ---

type testEnv struct {
	router *gin.Engine
	mock   sqlmock.Sqlmock
	repo   *fakeRecordsRepo
	users  *services.UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &serverconfig.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 24 * time.Hour,
		S3Region:                     "us-east-1",
		S3RootUser:                   "minioadmin",
		S3RootPassword:               "minioadmin",
		S3BaseEndpoint:               "http://127.0.0.1:9000",
		S3Bucket:                     "receipts",
	}

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{byName: map[string]*servermodels.User{}},
		r: &fakeRefreshRepo{tokens: map[string]*servermodels.RefreshToken{}},
		c: &fakeRecordsRepo{
			expenses:   map[string]*models.Expense{},
			categories: map[string]*models.Category{},
		},
	}

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	users := services.NewUserService(db, rm, cfg)
	records := services.NewRecordService(db, rm, cache.New(nil))
	receipts := services.NewReceiptService(cfg)

	srv := NewServer(":0", db, log, users, records, receipts)
	return &testEnv{router: srv.Router(), mock: mock, repo: rm.c, users: users}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AccessTokenHeaderName, common.BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) registerAndLogin(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)

	var pair services.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	return pair.AccessToken
}

// --- tests ---

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectPing()

	w := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t)

	w := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "pw"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefresh_RotatesTokens(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	var pair services.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))

	env.mock.ExpectBegin()
	env.mock.ExpectCommit()

	w = env.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": pair.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	var rotated services.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// the old token is gone
	w = env.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_RejectsMissingOrBadToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/expenses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/expenses", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExpenses_BatchThenQueryThenDelete(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	now := time.Now().UTC().Truncate(time.Second)
	expense := &models.Expense{
		Envelope: models.Envelope{ID: "e1", UpdatedAt: now},
		Amount:   12.5,
		Currency: "EUR",
		Date:     now,
	}

	env.mock.ExpectBegin()
	env.mock.ExpectCommit()
	w := env.do(t, http.MethodPost, "/api/expenses/batch", token,
		itemsPayload[*models.Expense]{Items: []*models.Expense{expense}})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/expenses", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got itemsPayload[*models.Expense]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "e1", got.Items[0].ID)
	assert.Equal(t, 12.5, got.Items[0].Amount)

	w = env.do(t, http.MethodPost, "/api/expenses/delete", token, gin.H{"ids": []string{"e1"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.repo.expenses)
}

func TestExpenses_BatchRejectsInvalidRecord(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	bad := &models.Expense{Amount: 5, Currency: "EUR"} // no id
	w := env.do(t, http.MethodPost, "/api/expenses/batch", token,
		itemsPayload[*models.Expense]{Items: []*models.Expense{bad}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpenses_EmptyCollectionIsArray(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	w := env.do(t, http.MethodGet, "/api/expenses", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestCategories_BatchThenQuery(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	now := time.Now().UTC().Truncate(time.Second)
	category := &models.Category{
		Envelope: models.Envelope{ID: "c1", UpdatedAt: now},
		Name:     "Groceries",
		Color:    "#00ff00",
	}

	env.mock.ExpectBegin()
	env.mock.ExpectCommit()
	w := env.do(t, http.MethodPost, "/api/categories/batch", token,
		itemsPayload[*models.Category]{Items: []*models.Category{category}})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/categories", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got itemsPayload[*models.Category]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Groceries", got.Items[0].Name)
}

func TestSettings_NotFoundThenPut(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	w := env.do(t, http.MethodGet, "/api/settings", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	settings := models.DefaultSettings()
	settings.ID = "settings"
	settings.UpdatedAt = time.Now().UTC()
	w = env.do(t, http.MethodPut, "/api/settings", token, settings)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/settings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "EUR", got.Currency)
}

func TestPresignUpload_ReturnsKeyAndURL(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	w := env.do(t, http.MethodPost, "/api/receipts/presign-upload", token,
		gin.H{"expense_id": "e1", "file_name": "receipt.jpg"})
	require.Equal(t, http.StatusOK, w.Code)

	var got presignResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.NotEmpty(t, got.URL)
	assert.Contains(t, got.Key, "receipts/")
	assert.Contains(t, got.Key, ".jpg")
}

func TestPresignDownload_RequiresKey(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t)

	w := env.do(t, http.MethodGet, "/api/receipts/presign-download", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/receipts/presign-download?key=receipts/u/x.jpg", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
