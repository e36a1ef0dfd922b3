// Package remote is the HTTP client for the backend API. It implements the
// sync engine's RemoteStore on top of the JSON endpoints and transparently
// refreshes the access token once on a 401 response.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aleksv/spendsync/internal/common"
	"github.com/aleksv/spendsync/internal/models"
)

// Client talks to one backend instance. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// TokenPair is the credential set returned by the auth endpoints.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SetTokens installs previously obtained credentials (e.g. restored from a
// session file).
func (c *Client) SetTokens(tp TokenPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = tp.AccessToken
	c.refreshToken = tp.RefreshToken
}

// Tokens returns the current credential set.
func (c *Client) Tokens() TokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return TokenPair{AccessToken: c.accessToken, RefreshToken: c.refreshToken}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account and stores the returned tokens.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.authenticate(ctx, "/api/auth/register", username, password)
}

// Login signs in and stores the returned tokens.
func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.authenticate(ctx, "/api/auth/login", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) error {
	var tp TokenPair
	if err := c.doJSON(ctx, http.MethodPost, path, credentials{Username: username, Password: password}, &tp, false); err != nil {
		return err
	}
	c.SetTokens(tp)
	return nil
}

// Refresh exchanges the refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	rt := c.refreshToken
	c.mu.Unlock()
	if rt == "" {
		return common.ErrorUnauthorized
	}

	body := map[string]string{"refresh_token": rt}
	var tp TokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", body, &tp, false); err != nil {
		return err
	}
	c.SetTokens(tp)
	return nil
}

// Ping probes server reachability.
func (c *Client) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil, false)
}

// --- RemoteStore ---

type itemsPayload[T any] struct {
	Items []T `json:"items"`
}

func (c *Client) QueryExpenses(ctx context.Context, userID string) ([]*models.Expense, error) {
	var out itemsPayload[*models.Expense]
	if err := c.doJSON(ctx, http.MethodGet, "/api/expenses", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) BatchUpsertExpenses(ctx context.Context, userID string, items []*models.Expense) error {
	return c.doJSON(ctx, http.MethodPost, "/api/expenses/batch", itemsPayload[*models.Expense]{Items: items}, nil, true)
}

func (c *Client) BatchDeleteExpenses(ctx context.Context, userID string, ids []string) error {
	body := map[string][]string{"ids": ids}
	return c.doJSON(ctx, http.MethodPost, "/api/expenses/delete", body, nil, true)
}

func (c *Client) QueryCategories(ctx context.Context, userID string) ([]*models.Category, error) {
	var out itemsPayload[*models.Category]
	if err := c.doJSON(ctx, http.MethodGet, "/api/categories", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) BatchUpsertCategories(ctx context.Context, userID string, items []*models.Category) error {
	return c.doJSON(ctx, http.MethodPost, "/api/categories/batch", itemsPayload[*models.Category]{Items: items}, nil, true)
}

// GetSettings returns (nil, nil) when the user has no remote settings yet.
func (c *Client) GetSettings(ctx context.Context, userID string) (*models.Settings, error) {
	var out models.Settings
	err := c.doJSON(ctx, http.MethodGet, "/api/settings", nil, &out, true)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (c *Client) PutSettings(ctx context.Context, userID string, s *models.Settings) error {
	return c.doJSON(ctx, http.MethodPut, "/api/settings", s, nil, true)
}

// --- receipts ---

// PresignedURL is a short-lived URL for direct object storage access.
type PresignedURL struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PresignReceiptUpload asks the server for a PUT URL to store a receipt for
// the expense.
func (c *Client) PresignReceiptUpload(ctx context.Context, expenseID, fileName string) (*PresignedURL, error) {
	body := map[string]string{"expense_id": expenseID, "file_name": fileName}
	var out PresignedURL
	if err := c.doJSON(ctx, http.MethodPost, "/api/receipts/presign-upload", body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// PresignReceiptDownload asks the server for a GET URL for a stored receipt.
func (c *Client) PresignReceiptDownload(ctx context.Context, key string) (*PresignedURL, error) {
	path := "/api/receipts/presign-download?key=" + url.QueryEscape(key)
	var out PresignedURL
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadReceipt PUTs the file body to a presigned URL, bypassing the API.
func (c *Client) UploadReceipt(ctx context.Context, presignedURL string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("receipt upload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("receipt upload failed: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// --- transport plumbing ---

// doJSON performs one API call. When authed is true the access token is
// attached; on a 401 the token pair is refreshed once and the call retried.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, authed bool) error {
	err := c.once(ctx, method, path, in, out, authed)
	if authed && errors.Is(err, common.ErrorUnauthorized) {
		if rerr := c.Refresh(ctx); rerr != nil {
			return err
		}
		return c.once(ctx, method, path, in, out, authed)
	}
	return err
}

func (c *Client) once(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		c.mu.Lock()
		token := c.accessToken
		c.mu.Unlock()
		req.Header.Set(common.AccessTokenHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrorNotFound
	case resp.StatusCode == http.StatusConflict:
		return common.ErrorAlreadyExists
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}
}
