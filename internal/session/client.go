package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/keytriage/ktauth/internal/identity"
	"github.com/keytriage/ktauth/internal/tokenstore"
)

// APIClient makes bearer-authenticated requests to the Tenant API using the
// stored token for a workspace. Any 401 response clears that token and
// surfaces identity.ErrUnauthorized, downgrading the caller to
// unauthenticated; a fresh handshake afterwards works with no lingering
// state.
type APIClient struct {
	baseURL   string
	workspace string
	store     tokenstore.Store
	http      *http.Client
	logger    *slog.Logger
}

// NewAPIClient creates a client for the Tenant API at baseURL, scoped to one
// workspace's stored token.
func NewAPIClient(baseURL, workspace string, store tokenstore.Store, logger *slog.Logger) (*APIClient, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("tenant API base URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &APIClient{
		baseURL:   base,
		workspace: workspace,
		store:     store,
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}, nil
}

// Get issues a GET and decodes the JSON response into out (which may be nil).
func (c *APIClient) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *APIClient) Post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, encoded, out)
}

func (c *APIClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.store.Get(c.workspace); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.store.Clear(c.workspace)
		c.logger.Info("tenant API rejected token, cleared", "workspace", c.workspace)
		return identity.ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &identity.APIError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
