package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	startPath      = "/api/v1/auth/zendesk/start"
	flowStatusPath = "/api/v1/auth/zendesk/flow_status"
	completePath   = "/api/v1/auth/zendesk/complete"
	sessionPath    = "/api/v1/auth/session"
	switchPath     = "/api/v1/auth/switch_tenant"

	// callbackPath is where the helpdesk redirects the authorization window
	// after consent; the Identity Service owns this route.
	callbackPath = "/api/v1/zendesk/oauth/callback"
)

// Client talks to the Identity Service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (useful for tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the Identity Service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("identity service base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseOrigin returns the origin of the service base URL, used as the
// fallback expected origin for completion messages.
func (c *Client) BaseOrigin() string {
	parsed, err := url.Parse(c.baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// Start begins an OAuth flow for workspace. mode is "popup" for interactive
// contexts; postOrigin tells the far end where to post the completion
// message and may be empty for server-relayed flows.
func (c *Client) Start(ctx context.Context, workspace, mode, postOrigin string) (StartResult, error) {
	query := url.Values{}
	query.Set("subdomain", workspace)
	query.Set("mode", mode)
	query.Set("redirect_uri", c.baseURL+callbackPath)
	if postOrigin != "" {
		query.Set("post_origin", postOrigin)
	}

	status, body, err := c.get(ctx, startPath+"?"+query.Encode(), "")
	if err != nil {
		return StartResult{}, &FlowStartError{Err: err}
	}
	if status < 200 || status >= 300 {
		return StartResult{}, &FlowStartError{StatusCode: status, Detail: detailFrom(body)}
	}

	var result StartResult
	if err := json.Unmarshal(body, &result); err != nil {
		return StartResult{}, &FlowStartError{Err: fmt.Errorf("decode start response: %w", err)}
	}

	result.RedirectURL = strings.TrimSpace(result.RedirectURL)
	result.FlowID = strings.TrimSpace(result.FlowID)
	if result.RedirectURL == "" {
		return StartResult{}, &FlowStartError{Detail: "missing redirect URL from auth start"}
	}
	if result.ExpectedOrigin == "" {
		result.ExpectedOrigin = c.BaseOrigin()
	}

	c.logger.Debug("auth flow started",
		"workspace", workspace,
		"mode", mode,
		"redirect_url", RedactURL(result.RedirectURL))
	return result, nil
}

// FlowStatus polls one flow status. Transport failures and non-2xx responses
// return an error the poller may tolerate; terminal statuses come back in
// the FlowStatus value.
func (c *Client) FlowStatus(ctx context.Context, flowID string) (FlowStatus, error) {
	if strings.TrimSpace(flowID) == "" {
		return FlowStatus{}, fmt.Errorf("flow_id is required")
	}

	query := url.Values{}
	query.Set("flow_id", flowID)

	status, body, err := c.get(ctx, flowStatusPath+"?"+query.Encode(), "")
	if err != nil {
		return FlowStatus{}, fmt.Errorf("flow status request: %w", err)
	}
	if status < 200 || status >= 300 {
		return FlowStatus{}, &APIError{StatusCode: status, Detail: detailFrom(body)}
	}

	var payload struct {
		Status string `json:"status"`
		Token  string `json:"token"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return FlowStatus{}, fmt.Errorf("decode flow status: %w", err)
	}

	return FlowStatus{
		Status: ParseStatus(payload.Status),
		Token:  strings.TrimSpace(payload.Token),
		Detail: payload.Detail,
	}, nil
}

// Session verifies a bearer token. A 401-class response returns
// ErrUnauthorized; other failures are APIErrors.
func (c *Client) Session(ctx context.Context, token string) (*SessionPayload, error) {
	status, body, err := c.get(ctx, sessionPath, token)
	if err != nil {
		return nil, fmt.Errorf("session request: %w", err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if status < 200 || status >= 300 {
		return nil, &APIError{StatusCode: status, Detail: detailFrom(body)}
	}

	var payload SessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &payload, nil
}

// SwitchTenant re-scopes the session to another tenant of the same identity.
func (c *Client) SwitchTenant(ctx context.Context, token, tenantID string) (*SessionPayload, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	reqBody, err := json.Marshal(map[string]string{"tenant_id": tenantID})
	if err != nil {
		return nil, fmt.Errorf("encode switch request: %w", err)
	}

	status, body, err := c.post(ctx, switchPath, token, reqBody)
	if err != nil {
		return nil, fmt.Errorf("switch tenant request: %w", err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if status < 200 || status >= 300 {
		return nil, &APIError{StatusCode: status, Detail: detailFrom(body)}
	}

	var payload SessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode switch response: %w", err)
	}
	return &payload, nil
}

// Complete confirms a token for non-popup contexts so the service persists a
// server-side session keyed to it.
func (c *Client) Complete(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token is required")
	}

	reqBody, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return fmt.Errorf("encode complete request: %w", err)
	}

	status, body, err := c.post(ctx, completePath, "", reqBody)
	if err != nil {
		return fmt.Errorf("complete request: %w", err)
	}
	if status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if status < 200 || status >= 300 {
		return &APIError{StatusCode: status, Detail: detailFrom(body)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path, token string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	return c.do(req, token)
}

func (c *Client) post(ctx context.Context, path, token string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, token)
}

func (c *Client) do(req *http.Request, token string) (int, []byte, error) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// detailFrom extracts the service-provided detail message from an error
// body, falling back to the raw text.
func detailFrom(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return trimmed
}

// RedactURL strips query parameters before a URL is logged; redirect URLs
// carry state and nonce values that must not land in logs.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}
	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		return raw[:idx] + "?[REDACTED]"
	}
	return raw
}
