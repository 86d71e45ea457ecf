// Package sessionclient implements domain.SessionStore against the session
// store HTTP API of another deployment.
package sessionclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

const maxBodySize = 64 << 10

// Client talks to one role's session store API on behalf of one client.
// Requests carry the client token as a Bearer token.
type Client struct {
	baseURL string
	role    domain.Role
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a client for role. baseURL is the deployment root, e.g.
// https://gym.example.com; the role prefix is added per request.
func New(baseURL string, role domain.Role, token string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		role:    role,
		token:   token,
		http:    httpClient,
		logger:  logger,
	}
}

var _ domain.SessionStore = (*Client)(nil)

func (c *Client) prefix() string {
	if c.role == domain.RoleStudent {
		return "/api/student/auth"
	}
	return "/api/auth"
}

// Status maps an empty or malformed body to the empty status
func (c *Client) Status(ctx context.Context) (*domain.AuthStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return nil, err
	}
	status := &domain.AuthStatus{}
	if len(bytes.TrimSpace(body)) == 0 {
		return status, nil
	}
	var raw struct {
		IsLoggedIn       *bool   `json:"isLoggedIn"`
		RememberMeExpiry *string `json:"rememberMeExpiry"`
		LoginStep        *string `json:"loginStep"`
		LoginPhone       *string `json:"loginPhone"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		c.logger.Warn("unparseable status body", zap.Error(err))
		return status, nil
	}
	if raw.IsLoggedIn != nil {
		status.IsLoggedIn = *raw.IsLoggedIn
	}
	status.RememberMeExpiry = parseTime(raw.RememberMeExpiry)
	if raw.LoginStep != nil && domain.LoginStep(*raw.LoginStep).Valid() {
		status.LoginStep = domain.LoginStep(*raw.LoginStep)
	}
	if raw.LoginPhone != nil {
		status.LoginPhone = *raw.LoginPhone
	}
	return status, nil
}

// Login implements domain.SessionStore
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	payload := map[string]interface{}{"rememberMe": req.RememberMe}
	if c.role == domain.RoleStudent || req.Phone != "" {
		payload["phone"] = req.Phone
	}
	body, err := c.do(ctx, http.MethodPost, "/login", payload)
	if err != nil {
		return nil, err
	}
	return c.parseResult(body), nil
}

// Resume implements domain.SessionStore
func (c *Client) Resume(ctx context.Context) (*domain.LoginResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/resume", nil)
	if err != nil {
		return nil, err
	}
	return c.parseResult(body), nil
}

// SaveStep implements domain.SessionStore
func (c *Client) SaveStep(ctx context.Context, step domain.LoginStep, phone string) error {
	payload := map[string]string{"step": string(step)}
	if phone != "" {
		payload["phone"] = phone
	}
	_, err := c.do(ctx, http.MethodPost, "/login-step", payload)
	return err
}

// ClearStep implements domain.SessionStore
func (c *Client) ClearStep(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/login-step", nil)
	return err
}

// Logout implements domain.SessionStore
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/logout", nil)
	return err
}

func (c *Client) parseResult(body []byte) *domain.LoginResult {
	result := &domain.LoginResult{}
	var raw struct {
		RememberMeExpiry *string `json:"rememberMeExpiry"`
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return result
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		c.logger.Warn("unparseable login body", zap.Error(err))
		return result
	}
	result.RememberMeExpiry = parseTime(raw.RememberMeExpiry)
	return result
}

// do sends one request and returns the body of a 2xx response. Error
// responses become domain errors when their code is known.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+c.prefix()+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrStoreUnavailable, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, responseError(resp.StatusCode, body)
}

func responseError(status int, body []byte) error {
	var raw struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	_ = json.Unmarshal(body, &raw)

	if sentinel := domain.ErrorForCode(raw.Code); sentinel != nil {
		if raw.Error == "" || raw.Error == sentinel.Error() {
			return sentinel
		}
		return fmt.Errorf("%w: %s", sentinel, raw.Error)
	}
	switch status {
	case http.StatusUnauthorized:
		return domain.ErrNotLoggedIn
	case http.StatusForbidden:
		return domain.ErrUnauthorized
	}
	msg := raw.Error
	if msg == "" {
		msg = http.StatusText(status)
	}
	return fmt.Errorf("%w: status %d: %s", domain.ErrStoreUnavailable, status, msg)
}

func parseTime(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, *raw)
	if err != nil {
		return nil
	}
	return &t
}

