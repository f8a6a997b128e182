package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/fieldportal/internal/client/models"
	"github.com/dmitrijs2005/fieldportal/internal/common"
	"github.com/dmitrijs2005/fieldportal/internal/logging"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger

	mu             sync.RWMutex
	token          string
	onUnauthorized func(err error)
}

// NewHTTPClient returns a client for the API rooted at baseURL. Every request
// is bounded by timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, logger logging.Logger) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q: scheme must be http or https", baseURL)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "api"),
	}, nil
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnUnauthorized registers fn to be told about 401/403 answers to requests
// that carried the current token. A later call replaces the handler.
func (c *HTTPClient) OnUnauthorized(fn func(err error)) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": string(password)}

	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, &APIError{Status: http.StatusOK, Message: "login response carries no token"}
	}
	return &res, nil
}

func (c *HTTPClient) Register(ctx context.Context, r models.Registration) error {
	body := map[string]string{
		"email":     r.Email,
		"password":  string(r.Password),
		"firstName": r.FirstName,
		"lastName":  r.LastName,
	}
	return c.do(ctx, http.MethodPost, "/auth/register", "", body, nil)
}

func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", c.Token(), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) CurrentTenant(ctx context.Context) (*models.Tenant, error) {
	var t models.Tenant
	err := c.do(ctx, http.MethodGet, "/tenants/current", c.Token(), nil, &t)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) CreateTenant(ctx context.Context, name string) (*models.Tenant, error) {
	var t models.Tenant
	if err := c.do(ctx, http.MethodPost, "/tenants", c.Token(), map[string]string{"name": name}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) CompleteOnboarding(ctx context.Context) (*models.Tenant, error) {
	var t models.Tenant
	if err := c.do(ctx, http.MethodPost, "/tenants/current/onboarding/complete", c.Token(), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) CurrentSubscription(ctx context.Context) (*models.Subscription, error) {
	var s models.Subscription
	err := c.do(ctx, http.MethodGet, "/billing/subscription", c.Token(), nil, &s)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

// envelope is the success wrapper used by the backend.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorBody struct {
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
	Code    json.RawMessage `json:"code"`
}

// errorEnvelope accepts {error:{...}}, {error:"text"} and a flat
// {message,details,code}.
type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
	errorBody
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	log := c.logger.With("method", method, "path", path, "request_id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn(ctx, "request failed", "error", err)
		return newNetworkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Warn(ctx, "reading response failed", "status", resp.StatusCode, "error", err)
		return newNetworkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp.StatusCode, data)
		log.Debug(ctx, "request rejected", "status", resp.StatusCode, "code", apiErr.Code)
		if token != "" && errors.Is(apiErr, ErrUnauthorized) {
			c.notifyUnauthorized(token, apiErr)
		}
		return apiErr
	}

	log.Debug(ctx, "request ok", "status", resp.StatusCode)
	return decodeSuccess(resp.StatusCode, data, out)
}

// notifyUnauthorized reports a rejected token unless the session has already
// moved on to another token.
func (c *HTTPClient) notifyUnauthorized(sent string, err error) {
	c.mu.RLock()
	fn := c.onUnauthorized
	current := c.token
	c.mu.RUnlock()

	if fn != nil && sent == current {
		fn(err)
	}
}

func decodeSuccess(status int, data []byte, out any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	// Bodies that are not JSON objects are never enveloped.
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		env = envelope{}
	}
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return &APIError{Status: status, Message: msg}
	}
	if out == nil {
		return nil
	}

	payload := data
	if env.Success != nil || len(env.Data) > 0 {
		payload = env.Data
	}
	if len(payload) == 0 || string(payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &APIError{Status: status, Message: "malformed response", Err: err}
	}
	return nil
}

func decodeError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status}

	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err == nil {
		eb := env.errorBody
		var nested errorBody
		var text string
		switch {
		case len(env.Error) == 0 || string(env.Error) == "null":
		case json.Unmarshal(env.Error, &nested) == nil:
			eb = nested
		case json.Unmarshal(env.Error, &text) == nil:
			if eb.Message == "" {
				eb.Message = text
			}
		}
		apiErr.Message = eb.Message
		apiErr.Details = rawString(eb.Details)
		apiErr.Code = rawString(eb.Code)
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
		if apiErr.Message == "" {
			apiErr.Message = "status " + strconv.Itoa(status)
		}
	}
	return apiErr
}

// rawString renders a JSON scalar or object as text; strings lose their quotes.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
