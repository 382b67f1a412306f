package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jrsteele09/go-dashboard-gateway/internal/errors"
	"github.com/jrsteele09/go-dashboard-gateway/users"
	"github.com/rs/zerolog/log"
)

const maxResponseBytes = 1 << 20

var _ Client = (*HTTPClient)(nil)

// HTTPClient talks JSON to the housing backend.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
}

// HTTPClientOption defines a function type to modify the HTTPClient instance.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client (timeouts, transport).
func WithHTTPClient(c *http.Client) HTTPClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithRetry sets how often idempotent calls are attempted and the base backoff.
func WithRetry(attempts uint, delay time.Duration) HTTPClientOption {
	return func(hc *HTTPClient) {
		if attempts == 0 {
			attempts = 1
		}
		hc.attempts = attempts
		hc.delay = delay
	}
}

// NewHTTPClient creates a backend client rooted at baseURL (e.g. "https://api.example.com/api").
func NewHTTPClient(baseURL string, timeout time.Duration, options ...HTTPClientOption) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.ErrBackendNotConfig
	}
	c := &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		attempts:   3,
		delay:      200 * time.Millisecond,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	resp, err := c.do(ctx, http.MethodPost, PathLogin, "", LoginRequest{Email: email, Password: password})
	if err != nil {
		if errors.Is(err, errors.ErrBackendRejected) || errors.Is(err, errors.ErrTokenExpired) {
			return nil, errors.Wrapf(errors.ErrInvalidCredentials, "[Login] %s", err.Error())
		}
		return nil, err
	}
	if resp.Data == nil || resp.Data.Token == "" || resp.Data.User == nil {
		return nil, errors.Wrapf(errors.ErrInvalidResponse, "[Login] missing token or user")
	}
	resp.Data.User.Normalize()
	return resp.Data, nil
}

func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodPost, PathLogout, token, nil)
	return err
}

func (c *HTTPClient) RefreshToken(ctx context.Context, token string) (string, error) {
	var newToken string
	err := c.retry(ctx, func() error {
		resp, err := c.do(ctx, http.MethodPost, PathRefreshToken, token, nil)
		if err != nil {
			return err
		}
		if resp.Data == nil || resp.Data.Token == "" {
			return errors.Wrapf(errors.ErrInvalidResponse, "[RefreshToken] missing token")
		}
		newToken = resp.Data.Token
		return nil
	})
	return newToken, err
}

func (c *HTTPClient) CurrentUser(ctx context.Context, token string) (*users.User, error) {
	var user *users.User
	err := c.retry(ctx, func() error {
		resp, err := c.do(ctx, http.MethodGet, PathCurrentUser, token, nil)
		if err != nil {
			return err
		}
		if resp.Data == nil || resp.Data.User == nil {
			return errors.Wrapf(errors.ErrInvalidResponse, "[CurrentUser] missing user")
		}
		user = resp.Data.User
		user.Normalize()
		return nil
	})
	return user, err
}

func (c *HTTPClient) ValidateToken(ctx context.Context, token string) (bool, error) {
	var valid bool
	err := c.retry(ctx, func() error {
		_, err := c.do(ctx, http.MethodGet, PathValidateToken, token, nil)
		switch {
		case err == nil:
			valid = true
			return nil
		case errors.Is(err, errors.ErrTokenExpired), errors.Is(err, errors.ErrBackendRejected):
			valid = false
			return nil
		default:
			return err
		}
	})
	return valid, err
}

// retry re-runs fn while it fails with a network failure.
func (c *HTTPClient) retry(ctx context.Context, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errors.ErrNetworkFailure)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Msg("backend call failed, retrying")
		}),
	)
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[backend %s] marshal: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("[backend %s] request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetworkFailure, "[backend %s] %s", path, err.Error())
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusInternalServerError {
		return nil, errors.Wrapf(errors.ErrNetworkFailure, "[backend %s] status %d", path, res.StatusCode)
	}

	var envelope Response
	if err := json.NewDecoder(io.LimitReader(res.Body, maxResponseBytes)).Decode(&envelope); err != nil && err != io.EOF {
		return nil, errors.Wrapf(errors.ErrInvalidResponse, "[backend %s] decode: %s", path, err.Error())
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return nil, errors.Wrapf(errors.ErrTokenExpired, "[backend %s] %s", path, messageOr(envelope.Message, res.Status))
	case res.StatusCode >= http.StatusBadRequest || !envelope.Success:
		return nil, errors.Wrapf(errors.ErrBackendRejected, "[backend %s] %s", path, messageOr(envelope.Message, res.Status))
	}
	return &envelope, nil
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
