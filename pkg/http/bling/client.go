package bling

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"

	"github.com/vpnda/bling-margin/pkg/models"
)

const DefaultBaseURL = "https://api.bling.com.br/Api/v3"

// DefaultRetryDelays are the waits before the 2nd, 3rd and 4th attempt.
var DefaultRetryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// TokenSupplier hands out a currently valid access token for an account.
type TokenSupplier interface {
	GetValidToken(ctx context.Context, account models.AccountID) (string, error)
}

// Getter is the read-only surface the fetchers need from a Client.
type Getter interface {
	Get(ctx context.Context, endpoint string, params Params, out any) error
}

// Params are query parameters. Values are rendered with fmt, so strings and
// numbers may be mixed.
type Params map[string]any

func (p Params) encode() string {
	values := url.Values{}
	for k, v := range p {
		values.Set(k, fmt.Sprint(v))
	}
	return values.Encode()
}

// Client performs authenticated GET requests against the Bling v3 API for a
// single account.
type Client struct {
	account     models.AccountID
	tokens      TokenSupplier
	gate        *Gate
	httpClient  *http.Client
	baseURL     string
	retryDelays []time.Duration
	timeout     time.Duration
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRetryDelays replaces the backoff schedule. The number of attempts is
// always len(delays)+1.
func WithRetryDelays(delays []time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelays = delays
	}
}

// WithTimeout bounds a whole Get call, gate waits and backoff included.
// Zero means no bound.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func NewClient(account models.AccountID, tokens TokenSupplier, gate *Gate, opts ...ClientOption) *Client {
	c := &Client{
		account:     account,
		tokens:      tokens,
		gate:        gate,
		httpClient:  http.DefaultClient,
		baseURL:     DefaultBaseURL,
		retryDelays: DefaultRetryDelays,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.gate == nil {
		c.gate = NewGate(0)
	}
	return c
}

func (c *Client) Account() models.AccountID {
	return c.account
}

// Get fetches endpoint and decodes the JSON body into out. Responses with
// status 429 or 5xx are retried following the configured delays; any other
// non-2xx fails immediately with *APIError.
func (c *Client) Get(ctx context.Context, endpoint string, params Params, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	token, err := c.tokens.GetValidToken(ctx, c.account)
	if err != nil {
		return &CredentialError{Account: c.account, Err: err}
	}

	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.encode()
	}

	log.Debug().Str("account", c.account.String()).Str("url", reqURL).Msg("bling GET")

	attempt := 0
	maxAttempts := 1 + len(c.retryDelays)
	return retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempt++
		if err := c.gate.Wait(ctx); err != nil {
			return fmt.Errorf("failed to pass rate gate: %w", err)
		}

		status, body, err := c.do(ctx, reqURL, token)
		if err != nil {
			return fmt.Errorf("failed to request %s: %w", endpoint, err)
		}

		switch {
		case status >= 200 && status < 300:
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
			}
			return nil
		case status == http.StatusTooManyRequests || status >= 500:
			log.Warn().
				Str("account", c.account.String()).
				Str("endpoint", endpoint).
				Int("status", status).
				Int("attempt", attempt).
				Msg("retryable bling response")
			return retry.RetryableError(&RetryExhaustedError{LastStatus: status, Attempts: attempt, MaxAttempts: maxAttempts})
		default:
			return &APIError{StatusCode: status, Body: string(body)}
		}
	})
}

func (c *Client) do(ctx context.Context, reqURL, token string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// backoff walks retryDelays once and then stops.
func (c *Client) backoff() retry.Backoff {
	next := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		if next >= len(c.retryDelays) {
			return 0, true
		}
		d := c.retryDelays[next]
		next++
		return d, false
	})
}
