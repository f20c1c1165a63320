package attribution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linkowl/linkowl-go/pkg/fingerprint"
	"github.com/linkowl/linkowl-go/pkg/logger"
)

// Default request policy of NewClient.
const (
	// DefaultTimeout bounds each attempt, not the whole call.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxRetries is the number of attempts after the first one.
	DefaultMaxRetries = 1
	// DefaultRetryDelay is the fixed pause before a retry.
	DefaultRetryDelay = 2 * time.Second
	// DefaultUserAgent identifies the SDK to the service.
	DefaultUserAgent = "linkowl-go/1.0"
)

const (
	maxResponseBytes = 1 << 20
	maxErrorSnippet  = 200
)

// Credentials supplies the api key and base endpoint at request time.
// *config.Config implements it.
type Credentials interface {
	Credentials() (apiKey, baseURL string, ok bool)
}

// Client sends attribution requests. It keeps no state between calls;
// every call reads the current credentials.
// Zero value is not usable; use NewClient to create instances.
type Client struct {
	creds      Credentials
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    BackoffStrategy
	userAgent  string
	logger     *slog.Logger
	onAttempt  AttemptHook
}

// NewClient creates a client with the default policy: one retry after a fixed
// 2 second delay and a 10 second timeout per attempt.
func NewClient(creds Credentials, opts ...Option) *Client {
	c := &Client{
		creds: creds,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		backoff:    FixedBackoff{Interval: DefaultRetryDelay},
		userAgent:  DefaultUserAgent,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TrackInstall reports an install and returns the id assigned by the service.
// A 2xx response without a decodable install id yields ErrDecode.
func (c *Client) TrackInstall(ctx context.Context, fp fingerprint.Fingerprint) (string, error) {
	apiKey, baseURL, ok := c.creds.Credentials()
	if !ok {
		return "", ErrNotConfigured
	}

	ctx, _ = withRequestID(ctx)
	body := installRequest{APIKey: apiKey, Fingerprint: fp}
	data, err := c.do(ctx, OpInstall, http.MethodPost, baseURL, installsPath, apiKey, body)
	if err != nil {
		return "", err
	}

	var resp installResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.ErrorContext(ctx, "failed to decode install response", logger.Error(err))
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if resp.InstallID == "" {
		c.logger.ErrorContext(ctx, "install response has no install id")
		return "", fmt.Errorf("%w: empty install_id", ErrDecode)
	}

	c.logger.DebugContext(ctx, "install tracked", logger.InstallID(resp.InstallID))
	return resp.InstallID, nil
}

// SetUserID links userID to the install identified by installID.
func (c *Client) SetUserID(ctx context.Context, userID, installID string) error {
	apiKey, baseURL, ok := c.creds.Credentials()
	if !ok {
		return ErrNotConfigured
	}
	if installID == "" {
		return ErrMissingInstall
	}

	ctx, _ = withRequestID(ctx)
	path := installsPath + "/" + url.PathEscape(installID)
	_, err := c.do(ctx, OpUserID, http.MethodPatch, baseURL, path, apiKey, userIDRequest{UserID: userID})
	return err
}

// TrackPurchase reports a purchase. p.InstallID is sent only when known.
func (c *Client) TrackPurchase(ctx context.Context, p Purchase) error {
	apiKey, baseURL, ok := c.creds.Credentials()
	if !ok {
		return ErrNotConfigured
	}

	ctx, _ = withRequestID(ctx)
	_, err := c.do(ctx, OpPurchase, http.MethodPost, baseURL, purchasesPath, apiKey, p)
	return err
}

// do encodes body once and sends it, retrying failures IsRetryable accepts
// until maxRetries is exhausted. Encoding failures are not retried.
func (c *Client) do(ctx context.Context, op, method, baseURL, path, apiKey string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to encode request body", logger.Operation(op), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	endpoint := strings.TrimRight(baseURL, "/") + path

	var (
		lastErr error
		sent    int
	)
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", ErrDeliveryFailed, ctx.Err())
			case <-time.After(c.backoff.NextInterval(attempt)):
			}
		}

		start := time.Now()
		data, status, err := c.attempt(ctx, method, endpoint, apiKey, payload)
		duration := time.Since(start)
		sent++

		if c.onAttempt != nil {
			c.onAttempt(Attempt{
				Operation:  op,
				Attempt:    attempt + 1,
				StatusCode: status,
				Duration:   duration,
				Err:        err,
			})
		}

		if err == nil {
			return data, nil
		}

		lastErr = err
		c.logger.WarnContext(ctx, "attribution request failed",
			logger.Operation(op),
			slog.String("method", method),
			logger.Endpoint(path),
			logger.Attempt(attempt+1),
			logger.StatusCode(status),
			logger.Duration(duration),
			logger.Error(err),
		)
		if !IsRetryable(err) {
			break
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, sent, lastErr)
}

// attempt makes a single HTTP request bounded by the client timeout.
func (c *Client) attempt(ctx context.Context, method, endpoint, apiKey string, payload []byte) ([]byte, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
		}
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, 0, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &StatusError{Code: resp.StatusCode, Body: snippet(data)}
	}
	if readErr != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, resp.StatusCode, fmt.Errorf("%w: %w", ErrTimeout, readErr)
		}
		return nil, resp.StatusCode, fmt.Errorf("%w: %w", ErrTransport, readErr)
	}

	return data, resp.StatusCode, nil
}

// snippet makes a response body safe to log on one line.
func snippet(body []byte) string {
	s := strings.TrimSpace(strings.ReplaceAll(string(body), "\n", " "))
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet] + "..."
	}
	return s
}
