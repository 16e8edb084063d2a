package smartthings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jpillora/backoff"

	"github.com/nerrad567/smartthings-exporter/internal/infrastructure/config"
)

// maxResponseSize caps upstream response bodies (4 MB).
// Device listings for large installations stay well under this.
const maxResponseSize = 4 << 20

// pageSize is the number of devices requested per listing page.
const pageSize = 200

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Client talks to the SmartThings cloud API.
//
// It adds bearer-token authentication to every request, materialises
// paginated listings, and retries transient failures (429, 5xx,
// connection errors) with exponential backoff. Authentication failures
// are surfaced immediately as ErrAuth and never retried.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	retry      config.RetryConfig
	logger     Logger
}

// New creates a SmartThings API client from configuration.
//
// The per-request timeout from cfg.Timeout is enforced by the underlying
// http.Client, so a hung upstream cannot stall a poll cycle indefinitely.
//
// Parameters:
//   - cfg: SmartThings configuration from config.yaml
//
// Returns:
//   - *Client: Configured client
//   - error: If required settings are missing
func New(cfg config.SmartThingsConfig) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("smartthings: token is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("smartthings: base URL is required")
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.GetRequestTimeout(),
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		retry:   cfg.Retry,
		logger:  noopLogger{},
	}, nil
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// ListDevices returns the full device inventory.
//
// Pagination is handled transparently: all pages are fetched and the
// materialised slice is returned. A failure on any page fails the whole
// listing, since a partial inventory would make vanished-device pruning
// indistinguishable from a truncated response.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - []Device: All devices known to the upstream account
//   - error: ErrAuth, ErrUpstream, or ctx error
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	var devices []Device

	next := fmt.Sprintf("%s/devices?max=%d", c.baseURL, pageSize)
	for next != "" {
		body, err := c.get(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("listing devices: %w", err)
		}

		var page devicePage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("listing devices: %w: decoding page: %w", ErrUpstream, err)
		}

		devices = append(devices, page.Items...)

		next = ""
		if page.Links.Next != nil {
			next = c.resolveLink(page.Links.Next.Href)
		}
	}

	c.logger.Debug("device inventory fetched", "count", len(devices))
	return devices, nil
}

// DeviceStatus fetches the full capability status for one device.
//
// Parameters:
//   - ctx: Context for cancellation
//   - deviceID: Remote device identifier
//
// Returns:
//   - *DeviceStatus: Component/capability/attribute values
//   - error: ErrAuth, ErrUpstream, ErrNotFound, or ctx error
func (c *Client) DeviceStatus(ctx context.Context, deviceID string) (*DeviceStatus, error) {
	u := fmt.Sprintf("%s/devices/%s/status", c.baseURL, url.PathEscape(deviceID))

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching status for %s: %w", deviceID, err)
	}

	var status DeviceStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("fetching status for %s: %w: decoding response: %w", deviceID, ErrUpstream, err)
	}

	return &status, nil
}

// get performs an authenticated GET with bounded retries.
//
// Retry policy:
//   - 429 and 5xx responses and connection-level failures are retried
//     with exponential backoff (jittered) up to retry.MaxAttempts
//   - 401/403 fail immediately with ErrAuth
//   - 404 fails immediately with ErrNotFound
//   - other non-2xx statuses fail immediately with ErrUpstream
//
// A Retry-After header on 429 responses is honoured when it is longer
// than the computed backoff delay.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	delay := &backoff.Backoff{
		Min:    time.Duration(c.retry.InitialDelay) * time.Second,
		Max:    time.Duration(c.retry.MaxDelay) * time.Second,
		Factor: 2,
		Jitter: true,
	}

	attempts := c.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, retryable, err := c.doOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		wait := delay.Duration()
		if ra := retryAfter(err); ra > wait {
			wait = ra
		}
		c.logger.Warn("upstream request failed, retrying",
			"url", rawURL,
			"attempt", attempt,
			"wait", wait.String(),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrUpstream, attempts, lastErr)
}

// statusError carries the HTTP status and Retry-After hint through the
// retry loop.
type statusError struct {
	status     int
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}

// retryAfter extracts a Retry-After hint from a retryable error, if any.
func retryAfter(err error) time.Duration {
	var se *statusError
	if errors.As(err, &se) {
		return se.retryAfter
	}
	return 0
}

// doOnce performs a single authenticated GET.
//
// Returns the body on success, or an error plus whether the failure is
// retryable.
func (c *Client) doOnce(ctx context.Context, rawURL string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: building request: %w", ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Connection-level failure: retryable unless the context is done.
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if readErr != nil {
			return nil, true, fmt.Errorf("%w: reading response: %w", ErrUpstream, readErr)
		}
		return data, false, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)

	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrNotFound

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, &statusError{
			status:     resp.StatusCode,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}

	default:
		return nil, false, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
}

// parseRetryAfter parses a Retry-After header given in seconds.
// HTTP-date formats are ignored; the backoff delay applies instead.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// resolveLink normalises a pagination link, which the upstream may return
// as an absolute URL or a path relative to the API root.
func (c *Client) resolveLink(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return c.baseURL + "/" + strings.TrimLeft(href, "/")
}
