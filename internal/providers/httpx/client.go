// Package httpx holds the JSON request plumbing shared by the provider
// clients, including bounded retries for transient failures. Requests that
// create something upstream are only resent when the server cannot have
// acted on them.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

// Temporary reports whether the status is worth another attempt.
func (e *StatusError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Options configures a Client.
type Options struct {
	HTTPClient  *http.Client
	MaxAttempts int
	Backoff     time.Duration
	Logger      *zerolog.Logger
	// Name prefixes errors and log lines, e.g. "gamma".
	Name string
}

// Client sends JSON requests with a bounded number of attempts.
type Client struct {
	http        *http.Client
	maxAttempts int
	backoff     time.Duration
	logger      zerolog.Logger
	name        string
}

// Request describes one call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   any
	// RawBody is sent as-is when set; Body is ignored.
	RawBody     []byte
	ContentType string
	// Idempotent marks a POST or PATCH as safe to resend after a 5xx or a
	// broken connection. Other methods are treated as idempotent already.
	Idempotent bool
}

func (r Request) idempotent() bool {
	switch r.Method {
	case http.MethodPost, http.MethodPatch:
		return r.Idempotent
	default:
		return true
	}
}

// New builds a Client with defaults: 60s timeout, 3 attempts, 1s backoff.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = "http"
	}
	return &Client{http: httpClient, maxAttempts: attempts, backoff: backoff, logger: logger, name: name}
}

// Do sends req and decodes a JSON response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	raw, err := c.DoRaw(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	return nil
}

// DoRaw sends req and returns the undecoded response body.
func (c *Client) DoRaw(ctx context.Context, req Request) ([]byte, error) {
	body := req.RawBody
	contentType := req.ContentType
	if body == nil && req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", c.name, err)
		}
		body = encoded
		if contentType == "" {
			contentType = "application/json"
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		raw, err := c.once(ctx, req, body, contentType)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable(err, req.idempotent()) || attempt == c.maxAttempts {
			break
		}
		wait := c.backoff * time.Duration(attempt)
		c.logger.Warn().Err(err).
			Str("provider", c.name).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("httpx: transient failure, retrying")
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%s: %w", c.name, ctx.Err())
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("%s: %w", c.name, lastErr)
}

func (c *Client) once(ctx context.Context, req Request, body []byte, contentType string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &StatusError{Status: resp.StatusCode, Body: truncate(strings.TrimSpace(string(raw)), 512)}
	}
	return raw, nil
}

// retryable decides whether another attempt is allowed. Without idempotence
// only a 429 or a failed dial qualify, since neither reached the handler.
func retryable(err error, idempotent bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if !idempotent {
			return statusErr.Status == http.StatusTooManyRequests
		}
		return statusErr.Temporary()
	}
	if idempotent {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
