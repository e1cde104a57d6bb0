package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultTimeout = 60 * time.Second
	maxRetries     = 3
	errorBodyLimit = 512
	userAgent      = "sawmill"
	acceptHeader   = "text/plain, application/gzip;q=0.9, */*;q=0.5"
)

// ErrTooLarge is returned when a document exceeds the configured limit.
var ErrTooLarge = errors.New("document exceeds size limit")

// StatusError is a non-2xx response. Body holds at most 512 bytes.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
	retryAfter time.Duration // -1 when the server sent none
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Document is one downloaded log file.
type Document struct {
	URL         string
	ContentType string
	Body        []byte
}

// Client downloads log documents with optional Bearer auth, a size cap and
// retries on 429 and 5xx.
type Client struct {
	token    string
	maxBytes int64
	backoff  func(attempt int) time.Duration
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request, body included. Default: 60s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithMaxBytes caps the document size. Zero means no cap.
func WithMaxBytes(n int64) Option {
	return func(c *Client) { c.maxBytes = n }
}

// withBackoff replaces the 1s, 2s, 4s schedule (tests).
func withBackoff(f func(attempt int) time.Duration) Option {
	return func(c *Client) { c.backoff = f }
}

// New creates a Client. An empty token sends no Authorization header.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		backoff: exponential,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Download fetches rawURL. A Retry-After header on 429 or 5xx overrides
// the backoff schedule. After the last retry the final *StatusError is
// returned.
func (c *Client) Download(ctx context.Context, rawURL string) (Document, error) {
	var last *StatusError
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.delay(attempt, last)); err != nil {
				return Document{}, err
			}
		}

		doc, err := c.do(ctx, rawURL)
		if err == nil {
			return doc, nil
		}
		var se *StatusError
		if !errors.As(err, &se) || !se.retryable() {
			return Document{}, err
		}
		last = se
	}
	return Document{}, last
}

func (c *Client) do(ctx context.Context, rawURL string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Document{}, err
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Document{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return Document{}, &StatusError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if c.maxBytes > 0 && resp.ContentLength > c.maxBytes {
		return Document{}, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, resp.ContentLength, c.maxBytes)
	}
	body, err := c.readBody(resp.Body)
	if err != nil {
		return Document{}, err
	}
	return Document{URL: rawURL, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

func (c *Client) readBody(r io.Reader) ([]byte, error) {
	if c.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, c.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, c.maxBytes)
	}
	return body, nil
}

func (c *Client) delay(attempt int, last *StatusError) time.Duration {
	if last != nil && last.retryAfter >= 0 {
		return last.retryAfter
	}
	return c.backoff(attempt)
}

func exponential(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * time.Second
}

// parseRetryAfter accepts delta-seconds or an HTTP date. It returns -1 when
// the value is absent or malformed.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return -1
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return -1
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
		return 0
	}
	return -1
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
