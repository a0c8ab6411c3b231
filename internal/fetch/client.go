// Package fetch downloads pages and documents from the remote record system.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
)

// BrowserUserAgent is sent with every request; the record system rejects the default Go agent.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	defaultTimeout  = 60 * time.Second
	defaultMinBytes = 1000
	defaultMaxBytes = 64 << 20
)

var (
	// ErrUnreachable is returned when the host could not be contacted (DNS, connect, timeout).
	ErrUnreachable = errors.New("remote host unreachable")
	// ErrStatus is returned for non-2xx responses.
	ErrStatus = errors.New("unexpected HTTP status")
	// ErrNotCandidate is returned when a download does not look like a document.
	ErrNotCandidate = errors.New("response is not a candidate document")
	// ErrTooLarge is returned when a body exceeds the configured maximum size.
	ErrTooLarge = errors.New("response body exceeds size limit")
)

// Response is a fully read HTTP response.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	// Filename is the name from Content-Disposition, if any.
	Filename string
	Body     []byte
}

// Client performs GET requests with a browser-like user agent.
type Client struct {
	http      *http.Client
	userAgent string
	minBytes  int
	maxBytes  int64
	logger    *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets a logger for request debug output.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMinDocumentBytes sets the payload size above which any response is accepted as a document.
func WithMinDocumentBytes(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.minBytes = n
		}
	}
}

// WithMaxBytes caps the response body size; larger bodies fail with ErrTooLarge.
func WithMaxBytes(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// NewClient returns a client with a 60s timeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: BrowserUserAgent,
		minBytes:  defaultMinBytes,
		maxBytes:  defaultMaxBytes,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches rawURL. Transport failures wrap ErrUnreachable; non-2xx statuses wrap ErrStatus
// and still return the response.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json,application/pdf,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.Debug("fetch failed", zap.String("url", rawURL), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: %s over %d bytes", ErrTooLarge, rawURL, c.maxBytes)
	}
	out := &Response{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    dispositionFilename(resp.Header.Get("Content-Disposition")),
		Body:        body,
	}
	c.logger.Debug("fetched",
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	return out, nil
}

// Download fetches a document and applies the candidate rule. Responses that do not look
// like a document return ErrNotCandidate.
func (c *Client) Download(ctx context.Context, rawURL string) (*Response, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !IsCandidate(resp.ContentType, rawURL, len(resp.Body), c.minBytes) {
		return nil, fmt.Errorf("%w: %s (%d bytes)", ErrNotCandidate, resp.ContentType, len(resp.Body))
	}
	return resp, nil
}

// IsCandidate reports whether a response is treated as a document: the content type mentions
// pdf, or the URL path ends in .pdf, or the payload is larger than minBytes.
func IsCandidate(contentType, rawURL string, size, minBytes int) bool {
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		return true
	}
	if u, err := url.Parse(rawURL); err == nil && strings.EqualFold(path.Ext(u.Path), ".pdf") {
		return true
	}
	return size > minBytes
}

// IsUnreachable reports whether err means the host could not be contacted.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

func dispositionFilename(h string) string {
	if h == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(h)
	if err != nil {
		return ""
	}
	return params["filename"]
}
