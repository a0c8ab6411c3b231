// Package render is the rendering child process: it asks a headless-browser service for the
// fully rendered detail page and prints the site, risk flags and documents as one JSON object.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultSettle      = 4 * time.Second
	defaultGotoTimeout = 60 * time.Second
)

// Backend returns the fully client-rendered markup of a page.
type Backend interface {
	Content(ctx context.Context, pageURL string) ([]byte, error)
}

// Browserless calls a browserless-compatible /content endpoint: the page is loaded, the
// browser waits for network idle and then for Settle before the DOM is serialized.
type Browserless struct {
	Endpoint string
	Token    string
	Settle   time.Duration
	Client   *http.Client
}

type gotoOptions struct {
	WaitUntil string `json:"waitUntil"`
	Timeout   int64  `json:"timeout"`
}

type contentRequest struct {
	URL            string      `json:"url"`
	GotoOptions    gotoOptions `json:"gotoOptions"`
	WaitForTimeout int64       `json:"waitForTimeout,omitempty"`
}

// Content posts pageURL to the service and returns the rendered HTML.
func (b *Browserless) Content(ctx context.Context, pageURL string) ([]byte, error) {
	if b.Endpoint == "" {
		return nil, fmt.Errorf("rendering endpoint not configured")
	}
	settle := b.Settle
	if settle <= 0 {
		settle = defaultSettle
	}
	payload, err := json.Marshal(contentRequest{
		URL:            pageURL,
		GotoOptions:    gotoOptions{WaitUntil: "networkidle0", Timeout: defaultGotoTimeout.Milliseconds()},
		WaitForTimeout: settle.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(b.Endpoint, "/") + "/content"
	if b.Token != "" {
		endpoint += "?token=" + url.QueryEscape(b.Token)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := b.Client
	if client == nil {
		client = &http.Client{Timeout: defaultGotoTimeout + settle + 10*time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rendered page: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
