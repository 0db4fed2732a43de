package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/peermark/internal/hostgate"
	"github.com/nao1215/peermark/internal/message"
)

// DefaultClientTimeout bounds every call to the shell.
const DefaultClientTimeout = 5 * time.Second

// Client talks to a running shell Server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClientLogger sets a custom logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client for the shell at baseURL, for example
// "http://127.0.0.1:7878". A bare host:port is given the http scheme.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL != "" && !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, baseURL)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultClientTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c, nil
}

// BaseURL returns the shell address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health checks that the shell is up.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, routeHealth, nil, nil)
	return err
}

// IsDisabled asks the shell whether url's host is opted out.
func (c *Client) IsDisabled(ctx context.Context, pageURL string) (bool, error) {
	status, err := c.Check(ctx, pageURL)
	if err != nil {
		return false, err
	}
	return status.Disabled, nil
}

// Check returns the opt-out status of url's host.
func (c *Client) Check(ctx context.Context, pageURL string) (HostStatus, error) {
	var status HostStatus
	path := routeCheck + "?url=" + url.QueryEscape(pageURL)
	_, err := c.do(ctx, http.MethodGet, path, nil, &status)
	return status, err
}

// Hosts lists every opted-out host.
func (c *Client) Hosts(ctx context.Context) (HostList, error) {
	var list HostList
	_, err := c.do(ctx, http.MethodGet, routeHosts, nil, &list)
	return list, err
}

// Disable opts url's host out and returns the shell's reply message.
func (c *Client) Disable(ctx context.Context, pageURL string, mode hostgate.Mode) (message.Message, error) {
	return c.exchange(ctx, routeDisable, HostRequest{URL: pageURL, Mode: mode.String()})
}

// Enable opts url's host back in and returns the shell's reply message.
func (c *Client) Enable(ctx context.Context, pageURL string) (message.Message, error) {
	return c.exchange(ctx, routeEnable, HostRequest{URL: pageURL})
}

// Ready announces a loaded page and returns the shell's answer:
// EnableAnnotations, or nil when the host is opted out.
func (c *Client) Ready(ctx context.Context, pageURL string) (message.Message, error) {
	data, err := message.Encode(message.PageReady{URL: pageURL})
	if err != nil {
		return nil, err
	}
	return c.exchange(ctx, routeMessages, json.RawMessage(data))
}

// Send posts m to the shell, discarding any reply. It implements message.Port.
func (c *Client) Send(ctx context.Context, m message.Message) error {
	data, err := message.Encode(m)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPost, routeMessages, json.RawMessage(data), nil)
	return err
}

func (c *Client) exchange(ctx context.Context, path string, body any) (message.Message, error) {
	raw, err := c.do(ctx, http.MethodPost, path, body, nil)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	m, err := message.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	return m, nil
}

// do performs a request and returns the raw body. When out is non-nil the
// body is decoded into it.
func (c *Client) do(ctx context.Context, method, path string, body, out any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxRequestBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var e errorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%w: %d: %s", ErrBadResponse, resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
		}
	}

	c.logger.Debug("shell call", "method", method, "path", path, "status", resp.StatusCode)
	return raw, nil
}
