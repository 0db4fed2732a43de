package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nao1215/peermark/internal/model"
)

// Default client settings.
const (
	// DefaultClientVersion is reported to the service with every request.
	DefaultClientVersion = "0.3.3"

	// DefaultClientTag identifies the client flavour to the service.
	DefaultClientTag = "Safari"

	// DefaultMaxBodySize bounds how much of a response is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second
)

// Request is the JSON body sent to the review service.
type Request struct {
	Identifiers   []string `json:"identifiers"`
	ClientVersion string   `json:"clientVersion"`
	ClientTag     string   `json:"clientTag"`
}

// Response is the JSON body returned by the review service.
type Response struct {
	Feedbacks []model.Feedback `json:"feedbacks"`
}

// Client queries the review service for feedback on a batch of identifiers.
// A Client is safe for concurrent use; each page run issues its own request.
type Client struct {
	// endpoint is the full lookup URL, including any devkey query.
	endpoint string

	// client performs the HTTP requests.
	client *http.Client

	// clientVersion and clientTag are sent in every request body.
	clientVersion string
	clientTag     string

	// userAgent is the User-Agent header to send.
	userAgent string

	// maxBodySize limits the response body size to prevent memory exhaustion.
	maxBodySize int64

	// timeout is the per-request timeout.
	timeout time.Duration

	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithClientVersion sets the version reported to the service.
func WithClientVersion(version string) Option {
	return func(c *Client) {
		c.clientVersion = version
	}
}

// WithClientTag sets the client tag reported to the service.
func WithClientTag(tag string) Option {
	return func(c *Client) {
		c.clientTag = tag
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client for the given endpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}

	c := &Client{
		endpoint:      endpoint,
		clientVersion: DefaultClientVersion,
		clientTag:     DefaultClientTag,
		maxBodySize:   DefaultMaxBodySize,
		timeout:       DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c, nil
}

// Endpoint returns the lookup URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Lookup asks the service about identifiers in a single request.
//
// An empty input returns immediately without a request. A response status
// in 200-399 is parsed; an empty or unparsable body means nothing was found
// and yields an empty list. Any other status is a *StatusError and a failed
// request wraps ErrTransport. Nothing is retried.
func (c *Client) Lookup(ctx context.Context, identifiers []string) ([]model.Feedback, error) {
	if len(identifiers) == 0 {
		return []model.Feedback{}, nil
	}

	payload, err := json.Marshal(Request{
		Identifiers:   identifiers,
		ClientVersion: c.clientVersion,
		ClientTag:     c.clientTag,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode lookup request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("sending lookup request",
		"endpoint", c.endpoint,
		"identifiers", len(identifiers),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrTransport, err)
	}

	return c.decode(body), nil
}

// decode parses a successful response body. Empty, null and malformed
// bodies all mean "nothing found".
func (c *Client) decode(body []byte) []model.Feedback {
	if len(bytes.TrimSpace(body)) == 0 {
		c.logger.Debug("lookup returned empty body")
		return []model.Feedback{}
	}

	var resp *Response
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Debug("lookup returned unparsable body", "error", err)
		return []model.Feedback{}
	}
	if resp == nil || resp.Feedbacks == nil {
		return []model.Feedback{}
	}

	feedbacks := make([]model.Feedback, 0, len(resp.Feedbacks))
	for _, f := range resp.Feedbacks {
		if f.Identifier == "" {
			continue
		}
		feedbacks = append(feedbacks, f)
	}

	c.logger.Debug("lookup completed", "feedbacks", len(feedbacks))

	return feedbacks
}
