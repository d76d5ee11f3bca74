package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/thruflo/ranker/internal/logging"
)

// Default backend paths.
const (
	DefaultAnalyzePath = "/folder/images"
	DefaultPromptPath  = "/folder/images/prompt"
	DefaultHealthPath  = "/"
)

// Client provides HTTP access to the analysis backend.
type Client struct {
	// baseURL is the base URL of the backend (e.g., "http://127.0.0.1:8000")
	baseURL string

	// httpClient is the HTTP client used for requests
	httpClient *http.Client

	analyzePath string
	promptPath  string
	healthPath  string

	log *logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithAnalyzePaths sets the unconditional and prompt-conditioned endpoint paths.
// Empty values keep the defaults.
func WithAnalyzePaths(analyze, prompt string) ClientOption {
	return func(c *Client) {
		if analyze != "" {
			c.analyzePath = analyze
		}
		if prompt != "" {
			c.promptPath = prompt
		}
	}
}

// WithHealthPath sets the liveness probe path.
func WithHealthPath(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.healthPath = path
		}
	}
}

// WithLogger sets the logger used by the client and its streams.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		c.log = logger
	}
}

// NewClient creates a new Client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 0, // No timeout for streaming connections
		},
		analyzePath: DefaultAnalyzePath,
		promptPath:  DefaultPromptPath,
		healthPath:  DefaultHealthPath,
		log:         logging.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the base URL of the backend.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// endpoint selects the backend operation for a request. Both variants share the
// same event protocol.
func (c *Client) endpoint(req AnalysisRequest) string {
	if req.Prompted() {
		return c.baseURL + ensureSlash(c.promptPath)
	}
	return c.baseURL + ensureSlash(c.analyzePath)
}

// Open submits the request and returns its event stream. The connection stays
// open until the stream completes, fails, is closed, or ctx is canceled.
func (c *Client) Open(ctx context.Context, req AnalysisRequest) (*Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	data, err := req.body()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.endpoint(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	c.log.Debug("opening analysis stream", "request", req.ID, "url", url, "mode", req.Mode, "prompted", req.Prompted())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "connect", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &TransportError{
			Op:         "status",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	return NewStream(req, resp.Body, c.log), nil
}

func ensureSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
