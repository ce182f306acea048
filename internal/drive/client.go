package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const userAgent = "drivebridge/0.1"

// Default API endpoints for the Drive v3 surface this package consumes.
const (
	DefaultBaseURL       = "https://www.googleapis.com/drive/v3"
	DefaultUploadBaseURL = "https://www.googleapis.com/upload/drive/v3"
)

// TokenSource provides OAuth2 bearer tokens. Defined at the consumer
// (drive package) per Go convention "accept interfaces, return structs".
// The export package bridges its Authorizer to this interface.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource returning a fixed access token. Used when
// the caller supplied a token verbatim.
type StaticToken string

func (s StaticToken) Token() (string, error) {
	return string(s), nil
}

// Client issues authenticated requests against the Drive v3 file and
// upload endpoints. It performs no retries: both upload phases are
// single-shot and every failure propagates to the caller.
type Client struct {
	baseURL    string
	uploadBase string
	httpClient *http.Client
	token      TokenSource
	logger     *slog.Logger
}

// NewClient creates a Drive client. Empty baseURL/uploadBase select the
// production endpoints.
func NewClient(baseURL, uploadBase string, httpClient *http.Client, token TokenSource, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if uploadBase == "" {
		uploadBase = DefaultUploadBaseURL
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		uploadBase: uploadBase,
		httpClient: httpClient,
		token:      token,
		logger:     logger,
	}
}

// WithTokenSource returns a shallow copy of the client bound to a
// different token source. Used to run one operation under a
// caller-supplied or freshly authorized token.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	clone := *c
	clone.token = ts

	return &clone
}

// do executes a single authenticated HTTP request. The response is
// returned regardless of status code; each operation applies its own
// status and body handling. contentType may be empty for bodyless requests.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("drive: creating request: %w", err)
	}

	tok, err := c.token.Token()
	if err != nil {
		return nil, fmt.Errorf("drive: obtaining token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", userAgent)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive: %s %s: %w", method, url, err)
	}

	c.logger.Debug("request complete",
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
	)

	return resp, nil
}
