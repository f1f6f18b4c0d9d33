package clientcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP client timeout. Archive uploads can be
// large, so it is generous.
const DefaultTimeout = 5 * time.Minute

// Client performs operations against a storyhost server's operational API.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: &Config{
			Endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
			Token:    cfg.Token,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// archiveURL builds /api/archives/{project}[/{version}].
func (c *Client) archiveURL(project, version string) string {
	u := c.config.Endpoint + "/api/archives/" + url.PathEscape(project)
	if version != "" {
		u += "/" + url.PathEscape(version)
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	return req, nil
}

// Publish uploads a local ZIP archive for project (optionally under a
// version directory) and returns the stored object's metadata.
func (c *Client) Publish(ctx context.Context, opts PublishOptions) (*PublishResult, error) {
	if opts.Project == "" {
		return nil, fmt.Errorf("publish: %w", ErrProjectRequired)
	}
	if opts.ArchivePath == "" {
		return nil, fmt.Errorf("publish: %w", ErrArchiveRequired)
	}

	file, err := os.Open(opts.ArchivePath) //#nosec G304 -- path is user-provided input
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.archiveURL(opts.Project, opts.Version), file)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/zip")
	req.ContentLength = info.Size()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseServerError(resp.StatusCode, body)
	}

	var obj serverObjectInfo
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &PublishResult{
		Project:     opts.Project,
		Version:     opts.Version,
		Key:         obj.Key,
		Size:        obj.Size,
		Uploaded:    obj.Uploaded,
		ArchivePath: opts.ArchivePath,
	}, nil
}

// Download fetches the raw archive for project (optionally a version) and
// writes it to outPath.
func (c *Client) Download(ctx context.Context, project, version, outPath string) (int64, error) {
	if project == "" {
		return 0, fmt.Errorf("download: %w", ErrProjectRequired)
	}
	if outPath == "" {
		return 0, fmt.Errorf("download: %w", ErrArchiveRequired)
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.archiveURL(project, version), http.NoBody)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, parseServerError(resp.StatusCode, body)
	}

	out, err := os.Create(outPath) //#nosec G304 -- path is user-provided input
	if err != nil {
		return 0, fmt.Errorf("create output file: %w", err)
	}

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		_ = out.Close()
		return n, fmt.Errorf("write archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("close output file: %w", err)
	}
	return n, nil
}

// DeleteArchive removes the archive for project (optionally a version) from
// the server.
func (c *Client) DeleteArchive(ctx context.Context, project, version string) error {
	if project == "" {
		return fmt.Errorf("delete: %w", ErrProjectRequired)
	}

	req, err := c.newRequest(ctx, http.MethodDelete, c.archiveURL(project, version), http.NoBody)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	return parseServerError(resp.StatusCode, body)
}

// Invalidate drops the server's cached index and alias resolution for the
// archive of project (optionally a version).
func (c *Client) Invalidate(ctx context.Context, project, version string) error {
	if project == "" {
		return fmt.Errorf("invalidate: %w", ErrProjectRequired)
	}

	u := c.config.Endpoint + "/api/invalidate/" + url.PathEscape(project)
	if version != "" {
		u += "/" + url.PathEscape(version)
	}

	req, err := c.newRequest(ctx, http.MethodPost, u, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	return parseServerError(resp.StatusCode, body)
}

// Versions lists a project's uploaded versions.
func (c *Client) Versions(ctx context.Context, project string) ([]VersionInfo, error) {
	if project == "" {
		return nil, fmt.Errorf("versions: %w", ErrProjectRequired)
	}

	u := c.config.Endpoint + "/api/versions/" + url.PathEscape(project)

	req, err := c.newRequest(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseServerError(resp.StatusCode, body)
	}

	var result serverVersionsResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return result.Versions, nil
}

// parseServerError extracts an error from a server response.
func parseServerError(statusCode int, body []byte) error {
	return &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested resource does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrForbidden is returned when the token is missing or rejected (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}
)
