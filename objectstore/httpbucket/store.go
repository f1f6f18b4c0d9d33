// Package httpbucket provides a read-only object store over HTTP range
// requests, for serving archives straight out of a bucket or CDN that
// exposes plain GET access.
package httpbucket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/previewhq/storyhost"
)

// Store implements storyhost.ObjectStore over a base URL. Keys append to
// the base URL path. The backing server must support byte-range requests
// for partial reads to stay partial; a 200 response is accepted but costs a
// full download.
//
// HTTP buckets cannot enumerate keys, so List, Put and Delete report
// storyhost.ErrUnsupported. Version-alias resolution is unavailable over
// this backend; concrete versions work normally.
type Store struct {
	baseURL string
	client  *http.Client
	headers http.Header
}

// Option configures a Store.
type Option func(*Store)

// WithClient sets the HTTP client used for requests.
func WithClient(client *http.Client) Option {
	return func(s *Store) {
		if client != nil {
			s.client = client
		}
	}
}

// WithHeader sets a single header sent on each request.
func WithHeader(key, value string) Option {
	return func(s *Store) {
		if s.headers == nil {
			s.headers = make(http.Header)
		}
		s.headers.Set(key, value)
	}
}

// New creates a Store rooted at baseURL.
func New(baseURL string, opts ...Option) (*Store, error) {
	if baseURL == "" {
		return nil, errors.New("http bucket: base URL is required")
	}

	s := &Store{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) newRequest(ctx context.Context, method, key string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/"+key, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range s.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// Get streams an object with a plain GET.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	req, err := s.newRequest(ctx, http.MethodGet, key)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http bucket get %s: %w", key, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, storyhost.ErrNotFound
	default:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("http bucket get %s: unexpected status %d", key, resp.StatusCode)
	}
}

// Head probes object size and modification time without a body.
func (s *Store) Head(ctx context.Context, key string) (storyhost.ObjectInfo, error) {
	req, err := s.newRequest(ctx, http.MethodHead, key)
	if err != nil {
		return storyhost.ObjectInfo{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return storyhost.ObjectInfo{}, fmt.Errorf("http bucket head %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return storyhost.ObjectInfo{}, storyhost.ErrNotFound
	default:
		return storyhost.ObjectInfo{}, fmt.Errorf("http bucket head %s: unexpected status %d", key, resp.StatusCode)
	}

	if resp.ContentLength < 0 {
		return storyhost.ObjectInfo{}, fmt.Errorf("http bucket head %s: unknown content length", key)
	}

	info := storyhost.ObjectInfo{Key: key, Size: resp.ContentLength}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, parseErr := time.Parse(http.TimeFormat, lm); parseErr == nil {
			info.Uploaded = t.UTC()
		}
	}
	return info, nil
}

// GetRange issues a byte-range request. A 206 returns the requested slice;
// a 200 from a server without range support is sliced locally; a 416 means
// the offset is past the end and yields no bytes.
func (s *Store) GetRange(ctx context.Context, key string, off, length int64) ([]byte, error) {
	if off < 0 || length < 0 {
		return nil, fmt.Errorf("invalid range [%d,+%d)", off, length)
	}
	if length == 0 {
		return nil, nil
	}

	req, err := s.newRequest(ctx, http.MethodGet, key)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, off+length-1))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http bucket range %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("http bucket range %s: %w", key, readErr)
		}
		return data, nil
	case http.StatusOK:
		// No range support; fetch and slice.
		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("http bucket range %s: %w", key, readErr)
		}
		if off >= int64(len(data)) {
			return nil, nil
		}
		end := off + length
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		return data[off:end], nil
	case http.StatusRequestedRangeNotSatisfiable:
		return nil, nil
	case http.StatusNotFound:
		return nil, storyhost.ErrNotFound
	default:
		return nil, fmt.Errorf("http bucket range %s: unexpected status %d", key, resp.StatusCode)
	}
}

// List is not available over plain HTTP.
func (s *Store) List(_ context.Context, prefix, _ string) (storyhost.ListPage, error) {
	return storyhost.ListPage{}, fmt.Errorf("http bucket list %s: %w", prefix, storyhost.ErrUnsupported)
}

// Put is not available over plain HTTP.
func (s *Store) Put(_ context.Context, key string, _ io.Reader) (storyhost.ObjectInfo, error) {
	return storyhost.ObjectInfo{}, fmt.Errorf("http bucket put %s: %w", key, storyhost.ErrUnsupported)
}

// Delete is not available over plain HTTP.
func (s *Store) Delete(_ context.Context, key string) error {
	return fmt.Errorf("http bucket delete %s: %w", key, storyhost.ErrUnsupported)
}
