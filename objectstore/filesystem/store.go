// Package filesystem provides a file system object store backend.
// It supports atomic writes using temp files and range reads with HTTP
// range semantics, which makes it suitable both for local development and
// as the archive store of a single-node deployment.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/previewhq/storyhost"
)

// DefaultPageSize bounds how many objects one List call returns.
const DefaultPageSize = 1000

// Store provides object storage on the local file system. Keys map
// directly to relative file paths under the root.
type Store struct {
	root     *os.Root
	pageSize int
}

// Option configures a Store.
type Option func(*Store)

// WithPageSize overrides the listing page size.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// New creates a Store over the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func New(root *os.Root, opts ...Option) *Store {
	s := &Store{root: root, pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get opens an object for reading. Returns storyhost.ErrNotFound if the key
// does not exist.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storyhost.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

// Head returns object metadata without reading content.
func (s *Store) Head(ctx context.Context, key string) (storyhost.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return storyhost.ObjectInfo{}, err
	}

	info, err := s.root.Stat(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return storyhost.ObjectInfo{}, storyhost.ErrNotFound
		}
		return storyhost.ObjectInfo{}, fmt.Errorf("failed to stat object: %w", err)
	}
	if info.IsDir() {
		return storyhost.ObjectInfo{}, storyhost.ErrNotFound
	}

	return storyhost.ObjectInfo{
		Key:      key,
		Size:     info.Size(),
		Uploaded: info.ModTime().UTC(),
	}, nil
}

// GetRange reads up to length bytes starting at off, truncating at the end
// of the object the way an HTTP range request would.
func (s *Store) GetRange(ctx context.Context, key string, off, length int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if off < 0 || length < 0 {
		return nil, fmt.Errorf("invalid range [%d,+%d)", off, length)
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storyhost.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}
	size := info.Size()
	if off >= size {
		return nil, nil
	}
	if off+length > size {
		length = size - off
	}

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("failed to read range: %w", err)
	}
	return buf, nil
}

// List returns one page of keys under prefix in lexicographic order.
// The cursor is the last key of the previous page.
func (s *Store) List(ctx context.Context, prefix, cursor string) (storyhost.ListPage, error) {
	if err := ctx.Err(); err != nil {
		return storyhost.ListPage{}, err
	}

	var keys []string
	err := fs.WalkDir(s.root.FS(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		key := filepath.ToSlash(path)
		if strings.HasPrefix(key, prefix) && key > cursor {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return storyhost.ListPage{}, fmt.Errorf("failed to list objects: %w", err)
	}
	sort.Strings(keys)

	page := storyhost.ListPage{}
	for i, key := range keys {
		if i >= s.pageSize {
			page.Truncated = true
			page.Cursor = keys[i-1]
			break
		}

		info, statErr := s.root.Stat(key)
		if statErr != nil {
			return storyhost.ListPage{}, fmt.Errorf("failed to stat %s: %w", key, statErr)
		}
		page.Objects = append(page.Objects, storyhost.ObjectInfo{
			Key:      key,
			Size:     info.Size(),
			Uploaded: info.ModTime().UTC(),
		})
	}
	return page, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes an object using a temp file and rename, creating
// intermediate directories as needed. An existing object at the same key is
// replaced.
func (s *Store) Put(ctx context.Context, key string, content io.Reader) (storyhost.ObjectInfo, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return storyhost.ObjectInfo{}, ctxErr
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return storyhost.ObjectInfo{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	written, err := io.Copy(t, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return storyhost.ObjectInfo{}, fmt.Errorf("could not copy object contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return storyhost.ObjectInfo{}, fmt.Errorf("could not sync written object: %w", err)
	}

	destDir := filepath.Dir(key)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return storyhost.ObjectInfo{}, fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, key); renameErr != nil {
		return storyhost.ObjectInfo{}, fmt.Errorf("failed to rename object: %w", renameErr)
	}
	success = true

	info, err := s.root.Stat(key)
	if err != nil {
		return storyhost.ObjectInfo{}, fmt.Errorf("failed to stat written object: %w", err)
	}

	return storyhost.ObjectInfo{
		Key:      key,
		Size:     written,
		Uploaded: info.ModTime().UTC(),
	}, nil
}

// Delete removes an object. Returns storyhost.ErrNotFound if the key does
// not exist.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.root.Remove(key); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return storyhost.ErrNotFound
		}
		return fmt.Errorf("could not delete object: %w", err)
	}
	return nil
}

func tmpFileName() string {
	return ".tmp-" + uuid.NewString()
}
