package storyhost_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/previewhq/storyhost"
)

type memObject struct {
	data     []byte
	uploaded time.Time
}

// memStore is an in-memory ObjectStore recording call counts so tests can
// assert on how often the pipeline touches the backing store.
type memStore struct {
	mu         sync.Mutex
	objects    map[string]memObject
	pageSize   int
	headCalls  int
	rangeCalls int
	listCalls  int
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string]memObject)}
}

func (s *memStore) put(key string, data []byte, uploaded time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{data: data, uploaded: uploaded}
}

func (s *memStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, storyhost.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *memStore) Head(_ context.Context, key string) (storyhost.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headCalls++
	obj, ok := s.objects[key]
	if !ok {
		return storyhost.ObjectInfo{}, storyhost.ErrNotFound
	}
	return storyhost.ObjectInfo{Key: key, Size: int64(len(obj.data)), Uploaded: obj.uploaded}, nil
}

func (s *memStore) GetRange(_ context.Context, key string, off, length int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rangeCalls++
	obj, ok := s.objects[key]
	if !ok {
		return nil, storyhost.ErrNotFound
	}
	size := int64(len(obj.data))
	if off < 0 || off >= size {
		return nil, nil
	}
	end := off + length
	if end > size {
		end = size
	}
	return append([]byte(nil), obj.data[off:end]...), nil
}

func (s *memStore) List(_ context.Context, prefix, cursor string) (storyhost.ListPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++

	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) && k > cursor {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	page := storyhost.ListPage{}
	limit := s.pageSize
	if limit <= 0 {
		limit = len(keys)
	}
	for i, k := range keys {
		if i >= limit {
			page.Truncated = true
			page.Cursor = keys[i-1]
			break
		}
		page.Objects = append(page.Objects, storyhost.ObjectInfo{
			Key: k, Size: int64(len(s.objects[k].data)), Uploaded: s.objects[k].uploaded,
		})
	}
	return page, nil
}

func (s *memStore) Put(_ context.Context, key string, content io.Reader) (storyhost.ObjectInfo, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return storyhost.ObjectInfo{}, err
	}
	now := time.Now().UTC()
	s.put(key, data, now)
	return storyhost.ObjectInfo{Key: key, Size: int64(len(data)), Uploaded: now}, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return storyhost.ErrNotFound
	}
	delete(s.objects, key)
	return nil
}

// memCache is a minimal in-memory Cache; TTLs are accepted and ignored.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, storyhost.ErrNotFound
	}
	return v, nil
}

func (c *memCache) Put(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]byte(nil), value...)
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// failCache fails every call, modelling an unreachable backing store.
type failCache struct{}

func (failCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("cache backend unreachable")
}

func (failCache) Put(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache backend unreachable")
}

func (failCache) Delete(context.Context, string) error {
	return errors.New("cache backend unreachable")
}

func makeArchive(t *testing.T, contents map[string]string, deflated map[string]bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range contents {
		method := zip.Store
		if deflated[name] {
			method = zip.Deflate
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newService(t *testing.T, store storyhost.ObjectStore, cache storyhost.Cache) *storyhost.Service {
	t.Helper()
	svc, err := storyhost.NewService(store, cache, storyhost.ServiceConfig{})
	require.NoError(t, err)
	return svc
}

func TestServiceServePath(t *testing.T) {
	ctx := context.Background()

	siteHTML := "<html>site</html>"
	appJS := strings.Repeat("export const answer = 42;\n", 6)
	archive := makeArchive(t, map[string]string{
		"index.html":    siteHTML,
		"assets/app.js": appJS,
	}, map[string]bool{"assets/app.js": true})

	t.Run("serves a versioned file", func(t *testing.T) {
		store := newMemStore()
		store.put("my-app/v1.0.0/storybook.zip", archive, time.Now())
		svc := newService(t, store, newMemCache())

		res, served, err := svc.ServePath(ctx, "/my-app/v1.0.0/assets/app.js")
		require.NoError(t, err)
		assert.Equal(t, "my-app", res.Project)
		assert.Equal(t, "v1.0.0", res.Version)
		assert.Equal(t, appJS, string(served.Data))
		assert.Equal(t, int64(len(appJS)), served.ContentLength)
		assert.NotZero(t, served.CRC32)
	})

	t.Run("extensionless miss falls back to index.html", func(t *testing.T) {
		store := newMemStore()
		store.put("my-app/storybook.zip", archive, time.Now())
		svc := newService(t, store, newMemCache())

		_, served, err := svc.ServePath(ctx, "/my-app/some/client/route")
		require.NoError(t, err)
		assert.Equal(t, siteHTML, string(served.Data))
		assert.Equal(t, "index.html", served.Path)
	})

	t.Run("miss with extension is NotFound", func(t *testing.T) {
		store := newMemStore()
		store.put("my-app/storybook.zip", archive, time.Now())
		svc := newService(t, store, newMemCache())

		_, _, err := svc.ServePath(ctx, "/my-app/missing.png")
		assert.ErrorIs(t, err, storyhost.ErrNotFound)
	})

	t.Run("absent archive is NotFound", func(t *testing.T) {
		svc := newService(t, newMemStore(), newMemCache())
		_, _, err := svc.ServePath(ctx, "/nosuch/index.html")
		assert.ErrorIs(t, err, storyhost.ErrNotFound)
	})

	t.Run("alias version resolves to the newest upload", func(t *testing.T) {
		store := newMemStore()
		base := time.Now().UTC()
		store.put("proj/v1.0.0/storybook.zip", archive, base.Add(-time.Hour))
		store.put("proj/v2.0.0/storybook.zip", archive, base)
		svc := newService(t, store, newMemCache())

		res, _, err := svc.ServePath(ctx, "/proj/latest/index.html")
		require.NoError(t, err)
		assert.Equal(t, "v2.0.0", res.Version)
		assert.Equal(t, "proj/v2.0.0/storybook.zip", res.ArchiveKey)
	})
}

func TestServiceIndexCaching(t *testing.T) {
	ctx := context.Background()
	archive := makeArchive(t, map[string]string{"index.html": "cached!"}, nil)

	t.Run("second request reuses the cached index", func(t *testing.T) {
		store := newMemStore()
		store.put("my-app/storybook.zip", archive, time.Now())
		cache := newMemCache()
		svc := newService(t, store, cache)

		_, _, err := svc.ServePath(ctx, "/my-app/")
		require.NoError(t, err)

		_, cacheErr := cache.Get(ctx, "cd:my-app/storybook.zip")
		assert.NoError(t, cacheErr, "index must be cached under cd:{archiveKey}")

		headBefore, rangeBefore := store.headCalls, store.rangeCalls
		_, served, err := svc.ServePath(ctx, "/my-app/")
		require.NoError(t, err)
		assert.Equal(t, "cached!", string(served.Data))

		assert.Equal(t, headBefore, store.headCalls, "cached index carries the archive size")
		assert.Equal(t, rangeBefore+2, store.rangeCalls, "a cached index costs exactly two reads: header and payload")
	})

	t.Run("cache failures degrade to a rebuild", func(t *testing.T) {
		store := newMemStore()
		store.put("my-app/storybook.zip", archive, time.Now())
		svc := newService(t, store, failCache{})

		for i := 0; i < 2; i++ {
			_, served, err := svc.ServePath(ctx, "/my-app/")
			require.NoError(t, err)
			assert.Equal(t, "cached!", string(served.Data))
		}
	})

	t.Run("publish invalidates the cached index", func(t *testing.T) {
		store := newMemStore()
		store.put("my-app/storybook.zip", archive, time.Now())
		cache := newMemCache()
		svc := newService(t, store, cache)

		_, _, err := svc.ServePath(ctx, "/my-app/")
		require.NoError(t, err)

		replacement := makeArchive(t, map[string]string{"index.html": "republished"}, nil)
		_, err = svc.Publish(ctx, "my-app", "", bytes.NewReader(replacement))
		require.NoError(t, err)

		_, served, err := svc.ServePath(ctx, "/my-app/")
		require.NoError(t, err)
		assert.Equal(t, "republished", string(served.Data))
	})
}

func TestServiceResolveVersion(t *testing.T) {
	ctx := context.Background()
	archive := makeArchive(t, map[string]string{"index.html": "v"}, nil)

	t.Run("literal versions never trigger a listing", func(t *testing.T) {
		store := newMemStore()
		svc := newService(t, store, newMemCache())

		got, err := svc.ResolveVersion(ctx, "proj", "v1.0.0")
		require.NoError(t, err)
		assert.Equal(t, "v1.0.0", got)
		assert.Zero(t, store.listCalls)
	})

	t.Run("alias follows pagination to completion", func(t *testing.T) {
		store := newMemStore()
		store.pageSize = 1
		base := time.Now().UTC()
		store.put("proj/v1.0.0/storybook.zip", archive, base.Add(-2*time.Hour))
		store.put("proj/v2.0.0/storybook.zip", archive, base.Add(-time.Hour))
		store.put("proj/v3.0.0/storybook.zip", archive, base)
		svc := newService(t, store, newMemCache())

		got, err := svc.ResolveVersion(ctx, "proj", "latest")
		require.NoError(t, err)
		assert.Equal(t, "v3.0.0", got)
		assert.GreaterOrEqual(t, store.listCalls, 3, "all pages must be consumed before picking the maximum")
	})

	t.Run("equal timestamps break ties lexicographically", func(t *testing.T) {
		store := newMemStore()
		uploaded := time.Now().UTC()
		store.put("proj/v1.9.0/storybook.zip", archive, uploaded)
		store.put("proj/v1.10.0/storybook.zip", archive, uploaded)
		svc := newService(t, store, newMemCache())

		got, err := svc.ResolveVersion(ctx, "proj", "latest")
		require.NoError(t, err)
		assert.Equal(t, "v1.9.0", got, "tie-break is by version string, greatest first")
	})

	t.Run("alias resolution is cached", func(t *testing.T) {
		store := newMemStore()
		store.put("proj/v1.0.0/storybook.zip", archive, time.Now())
		svc := newService(t, store, newMemCache())

		_, err := svc.ResolveVersion(ctx, "proj", "latest")
		require.NoError(t, err)
		listed := store.listCalls

		_, err = svc.ResolveVersion(ctx, "proj", "latest")
		require.NoError(t, err)
		assert.Equal(t, listed, store.listCalls)
	})

	t.Run("alias with no versioned archives is NotFound", func(t *testing.T) {
		store := newMemStore()
		store.put("proj/storybook.zip", archive, time.Now())
		svc := newService(t, store, newMemCache())

		_, err := svc.ResolveVersion(ctx, "proj", "latest")
		assert.ErrorIs(t, err, storyhost.ErrNotFound)
	})

	t.Run("alias over an unlistable store is NotFound", func(t *testing.T) {
		store := &unlistableStore{memStore: newMemStore()}
		store.put("proj/v1/storybook.zip", archive, time.Now())
		svc := newService(t, store, newMemCache())

		_, err := svc.ResolveVersion(ctx, "proj", "latest")
		assert.ErrorIs(t, err, storyhost.ErrNotFound)
		assert.NotErrorIs(t, err, storyhost.ErrUnsupported)

		// Concrete versions keep working without a listing.
		_, _, err = svc.ServePath(ctx, "/proj/v1/index.html")
		assert.NoError(t, err)
	})
}

// unlistableStore mimics backends like plain HTTP buckets that cannot
// enumerate keys.
type unlistableStore struct {
	*memStore
}

func (s *unlistableStore) List(context.Context, string, string) (storyhost.ListPage, error) {
	return storyhost.ListPage{}, fmt.Errorf("list objects: %w", storyhost.ErrUnsupported)
}

func TestServiceVersions(t *testing.T) {
	ctx := context.Background()
	archive := makeArchive(t, map[string]string{"index.html": "v"}, nil)

	store := newMemStore()
	base := time.Now().UTC()
	store.put("proj/storybook.zip", archive, base)                     // unversioned, excluded
	store.put("proj/latest/storybook.zip", archive, base)              // alias dir, excluded
	store.put("proj/v1.0.0/storybook.zip", archive, base.Add(-time.Hour))
	store.put("proj/pr-001/storybook.zip", archive, base)
	store.put("proj/v1.0.0/extra.zip", archive, base)                  // wrong file name
	store.put("projother/v9.0.0/storybook.zip", archive, base)         // wrong project
	svc := newService(t, store, newMemCache())

	versions, err := svc.Versions(ctx, "proj")
	require.NoError(t, err)

	var names []string
	for _, v := range versions {
		names = append(names, v.Version)
	}
	assert.Equal(t, []string{"pr-001", "v1.0.0"}, names)
}

func TestServicePublishValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, newMemStore(), newMemCache())

	_, err := svc.Publish(ctx, "proj", "latest", bytes.NewReader(nil))
	assert.ErrorIs(t, err, storyhost.ErrInvalidIdentifier, "the alias token is not a publishable version")

	_, err = svc.Publish(ctx, "proj", "not a version", bytes.NewReader(nil))
	assert.ErrorIs(t, err, storyhost.ErrInvalidIdentifier)

	_, err = svc.Publish(ctx, "Bad.Project", "v1", bytes.NewReader(nil))
	assert.ErrorIs(t, err, storyhost.ErrInvalidIdentifier)
}

func TestServiceConcurrentRequests(t *testing.T) {
	ctx := context.Background()
	archive := makeArchive(t, map[string]string{"index.html": "shared"}, nil)

	store := newMemStore()
	store.put("my-app/storybook.zip", archive, time.Now())
	svc := newService(t, store, newMemCache())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, served, err := svc.ServePath(ctx, "/my-app/")
			if err != nil {
				errs <- err
				return
			}
			if string(served.Data) != "shared" {
				errs <- fmt.Errorf("unexpected body %q", served.Data)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
