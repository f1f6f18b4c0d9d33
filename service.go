package storyhost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/previewhq/storyhost/zipindex"
)

// ObjectStore is the interface over remote blob storage. Implementations
// must map an absent key to ErrNotFound.
//
// All methods accept a context for cancellation and timeout control.
type ObjectStore interface {
	// Get opens an object for streaming. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Head returns object metadata without fetching content.
	Head(ctx context.Context, key string) (ObjectInfo, error)

	// GetRange reads up to length bytes starting at off, with HTTP range
	// semantics: reads past the end are truncated, reads at or past the end
	// return no bytes.
	GetRange(ctx context.Context, key string, off, length int64) ([]byte, error)

	// List returns one page of objects under prefix. Pass the returned
	// cursor to fetch the next page while Truncated is set.
	List(ctx context.Context, prefix, cursor string) (ListPage, error)

	// Put stores an object, replacing any existing one at the same key.
	Put(ctx context.Context, key string, content io.Reader) (ObjectInfo, error)

	// Delete removes an object. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, key string) error
}

// Cache is the interface over an external key/value store with TTLs.
// A miss is reported as ErrNotFound. Entries are replaced wholesale, never
// mutated in place.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Service is the serving pipeline: identifier resolution, cached archive
// indexes, and single-entry extraction.
//
// Cache failures are never fatal; the service degrades to rebuilding
// indexes and alias resolutions from the object store on every request.
type Service struct {
	store      ObjectStore
	cache      Cache
	indexTTL   time.Duration
	aliasTTL   time.Duration
	aliasToken string

	// group collapses concurrent index rebuilds of the same archive key.
	// This is an efficiency measure only; correctness does not depend on it.
	group singleflight.Group
}

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	IndexTTL   time.Duration // cache lifetime of parsed indexes (default 24h)
	AliasTTL   time.Duration // cache lifetime of alias resolutions (default 30s)
	AliasToken string        // version token resolved to the newest upload (default "latest")
}

// NewService creates a Service over the given store and cache.
func NewService(store ObjectStore, cache Cache, cfg ServiceConfig) (*Service, error) {
	if store == nil {
		return nil, errors.New("new service: object store is required")
	}
	if cache == nil {
		return nil, errors.New("new service: cache is required")
	}

	indexTTL := cfg.IndexTTL
	if indexTTL <= 0 {
		indexTTL = DefaultIndexTTL
	}
	aliasTTL := cfg.AliasTTL
	if aliasTTL <= 0 {
		aliasTTL = DefaultAliasTTL
	}
	aliasToken := cfg.AliasToken
	if aliasToken == "" {
		aliasToken = DefaultAliasToken
	}

	return &Service{
		store:      store,
		cache:      cache,
		indexTTL:   indexTTL,
		aliasTTL:   aliasTTL,
		aliasToken: aliasToken,
	}, nil
}

// Resolve parses a request path. It performs no I/O; alias versions are
// resolved later, at lookup time.
func (s *Service) Resolve(path string) (Resolution, error) {
	return ResolvePath(path)
}

// ServePath runs the full pipeline for one request path: resolve the
// identifier, resolve a version alias if present, and serve the entry.
func (s *Service) ServePath(ctx context.Context, path string) (Resolution, ServedFile, error) {
	res, err := ResolvePath(path)
	if err != nil {
		return Resolution{}, ServedFile{}, err
	}
	return s.Serve(ctx, res)
}

// Serve runs the pipeline for an already-resolved identifier, so callers
// that parsed the path themselves do not pay for a second parse. The
// returned resolution carries the concrete version an alias mapped to.
func (s *Service) Serve(ctx context.Context, res Resolution) (Resolution, ServedFile, error) {
	if res.Version == s.aliasToken {
		concrete, err := s.ResolveVersion(ctx, res.Project, res.Version)
		if err != nil {
			return res, ServedFile{}, err
		}
		res.Version = concrete
		res.ArchiveKey = ArchiveKey(res.Project, concrete)
	}

	served, err := s.ServeEntry(ctx, res.ArchiveKey, res.FilePath)
	if err != nil {
		return res, ServedFile{}, err
	}
	return res, served, nil
}

// ServeEntry locates filePath inside the archive at archiveKey and returns
// its decompressed bytes.
//
// When filePath has no extension and no matching entry exists, the lookup
// falls back to index.html before reporting a miss (single-page-app
// routing).
func (s *Service) ServeEntry(ctx context.Context, archiveKey, filePath string) (ServedFile, error) {
	if err := ctx.Err(); err != nil {
		return ServedFile{}, fmt.Errorf("serve entry: %w", err)
	}

	ix, err := s.loadIndex(ctx, archiveKey)
	if err != nil {
		return ServedFile{}, fmt.Errorf("serve entry %s!%s: %w", archiveKey, filePath, err)
	}

	entry, ok := ix.Lookup(filePath)
	if !ok && !hasExtension(filePath) {
		entry, ok = ix.Lookup(DefaultFilePath)
	}
	if !ok {
		return ServedFile{}, fmt.Errorf("serve entry %s!%s: %w", archiveKey, filePath, ErrNotFound)
	}

	data, err := zipindex.Extract(ctx, &storeSource{store: s.store, key: archiveKey, size: ix.TotalSize}, entry)
	if err != nil {
		return ServedFile{}, fmt.Errorf("serve entry %s!%s: %w", archiveKey, filePath, err)
	}

	return ServedFile{
		Data:          data,
		ContentLength: int64(len(data)),
		CRC32:         entry.CRC32,
		Path:          entry.Name,
	}, nil
}

// ResolveVersion maps a version token to a concrete version. Only the alias
// token triggers a listing; every other token is returned unchanged.
//
// The newest upload wins; equal timestamps are broken by the greater
// version string so resolution stays deterministic.
func (s *Service) ResolveVersion(ctx context.Context, project, token string) (string, error) {
	if token != s.aliasToken {
		return token, nil
	}
	if !IsValidProject(project) {
		return "", fmt.Errorf("resolve version: bad project %q: %w", project, ErrInvalidIdentifier)
	}

	cacheKey := AliasCacheKey(project)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
		return string(cached), nil
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		slog.Warn("alias cache read failed", "project", project, "err", err)
	}

	versions, err := s.Versions(ctx, project)
	if errors.Is(err, ErrUnsupported) {
		// Stores without listing support cannot back alias resolution; the
		// alias behaves like an absent archive while concrete versions keep
		// working.
		return "", fmt.Errorf("resolve version: store cannot list %s: %w", project, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("resolve version: no versioned archives for %s: %w", project, ErrNotFound)
	}

	best := versions[0]
	for _, v := range versions[1:] {
		if v.Uploaded.After(best.Uploaded) ||
			(v.Uploaded.Equal(best.Uploaded) && v.Version > best.Version) {
			best = v
		}
	}

	if err := s.cache.Put(ctx, cacheKey, []byte(best.Version), s.aliasTTL); err != nil {
		slog.Warn("alias cache write failed", "project", project, "err", err)
	}
	return best.Version, nil
}

// Versions enumerates a project's uploaded versions by listing the store to
// completion. The alias token's own directory is excluded so an alias can
// never resolve to itself.
func (s *Service) Versions(ctx context.Context, project string) ([]VersionInfo, error) {
	if !IsValidProject(project) {
		return nil, fmt.Errorf("versions: bad project %q: %w", project, ErrInvalidIdentifier)
	}

	prefix := project + "/"
	suffix := "/" + ArchiveFileName

	var versions []VersionInfo
	cursor := ""
	for {
		page, err := s.store.List(ctx, prefix, cursor)
		if err != nil {
			return nil, fmt.Errorf("versions %s: %w", project, err)
		}

		for _, obj := range page.Objects {
			rest, ok := strings.CutPrefix(obj.Key, prefix)
			if !ok {
				continue
			}
			version, ok := strings.CutSuffix(rest, suffix)
			if !ok || version == "" || strings.Contains(version, "/") {
				continue
			}
			if version == s.aliasToken {
				continue
			}
			versions = append(versions, VersionInfo{Version: version, Size: obj.Size, Uploaded: obj.Uploaded})
		}

		if !page.Truncated || page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	sort.Slice(versions, func(i, j int) bool {
		if !versions[i].Uploaded.Equal(versions[j].Uploaded) {
			return versions[i].Uploaded.After(versions[j].Uploaded)
		}
		return versions[i].Version > versions[j].Version
	})
	return versions, nil
}

// Publish stores a replacement archive for (project, version) and
// invalidates the caches that referenced the old one.
func (s *Service) Publish(ctx context.Context, project, version string, content io.Reader) (ObjectInfo, error) {
	if !IsValidProject(project) {
		return ObjectInfo{}, fmt.Errorf("publish: bad project %q: %w", project, ErrInvalidIdentifier)
	}
	if version != "" && !IsVersionToken(version) {
		return ObjectInfo{}, fmt.Errorf("publish: bad version %q: %w", version, ErrInvalidIdentifier)
	}
	if version == s.aliasToken {
		return ObjectInfo{}, fmt.Errorf("publish: version %q is reserved: %w", version, ErrInvalidIdentifier)
	}

	key := ArchiveKey(project, version)
	info, err := s.store.Put(ctx, key, content)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("publish %s: %w", key, err)
	}

	s.InvalidateArchive(ctx, key)
	return info, nil
}

// DeleteArchive removes the archive for (project, version) and invalidates
// its caches.
func (s *Service) DeleteArchive(ctx context.Context, project, version string) error {
	if !IsValidProject(project) {
		return fmt.Errorf("delete archive: bad project %q: %w", project, ErrInvalidIdentifier)
	}

	key := ArchiveKey(project, version)
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete archive %s: %w", key, err)
	}

	s.InvalidateArchive(ctx, key)
	return nil
}

// OpenArchive streams the raw archive for (project, version).
func (s *Service) OpenArchive(ctx context.Context, project, version string) (io.ReadCloser, error) {
	if !IsValidProject(project) {
		return nil, fmt.Errorf("open archive: bad project %q: %w", project, ErrInvalidIdentifier)
	}

	key := ArchiveKey(project, version)
	rc, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", key, err)
	}
	return rc, nil
}

// InvalidateArchive drops the cached index for archiveKey and the alias
// resolution of its project. Cache failures are logged and ignored; the
// next request rebuilds from the store either way.
func (s *Service) InvalidateArchive(ctx context.Context, archiveKey string) {
	if err := s.cache.Delete(ctx, IndexCacheKey(archiveKey)); err != nil && !errors.Is(err, ErrNotFound) {
		slog.Warn("index cache invalidation failed", "key", archiveKey, "err", err)
	}

	if project, _, ok := strings.Cut(archiveKey, "/"); ok {
		if err := s.cache.Delete(ctx, AliasCacheKey(project)); err != nil && !errors.Is(err, ErrNotFound) {
			slog.Warn("alias cache invalidation failed", "project", project, "err", err)
		}
	}
}

// loadIndex returns the archive's parsed index, consulting the cache before
// building. Concurrent misses on the same key share one rebuild.
func (s *Service) loadIndex(ctx context.Context, archiveKey string) (*zipindex.Index, error) {
	cacheKey := IndexCacheKey(archiveKey)

	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var ix zipindex.Index
		if jsonErr := json.Unmarshal(cached, &ix); jsonErr == nil && ix.Entries != nil {
			return &ix, nil
		}
		// A corrupt cache entry is treated as a miss and rebuilt.
		slog.Warn("discarding undecodable cached index", "key", archiveKey)
	} else if !errors.Is(err, ErrNotFound) {
		slog.Warn("index cache read failed", "key", archiveKey, "err", err)
	}

	v, err, _ := s.group.Do(archiveKey, func() (any, error) {
		ix, err := zipindex.Build(ctx, &storeSource{store: s.store, key: archiveKey})
		if err != nil {
			return nil, err
		}

		if payload, jsonErr := json.Marshal(ix); jsonErr == nil {
			if putErr := s.cache.Put(ctx, cacheKey, payload, s.indexTTL); putErr != nil {
				slog.Warn("index cache write failed", "key", archiveKey, "err", putErr)
			}
		}
		return ix, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*zipindex.Index), nil
}

// storeSource adapts one stored object to the zipindex range-read
// interface. A known size (from a previously built index) avoids a second
// length probe during extraction.
type storeSource struct {
	store ObjectStore
	key   string
	size  int64
}

func (s *storeSource) Length(ctx context.Context) (int64, error) {
	if s.size > 0 {
		return s.size, nil
	}
	info, err := s.store.Head(ctx, s.key)
	if err != nil {
		return 0, err
	}
	s.size = info.Size
	return s.size, nil
}

func (s *storeSource) ReadRange(ctx context.Context, off, length int64) ([]byte, error) {
	return s.store.GetRange(ctx, s.key, off, length)
}
