package storyhost

import "time"

// ArchiveFileName is the canonical file name every uploaded archive is
// stored under. It must be preserved bit-for-bit for key compatibility.
const ArchiveFileName = "storybook.zip"

// DefaultAliasToken is the version token resolved against the newest upload.
const DefaultAliasToken = "latest"

const (
	// DefaultIndexTTL bounds how long a parsed archive index stays cached.
	DefaultIndexTTL = 24 * time.Hour
	// DefaultAliasTTL bounds how long an alias resolution stays cached.
	// "latest" changes far more often than archive contents, so it is short.
	DefaultAliasTTL = 30 * time.Second
)

// Resolution is the outcome of parsing a request path.
type Resolution struct {
	// Project is the first path segment.
	Project string `json:"project"`
	// Version is the second segment when it matches the version grammar;
	// empty means the archive is stored directly under the project.
	Version string `json:"version,omitempty"`
	// ArchiveKey is the derived storage key for the archive.
	ArchiveKey string `json:"archive_key"`
	// FilePath is the in-archive path, defaulting to index.html.
	FilePath string `json:"file_path"`
}

// ServedFile is one extracted entry ready to hand to the response layer.
type ServedFile struct {
	Data          []byte
	ContentLength int64
	// CRC32 comes from the archive's central directory and is used as an
	// opaque ETag source only; it is never re-verified against the bytes.
	CRC32 uint32
	// Path is the entry that was actually served, which differs from the
	// requested path after a single-page-app fallback.
	Path string
}

// ObjectInfo describes one stored object returned by a listing.
type ObjectInfo struct {
	Key      string    `json:"key"`
	Size     int64     `json:"size"`
	Uploaded time.Time `json:"uploaded"`
}

// ListPage is one page of a listing. A truncated page carries the cursor
// for the next call.
type ListPage struct {
	Objects   []ObjectInfo `json:"objects"`
	Cursor    string       `json:"cursor,omitempty"`
	Truncated bool         `json:"truncated"`
}

// VersionInfo describes one uploaded version of a project.
type VersionInfo struct {
	Version  string    `json:"version"`
	Size     int64     `json:"size"`
	Uploaded time.Time `json:"uploaded"`
}

// IndexCacheKey returns the cache key holding the serialized index of an
// archive.
func IndexCacheKey(archiveKey string) string {
	return "cd:" + archiveKey
}

// AliasCacheKey returns the cache key holding a project's resolved alias.
func AliasCacheKey(project string) string {
	return "latest:" + project
}
