// Package zipindex parses ZIP central directories and extracts single
// entries using only partial reads against a range-readable source.
//
// Nothing here ever downloads a whole archive: building an index costs at
// most two range reads (the trailing end-of-central-directory search plus
// the directory region when it falls outside the tail), and extracting one
// entry costs exactly two (the entry's local header, then its compressed
// payload).
//
// The package intentionally implements only the subset of the ZIP format
// needed for that: no ZIP64, no encryption, no multi-volume archives.
package zipindex

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrMalformed is returned when the central directory cannot be located
	// or parsed.
	ErrMalformed = errors.New("malformed archive")
	// ErrUnsupported is returned for ZIP64 archives and compression methods
	// other than Stored and Deflate.
	ErrUnsupported = errors.New("unsupported archive feature")
	// ErrExtraction is returned when a range read comes back empty or short.
	ErrExtraction = errors.New("extraction failed")
	// ErrDecompression is returned when compressed bytes do not inflate.
	ErrDecompression = errors.New("decompression failed")
)

// Method is a ZIP compression method.
type Method uint16

const (
	// Store is method 0, uncompressed.
	Store Method = 0
	// Deflate is method 8, raw deflate with no zlib or gzip framing.
	Deflate Method = 8
)

// Entry is one file inside an archive, as described by the central
// directory. Entries are immutable once built.
type Entry struct {
	Name              string `json:"name"`
	UncompressedSize  int64  `json:"uncompressed_size"`
	CompressedSize    int64  `json:"compressed_size"`
	LocalHeaderOffset int64  `json:"local_header_offset"`
	CRC32             uint32 `json:"crc32"`
	Method            Method `json:"method"`
}

// Index is the parsed central directory of one archive.
type Index struct {
	// Entries maps normalized in-archive paths to their entries.
	Entries map[string]Entry `json:"entries"`
	// TotalSize is the archive byte length the index was built against.
	TotalSize int64 `json:"total_size"`
	// BuiltAt is when the index was built, for cache aging.
	BuiltAt time.Time `json:"built_at"`
}

// Lookup finds an entry by path after normalization.
func (ix *Index) Lookup(name string) (Entry, bool) {
	e, ok := ix.Entries[NormalizeName(name)]
	return e, ok
}

// NormalizeName converts an archive member name to the canonical lookup
// form: forward slashes, no leading slash.
func NormalizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	return strings.TrimPrefix(name, "/")
}
