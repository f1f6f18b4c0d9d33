package storyhost

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultFilePath is served when a request names no file inside the archive.
const DefaultFilePath = "index.html"

// projectRegex is the identifier grammar for project names: lowercase
// alphanumerics and hyphens, starting with an alphanumeric, 2-63 runes.
// Dots are rejected so project names can never be mistaken for file names.
var projectRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// numericVersionRegex matches strict release versions such as v1 or v1.0.0.
var numericVersionRegex = regexp.MustCompile(`^v[0-9]+(\.[0-9]+)*$`)

// taggedVersionRegex matches ephemeral build tokens such as pr-001,
// beta-2024 or rc-1.2.
var taggedVersionRegex = regexp.MustCompile(`^(pr|beta|rc|build)-[0-9a-z.]+$`)

// channelNames are free-form version tokens recognized as deploy channels.
var channelNames = map[string]bool{
	"latest":  true,
	"main":    true,
	"master":  true,
	"staging": true,
	"dev":     true,
}

// IsValidProject reports whether name satisfies the project identifier
// grammar.
func IsValidProject(name string) bool {
	return projectRegex.MatchString(name)
}

// IsVersionToken reports whether a path segment is treated as a version
// directory rather than the start of the in-archive file path.
//
// The grammar is deliberately explicit: strict v-prefixed numeric versions,
// a short list of tagged-build prefixes, and the known channel names. Any
// other segment, in particular ordinary directories like "assets", belongs
// to the file path.
func IsVersionToken(s string) bool {
	return numericVersionRegex.MatchString(s) ||
		taggedVersionRegex.MatchString(s) ||
		channelNames[s]
}

// ArchiveKey derives the storage key of a project's archive. It is the only
// place archive keys are constructed.
func ArchiveKey(project, version string) string {
	if version == "" {
		return project + "/" + ArchiveFileName
	}
	return project + "/" + version + "/" + ArchiveFileName
}

// ResolvePath parses an inbound request path into a Resolution.
//
// The first segment is the project and must satisfy the identifier grammar.
// A second segment matching the version grammar selects a versioned archive;
// everything after it is the in-archive path, defaulting to index.html.
func ResolvePath(path string) (Resolution, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return Resolution{}, fmt.Errorf("resolve %q: empty path: %w", path, ErrInvalidIdentifier)
	}

	project := segments[0]
	if !IsValidProject(project) {
		return Resolution{}, fmt.Errorf("resolve %q: bad project %q: %w", path, project, ErrInvalidIdentifier)
	}

	version := ""
	rest := segments[1:]
	if len(rest) > 0 && IsVersionToken(rest[0]) {
		version = rest[0]
		rest = rest[1:]
	}

	filePath := strings.Join(rest, "/")
	if filePath == "" {
		filePath = DefaultFilePath
	}
	if !IsValidFilePath(filePath) {
		return Resolution{}, fmt.Errorf("resolve %q: bad file path %q: %w", path, filePath, ErrInvalidIdentifier)
	}

	return Resolution{
		Project:    project,
		Version:    version,
		ArchiveKey: ArchiveKey(project, version),
		FilePath:   filePath,
	}, nil
}

func splitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// IsValidFilePath validates an in-archive path. It checks that the path:
//   - is not empty, ".", or "/"
//   - is relative and does not end with "/"
//   - does not contain "..", "//" or "." segments
//   - does not contain invalid characters: \ ? # ~
//   - is valid UTF-8
//   - does not contain control characters or non-space whitespace
func IsValidFilePath(p string) bool {
	if p == "" || p == "/" || p == "." {
		return false
	}

	if p[0] == '/' || strings.HasSuffix(p, "/") {
		return false
	}

	if strings.Contains(p, "..") || strings.Contains(p, "//") {
		return false
	}

	if strings.ContainsAny(p, `\?#~`) {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	if strings.HasPrefix(p, "./") || strings.Contains(p, "/./") || strings.HasSuffix(p, "/.") {
		return false
	}

	// Plain spaces are legal in archive entry names and reachable via %20;
	// every other whitespace rune stays rejected.
	for _, r := range p {
		if r < 0x20 || r == 0x7f || (r != ' ' && unicode.IsSpace(r)) {
			return false
		}
	}

	return true
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a cache table name is valid (lowercase,
// alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// hasExtension reports whether the final segment of p carries a file
// extension. Extensionless misses are eligible for the single-page-app
// fallback.
func hasExtension(p string) bool {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		p = p[i+1:]
	}
	dot := strings.LastIndexByte(p, '.')
	return dot > 0 && dot < len(p)-1
}
