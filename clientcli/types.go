package clientcli

import "time"

// PublishOptions configures an archive upload.
type PublishOptions struct {
	// Project is the identifier the archive is published under.
	Project string

	// Version is an optional version token. When empty the archive becomes
	// the project's unversioned archive.
	Version string

	// ArchivePath is the local path of the ZIP archive to upload.
	ArchivePath string
}

// PublishResult describes a completed upload.
type PublishResult struct {
	Project     string    `json:"project"`
	Version     string    `json:"version,omitempty"`
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	Uploaded    time.Time `json:"uploaded"`
	ArchivePath string    `json:"archive_path"`
}

// VersionInfo describes one uploaded version of a project.
type VersionInfo struct {
	Version  string    `json:"version"`
	Size     int64     `json:"size"`
	Uploaded time.Time `json:"uploaded"`
}

// serverObjectInfo mirrors the server's stored-object response.
type serverObjectInfo struct {
	Key      string    `json:"key"`
	Size     int64     `json:"size"`
	Uploaded time.Time `json:"uploaded"`
}

// serverVersionsResult mirrors the server's versions listing response.
type serverVersionsResult struct {
	Versions []VersionInfo `json:"versions"`
}
