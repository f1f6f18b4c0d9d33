package clientcli

import "errors"

// Sentinel errors for client configuration and profile management.
var (
	// ErrConfigRequired is returned when a nil config is passed to New.
	ErrConfigRequired = errors.New("config is required")

	// ErrEndpointRequired is returned when no server endpoint is configured.
	ErrEndpointRequired = errors.New("endpoint is required")

	// ErrProjectRequired is returned when an operation is missing a project.
	ErrProjectRequired = errors.New("project is required")

	// ErrArchiveRequired is returned when publish is missing an archive path.
	ErrArchiveRequired = errors.New("archive path is required")

	// ErrProfileNotFound is returned when a named profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists is returned when adding a profile that already exists.
	ErrProfileExists = errors.New("profile already exists")

	// ErrNoProfiles is returned when the config file has no profiles.
	ErrNoProfiles = errors.New("no profiles configured")
)
