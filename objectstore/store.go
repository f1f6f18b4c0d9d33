// Package objectstore connects the configured object storage backend.
package objectstore

import (
	"context"
	"fmt"
	"os"

	"github.com/previewhq/storyhost"
	"github.com/previewhq/storyhost/objectstore/filesystem"
	"github.com/previewhq/storyhost/objectstore/httpbucket"
)

// Config holds the configuration for connecting to an object storage
// backend.
type Config struct {
	// Type specifies the backend type: "filesystem" or "http"
	Type string `mapstructure:"type" validate:"required,oneof=filesystem http"`
	// Path is the root directory of a filesystem backend
	Path string `mapstructure:"path"`
	// BaseURL is the bucket URL of an http backend
	BaseURL string `mapstructure:"base_url"`
}

// Connect establishes the configured backend and returns it. The returned
// cleanup function should be called to release backend resources.
func Connect(ctx context.Context, cfg Config) (storyhost.ObjectStore, func(), error) {
	switch cfg.Type {
	case "filesystem":
		return connectFilesystem(cfg.Path)
	case "http":
		store, err := httpbucket.New(cfg.BaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect http bucket: %w", err)
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported object store type: %s", cfg.Type)
	}
}

func connectFilesystem(path string) (storyhost.ObjectStore, func(), error) {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, nil, fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage root: %w", err)
	}

	cleanup := func() { _ = root.Close() }
	return filesystem.New(root), cleanup, nil
}
