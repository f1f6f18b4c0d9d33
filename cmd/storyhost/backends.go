package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/previewhq/storyhost"
	"github.com/previewhq/storyhost/config"
	"github.com/previewhq/storyhost/kvcache"
	"github.com/previewhq/storyhost/objectstore"
)

// initService wires the configured store and cache into a Service. The
// returned cleanup closes both backends.
func initService(ctx context.Context, cfg *config.Config) (*storyhost.Service, func(), error) {
	store, closeStore, err := objectstore.Connect(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("connect object store: %w", err)
	}

	cache, closeCache, err := kvcache.Connect(ctx, cfg.Cache)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("connect cache: %w", err)
	}

	svc, err := storyhost.NewService(store, cache, storyhost.ServiceConfig{
		IndexTTL:   cfg.Resolver.IndexTTL,
		AliasTTL:   cfg.Resolver.AliasTTL,
		AliasToken: cfg.Resolver.AliasToken,
	})
	if err != nil {
		closeCache()
		closeStore()
		return nil, nil, fmt.Errorf("create service: %w", err)
	}

	slog.Info("backends connected", "storage", cfg.Storage.Type, "cache", cfg.Cache.Type)

	cleanup := func() {
		closeCache()
		closeStore()
	}
	return svc, cleanup, nil
}
