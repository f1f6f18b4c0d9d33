// Package config provides configuration loading and validation for
// storyhost.
//
// The package handles YAML configuration files, environment variables, and
// CLI flags with automatic merging and validation using
// go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (STORYHOST_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with STORYHOST_ prefix:
//   - server.port → STORYHOST_SERVER_PORT
//   - storage.type → STORYHOST_STORAGE_TYPE
//   - cache.dsn → STORYHOST_CACHE_DSN
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port, max_upload_size, shutdown_timeout
//   - Resolver: alias_token and the index/alias cache TTLs
//   - Storage: object-store backend (filesystem or http) and its location
//   - Cache: cache backend (memory, sqlite, postgres), DSN, and table name
//   - Auth: whether the operational API requires tokens, and the tokens
//   - CORS: cross-origin settings for the public surface
//   - Log: level
package config
