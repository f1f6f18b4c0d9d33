// Package tokens provides Store implementations for operational API tokens.
package tokens

// Store answers whether a presented bearer token is known.
type Store interface {
	Contains(token string) bool
}

// Config holds configuration for loading operational tokens.
type Config struct {
	Inline []string `mapstructure:"inline"` // Inline tokens from config
	File   string   `mapstructure:"file"`   // Path to JSON file containing tokens
}

// NewStore creates a Store from the given configuration. Tokens come from
// both the inline config and the file (if specified), merged into a single
// store.
func NewStore(cfg Config) (Store, error) {
	tokens := make(map[string]struct{})

	for _, t := range cfg.Inline {
		if t != "" {
			tokens[t] = struct{}{}
		}
	}

	if cfg.File != "" {
		fileTokens, err := LoadTokensFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for _, t := range fileTokens {
			tokens[t] = struct{}{}
		}
	}

	return NewMapStore(tokens), nil
}
