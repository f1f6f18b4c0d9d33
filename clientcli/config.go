package clientcli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables recognised by the client.
const (
	EnvEndpoint = "STORYHOST_ENDPOINT"
	EnvToken    = "STORYHOST_TOKEN"
	EnvProfile  = "STORYHOST_PROFILE"
	EnvConfig   = "STORYHOST_CONFIG"
)

// Config holds the settings the client needs to reach a server.
type Config struct {
	// Endpoint is the server base URL, e.g. https://storybooks.example.com.
	Endpoint string `yaml:"endpoint"`

	// Token is the bearer token for the operational API. Optional when the
	// server runs with auth disabled.
	Token string `yaml:"token,omitempty"`
}

// WithDefaults returns a copy of the config with defaults applied.
func (c *Config) WithDefaults() *Config {
	out := *c
	return &out
}

// Validate checks that required fields are set.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return ErrEndpointRequired
	}
	return nil
}

// Profile is a named connection in the config file.
type Profile struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token,omitempty"`
	Default  bool   `yaml:"default,omitempty"`
}

// ConfigFile is the on-disk client configuration.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`

	path string
}

// DefaultConfigPath returns the default config file path,
// ~/.storyhost/config.yaml, honouring STORYHOST_CONFIG when set.
func DefaultConfigPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".storyhost", "config.yaml"), nil
}

// LoadConfigFile reads the config file at path. A missing file yields an
// empty ConfigFile that saves back to the same path.
func LoadConfigFile(path string) (*ConfigFile, error) {
	cf := &ConfigFile{path: path}

	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided input
	if err != nil {
		if os.IsNotExist(err) {
			return cf, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cf); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cf, nil
}

// Save writes the config file, creating the parent directory if needed. The
// file may contain tokens, so it is written with owner-only permissions.
func (cf *ConfigFile) Save() error {
	if cf.path == "" {
		return fmt.Errorf("config file has no path")
	}

	if err := os.MkdirAll(filepath.Dir(cf.path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cf)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cf.path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// GetProfile returns the named profile.
func (cf *ConfigFile) GetProfile(name string) (*Profile, error) {
	for i := range cf.Profiles {
		if cf.Profiles[i].Name == name {
			return &cf.Profiles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// GetDefaultProfile returns the profile marked default, falling back to the
// only profile when exactly one exists.
func (cf *ConfigFile) GetDefaultProfile() (*Profile, error) {
	if len(cf.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	for i := range cf.Profiles {
		if cf.Profiles[i].Default {
			return &cf.Profiles[i], nil
		}
	}
	if len(cf.Profiles) == 1 {
		return &cf.Profiles[0], nil
	}
	return nil, fmt.Errorf("%w: multiple profiles and none marked default", ErrProfileNotFound)
}

// AddProfile appends a new profile. The first profile added becomes the
// default.
func (cf *ConfigFile) AddProfile(p Profile) error {
	for i := range cf.Profiles {
		if cf.Profiles[i].Name == p.Name {
			return fmt.Errorf("%w: %s", ErrProfileExists, p.Name)
		}
	}
	if len(cf.Profiles) == 0 {
		p.Default = true
	}
	cf.Profiles = append(cf.Profiles, p)
	return nil
}

// UpdateProfile replaces the profile with the same name.
func (cf *ConfigFile) UpdateProfile(p Profile) error {
	for i := range cf.Profiles {
		if cf.Profiles[i].Name == p.Name {
			p.Default = cf.Profiles[i].Default
			cf.Profiles[i] = p
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrProfileNotFound, p.Name)
}

// RemoveProfile deletes the named profile. If it was the default and other
// profiles remain, the first remaining profile becomes the default.
func (cf *ConfigFile) RemoveProfile(name string) error {
	for i := range cf.Profiles {
		if cf.Profiles[i].Name == name {
			wasDefault := cf.Profiles[i].Default
			cf.Profiles = append(cf.Profiles[:i], cf.Profiles[i+1:]...)
			if wasDefault && len(cf.Profiles) > 0 {
				cf.Profiles[0].Default = true
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// SetDefault marks the named profile as default and clears the flag on all
// others.
func (cf *ConfigFile) SetDefault(name string) error {
	found := false
	for i := range cf.Profiles {
		if cf.Profiles[i].Name == name {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	for i := range cf.Profiles {
		cf.Profiles[i].Default = cf.Profiles[i].Name == name
	}
	return nil
}

// ProfileNames returns the names of all profiles.
func (cf *ConfigFile) ProfileNames() []string {
	names := make([]string, 0, len(cf.Profiles))
	for i := range cf.Profiles {
		names = append(names, cf.Profiles[i].Name)
	}
	return names
}

// ConfigFromProfile builds a Config from a profile.
func ConfigFromProfile(p *Profile) *Config {
	return &Config{
		Endpoint: p.Endpoint,
		Token:    p.Token,
	}
}

// ConfigFromEnv builds a Config from environment variables. Unset variables
// leave zero values for MergeConfig to fill.
func ConfigFromEnv() *Config {
	return &Config{
		Endpoint: os.Getenv(EnvEndpoint),
		Token:    os.Getenv(EnvToken),
	}
}

// MergeConfig overlays non-empty fields of overlay onto base. Environment
// settings typically form the overlay so they win over profile values.
func MergeConfig(base, overlay *Config) *Config {
	if base == nil {
		base = &Config{}
	}
	out := *base
	if overlay == nil {
		return &out
	}
	if overlay.Endpoint != "" {
		out.Endpoint = overlay.Endpoint
	}
	if overlay.Token != "" {
		out.Token = overlay.Token
	}
	return &out
}

// ResolveConfig assembles the effective client config: profile (named via
// STORYHOST_PROFILE or the default) merged with environment overrides. It
// succeeds with env-only config when no config file or profile exists.
func ResolveConfig() (*Config, error) {
	env := ConfigFromEnv()

	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}

	cf, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}

	var profile *Profile
	if name := os.Getenv(EnvProfile); name != "" {
		profile, err = cf.GetProfile(name)
		if err != nil {
			return nil, err
		}
	} else if len(cf.Profiles) > 0 {
		profile, err = cf.GetDefaultProfile()
		if err != nil {
			return nil, err
		}
	}

	var base *Config
	if profile != nil {
		base = ConfigFromProfile(profile)
	}

	cfg := MergeConfig(base, env)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
