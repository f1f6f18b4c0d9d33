package clientcli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cf, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Empty(t, cf.Profiles)
}

func TestConfigFileSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cf, err := LoadConfigFile(path)
	require.NoError(t, err)

	require.NoError(t, cf.AddProfile(Profile{
		Name:     "prod",
		Endpoint: "https://storybooks.example.com",
		Token:    "tok-prod",
	}))
	require.NoError(t, cf.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.Len(t, loaded.Profiles, 1)
	assert.Equal(t, "prod", loaded.Profiles[0].Name)
	assert.True(t, loaded.Profiles[0].Default)
}

func TestConfigFileProfiles(t *testing.T) {
	cf := &ConfigFile{}

	require.NoError(t, cf.AddProfile(Profile{Name: "prod", Endpoint: "https://prod"}))
	require.NoError(t, cf.AddProfile(Profile{Name: "staging", Endpoint: "https://staging"}))

	t.Run("first profile becomes default", func(t *testing.T) {
		p, err := cf.GetDefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "prod", p.Name)
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		err := cf.AddProfile(Profile{Name: "prod"})
		assert.ErrorIs(t, err, ErrProfileExists)
	})

	t.Run("get by name", func(t *testing.T) {
		p, err := cf.GetProfile("staging")
		require.NoError(t, err)
		assert.Equal(t, "https://staging", p.Endpoint)

		_, err = cf.GetProfile("missing")
		assert.ErrorIs(t, err, ErrProfileNotFound)
	})

	t.Run("set default", func(t *testing.T) {
		require.NoError(t, cf.SetDefault("staging"))
		p, err := cf.GetDefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "staging", p.Name)

		assert.ErrorIs(t, cf.SetDefault("missing"), ErrProfileNotFound)
	})

	t.Run("update keeps default flag", func(t *testing.T) {
		require.NoError(t, cf.UpdateProfile(Profile{Name: "staging", Endpoint: "https://staging2"}))
		p, err := cf.GetDefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "https://staging2", p.Endpoint)

		assert.ErrorIs(t, cf.UpdateProfile(Profile{Name: "missing"}), ErrProfileNotFound)
	})

	t.Run("remove reassigns default", func(t *testing.T) {
		require.NoError(t, cf.RemoveProfile("staging"))
		p, err := cf.GetDefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "prod", p.Name)

		assert.Equal(t, []string{"prod"}, cf.ProfileNames())
	})
}

func TestGetDefaultProfileEmpty(t *testing.T) {
	cf := &ConfigFile{}
	_, err := cf.GetDefaultProfile()
	assert.ErrorIs(t, err, ErrNoProfiles)
}

func TestMergeConfig(t *testing.T) {
	base := &Config{Endpoint: "https://prod", Token: "tok-prod"}

	t.Run("overlay wins", func(t *testing.T) {
		out := MergeConfig(base, &Config{Token: "tok-env"})
		assert.Equal(t, "https://prod", out.Endpoint)
		assert.Equal(t, "tok-env", out.Token)
	})

	t.Run("nil overlay", func(t *testing.T) {
		out := MergeConfig(base, nil)
		assert.Equal(t, *base, *out)
	})

	t.Run("nil base", func(t *testing.T) {
		out := MergeConfig(nil, &Config{Endpoint: "https://env"})
		assert.Equal(t, "https://env", out.Endpoint)
	})
}

func TestResolveConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvEndpoint, "")
	t.Setenv(EnvToken, "")
	t.Setenv(EnvProfile, "")

	t.Run("no profiles and no env fails validation", func(t *testing.T) {
		_, err := ResolveConfig()
		assert.ErrorIs(t, err, ErrEndpointRequired)
	})

	t.Run("env only", func(t *testing.T) {
		t.Setenv(EnvEndpoint, "https://env.example.com")
		cfg, err := ResolveConfig()
		require.NoError(t, err)
		assert.Equal(t, "https://env.example.com", cfg.Endpoint)
	})

	cf, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.NoError(t, cf.AddProfile(Profile{Name: "prod", Endpoint: "https://prod", Token: "tok-prod"}))
	require.NoError(t, cf.AddProfile(Profile{Name: "staging", Endpoint: "https://staging", Token: "tok-staging"}))
	require.NoError(t, cf.Save())

	t.Run("default profile", func(t *testing.T) {
		cfg, err := ResolveConfig()
		require.NoError(t, err)
		assert.Equal(t, "https://prod", cfg.Endpoint)
		assert.Equal(t, "tok-prod", cfg.Token)
	})

	t.Run("named profile", func(t *testing.T) {
		t.Setenv(EnvProfile, "staging")
		cfg, err := ResolveConfig()
		require.NoError(t, err)
		assert.Equal(t, "https://staging", cfg.Endpoint)
	})

	t.Run("env overrides profile", func(t *testing.T) {
		t.Setenv(EnvToken, "tok-env")
		cfg, err := ResolveConfig()
		require.NoError(t, err)
		assert.Equal(t, "https://prod", cfg.Endpoint)
		assert.Equal(t, "tok-env", cfg.Token)
	})

	t.Run("unknown profile", func(t *testing.T) {
		t.Setenv(EnvProfile, "missing")
		_, err := ResolveConfig()
		assert.ErrorIs(t, err, ErrProfileNotFound)
	})
}
