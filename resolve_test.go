package storyhost_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/previewhq/storyhost"
)

func TestArchiveKey(t *testing.T) {
	assert.Equal(t, "my-app/storybook.zip", storyhost.ArchiveKey("my-app", ""))
	assert.Equal(t, "my-app/v1.0.0/storybook.zip", storyhost.ArchiveKey("my-app", "v1.0.0"))
	assert.Equal(t, "design/pr-001/storybook.zip", storyhost.ArchiveKey("design", "pr-001"))

	// Pure and deterministic.
	for i := 0; i < 3; i++ {
		assert.Equal(t, "p1/v2/storybook.zip", storyhost.ArchiveKey("p1", "v2"))
	}
}

func TestIsVersionToken(t *testing.T) {
	versions := []string{"v1", "v1.0.0", "v10.2", "pr-001", "beta-2024", "rc-1.2", "build-7f", "staging", "latest", "main", "master", "dev"}
	for _, s := range versions {
		assert.True(t, storyhost.IsVersionToken(s), s)
	}

	notVersions := []string{"assets", "docs", "v", "v1.0.0.beta", "1.0.0", "index.html", "pr-", "release"}
	for _, s := range notVersions {
		assert.False(t, storyhost.IsVersionToken(s), s)
	}
}

func TestResolvePath(t *testing.T) {
	t.Run("project version and file", func(t *testing.T) {
		res, err := storyhost.ResolvePath("/my-app/v1.0.0/assets/app.js")
		require.NoError(t, err)
		assert.Equal(t, "my-app", res.Project)
		assert.Equal(t, "v1.0.0", res.Version)
		assert.Equal(t, "assets/app.js", res.FilePath)
		assert.Equal(t, "my-app/v1.0.0/storybook.zip", res.ArchiveKey)
	})

	t.Run("bare project defaults to index.html", func(t *testing.T) {
		res, err := storyhost.ResolvePath("/my-app/")
		require.NoError(t, err)
		assert.Equal(t, "my-app", res.Project)
		assert.Empty(t, res.Version)
		assert.Equal(t, "index.html", res.FilePath)
		assert.Equal(t, "my-app/storybook.zip", res.ArchiveKey)
	})

	t.Run("version with no file defaults to index.html", func(t *testing.T) {
		res, err := storyhost.ResolvePath("/design/pr-001")
		require.NoError(t, err)
		assert.Equal(t, "pr-001", res.Version)
		assert.Equal(t, "index.html", res.FilePath)
	})

	t.Run("second segment outside the version grammar joins the file path", func(t *testing.T) {
		res, err := storyhost.ResolvePath("/my-app/assets/app.js")
		require.NoError(t, err)
		assert.Empty(t, res.Version)
		assert.Equal(t, "assets/app.js", res.FilePath)
		assert.Equal(t, "my-app/storybook.zip", res.ArchiveKey)
	})

	t.Run("alias token is kept as the version", func(t *testing.T) {
		res, err := storyhost.ResolvePath("/my-app/latest/index.html")
		require.NoError(t, err)
		assert.Equal(t, "latest", res.Version)
	})

	t.Run("empty segments are dropped", func(t *testing.T) {
		res, err := storyhost.ResolvePath("//my-app///v1//index.html")
		require.NoError(t, err)
		assert.Equal(t, "my-app", res.Project)
		assert.Equal(t, "v1", res.Version)
		assert.Equal(t, "index.html", res.FilePath)
	})

	t.Run("spaces in entry names are served", func(t *testing.T) {
		res, err := storyhost.ResolvePath("/my-app/v1/assets/logo dark.png")
		require.NoError(t, err)
		assert.Equal(t, "assets/logo dark.png", res.FilePath)
	})

	t.Run("non-space whitespace stays rejected", func(t *testing.T) {
		for _, path := range []string{
			"/my-app/v1/a\tb.png",      // tab
			"/my-app/v1/a\nb.png",      // newline
			"/my-app/v1/a b.png",  // no-break space
			"/my-app/v1/a b.png",  // line separator
			"/my-app/v1/ctrl\x01b.png", // control character
			"/my-app/v1/del\x7fb.png",  // DEL
		} {
			_, err := storyhost.ResolvePath(path)
			assert.ErrorIs(t, err, storyhost.ErrInvalidIdentifier, path)
		}
	})

	t.Run("invalid identifiers", func(t *testing.T) {
		for _, path := range []string{
			"",
			"/",
			"/a",                  // below minimum length
			"/My-App/index.html",  // uppercase
			"/my.app/index.html",  // dot in project
			"/my_app/index.html",  // underscore in project
			"/-app/index.html",    // leading hyphen
			"/my-app/../etc/pwd",  // traversal
			"/my-app/a\\b.html",   // backslash
			"/my-app/sub/./x.css", // dot segment
		} {
			_, err := storyhost.ResolvePath(path)
			assert.ErrorIs(t, err, storyhost.ErrInvalidIdentifier, path)
		}
	})
}
