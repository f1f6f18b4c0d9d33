package zipindex_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/previewhq/storyhost/zipindex"
)

func TestExtract(t *testing.T) {
	ctx := context.Background()

	plainHTML := "<html><body>storyhost</body></html>"
	// Long enough that deflate actually shrinks it.
	styles := strings.Repeat("body { margin: 0; padding: 0; }\n", 8)

	data := buildArchive(t, map[string]string{
		"index.html":       plainHTML,
		"assets/style.css": styles,
	}, map[string]bool{"assets/style.css": true})

	ix, err := zipindex.Build(ctx, &memSource{data: data})
	require.NoError(t, err)

	t.Run("stored round-trip", func(t *testing.T) {
		entry, ok := ix.Lookup("index.html")
		require.True(t, ok)
		require.Equal(t, zipindex.Store, entry.Method)

		got, err := zipindex.Extract(ctx, &memSource{data: data}, entry)
		require.NoError(t, err)
		assert.Equal(t, plainHTML, string(got))
	})

	t.Run("deflate round-trip", func(t *testing.T) {
		entry, ok := ix.Lookup("assets/style.css")
		require.True(t, ok)
		require.Equal(t, zipindex.Deflate, entry.Method)
		require.Less(t, entry.CompressedSize, entry.UncompressedSize)

		got, err := zipindex.Extract(ctx, &memSource{data: data}, entry)
		require.NoError(t, err)
		assert.Equal(t, styles, string(got))
	})

	t.Run("two reads of exact sizes", func(t *testing.T) {
		entry, ok := ix.Lookup("assets/style.css")
		require.True(t, ok)

		src := &memSource{data: data}
		_, err := zipindex.Extract(ctx, src, entry)
		require.NoError(t, err)

		require.Len(t, src.reads, 2)
		assert.Equal(t, readCall{off: entry.LocalHeaderOffset, length: 30}, src.reads[0])
		assert.Equal(t, entry.CompressedSize, src.reads[1].length)
		assert.Greater(t, src.reads[1].off, entry.LocalHeaderOffset+30)
		assert.Equal(t, 0, src.lengthCalls, "extraction needs no length probe")
	})

	t.Run("unsupported method issues no reads", func(t *testing.T) {
		entry, ok := ix.Lookup("index.html")
		require.True(t, ok)
		entry.Method = 12 // bzip2

		src := &memSource{data: data}
		_, err := zipindex.Extract(ctx, src, entry)
		assert.ErrorIs(t, err, zipindex.ErrUnsupported)
		assert.Empty(t, src.reads)
	})

	t.Run("empty range read fails extraction", func(t *testing.T) {
		entry, ok := ix.Lookup("index.html")
		require.True(t, ok)
		entry.LocalHeaderOffset = int64(len(data)) + 100

		_, err := zipindex.Extract(ctx, &memSource{data: data}, entry)
		assert.ErrorIs(t, err, zipindex.ErrExtraction)
	})

	t.Run("corrupt deflate stream", func(t *testing.T) {
		entry, ok := ix.Lookup("assets/style.css")
		require.True(t, ok)

		corrupted := append([]byte(nil), data...)
		// Scribble over the compressed payload, leaving headers intact.
		start := int(entry.LocalHeaderOffset) + 30 + len(entry.Name)
		for i := 0; i < int(entry.CompressedSize); i++ {
			corrupted[start+i] = 0xff
		}

		_, err := zipindex.Extract(ctx, &memSource{data: corrupted}, entry)
		assert.ErrorIs(t, err, zipindex.ErrDecompression)
	})
}
