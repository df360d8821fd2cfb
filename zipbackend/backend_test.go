package zipbackend

import (
	"io"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/desertwitch/vfscore"
)

func TestBackend_Mount_InvalidArchive(t *testing.T) {
	t.Parallel()

	path := writeRawFile(t, []byte("garbage"))

	b := Mount(path)
	require.False(t, b.Valid())
	require.False(t, b.Exists("anything"))
	require.False(t, b.IsFile("anything"))
	require.False(t, b.IsDirectory("anything"))
	require.Equal(t, uint32(0), b.GetFilesize("anything"))

	r, ok := b.OpenInput("anything", 0)
	require.False(t, ok)
	require.Nil(t, r)

	require.False(t, b.List("", func(vfs.Backend, vfs.DirectoryEntry) {}))
	require.NoError(t, b.Close())
}

func TestBackend_EndToEnd(t *testing.T) {
	t.Parallel()

	storedContent := []byte("hello from the stored entry")
	deflateContent := repeatingContent(2000)

	path := buildZip(t, []zipFixtureEntry{
		{Name: "readme.txt", Content: storedContent, Method: zip.Store},
		{Name: "data/", Method: zip.Store},
		{Name: "data/payload.bin", Content: deflateContent, Method: zip.Deflate},
	})

	b := Mount(path)
	defer b.Close()

	require.True(t, b.Valid())
	require.True(t, b.IsFile("readme.txt"))
	require.True(t, b.IsDirectory("data"))
	require.True(t, b.Exists("data/payload.bin"))
	require.Equal(t, uint32(len(storedContent)), b.GetFilesize("readme.txt"))

	var rootNames []string
	ok := b.List("", func(backend vfs.Backend, entry vfs.DirectoryEntry) {
		require.Same(t, b, backend)
		rootNames = append(rootNames, entry.Name)
	})
	require.True(t, ok)
	sort.Strings(rootNames)
	require.Equal(t, []string{"data", "readme.txt"}, rootNames)

	rc, ok := b.OpenInput("readme.txt", 0)
	require.True(t, ok)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, storedContent, got)
	require.NoError(t, rc.Close())

	rc, ok = b.OpenInput("data/payload.bin", 0)
	require.True(t, ok)
	got, err = io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, deflateContent, got)
	require.NoError(t, rc.Close())

	w, ok := b.OpenOutput("readme.txt", 0)
	require.False(t, ok)
	require.Nil(t, w)

	_, ok = b.OpenInput("does/not/exist", 0)
	require.False(t, ok)

	_, ok = b.OpenInput("data", 0)
	require.False(t, ok)
}

func TestBackend_WithSubPath(t *testing.T) {
	t.Parallel()

	path := buildZip(t, []zipFixtureEntry{
		{Name: "game/README", Content: []byte("top level"), Method: zip.Store},
		{Name: "game/assets/", Method: zip.Store},
		{Name: "game/assets/icon.png", Content: []byte("pngdata"), Method: zip.Store},
	})

	b := Mount(path, WithSubPath("game/assets"))
	defer b.Close()

	require.True(t, b.Valid())
	require.False(t, b.Exists("README"))
	require.True(t, b.Exists("icon.png"))
}
