package zipbackend

import (
	"io"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

func openStoredReader(t *testing.T, archivePath, name string) *storedReader {
	t.Helper()

	idx, ok := buildIndex(archivePath, defaultMountConfig())
	require.True(t, ok)

	entry, ok := idx.lookup(name)
	require.True(t, ok)

	p := newPool(archivePath)
	h, err := p.acquire()
	require.NoError(t, err)

	info, ok := readLocalHeader(h.f, entry.fileoffset)
	require.True(t, ok)
	require.Equal(t, methodStored, info.method)

	r, err := newStoredReader(p, h, info.dataOffset, entry.filesize)
	require.NoError(t, err)

	return r
}

func TestStoredReader_FullRead(t *testing.T) {
	t.Parallel()

	content := []byte("the quick brown fox jumps over the lazy dog")
	path := buildZip(t, []zipFixtureEntry{{Name: "a.txt", Content: content, Method: zip.Store}})

	r := openStoredReader(t, path, "a.txt")
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestStoredReader_SeekIdempotence(t *testing.T) {
	t.Parallel()

	content := make([]byte, 1000)
	for i := range content {
		content[i] = byte(i % 251)
	}

	path := buildZip(t, []zipFixtureEntry{{Name: "a.bin", Content: content, Method: zip.Store}})

	r := openStoredReader(t, path, "a.bin")
	defer r.Close()

	pos, err := r.Seek(500, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(500), pos)

	buf := make([]byte, 10)
	n, err := io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, content[500:510], buf)

	pos, err = r.Seek(10, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(10), pos)

	n, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, content[10:20], buf)

	pos, err = r.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	require.Equal(t, int64(len(content)), pos)

	_, err = r.Read(buf)
	require.ErrorIs(t, err, io.EOF)
}

func TestStoredReader_SeekClampsToBounds(t *testing.T) {
	t.Parallel()

	path := buildZip(t, []zipFixtureEntry{{Name: "a.txt", Content: []byte("hello"), Method: zip.Store}})

	r := openStoredReader(t, path, "a.txt")
	defer r.Close()

	pos, err := r.Seek(-5, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(0), pos)

	pos, err = r.Seek(1000, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(5), pos)
}
