package zipbackend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// zipFixtureEntry describes one entry to write into a fixture archive.
// Fixture construction uses klauspost/compress/zip purely to produce test
// data; the production decoder under test never uses it, since its
// central-directory/local-header parsing is hand-rolled.
type zipFixtureEntry struct {
	Name    string
	Content []byte
	Method  uint16
}

func buildZip(t *testing.T, entries []zipFixtureEntry) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.zip")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)

	for _, e := range entries {
		fw, err := w.CreateHeader(&zip.FileHeader{
			Name:   e.Name,
			Method: e.Method,
		})
		require.NoError(t, err)

		if len(e.Content) > 0 {
			_, err = fw.Write(e.Content)
			require.NoError(t, err)
		}
	}

	require.NoError(t, w.Close())

	return path
}
