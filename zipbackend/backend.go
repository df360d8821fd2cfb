// Package zipbackend implements the vfs.Backend contract over a ZIP archive
// treated as a mountable filesystem.
package zipbackend

import (
	"io"

	"github.com/desertwitch/vfscore"
	"github.com/desertwitch/vfscore/internal/logging"
)

// Option configures a Mount call.
type Option func(*mountConfig)

// WithSubPath mounts only the sub-tree of the archive rooted at subPath,
// presenting it as the mount's root.
func WithSubPath(subPath string) Option {
	return func(c *mountConfig) { c.subPath = subPath }
}

// WithEncoding pins the filename encoding, skipping auto-detection.
func WithEncoding(encoding string) Option {
	return func(c *mountConfig) { c.encoding = encoding }
}

// WithEncodingDetector overrides the default encoding-detection collaborator.
func WithEncodingDetector(detect EncodingDetector) Option {
	return func(c *mountConfig) { c.detect = detect }
}

// WithRecoder overrides the default recode collaborator.
func WithRecoder(recode Recoder) Option {
	return func(c *mountConfig) { c.recode = recode }
}

var _ vfs.Backend = (*Backend)(nil)

// Backend is a mounted ZIP archive, exposing its contents through the
// vfs.Backend contract. A Backend is created once by Mount, used many
// times, and released by Close; it owns its namespace index, its pool of
// backing handles, and the archive's OS path.
type Backend struct {
	archivePath string
	index       zipIndex
	pool        *pool
	valid       bool
}

// Mount parses archivePath's central directory and builds the namespace
// index. Construction never fails loudly: if the archive can't be read,
// the EOCD can't be found, or the encoding can't be resolved, Mount still
// returns a non-nil Backend, but Valid() reports false and every query
// behaves as if nothing exists.
func Mount(archivePath string, opts ...Option) *Backend {
	cfg := defaultMountConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	idx, ok := buildIndex(archivePath, cfg)

	b := &Backend{
		archivePath: archivePath,
		index:       idx,
		valid:       ok,
	}

	if ok {
		b.pool = newPool(archivePath)
	}

	return b
}

// Valid reports whether the archive was parsed successfully.
func (b *Backend) Valid() bool {
	return b.valid
}

// IsFile reports whether path names an existing non-directory entry.
func (b *Backend) IsFile(path string) bool {
	return b.valid && b.index.isFile(path)
}

// IsDirectory reports whether path names an existing directory entry.
func (b *Backend) IsDirectory(path string) bool {
	return b.valid && b.index.isDirectory(path)
}

// Exists reports whether path names any entry.
func (b *Backend) Exists(path string) bool {
	return b.valid && b.index.exists(path)
}

// GetFilesize returns the entry's uncompressed size, or 0 for directories
// and non-existent paths.
func (b *Backend) GetFilesize(path string) uint32 {
	if !b.valid {
		return 0
	}

	return b.index.getFilesize(path)
}

// OpenInput opens path for reading. Only method-0 (stored) and method-8
// (deflate) entries are supported; any other compression method, a
// directory path, a non-existent path, or an invalid backend all report
// ok=false.
func (b *Backend) OpenInput(path string, _ vfs.OpenMode) (io.ReadSeekCloser, bool) {
	if !b.valid {
		return nil, false
	}

	entry, ok := b.index.lookup(path)
	if !ok || entry.isDirectory {
		return nil, false
	}

	handle, err := b.pool.acquire()
	if err != nil {
		logging.Printf("zipbackend: %q: acquire backing handle for %q: %v\n", b.archivePath, path, err)

		return nil, false
	}

	local, ok := readLocalHeader(handle.f, entry.fileoffset)
	if !ok {
		b.pool.release(handle)
		logging.Printf("zipbackend: %q: bad local header for %q\n", b.archivePath, path)

		return nil, false
	}

	switch local.method {
	case methodStored:
		r, err := newStoredReader(b.pool, handle, local.dataOffset, entry.filesize)
		if err != nil {
			b.pool.release(handle)

			return nil, false
		}

		return r, true

	case methodDeflate:
		r, err := newDeflateReader(b.pool, handle, local.dataOffset, entry.filesize, local.compressedSize)
		if err != nil {
			b.pool.release(handle)

			return nil, false
		}

		return r, true

	default:
		b.pool.release(handle)
		logging.Printf("zipbackend: %q: unsupported compression method for %q\n", b.archivePath, path)

		return nil, false
	}
}

// OpenOutput always fails: the ZIP backend is read-only.
func (b *Backend) OpenOutput(_ string, _ vfs.OpenMode) (io.WriteCloser, bool) {
	return nil, false
}

// List invokes visit once per child of the directory at path.
func (b *Backend) List(path string, visit vfs.Visitor) bool {
	if !b.valid {
		return false
	}

	return b.index.list(path, func(name string, isDirectory bool) {
		visit(b, vfs.DirectoryEntry{Name: name, IsDirectory: isDirectory})
	})
}

// Close releases every handle in the backing-stream pool. All readers
// vended by this Backend must already be closed; closing the Backend while
// readers are still alive is undefined behavior.
func (b *Backend) Close() error {
	if b.pool == nil {
		return nil
	}

	return b.pool.close()
}
