// Package osbackend implements the vfs.Backend contract (C2) over a
// directory on the host filesystem.
package osbackend

import (
	"io"
	"io/fs"
	"math"
	"os"
	"sort"
	"sync/atomic"

	"github.com/desertwitch/vfscore"
	"github.com/desertwitch/vfscore/internal/logging"
)

// hasFastDirStat tracks, process-wide, whether the host platform populates
// a directory entry's type bits without a per-child stat call. It starts
// "fast" and is downgraded at most once, on first observation of a platform
// that doesn't. See Backend.List.
var hasFastDirStat atomic.Bool

func init() {
	hasFastDirStat.Store(true)
}

var _ vfs.Backend = (*Backend)(nil)

// Backend answers vfs queries against a root directory on the host
// filesystem. Paths passed to its methods are concatenated onto Root
// without separator insertion, matching the source behavior.
type Backend struct {
	Root string
}

// New returns a Backend rooted at root.
func New(root string) *Backend {
	return &Backend{Root: root}
}

func (b *Backend) abs(p string) string {
	return b.Root + p
}

// Exists reports whether the path is present on the host filesystem.
func (b *Backend) Exists(p string) bool {
	_, err := os.Stat(b.abs(p))

	return err == nil
}

// IsDirectory reports whether the path names a directory.
func (b *Backend) IsDirectory(p string) bool {
	info, err := os.Stat(b.abs(p))

	return err == nil && info.IsDir()
}

// IsFile always returns false. The OS backend is primarily used for
// directory walks and stream opens; callers needing file-ness should use
// Exists(p) && !IsDirectory(p) instead.
func (b *Backend) IsFile(_ string) bool {
	return false
}

// GetFilesize returns the stat size of the path, or math.MaxUint32 on
// failure (distinct from the ZIP backend, which reports 0 for both
// directories and non-existence; here failure is not collapsed into 0
// because OS callers commonly need to distinguish a zero-byte file from a
// failed stat).
func (b *Backend) GetFilesize(p string) uint32 {
	info, err := os.Stat(b.abs(p))
	if err != nil {
		return math.MaxUint32
	}

	size := info.Size()
	if size < 0 || size > math.MaxUint32 {
		return math.MaxUint32
	}

	return uint32(size)
}

// OpenInput opens path for reading. mode is consulted only for parity with
// the interface; the host filesystem has no binary/text distinction.
func (b *Backend) OpenInput(p string, _ vfs.OpenMode) (io.ReadSeekCloser, bool) {
	f, err := os.Open(b.abs(p))
	if err != nil {
		logging.Printf("osbackend: OpenInput %q: %v\n", p, err)

		return nil, false
	}

	return f, true
}

// OpenOutput opens path for writing, creating and truncating it if needed.
func (b *Backend) OpenOutput(p string, _ vfs.OpenMode) (io.WriteCloser, bool) {
	f, err := os.OpenFile(b.abs(p), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		logging.Printf("osbackend: OpenOutput %q: %v\n", p, err)

		return nil, false
	}

	return f, true
}

// List enumerates the children of path, invoking visit once per child. It
// skips "." and ".." (os.ReadDir never yields them, so no explicit check is
// needed) and uses each entry's directory-read type bits when the platform
// populates them, falling back to a per-child stat otherwise. The first
// time that fallback is needed, a one-time notice is logged and the
// decision is remembered for the lifetime of the process.
func (b *Backend) List(p string, visit vfs.Visitor) bool {
	entries, err := os.ReadDir(b.abs(p))
	if err != nil {
		logging.Printf("osbackend: List %q: %v\n", p, err)

		return false
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		isDir, ok := fastDirKind(e)
		if !ok {
			if hasFastDirStat.Swap(false) {
				logging.Printf("osbackend: %q does not populate directory entry type; falling back to per-child stat\n", p)
			}

			info, err := e.Info()
			if err != nil {
				continue
			}
			isDir = info.IsDir()
		}

		visit(b, vfs.DirectoryEntry{Name: e.Name(), IsDirectory: isDir})
	}

	return true
}

// fastDirKind reports the directory-entry's kind using only the bits
// populated by the directory read itself (no stat). ok is false when the
// platform left the type undetermined (fs.ModeIrregular).
func fastDirKind(e fs.DirEntry) (isDir bool, ok bool) {
	t := e.Type()
	if t&fs.ModeIrregular != 0 {
		return false, false
	}

	return t.IsDir(), true
}
