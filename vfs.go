// Package vfs defines the backend-polymorphic filesystem contract shared by
// the OS backend (osbackend) and the ZIP backend (zipbackend).
package vfs

import (
	"io"
	"path/filepath"
)

// OpenMode is an opaque bitmask interpreted by each backend. Backends that
// don't distinguish read modes (the ZIP backend) only ever honor ModeRead.
type OpenMode int

const (
	// ModeRead requests a readable stream.
	ModeRead OpenMode = 1 << iota
	// ModeBinary requests binary (as opposed to text-translated) I/O. It has
	// no effect on POSIX backends; it exists so callers migrating from
	// stream APIs that distinguish text and binary open modes have
	// somewhere to pass that flag through.
	ModeBinary
	// ModeWrite requests a writable stream. The ZIP backend never honors it.
	ModeWrite
)

// DirectoryEntry is a single child reported by a directory listing. It is
// transient: produced by Backend.List for the duration of the visitor call
// and not retained by the backend.
type DirectoryEntry struct {
	Name        string
	IsDirectory bool
}

// Visitor is invoked once per child by Backend.List. Order is unspecified.
type Visitor func(b Backend, entry DirectoryEntry)

// Backend is the uniform capability set exposed by every filesystem backend.
// All paths are backend-relative. Queries never mutate backend state.
type Backend interface {
	// IsFile reports whether path names an existing, non-directory entry.
	// The OS backend always reports false; use Exists(p) && !IsDirectory(p)
	// there.
	IsFile(path string) bool
	// IsDirectory reports whether path names an existing directory entry.
	IsDirectory(path string) bool
	// Exists reports whether path names any entry at all.
	Exists(path string) bool
	// GetFilesize returns the entry's uncompressed size. The ZIP backend
	// returns 0 for directories and for non-existent paths, so callers must
	// use Exists first if they need to distinguish "empty file" from "no
	// file"; the OS backend returns the stat size, or math.MaxUint32 when
	// the stat fails.
	GetFilesize(path string) uint32
	// OpenInput opens path for reading under mode. It returns ok=false if
	// the backend is invalid, the path does not name a readable file, or
	// the entry uses an unsupported compression method.
	OpenInput(path string, mode OpenMode) (r io.ReadSeekCloser, ok bool)
	// OpenOutput opens path for writing under mode. Backends that are
	// read-only (the ZIP backend) always return ok=false.
	OpenOutput(path string, mode OpenMode) (w io.WriteCloser, ok bool)
	// List invokes visit once for every child of the directory at path, in
	// unspecified order. It returns false if path is not a listable
	// directory or the backend is invalid.
	List(path string, visit Visitor) bool
}

// CombinePath joins a directory and an entry name the way a path component
// is appended within a single backend's namespace, then rewrites separators
// to the host's native convention. If dir is empty, entry is returned as-is
// (after separator translation).
func CombinePath(dir, entry string) string {
	var joined string
	if dir == "" {
		joined = entry
	} else {
		joined = dir + "/" + entry
	}

	if filepath.Separator == '/' {
		return joined
	}

	out := make([]rune, 0, len(joined))
	for _, r := range joined {
		if r == '/' {
			out = append(out, filepath.Separator)
		} else {
			out = append(out, r)
		}
	}

	return string(out)
}
