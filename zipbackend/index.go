package zipbackend

import (
	"os"
	"strings"

	"github.com/desertwitch/vfscore/internal/logging"
	"github.com/desertwitch/vfscore/internal/pathutil"
)

// zipEntry is the descriptor stored per archive entry.
type zipEntry struct {
	filesize    uint32
	fileoffset  uint32 // absolute offset of the entry's local header
	isDirectory bool
}

// zipIndex is the normalized logical-path → zipEntry namespace built once
// at mount time. A zero-value zipIndex (nil entries) is treated as invalid
// by every query.
type zipIndex struct {
	entries map[string]zipEntry
}

// mountConfig collects the options consulted when building a zipIndex.
type mountConfig struct {
	subPath  string
	encoding string
	detect   EncodingDetector
	recode   Recoder
}

func defaultMountConfig() mountConfig {
	return mountConfig{
		detect: DetectEncoding,
		recode: Recode,
	}
}

// buildIndex parses the central directory of the archive at archivePath and
// constructs the namespace index. It returns ok=false if the archive can't
// be opened or stat'd, the EOCD can't be found, or the encoding can't be
// determined/applied.
func buildIndex(archivePath string, cfg mountConfig) (zipIndex, bool) {
	f, err := os.Open(archivePath)
	if err != nil {
		logging.Printf("zipbackend: open %q: %v\n", archivePath, err)

		return zipIndex{}, false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logging.Printf("zipbackend: stat %q: %v\n", archivePath, err)

		return zipIndex{}, false
	}

	loc, ok := findEOCD(f, info.Size())
	if !ok {
		logging.Printf("zipbackend: %q: end-of-central-directory not found\n", archivePath)

		return zipIndex{}, false
	}

	raw := readCentralDirectory(f, info.Size(), loc)

	encoding := cfg.encoding
	if encoding == "" {
		encoding = cfg.detect(concatNames(raw))
		if encoding == "" {
			logging.Printf("zipbackend: %q: encoding detection failed\n", archivePath)

			return zipIndex{}, false
		}
	}

	subPrefix := pathutil.WithTrailingSlash(pathutil.Normalize(cfg.subPath))

	entries := make(map[string]zipEntry, len(raw)+1)

	for _, e := range raw {
		recoded, ok := cfg.recode(e.rawName, encoding)
		if !ok {
			logging.Printf("zipbackend: %q: failed to recode entry name, rejecting archive\n", archivePath)

			return zipIndex{}, false
		}

		s := strings.ReplaceAll(strings.ToLower(recoded), `\`, "/")

		remainder, ok := stripMountPrefix(s, subPrefix)
		if !ok {
			continue
		}

		isDir := strings.HasSuffix(remainder, "/")
		if isDir {
			remainder = strings.TrimSuffix(remainder, "/")
		}

		entries[remainder] = zipEntry{
			filesize:    e.uncompressedSize,
			fileoffset:  e.localHeaderOffset,
			isDirectory: isDir,
		}
	}

	entries[""] = zipEntry{isDirectory: true}

	return zipIndex{entries: entries}, true
}

// stripMountPrefix reports whether the normalized entry path s lies under
// prefix (the normalized, trailing-slash-terminated mount sub-path), and if
// so returns the remainder with the prefix stripped. An empty prefix
// matches everything (the whole archive is mounted) except the empty
// string itself.
func stripMountPrefix(s, prefix string) (string, bool) {
	if prefix == "" {
		return s, s != ""
	}

	if len(s) == len(prefix) || !strings.HasPrefix(s, prefix) {
		return "", false
	}

	return s[len(prefix):], true
}

func concatNames(entries []centralDirEntry) []byte {
	var total int
	for _, e := range entries {
		total += len(e.rawName)
	}

	out := make([]byte, 0, total)
	for _, e := range entries {
		out = append(out, e.rawName...)
	}

	return out
}

// lookup returns the entry at the normalized path p, if any.
func (idx zipIndex) lookup(p string) (zipEntry, bool) {
	if idx.entries == nil {
		return zipEntry{}, false
	}

	e, ok := idx.entries[pathutil.Normalize(p)]

	return e, ok
}

func (idx zipIndex) isFile(p string) bool {
	e, ok := idx.lookup(p)

	return ok && !e.isDirectory
}

func (idx zipIndex) isDirectory(p string) bool {
	e, ok := idx.lookup(p)

	return ok && e.isDirectory
}

func (idx zipIndex) exists(p string) bool {
	_, ok := idx.lookup(p)

	return ok
}

func (idx zipIndex) getFilesize(p string) uint32 {
	e, ok := idx.lookup(p)
	if !ok {
		return 0
	}

	return e.filesize
}

// list invokes visit once per child of the directory at p: every key
// starting with the directory's prefix, excluding the directory's own key,
// whose remainder contains no further "/". It returns false if p does not
// name a directory (including a non-existent path or a file path).
//
// The "k != prefix" exclusion is essential: without it, a directory with an
// empty relative name after stripping the prefix would be reported as its
// own child.
func (idx zipIndex) list(p string, visit func(name string, isDirectory bool)) bool {
	if idx.entries == nil {
		return false
	}

	if !idx.isDirectory(p) {
		return false
	}

	prefix := pathutil.WithTrailingSlash(pathutil.Normalize(p))

	for k, e := range idx.entries {
		if k == prefix || !strings.HasPrefix(k, prefix) {
			continue
		}

		rest := k[len(prefix):]
		if strings.Contains(rest, "/") {
			continue
		}

		visit(rest, e.isDirectory)
	}

	return true
}

// Contains parses the central directory of archivePath without mounting it
// and reports whether any entry's base filename matches filename
// case-insensitively. On success it returns the archive sub-path containing
// that entry and the detected encoding, letting a caller discover where a
// known resource is nested before mounting.
func Contains(archivePath, filename string) (found bool, subPath string, encoding string) {
	f, err := os.Open(archivePath)
	if err != nil {
		return false, "", ""
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, "", ""
	}

	loc, ok := findEOCD(f, info.Size())
	if !ok {
		return false, "", ""
	}

	raw := readCentralDirectory(f, info.Size(), loc)

	encoding = DetectEncoding(concatNames(raw))
	if encoding == "" {
		return false, "", ""
	}

	needle := strings.ToLower(filename)

	for _, e := range raw {
		recoded, ok := Recode(e.rawName, encoding)
		if !ok {
			continue
		}

		s := strings.ToLower(recoded)
		pos := len(s) - len(needle)
		if pos >= 0 && s[pos:] == needle && (pos == 0 || s[pos-1] == '/') {
			return true, s[:pos], encoding
		}
	}

	return false, "", encoding
}
