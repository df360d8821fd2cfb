// Package pathutil implements the logical-path normalization shared by the
// ZIP backend's namespace index and (where relevant) the OS backend.
package pathutil

import "strings"

// Normalize lowercases p, rewrites backslashes to forward slashes, and
// strips one leading "." and/or one leading "/" along with any trailing
// "/". The empty string, ".", and "/" all normalize to "".
//
// Normalize(Normalize(p)) == Normalize(p) for paths without repeated
// leading dots or separators or a repeated trailing separator; only one of
// each is stripped, so Normalize("//a") is "/a".
func Normalize(p string) string {
	if p == "" || p == "." || p == "/" {
		return ""
	}

	p = strings.ToLower(p)
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimPrefix(p, ".")
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")

	if p == "." || p == "/" {
		return ""
	}

	return p
}

// WithTrailingSlash returns p with a single trailing "/" appended, unless p
// is already empty (the root never carries a trailing separator of its own;
// callers treat the empty prefix as "no prefix to strip").
func WithTrailingSlash(p string) string {
	if p == "" {
		return p
	}

	return p + "/"
}
