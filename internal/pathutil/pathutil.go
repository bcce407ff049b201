// Package pathutil provides path normalization and conversion utilities
// shared by the store, host and interceptor packages.
//
// Paths are handled in two forms. The normalized form always uses forward
// slashes, has "." and ".." segments resolved and encodes Windows drive
// letters as a leading segment ("C:\src" becomes "/C/src"). The system form
// is what the real backend and external toolchains expect: on Windows it
// restores the drive letter and uses backslashes, elsewhere it is identical
// to the normalized form.
package pathutil

import (
	"path"
	"strings"
)

// Normalize cleans a path and converts it to the normalized form.
// It applies: backslash conversion → drive letter rewrite → Clean.
// Returns "" for empty paths and for paths that clean to ".".
func Normalize(p string) string {
	if p == "" {
		return ""
	}

	// First convert backslashes to forward slashes (for Windows-style paths)
	p = strings.ReplaceAll(p, "\\", "/")

	// Rewrite "C:/x" as "/C/x" so drive paths are absolute in normalized form
	if hasDriveLetter(p) {
		p = "/" + p[:1] + "/" + strings.TrimPrefix(p[2:], "/")
	}

	p = path.Clean(p)
	if p == "." {
		return ""
	}

	return p
}

// IsAbsolute reports whether a normalized path is absolute.
func IsAbsolute(p string) bool {
	return strings.HasPrefix(p, "/")
}

// Join joins a base path with additional elements and normalizes the result.
func Join(base string, elems ...string) string {
	parts := make([]string, 0, len(elems)+1)
	parts = append(parts, Normalize(base))
	for _, e := range elems {
		if e = Normalize(e); e != "" {
			parts = append(parts, e)
		}
	}
	return Normalize(strings.Join(parts, "/"))
}

// ToSystem converts a normalized path to its system form.
// When windows is false the path is returned unchanged.
func ToSystem(p string, windows bool) string {
	if !windows {
		return p
	}

	// "/C" and "/C/..." carry a drive letter
	if len(p) >= 2 && p[0] == '/' && isLetter(p[1]) && (len(p) == 2 || p[2] == '/') {
		rest := p[2:]
		if rest == "" {
			rest = "/"
		}
		p = p[1:2] + ":" + rest
	}

	return strings.ReplaceAll(p, "/", "\\")
}

// HasSuffix reports whether p ends with any of the non-empty suffixes.
func HasSuffix(p string, suffixes ...string) bool {
	for _, s := range suffixes {
		if s != "" && strings.HasSuffix(p, s) {
			return true
		}
	}
	return false
}

func hasDriveLetter(p string) bool {
	return len(p) >= 2 && isLetter(p[0]) && p[1] == ':' && (len(p) == 2 || p[2] == '/')
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
