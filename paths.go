package stremerd

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CleanPath normalizes a client-supplied virtual path: backslashes become
// slashes, leading and trailing slashes are stripped, and "." collapses to
// the empty path. The empty path addresses the configured root itself.
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.Trim(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// IsValidPath validates a cleaned virtual path. It checks that the path:
//   - does not contain ".." (path traversal)
//   - does not contain "//" (empty segments)
//   - does not contain "." segments
//   - is valid UTF-8
//   - does not contain null bytes, control characters, or DEL
//
// The empty path is valid and addresses the root.
func IsValidPath(p string) bool {
	if p == "" {
		return true
	}

	if strings.Contains(p, "..") {
		return false
	}

	if strings.Contains(p, "//") {
		return false
	}

	if p == "." || strings.HasPrefix(p, "./") || strings.Contains(p, "/./") || strings.HasSuffix(p, "/.") {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	for _, r := range p {
		if r == 0 || r < 0x20 || r == 0x7f {
			return false
		}
	}

	return true
}

// SplitRoot splits a virtual path into its first segment and the remainder.
// Used by the router when the first segment selects a named root.
func SplitRoot(p string) (root, rest string) {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i], p[i+1:]
	}
	return p, ""
}

// JoinPath joins virtual path segments, skipping empties.
func JoinPath(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// BaseName returns the final segment of a virtual path.
func BaseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// ParentPath returns the virtual path with its final segment removed.
func ParentPath(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}

// containsFold reports whether s contains substr under Unicode case folding.
func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(foldString(s), foldString(substr))
}

func foldString(s string) string {
	return strings.Map(unicode.ToLower, s)
}
