package store

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// marshalStrings converts []string to JSON text for storage.
func marshalStrings(ss []string) string {
	if len(ss) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(ss)
	return string(b)
}

// unmarshalStrings converts JSON text back to []string. The result is never
// nil so that callers can tell "no parameters" from a missing row.
func unmarshalStrings(s string) []string {
	out := []string{}
	if s == "" || s == "null" {
		return out
	}
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

// EscapeLike escapes the LIKE metacharacters of s for use with ESCAPE '\'.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// GlobToLike converts a glob with * wildcards into a LIKE pattern.
func GlobToLike(glob string) string {
	return strings.ReplaceAll(EscapeLike(glob), "*", "%")
}

func underRoot(path, root string) bool {
	if root == "" {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
