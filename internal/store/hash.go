package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ContentHash returns the hex SHA-256 of a file's content. Files whose hash
// is unchanged are skipped on reindex.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// SettingsHash computes a deterministic hash over the settings that shape
// stored descriptors. Keys are sorted so map order does not matter.
func SettingsHash(settings map[string]string) string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s:%s\n", k, settings[k])
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
