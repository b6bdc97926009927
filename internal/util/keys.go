package util

import "strings"

// keyRoot isolates everything lixcache writes from other tenants of the
// store. Marker keys share their list's prefix on purpose so a prefix scan
// discovers them alongside the members.
const (
	keyRoot      = "lix:"
	markerSuffix = "!fresh"
)

// StorageKey namespaces a caller key for storage.
func StorageKey(ns, key string) string {
	return keyRoot + ns + ":" + key
}

// TrimStorageKey recovers the caller key from a storage key; ok is false when
// the key does not belong to ns.
func TrimStorageKey(ns, storageKey string) (string, bool) {
	return strings.CutPrefix(storageKey, keyRoot+ns+":")
}

// MarkerKey derives the reserved freshness-marker key for a list prefix.
func MarkerKey(ns, prefix string) string {
	return StorageKey(ns, prefix) + markerSuffix
}

// IsMarkerKey reports whether a scanned storage key is a freshness marker.
func IsMarkerKey(storageKey string) bool {
	return strings.HasSuffix(storageKey, markerSuffix)
}
