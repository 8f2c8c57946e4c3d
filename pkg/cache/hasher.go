package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// coordPrecision is the number of decimal places coordinates are rounded to
// before hashing. 1e-4 degrees is roughly 11m, well within routing/geocoding
// noise, so two near-identical requests collapse onto the same cache key.
const coordPrecision = 4

// SegmentKey builds the stable cache key for a routing segment lookup,
// rounding all four coordinates to coordPrecision decimal places so that
// floating-point jitter doesn't fragment the cache (spec: "cached by a
// stable hash of the four coordinates (rounded to a fixed precision)").
func SegmentKey(fromLat, fromLon, toLat, toLon float64) string {
	data := fmt.Sprintf("seg:%.*f,%.*f->%.*f,%.*f",
		coordPrecision, fromLat, coordPrecision, fromLon,
		coordPrecision, toLat, coordPrecision, toLon)
	return ShortHash([]byte(data))
}

// AdapterKey namespaces a provider adapter's cache key by adapter name, so
// the same semantic query issued against two different adapters never
// collides (spec: "cache is shared across adapters by namespacing keys with
// the adapter name").
func AdapterKey(adapter, operation string, params ...string) string {
	data := adapter + ":" + operation
	for _, p := range params {
		data += ":" + p
	}
	return adapter + ":" + QuickHash([]byte(data))[:24]
}

// QuickHash is a full-length SHA-256 hex digest of arbitrary data.
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash is a 16-character SHA-256 hex digest, used where key length
// matters more than collision margin (routing/geocode cache keys).
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
