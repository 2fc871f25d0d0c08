// Package sysmem reports total system memory, used to bound the size of
// in-memory raster read chunks.
package sysmem

// fallbackBytes (4 GB) is assumed when platform detection fails.
const fallbackBytes uint64 = 4 << 30

// Total returns the total system RAM in bytes. reliable is false when
// the value is the fallback default rather than a platform measurement.
func Total() (bytes uint64, reliable bool) {
	b, ok := totalSystemMemory()
	if !ok || b == 0 {
		return fallbackBytes, false
	}
	return b, true
}
