// Package volumeid resolves the volume (device) identifier a path lives on,
// used by the ops package to decide whether a move can be a simple rename
// or must fall back to copy+delete.
package volumeid

import "math"

// Unknown is the sentinel volume identifier for "unqueryable". Any equality
// test involving Unknown must return false.
const Unknown uint64 = math.MaxUint64

// IsKnown reports whether id is a real, queried volume identifier.
func IsKnown(id uint64) bool {
	return id != Unknown
}

// Equal reports whether a and b identify the same known volume. Two Unknown
// values are never considered equal.
func Equal(a, b uint64) bool {
	return IsKnown(a) && IsKnown(b) && a == b
}

// Resolve returns the volume identifier for path: POSIX st_dev, or the
// Windows drive index (0..25) derived from the drive letter. It returns
// Unknown if the path cannot be queried (e.g. it does not exist yet, or the
// platform call fails). Callers may retry after a failed resolution.
func Resolve(path string) uint64 {
	return resolve(path)
}
