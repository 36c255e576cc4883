//go:build windows

package volumeid

import "strings"

// resolve derives the drive index from a drive letter. UNC paths and
// relative paths have no drive letter and resolve to Unknown.
func resolve(path string) uint64 {
	if len(path) < 2 || path[1] != ':' {
		return Unknown
	}
	drive := strings.ToUpper(path)[0]
	if drive < 'A' || drive > 'Z' {
		return Unknown
	}
	return uint64(drive - 'A')
}
