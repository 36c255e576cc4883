//go:build !windows

package volumeid

import "golang.org/x/sys/unix"

func resolve(path string) uint64 {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Unknown
	}
	return uint64(st.Dev)
}
