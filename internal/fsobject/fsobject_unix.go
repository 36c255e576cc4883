//go:build !windows

package fsobject

import (
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// statTimes extracts creation and modification times from a POSIX stat
// result. Linux has no reliable birth time in the general case, so this
// module follows common practice and reports ctime (last status change) as
// the creation timestamp, falling back to ModTime when Sys() does not hold
// a *syscall.Stat_t.
// os.FileInfo.Sys() on this platform is populated with *syscall.Stat_t, not
// golang.org/x/sys/unix's distinct (if layout-identical) type.
func statTimes(info os.FileInfo) (created, modified time.Time) {
	modified = info.ModTime()
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		created = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	} else {
		created = modified
	}
	return created, modified
}

func (f *FsObject) IsHidden() bool {
	return strings.HasPrefix(f.Properties().FullName, ".")
}

func (f *FsObject) IsReadable() bool {
	return unix.Access(f.Properties().FullPath, unix.R_OK) == nil
}

func (f *FsObject) IsWritable() bool {
	return unix.Access(f.Properties().FullPath, unix.W_OK) == nil
}

func (f *FsObject) IsExecutable() bool {
	p := f.Properties()
	info, err := os.Stat(p.FullPath)
	if err != nil {
		return false
	}
	return info.Mode()&0111 != 0
}

// makeWritable toggles the owner write bit via chmod. This closes the gap
// left open in the original source, whose non-Windows branch was never
// implemented.
func makeWritable(path string, writable bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if writable {
		mode |= 0200
	} else {
		mode &^= 0200
	}
	return os.Chmod(path, mode)
}
