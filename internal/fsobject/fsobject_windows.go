//go:build windows

package fsobject

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

const longPathPrefix = `\\?\`

func longPath(path string) string {
	native := filepath.FromSlash(path)
	if strings.HasPrefix(native, longPathPrefix) {
		return native
	}
	return longPathPrefix + native
}

func statTimes(info os.FileInfo) (created, modified time.Time) {
	modified = info.ModTime()
	if attr, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		created = time.Unix(0, attr.CreationTime.Nanoseconds())
	} else {
		created = modified
	}
	return created, modified
}

func (f *FsObject) IsHidden() bool {
	attrs, err := windows.GetFileAttributes(windows.StringToUTF16Ptr(longPath(f.Properties().FullPath)))
	if err != nil {
		return false
	}
	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0
}

func (f *FsObject) IsReadable() bool {
	_, err := os.Stat(f.Properties().FullPath)
	return err == nil
}

func (f *FsObject) IsWritable() bool {
	attrs, err := windows.GetFileAttributes(windows.StringToUTF16Ptr(longPath(f.Properties().FullPath)))
	if err != nil {
		return false
	}
	return attrs&windows.FILE_ATTRIBUTE_READONLY == 0
}

func (f *FsObject) IsExecutable() bool {
	ext := strings.ToLower(f.Properties().Extension)
	switch ext {
	case "exe", "bat", "cmd", "com", "ps1":
		return true
	default:
		return false
	}
}

// makeWritable clears or sets FILE_ATTRIBUTE_READONLY, using the \\?\
// long-path prefix to bypass MAX_PATH.
func makeWritable(path string, writable bool) error {
	winPath := windows.StringToUTF16Ptr(longPath(path))
	attrs, err := windows.GetFileAttributes(winPath)
	if err != nil {
		return err
	}
	if writable {
		attrs &^= windows.FILE_ATTRIBUTE_READONLY
	} else {
		attrs |= windows.FILE_ATTRIBUTE_READONLY
	}
	return windows.SetFileAttributes(winPath, attrs)
}
