// Package fsobject implements the filesystem-object value type: a path with
// cached metadata and the per-object operations (atomic copy/move/remove,
// writability toggling, chunked streaming copy) the ops package's
// OperationPerformer drives across a batch.
package fsobject

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"module/internal/pathops"
	"module/internal/volumeid"
)

// Type is the tagged variant of what a path names on disk.
type Type int

const (
	Nonexistent Type = iota
	File
	Directory
	Other
)

func (t Type) String() string {
	switch t {
	case File:
		return "file"
	case Directory:
		return "directory"
	case Other:
		return "other"
	default:
		return "nonexistent"
	}
}

// ErrorKind is the small closed set of outcomes an FsObject operation can
// report. The performer maps these onto halt reasons; it never surfaces a
// raw error to the observer.
type ErrorKind int

const (
	Ok ErrorKind = iota
	Fail
	ObjectDoesNotExist
	TargetAlreadyExists
	CrossVolume
)

func (k ErrorKind) String() string {
	switch k {
	case Ok:
		return "ok"
	case ObjectDoesNotExist:
		return "object_does_not_exist"
	case TargetAlreadyExists:
		return "target_already_exists"
	case CrossVolume:
		return "cross_volume"
	default:
		return "fail"
	}
}

// Properties is the cached metadata snapshot rebuilt by Refresh.
type Properties struct {
	FullPath   string
	ParentDir  string
	FullName   string
	BaseName   string
	Extension  string
	Exists     bool
	Type       Type
	Size       uint64
	CreatedAt  time.Time
	ModifiedAt time.Time
	Hash       uint64
}

// IsValid reports whether the object has ever been successfully refreshed.
// A zero CreatedAt is this module's "never refreshed" sentinel, replacing
// the original time_t::max() trick with Go's natural zero value.
func (p Properties) IsValid() bool {
	return !p.CreatedAt.IsZero()
}

// FsObject wraps a path with cached metadata and per-object operations. The
// hash is computed once at construction from the normalized path and never
// changes; everything else is rebuilt by Refresh.
type FsObject struct {
	mu        sync.RWMutex
	props     Properties
	lastError string
	volumeID  uint64
	volumeSet bool
	copier    *ChunkedCopier
}

// New constructs an FsObject and performs its first refresh.
func New(path string) *FsObject {
	f := &FsObject{
		volumeID: volumeid.Unknown,
	}
	f.props.FullPath = pathops.Normalize(path)
	f.props.Hash = pathops.HashPath(path)
	f.Refresh()
	return f
}

// Hash returns the object's identity hash. It is a pure function of the
// path supplied at construction and never changes.
func (f *FsObject) Hash() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.props.Hash
}

// Equal implements identity equality: two objects are equal iff their
// hashes are equal.
func (f *FsObject) Equal(other *FsObject) bool {
	if other == nil {
		return false
	}
	return f.Hash() == other.Hash()
}

// Properties returns a copy of the current cached metadata snapshot.
func (f *FsObject) Properties() Properties {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.props
}

// LastError returns the most recent OS error message recorded against this
// object, or "" if none.
func (f *FsObject) LastError() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastError
}

func (f *FsObject) setError(err error) {
	if err == nil {
		f.lastError = ""
		return
	}
	f.lastError = err.Error()
}

// Refresh re-stats the path and rebuilds every cached property. The path is
// normalized first, which strips any trailing '/', so a path that does not
// exist is always typed Nonexistent; no Directory type is inferred for it.
func (f *FsObject) Refresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshLocked(f.props.FullPath)
}

func (f *FsObject) refreshLocked(path string) {
	path = pathops.Normalize(path)
	f.props.FullPath = path
	f.props.ParentDir = pathops.ParentDir(path)
	fullName := pathops.FullName(path)
	f.props.FullName = fullName
	f.props.BaseName, f.props.Extension = splitNameForType(fullName, f.props.Type)

	info, err := os.Lstat(path)
	if err != nil {
		f.props.Exists = false
		if strings.HasSuffix(path, "/") {
			f.props.Type = Directory
		} else {
			f.props.Type = Nonexistent
		}
		f.props.Size = 0
		return
	}

	f.props.Exists = true
	f.props.Type = classify(info)
	f.props.BaseName, f.props.Extension = splitNameForType(fullName, f.props.Type)

	if f.props.Type == Directory {
		f.props.Size = 0
	} else {
		f.props.Size = uint64(info.Size())
	}

	created, modified := statTimes(info)
	f.props.CreatedAt = created
	f.props.ModifiedAt = modified
}

func splitNameForType(fullName string, t Type) (base, ext string) {
	if t == Directory {
		return fullName, ""
	}
	return pathops.SplitNameExt(fullName)
}

func classify(info os.FileInfo) Type {
	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return Other
	case mode.IsDir():
		return Directory
	case mode.IsRegular():
		return File
	default:
		return Other
	}
}

// SetDirSize overrides the cached size without touching the filesystem, used
// by an external directory-sizing pass to present cumulative bytes.
func (f *FsObject) SetDirSize(n uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.props.Size = n
}

// VolumeID returns the memoized volume identifier for this object's path,
// re-resolving on demand if it has never been queried or the previous query
// failed.
func (f *FsObject) VolumeID() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.volumeSet && volumeid.IsKnown(f.volumeID) {
		return f.volumeID
	}
	f.volumeID = volumeid.Resolve(f.props.FullPath)
	f.volumeSet = true
	return f.volumeID
}

// IsMovableTo reports whether a and b live on the same known volume, which
// is the precondition for a rename-based move.
func IsMovableTo(a, b *FsObject) bool {
	return volumeid.Equal(a.VolumeID(), b.VolumeID())
}

func (f *FsObject) IsFile() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.props.Type == File
}

func (f *FsObject) IsDir() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.props.Type == Directory
}

func (f *FsObject) IsCdUp() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.props.FullName == ".."
}

// IsEmptyDir reports whether a directory listing (excluding "." and "..",
// but counting hidden and system entries) is empty.
func (f *FsObject) IsEmptyDir() (bool, error) {
	path := f.Properties().FullPath
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// IsChildOf reports whether this object's path is nested under parent,
// directly or indirectly, using a case-insensitive prefix match regardless
// of host platform (this predicate is always case-insensitive, unlike
// pathops.PathsEqual which follows platform rules).
func (f *FsObject) IsChildOf(parent *FsObject) bool {
	childPath := strings.ToLower(f.Properties().FullPath) + "/"
	parentPath := strings.ToLower(parent.Properties().FullPath)
	if parentPath != "/" {
		parentPath += "/"
	}
	return strings.HasPrefix(childPath, parentPath) && childPath != parentPath
}

// IsHidden, IsReadable, IsWritable, IsExecutable are platform-specific; see
// fsobject_unix.go and fsobject_windows.go.

// SizeString renders the cached size as a human-readable string. Meaningful
// for files only; directories return "" unless SetDirSize has been called.
func (f *FsObject) SizeString() string {
	p := f.Properties()
	if p.Type == Directory && p.Size == 0 {
		return ""
	}
	return pathops.FileSizeToString(p.Size, 0, "")
}

// CopyAtomically performs a byte-for-byte copy in a single pass. Files only.
func (f *FsObject) CopyAtomically(destDir, newName string) ErrorKind {
	p := f.Properties()
	if p.Type != File {
		return Fail
	}
	name := newName
	if name == "" {
		name = p.FullName
	}
	destPath := pathops.Normalize(destDir) + "/" + name

	src, err := os.Open(p.FullPath)
	if err != nil {
		f.mu.Lock()
		f.setError(err)
		f.mu.Unlock()
		return Fail
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		f.mu.Lock()
		f.setError(err)
		f.mu.Unlock()
		return Fail
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		f.mu.Lock()
		f.setError(err)
		f.mu.Unlock()
		return Fail
	}
	if err := dst.Sync(); err != nil {
		f.mu.Lock()
		f.setError(err)
		f.mu.Unlock()
		return Fail
	}
	return Ok
}

// MoveAtomically renames the object into destDir, optionally under newName.
// Directories are left un-refreshed on success per the original semantics:
// the object's identity is now stale and the caller must discard it.
func (f *FsObject) MoveAtomically(destDir, newName string) ErrorKind {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.props.Exists {
		return ObjectDoesNotExist
	}
	if f.props.FullName == ".." {
		f.setError(errors.New("cannot move '..'"))
		return Fail
	}

	name := newName
	if name == "" {
		name = f.props.FullName
	}
	dest := pathops.Normalize(destDir) + "/" + name

	destInfo, statErr := os.Lstat(dest)
	destExists := statErr == nil
	if destExists && (f.props.Type == Directory || !destInfo.IsDir()) {
		return TargetAlreadyExists
	}

	if err := os.Rename(f.props.FullPath, dest); err != nil {
		if errors.Is(err, syscall.EXDEV) {
			f.setError(err)
			return CrossVolume
		}
		f.setError(err)
		return Fail
	}

	if f.props.Type == Directory {
		return Ok
	}
	f.refreshLocked(dest)
	return Ok
}

// MoveChunk ignores chunkSize and delegates to MoveAtomically: moves always
// fall back to atomic rename at the per-object level. The performer only
// engages ChunkedCopier when it is actually copying.
func (f *FsObject) MoveChunk(_ int, destDir, newName string) ErrorKind {
	return f.MoveAtomically(destDir, newName)
}

// Remove deletes the object. Directories must be empty; the removal is a
// direct syscall on the path, not the from-inside "rmdir(.)" workaround the
// original implementation used to route around a toolkit quirk.
func (f *FsObject) Remove() ErrorKind {
	p := f.Properties()
	switch p.Type {
	case Nonexistent:
		return ObjectDoesNotExist
	case File:
		if err := os.Remove(p.FullPath); err != nil {
			f.mu.Lock()
			f.setError(err)
			f.mu.Unlock()
			return Fail
		}
		return Ok
	case Other:
		// Symlinks, devices, and sockets are not removed by the generic
		// path; a caller must opt into a dedicated removal path for them.
		return Fail
	case Directory:
		// IsEmptyDir's own os.ReadDir call fails (and is reported below) if
		// the directory isn't readable, so a non-nil err already covers
		// both "empty" and "readable" before Remove ever calls os.Remove.
		empty, err := f.IsEmptyDir()
		if err != nil {
			f.mu.Lock()
			f.setError(err)
			f.mu.Unlock()
			return Fail
		}
		if !empty {
			f.mu.Lock()
			f.setError(fmt.Errorf("directory not empty: %s", p.FullPath))
			f.mu.Unlock()
			return Fail
		}
		if err := os.Remove(p.FullPath); err != nil {
			f.mu.Lock()
			f.setError(err)
			f.mu.Unlock()
			return Fail
		}
		return Ok
	default:
		return Fail
	}
}

// MakeWritable clears or sets the read-only attribute. Files only, per the
// original semantics; directories are not attribute-toggled by this module.
func (f *FsObject) MakeWritable(writable bool) ErrorKind {
	p := f.Properties()
	if p.Type != File {
		return Fail
	}
	if err := makeWritable(p.FullPath, writable); err != nil {
		f.mu.Lock()
		f.setError(err)
		f.mu.Unlock()
		return Fail
	}
	return Ok
}

// Copier lazily creates and returns the ChunkedCopier attached to this
// object. At most one is attached at a time (invariant 6).
func (f *FsObject) Copier() *ChunkedCopier {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.copier == nil {
		f.copier = newChunkedCopier(f.props.FullPath)
	}
	return f.copier
}
