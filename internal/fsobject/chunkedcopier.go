package fsobject

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"module/internal/pathops"
)

// copierState is the tagged variant that replaces the original's
// independently-nilable pair of file handles: a copy is either Idle or
// Active{src, dst}, and "half-open" is unrepresentable.
type copierState interface {
	isCopierState()
}

type idleState struct{}

func (idleState) isCopierState() {}

type activeState struct {
	src      *os.File
	dst      *os.File
	destPath string
}

func (activeState) isCopierState() {}

// ChunkedCopier is a per-file streaming copy owned by its source FsObject.
// It advances one chunk at a time so the performer can interleave progress
// reporting, pause, and cancellation with I/O.
type ChunkedCopier struct {
	mu         sync.Mutex
	sourcePath string
	state      copierState
	lastError  string
}

func newChunkedCopier(sourcePath string) *ChunkedCopier {
	return &ChunkedCopier{sourcePath: sourcePath, state: idleState{}}
}

// LastError returns the most recent OS error message, or "".
func (c *ChunkedCopier) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// CopyChunk reads up to chunkSize bytes and writes them to the destination,
// opening both handles on the first call. Returns Ok on EOF (releasing both
// handles) and on every successful intermediate chunk; Fail on any read or
// write error, which also releases both handles.
func (c *ChunkedCopier) CopyChunk(chunkSize int, destDir, newName string) ErrorKind {
	c.mu.Lock()
	defer c.mu.Unlock()

	active, inProgress := c.state.(activeState)
	if !inProgress {
		name := newName
		if name == "" {
			name = pathops.FullName(c.sourcePath)
		}
		destPath := pathops.Normalize(destDir) + "/" + name

		src, err := os.Open(c.sourcePath)
		if err != nil {
			c.lastError = err.Error()
			return Fail
		}
		dst, err := os.Create(destPath)
		if err != nil {
			src.Close()
			c.lastError = err.Error()
			return Fail
		}
		active = activeState{src: src, dst: dst, destPath: destPath}
		c.state = active
	}

	buf := make([]byte, chunkSize)
	n, readErr := active.src.Read(buf)
	if n > 0 {
		written, writeErr := active.dst.Write(buf[:n])
		if writeErr != nil {
			c.lastError = writeErr.Error()
			c.closeLocked()
			return Fail
		}
		if written != n {
			c.lastError = fmt.Sprintf("short write: wrote %d of %d bytes", written, n)
			c.closeLocked()
			return Fail
		}
	}

	if errors.Is(readErr, io.EOF) {
		if err := active.dst.Sync(); err != nil {
			c.lastError = err.Error()
			c.closeLocked()
			return Fail
		}
		c.closeLocked()
		return Ok
	}
	if readErr != nil {
		c.lastError = readErr.Error()
		c.closeLocked()
		return Fail
	}
	return Ok
}

// CopyInProgress reports whether both handles are currently held and open.
func (c *ChunkedCopier) CopyInProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.state.(activeState)
	return ok
}

// BytesCopied returns the current source read position, or 0 when idle.
func (c *ChunkedCopier) BytesCopied() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	active, ok := c.state.(activeState)
	if !ok {
		return 0
	}
	pos, err := active.src.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0
	}
	return pos
}

// CancelCopy closes both handles and removes the partial destination file.
// Returns Ok iff the destination was successfully removed (or was never
// created).
func (c *ChunkedCopier) CancelCopy() ErrorKind {
	c.mu.Lock()
	defer c.mu.Unlock()

	active, ok := c.state.(activeState)
	if !ok {
		return Ok
	}
	destPath := active.destPath
	c.closeLocked()

	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		c.lastError = err.Error()
		return Fail
	}
	return Ok
}

func (c *ChunkedCopier) closeLocked() {
	if active, ok := c.state.(activeState); ok {
		active.src.Close()
		active.dst.Close()
	}
	c.state = idleState{}
}
