// Package ops implements the OperationPerformer: a long-running worker that
// consumes a batch of fsobject.FsObject sources and a destination, drives
// chunked I/O, computes progress/throughput/ETA, and coordinates with an
// Observer through an interactive halt/resume/retry/cancel protocol.
package ops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"module/internal/fsobject"
	"module/internal/pathops"
)

// Kind selects whether the batch renames/copies-and-deletes or only copies.
type Kind int

const (
	Copy Kind = iota
	Move
)

// HaltReason is why the performer stopped and is waiting on the observer.
type HaltReason int

const (
	ReasonTargetAlreadyExists HaltReason = iota
	ReasonAccessDenied
	ReasonSourceVanished
	ReasonDestinationReadOnly
)

func (r HaltReason) String() string {
	switch r {
	case ReasonTargetAlreadyExists:
		return "target_already_exists"
	case ReasonAccessDenied:
		return "access_denied"
	case ReasonSourceVanished:
		return "source_vanished"
	case ReasonDestinationReadOnly:
		return "destination_read_only"
	default:
		return "unknown"
	}
}

// ParseHaltReason parses the wire form written by String, for adapters that
// receive a halt reason back from a remote client (e.g. as a safety check
// that the decision matches the halt the client is actually looking at).
func ParseHaltReason(s string) (HaltReason, bool) {
	switch s {
	case "target_already_exists":
		return ReasonTargetAlreadyExists, true
	case "access_denied":
		return ReasonAccessDenied, true
	case "source_vanished":
		return ReasonSourceVanished, true
	case "destination_read_only":
		return ReasonDestinationReadOnly, true
	default:
		return 0, false
	}
}

// ResponseKind is the set of replies an observer may give to a halt.
type ResponseKind int

const (
	Skip ResponseKind = iota
	SkipAll
	Overwrite
	OverwriteAll
	Rename
	Retry
	Cancel
	Proceed
)

func (k ResponseKind) String() string {
	switch k {
	case Skip:
		return "skip"
	case SkipAll:
		return "skip_all"
	case Overwrite:
		return "overwrite"
	case OverwriteAll:
		return "overwrite_all"
	case Rename:
		return "rename"
	case Retry:
		return "retry"
	case Cancel:
		return "cancel"
	case Proceed:
		return "proceed"
	default:
		return "unknown"
	}
}

// ParseResponseKind parses the wire form written by String, for decoding a
// decision posted by a remote client.
func ParseResponseKind(s string) (ResponseKind, bool) {
	switch s {
	case "skip":
		return Skip, true
	case "skip_all":
		return SkipAll, true
	case "overwrite":
		return Overwrite, true
	case "overwrite_all":
		return OverwriteAll, true
	case "rename":
		return Rename, true
	case "retry":
		return Retry, true
	case "cancel":
		return Cancel, true
	case "proceed":
		return Proceed, true
	default:
		return 0, false
	}
}

// State is the performer's own state machine, independent of the ambient
// job layer's JobState (which is derived from it).
type State int

const (
	Idle State = iota
	Enumerating
	Executing
	Halted
	Paused
	Cancelling
	Finished
)

func (s State) String() string {
	switch s {
	case Enumerating:
		return "enumerating"
	case Executing:
		return "executing"
	case Halted:
		return "halted"
	case Paused:
		return "paused"
	case Cancelling:
		return "cancelling"
	case Finished:
		return "finished"
	default:
		return "idle"
	}
}

// Observer is the callback sink a progress UI implements. on_process_halted
// is notify-only: the observer replies out of band via Performer.Respond,
// which is the only call it may make back into the performer while halted.
// This split (rather than a return value from OnProcessHalted) is what lets
// a remote HTTP client answer a halt asynchronously.
type Observer interface {
	OnProgressChanged(totalPercent float64, filesDone, filesTotal int, filePercent, bytesPerSec, secondsRemaining float64)
	OnProcessHalted(reason HaltReason, sourcePath, destPath, errorMessage string)
	OnCurrentFileChanged(path string)
	OnProcessFinished(summary string)
}

type decision struct {
	kind    ResponseKind
	newName string
}

var errCancelled = errors.New("ops: operation cancelled")

const defaultChunkSize = 64 * 1024

// Option configures a Performer at construction time.
type Option func(*Performer)

// WithChunkSize overrides the default 64 KiB streaming chunk size.
func WithChunkSize(n int) Option {
	return func(p *Performer) { p.chunkSize = n }
}

// Performer drives one batch copy or move operation. A single worker
// goroutine performs all filesystem I/O and calls the observer.
type Performer struct {
	kind      Kind
	sources   []*fsobject.FsObject
	destDir   string
	observer  Observer
	chunkSize int

	ctx    context.Context
	cancel context.CancelFunc

	stateMu sync.Mutex
	state   State

	pauseMu  sync.Mutex
	paused   bool
	resumeCh chan struct{}

	decisionCh chan decision

	cacheMu    sync.Mutex
	allDecided map[HaltReason]decision

	progressMu sync.Mutex
	filesDone  int
	filesTotal int
	bytesDone  int64
	bytesTotal int64
	emaRate    float64
	lastEmit   time.Time
	lastSample time.Time
	sampleDone int64

	summaryMu sync.Mutex
	summary   string
}

// NewPerformer constructs a performer over sources, to be applied under
// destDir, reporting to observer.
func NewPerformer(kind Kind, sources []*fsobject.FsObject, destDir string, observer Observer, opts ...Option) *Performer {
	p := &Performer{
		kind:       kind,
		sources:    sources,
		destDir:    pathops.Normalize(destDir),
		observer:   observer,
		chunkSize:  defaultChunkSize,
		state:      Idle,
		resumeCh:   make(chan struct{}),
		decisionCh: make(chan decision, 1),
		allDecided: make(map[HaltReason]decision),
	}
	close(p.resumeCh) // not paused: closed channel never blocks a receive
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the worker goroutine bound to ctx. Cancelling ctx is
// equivalent to calling Cancel.
func (p *Performer) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)
	go p.run()
}

// State returns the performer's current state.
func (p *Performer) State() State {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.state
}

func (p *Performer) setState(s State) {
	p.stateMu.Lock()
	p.state = s
	p.stateMu.Unlock()
}

// TogglePause flips the cooperative pause flag. The worker checks it before
// each chunk of a streamed copy.
func (p *Performer) TogglePause() {
	p.pauseMu.Lock()
	defer p.pauseMu.Unlock()
	if p.paused {
		p.paused = false
		close(p.resumeCh)
		p.setState(Executing)
	} else {
		p.paused = true
		p.resumeCh = make(chan struct{})
		p.setState(Paused)
	}
}

// Paused reports whether the performer is currently paused.
func (p *Performer) Paused() bool {
	p.pauseMu.Lock()
	defer p.pauseMu.Unlock()
	return p.paused
}

// Cancel requests that the worker abort at the next chunk boundary or
// suspension point (bounded to <=100ms by the select in waitIfPaused/halt).
func (p *Performer) Cancel() {
	p.setState(Cancelling)
	if p.cancel != nil {
		p.cancel()
	}
	// Unblock a paused worker so it can observe the cancellation promptly.
	p.pauseMu.Lock()
	if p.paused {
		p.paused = false
		close(p.resumeCh)
	}
	p.pauseMu.Unlock()
}

// Respond delivers the observer's decision for a halt with the given
// reason. It is the only call an observer may make back into the performer
// while halted.
func (p *Performer) Respond(reason HaltReason, kind ResponseKind, newName string) {
	select {
	case p.decisionCh <- decision{kind: kind, newName: newName}:
	case <-p.ctx.Done():
	}
	if kind == SkipAll || kind == OverwriteAll {
		p.cacheMu.Lock()
		p.allDecided[reason] = decision{kind: kind, newName: newName}
		p.cacheMu.Unlock()
	}
}

func (p *Performer) cachedDecision(reason HaltReason) (decision, bool) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	d, ok := p.allDecided[reason]
	return d, ok
}

func (p *Performer) cancelled() bool {
	select {
	case <-p.ctx.Done():
		return true
	default:
		return false
	}
}

func (p *Performer) waitIfPaused() bool {
	p.pauseMu.Lock()
	paused := p.paused
	ch := p.resumeCh
	p.pauseMu.Unlock()
	if !paused {
		return !p.cancelled()
	}
	select {
	case <-ch:
		return !p.cancelled()
	case <-p.ctx.Done():
		return false
	}
}

// halt suspends execution and blocks until the observer replies (or the
// batch is cancelled). It is delivered strictly between two progress
// events, per the ordering guarantee.
func (p *Performer) halt(reason HaltReason, sourcePath, destPath, message string) decision {
	if d, ok := p.cachedDecision(reason); ok {
		return d
	}

	p.setState(Halted)
	p.observer.OnProcessHalted(reason, sourcePath, destPath, message)

	select {
	case d := <-p.decisionCh:
		p.setState(Executing)
		return d
	case <-p.ctx.Done():
		return decision{kind: Cancel}
	}
}

func (p *Performer) setSummary(format string, args ...interface{}) {
	p.summaryMu.Lock()
	p.summary = fmt.Sprintf(format, args...)
	p.summaryMu.Unlock()
}

func (p *Performer) run() {
	defer func() {
		p.setState(Finished)
		p.summaryMu.Lock()
		summary := p.summary
		p.summaryMu.Unlock()
		p.observer.OnProcessFinished(summary)
	}()

	p.setState(Enumerating)
	items, totalBytes, err := p.enumerate()
	if err != nil {
		p.setSummary("enumeration failed: %v", err)
		return
	}

	p.progressMu.Lock()
	p.filesTotal = countFiles(items)
	p.bytesTotal = totalBytes
	p.lastSample = time.Now()
	p.progressMu.Unlock()

	p.setState(Executing)

	for _, item := range items {
		if p.cancelled() {
			p.setSummary("cancelled after %d of %d files", p.filesDone, p.filesTotal)
			return
		}

		p.observer.OnCurrentFileChanged(item.object.Properties().FullPath)

		if item.isDir {
			if err := p.ensureDir(item); err != nil {
				p.setSummary("cancelled: %v", err)
				return
			}
			continue
		}

		if err := p.executeFile(item); err != nil {
			if errors.Is(err, errCancelled) {
				p.setSummary("cancelled after %d of %d files", p.filesDone, p.filesTotal)
				return
			}
			// Skip: item was declined by the observer; move to the next one.
			continue
		}
	}

	if p.kind == Move {
		p.removeEmptySourceDirs(items)
	}

	p.setSummary("completed %d of %d files", p.filesDone, p.filesTotal)
}

func countFiles(items []workItem) int {
	n := 0
	for _, it := range items {
		if !it.isDir {
			n++
		}
	}
	return n
}

type workItem struct {
	object  *fsobject.FsObject
	relPath string
	isDir   bool
}

// enumerate recursively walks each source, producing a flat work list of
// (object, relative path) pairs and the total byte count of files within.
// Directories precede their children so the caller can create them eagerly.
func (p *Performer) enumerate() ([]workItem, int64, error) {
	var items []workItem
	var totalBytes int64

	var walk func(obj *fsobject.FsObject, rel string) error
	walk = func(obj *fsobject.FsObject, rel string) error {
		props := obj.Properties()
		switch props.Type {
		case fsobject.Directory:
			items = append(items, workItem{object: obj, relPath: rel, isDir: true})
			entries, err := os.ReadDir(props.FullPath)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				childRel := entry.Name()
				if rel != "" {
					childRel = rel + "/" + entry.Name()
				}
				child := fsobject.New(props.FullPath + "/" + entry.Name())
				if err := walk(child, childRel); err != nil {
					return err
				}
			}
			return nil
		case fsobject.File:
			items = append(items, workItem{object: obj, relPath: rel})
			totalBytes += int64(props.Size)
			return nil
		default:
			return nil
		}
	}

	for _, src := range p.sources {
		props := src.Properties()
		rel := props.FullName
		if err := walk(src, rel); err != nil {
			return nil, 0, err
		}
	}

	return items, totalBytes, nil
}

// targetDir computes the destination directory for a work item's relative
// path (which is batch-relative, not absolute, so pathops.ParentDir's
// root-anchored assumptions do not apply here).
func (p *Performer) targetDir(item workItem) string {
	idx := strings.LastIndex(item.relPath, "/")
	if idx < 0 {
		return p.destDir
	}
	return p.destDir + "/" + item.relPath[:idx]
}

func (p *Performer) ensureDir(item workItem) error {
	target := p.destDir + "/" + item.relPath
	if err := os.MkdirAll(target, 0755); err != nil {
		return err
	}
	return nil
}

// executeFile plans and runs one file's transfer: rename when Move is
// possible on the same volume, otherwise a streaming chunked copy (with a
// post-copy source delete for Move). Returns errCancelled if the batch was
// cancelled mid-transfer, or nil if the item completed or was skipped.
func (p *Performer) executeFile(item workItem) error {
	destDir := p.targetDir(item)
	name := pathops.FullName(item.relPath)

	for {
		if p.kind == Move {
			// Probe destDir itself, not destDir+"/"+name: the destination
			// file doesn't exist yet, so stat-ing it would resolve to an
			// Unknown volume and IsMovableTo would never see a match.
			destProbe := fsobject.New(destDir)
			if fsobject.IsMovableTo(item.object, destProbe) {
				result := item.object.MoveAtomically(destDir, name)
				switch result {
				case fsobject.Ok:
					p.recordFileDone(item.object.Properties().Size)
					return nil
				case fsobject.TargetAlreadyExists:
					if handled, cont := p.handleHalt(ReasonTargetAlreadyExists, item, destDir, &name, item.object.LastError()); !cont {
						return handled
					}
					continue
				case fsobject.CrossVolume:
					// rename(2) refused an EXDEV move: fall out of this
					// switch and the enclosing ifs to the streaming copy
					// below, which for Move deletes the source once every
					// chunk has landed on the destination volume.
				default:
					if handled, cont := p.handleHalt(ReasonAccessDenied, item, destDir, &name, item.object.LastError()); !cont {
						return handled
					}
					continue
				}
			}
		}

		return p.streamCopy(item, destDir, name)
	}
}

// handleHalt centralizes the conflict/halt protocol shared by the rename
// and streaming-copy paths. It returns (err, true) to mean "retry the
// caller's loop", or (err, false) to mean "stop processing this item";
// err is non-nil only in the stop case.
func (p *Performer) handleHalt(reason HaltReason, item workItem, destDir string, name *string, message string) (error, bool) {
	d := p.halt(reason, item.object.Properties().FullPath, destDir+"/"+*name, message)
	switch d.kind {
	case Skip, SkipAll:
		return nil, false
	case Overwrite, OverwriteAll:
		dest := fsobject.New(destDir + "/" + *name)
		if dest.MakeWritable(true) != fsobject.Ok {
			d2 := p.halt(ReasonDestinationReadOnly, item.object.Properties().FullPath, dest.Properties().FullPath, dest.LastError())
			if d2.kind == Cancel {
				p.Cancel()
				return errCancelled, false
			}
			if d2.kind == Skip || d2.kind == SkipAll {
				return nil, false
			}
			return nil, true
		}
		if dest.Properties().Type != fsobject.Nonexistent {
			if r := dest.Remove(); r != fsobject.Ok {
				d2 := p.halt(ReasonAccessDenied, item.object.Properties().FullPath, dest.Properties().FullPath, dest.LastError())
				if d2.kind == Cancel {
					p.Cancel()
					return errCancelled, false
				}
				if d2.kind == Skip || d2.kind == SkipAll {
					return nil, false
				}
				return nil, true
			}
		}
		return nil, true
	case Rename:
		*name = d.newName
		return nil, true
	case Retry:
		return nil, true
	case Proceed:
		return nil, true
	case Cancel:
		p.Cancel()
		return errCancelled, false
	default:
		return nil, false
	}
}

func (p *Performer) streamCopy(item workItem, destDir, name string) error {
	obj := item.object
	total := int64(obj.Properties().Size)

	for {
		// A conflict is checked before every attempt, not just the first:
		// a rename or an overwrite decision changes what "the destination"
		// means and must be re-validated.
		if _, err := os.Lstat(destDir + "/" + name); err == nil {
			if handled, cont := p.handleHalt(ReasonTargetAlreadyExists, item, destDir, &name, "destination already exists"); !cont {
				return handled
			}
			continue
		}

		err, retry := p.runChunkedCopy(item, destDir, &name, total)
		if err != nil {
			return err
		}
		if retry {
			continue
		}
		return nil
	}
}

// runChunkedCopy drives one attempt at streaming the file to destDir/name.
// It returns (nil, false) on success, (err, false) to stop processing this
// item (skip or cancel), or (nil, true) to retry after a halt was resolved
// by rename/overwrite/retry.
func (p *Performer) runChunkedCopy(item workItem, destDir string, name *string, total int64) (error, bool) {
	obj := item.object
	copier := obj.Copier()

	p.progressMu.Lock()
	p.sampleDone = 0
	p.lastSample = time.Now()
	p.progressMu.Unlock()

	for {
		if !p.waitIfPaused() {
			copier.CancelCopy()
			return errCancelled, false
		}

		result := copier.CopyChunk(p.chunkSize, destDir, *name)
		switch result {
		case fsobject.Ok:
			done := copier.BytesCopied()
			p.reportChunk(item, done, total)
			if !copier.CopyInProgress() {
				if p.kind == Move {
					if r := obj.Remove(); r != fsobject.Ok {
						if handled, cont := p.handleHalt(ReasonAccessDenied, item, destDir, name, obj.LastError()); !cont {
							return handled, false
						}
						return nil, true
					}
				}
				p.recordFileDone(uint64(total))
				return nil, false
			}
		case fsobject.Fail:
			last := copier.LastError()
			if handled, cont := p.handleHalt(ReasonAccessDenied, item, destDir, name, last); !cont {
				return handled, false
			}
			return nil, true
		default:
			return nil, false
		}
	}
}

func (p *Performer) recordFileDone(size uint64) {
	p.progressMu.Lock()
	p.filesDone++
	p.bytesDone += int64(size)
	p.progressMu.Unlock()
	p.emitProgress(100.0)
}

// reportChunk updates the throughput EMA and emits a throttled progress
// event. total is the file's total size; done is bytes copied so far in
// that file.
func (p *Performer) reportChunk(item workItem, done, total int64) {
	p.progressMu.Lock()
	now := time.Now()
	elapsed := now.Sub(p.lastSample).Seconds()
	if elapsed <= 0 {
		elapsed = 0.001
	}
	deltaBytes := done - p.sampleDone
	instantRate := float64(deltaBytes) / elapsed
	const alpha = 0.3
	if p.emaRate == 0 {
		p.emaRate = instantRate
	} else {
		p.emaRate = alpha*instantRate + (1-alpha)*p.emaRate
	}
	p.lastSample = now
	p.sampleDone = done
	filePercent := 0.0
	if total > 0 {
		filePercent = float64(done) / float64(total) * 100.0
	}
	p.progressMu.Unlock()

	p.emitProgress(filePercent)
}

func (p *Performer) emitProgress(filePercent float64) {
	p.progressMu.Lock()
	now := time.Now()
	if !p.lastEmit.IsZero() && now.Sub(p.lastEmit) < 100*time.Millisecond && filePercent < 100.0 {
		p.progressMu.Unlock()
		return
	}
	p.lastEmit = now

	totalPercent := 0.0
	if p.bytesTotal > 0 {
		totalPercent = float64(p.bytesDone) / float64(p.bytesTotal) * 100.0
	} else if p.filesTotal > 0 {
		totalPercent = float64(p.filesDone) / float64(p.filesTotal) * 100.0
	}

	rate := p.emaRate
	remaining := p.bytesTotal - p.bytesDone
	eta := 0.0
	if rate > 1e-6 && remaining > 0 {
		eta = float64(remaining) / rate
	}

	filesDone, filesTotal := p.filesDone, p.filesTotal
	p.progressMu.Unlock()

	p.observer.OnProgressChanged(totalPercent, filesDone, filesTotal, filePercent, rate, eta)
}

func (p *Performer) removeEmptySourceDirs(items []workItem) {
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if !item.isDir {
			continue
		}
		empty, err := item.object.IsEmptyDir()
		if err != nil || !empty {
			continue
		}
		item.object.Remove()
	}
}
