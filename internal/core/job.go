// Package core provides the core business logic and types for the file
// manager's job layer: the ambient wrapper around one OperationPerformer
// run. This package must NOT import any adapter-specific code (Wails,
// Cobra, HTTP frameworks). It should be fully testable without a UI.
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"module/internal/ops"
)

// JobState represents the lifecycle state of a job. It is a superset of a
// simple pending/running/done model, adding halted and paused so the
// OperationPerformer's own state machine is visible through the snapshot.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobHalted    JobState = "halted"
	JobPaused    JobState = "paused"
	JobCanceling JobState = "canceling"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
	JobCanceled  JobState = "canceled"
)

// JobProgress contains progress information for a running job.
type JobProgress struct {
	Phase      string  `json:"phase"`
	Current    int64   `json:"current"`
	Total      int64   `json:"total"`
	Percent    float64 `json:"percent"`
	Rate       float64 `json:"rate"`
	ETASeconds float64 `json:"etaSeconds"`
}

// JobError contains error information when a job fails.
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// JobArtifact contains output artifacts from a job (logs, reports, etc.)
type JobArtifact struct {
	LogPath     string `json:"logPath"`
	OpenLogHint string `json:"openLogHint"`
}

// HaltInfo carries the OperationPerformer's halt context out to remote
// clients so a decision oracle (CLI, HTTP client) can render the prompt.
type HaltInfo struct {
	Reason       string `json:"reason"`
	SourcePath   string `json:"sourcePath"`
	DestPath     string `json:"destPath"`
	ErrorMessage string `json:"errorMessage"`
}

// JobSnapshot is the authoritative state of a job at a point in time.
// Adapters derive all UI state from this snapshot.
type JobSnapshot struct {
	JobID     string            `json:"jobId"`
	Seq       int64             `json:"seq"`
	Type      string            `json:"type"`
	State     JobState          `json:"state"`
	Params    map[string]string `json:"params,omitempty"`
	Progress  JobProgress       `json:"progress"`
	Message   string            `json:"message"`
	Workers   map[int]string    `json:"workers,omitempty"`
	Halt      *HaltInfo         `json:"halt,omitempty"`
	Error     *JobError         `json:"error,omitempty"`
	Artifact  JobArtifact       `json:"artifact"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// JobUpdateEvent is emitted when job state changes. It carries the same
// fields as JobSnapshot but is used for event delivery (SSE, GUI events).
type JobUpdateEvent struct {
	JobID    string         `json:"jobId"`
	Seq      int64          `json:"seq"`
	Type     string         `json:"type"`
	State    JobState       `json:"state"`
	Progress JobProgress    `json:"progress"`
	Message  string         `json:"message"`
	LogLine  string         `json:"logLine,omitempty"`
	Workers  map[int]string `json:"workers,omitempty"`
	Halt     *HaltInfo      `json:"halt,omitempty"`
	Error    *JobError      `json:"error,omitempty"`
	Artifact JobArtifact    `json:"artifact"`
}

// JobEventEmitter is the interface adapters must implement to receive job
// events. This keeps the core JobManager agnostic about delivery transport.
type JobEventEmitter interface {
	EmitJobUpdate(event JobUpdateEvent)
}

// ThrottleConfig controls how often progress updates are emitted.
type ThrottleConfig struct {
	MinInterval time.Duration
}

// DefaultThrottleConfig targets the ~10 Hz progress cadence the observer
// contract calls for.
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{MinInterval: 100 * time.Millisecond}
}

// JobControls is how the goroutine driving an OperationPerformer plugs
// pause and halt-reply into the JobManager without the core package needing
// to import the performer's concrete type.
type JobControls struct {
	TogglePause func()
	Respond     func(reason ops.HaltReason, kind ops.ResponseKind, newName string)
}

// JobManager manages the lifecycle of long-running jobs. It is the single
// source of truth for job state. Adapters (Wails, CLI, API) use this to
// start/stop jobs and read state.
type JobManager struct {
	mu           sync.Mutex
	jobs         map[string]*JobSnapshot
	activeJob    string
	seqCounter   int64
	cancels      map[string]context.CancelFunc
	controls     map[string]JobControls
	emitter      JobEventEmitter
	throttle     ThrottleConfig
	lastEmitTime map[string]time.Time
}

// NewJobManager creates a new JobManager with default throttling.
func NewJobManager(emitter JobEventEmitter) *JobManager {
	return NewJobManagerWithThrottle(emitter, DefaultThrottleConfig())
}

// NewJobManagerWithThrottle creates a new JobManager with custom throttling.
func NewJobManagerWithThrottle(emitter JobEventEmitter, throttle ThrottleConfig) *JobManager {
	return &JobManager{
		jobs:         make(map[string]*JobSnapshot),
		cancels:      make(map[string]context.CancelFunc),
		controls:     make(map[string]JobControls),
		emitter:      emitter,
		throttle:     throttle,
		lastEmitTime: make(map[string]time.Time),
	}
}

// SetEmitter sets the event emitter (used when it becomes available after construction).
func (jm *JobManager) SetEmitter(emitter JobEventEmitter) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.emitter = emitter
}

// AddEmitter adds an additional emitter. Events are sent to all registered emitters.
func (jm *JobManager) AddEmitter(emitter JobEventEmitter) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	if jm.emitter == nil {
		jm.emitter = emitter
		return
	}
	if multi, ok := jm.emitter.(*MultiEmitter); ok {
		multi.Add(emitter)
	} else {
		jm.emitter = &MultiEmitter{emitters: []JobEventEmitter{jm.emitter, emitter}}
	}
}

// MultiEmitter broadcasts events to multiple emitters.
type MultiEmitter struct {
	mu       sync.Mutex
	emitters []JobEventEmitter
}

func (m *MultiEmitter) Add(emitter JobEventEmitter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitters = append(m.emitters, emitter)
}

func (m *MultiEmitter) EmitJobUpdate(event JobUpdateEvent) {
	m.mu.Lock()
	emitters := make([]JobEventEmitter, len(m.emitters))
	copy(emitters, m.emitters)
	m.mu.Unlock()

	for _, e := range emitters {
		if e != nil {
			e.EmitJobUpdate(event)
		}
	}
}

// StartJob starts a new job and returns its ID and a context cancelled when
// CancelJob is called. Only one job may be active at a time.
func (jm *JobManager) StartJob(ctx context.Context, jobType string, message string, params map[string]string) (string, context.Context, error) {
	jm.mu.Lock()

	if jm.activeJob != "" {
		active := jm.jobs[jm.activeJob]
		if active != nil && isLiveState(active.State) {
			jm.mu.Unlock()
			return "", nil, fmt.Errorf("a job is already running: %s (%s)", active.JobID, active.Type)
		}
	}

	jobID := uuid.NewString()
	jobCtx, cancel := context.WithCancel(ctx)

	snapshot := &JobSnapshot{
		JobID:     jobID,
		Type:      jobType,
		State:     JobRunning,
		Params:    params,
		Message:   message,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Progress:  JobProgress{Phase: "starting"},
	}

	jm.jobs[jobID] = snapshot
	jm.cancels[jobID] = cancel
	jm.activeJob = jobID
	jm.mu.Unlock()

	jm.emitUpdate(jobID)

	return jobID, jobCtx, nil
}

func isLiveState(s JobState) bool {
	switch s {
	case JobRunning, JobHalted, JobPaused, JobCanceling:
		return true
	default:
		return false
	}
}

// AttachControls registers the pause/respond hooks for a running job's
// OperationPerformer so the manager can relay HTTP/CLI control calls to it.
func (jm *JobManager) AttachControls(jobID string, controls JobControls) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.controls[jobID] = controls
}

func (jm *JobManager) emitUpdate(jobID string) {
	jm.mu.Lock()
	snapshot, exists := jm.jobs[jobID]
	if !exists {
		jm.mu.Unlock()
		return
	}

	jm.seqCounter++
	snapshot.Seq = jm.seqCounter

	event := JobUpdateEvent{
		JobID:    snapshot.JobID,
		Seq:      snapshot.Seq,
		Type:     snapshot.Type,
		State:    snapshot.State,
		Progress: snapshot.Progress,
		Message:  snapshot.Message,
		Workers:  snapshot.Workers,
		Halt:     snapshot.Halt,
		Error:    snapshot.Error,
		Artifact: snapshot.Artifact,
	}

	emitter := jm.emitter
	jm.mu.Unlock()

	if emitter != nil {
		emitter.EmitJobUpdate(event)
	}
}

// UpdateProgress updates the progress of a running job. The snapshot is
// always updated; emission is throttled to ThrottleConfig.MinInterval.
func (jm *JobManager) UpdateProgress(jobID string, progress JobProgress, message string, workers map[int]string) {
	jm.mu.Lock()
	snapshot, exists := jm.jobs[jobID]
	if !exists {
		jm.mu.Unlock()
		return
	}

	snapshot.Progress = progress
	if message != "" {
		snapshot.Message = message
	}
	if workers != nil {
		snapshot.Workers = workers
	}
	snapshot.UpdatedAt = time.Now()

	lastEmit := jm.lastEmitTime[jobID]
	now := time.Now()
	shouldEmit := now.Sub(lastEmit) >= jm.throttle.MinInterval
	if shouldEmit {
		jm.lastEmitTime[jobID] = now
	}
	jm.mu.Unlock()

	if shouldEmit {
		jm.emitUpdate(jobID)
	}
}

// HaltJob records that the job's performer has halted on a conflict and is
// awaiting a decision. It always emits, bypassing the progress throttle,
// since a halt must be delivered strictly between progress events.
func (jm *JobManager) HaltJob(jobID string, reason ops.HaltReason, sourcePath, destPath, message string) {
	jm.mu.Lock()
	snapshot, exists := jm.jobs[jobID]
	if exists {
		snapshot.State = JobHalted
		snapshot.Halt = &HaltInfo{
			Reason:       reason.String(),
			SourcePath:   sourcePath,
			DestPath:     destPath,
			ErrorMessage: message,
		}
		snapshot.UpdatedAt = time.Now()
	}
	jm.mu.Unlock()

	if exists {
		jm.emitUpdate(jobID)
	}
}

// ResolveHalt delivers a decision to a halted job's performer via the
// controls registered by AttachControls.
func (jm *JobManager) ResolveHalt(jobID string, reason ops.HaltReason, kind ops.ResponseKind, newName string) error {
	jm.mu.Lock()
	c, ok := jm.controls[jobID]
	snapshot, exists := jm.jobs[jobID]
	jm.mu.Unlock()

	if !ok || c.Respond == nil {
		return fmt.Errorf("job has no pending halt: %s", jobID)
	}

	if exists {
		jm.mu.Lock()
		snapshot.State = JobRunning
		snapshot.Halt = nil
		snapshot.UpdatedAt = time.Now()
		jm.mu.Unlock()
		jm.emitUpdate(jobID)
	}

	c.Respond(reason, kind, newName)
	return nil
}

// TogglePauseJob relays a pause/resume request to a running job's performer.
func (jm *JobManager) TogglePauseJob(jobID string) error {
	jm.mu.Lock()
	c, ok := jm.controls[jobID]
	jm.mu.Unlock()

	if !ok || c.TogglePause == nil {
		return fmt.Errorf("job does not support pause: %s", jobID)
	}
	c.TogglePause()
	return nil
}

// CompleteJob marks a job as succeeded.
func (jm *JobManager) CompleteJob(jobID string, message string) {
	jm.mu.Lock()
	snapshot, exists := jm.jobs[jobID]
	if exists {
		snapshot.State = JobSucceeded
		if message != "" {
			snapshot.Message = message
		}
		snapshot.Progress.Percent = 100
		snapshot.Halt = nil
		snapshot.UpdatedAt = time.Now()
		if jm.activeJob == jobID {
			jm.activeJob = ""
		}
	}
	jm.mu.Unlock()

	if exists {
		jm.emitUpdate(jobID)
	}
}

// FailJob marks a job as failed.
func (jm *JobManager) FailJob(jobID string, err error, details string) {
	jm.mu.Lock()
	snapshot, exists := jm.jobs[jobID]
	if exists {
		snapshot.State = JobFailed
		snapshot.Error = &JobError{Message: err.Error(), Details: details}
		snapshot.Halt = nil
		snapshot.UpdatedAt = time.Now()
		if jm.activeJob == jobID {
			jm.activeJob = ""
		}
	}
	jm.mu.Unlock()

	if exists {
		jm.emitUpdate(jobID)
	}
}

// CancelJob cancels a running job. Cancellation is cooperative: it cancels
// the job's context, which the OperationPerformer observes at its next
// chunk boundary or suspension point.
func (jm *JobManager) CancelJob(jobID string) error {
	jm.mu.Lock()
	cancel, cancelExists := jm.cancels[jobID]
	snapshot, snapshotExists := jm.jobs[jobID]
	jm.mu.Unlock()

	if !cancelExists {
		return fmt.Errorf("job not found or not cancellable: %s", jobID)
	}

	cancel()

	if snapshotExists {
		jm.mu.Lock()
		snapshot.State = JobCanceling
		snapshot.Message = "cancellation requested"
		snapshot.UpdatedAt = time.Now()
		jm.mu.Unlock()
		jm.emitUpdate(jobID)
	}

	return nil
}

// CancelActiveJob cancels the currently active job, if any.
func (jm *JobManager) CancelActiveJob() error {
	jm.mu.Lock()
	active := jm.activeJob
	jm.mu.Unlock()
	if active == "" {
		return fmt.Errorf("no active job to cancel")
	}
	return jm.CancelJob(active)
}

// FinishCanceled marks a job that was cooperatively cancelled as canceled,
// once the OperationPerformer has actually unwound and stopped. This is
// separate from CancelJob, which only requests cancellation.
func (jm *JobManager) FinishCanceled(jobID string, message string) {
	jm.mu.Lock()
	snapshot, exists := jm.jobs[jobID]
	if exists {
		snapshot.State = JobCanceled
		if message != "" {
			snapshot.Message = message
		}
		snapshot.Halt = nil
		snapshot.UpdatedAt = time.Now()
		if jm.activeJob == jobID {
			jm.activeJob = ""
		}
	}
	jm.mu.Unlock()

	if exists {
		jm.emitUpdate(jobID)
	}
}

// GetJob returns a copy of a specific job's snapshot.
func (jm *JobManager) GetJob(jobID string) (*JobSnapshot, error) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	snapshot, exists := jm.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	copySnapshot := *snapshot
	return &copySnapshot, nil
}

// GetActiveJob returns a copy of the currently active job's snapshot, or nil.
func (jm *JobManager) GetActiveJob() *JobSnapshot {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	if jm.activeJob == "" {
		return nil
	}
	snapshot, exists := jm.jobs[jm.activeJob]
	if !exists {
		return nil
	}
	copySnapshot := *snapshot
	return &copySnapshot
}

// ListJobs returns all jobs, sorted by creation time (newest first).
func (jm *JobManager) ListJobs() []*JobSnapshot {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	list := make([]*JobSnapshot, 0, len(jm.jobs))
	for _, j := range jm.jobs {
		snap := *j
		list = append(list, &snap)
	}

	for i := 0; i < len(list)-1; i++ {
		for j := i + 1; j < len(list); j++ {
			if list[j].CreatedAt.After(list[i].CreatedAt) {
				list[i], list[j] = list[j], list[i]
			}
		}
	}

	return list
}

// EmitLogLine emits a log line event for a specific job.
func (jm *JobManager) EmitLogLine(jobID string, logLine string) {
	jm.mu.Lock()
	snapshot, exists := jm.jobs[jobID]
	if !exists {
		jm.mu.Unlock()
		return
	}

	jm.seqCounter++
	snapshot.Seq = jm.seqCounter

	event := JobUpdateEvent{
		JobID:    snapshot.JobID,
		Seq:      snapshot.Seq,
		Type:     snapshot.Type,
		State:    snapshot.State,
		Progress: snapshot.Progress,
		Message:  snapshot.Message,
		LogLine:  logLine,
		Workers:  snapshot.Workers,
		Halt:     snapshot.Halt,
		Error:    snapshot.Error,
		Artifact: snapshot.Artifact,
	}

	emitter := jm.emitter
	jm.mu.Unlock()

	if emitter != nil {
		emitter.EmitJobUpdate(event)
	}
}
