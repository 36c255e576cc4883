package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"module/internal/config"
	"module/internal/core"
	"module/internal/fsobject"
	"module/internal/ops"
	"module/internal/volumeinfo"
)

// WailsJobEmitter forwards core.JobUpdateEvent to the Wails frontend via
// the runtime event bus, the desktop-shell analog of the HTTP adapter's
// SSE broadcast.
type WailsJobEmitter struct {
	ctx context.Context
}

// SetContext binds the Wails runtime context once it is available; events
// emitted before this call are silently dropped.
func (e *WailsJobEmitter) SetContext(ctx context.Context) {
	e.ctx = ctx
}

func (e *WailsJobEmitter) EmitJobUpdate(event core.JobUpdateEvent) {
	if e.ctx == nil {
		return
	}
	runtime.EventsEmit(e.ctx, "job:update", event)
	if event.LogLine != "" {
		runtime.EventsEmit(e.ctx, "job:log", map[string]interface{}{
			"jobId":   event.JobID,
			"logLine": event.LogLine,
			"seq":     event.Seq,
		})
	}
}

// CopyService binds copy/move actions and the volume picker to the Wails
// frontend, driving the same core.JobManager/ops.Performer pair the HTTP
// adapter drives.
type CopyService struct {
	ctx        context.Context
	logger     *log.Logger
	jobManager *core.JobManager
	config     *config.Config
	configPath string
}

// NewCopyService creates a new CopyService.
func NewCopyService(ctx context.Context, logger *log.Logger, jobManager *core.JobManager) *CopyService {
	return &CopyService{ctx: ctx, logger: logger, jobManager: jobManager}
}

// SetContext sets the Wails runtime context for the service.
func (s *CopyService) SetContext(ctx context.Context) {
	s.ctx = ctx
}

// SetConfig wires the loaded configuration and its file path in for
// destination-path persistence across sessions.
func (s *CopyService) SetConfig(cfg *config.Config, configPath string) {
	s.config = cfg
	s.configPath = configPath
}

// ChooseDestination opens a native directory picker and remembers the pick.
func (s *CopyService) ChooseDestination() (string, error) {
	path, err := runtime.OpenDirectoryDialog(s.ctx, runtime.OpenDialogOptions{
		Title: "Choose Destination",
	})
	if err != nil || path == "" {
		return path, err
	}
	if s.config != nil {
		s.config.LastDestPath = path
		_ = s.config.Save(s.configPath)
	}
	return path, nil
}

// ChooseSources opens a native multi-file picker for the source pane.
func (s *CopyService) ChooseSources() ([]string, error) {
	return runtime.OpenMultipleFilesDialog(s.ctx, runtime.OpenDialogOptions{
		Title: "Choose Files or Folders",
	})
}

// ListVolumes returns the locally mounted volumes for the volume picker.
func (s *CopyService) ListVolumes() ([]volumeinfo.Info, error) {
	return volumeinfo.List()
}

// StartCopy starts a copy operation for the given sources.
func (s *CopyService) StartCopy(sourcePaths []string, destPath string) (string, error) {
	return s.startJob(ops.Copy, "copy", sourcePaths, destPath)
}

// StartMove starts a move operation for the given sources.
func (s *CopyService) StartMove(sourcePaths []string, destPath string) (string, error) {
	return s.startJob(ops.Move, "move", sourcePaths, destPath)
}

func (s *CopyService) startJob(kind ops.Kind, jobType string, sourcePaths []string, destPath string) (string, error) {
	if len(sourcePaths) == 0 {
		return "", fmt.Errorf("no source paths given")
	}
	if destPath == "" {
		if s.config != nil {
			destPath = s.config.LastDestPath
		}
		if destPath == "" {
			return "", fmt.Errorf("destination not selected")
		}
	}

	sources := make([]*fsobject.FsObject, 0, len(sourcePaths))
	for _, p := range sourcePaths {
		sources = append(sources, fsobject.New(p))
	}

	jobID, jobCtx, err := s.jobManager.StartJob(context.Background(), jobType, "starting "+jobType, map[string]string{
		"destPath": destPath,
	})
	if err != nil {
		return "", err
	}

	observer := &wailsObserver{jobManager: s.jobManager, jobID: jobID}
	performer := ops.NewPerformer(kind, sources, destPath, observer)

	s.jobManager.AttachControls(jobID, core.JobControls{
		TogglePause: performer.TogglePause,
		Respond:     performer.Respond,
	})

	s.logger.Printf("[CopyService] StartJob: id=%s kind=%s sources=%v dest=%s", jobID, jobType, sourcePaths, destPath)
	performer.Start(jobCtx)
	return jobID, nil
}

// CancelJob cancels a running job by ID.
func (s *CopyService) CancelJob(jobID string) error {
	return s.jobManager.CancelJob(jobID)
}

// TogglePause pauses or resumes a running job.
func (s *CopyService) TogglePause(jobID string) error {
	return s.jobManager.TogglePauseJob(jobID)
}

// Respond answers a halted job's conflict prompt.
func (s *CopyService) Respond(jobID, reason, response, newName string) error {
	r, ok := ops.ParseHaltReason(reason)
	if !ok {
		return fmt.Errorf("unrecognized halt reason: %s", reason)
	}
	k, ok := ops.ParseResponseKind(response)
	if !ok {
		return fmt.Errorf("unrecognized response kind: %s", response)
	}
	return s.jobManager.ResolveHalt(jobID, r, k, newName)
}

// wailsObserver adapts ops.Observer callbacks onto a core.JobManager,
// identical in shape to the HTTP adapter's jobObserver.
type wailsObserver struct {
	jobManager *core.JobManager
	jobID      string
}

func (o *wailsObserver) OnProgressChanged(totalPercent float64, filesDone, filesTotal int, filePercent, bytesPerSec, secondsRemaining float64) {
	o.jobManager.UpdateProgress(o.jobID, core.JobProgress{
		Phase:      "copying",
		Current:    int64(filesDone),
		Total:      int64(filesTotal),
		Percent:    totalPercent,
		Rate:       bytesPerSec,
		ETASeconds: secondsRemaining,
	}, "", nil)
}

func (o *wailsObserver) OnCurrentFileChanged(path string) {
	o.jobManager.EmitLogLine(o.jobID, "copying "+path)
}

func (o *wailsObserver) OnProcessHalted(reason ops.HaltReason, sourcePath, destPath, errorMessage string) {
	o.jobManager.HaltJob(o.jobID, reason, sourcePath, destPath, errorMessage)
}

func (o *wailsObserver) OnProcessFinished(summary string) {
	switch {
	case strings.Contains(summary, "enumeration failed") || strings.Contains(summary, "cancelled:"):
		o.jobManager.FailJob(o.jobID, fmt.Errorf("%s", summary), "")
	case strings.HasPrefix(summary, "cancelled"):
		o.jobManager.FinishCanceled(o.jobID, summary)
	default:
		o.jobManager.CompleteJob(o.jobID, summary)
	}
}
