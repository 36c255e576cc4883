package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"module/internal/core"
	"module/internal/fsobject"
	"module/internal/ops"
	"module/internal/volumeinfo"
)

func (s *Server) handleHealth(c echo.Context) error {
	return writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleJobs(c echo.Context) error {
	jobs := s.jobManager.ListJobs()
	active := ""
	if a := s.jobManager.GetActiveJob(); a != nil {
		active = a.JobID
	}
	return writeJSON(c, http.StatusOK, JobListResponse{Jobs: jobs, ActiveJob: active})
}

func (s *Server) handleActiveJob(c echo.Context) error {
	job := s.jobManager.GetActiveJob()
	if job == nil {
		return writeError(c, http.StatusNotFound, "no_active_job", "no job is currently active")
	}
	return writeJSON(c, http.StatusOK, job)
}

func (s *Server) handleGetJob(c echo.Context) error {
	job, err := s.jobManager.GetJob(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusNotFound, "job_not_found", err.Error())
	}
	return writeJSON(c, http.StatusOK, job)
}

func (s *Server) handleCancelJob(c echo.Context) error {
	if err := s.jobManager.CancelJob(c.Param("id")); err != nil {
		return writeError(c, http.StatusBadRequest, "cancel_failed", err.Error())
	}
	return writeJSON(c, http.StatusOK, map[string]string{"status": "canceling"})
}

func (s *Server) handlePauseJob(c echo.Context) error {
	if err := s.jobManager.TogglePauseJob(c.Param("id")); err != nil {
		return writeError(c, http.StatusBadRequest, "pause_failed", err.Error())
	}
	return writeJSON(c, http.StatusOK, map[string]string{"status": "toggled"})
}

func (s *Server) handleDecision(c echo.Context) error {
	var req DecisionRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "bad_request", err.Error())
	}

	reason, ok := ops.ParseHaltReason(req.Reason)
	if !ok {
		return writeError(c, http.StatusBadRequest, "bad_reason", "unrecognized halt reason: "+req.Reason)
	}
	kind, ok := ops.ParseResponseKind(req.Response)
	if !ok {
		return writeError(c, http.StatusBadRequest, "bad_response", "unrecognized response kind: "+req.Response)
	}

	if err := s.jobManager.ResolveHalt(c.Param("id"), reason, kind, req.NewName); err != nil {
		return writeError(c, http.StatusBadRequest, "resolve_failed", err.Error())
	}
	return writeJSON(c, http.StatusOK, map[string]string{"status": "resolved"})
}

func (s *Server) handlePrereqs(c echo.Context) error {
	if s.prereqService == nil {
		return writeError(c, http.StatusNotImplemented, "not_configured", "prereq checks are not configured")
	}
	var req PrereqRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "bad_request", err.Error())
	}
	report := s.prereqService.Run(req.DestPath)
	return writeJSON(c, http.StatusOK, report)
}

func (s *Server) handleVolumes(c echo.Context) error {
	volumes, err := volumeinfo.List()
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "volume_list_failed", err.Error())
	}
	return writeJSON(c, http.StatusOK, VolumesResponse{Volumes: volumes})
}

func (s *Server) handleGetConfig(c echo.Context) error {
	if s.configProvider == nil {
		return writeError(c, http.StatusNotImplemented, "not_configured", "config is not configured")
	}
	return writeJSON(c, http.StatusOK, s.configProvider())
}

func (s *Server) handlePutConfig(c echo.Context) error {
	if s.configUpdater == nil {
		return writeError(c, http.StatusNotImplemented, "not_configured", "config is not configured")
	}
	var body map[string]interface{}
	if err := c.Bind(&body); err != nil {
		return writeError(c, http.StatusBadRequest, "bad_request", err.Error())
	}
	if err := s.configUpdater(body); err != nil {
		return writeError(c, http.StatusBadRequest, "update_failed", err.Error())
	}
	return writeJSON(c, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleStartJob(c echo.Context) error {
	var req StartCopyRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "bad_request", err.Error())
	}
	if len(req.SourcePaths) == 0 || req.DestPath == "" {
		return writeError(c, http.StatusBadRequest, "bad_request", "sourcePaths and destPath are required")
	}

	if s.startJobFunc != nil {
		jobID, err := s.startJobFunc(c.Request().Context(), req)
		if err != nil {
			return writeError(c, http.StatusBadRequest, "start_failed", err.Error())
		}
		return writeJSON(c, http.StatusAccepted, map[string]string{"jobId": jobID})
	}

	jobID, err := s.startPerformerJob(req)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "start_failed", err.Error())
	}
	return writeJSON(c, http.StatusAccepted, map[string]string{"jobId": jobID})
}

// startPerformerJob wires a StartCopyRequest to a running ops.Performer,
// bridging its synchronous halt/pause protocol through core.JobControls so
// the rest of this adapter can drive it asynchronously over HTTP.
func (s *Server) startPerformerJob(req StartCopyRequest) (string, error) {
	kind := ops.Copy
	if req.Kind == "move" {
		kind = ops.Move
	}

	sources := make([]*fsobject.FsObject, 0, len(req.SourcePaths))
	for _, p := range req.SourcePaths {
		sources = append(sources, fsobject.New(p))
	}

	jobID, ctx, err := s.jobManager.StartJob(context.Background(), req.Kind, "starting copy", map[string]string{
		"destPath": req.DestPath,
	})
	if err != nil {
		return "", err
	}

	observer := &jobObserver{jobManager: s.jobManager, jobID: jobID}

	var opts []ops.Option
	if req.ChunkSize > 0 {
		opts = append(opts, ops.WithChunkSize(req.ChunkSize))
	}
	performer := ops.NewPerformer(kind, sources, req.DestPath, observer, opts...)

	s.jobManager.AttachControls(jobID, core.JobControls{
		TogglePause: performer.TogglePause,
		Respond:     performer.Respond,
	})

	performer.Start(ctx)
	return jobID, nil
}

// jobObserver adapts ops.Observer callbacks onto a core.JobManager.
type jobObserver struct {
	jobManager *core.JobManager
	jobID      string
}

func (o *jobObserver) OnProgressChanged(totalPercent float64, filesDone, filesTotal int, filePercent, bytesPerSec, secondsRemaining float64) {
	o.jobManager.UpdateProgress(o.jobID, core.JobProgress{
		Phase:      "copying",
		Current:    int64(filesDone),
		Total:      int64(filesTotal),
		Percent:    totalPercent,
		Rate:       bytesPerSec,
		ETASeconds: secondsRemaining,
	}, "", nil)
}

func (o *jobObserver) OnProcessHalted(reason ops.HaltReason, sourcePath, destPath, errorMessage string) {
	o.jobManager.HaltJob(o.jobID, reason, sourcePath, destPath, errorMessage)
}

func (o *jobObserver) OnCurrentFileChanged(path string) {
	o.jobManager.EmitLogLine(o.jobID, "copying "+path)
}

func (o *jobObserver) OnProcessFinished(summary string) {
	switch {
	case strings.Contains(summary, "enumeration failed") || strings.Contains(summary, "cancelled:"):
		o.jobManager.FailJob(o.jobID, fmt.Errorf("%s", summary), "")
	case strings.HasPrefix(summary, "cancelled"):
		o.jobManager.FinishCanceled(o.jobID, summary)
	default:
		o.jobManager.CompleteJob(o.jobID, summary)
	}
}
