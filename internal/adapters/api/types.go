// Package api provides an HTTP API adapter for the file-copy engine.
// This adapter exposes REST endpoints and SSE event streaming for remote
// control of the running job (progress, halt decisions, pause/resume).
package api

import (
	"module/internal/core"
	"module/internal/volumeinfo"
)

// APIResponse wraps all API responses with a consistent structure.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JobListResponse contains a list of jobs.
type JobListResponse struct {
	Jobs      []*core.JobSnapshot `json:"jobs"`
	ActiveJob string              `json:"activeJob,omitempty"`
}

// StartCopyRequest is the request body for POST /api/jobs.
type StartCopyRequest struct {
	SourcePaths []string `json:"sourcePaths"`
	DestPath    string   `json:"destPath"`
	Kind        string   `json:"kind"` // "copy" or "move"
	ChunkSize   int      `json:"chunkSize,omitempty"`
}

// DecisionRequest is the request body for POST /api/jobs/:id/decision.
type DecisionRequest struct {
	Reason   string `json:"reason"`
	Response string `json:"response"`
	NewName  string `json:"newName,omitempty"`
}

// VolumesResponse contains the locally mounted volumes.
type VolumesResponse struct {
	Volumes []volumeinfo.Info `json:"volumes"`
}

// PrereqRequest is the query for GET /api/prereqs.
type PrereqRequest struct {
	DestPath string `query:"destPath"`
}
