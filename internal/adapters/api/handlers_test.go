package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"module/internal/core"
)

func newTestServer() *Server {
	return NewServer(0, zerolog.Nop(), core.NewJobManager(nil))
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer()
	rec := doRequest(t, s, http.MethodGet, "/api/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
}

func TestHandleJobsEmpty(t *testing.T) {
	s := newTestServer()
	rec := doRequest(t, s, http.MethodGet, "/api/jobs", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
}

func TestHandleActiveJobNoneActive(t *testing.T) {
	s := newTestServer()
	rec := doRequest(t, s, http.MethodGet, "/api/jobs/active", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleGetJobNotFound(t *testing.T) {
	s := newTestServer()
	rec := doRequest(t, s, http.MethodGet, "/api/jobs/does-not-exist", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleStartJobRejectsMissingFields(t *testing.T) {
	s := newTestServer()
	rec := doRequest(t, s, http.MethodPost, "/api/jobs", `{"sourcePaths":[],"destPath":""}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleStartJobUsesStartJobFunc(t *testing.T) {
	var gotReq StartCopyRequest
	s := NewServer(0, zerolog.Nop(), core.NewJobManager(nil), WithStartJobFunc(func(ctx context.Context, req StartCopyRequest) (string, error) {
		gotReq = req
		return "fake-job-id", nil
	}))

	rec := doRequest(t, s, http.MethodPost, "/api/jobs", `{"sourcePaths":["/a"],"destPath":"/b","kind":"copy"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotReq.DestPath != "/b" {
		t.Errorf("expected startJobFunc to receive destPath /b, got %q", gotReq.DestPath)
	}
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["jobId"] != "fake-job-id" {
		t.Errorf("expected jobId fake-job-id, got %v", data["jobId"])
	}
}

func TestHandleDecisionRejectsUnknownReason(t *testing.T) {
	s := newTestServer()
	jobID, _, _ := s.jobManager.StartJob(context.Background(), "test", "starting", nil)

	rec := doRequest(t, s, http.MethodPost, "/api/jobs/"+jobID+"/decision", `{"reason":"nope","response":"skip"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleCancelJobUnknownID(t *testing.T) {
	s := newTestServer()
	rec := doRequest(t, s, http.MethodPost, "/api/jobs/does-not-exist/cancel", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandlePrereqsNotConfigured(t *testing.T) {
	s := newTestServer()
	rec := doRequest(t, s, http.MethodGet, "/api/prereqs?destPath=/tmp", "")

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}
