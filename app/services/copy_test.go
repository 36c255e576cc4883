package services

import (
	"context"
	"testing"

	"module/internal/core"
	"module/internal/ops"
)

func TestWailsJobEmitterNoContextDoesNotPanic(t *testing.T) {
	e := &WailsJobEmitter{}
	e.EmitJobUpdate(core.JobUpdateEvent{JobID: "abc"})
}

func TestCopyServiceRespondRejectsUnknownReasonAndResponse(t *testing.T) {
	jm := core.NewJobManager(nil)
	s := NewCopyService(context.Background(), nil, jm)
	jobID, _, _ := jm.StartJob(context.Background(), "test", "starting", nil)

	if err := s.Respond(jobID, "not_a_reason", "skip", ""); err == nil {
		t.Error("expected error for unrecognized halt reason")
	}
	if err := s.Respond(jobID, "target_already_exists", "not_a_response", ""); err == nil {
		t.Error("expected error for unrecognized response kind")
	}
}

func TestWailsObserverFinishedRouting(t *testing.T) {
	cases := []struct {
		summary string
		want    core.JobState
	}{
		{"completed 2 of 2 files", core.JobSucceeded},
		{"cancelled after 1 of 2 files", core.JobCanceled},
		{"cancelled: context canceled", core.JobFailed},
		{"enumeration failed: permission denied", core.JobFailed},
	}

	for _, c := range cases {
		jm := core.NewJobManager(nil)
		jobID, _, _ := jm.StartJob(context.Background(), "test", "starting", nil)
		o := &wailsObserver{jobManager: jm, jobID: jobID}

		o.OnProcessFinished(c.summary)

		snapshot, _ := jm.GetJob(jobID)
		if snapshot.State != c.want {
			t.Errorf("summary %q: expected state %s, got %s", c.summary, c.want, snapshot.State)
		}
	}
}

func TestWailsObserverProgressAndHaltForwarding(t *testing.T) {
	jm := core.NewJobManager(nil)
	jobID, _, _ := jm.StartJob(context.Background(), "test", "starting", nil)
	o := &wailsObserver{jobManager: jm, jobID: jobID}

	o.OnProgressChanged(42.5, 1, 4, 100, 1024, 30)
	snapshot, _ := jm.GetJob(jobID)
	if snapshot.Progress.Percent != 42.5 {
		t.Errorf("expected progress 42.5, got %f", snapshot.Progress.Percent)
	}

	o.OnProcessHalted(ops.ReasonTargetAlreadyExists, "/a", "/b", "exists")
	snapshot, _ = jm.GetJob(jobID)
	if snapshot.State != core.JobHalted {
		t.Errorf("expected state halted, got %s", snapshot.State)
	}
}
