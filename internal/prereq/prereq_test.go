package prereq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func newTestService() *Service {
	return NewService(zerolog.Nop())
}

func TestRunReportsOKForWritableDestination(t *testing.T) {
	dest := t.TempDir()
	report := newTestService().Run(dest)

	if report.OS == "" {
		t.Error("expected OS to be set")
	}
	if len(report.Checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(report.Checks))
	}
	if report.OverallStatus == "fail" {
		t.Errorf("expected a writable temp dir not to fail, got overall status %q", report.OverallStatus)
	}
}

func TestCheckDestinationWriteAccessCreatesMissingDir(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "nested", "dir")
	check := newTestService().checkDestinationWriteAccess(dest)

	if check.Status != "ok" {
		t.Errorf("expected ok status, got %q: %s", check.Status, check.Details)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("expected destination to be created, got %v", err)
	}
}

func TestCheckDestinationWriteAccessFailsWhenUnwritable(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root can write regardless of permission bits")
	}
	parent := t.TempDir()
	if err := os.Chmod(parent, 0555); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}
	defer os.Chmod(parent, 0755)

	dest := filepath.Join(parent, "child")
	check := newTestService().checkDestinationWriteAccess(dest)

	if check.Status != "fail" {
		t.Errorf("expected fail status for unwritable parent, got %q", check.Status)
	}
}

func TestCheckFilesystemCaseSensitivityMatchesExpectation(t *testing.T) {
	dest := t.TempDir()
	check := newTestService().checkFilesystemCaseSensitivity(dest)

	if check.Status != "ok" && check.Status != "warn" {
		t.Errorf("expected ok or warn status, got %q", check.Status)
	}
}
