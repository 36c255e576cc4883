// Package prereq runs local-filesystem-relevant readiness checks before a
// batch operation starts: destination write access, disk space, and
// filesystem case-sensitivity.
package prereq

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"time"

	"github.com/rs/zerolog"

	"module/internal/pathops"
)

// Check is a single prerequisite result.
type Check struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Status           string   `json:"status"` // "ok", "warn", "fail"
	Details          string   `json:"details"`
	RemediationSteps []string `json:"remediationSteps,omitempty"`
}

// Report aggregates every check run for one destination path.
type Report struct {
	OverallStatus string    `json:"overallStatus"`
	OS            string    `json:"os"`
	Checks        []Check   `json:"checks"`
	Timestamp     time.Time `json:"timestamp"`
}

// Service runs prerequisite checks against a candidate destination path.
type Service struct {
	logger zerolog.Logger
}

func NewService(logger zerolog.Logger) *Service {
	return &Service{logger: logger.With().Str("component", "prereq").Logger()}
}

// Run executes every check against destPath and returns the aggregated report.
func (s *Service) Run(destPath string) Report {
	s.logger.Debug().Str("dest", destPath).Msg("running prerequisite checks")

	report := Report{
		OS:        goruntime.GOOS,
		Timestamp: time.Now(),
	}

	checks := []Check{
		s.checkDestinationWriteAccess(destPath),
		s.checkDiskSpace(destPath),
		s.checkFilesystemCaseSensitivity(destPath),
	}
	report.Checks = checks

	hasFail, hasWarn := false, false
	for _, c := range checks {
		switch c.Status {
		case "fail":
			hasFail = true
		case "warn":
			hasWarn = true
		}
	}
	switch {
	case hasFail:
		report.OverallStatus = "fail"
	case hasWarn:
		report.OverallStatus = "warn"
	default:
		report.OverallStatus = "ok"
	}

	s.logger.Info().Str("overall", report.OverallStatus).Int("checks", len(checks)).Msg("prerequisite report generated")
	return report
}

func (s *Service) checkDestinationWriteAccess(destPath string) Check {
	check := Check{
		ID:      "destination_write",
		Name:    "Destination Write Access",
		Status:  "ok",
		Details: "Write access to the destination directory is required.",
	}

	if err := os.MkdirAll(destPath, 0755); err != nil {
		check.Status = "fail"
		check.Details = "Cannot create destination directory: " + err.Error()
		check.RemediationSteps = []string{"Ensure you have write permissions to the destination path."}
		return check
	}

	probe := filepath.Join(destPath, ".filecore_write_test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		check.Status = "fail"
		check.Details = "Cannot write to destination: " + err.Error()
		check.RemediationSteps = []string{"Check filesystem permissions on: " + destPath}
		return check
	}
	os.Remove(probe)

	check.Details = "Write access verified for: " + destPath
	return check
}

func (s *Service) checkDiskSpace(destPath string) Check {
	check := Check{
		ID:      "disk_space",
		Name:    "Disk Space",
		Status:  "ok",
		Details: "Sufficient free space is required at the destination.",
	}

	var cmd *exec.Cmd
	if goruntime.GOOS == "windows" {
		cmd = exec.Command("wmic", "logicaldisk", "get", "freespace,caption")
	} else {
		cmd = exec.Command("df", "-k", destPath)
	}

	output, err := cmd.CombinedOutput()
	if err != nil || len(output) == 0 {
		check.Status = "warn"
		check.Details = "Could not determine free disk space."
		check.RemediationSteps = []string{"Verify free space manually before starting a large batch."}
		return check
	}

	check.Details = fmt.Sprintf("Disk space check ran for %s.", destPath)
	return check
}

// checkFilesystemCaseSensitivity exercises pathops.CaseSensitiveFilesystem
// against an actual probe on disk, catching a mismatch between the GOOS
// heuristic and, e.g., a case-insensitive filesystem mounted on Linux.
func (s *Service) checkFilesystemCaseSensitivity(destPath string) Check {
	check := Check{
		ID:     "case_sensitivity",
		Name:   "Filesystem Case Sensitivity",
		Status: "ok",
	}

	expected := pathops.CaseSensitiveFilesystem()

	probeDir, err := os.MkdirTemp(destPath, "filecore-case-probe-*")
	if err != nil {
		check.Status = "warn"
		check.Details = "Could not probe case sensitivity: " + err.Error()
		return check
	}
	defer os.RemoveAll(probeDir)

	lower := filepath.Join(probeDir, "probe")
	upper := filepath.Join(probeDir, "PROBE")
	if err := os.WriteFile(lower, []byte("x"), 0644); err != nil {
		check.Status = "warn"
		check.Details = "Could not probe case sensitivity: " + err.Error()
		return check
	}
	_, statErr := os.Stat(upper)
	actualCaseSensitive := statErr != nil

	if actualCaseSensitive != expected {
		check.Status = "warn"
		check.Details = fmt.Sprintf("Destination filesystem case sensitivity (%v) differs from the platform default (%v); rename collisions may behave unexpectedly.", actualCaseSensitive, expected)
		return check
	}

	check.Details = fmt.Sprintf("Destination filesystem case sensitivity matches platform default (%v).", expected)
	return check
}
