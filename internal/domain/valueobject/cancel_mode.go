package valueobject

import "fmt"

// CancelMode selects how an active job is interrupted.
type CancelMode string

const (
	// CancelModePause leaves the job in paused status; completed entity
	// types keep their counts and no further entity types are processed.
	CancelModePause CancelMode = "pause"
	// CancelModeStop moves the job to the terminal failed status.
	CancelModeStop CancelMode = "stop"
)

// NewCancelMode creates a CancelMode with validation.
func NewCancelMode(mode string) (CancelMode, error) {
	m := CancelMode(mode)
	if m != CancelModePause && m != CancelModeStop {
		return "", fmt.Errorf("invalid cancel mode: %s", mode)
	}
	return m, nil
}

// String returns the string representation of the mode.
func (m CancelMode) String() string {
	return string(m)
}

// TargetStatus returns the job status a cancellation in this mode persists.
func (m CancelMode) TargetStatus() JobStatus {
	if m == CancelModePause {
		return JobStatusPaused
	}
	return JobStatusFailed
}
