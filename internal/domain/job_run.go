package domain

import (
	"fmt"
	"strings"
	"time"
)

type JobRunStatus string

const (
	JobRunRunning   JobRunStatus = "RUNNING"
	JobRunCompleted JobRunStatus = "COMPLETED"
	JobRunCanceled  JobRunStatus = "CANCELED"
)

func (s JobRunStatus) String() string { return string(s) }

func (s JobRunStatus) IsValid() bool {
	switch s {
	case JobRunRunning, JobRunCompleted, JobRunCanceled:
		return true
	}
	return false
}

func ParseJobRunStatusFromString(s string) (JobRunStatus, error) {
	st := JobRunStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid job run status %q", ErrValidation, s)
	}
	return st, nil
}

// JobRun is the history row of one monitoring tick.
type JobRun struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Status      JobRunStatus
	AlertsTotal int
	Checked     int
	Matched     int
	Notified    int
	SendFailed  int
	Skipped     int
	Errors      int
}
