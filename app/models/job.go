package models

import "time"

// Job status constants
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// Job is an asynchronous DedupeBatch run.
type Job struct {
	ID        string       `json:"id"`
	Status    string       `json:"status"`
	Records   []Record     `json:"records,omitempty"`
	Total     int          `json:"total"`
	Result    *BatchResult `json:"result,omitempty"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewJob creates a pending job over records.
func NewJob(id string, records []Record) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		Status:    JobStatusPending,
		Records:   records,
		Total:     len(records),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsFinished reports whether the job reached a terminal state.
func (j *Job) IsFinished() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}

// Summary is the job without its input records.
func (j *Job) Summary() Job {
	s := *j
	s.Records = nil
	return s
}
