package domain

import "time"

// JobStatus represents the lifecycle state of a background job.
type JobStatus string

const (
	// JobPending indicates the job is queued and waiting for a free executor.
	JobPending JobStatus = "Pending"
	// JobRunning indicates the job handler is currently executing.
	JobRunning JobStatus = "Running"
	// JobCompleted indicates the job handler returned a result.
	JobCompleted JobStatus = "Completed"
	// JobFailed indicates the job handler returned an error or panicked.
	JobFailed JobStatus = "Failed"
)

// DefaultPriority is the priority used when a caller does not pick one.
const DefaultPriority = 5

// IsTerminal checks if a status is a terminal state (Completed, Failed).
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobCompleted, JobFailed:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a job may move from s to next.
// Terminal states are never left.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobPending:
		return next == JobRunning
	case JobRunning:
		return next == JobCompleted || next == JobFailed
	default:
		return false
	}
}

// Job is a unit of background (pre-)computation work.
// Lower Priority values are more urgent.
type Job struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	TenantID    string         `json:"tenant_id,omitzero"`
	EntityID    string         `json:"entity_id,omitzero"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Priority    int            `json:"priority"`
	Status      JobStatus      `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Result      any            `json:"result,omitempty"`
	Error       string         `json:"error,omitzero"`
}

// Clone returns a copy of the job that shares no mutable fields with j.
// Result is copied by reference; handlers are expected to return values they no longer mutate.
func (j *Job) Clone() Job {
	c := *j
	if j.Parameters != nil {
		c.Parameters = make(map[string]any, len(j.Parameters))
		for k, v := range j.Parameters {
			c.Parameters[k] = v
		}
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return c
}

// Duration returns how long the job ran, or zero if it has not finished.
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}
