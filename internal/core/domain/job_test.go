package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/hoard/internal/core/domain"
)

func TestJobStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		name       string
		status     domain.JobStatus
		isTerminal bool
	}{
		{"Pending", domain.JobPending, false},
		{"Running", domain.JobRunning, false},
		{"Completed", domain.JobCompleted, true},
		{"Failed", domain.JobFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isTerminal, tt.status.IsTerminal())
		})
	}
}

func TestJobStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to domain.JobStatus
		allowed  bool
	}{
		{domain.JobPending, domain.JobRunning, true},
		{domain.JobPending, domain.JobCompleted, false},
		{domain.JobRunning, domain.JobCompleted, true},
		{domain.JobRunning, domain.JobFailed, true},
		{domain.JobRunning, domain.JobPending, false},
		{domain.JobCompleted, domain.JobRunning, false},
		{domain.JobFailed, domain.JobPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestJob_Clone(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	job := domain.Job{
		ID:         "j1",
		Kind:       "totals",
		Parameters: map[string]any{"group_by": "status"},
		StartedAt:  &started,
	}

	clone := job.Clone()
	clone.Parameters["group_by"] = "owner"
	*clone.StartedAt = started.Add(time.Hour)

	assert.Equal(t, "status", job.Parameters["group_by"])
	assert.Equal(t, started, *job.StartedAt)
}

func TestJob_Duration(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	completed := started.Add(1500 * time.Millisecond)

	job := domain.Job{StartedAt: &started}
	assert.Zero(t, job.Duration())

	job.CompletedAt = &completed
	assert.Equal(t, 1500*time.Millisecond, job.Duration())
}
