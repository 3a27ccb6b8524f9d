package compute

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/zerr"
)

// ScheduleBackground queues a job of kind and returns its id.
// Lower priorities run first and equal priorities run in arrival order.
func (e *Engine) ScheduleBackground(
	kind, tenantID, entityID string,
	params map[string]any,
	priority int,
) (string, error) {
	job := &domain.Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		TenantID:   tenantID,
		EntityID:   entityID,
		Parameters: maps.Clone(params),
		Priority:   priority,
		Status:     domain.JobPending,
		CreatedAt:  time.Now(),
	}

	e.jobMu.Lock()
	if _, ok := e.handlers[kind]; !ok {
		e.jobMu.Unlock()
		return "", zerr.With(domain.ErrUnknownJobKind, "kind", kind)
	}
	e.jobs[job.ID] = job
	e.done[job.ID] = make(chan struct{})
	e.queue.push(job)
	depth := e.queue.len()
	e.jobMu.Unlock()

	e.metrics.JobScheduled(kind)
	e.metrics.QueueDepth(depth)
	e.signal()
	return job.ID, nil
}

// Job returns a snapshot of the job with the given id.
func (e *Engine) Job(id string) (domain.Job, bool) {
	e.jobMu.Lock()
	defer e.jobMu.Unlock()

	j, ok := e.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return j.Clone(), true
}

// Await blocks until the job reaches a terminal state or ctx is done.
func (e *Engine) Await(ctx context.Context, id string) (domain.Job, error) {
	e.jobMu.Lock()
	j, ok := e.jobs[id]
	if !ok {
		e.jobMu.Unlock()
		return domain.Job{}, zerr.With(domain.ErrJobNotFound, "job", id)
	}
	if j.Status.IsTerminal() {
		snapshot := j.Clone()
		e.jobMu.Unlock()
		return snapshot, nil
	}
	done := e.done[id]
	e.jobMu.Unlock()

	select {
	case <-ctx.Done():
		return domain.Job{}, ctx.Err()
	case <-done:
	}

	snapshot, ok := e.Job(id)
	if !ok {
		return domain.Job{}, zerr.With(domain.ErrJobNotFound, "job", id)
	}
	return snapshot, nil
}

// QueueLen returns the number of pending jobs.
func (e *Engine) QueueLen() int {
	e.jobMu.Lock()
	defer e.jobMu.Unlock()
	return e.queue.len()
}

// live reports whether the job exists and has not finished.
func (e *Engine) live(id string) bool {
	e.jobMu.Lock()
	defer e.jobMu.Unlock()

	j, ok := e.jobs[id]
	return ok && !j.Status.IsTerminal()
}

func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}
