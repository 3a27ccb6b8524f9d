package compute

import (
	"context"
	"fmt"
	"time"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/core/ports"
	"go.trai.ch/zerr"
)

type jobResult struct {
	id     string
	result any
	err    error
}

// Run drains the job queue until ctx is done, running at most MaxConcurrency handlers at once.
// It wakes on every tick and whenever a job is scheduled. On shutdown it stops dispatching and
// waits for running handlers to finish.
func (e *Engine) Run(ctx context.Context) error {
	e.jobMu.Lock()
	if e.dispatching {
		e.jobMu.Unlock()
		return domain.ErrEngineRunning
	}
	e.dispatching = true
	e.jobMu.Unlock()

	defer func() {
		e.jobMu.Lock()
		e.dispatching = false
		e.jobMu.Unlock()
	}()

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	results := make(chan jobResult, e.cfg.MaxConcurrency)
	handlerCtx := context.WithoutCancel(ctx)
	running := 0

	for {
		if ctx.Err() == nil {
			running += e.dispatch(handlerCtx, results, e.cfg.MaxConcurrency-running)
		}

		select {
		case <-ctx.Done():
			for ; running > 0; running-- {
				e.finish(<-results)
			}
			return nil
		case res := <-results:
			running--
			e.finish(res)
		case <-ticker.C:
		case <-e.wake:
		}
	}
}

// dispatch starts up to free queued jobs and returns how many it started.
func (e *Engine) dispatch(ctx context.Context, results chan<- jobResult, free int) int {
	started := 0
	for started < free {
		e.jobMu.Lock()
		j, ok := e.queue.pop()
		if !ok {
			e.jobMu.Unlock()
			break
		}
		if !j.Status.CanTransition(domain.JobRunning) {
			e.jobMu.Unlock()
			e.logger.Warn("skipping queued job " + j.ID + " in status " + string(j.Status))
			continue
		}
		now := time.Now()
		j.Status = domain.JobRunning
		j.StartedAt = &now
		snapshot := j.Clone()
		handler := e.handlers[j.Kind]
		depth := e.queue.len()
		e.jobMu.Unlock()

		e.metrics.QueueDepth(depth)
		started++
		go func() {
			results <- e.execute(ctx, handler, snapshot)
		}()
	}
	return started
}

func (e *Engine) execute(ctx context.Context, handler Handler, job domain.Job) (res jobResult) {
	res.id = job.ID

	ctx, span := e.tracer.Start(ctx, "job."+job.Kind,
		ports.WithAttribute("job.id", job.ID),
		ports.WithAttribute("job.tenant_id", job.TenantID),
		ports.WithAttribute("job.entity_id", job.EntityID),
		ports.WithAttribute("job.priority", job.Priority),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			res.result = nil
			res.err = zerr.With(domain.ErrJobPanicked, "panic", fmt.Sprint(r))
		}
		if res.err != nil {
			span.RecordError(res.err)
		}
	}()

	res.result, res.err = handler(ctx, job)
	return res
}

// finish records the outcome of a job and releases its waiters.
func (e *Engine) finish(res jobResult) {
	e.jobMu.Lock()
	j, ok := e.jobs[res.id]
	if !ok {
		e.jobMu.Unlock()
		return
	}
	next := domain.JobCompleted
	if res.err != nil {
		next = domain.JobFailed
	}
	if !j.Status.CanTransition(next) {
		e.jobMu.Unlock()
		e.logger.Warn("ignoring result of job " + res.id + " in status " + string(j.Status))
		return
	}
	now := time.Now()
	j.CompletedAt = &now
	j.Status = next
	if res.err != nil {
		j.Error = res.err.Error()
	} else {
		j.Result = res.result
	}
	kind, status, took := j.Kind, j.Status, j.Duration()
	done := e.done[res.id]
	delete(e.done, res.id)
	e.jobMu.Unlock()

	if done != nil {
		close(done)
	}
	e.metrics.JobFinished(kind, status, took)
	if res.err != nil {
		e.logger.Error(zerr.With(zerr.With(zerr.Wrap(res.err, "background job failed"), "job", res.id), "kind", kind))
	}
}
