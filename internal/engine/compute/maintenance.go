package compute

import (
	"context"
	"strconv"
	"time"
)

// MaintenanceReport counts what a maintenance pass dropped.
type MaintenanceReport struct {
	StatesDropped int
	StatesKept    int
	JobsDropped   int
}

// Maintenance drops computation states not touched within the state horizon and finished jobs
// older than the job retention.
func (e *Engine) Maintenance() MaintenanceReport {
	now := time.Now()
	var report MaintenanceReport

	e.stateMu.Lock()
	for key, s := range e.states {
		if now.Sub(s.TouchedAt) > e.cfg.StateHorizon {
			delete(e.states, key)
			report.StatesDropped++
		}
	}
	report.StatesKept = len(e.states)
	e.stateMu.Unlock()

	e.jobMu.Lock()
	for id, j := range e.jobs {
		if j.Status.IsTerminal() && j.CompletedAt != nil && now.Sub(*j.CompletedAt) > e.cfg.JobRetention {
			delete(e.jobs, id)
			report.JobsDropped++
		}
	}
	e.jobMu.Unlock()

	return report
}

// RunMaintenance runs Maintenance every interval until ctx is done.
func (e *Engine) RunMaintenance(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			report := e.Maintenance()
			if report.StatesDropped > 0 || report.JobsDropped > 0 {
				e.logger.Info("maintenance dropped " + strconv.Itoa(report.StatesDropped) +
					" computation states and " + strconv.Itoa(report.JobsDropped) + " finished jobs, " +
					strconv.Itoa(report.StatesKept) + " states kept")
			}
		}
	}
}
