package compute

import (
	"context"
	"time"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/zerr"
)

// HotComputation is a job that the warmer keeps re-scheduling so its result stays cached.
type HotComputation struct {
	Kind     string
	TenantID string
	EntityID string
	Params   map[string]any
	Priority int
	Every    time.Duration
}

type hotEntry struct {
	HotComputation
	lastScheduled time.Time
	lastJob       string
}

// RegisterHot adds a hot computation. A zero Every uses DefaultWarmInterval.
func (e *Engine) RegisterHot(h HotComputation) error {
	e.jobMu.Lock()
	_, known := e.handlers[h.Kind]
	e.jobMu.Unlock()
	if !known {
		return zerr.With(domain.ErrUnknownJobKind, "kind", h.Kind)
	}
	if h.Every <= 0 {
		h.Every = DefaultWarmInterval
	}

	e.warmMu.Lock()
	defer e.warmMu.Unlock()
	e.hot = append(e.hot, &hotEntry{HotComputation: h})
	return nil
}

// Warm schedules every hot computation whose interval has elapsed and whose previous job is no
// longer pending or running. It returns how many jobs were scheduled.
func (e *Engine) Warm() int {
	now := time.Now()

	e.warmMu.Lock()
	defer e.warmMu.Unlock()

	scheduled := 0
	for _, h := range e.hot {
		if h.lastJob != "" && e.live(h.lastJob) {
			continue
		}
		if !h.lastScheduled.IsZero() && now.Sub(h.lastScheduled) < h.Every {
			continue
		}
		id, err := e.ScheduleBackground(h.Kind, h.TenantID, h.EntityID, h.Params, h.Priority)
		if err != nil {
			e.logger.Error(zerr.With(zerr.Wrap(err, "failed to schedule hot computation"), "kind", h.Kind))
			continue
		}
		h.lastJob = id
		h.lastScheduled = now
		scheduled++
	}
	return scheduled
}

// RunWarmer calls Warm immediately and then every tick until ctx is done.
func (e *Engine) RunWarmer(ctx context.Context, tick time.Duration) error {
	if tick <= 0 {
		tick = e.cfg.TickInterval
	}

	e.Warm()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Warm()
		}
	}
}
