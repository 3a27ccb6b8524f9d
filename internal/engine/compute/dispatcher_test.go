package compute_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/engine/compute"
	"go.uber.org/mock/gomock"
)

// startDispatcher runs the dispatcher in the background and returns a func that stops it.
func startDispatcher(t *testing.T, e *compute.Engine) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func TestScheduleBackground_UnknownKind(t *testing.T) {
	e, _, _ := newEngine(t, compute.Config{})

	_, err := e.ScheduleBackground("missing", "t1", "e1", nil, domain.DefaultPriority)
	require.ErrorContains(t, err, domain.ErrUnknownJobKind.Error())
	assert.Equal(t, 0, e.QueueLen())
}

func TestScheduleBackground_CreatesPendingJob(t *testing.T) {
	e, _, _ := newEngine(t, compute.Config{})
	e.Register("totals", func(context.Context, domain.Job) (any, error) { return nil, nil })
	params := map[string]any{"group_by": "status"}

	id, err := e.ScheduleBackground("totals", "t1", "e1", params, 2)
	require.NoError(t, err)
	params["group_by"] = "mutated"

	job, ok := e.Job(id)
	require.True(t, ok)
	assert.Equal(t, domain.JobPending, job.Status)
	assert.Equal(t, "totals", job.Kind)
	assert.Equal(t, "t1", job.TenantID)
	assert.Equal(t, "e1", job.EntityID)
	assert.Equal(t, 2, job.Priority)
	assert.Equal(t, "status", job.Parameters["group_by"])
	assert.Nil(t, job.StartedAt)
	assert.Equal(t, 1, e.QueueLen())
	assert.Equal(t, []string{"totals"}, e.Kinds())
}

func TestEngine_DispatchesByPriority(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e, _, _ := newEngine(t, compute.Config{MaxConcurrency: 1})

		var mu sync.Mutex
		var order []int
		e.Register("report", func(_ context.Context, job domain.Job) (any, error) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, job.Priority)
			return nil, nil
		})

		var ids []string
		for _, p := range []int{5, 1, 3} {
			id, err := e.ScheduleBackground("report", "t1", "", nil, p)
			require.NoError(t, err)
			ids = append(ids, id)
		}

		stop := startDispatcher(t, e)
		for _, id := range ids {
			_, err := e.Await(context.Background(), id)
			require.NoError(t, err)
		}
		stop()

		assert.Equal(t, []int{1, 3, 5}, order)
	})
}

func TestEngine_FailingJobDoesNotBlockSiblings(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e, _, logger := newEngine(t, compute.Config{})
		logger.EXPECT().Error(gomock.Any()).Times(1)

		e.Register("totals", func(_ context.Context, job domain.Job) (any, error) {
			if job.Parameters["fail"] == true {
				return nil, errors.New("boom")
			}
			return "ok", nil
		})

		stop := startDispatcher(t, e)

		failing, err := e.ScheduleBackground("totals", "t1", "e1", map[string]any{"fail": true}, domain.DefaultPriority)
		require.NoError(t, err)
		failed, err := e.Await(context.Background(), failing)
		require.NoError(t, err)

		sibling, err := e.ScheduleBackground("totals", "t1", "e2", nil, domain.DefaultPriority)
		require.NoError(t, err)
		completed, err := e.Await(context.Background(), sibling)
		require.NoError(t, err)

		stop()

		assert.Equal(t, domain.JobFailed, failed.Status)
		assert.Equal(t, "boom", failed.Error)
		assert.NotNil(t, failed.CompletedAt)

		assert.Equal(t, domain.JobCompleted, completed.Status)
		assert.Equal(t, "ok", completed.Result)
		assert.Empty(t, completed.Error)
		require.NotNil(t, completed.StartedAt)
		require.NotNil(t, completed.CompletedAt)
	})
}

func TestEngine_HandlerPanicBecomesFailed(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e, _, logger := newEngine(t, compute.Config{})
		logger.EXPECT().Error(gomock.Any()).Times(1)
		e.Register("explode", func(context.Context, domain.Job) (any, error) {
			panic("kaboom")
		})

		stop := startDispatcher(t, e)
		id, err := e.ScheduleBackground("explode", "", "", nil, domain.DefaultPriority)
		require.NoError(t, err)
		job, err := e.Await(context.Background(), id)
		require.NoError(t, err)
		stop()

		assert.Equal(t, domain.JobFailed, job.Status)
		assert.Contains(t, job.Error, domain.ErrJobPanicked.Error())
	})
}

func TestEngine_RespectsMaxConcurrency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e, _, _ := newEngine(t, compute.Config{MaxConcurrency: 2})
		release := make(chan struct{})
		var active, peak atomic.Int32

		e.Register("slow", func(context.Context, domain.Job) (any, error) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			active.Add(-1)
			return nil, nil
		})

		var ids []string
		for range 5 {
			id, err := e.ScheduleBackground("slow", "", "", nil, domain.DefaultPriority)
			require.NoError(t, err)
			ids = append(ids, id)
		}

		stop := startDispatcher(t, e)
		synctest.Wait()

		assert.Equal(t, int32(2), active.Load())
		assert.Equal(t, 3, e.QueueLen())

		close(release)
		for _, id := range ids {
			job, err := e.Await(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, domain.JobCompleted, job.Status)
		}
		stop()

		assert.Equal(t, int32(2), peak.Load())
	})
}

func TestEngine_RunTwice(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e, _, _ := newEngine(t, compute.Config{})
		stop := startDispatcher(t, e)
		synctest.Wait()

		err := e.Run(context.Background())
		require.ErrorIs(t, err, domain.ErrEngineRunning)
		stop()
	})
}

func TestEngine_ShutdownWaitsForRunningJobs(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e, _, _ := newEngine(t, compute.Config{})
		e.Register("slow", func(ctx context.Context, _ domain.Job) (any, error) {
			time.Sleep(time.Minute)
			return "finished", ctx.Err()
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- e.Run(ctx) }()

		id, err := e.ScheduleBackground("slow", "", "", nil, domain.DefaultPriority)
		require.NoError(t, err)
		synctest.Wait()

		cancel()
		require.NoError(t, <-done)

		job, ok := e.Job(id)
		require.True(t, ok)
		assert.Equal(t, domain.JobCompleted, job.Status)
		assert.Equal(t, "finished", job.Result)
	})
}

func TestEngine_Await(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e, _, _ := newEngine(t, compute.Config{})
		e.Register("noop", func(context.Context, domain.Job) (any, error) { return nil, nil })

		_, err := e.Await(context.Background(), "unknown")
		require.ErrorContains(t, err, domain.ErrJobNotFound.Error())

		id, err := e.ScheduleBackground("noop", "", "", nil, domain.DefaultPriority)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err = e.Await(ctx, id)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestMaintenance_DropsFinishedJobs(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e, _, _ := newEngine(t, compute.Config{JobRetention: time.Hour})
		e.Register("noop", func(context.Context, domain.Job) (any, error) { return nil, nil })

		stop := startDispatcher(t, e)
		id, err := e.ScheduleBackground("noop", "", "", nil, domain.DefaultPriority)
		require.NoError(t, err)
		_, err = e.Await(context.Background(), id)
		require.NoError(t, err)
		stop()

		pending, err := e.ScheduleBackground("noop", "", "", nil, domain.DefaultPriority)
		require.NoError(t, err)

		time.Sleep(2 * time.Hour)
		report := e.Maintenance()

		assert.Equal(t, 1, report.JobsDropped)
		_, ok := e.Job(id)
		assert.False(t, ok)
		_, ok = e.Job(pending)
		assert.True(t, ok, "pending jobs are never dropped")
	})
}
