package metrics_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hoard/internal/adapters/metrics"
	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestPrometheus_CacheCounters(t *testing.T) {
	p := metrics.New(prometheus.NewRegistry())

	p.CacheHit()
	p.CacheHit()
	p.CacheMiss()
	p.CacheEviction()
	p.CacheExpiration(3)

	assert.InDelta(t, 2, testutil.ToFloat64(p.CacheHits), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.CacheMisses), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.CacheEvictions), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(p.CacheExpirations), 0)
}

func TestPrometheus_JobMetrics(t *testing.T) {
	p := metrics.New(nil)

	p.JobScheduled("totals")
	p.JobScheduled("totals")
	p.JobFinished("totals", domain.JobCompleted, 20*time.Millisecond)
	p.JobFinished("totals", domain.JobFailed, time.Second)
	p.QueueDepth(4)

	assert.InDelta(t, 2, testutil.ToFloat64(p.JobsScheduled.WithLabelValues("totals")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.JobsFinished.WithLabelValues("totals", string(domain.JobCompleted))), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.JobsFinished.WithLabelValues("totals", string(domain.JobFailed))), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(p.PendingJobs), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(p.JobDuration))
}

func TestPrometheus_QueryObserved(t *testing.T) {
	p := metrics.New(nil)

	p.QueryObserved(domain.QueryPerformanceSample{
		Collection:    "projects",
		Latency:       1500 * time.Millisecond,
		DocumentsRead: 300,
		Suggestions:   []string{"a", "b"},
	})
	p.QueryObserved(domain.QueryPerformanceSample{Collection: "projects", CacheHit: true})

	assert.InDelta(t, 1, testutil.ToFloat64(p.Queries.WithLabelValues("projects", "false")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.Queries.WithLabelValues("projects", "true")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(p.SlowSuggestions), 0)
}

func TestPrometheus_HandlerExposesNamespace(t *testing.T) {
	p := metrics.New(nil)
	p.CacheHit()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	lg := mocks.NewMockLogger(gomock.NewController(t))
	lg.EXPECT().Info(gomock.Any()).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Go(func() {
		assert.NoError(t, p.ServeListener(ctx, ln, lg))
	})
	defer func() {
		cancel()
		wg.Wait()
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "hoard_cache_hits_total 1"))
}

func TestPrometheus_ServeRejectsBadAddress(t *testing.T) {
	p := metrics.New(nil)
	lg := mocks.NewMockLogger(gomock.NewController(t))

	err := p.Serve(t.Context(), "not-an-address", lg)
	assert.Error(t, err)
}
