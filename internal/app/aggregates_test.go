package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hoard/internal/adapters/telemetry"
	"go.trai.ch/hoard/internal/app"
	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/core/ports/mocks"
	"go.trai.ch/hoard/internal/engine/compute"
	"go.trai.ch/hoard/internal/engine/kvcache"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	store  *mocks.MockDocumentStore
	engine *compute.Engine
	cache  *kvcache.Cache
	agg    *app.Aggregates
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	lg := mocks.NewMockLogger(ctrl)
	lg.EXPECT().Info(gomock.Any()).AnyTimes()
	lg.EXPECT().Warn(gomock.Any()).AnyTimes()
	lg.EXPECT().Error(gomock.Any()).AnyTimes()

	cache := kvcache.New(kvcache.Config{}, nil)
	engine := compute.New(compute.Config{}, cache, lg, telemetry.NewNoOpTracer(), nil)
	return &fixture{store: store, engine: engine, cache: cache, agg: app.NewAggregates(store, engine)}
}

func invoices() []domain.Document {
	return []domain.Document{
		{"amount": json.Number("10.10"), "status": "open"},
		{"amount": json.Number("0.20"), "status": "paid"},
		{"amount": "5", "status": "open"},
		{"status": "draft"},
	}
}

func findInvoices(tenant string) domain.FindQuery {
	return domain.FindQuery{Collection: "invoices", TenantID: tenant}
}

func TestNewAggregates_RegistersKinds(t *testing.T) {
	f := newFixture(t)
	assert.ElementsMatch(t, []string{app.KindTotals, app.KindRollup}, f.engine.Kinds())
}

func TestAggregates_TotalsReusesResult(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Find(gomock.Any(), findInvoices("t1")).
		Return(domain.FindResult{Documents: invoices()}, nil).Times(1)

	first, err := f.agg.Totals(t.Context(), "t1", "invoices", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), first.Count)
	assert.True(t, decimal.RequireFromString("15.30").Equal(first.Sum))

	second, err := f.agg.Totals(t.Context(), "t1", "invoices", time.Time{})
	require.NoError(t, err)
	assert.True(t, first.Equal(second))

	_, cached := f.cache.Get(domain.TotalsKey("t1", "invoices"))
	assert.True(t, cached)
}

func TestAggregates_TotalsRecomputesAfterInputsChange(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Find(gomock.Any(), findInvoices("t1")).
		Return(domain.FindResult{Documents: invoices()}, nil).Times(2)

	_, err := f.agg.Totals(t.Context(), "t1", "invoices", time.Time{})
	require.NoError(t, err)
	_, err = f.agg.Totals(t.Context(), "t1", "invoices", time.Now().Add(time.Hour))
	require.NoError(t, err)
}

func TestAggregates_ApplyTotalsDeltaMatchesRecount(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Find(gomock.Any(), findInvoices("t1")).
		Return(domain.FindResult{Documents: invoices()}, nil).Times(1)

	_, err := f.agg.Totals(t.Context(), "t1", "invoices", time.Time{})
	require.NoError(t, err)

	delta := domain.TotalsDelta{Count: 1, Sum: decimal.RequireFromString("0.10")}
	updated, err := f.agg.ApplyTotalsDelta(t.Context(), "t1", "invoices", delta, time.Time{})
	require.NoError(t, err)

	want := domain.Totals{Count: 5, Sum: decimal.RequireFromString("15.40")}
	assert.True(t, want.Equal(updated), "got %v", updated)
}

func TestAggregates_ApplyTotalsDeltaWithoutStateRecounts(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Find(gomock.Any(), findInvoices("t1")).
		Return(domain.FindResult{Documents: invoices()}, nil).Times(1)

	got, err := f.agg.ApplyTotalsDelta(t.Context(), "t1", "invoices", domain.TotalsDelta{Count: 100}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Count, "a delta without a prior result is ignored in favour of the recount")
}

func TestAggregates_TotalsRejectsNonNumericAmounts(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Find(gomock.Any(), findInvoices("t1")).
		Return(domain.FindResult{Documents: []domain.Document{{"amount": "ten"}}}, nil)

	_, err := f.agg.Totals(t.Context(), "t1", "invoices", time.Time{})
	assert.ErrorContains(t, err, domain.ErrInvalidAmount.Error())
}

func TestAggregates_StoreErrorsPropagate(t *testing.T) {
	f := newFixture(t)
	upstream := errors.New("connection reset")
	f.store.EXPECT().Find(gomock.Any(), gomock.Any()).Return(domain.FindResult{}, upstream)

	_, err := f.agg.Totals(t.Context(), "t1", "invoices", time.Time{})
	require.ErrorIs(t, err, upstream)
	_, ok := f.engine.State(domain.TotalsKey("t1", "invoices"))
	assert.False(t, ok)
}

func TestAggregates_Rollup(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Find(gomock.Any(), findInvoices("t1")).
		Return(domain.FindResult{Documents: invoices()}, nil)

	groups, err := f.agg.Rollup(t.Context(), "t1", "invoices", "status", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"open": 2, "paid": 1, "draft": 1}, groups)

	_, err = f.agg.Rollup(t.Context(), "t1", "invoices", "status; drop", time.Time{})
	assert.ErrorContains(t, err, domain.ErrInvalidField.Error())
}

func TestAggregates_RollupDottedField(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Find(gomock.Any(), findInvoices("t1")).Return(domain.FindResult{Documents: []domain.Document{
		{"owner": map[string]any{"team": "core"}},
		{"owner": map[string]any{"team": "edge"}},
		{"owner": map[string]any{"team": "core"}},
		{"owner": "nobody"},
	}}, nil)

	groups, err := f.agg.Rollup(t.Context(), "t1", "invoices", "owner.team", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"core": 2, "edge": 1, "": 1}, groups)
}

func TestAggregates_BackgroundJobs(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().Find(gomock.Any(), findInvoices("t1")).
			Return(domain.FindResult{Documents: invoices()}, nil).Times(2)

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() { done <- f.engine.Run(ctx) }()
		defer func() {
			cancel()
			require.NoError(t, <-done)
		}()

		totalsID, err := f.engine.ScheduleBackground(app.KindTotals, "t1", "invoices", nil, domain.DefaultPriority)
		require.NoError(t, err)
		rollupID, err := f.engine.ScheduleBackground(app.KindRollup, "t1", "invoices",
			map[string]any{app.ParamGroupBy: "status"}, domain.DefaultPriority)
		require.NoError(t, err)
		missingID, err := f.engine.ScheduleBackground(app.KindRollup, "t1", "invoices", nil, domain.DefaultPriority)
		require.NoError(t, err)

		job, err := f.engine.Await(t.Context(), totalsID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobCompleted, job.Status)
		assert.Equal(t, int64(4), job.Result.(domain.Totals).Count)

		job, err = f.engine.Await(t.Context(), rollupID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobCompleted, job.Status)
		assert.Equal(t, map[string]int64{"open": 2, "paid": 1, "draft": 1}, job.Result)

		job, err = f.engine.Await(t.Context(), missingID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobFailed, job.Status)
		assert.Contains(t, job.Error, domain.ErrInvalidField.Error())
	})
}
