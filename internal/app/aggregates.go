package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/core/ports"
	"go.trai.ch/hoard/internal/engine/compute"
	"go.trai.ch/zerr"
)

const (
	// KindTotals is the job kind that computes domain.Totals over an entity's documents.
	KindTotals = "totals"
	// KindRollup is the job kind that counts an entity's documents per value of a field.
	KindRollup = "rollup"

	// DefaultAmountField is the document field summed by totals.
	DefaultAmountField = "amount"
	// ParamField overrides the summed field of a totals job.
	ParamField = "field"
	// ParamGroupBy names the grouping field of a rollup job.
	ParamGroupBy = "group_by"
)

// Aggregates computes the built-in aggregates through the compute engine.
// The entity id names the collection the aggregate is computed over.
type Aggregates struct {
	store  ports.DocumentStore
	engine *compute.Engine
}

// NewAggregates creates Aggregates and registers the totals and rollup job kinds on engine.
func NewAggregates(store ports.DocumentStore, engine *compute.Engine) *Aggregates {
	a := &Aggregates{store: store, engine: engine}
	engine.Register(KindTotals, a.totalsJob)
	engine.Register(KindRollup, a.rollupJob)
	return a
}

// Totals returns the count and amount sum of the entity's documents, reusing the cached
// result when no input changed after it was computed.
func (a *Aggregates) Totals(ctx context.Context, tenantID, entityID string, inputsChangedAt time.Time) (domain.Totals, error) {
	return compute.Compute(ctx, a.engine, domain.TotalsKey(tenantID, entityID), inputsChangedAt,
		func(ctx context.Context) (domain.Totals, error) {
			return a.sum(ctx, tenantID, entityID, DefaultAmountField)
		})
}

// ApplyTotalsDelta folds delta into the cached totals of the entity, or recounts when the
// cached totals are missing or stale.
func (a *Aggregates) ApplyTotalsDelta(
	ctx context.Context,
	tenantID, entityID string,
	delta domain.TotalsDelta,
	inputsChangedAt time.Time,
) (domain.Totals, error) {
	v, err := a.engine.DifferentialUpdate(ctx, domain.TotalsKey(tenantID, entityID), inputsChangedAt,
		compute.ApplyTotals(delta),
		func(ctx context.Context) (any, error) {
			return a.sum(ctx, tenantID, entityID, DefaultAmountField)
		})
	if err != nil {
		return domain.Totals{}, err
	}
	totals, ok := v.(domain.Totals)
	if !ok {
		return domain.Totals{}, zerr.With(domain.ErrResultTypeMismatch, "type", fmt.Sprintf("%T", v))
	}
	return totals, nil
}

// Rollup returns the number of the entity's documents per value of groupBy.
// Documents without the field are counted under the empty string.
func (a *Aggregates) Rollup(
	ctx context.Context,
	tenantID, entityID, groupBy string,
	inputsChangedAt time.Time,
) (map[string]int64, error) {
	if err := domain.ValidateField(groupBy); err != nil {
		return nil, err
	}
	return compute.Compute(ctx, a.engine, domain.RollupKey(tenantID, entityID, groupBy), inputsChangedAt,
		func(ctx context.Context) (map[string]int64, error) {
			docs, err := a.all(ctx, tenantID, entityID)
			if err != nil {
				return nil, err
			}
			groups := make(map[string]int64)
			for _, doc := range docs {
				v, _ := lookup(doc, groupBy)
				groups[groupKey(v)]++
			}
			return groups, nil
		})
}

func (a *Aggregates) totalsJob(ctx context.Context, job domain.Job) (any, error) {
	field := DefaultAmountField
	if f, ok := job.Parameters[ParamField].(string); ok && f != "" {
		field = f
	}
	if field == DefaultAmountField {
		return a.Totals(ctx, job.TenantID, job.EntityID, time.Time{})
	}
	if err := domain.ValidateField(field); err != nil {
		return nil, err
	}
	return compute.Compute(ctx, a.engine, domain.JoinKey(domain.TotalsKey(job.TenantID, job.EntityID), field), time.Time{},
		func(ctx context.Context) (domain.Totals, error) {
			return a.sum(ctx, job.TenantID, job.EntityID, field)
		})
}

func (a *Aggregates) rollupJob(ctx context.Context, job domain.Job) (any, error) {
	groupBy, _ := job.Parameters[ParamGroupBy].(string)
	if groupBy == "" {
		return nil, zerr.With(domain.ErrInvalidField, "reason", "rollup requires a group_by parameter")
	}
	return a.Rollup(ctx, job.TenantID, job.EntityID, groupBy, time.Time{})
}

func (a *Aggregates) sum(ctx context.Context, tenantID, entityID, field string) (domain.Totals, error) {
	docs, err := a.all(ctx, tenantID, entityID)
	if err != nil {
		return domain.Totals{}, err
	}

	totals := domain.Totals{Sum: decimal.Zero}
	for _, doc := range docs {
		totals.Count++
		v, ok := lookup(doc, field)
		if !ok || v == nil {
			continue
		}
		amount, err := toDecimal(v)
		if err != nil {
			return domain.Totals{}, zerr.With(zerr.With(err, "field", field), "entity", entityID)
		}
		totals.Sum = totals.Sum.Add(amount)
	}
	return totals, nil
}

func (a *Aggregates) all(ctx context.Context, tenantID, entityID string) ([]domain.Document, error) {
	res, err := a.store.Find(ctx, domain.FindQuery{Collection: entityID, TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	return res.Documents, nil
}

// lookup resolves a dotted field path inside doc.
func lookup(doc domain.Document, field string) (any, bool) {
	var current any = map[string]any(doc)
	for part := range strings.SplitSeq(field, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func groupKey(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case json.Number:
		return parseDecimal(x.String())
	case string:
		return parseDecimal(x)
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	default:
		return decimal.Decimal{}, zerr.With(domain.ErrInvalidAmount, "type", fmt.Sprintf("%T", v))
	}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, zerr.With(zerr.Wrap(err, domain.ErrInvalidAmount.Error()), "value", s)
	}
	return d, nil
}
