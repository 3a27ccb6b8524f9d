package domain

import "github.com/shopspring/decimal"

// Totals is an additive aggregate over a set of documents.
// Sum is a decimal so that applying deltas yields exactly what a full recount would.
type Totals struct {
	Count int64           `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
}

// TotalsDelta is the change a mutation makes to a Totals value.
type TotalsDelta struct {
	Count int64           `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
}

// Apply returns t with d added.
func (t Totals) Apply(d TotalsDelta) Totals {
	return Totals{
		Count: t.Count + d.Count,
		Sum:   t.Sum.Add(d.Sum),
	}
}

// Equal reports whether two totals hold the same count and numerically equal sums.
func (t Totals) Equal(o Totals) bool {
	return t.Count == o.Count && t.Sum.Equal(o.Sum)
}
