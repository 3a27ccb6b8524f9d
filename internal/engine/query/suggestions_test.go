package query_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/hoard/internal/engine/query"
)

func TestSuggestions(t *testing.T) {
	tests := []struct {
		name   string
		sample domain.QueryPerformanceSample
		want   []string
	}{
		{
			name:   "healthy",
			sample: domain.QueryPerformanceSample{Latency: 20 * time.Millisecond, DocumentsRead: 10, DocumentsReturned: 10, IndexUsed: true},
			want:   nil,
		},
		{
			name:   "very slow",
			sample: domain.QueryPerformanceSample{Latency: 6 * time.Second, DocumentsRead: 10, DocumentsReturned: 10},
			want:   []string{"query took 6s: add a composite index covering the filter and sort fields"},
		},
		{
			name:   "slow without index",
			sample: domain.QueryPerformanceSample{Latency: 2 * time.Second, DocumentsRead: 10, DocumentsReturned: 10},
			want:   []string{"query took 2s without an index: add an index on the filtered fields"},
		},
		{
			name:   "slow with index",
			sample: domain.QueryPerformanceSample{Latency: 2 * time.Second, DocumentsRead: 10, DocumentsReturned: 10, IndexUsed: true},
			want:   nil,
		},
		{
			name:   "broad filters",
			sample: domain.QueryPerformanceSample{Latency: time.Millisecond, DocumentsRead: 110, DocumentsReturned: 10, IndexUsed: true},
			want:   []string{"read 110 documents to return 10: filters are too broad"},
		},
		{
			name:   "exactly ten times is fine",
			sample: domain.QueryPerformanceSample{Latency: time.Millisecond, DocumentsRead: 100, DocumentsReturned: 10, IndexUsed: true},
			want:   nil,
		},
		{
			name:   "nothing returned",
			sample: domain.QueryPerformanceSample{Latency: time.Millisecond, DocumentsRead: 3, IndexUsed: true},
			want:   []string{"read 3 documents and returned none: check that the filter is selective"},
		},
		{
			name:   "large page",
			sample: domain.QueryPerformanceSample{Latency: time.Millisecond, DocumentsRead: 501, DocumentsReturned: 501, IndexUsed: true},
			want:   []string{"returned 501 documents: request smaller pages"},
		},
		{
			name: "everything at once",
			sample: domain.QueryPerformanceSample{
				Latency: 7 * time.Second, DocumentsRead: 9000, DocumentsReturned: 600,
			},
			want: []string{
				"query took 7s: add a composite index covering the filter and sort fields",
				"read 9000 documents to return 600: filters are too broad",
				"returned 600 documents: request smaller pages",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, query.Suggestions(tt.sample))
		})
	}
}
