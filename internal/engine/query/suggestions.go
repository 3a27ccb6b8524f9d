package query

import (
	"fmt"
	"time"

	"go.trai.ch/hoard/internal/core/domain"
)

const (
	compositeIndexLatency = 5 * time.Second
	missingIndexLatency   = time.Second
	broadFilterRatio      = 10
	largePageReturned     = 500
)

// Suggestions maps a sample to human-readable optimization hints.
func Suggestions(s domain.QueryPerformanceSample) []string {
	var hints []string

	switch {
	case s.Latency > compositeIndexLatency:
		hints = append(hints, fmt.Sprintf(
			"query took %s: add a composite index covering the filter and sort fields", s.Latency))
	case s.Latency > missingIndexLatency && !s.IndexUsed:
		hints = append(hints, fmt.Sprintf(
			"query took %s without an index: add an index on the filtered fields", s.Latency))
	}

	switch {
	case s.DocumentsReturned > 0 && s.DocumentsRead > broadFilterRatio*s.DocumentsReturned:
		hints = append(hints, fmt.Sprintf(
			"read %d documents to return %d: filters are too broad", s.DocumentsRead, s.DocumentsReturned))
	case s.DocumentsReturned == 0 && s.DocumentsRead > 0:
		hints = append(hints, fmt.Sprintf(
			"read %d documents and returned none: check that the filter is selective", s.DocumentsRead))
	}

	if s.DocumentsReturned > largePageReturned {
		hints = append(hints, fmt.Sprintf(
			"returned %d documents: request smaller pages", s.DocumentsReturned))
	}

	return hints
}
