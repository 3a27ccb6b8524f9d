package compute

import (
	"slices"
	"sort"

	"go.trai.ch/hoard/internal/core/domain"
)

// queue holds pending jobs ordered by ascending priority, arrival order within a priority.
type queue struct {
	jobs []*domain.Job
}

// push inserts j before the first job with a strictly greater priority.
func (q *queue) push(j *domain.Job) {
	i := sort.Search(len(q.jobs), func(i int) bool {
		return q.jobs[i].Priority > j.Priority
	})
	q.jobs = slices.Insert(q.jobs, i, j)
}

// pop removes the most urgent job.
func (q *queue) pop() (*domain.Job, bool) {
	if len(q.jobs) == 0 {
		return nil, false
	}
	j := q.jobs[0]
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]
	return j, true
}

func (q *queue) len() int {
	return len(q.jobs)
}
