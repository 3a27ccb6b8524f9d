// export_test.go exposes internals for black-box tests.
package compute

import "go.trai.ch/hoard/internal/core/domain"

// Queue wraps the pending job queue for ordering tests.
type Queue struct {
	q queue
}

func (q *Queue) Push(j *domain.Job) { q.q.push(j) }

func (q *Queue) Pop() (*domain.Job, bool) { return q.q.pop() }

func (q *Queue) Len() int { return q.q.len() }
