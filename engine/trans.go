package engine

import "time"

// Trans is an ordered batch of jobs. It's built on the control side and
// applied atomically with respect to other transactions.
type Trans struct {
	jobs        []Job
	committed   bool
	committedAt time.Time
	done        chan struct{}
}

// NewTrans returns a new empty transaction.
func NewTrans() *Trans {
	return &Trans{
		done: make(chan struct{}),
	}
}

// Add appends job to the transaction.
func (t *Trans) Add(j Job) {
	if t.committed {
		panic("add job to committed transaction")
	}
	t.jobs = append(t.jobs, j)
}

// Len returns number of jobs in transaction.
func (t *Trans) Len() int {
	return len(t.jobs)
}

// Jobs returns a copy of transaction jobs.
func (t *Trans) Jobs() []Job {
	return append([]Job(nil), t.jobs...)
}

// Done returns a channel which is closed when transaction is applied.
func (t *Trans) Done() <-chan struct{} {
	return t.done
}
