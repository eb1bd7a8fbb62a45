// Package engine is the runtime side of a patch. Control side collects
// jobs into transactions and commits them. Engine goroutine applies
// transactions strictly in commit order.
package engine

import (
	"sync"
	"time"

	"pipelined.dev/patch/log"
	"pipelined.dev/patch/metric"
	"pipelined.dev/patch/mutable"
)

// DefaultQueueSize is the number of committed transactions an engine can
// buffer before Commit blocks.
const DefaultQueueSize = 64

// Engine applies committed transactions on its own goroutine.
type Engine struct {
	log       log.Logger
	metric    *metric.Metric
	queueSize int

	transc chan *Trans
	donec  chan struct{}

	mu     sync.Mutex
	closed bool

	// only accessed by engine goroutine.
	modules map[*Module]struct{}
}

// Option provides a way to set options to engine.
type Option func(*Engine)

// WithLogger sets logger to engine. Failed jobs are reported there.
func WithLogger(l log.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithMetric sets metric to engine.
func WithMetric(m *metric.Metric) Option {
	return func(e *Engine) {
		e.metric = m
	}
}

// WithQueueSize sets the size of the transaction queue.
func WithQueueSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// New creates and starts a new engine. It must be closed after use.
func New(options ...Option) *Engine {
	e := Engine{
		log:       log.Silent{},
		queueSize: DefaultQueueSize,
		donec:     make(chan struct{}),
		modules:   make(map[*Module]struct{}),
	}
	for _, option := range options {
		option(&e)
	}
	e.transc = make(chan *Trans, e.queueSize)
	go e.loop()
	return &e
}

// Open returns a new empty transaction.
func (e *Engine) Open() *Trans {
	return NewTrans()
}

// Commit sends transaction to the engine. Empty transactions are committed
// as well. Transaction must not be used after commit.
func (e *Engine) Commit(t *Trans) {
	if t == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if t.committed {
		log.Integrity(e.log, "transaction committed twice")
		return
	}
	t.committed = true
	if e.closed {
		log.Integrity(e.log, "commit of %d jobs to closed engine", len(t.jobs))
		close(t.done)
		return
	}
	t.committedAt = time.Now()
	e.transc <- t
}

// Wait blocks until all transactions committed before the call are applied.
func (e *Engine) Wait() {
	t := e.Open()
	done := t.done
	e.Commit(t)
	<-done
	e.metric.Wait()
}

// Close applies pending transactions and stops the engine goroutine.
// It's safe to call Close multiple times.
func (e *Engine) Close() {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.transc)
	}
	e.mu.Unlock()
	<-e.donec
}

func (e *Engine) loop() {
	defer close(e.donec)
	for t := range e.transc {
		e.apply(t)
	}
}

// apply executes jobs of the transaction in order. Failed jobs are
// reported and skipped.
func (e *Engine) apply(t *Trans) {
	var (
		ms     mutable.Mutations
		failed int
	)
	for _, j := range t.jobs {
		if err := j.apply(e, &ms); err != nil {
			failed++
			log.Integrity(e.log, "engine job %v: %v", j, err)
		}
	}
	ms.Apply()
	e.metric.Transaction(len(t.jobs), failed, t.committedAt)
	close(t.done)
}
