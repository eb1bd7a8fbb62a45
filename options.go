package patch

import (
	"pipelined.dev/patch/engine"
	"pipelined.dev/patch/log"
	"pipelined.dev/patch/undo"
)

// Engine is the real-time runtime which applies wiring jobs.
type Engine interface {
	Open() *engine.Trans
	Commit(*engine.Trans)
	Wait()
}

// detached engine drops all transactions. It's used by containers created
// without engine.
type detached struct{}

func (detached) Open() *engine.Trans {
	return engine.NewTrans()
}

func (detached) Commit(*engine.Trans) {}

func (detached) Wait() {}

// Option provides a way to set options to container.
type Option func(*Container)

// WithLogger sets logger to container. Integrity warnings of nodes and
// link errors are reported there.
func WithLogger(l log.Logger) Option {
	return func(c *Container) {
		c.log = l
	}
}

// WithEngine sets the runtime which receives wiring jobs.
func WithEngine(e Engine) Option {
	return func(c *Container) {
		c.engine = e
	}
}

// WithHistory sets history which records edits of container nodes.
func WithHistory(h *undo.History) Option {
	return func(c *Container) {
		c.history = h
	}
}
