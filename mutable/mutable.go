// Package mutable lets the control side prepare changes to real-time
// objects which are then applied on the runtime goroutine.
package mutable

import (
	"github.com/rs/xid"
)

// zero value for context is immutable.
var immutable = Context{}

type (
	// Context can be embedded to make structure behaviour mutable.
	Context xid.ID

	// Mutation is mutator function associated with a certain mutable context.
	Mutation struct {
		Context
		mutator MutatorFunc
	}

	// Mutations is a batch of mutations grouped by their contexts. Contexts
	// are applied in the order they were first put into the batch.
	Mutations struct {
		order []Context
		fns   map[Context][]MutatorFunc
	}

	// MutatorFunc mutates the object.
	MutatorFunc func()
)

// Mutable returns new mutable context.
func Mutable() Context {
	return Context(xid.New())
}

// Immutable returns immutable context.
func Immutable() Context {
	return immutable
}

// Mutate associates provided mutator with mutable and return mutation.
func (c Context) Mutate(m MutatorFunc) Mutation {
	if c == immutable {
		panic("mutate immutable")
	}
	return Mutation{
		Context: c,
		mutator: m,
	}
}

// IsMutable returns true if object is mutable.
func (c Context) IsMutable() bool {
	return c != immutable
}

// String returns the context id.
func (c Context) String() string {
	return xid.ID(c).String()
}

// Apply mutator function.
func (m Mutation) Apply() {
	m.mutator()
}

// Put mutation to the batch. Mutations of immutable contexts are ignored.
func (ms *Mutations) Put(m Mutation) {
	if m.Context == immutable || m.mutator == nil {
		return
	}
	if ms.fns == nil {
		ms.fns = make(map[Context][]MutatorFunc)
	}
	if _, ok := ms.fns[m.Context]; !ok {
		ms.order = append(ms.order, m.Context)
	}
	ms.fns[m.Context] = append(ms.fns[m.Context], m.mutator)
}

// Len returns number of mutators in the batch.
func (ms *Mutations) Len() int {
	n := 0
	for _, fns := range ms.fns {
		n += len(fns)
	}
	return n
}

// ApplyTo consumes mutations defined for provided context.
func (ms *Mutations) ApplyTo(c Context) {
	if ms.fns == nil || c == immutable {
		return
	}
	fns, ok := ms.fns[c]
	if !ok {
		return
	}
	for _, fn := range fns {
		fn()
	}
	delete(ms.fns, c)
	for i := range ms.order {
		if ms.order[i] == c {
			ms.order = append(ms.order[:i], ms.order[i+1:]...)
			break
		}
	}
}

// Apply consumes all mutations of the batch.
func (ms *Mutations) Apply() {
	for len(ms.order) > 0 {
		ms.ApplyTo(ms.order[0])
	}
}
