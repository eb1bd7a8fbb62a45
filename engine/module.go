package engine

import (
	"fmt"

	"pipelined.dev/patch/mutable"
)

// Module is a real-time processing object. Modules are allocated on the
// control side but belong to the engine once integrated: their links
// are only changed by jobs on the engine goroutine. Accessors are safe to
// call on the control side after Wait returned.
type Module struct {
	mutable.Context
	name      string
	nIStreams int
	nJStreams int
	nOStreams int

	integrated bool
	inputs     []Link
	joints     [][]Link
	// State is arbitrary data owned by the module. It can only be changed
	// with access jobs.
	State interface{}
}

// Link is a connection from an output stream of Module.
type Link struct {
	Module  *Module
	OStream int
}

// NewModule allocates a module with provided number of input, joint input
// and output streams. It must be integrated before it can be connected.
func NewModule(name string, nIStreams, nJStreams, nOStreams int) *Module {
	return &Module{
		Context:   mutable.Mutable(),
		name:      name,
		nIStreams: nIStreams,
		nJStreams: nJStreams,
		nOStreams: nOStreams,
		inputs:    make([]Link, nIStreams),
		joints:    make([][]Link, nJStreams),
	}
}

// Name returns module name.
func (m *Module) Name() string {
	return m.name
}

// NumIStreams returns number of singular input streams.
func (m *Module) NumIStreams() int {
	return m.nIStreams
}

// NumJStreams returns number of joint input streams.
func (m *Module) NumJStreams() int {
	return m.nJStreams
}

// NumOStreams returns number of output streams.
func (m *Module) NumOStreams() int {
	return m.nOStreams
}

// Integrated returns true if module is part of the engine.
func (m *Module) Integrated() bool {
	return m.integrated
}

// Input returns link connected to the input stream.
func (m *Module) Input(istream int) (Link, bool) {
	if istream < 0 || istream >= m.nIStreams || m.inputs[istream].Module == nil {
		return Link{}, false
	}
	return m.inputs[istream], true
}

// Joints returns a copy of links connected to the joint stream.
func (m *Module) Joints(jstream int) []Link {
	if jstream < 0 || jstream >= m.nJStreams {
		return nil
	}
	return append([]Link(nil), m.joints[jstream]...)
}

func (m *Module) String() string {
	if m == nil {
		return "<nil module>"
	}
	return fmt.Sprintf("%s %v", m.name, m.Context)
}

// disconnectFrom removes every link which reads from src.
func (m *Module) disconnectFrom(src *Module) {
	for i := range m.inputs {
		if m.inputs[i].Module == src {
			m.inputs[i] = Link{}
		}
	}
	for j := range m.joints {
		links := m.joints[j][:0]
		for _, l := range m.joints[j] {
			if l.Module != src {
				links = append(links, l)
			}
		}
		m.joints[j] = links
	}
}
