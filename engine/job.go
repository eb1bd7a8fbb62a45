package engine

import (
	"errors"
	"fmt"

	"pipelined.dev/patch/mutable"
)

var (
	// ErrNotIntegrated is returned if job references a module which is not
	// part of the engine.
	ErrNotIntegrated = errors.New("module is not integrated")
	// ErrIntegrated is returned if module is integrated twice.
	ErrIntegrated = errors.New("module is integrated already")
	// ErrNoSuchStream is returned if stream index is out of range.
	ErrNoSuchStream = errors.New("no such stream")
	// ErrStreamInUse is returned if input stream is connected already.
	ErrStreamInUse = errors.New("stream in use")
	// ErrNoSuchLink is returned if disconnected link doesn't exist.
	ErrNoSuchLink = errors.New("no such link")
)

// Job is a single wiring instruction. Jobs are applied on the engine
// goroutine in the order they were added to a transaction.
type Job interface {
	apply(e *Engine, ms *mutable.Mutations) error
	fmt.Stringer
}

// Kind identifies job type.
type Kind int

// Job kinds.
const (
	KindIntegrate Kind = iota
	KindDiscard
	KindConnect
	KindJConnect
	KindDisconnect
	KindJDisconnect
	KindAccess
)

var kindNames = map[Kind]string{
	KindIntegrate:   "integrate",
	KindDiscard:     "discard",
	KindConnect:     "connect",
	KindJConnect:    "jconnect",
	KindDisconnect:  "disconnect",
	KindJDisconnect: "jdisconnect",
	KindAccess:      "access",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

type (
	// WireJob changes a single link between two modules. Src is nil for
	// singular disconnects.
	WireJob struct {
		Kind    Kind
		Src     *Module
		OStream int
		Dst     *Module
		// Stream is an input stream for singular jobs and a joint stream
		// for joint ones.
		Stream int
	}

	// ModuleJob integrates or discards a module.
	ModuleJob struct {
		Kind   Kind
		Module *Module
	}

	// AccessJob runs a function against module state on the engine
	// goroutine.
	AccessJob struct {
		Module *Module
		fn     func(*Module)
	}
)

// Integrate returns a job which adds module to the engine.
func Integrate(m *Module) ModuleJob {
	return ModuleJob{Kind: KindIntegrate, Module: m}
}

// Discard returns a job which removes module from the engine. All links
// reading from discarded module are disconnected.
func Discard(m *Module) ModuleJob {
	return ModuleJob{Kind: KindDiscard, Module: m}
}

// Connect returns a job which links output stream of src to input stream
// of dst.
func Connect(src *Module, ostream int, dst *Module, istream int) WireJob {
	return WireJob{Kind: KindConnect, Src: src, OStream: ostream, Dst: dst, Stream: istream}
}

// JConnect returns a job which adds a link from output stream of src to
// joint stream of dst.
func JConnect(src *Module, ostream int, dst *Module, jstream int) WireJob {
	return WireJob{Kind: KindJConnect, Src: src, OStream: ostream, Dst: dst, Stream: jstream}
}

// Disconnect returns a job which clears input stream of dst.
func Disconnect(dst *Module, istream int) WireJob {
	return WireJob{Kind: KindDisconnect, Dst: dst, Stream: istream}
}

// JDisconnect returns a job which removes a link from output stream of
// src to joint stream of dst.
func JDisconnect(dst *Module, jstream int, src *Module, ostream int) WireJob {
	return WireJob{Kind: KindJDisconnect, Src: src, OStream: ostream, Dst: dst, Stream: jstream}
}

// Access returns a job which calls fn with module on the engine goroutine.
// Access functions of one transaction are applied after its wiring jobs.
func Access(m *Module, fn func(*Module)) AccessJob {
	return AccessJob{Module: m, fn: fn}
}

func (j ModuleJob) apply(e *Engine, _ *mutable.Mutations) error {
	switch j.Kind {
	case KindIntegrate:
		if j.Module.integrated {
			return fmt.Errorf("%v: %w", j.Module, ErrIntegrated)
		}
		j.Module.integrated = true
		e.modules[j.Module] = struct{}{}
		e.metric.Integrated(1)
	case KindDiscard:
		if !j.Module.integrated {
			return fmt.Errorf("%v: %w", j.Module, ErrNotIntegrated)
		}
		j.Module.integrated = false
		delete(e.modules, j.Module)
		for m := range e.modules {
			m.disconnectFrom(j.Module)
		}
		e.metric.Integrated(-1)
	}
	return nil
}

func (j ModuleJob) String() string {
	return fmt.Sprintf("%v %v", j.Kind, j.Module)
}

func (j WireJob) apply(e *Engine, _ *mutable.Mutations) error {
	if j.Dst == nil || !j.Dst.integrated {
		return fmt.Errorf("%v: dst %v: %w", j.Kind, j.Dst, ErrNotIntegrated)
	}
	if j.Kind != KindDisconnect {
		if j.Src == nil || !j.Src.integrated {
			return fmt.Errorf("%v: src %v: %w", j.Kind, j.Src, ErrNotIntegrated)
		}
		if j.OStream < 0 || j.OStream >= j.Src.nOStreams {
			return fmt.Errorf("%v: ostream %d of %v: %w", j.Kind, j.OStream, j.Src, ErrNoSuchStream)
		}
	}
	switch j.Kind {
	case KindConnect, KindDisconnect:
		if j.Stream < 0 || j.Stream >= j.Dst.nIStreams {
			return fmt.Errorf("%v: istream %d of %v: %w", j.Kind, j.Stream, j.Dst, ErrNoSuchStream)
		}
	default:
		if j.Stream < 0 || j.Stream >= j.Dst.nJStreams {
			return fmt.Errorf("%v: jstream %d of %v: %w", j.Kind, j.Stream, j.Dst, ErrNoSuchStream)
		}
	}

	switch j.Kind {
	case KindConnect:
		if j.Dst.inputs[j.Stream].Module != nil {
			return fmt.Errorf("%v: istream %d of %v: %w", j.Kind, j.Stream, j.Dst, ErrStreamInUse)
		}
		j.Dst.inputs[j.Stream] = Link{Module: j.Src, OStream: j.OStream}
	case KindDisconnect:
		if j.Dst.inputs[j.Stream].Module == nil {
			return fmt.Errorf("%v: istream %d of %v: %w", j.Kind, j.Stream, j.Dst, ErrNoSuchLink)
		}
		j.Dst.inputs[j.Stream] = Link{}
	case KindJConnect:
		j.Dst.joints[j.Stream] = append(j.Dst.joints[j.Stream], Link{Module: j.Src, OStream: j.OStream})
	case KindJDisconnect:
		links := j.Dst.joints[j.Stream]
		for i := range links {
			if links[i].Module == j.Src && links[i].OStream == j.OStream {
				last := len(links) - 1
				links[i] = links[last]
				j.Dst.joints[j.Stream] = links[:last]
				return nil
			}
		}
		return fmt.Errorf("%v: jstream %d of %v: %w", j.Kind, j.Stream, j.Dst, ErrNoSuchLink)
	}
	return nil
}

func (j WireJob) String() string {
	switch j.Kind {
	case KindDisconnect:
		return fmt.Sprintf("%v %v[%d]", j.Kind, j.Dst, j.Stream)
	default:
		return fmt.Sprintf("%v %v[%d] -> %v[%d]", j.Kind, j.Src, j.OStream, j.Dst, j.Stream)
	}
}

func (j AccessJob) apply(e *Engine, ms *mutable.Mutations) error {
	if j.Module == nil || !j.Module.integrated {
		return fmt.Errorf("access %v: %w", j.Module, ErrNotIntegrated)
	}
	m, fn := j.Module, j.fn
	ms.Put(m.Mutate(func() {
		fn(m)
	}))
	return nil
}

func (j AccessJob) String() string {
	return fmt.Sprintf("access %v", j.Module)
}
