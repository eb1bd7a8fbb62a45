package patch

import (
	"pipelined.dev/patch/engine"
	"pipelined.dev/patch/log"
)

// Hooks is the per-class behaviour of node lifecycle. Prepare and Reset
// are called once per prepared interval, context hooks once per context.
type Hooks interface {
	Prepare(n *Node)
	Reset(n *Node)
	// CreateContext must allocate real-time modules of the context and
	// set them with SetContextIModule and SetContextOModule.
	CreateContext(n *Node, handle int, t *engine.Trans)
	// ConnectContext must wire inputs of the context.
	ConnectContext(n *Node, handle int, t *engine.Trans)
	// DismissContext must discard real-time modules of the context and
	// clear references to them.
	DismissContext(n *Node, handle int, t *engine.Trans)
}

// BaseHooks implements default behaviour. Classes embed it and override
// what they need.
type BaseHooks struct{}

// Prepare does nothing.
func (BaseHooks) Prepare(*Node) {}

// Reset does nothing.
func (BaseHooks) Reset(*Node) {}

// CreateContext does nothing.
func (BaseHooks) CreateContext(*Node, int, *engine.Trans) {}

// ConnectContext connects every input edge of the context to the output
// module of the producer's context with the same handle.
func (BaseHooks) ConnectContext(n *Node, handle int, t *engine.Trans) {
	imodule := n.ContextIModule(handle)
	for i, ch := range n.class.inputs {
		edges := n.inputs[i].edges(ch.Joint)
		if len(edges) == 0 {
			continue
		}
		if imodule == nil {
			log.Integrity(n.logger(), "%v: context %d has no input module", n, handle)
			return
		}
		for _, e := range edges {
			omodule := e.Producer.ContextOModule(handle)
			if omodule == nil {
				log.Integrity(n.logger(), "%v: producer %v has no output module for context %d", n, e.Producer, handle)
				continue
			}
			ostream := e.Producer.class.outputs[e.OChannel].Stream
			if ch.Joint {
				t.Add(engine.JConnect(omodule, ostream, imodule, ch.Stream))
			} else {
				t.Add(engine.Connect(omodule, ostream, imodule, ch.Stream))
			}
		}
	}
}

// DismissContext discards modules of the context.
func (BaseHooks) DismissContext(n *Node, handle int, t *engine.Trans) {
	imodule, omodule := n.ContextIModule(handle), n.ContextOModule(handle)
	if imodule != nil {
		t.Add(engine.Discard(imodule))
	}
	if omodule != nil && omodule != imodule {
		t.Add(engine.Discard(omodule))
	}
	n.SetContextIModule(handle, nil)
	n.SetContextOModule(handle, nil)
}

// DataHooks is implemented by hooks of classes without channels which keep
// context state as opaque data instead of modules.
type DataHooks interface {
	ContextData(n *Node, handle int) (data interface{}, free func(interface{}))
}
