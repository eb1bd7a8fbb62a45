package patch

import (
	"fmt"

	"github.com/rs/xid"

	"pipelined.dev/patch/log"
)

type (
	// Edge is a link from an output channel of producer.
	Edge struct {
		Producer *Node
		OChannel int
	}

	// slot keeps edges of a single input channel: one edge for singular
	// channels, any number for joint ones.
	slot struct {
		edge   Edge
		joints []Edge
	}

	// ObserverFunc is called when property of the node changes.
	ObserverFunc func(n *Node, prop string)

	// Node is an instance of a class wired into a graph.
	Node struct {
		uid    xid.ID
		name   string
		class  *Class
		parent *Container

		inputs []slot
		// consumers has one entry per outgoing edge.
		consumers []*Node

		prepared   bool
		contexts   []contextRecord
		automation []Automation
		x, y       float64

		refs      int
		frozen    int
		pending   []string
		observers []ObserverFunc
	}
)

// Properties reported to observers.
const (
	PropIO         = "io-changed"
	PropPos        = "pos"
	PropAutomation = "automation"
	PropPrepared   = "prepared"
)

// NewNode returns a node of provided class. Node must be added to a
// container before it can be connected.
func NewNode(class *Class, name string) *Node {
	return &Node{
		uid:    xid.New(),
		name:   name,
		class:  class,
		inputs: make([]slot, len(class.inputs)),
	}
}

// UID returns unique id of the node.
func (n *Node) UID() string {
	return n.uid.String()
}

// Name returns node name.
func (n *Node) Name() string {
	return n.name
}

// Class returns node class.
func (n *Node) Class() *Class {
	return n.class
}

// Parent returns container of the node.
func (n *Node) Parent() *Container {
	return n.parent
}

// Prepared returns true if node is prepared.
func (n *Node) Prepared() bool {
	return n.prepared
}

// Pos returns node position.
func (n *Node) Pos() (x, y float64) {
	return n.x, n.y
}

func (n *Node) String() string {
	if n == nil {
		return "<nil node>"
	}
	return fmt.Sprintf("%s(%s)", n.name, n.class.name)
}

// FindInput returns index of input channel by ident.
func (n *Node) FindInput(ident string) (int, bool) {
	ident = Canonify(ident)
	for i, ch := range n.class.inputs {
		if ch.Ident == ident {
			return i, true
		}
	}
	return 0, false
}

// FindOutput returns index of output channel by ident.
func (n *Node) FindOutput(ident string) (int, bool) {
	ident = Canonify(ident)
	for i, ch := range n.class.outputs {
		if ch.Ident == ident {
			return i, true
		}
	}
	return 0, false
}

// NumInputs returns number of input channels.
func (n *Node) NumInputs() int {
	return len(n.class.inputs)
}

// NumOutputs returns number of output channels.
func (n *Node) NumOutputs() int {
	return len(n.class.outputs)
}

// IsJoint returns true if input channel is joint.
func (n *Node) IsJoint(ichannel int) bool {
	return ichannel >= 0 && ichannel < len(n.class.inputs) && n.class.inputs[ichannel].Joint
}

// Input returns the edge of singular input channel.
func (n *Node) Input(ichannel int) (*Node, int, bool) {
	if ichannel < 0 || ichannel >= len(n.inputs) || n.IsJoint(ichannel) {
		return nil, 0, false
	}
	e := n.inputs[ichannel].edge
	return e.Producer, e.OChannel, e.Producer != nil
}

// Joints returns a copy of edges of joint input channel.
func (n *Node) Joints(ichannel int) []Edge {
	if !n.IsJoint(ichannel) {
		return nil
	}
	return append([]Edge(nil), n.inputs[ichannel].joints...)
}

// Edges returns a copy of edges of input channel.
func (n *Node) Edges(ichannel int) []Edge {
	if ichannel < 0 || ichannel >= len(n.inputs) {
		return nil
	}
	return append([]Edge(nil), n.inputs[ichannel].edges(n.IsJoint(ichannel))...)
}

// Consumers returns a copy of consumers list. A consumer is listed once
// per edge it reads from the node.
func (n *Node) Consumers() []*Node {
	return append([]*Node(nil), n.consumers...)
}

// HasOutput returns true if any consumer reads output channel.
func (n *Node) HasOutput(ochannel int) bool {
	for _, c := range n.consumers {
		for i := range c.inputs {
			for _, e := range c.inputs[i].edges(c.IsJoint(i)) {
				if e.Producer == n && e.OChannel == ochannel {
					return true
				}
			}
		}
	}
	return false
}

// HasOutputs returns true if node has consumers.
func (n *Node) HasOutputs() bool {
	return len(n.consumers) > 0
}

// Observe registers function called on property changes.
func (n *Node) Observe(fn ObserverFunc) {
	n.observers = append(n.observers, fn)
}

// InUse returns true while an edit on the node is in flight.
func (n *Node) InUse() bool {
	return n.refs > 0
}

func (n *Node) ref() {
	n.refs++
}

func (n *Node) unref() {
	if n.refs == 0 {
		log.Integrity(n.logger(), "%v: unref without ref", n)
		return
	}
	n.refs--
}

// freeze defers notifications until matching thaw.
func (n *Node) freeze() {
	n.frozen++
}

func (n *Node) thaw() {
	if n.frozen == 0 {
		log.Integrity(n.logger(), "%v: thaw without freeze", n)
		return
	}
	n.frozen--
	if n.frozen > 0 {
		return
	}
	pending := n.pending
	n.pending = nil
	for _, prop := range pending {
		n.emit(prop)
	}
}

// notify reports changed property. Repeated notifications of frozen node
// are reported once.
func (n *Node) notify(prop string) {
	if n.frozen > 0 {
		for _, p := range n.pending {
			if p == prop {
				return
			}
		}
		n.pending = append(n.pending, prop)
		return
	}
	n.emit(prop)
}

func (n *Node) emit(prop string) {
	for _, fn := range n.observers {
		fn(n, prop)
	}
}

func (n *Node) logger() log.Logger {
	if n.parent == nil {
		return log.Silent{}
	}
	return n.parent.log
}

func (n *Node) engine() Engine {
	if n.parent == nil {
		return detached{}
	}
	return n.parent.engine
}

func (s *slot) edges(joint bool) []Edge {
	if joint {
		return s.joints
	}
	if s.edge.Producer == nil {
		return nil
	}
	return []Edge{s.edge}
}
