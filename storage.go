package patch

import (
	"fmt"

	"pipelined.dev/patch/log"
	"pipelined.dev/patch/midi"
	"pipelined.dev/patch/undo"
)

type (
	// InputStatement describes one stored edge of a consumer.
	InputStatement struct {
		IChannel string
		// Producer is a path of producer relative to consumer parent.
		Producer string
		OChannel string
	}

	// AutomationStatement describes one stored automation binding.
	AutomationStatement struct {
		Param   string
		Channel int
		Control string
	}
)

func (s InputStatement) String() string {
	return fmt.Sprintf("(source-input %q %q %q)", s.IChannel, s.Producer, s.OChannel)
}

func (s AutomationStatement) String() string {
	return fmt.Sprintf("(source-automate %q %d %s)", s.Param, s.Channel, s.Control)
}

// InputStatements returns statements for all incoming edges in channel
// order.
func (n *Node) InputStatements() []InputStatement {
	var statements []InputStatement
	for i, ch := range n.class.inputs {
		for _, e := range n.inputs[i].edges(ch.Joint) {
			statements = append(statements, InputStatement{
				IChannel: ch.Ident,
				Producer: n.parent.Path(e.Producer),
				OChannel: e.Producer.class.outputs[e.OChannel].Ident,
			})
		}
	}
	return statements
}

// AutomationStatements returns statements for bound parameters.
func (n *Node) AutomationStatements() []AutomationStatement {
	var statements []AutomationStatement
	for _, a := range n.Automations() {
		statements = append(statements, AutomationStatement{
			Param:   a.Param,
			Channel: a.Channel,
			Control: a.Control.String(),
		})
	}
	return statements
}

// NeedsStorage returns true if node has state which is not defined by its
// class: edges, automation or position.
func (n *Node) NeedsStorage() bool {
	for i := range n.inputs {
		if len(n.inputs[i].edges(n.IsJoint(i))) > 0 {
			return true
		}
	}
	return len(n.Automations()) > 0 || n.x != 0 || n.y != 0
}

// ApplyAutomation parses statement and binds the parameter.
func (n *Node) ApplyAutomation(s AutomationStatement) error {
	control, err := midi.ParseControl(s.Control)
	if err != nil {
		return fmt.Errorf("%v automate %q: %v: %w", n, s.Param, err, ErrInvalidMidiControl)
	}
	return n.SetAutomation(s.Param, s.Channel, control)
}

// Linker resolves input statements once all nodes of a container exist.
type Linker struct {
	container *Container
	log       log.Logger
	deferred  []deferred
}

type deferred struct {
	consumer  *Node
	statement InputStatement
}

// NewLinker returns linker of container nodes.
func NewLinker(c *Container) *Linker {
	return &Linker{
		container: c,
		log:       c.log,
	}
}

// Defer queues statement of consumer.
func (l *Linker) Defer(consumer *Node, s InputStatement) {
	l.deferred = append(l.deferred, deferred{consumer: consumer, statement: s})
}

// Len returns number of queued statements.
func (l *Linker) Len() int {
	return len(l.deferred)
}

// Resolve connects all queued statements. Failed statements don't stop
// resolution, their errors are returned together.
func (l *Linker) Resolve() error {
	var errs LinkErrors
	for _, d := range l.deferred {
		if err := l.link(d); err != nil {
			l.log.Warn(err)
			errs = append(errs, err)
		}
	}
	l.deferred = nil
	return errs.ret()
}

func (l *Linker) link(d deferred) error {
	parent := d.consumer.parent
	if parent == nil {
		parent = l.container
	}
	producer, err := parent.Resolve(d.statement.Producer)
	if err != nil {
		return fmt.Errorf("link %v %v: %w", d.consumer, d.statement, err)
	}
	if err := d.consumer.SetInputByName(d.statement.IChannel, producer, d.statement.OChannel); err != nil {
		return fmt.Errorf("link %v %v: %w", d.consumer, d.statement, err)
	}
	return nil
}

// BackupInputsToUndo records steps which restore all incoming edges. It's
// used before node is overwritten.
func (n *Node) BackupInputsToUndo() {
	s := n.undoStack()
	s.Open("backup-inputs")
	defer s.Close()
	// newest step runs first, so edges are restored in their order.
	for i := len(n.inputs) - 1; i >= 0; i-- {
		edges := n.inputs[i].edges(n.IsJoint(i))
		for j := len(edges) - 1; j >= 0; j-- {
			backupInput(s, n, i, edges[j].Producer, edges[j].OChannel)
		}
	}
}

// BackupOutputsToUndo records steps which restore all outgoing edges.
func (n *Node) BackupOutputsToUndo() {
	s := n.undoStack()
	s.Open("backup-outputs")
	defer s.Close()
	seen := map[*Node]struct{}{}
	for _, c := range n.consumers {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		for i := len(c.inputs) - 1; i >= 0; i-- {
			edges := c.inputs[i].edges(c.IsJoint(i))
			for j := len(edges) - 1; j >= 0; j-- {
				if edges[j].Producer == n {
					backupInput(s, c, i, n, edges[j].OChannel)
				}
			}
		}
	}
}

// BackupAutomationToUndo records steps which restore all automation
// bindings.
func (n *Node) BackupAutomationToUndo() {
	if n.parent == nil {
		return
	}
	s := n.undoStack()
	s.Open("backup-automation")
	defer s.Close()
	r := refOf(n)
	for _, a := range n.automation {
		a := a
		s.Push(undo.NewStep("set-automation", func() error {
			node, err := r.resolve()
			if err != nil {
				return err
			}
			return node.SetAutomation(a.Param, a.Channel, a.Control)
		}))
	}
}

// ClearAutomation drops all bindings without recording them.
func (n *Node) ClearAutomation() error {
	if n.prepared {
		return fmt.Errorf("%v clear automation: %w", n, ErrSourceBusy)
	}
	if len(n.automation) == 0 {
		return nil
	}
	n.automation = nil
	n.notify(PropAutomation)
	return nil
}
