package patch

import (
	"fmt"
	"math"

	"pipelined.dev/patch/midi"
	"pipelined.dev/patch/undo"
)

// posEpsilon is the smallest position change which is recorded.
const posEpsilon = 1e-5

// ref is a node reference which survives removal and restore of the node.
// It's resolved when undo step is executed.
type ref struct {
	root *Container
	path string
}

func refOf(n *Node) ref {
	root := n.parent.Root()
	return ref{root: root, path: root.Path(n)}
}

func (r ref) resolve() (*Node, error) {
	return r.root.Resolve(r.path)
}

// undoStack returns the stack where edits of the node are recorded.
func (n *Node) undoStack() *undo.Stack {
	return n.parent.undoStack()
}

// SetInputByName connects channels by their idents.
func (n *Node) SetInputByName(ichannel string, producer *Node, ochannel string) error {
	ich, och, err := resolveChannels(n, ichannel, producer, ochannel)
	if err != nil {
		return err
	}
	return n.SetInputByID(ich, producer, och)
}

// SetInputByID connects channels by their indices. Undo removes the edge.
func (n *Node) SetInputByID(ichannel int, producer *Node, ochannel int) error {
	if err := SetInput(n, ichannel, producer, ochannel); err != nil {
		return err
	}
	consumer, source := refOf(n), refOf(producer)
	s := n.undoStack()
	s.Open("set-input-by-id")
	s.Push(undo.NewStep("set-input-by-id", func() error {
		c, p, err := resolvePair(consumer, source)
		if err != nil {
			return err
		}
		return c.UnsetInputByID(ichannel, p, ochannel)
	}))
	s.Close()
	return nil
}

// UnsetInputByName disconnects channels by their idents.
func (n *Node) UnsetInputByName(ichannel string, producer *Node, ochannel string) error {
	ich, och, err := resolveChannels(n, ichannel, producer, ochannel)
	if err != nil {
		return err
	}
	return n.UnsetInputByID(ich, producer, och)
}

// UnsetInputByID disconnects channels by their indices. Undo restores the
// edge.
func (n *Node) UnsetInputByID(ichannel int, producer *Node, ochannel int) error {
	if err := CheckInput(n, ichannel, producer, ochannel); err != nil {
		return err
	}
	s := n.undoStack()
	s.Open("unset-input-by-id")
	defer s.Close()
	backupInput(s, n, ichannel, producer, ochannel)
	return UnsetInput(n, ichannel, producer, ochannel)
}

// ClearInputs removes all incoming edges recording them in history.
func (n *Node) ClearInputs() {
	n.ref()
	defer n.unref()
	s := n.undoStack()
	s.Open("clear-inputs")
	defer s.Close()
	for i := range n.inputs {
		for {
			edges := n.inputs[i].edges(n.IsJoint(i))
			if len(edges) == 0 {
				break
			}
			e := edges[len(edges)-1]
			if err := n.UnsetInputByID(i, e.Producer, e.OChannel); err != nil {
				// raw removal keeps the loop finite.
				removeInput(n, i, len(edges)-1)
			}
		}
	}
}

// ClearOutputs removes all outgoing edges recording them in history.
func (n *Node) ClearOutputs() {
	n.ref()
	defer n.unref()
	s := n.undoStack()
	s.Open("clear-outputs")
	defer s.Close()
	for len(n.consumers) > 0 {
		c := n.consumers[0]
		i, idx := producerEdge(c, n)
		if i < 0 {
			n.consumers = n.consumers[1:]
			continue
		}
		e := c.inputs[i].edges(c.IsJoint(i))[idx]
		if err := c.UnsetInputByID(i, n, e.OChannel); err != nil {
			removeInput(c, i, idx)
		}
	}
}

// SetPos moves the node. Changes smaller than epsilon are ignored.
func (n *Node) SetPos(x, y float64) {
	if math.Abs(x-n.x) <= posEpsilon && math.Abs(y-n.y) <= posEpsilon {
		return
	}
	oldX, oldY := n.x, n.y
	s := n.undoStack()
	s.Open("set-xy-pos")
	if n.parent != nil {
		r := refOf(n)
		s.Push(undo.NewStep("set-xy-pos", func() error {
			node, err := r.resolve()
			if err != nil {
				return err
			}
			node.SetPos(oldX, oldY)
			return nil
		}))
	}
	n.x, n.y = x, y
	n.notify(PropPos)
	s.Close()
}

// SetAutomation binds parameter to control signal. Undo restores previous
// binding.
func (n *Node) SetAutomation(param string, channel int, control midi.Control) error {
	if channel < 0 || param == "" {
		return fmt.Errorf("%v automate %q channel %d: %w", n, param, channel, ErrInvalidParam)
	}
	old, _ := n.automationOf(param)
	if old.Channel == channel && old.Control == control {
		return nil
	}
	if err := n.setAutomationProperty(param, channel, control); err != nil {
		return err
	}
	if n.parent == nil {
		return nil
	}
	r := refOf(n)
	s := n.undoStack()
	s.Open("set-automation")
	s.Push(undo.NewStep("set-automation", func() error {
		node, err := r.resolve()
		if err != nil {
			return err
		}
		return node.SetAutomation(param, old.Channel, old.Control)
	}))
	s.Close()
	return nil
}

// backupInput records a step which restores the edge.
func backupInput(s *undo.Stack, consumer *Node, ichannel int, producer *Node, ochannel int) {
	c, p := refOf(consumer), refOf(producer)
	s.Push(undo.NewStep("set-input-by-id", func() error {
		consumer, producer, err := resolvePair(c, p)
		if err != nil {
			return err
		}
		return consumer.SetInputByID(ichannel, producer, ochannel)
	}))
}

func resolvePair(consumer, producer ref) (*Node, *Node, error) {
	c, err := consumer.resolve()
	if err != nil {
		return nil, nil, err
	}
	p, err := producer.resolve()
	if err != nil {
		return nil, nil, err
	}
	return c, p, nil
}

func resolveChannels(consumer *Node, ichannel string, producer *Node, ochannel string) (int, int, error) {
	if consumer == nil || producer == nil {
		return 0, 0, fmt.Errorf("resolve channels: %w", ErrInvalidParam)
	}
	ich, ok := consumer.FindInput(ichannel)
	if !ok {
		return 0, 0, fmt.Errorf("%v input %q: %w", consumer, ichannel, ErrNoSuchIChannel)
	}
	och, ok := producer.FindOutput(ochannel)
	if !ok {
		return 0, 0, fmt.Errorf("%v output %q: %w", producer, ochannel, ErrNoSuchOChannel)
	}
	return ich, och, nil
}
