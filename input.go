package patch

import (
	"fmt"

	"pipelined.dev/patch/engine"
	"pipelined.dev/patch/log"
)

// SetInput connects output channel of producer to input channel of
// consumer. All checks are done before anything is changed. If nodes are
// prepared, every context of consumer is connected in one transaction.
func SetInput(consumer *Node, ichannel int, producer *Node, ochannel int) error {
	if consumer == nil || producer == nil {
		return fmt.Errorf("set input: %w", ErrInvalidParam)
	}
	if err := checkParent(consumer, producer); err != nil {
		return err
	}
	if consumer.prepared != producer.prepared ||
		(consumer.prepared && len(consumer.contexts) != len(producer.contexts)) {
		return fmt.Errorf("%v and %v: %w", consumer, producer, ErrPreparedMismatch)
	}
	if ichannel < 0 || ichannel >= consumer.NumInputs() {
		return fmt.Errorf("%v input %d: %w", consumer, ichannel, ErrNoSuchIChannel)
	}
	if ochannel < 0 || ochannel >= producer.NumOutputs() {
		return fmt.Errorf("%v output %d: %w", producer, ochannel, ErrNoSuchOChannel)
	}
	s := &consumer.inputs[ichannel]
	if consumer.IsJoint(ichannel) {
		for _, e := range s.joints {
			if e.Producer == producer && e.OChannel == ochannel {
				return fmt.Errorf("%v input %d: %w", consumer, ichannel, ErrChannelsConnected)
			}
		}
	} else if s.edge.Producer != nil {
		return fmt.Errorf("%v input %d: %w", consumer, ichannel, ErrChannelInUse)
	}
	if feeds(consumer, producer) {
		return fmt.Errorf("%v to %v: %w", producer, consumer, ErrBadLoopback)
	}

	consumer.ref()
	producer.ref()
	defer consumer.unref()
	defer producer.unref()

	e := Edge{Producer: producer, OChannel: ochannel}
	joint := consumer.IsJoint(ichannel)
	if joint {
		s.joints = append(s.joints, e)
	} else {
		s.edge = e
	}
	producer.consumers = append([]*Node{consumer}, producer.consumers...)

	if consumer.prepared && len(consumer.contexts) > 0 {
		eng := consumer.engine()
		t := eng.Open()
		ch := consumer.class.inputs[ichannel]
		ostream := producer.class.outputs[ochannel].Stream
		for _, ctx := range consumer.contexts {
			imodule := ctx.imodule
			omodule := producer.ContextOModule(ctx.handle)
			if imodule == nil || omodule == nil {
				log.Integrity(consumer.logger(), "%v: context %d of %v is missing modules", consumer, ctx.handle, producer)
				continue
			}
			if joint {
				t.Add(engine.JConnect(omodule, ostream, imodule, ch.Stream))
			} else {
				t.Add(engine.Connect(omodule, ostream, imodule, ch.Stream))
			}
		}
		eng.Commit(t)
	}
	consumer.notify(PropIO)
	producer.notify(PropIO)
	return nil
}

// CheckInput returns error if edge cannot be removed.
func CheckInput(consumer *Node, ichannel int, producer *Node, ochannel int) error {
	if consumer == nil || producer == nil {
		return fmt.Errorf("check input: %w", ErrInvalidParam)
	}
	if err := checkParent(consumer, producer); err != nil {
		return err
	}
	if ichannel < 0 || ichannel >= consumer.NumInputs() {
		return fmt.Errorf("%v input %d: %w", consumer, ichannel, ErrNoSuchIChannel)
	}
	if ochannel < 0 || ochannel >= producer.NumOutputs() {
		return fmt.Errorf("%v output %d: %w", producer, ochannel, ErrNoSuchOChannel)
	}
	if findEdge(consumer, ichannel, producer, ochannel) < 0 {
		return fmt.Errorf("%v input %d from %v output %d: %w", consumer, ichannel, producer, ochannel, ErrNoSuchConnection)
	}
	return nil
}

// UnsetInput removes the edge. If nodes are prepared, every context of
// consumer is disconnected in one transaction.
func UnsetInput(consumer *Node, ichannel int, producer *Node, ochannel int) error {
	if err := CheckInput(consumer, ichannel, producer, ochannel); err != nil {
		return err
	}
	consumer.ref()
	producer.ref()
	defer consumer.unref()
	defer producer.unref()
	removeInput(consumer, ichannel, findEdge(consumer, ichannel, producer, ochannel))
	consumer.notify(PropIO)
	producer.notify(PropIO)
	return nil
}

// removeInput removes edge at provided index of input slot.
func removeInput(consumer *Node, ichannel, idx int) {
	s := &consumer.inputs[ichannel]
	joint := consumer.IsJoint(ichannel)
	var e Edge
	if joint {
		e = s.joints[idx]
	} else {
		e = s.edge
	}
	producer := e.Producer

	if consumer.prepared && len(consumer.contexts) > 0 {
		eng := consumer.engine()
		t := eng.Open()
		ch := consumer.class.inputs[ichannel]
		ostream := producer.class.outputs[e.OChannel].Stream
		for _, ctx := range consumer.contexts {
			if ctx.imodule == nil {
				log.Integrity(consumer.logger(), "%v: context %d has no input module", consumer, ctx.handle)
				continue
			}
			if joint {
				omodule := producer.ContextOModule(ctx.handle)
				if omodule == nil {
					log.Integrity(consumer.logger(), "%v: context %d has no output module", producer, ctx.handle)
					continue
				}
				t.Add(engine.JDisconnect(ctx.imodule, ch.Stream, omodule, ostream))
			} else {
				t.Add(engine.Disconnect(ctx.imodule, ch.Stream))
			}
		}
		eng.Commit(t)
	}

	if joint {
		last := len(s.joints) - 1
		s.joints[idx] = s.joints[last]
		s.joints = s.joints[:last]
	} else {
		s.edge = Edge{}
	}
	for i, c := range producer.consumers {
		if c == consumer {
			producer.consumers = append(producer.consumers[:i], producer.consumers[i+1:]...)
			break
		}
	}
}

// findEdge returns index of the edge in input slot or -1.
func findEdge(consumer *Node, ichannel int, producer *Node, ochannel int) int {
	s := &consumer.inputs[ichannel]
	if !consumer.IsJoint(ichannel) {
		if s.edge.Producer == producer && s.edge.OChannel == ochannel {
			return 0
		}
		return -1
	}
	for i, e := range s.joints {
		if e.Producer == producer && e.OChannel == ochannel {
			return i
		}
	}
	return -1
}

// ClearInputs removes all incoming edges of the node.
func ClearInputs(n *Node) {
	n.ref()
	defer n.unref()
	for i := range n.inputs {
		for {
			edges := n.inputs[i].edges(n.IsJoint(i))
			if len(edges) == 0 {
				break
			}
			removeInput(n, i, len(edges)-1)
			edges[len(edges)-1].Producer.notify(PropIO)
		}
	}
	n.notify(PropIO)
}

// ClearOutputs removes all outgoing edges of the node.
func ClearOutputs(n *Node) {
	n.ref()
	defer n.unref()
	for len(n.consumers) > 0 {
		c := n.consumers[0]
		i, idx := producerEdge(c, n)
		if i < 0 {
			log.Integrity(n.logger(), "%v: consumer %v has no edge from node", n, c)
			n.consumers = n.consumers[1:]
			continue
		}
		removeInput(c, i, idx)
		c.notify(PropIO)
	}
	n.notify(PropIO)
}

// producerEdge returns the last edge of consumer which reads producer.
func producerEdge(consumer, producer *Node) (ichannel, idx int) {
	for i := len(consumer.inputs) - 1; i >= 0; i-- {
		edges := consumer.inputs[i].edges(consumer.IsJoint(i))
		for j := len(edges) - 1; j >= 0; j-- {
			if edges[j].Producer == producer {
				return i, j
			}
		}
	}
	return -1, -1
}

// checkParent returns error if nodes don't share the parent.
func checkParent(consumer, producer *Node) error {
	ancestor := CommonAncestor(consumer, producer)
	if ancestor == nil || ancestor != consumer.parent || ancestor != producer.parent {
		return fmt.Errorf("%v and %v: %w", consumer, producer, ErrParentMismatch)
	}
	return nil
}
