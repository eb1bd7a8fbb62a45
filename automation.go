package patch

import (
	"fmt"
	"sort"

	"pipelined.dev/patch/midi"
)

// Automation binds parameter to a control signal on a midi channel.
type Automation struct {
	Param   string
	Channel int
	Control midi.Control
}

// setAutomationProperty updates automation table. Observers are notified
// only if the binding changed.
func (n *Node) setAutomationProperty(param string, channel int, control midi.Control) error {
	if n.prepared {
		return fmt.Errorf("%v automate %q: %w", n, param, ErrSourceBusy)
	}
	if !control.Valid() {
		return fmt.Errorf("%v automate %q with %v: %w", n, param, control, ErrInvalidMidiControl)
	}
	if p, ok := n.class.Param(param); !ok || !p.Automate {
		return fmt.Errorf("%v automate %q: %w", n, param, ErrInvalidProperty)
	}
	i := sort.Search(len(n.automation), func(i int) bool {
		return n.automation[i].Param >= param
	})
	if i == len(n.automation) || n.automation[i].Param != param {
		n.automation = append(n.automation, Automation{})
		copy(n.automation[i+1:], n.automation[i:])
		n.automation[i] = Automation{Param: param}
	}
	a := &n.automation[i]
	if a.Channel == channel && a.Control == control {
		return nil
	}
	a.Channel = channel
	a.Control = control
	n.notify(PropAutomation)
	return nil
}

func (n *Node) automationOf(param string) (Automation, bool) {
	i := sort.Search(len(n.automation), func(i int) bool {
		return n.automation[i].Param >= param
	})
	if i < len(n.automation) && n.automation[i].Param == param {
		return n.automation[i], true
	}
	return Automation{Param: param}, false
}

// GetAutomationChannel returns midi channel bound to parameter.
func (n *Node) GetAutomationChannel(param string) int {
	a, _ := n.automationOf(param)
	return a.Channel
}

// GetAutomationControl returns control signal bound to parameter or
// midi.None.
func (n *Node) GetAutomationControl(param string) midi.Control {
	a, _ := n.automationOf(param)
	return a.Control
}

// Automations returns a copy of bound parameters sorted by name. Unbound
// entries are skipped.
func (n *Node) Automations() []Automation {
	var result []Automation
	for _, a := range n.automation {
		if a.Control != midi.None {
			result = append(result, a)
		}
	}
	return result
}
