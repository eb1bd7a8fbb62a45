// Package builtin provides basic node classes.
package builtin

import (
	"fmt"

	"pipelined.dev/patch"
	"pipelined.dev/patch/engine"
)

// Classes of the package. They are registered on init.
var (
	// Osc is an oscillator with frequency input and two outputs.
	Osc = patch.MustRegister(newOsc())
	// Amp is an amplifier with audio and control inputs.
	Amp = patch.MustRegister(newAmp())
	// Mixer mixes any number of inputs.
	Mixer = patch.MustRegister(newMixer())
	// Ctrl is a control source without channels.
	Ctrl = patch.MustRegister(newCtrl())
)

// State is the state of real-time module created by builtin classes.
type State struct {
	Gain float64
}

// moduleHooks create one module per context which serves as input and
// output module.
type moduleHooks struct {
	patch.BaseHooks
}

func (moduleHooks) CreateContext(n *patch.Node, handle int, t *engine.Trans) {
	c := n.Class()
	m := engine.NewModule(moduleName(n, handle), c.NumIStreams(), c.NumJStreams(), len(c.Outputs()))
	m.State = &State{Gain: 1}
	t.Add(engine.Integrate(m))
	n.SetContextModule(handle, m)
}

// ctrlHooks keep context state as data.
type ctrlHooks struct {
	patch.BaseHooks
}

func (ctrlHooks) ContextData(*patch.Node, int) (interface{}, func(interface{})) {
	return &State{Gain: 1}, nil
}

func (ctrlHooks) CreateContext(*patch.Node, int, *engine.Trans) {}

func (ctrlHooks) DismissContext(*patch.Node, int, *engine.Trans) {}

func newOsc() *patch.Class {
	c := patch.NewClass("osc", patch.WithHooks(moduleHooks{}))
	must(c.AddInput("freq-in", "Frequency In", "Frequency modulation input"))
	must(c.AddOutput("audio-out", "Audio Out", "Oscillated signal"))
	must(c.AddOutput("sync-out", "Sync Out", "Syncronization signal"))
	mustParam(c.AddParam(patch.Param{Name: "freq", Automate: true}))
	mustParam(c.AddParam(patch.Param{Name: "wave", Unprepared: true}))
	return c
}

func newAmp() *patch.Class {
	c := patch.NewClass("amp", patch.WithHooks(moduleHooks{}))
	must(c.AddInput("audio-in", "Audio In", "Amplified signal"))
	must(c.AddInput("ctrl-in", "Control In", "Gain control signal"))
	must(c.AddOutput("audio-out", "Audio Out", "Amplified signal"))
	mustParam(c.AddParam(patch.Param{Name: "gain", Automate: true}))
	return c
}

func newMixer() *patch.Class {
	c := patch.NewClass("mixer", patch.WithHooks(moduleHooks{}))
	must(c.AddJoint("mix", "Mix", "Mixed signals"))
	must(c.AddOutput("audio-out", "Audio Out", "Sum of inputs"))
	mustParam(c.AddParam(patch.Param{Name: "volume", Automate: true}))
	mustParam(c.AddParam(patch.Param{Name: "channels", Unprepared: true}))
	return c
}

func newCtrl() *patch.Class {
	c := patch.NewClass("ctrl", patch.WithHooks(ctrlHooks{}))
	mustParam(c.AddParam(patch.Param{Name: "value", Automate: true}))
	return c
}

// SetGain changes gain of all modules of amp or mixer node. Change is
// applied by engine.
func SetGain(n *patch.Node, gain float64) {
	eng := n.Parent().Engine()
	t := eng.Open()
	n.AccessModules(func(m *engine.Module) {
		if s, ok := m.State.(*State); ok {
			s.Gain = gain
		}
	}, t)
	eng.Commit(t)
}

// moduleName keeps modules of renamed nodes apart in engine logs.
func moduleName(n *patch.Node, handle int) string {
	return fmt.Sprintf("%s@%s#%d", n.Name(), n.UID(), handle)
}

func must(_ int, err error) {
	if err != nil {
		panic(err)
	}
}

func mustParam(err error) {
	if err != nil {
		panic(err)
	}
}
