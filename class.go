package patch

import (
	"fmt"
	"sort"
	"sync"
)

type (
	// Channel describes an input or output slot of a class.
	Channel struct {
		Ident string
		Label string
		Help  string
		Joint bool
		// Stream is an index of the real-time stream. Joint inputs index
		// the joint stream pool, singular inputs the singular stream pool
		// and outputs the output stream pool.
		Stream int
	}

	// Param describes a class parameter.
	Param struct {
		Name string
		// Automate allows binding parameter to control signal.
		Automate bool
		// Unprepared parameters can only be edited while node is not
		// prepared.
		Unprepared bool
	}

	// Class is a node type. It holds channel tables, parameters and hooks
	// shared by all nodes of the type.
	Class struct {
		name      string
		inputs    []Channel
		outputs   []Channel
		nIStreams int
		nJStreams int
		params    []Param
		hooks     Hooks
	}

	// ClassOption provides a way to set options to class.
	ClassOption func(*Class)
)

// NewClass returns a class with no channels.
func NewClass(name string, options ...ClassOption) *Class {
	c := Class{
		name:  name,
		hooks: BaseHooks{},
	}
	for _, option := range options {
		option(&c)
	}
	return &c
}

// WithHooks sets lifecycle hooks of the class.
func WithHooks(h Hooks) ClassOption {
	return func(c *Class) {
		c.hooks = h
	}
}

// Inherit copies channels and params of parent class. Derived class can
// add its own channels after parent ones, indices of parent channels are
// kept stable.
func Inherit(parent *Class) ClassOption {
	return func(c *Class) {
		c.inputs = append([]Channel(nil), parent.inputs...)
		c.outputs = append([]Channel(nil), parent.outputs...)
		c.params = append([]Param(nil), parent.params...)
		c.nIStreams = parent.nIStreams
		c.nJStreams = parent.nJStreams
		c.hooks = parent.hooks
	}
}

// Name returns class name.
func (c *Class) Name() string {
	return c.name
}

// Hooks returns class hooks.
func (c *Class) Hooks() Hooks {
	return c.hooks
}

// AddInput registers singular input channel.
func (c *Class) AddInput(ident, label, help string) (int, error) {
	return c.addInput(ident, label, help, false)
}

// AddJoint registers joint input channel.
func (c *Class) AddJoint(ident, label, help string) (int, error) {
	return c.addInput(ident, label, help, true)
}

// AddOutput registers output channel.
func (c *Class) AddOutput(ident, label, help string) (int, error) {
	ident, err := c.checkIdent(ident)
	if err != nil {
		return 0, err
	}
	c.outputs = append(c.outputs, Channel{
		Ident:  ident,
		Label:  label,
		Help:   help,
		Stream: len(c.outputs),
	})
	return len(c.outputs) - 1, nil
}

func (c *Class) addInput(ident, label, help string, joint bool) (int, error) {
	ident, err := c.checkIdent(ident)
	if err != nil {
		return 0, err
	}
	ch := Channel{
		Ident: ident,
		Label: label,
		Help:  help,
		Joint: joint,
	}
	if joint {
		ch.Stream = c.nJStreams
		c.nJStreams++
	} else {
		ch.Stream = c.nIStreams
		c.nIStreams++
	}
	c.inputs = append(c.inputs, ch)
	return len(c.inputs) - 1, nil
}

// checkIdent returns canonical ident if it's not taken by any channel.
func (c *Class) checkIdent(ident string) (string, error) {
	canon := Canonify(ident)
	if canon == "" {
		return "", fmt.Errorf("channel ident %q: %w", ident, ErrInvalidParam)
	}
	for _, ch := range c.inputs {
		if ch.Ident == canon {
			return "", fmt.Errorf("%s channel %q: %w", c.name, canon, ErrChannelExists)
		}
	}
	for _, ch := range c.outputs {
		if ch.Ident == canon {
			return "", fmt.Errorf("%s channel %q: %w", c.name, canon, ErrChannelExists)
		}
	}
	return canon, nil
}

// AddParam registers parameter of the class.
func (c *Class) AddParam(p Param) error {
	if p.Name == "" {
		return fmt.Errorf("param name: %w", ErrInvalidParam)
	}
	if _, ok := c.Param(p.Name); ok {
		return fmt.Errorf("%s param %q: %w", c.name, p.Name, ErrInvalidProperty)
	}
	c.params = append(c.params, p)
	return nil
}

// Param returns parameter by name.
func (c *Class) Param(name string) (Param, bool) {
	for _, p := range c.params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Params returns a copy of class parameters.
func (c *Class) Params() []Param {
	return append([]Param(nil), c.params...)
}

// Inputs returns a copy of input channel table.
func (c *Class) Inputs() []Channel {
	return append([]Channel(nil), c.inputs...)
}

// Outputs returns a copy of output channel table.
func (c *Class) Outputs() []Channel {
	return append([]Channel(nil), c.outputs...)
}

// NumIStreams returns size of singular input stream pool.
func (c *Class) NumIStreams() int {
	return c.nIStreams
}

// NumJStreams returns size of joint input stream pool.
func (c *Class) NumJStreams() int {
	return c.nJStreams
}

// Canonify returns canonical channel ident: lower-cased ASCII letters and
// digits where every run of other characters is replaced with a single
// dash.
func Canonify(ident string) string {
	b := make([]byte, 0, len(ident))
	dash := false
	for i := 0; i < len(ident); i++ {
		ch := ident[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
			ch += 'a' - 'A'
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
		default:
			if !dash {
				b = append(b, '-')
				dash = true
			}
			continue
		}
		b = append(b, ch)
		dash = false
	}
	return string(b)
}

// registry holds classes available by name. Classes are registered once
// during initialization.
var registry = struct {
	sync.RWMutex
	classes map[string]*Class
}{
	classes: make(map[string]*Class),
}

// Register makes class available by its name.
func Register(c *Class) error {
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.classes[c.name]; ok {
		return fmt.Errorf("class %q is registered already", c.name)
	}
	registry.classes[c.name] = c
	return nil
}

// MustRegister registers class and panics on error.
func MustRegister(c *Class) *Class {
	if err := Register(c); err != nil {
		panic(err)
	}
	return c
}

// LookupClass returns registered class.
func LookupClass(name string) (*Class, bool) {
	registry.RLock()
	defer registry.RUnlock()
	c, ok := registry.classes[name]
	return c, ok
}

// Classes returns sorted names of registered classes.
func Classes() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.classes))
	for name := range registry.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
