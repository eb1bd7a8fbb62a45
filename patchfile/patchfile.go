// Package patchfile stores nodes of a container as YAML.
//
// A file lists nodes with their class, position, incoming edges and
// automation bindings:
//
//	nodes:
//	  - name: osc-1
//	    class: osc
//	  - name: amp-1
//	    class: amp
//	    x: 120
//	    inputs:
//	      - channel: audio-in
//	        from: osc-1
//	        output: audio-out
//	    automation:
//	      - param: gain
//	        channel: 1
//	        control: control-7
//
// Only direct nodes of the container are stored.
package patchfile

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"pipelined.dev/patch"
)

// ErrDuplicateNode is returned if file describes the same node twice.
var ErrDuplicateNode = errors.New("duplicate node")

type (
	// File is the document root.
	File struct {
		Nodes []Node `yaml:"nodes"`
	}

	// Node is a stored node.
	Node struct {
		Name       string       `yaml:"name"`
		Class      string       `yaml:"class"`
		X          float64      `yaml:"x,omitempty"`
		Y          float64      `yaml:"y,omitempty"`
		Inputs     []Input      `yaml:"inputs,omitempty"`
		Automation []Automation `yaml:"automation,omitempty"`
	}

	// Input is a stored edge. From is a path of producer relative to the
	// container.
	Input struct {
		Channel string `yaml:"channel"`
		From    string `yaml:"from"`
		Output  string `yaml:"output"`
	}

	// Automation is a stored automation binding.
	Automation struct {
		Param   string `yaml:"param"`
		Channel int    `yaml:"channel"`
		Control string `yaml:"control"`
	}
)

// Decode reads a file. Empty input is an empty file.
func Decode(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("decode patch: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Nodes))
	for _, n := range f.Nodes {
		if _, ok := seen[n.Name]; ok {
			return File{}, fmt.Errorf("node %q: %w", n.Name, ErrDuplicateNode)
		}
		seen[n.Name] = struct{}{}
	}
	return f, nil
}

// Load reads a file into container. Nodes which already exist with the
// same class are overwritten, their previous edges and bindings are backed
// up to undo history. The whole load is one undo group. Edges are linked
// after every node exists, link failures are returned together as
// patch.LinkErrors.
func Load(r io.Reader, c *patch.Container) error {
	f, err := Decode(r)
	if err != nil {
		return err
	}
	if h := c.History(); h != nil {
		s := h.Stack()
		s.Open("load")
		defer s.Close()
	}

	linker := patch.NewLinker(c)
	for _, sn := range f.Nodes {
		n, err := place(c, sn)
		if err != nil {
			return err
		}
		n.SetPos(sn.X, sn.Y)
		for _, a := range sn.Automation {
			if err := n.ApplyAutomation(patch.AutomationStatement{
				Param:   a.Param,
				Channel: a.Channel,
				Control: a.Control,
			}); err != nil {
				return err
			}
		}
		for _, in := range sn.Inputs {
			linker.Defer(n, patch.InputStatement{
				IChannel: in.Channel,
				Producer: in.From,
				OChannel: in.Output,
			})
		}
	}
	return linker.Resolve()
}

// place returns a node ready to receive stored state.
func place(c *patch.Container, sn Node) (*patch.Node, error) {
	class, ok := patch.LookupClass(sn.Class)
	if !ok {
		return nil, fmt.Errorf("node %q class %q: %w", sn.Name, sn.Class, patch.ErrNoSuchClass)
	}
	if n, ok := c.Node(sn.Name); ok {
		if n.Class() == class {
			n.BackupInputsToUndo()
			n.BackupAutomationToUndo()
			patch.ClearInputs(n)
			if err := n.ClearAutomation(); err != nil {
				return nil, err
			}
			return n, nil
		}
		if err := c.Remove(n); err != nil {
			return nil, err
		}
	}
	n := patch.NewNode(class, sn.Name)
	if err := c.Add(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Encode returns file describing container nodes.
func Encode(c *patch.Container) File {
	var f File
	for _, n := range c.Nodes() {
		sn := Node{
			Name:  n.Name(),
			Class: n.Class().Name(),
		}
		if n.NeedsStorage() {
			sn.X, sn.Y = n.Pos()
			for _, s := range n.InputStatements() {
				sn.Inputs = append(sn.Inputs, Input{
					Channel: s.IChannel,
					From:    s.Producer,
					Output:  s.OChannel,
				})
			}
			for _, s := range n.AutomationStatements() {
				sn.Automation = append(sn.Automation, Automation{
					Param:   s.Param,
					Channel: s.Channel,
					Control: s.Control,
				})
			}
		}
		f.Nodes = append(f.Nodes, sn)
	}
	return f
}

// Save writes container nodes.
func Save(w io.Writer, c *patch.Container) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Encode(c)); err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	return enc.Close()
}
