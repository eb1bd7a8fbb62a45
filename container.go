package patch

import (
	"fmt"
	"strconv"
	"strings"

	"pipelined.dev/patch/log"
	"pipelined.dev/patch/undo"
)

// pathSeparator separates names in node paths.
const pathSeparator = "/"

// Container owns nodes and nested containers. Nodes can only be
// connected to the nodes of the same container.
type Container struct {
	name       string
	parent     *Container
	nodes      []*Node
	containers []*Container

	log     log.Logger
	engine  Engine
	history *undo.History
}

// NewContainer returns a root container. Containers without engine drop
// wiring jobs.
func NewContainer(name string, options ...Option) *Container {
	c := Container{
		name:   name,
		log:    log.Silent{},
		engine: detached{},
	}
	for _, option := range options {
		option(&c)
	}
	return &c
}

// NewContainer adds a nested container which shares engine, logger and
// history of the parent.
func (c *Container) NewContainer(name string) *Container {
	sub := &Container{
		name:    c.uniqueName(sanitize(name)),
		parent:  c,
		log:     c.log,
		engine:  c.engine,
		history: c.history,
	}
	c.containers = append(c.containers, sub)
	return sub
}

// Name returns container name.
func (c *Container) Name() string {
	return c.name
}

// Parent returns parent container.
func (c *Container) Parent() *Container {
	return c.parent
}

// Depth returns number of ancestors of the container.
func (c *Container) Depth() int {
	d := 0
	for p := c.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Root returns the outermost container.
func (c *Container) Root() *Container {
	r := c
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// History returns history of the container. It's nil if container was
// created without one.
func (c *Container) History() *undo.History {
	return c.history
}

// Engine returns runtime of the container.
func (c *Container) Engine() Engine {
	return c.engine
}

// Nodes returns a copy of nodes list.
func (c *Container) Nodes() []*Node {
	return append([]*Node(nil), c.nodes...)
}

// Containers returns a copy of nested containers list.
func (c *Container) Containers() []*Container {
	return append([]*Container(nil), c.containers...)
}

// Node returns node by name.
func (c *Container) Node(name string) (*Node, bool) {
	for _, n := range c.nodes {
		if n.name == name {
			return n, true
		}
	}
	return nil, false
}

// undoStack returns stack that records edits at the moment.
func (c *Container) undoStack() *undo.Stack {
	if c == nil || c.history == nil {
		return undo.Dummy()
	}
	return c.history.Stack()
}

// Add puts node into container. Name of the node is made unique within
// container; empty name is derived from class name.
func (c *Container) Add(n *Node) error {
	if n.parent != nil {
		return fmt.Errorf("%v is owned by %s: %w", n, n.parent.name, ErrParentMismatch)
	}
	name := sanitize(n.name)
	if name == "" {
		name = Canonify(n.class.name) + "-1"
	}
	n.name = c.uniqueName(name)
	c.add(n)

	s := c.undoStack()
	s.Open("add-node")
	root, path := c.Root(), c.Root().Path(n)
	s.Push(undo.NewStep("add-node", func() error {
		node, err := root.Resolve(path)
		if err != nil {
			return err
		}
		return node.parent.Remove(node)
	}))
	s.Close()
	return nil
}

func (c *Container) add(n *Node) {
	n.parent = c
	c.nodes = append(c.nodes, n)
}

// Remove drops node with its edges. Removal is recorded in history and
// undo puts the node and its edges back.
func (c *Container) Remove(n *Node) error {
	if n.parent != c {
		return fmt.Errorf("%v is not owned by %s: %w", n, c.name, ErrParentMismatch)
	}
	if n.InUse() {
		return fmt.Errorf("%v: %w", n, ErrNodeInUse)
	}
	if n.prepared {
		return fmt.Errorf("remove %v: %w", n, ErrSourceBusy)
	}
	s := c.undoStack()
	s.Open("remove-node")
	defer s.Close()
	n.ClearOutputs()
	n.ClearInputs()
	c.remove(n)
	s.Push(undo.NewStep("remove-node", func() error {
		if _, ok := c.Node(n.name); ok {
			return fmt.Errorf("restore %v: name is taken: %w", n, ErrInvalidParam)
		}
		c.add(n)
		rs := c.undoStack()
		rs.Open("add-node")
		rs.Push(undo.NewStep("add-node", func() error {
			return c.Remove(n)
		}))
		rs.Close()
		return nil
	}))
	return nil
}

func (c *Container) remove(n *Node) {
	for i := range c.nodes {
		if c.nodes[i] == n {
			c.nodes = append(c.nodes[:i], c.nodes[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Path returns node path relative to container.
func (c *Container) Path(n *Node) string {
	parts := []string{n.name}
	for p := n.parent; p != nil && p != c; p = p.parent {
		parts = append(parts, p.name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, pathSeparator)
}

// Resolve returns node by its path relative to container.
func (c *Container) Resolve(path string) (*Node, error) {
	parts := strings.Split(path, pathSeparator)
	cur := c
	for _, name := range parts[:len(parts)-1] {
		var next *Container
		for _, sub := range cur.containers {
			if sub.name == name {
				next = sub
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("resolve %q: %w", path, ErrNoSuchModule)
		}
		cur = next
	}
	n, ok := cur.Node(parts[len(parts)-1])
	if !ok {
		return nil, fmt.Errorf("resolve %q: %w", path, ErrNoSuchModule)
	}
	return n, nil
}

// CommonAncestor returns the innermost container owning both nodes.
func CommonAncestor(a, b *Node) *Container {
	if a == nil || b == nil || a.parent == nil || b.parent == nil {
		return nil
	}
	ca, cb := a.parent, b.parent
	da, db := ca.Depth(), cb.Depth()
	for ; da > db; da-- {
		ca = ca.parent
	}
	for ; db > da; db-- {
		cb = cb.parent
	}
	for ca != cb {
		ca, cb = ca.parent, cb.parent
	}
	return ca
}

// walk calls fn for every node of container and nested containers.
func (c *Container) walk(fn func(*Node)) {
	for _, n := range c.Nodes() {
		fn(n)
	}
	for _, sub := range c.containers {
		sub.walk(fn)
	}
}

// Prepare prepares all nodes.
func (c *Container) Prepare() {
	c.walk(func(n *Node) {
		if !n.prepared {
			n.Prepare()
		}
	})
}

// Reset resets all nodes.
func (c *Container) Reset() {
	c.walk(func(n *Node) {
		if n.prepared {
			n.Reset()
		}
	})
}

// CreateContext creates context on all nodes and then connects them. It
// is done in one transaction.
func (c *Container) CreateContext(handle int) {
	t := c.engine.Open()
	c.walk(func(n *Node) {
		if dh, ok := n.class.hooks.(DataHooks); ok && n.NumInputs() == 0 && n.NumOutputs() == 0 {
			data, free := dh.ContextData(n, handle)
			n.CreateContextWithData(handle, data, free, t)
			return
		}
		n.CreateContext(handle, t)
	})
	c.walk(func(n *Node) {
		if n.HasContext(handle) {
			n.ConnectContext(handle, t)
		}
	})
	c.engine.Commit(t)
}

// DismissContext dismisses context on all nodes in one transaction.
func (c *Container) DismissContext(handle int) {
	t := c.engine.Open()
	c.walk(func(n *Node) {
		if n.HasContext(handle) {
			n.DismissContext(handle, t)
		}
	})
	c.engine.Commit(t)
}

// uniqueName returns name if it's free, otherwise adds numeric suffix.
func (c *Container) uniqueName(name string) string {
	if !c.taken(name) {
		return name
	}
	base := name
	if i := strings.LastIndexByte(name, '-'); i > 0 {
		if _, err := strconv.Atoi(name[i+1:]); err == nil {
			base = name[:i]
		}
	}
	for i := 2; ; i++ {
		name = base + "-" + strconv.Itoa(i)
		if !c.taken(name) {
			return name
		}
	}
}

func (c *Container) taken(name string) bool {
	if _, ok := c.Node(name); ok {
		return true
	}
	for _, sub := range c.containers {
		if sub.name == name {
			return true
		}
	}
	return false
}

func sanitize(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), pathSeparator, "-")
}
