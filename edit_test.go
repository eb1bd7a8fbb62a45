package patch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/patch"
	"pipelined.dev/patch/midi"
)

// snapshot captures editable state of nodes.
type snapshot struct {
	edges      map[string][]patch.InputStatement
	automation map[string][]patch.Automation
	pos        map[string][2]float64
}

func snapshotOf(c *patch.Container) snapshot {
	s := snapshot{
		edges:      map[string][]patch.InputStatement{},
		automation: map[string][]patch.Automation{},
		pos:        map[string][2]float64{},
	}
	for _, n := range c.Nodes() {
		s.edges[n.Name()] = n.InputStatements()
		s.automation[n.Name()] = n.Automations()
		x, y := n.Pos()
		s.pos[n.Name()] = [2]float64{x, y}
	}
	return s
}

func TestMove(t *testing.T) {
	f := newFixture(t)
	n := f.node(t, classA, "a")
	n.SetPos(1, 1)

	stack := f.history.Stack()
	stack.Open("move")
	n.SetPos(2, 2)
	n.SetPos(3, 3)
	stack.Close()
	name, _ := f.history.UndoStack().Peek()
	assert.Equal(t, "move", name)

	require.NoError(t, f.history.Undo())
	x, y := n.Pos()
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 1.0, y)

	require.NoError(t, f.history.Redo())
	x, y = n.Pos()
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 3.0, y)

	// too small to be recorded.
	depth := f.history.UndoStack().Depth()
	n.SetPos(3+1e-6, 3)
	assert.Equal(t, depth, f.history.UndoStack().Depth())
}

func TestUndoRoundTrip(t *testing.T) {
	f := newFixture(t)
	a := f.node(t, classA, "a")
	b := f.node(t, classB, "b")
	c := f.node(t, classC, "c")
	require.NoError(t, b.SetInputByName("in", a, "out-1"))
	require.NoError(t, c.SetInputByName("mix", a, "out-2"))
	before := snapshotOf(f.Container)

	stack := f.history.Stack()
	stack.Open("edit")
	require.NoError(t, b.UnsetInputByName("in", a, "out-1"))
	require.NoError(t, b.SetInputByName("in", a, "out-2"))
	require.NoError(t, c.SetInputByName("mix", b, "out"))
	require.NoError(t, c.SetInputByName("mix", a, "out-1"))
	require.NoError(t, b.SetAutomation("gain", 3, midi.Controller(10)))
	c.SetPos(10, -5)
	c.ClearInputs()
	require.NoError(t, c.SetInputByName("mix", b, "out"))
	stack.Close()
	after := snapshotOf(f.Container)
	assert.NotEqual(t, before, after)

	require.NoError(t, f.history.Undo())
	assert.Equal(t, before, snapshotOf(f.Container))
	require.NoError(t, f.history.Redo())
	assert.Equal(t, after, snapshotOf(f.Container))
	require.NoError(t, f.history.Undo())
	assert.Equal(t, before, snapshotOf(f.Container))
}

func TestClearOutputsUndo(t *testing.T) {
	f := newFixture(t)
	a := f.node(t, classA, "a")
	b := f.node(t, classB, "b")
	c := f.node(t, classC, "c")
	require.NoError(t, b.SetInputByName("in", a, "out-1"))
	require.NoError(t, c.SetInputByName("mix", a, "out-1"))
	require.NoError(t, c.SetInputByName("mix", a, "out-2"))
	before := snapshotOf(f.Container)

	a.ClearOutputs()
	assert.False(t, a.HasOutputs())
	name, _ := f.history.UndoStack().Peek()
	assert.Equal(t, "clear-outputs", name)

	require.NoError(t, f.history.Undo())
	assert.Equal(t, before, snapshotOf(f.Container))
	assert.Equal(t, 3, len(a.Consumers()))
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	a := f.node(t, classA, "a")
	b := f.node(t, classB, "b")
	c := f.node(t, classC, "c")
	require.NoError(t, b.SetInputByName("in", a, "out-1"))
	require.NoError(t, c.SetInputByName("mix", b, "out"))
	require.NoError(t, b.SetAutomation("gain", 1, midi.Controller(1)))
	before := snapshotOf(f.Container)

	require.NoError(t, f.Remove(b))
	assert.Nil(t, b.Parent())
	_, ok := f.Node("b")
	assert.False(t, ok)
	assert.False(t, a.HasOutputs())
	assert.Empty(t, c.Joints(0))

	require.NoError(t, f.history.Undo())
	assert.Equal(t, f.Container, b.Parent())
	assert.ElementsMatch(t, []*patch.Node{a, b, c}, f.Nodes())
	restored := snapshotOf(f.Container)
	assert.Equal(t, before.edges, restored.edges)
	assert.Equal(t, before.automation, restored.automation)

	require.NoError(t, f.history.Redo())
	assert.Nil(t, b.Parent())
	require.NoError(t, f.history.Undo())
	assert.Equal(t, before.edges, snapshotOf(f.Container).edges)
}

func TestRemoveErrors(t *testing.T) {
	f := newFixture(t)
	a := f.node(t, classA, "a")
	b := f.node(t, classB, "b")

	var removeErr error
	b.Observe(func(n *patch.Node, prop string) {
		if prop == patch.PropIO {
			removeErr = f.Remove(n)
		}
	})
	require.NoError(t, b.SetInputByName("in", a, "out-1"))
	assert.ErrorIs(t, removeErr, patch.ErrNodeInUse)
	assert.False(t, b.InUse())

	other := newFixture(t)
	assert.ErrorIs(t, other.Remove(a), patch.ErrParentMismatch)
	assert.ErrorIs(t, other.Add(a), patch.ErrParentMismatch)

	a.Prepare()
	assert.ErrorIs(t, f.Remove(a), patch.ErrSourceBusy)
	a.Reset()
}

func TestAddUndo(t *testing.T) {
	f := newFixture(t)
	a := f.node(t, classA, "")
	assert.Equal(t, "a-1", a.Name())
	dup := f.node(t, classA, "")
	assert.Equal(t, "a-2", dup.Name())
	slash := f.node(t, classA, "x/y")
	assert.Equal(t, "x-y", slash.Name())

	require.NoError(t, f.history.Undo())
	_, ok := f.Node("x-y")
	assert.False(t, ok)
	require.NoError(t, f.history.Redo())
	_, ok = f.Node("x-y")
	assert.True(t, ok)
}

func TestDetached(t *testing.T) {
	c := patch.NewContainer("detached")
	a := patch.NewNode(classA, "a")
	b := patch.NewNode(classB, "b")
	require.NoError(t, c.Add(a))
	require.NoError(t, c.Add(b))
	assert.Nil(t, c.History())

	require.NoError(t, b.SetInputByName("in", a, "out-1"))
	b.SetPos(1, 2)
	c.Prepare()
	c.CreateContext(1)
	assert.NotNil(t, b.ContextIModule(1))
	c.Reset()
	assert.Equal(t, 0, b.NumContexts())

	// orphan nodes record nothing.
	orphan := patch.NewNode(classB, "orphan")
	orphan.SetPos(1, 1)
	x, _ := orphan.Pos()
	assert.Equal(t, 1.0, x)
}

func TestPath(t *testing.T) {
	f := newFixture(t)
	sub := f.NewContainer("voice")
	deep := sub.NewContainer("filter")
	n := patch.NewNode(classA, "a")
	require.NoError(t, deep.Add(n))

	assert.Equal(t, "voice/filter/a", f.Path(n))
	assert.Equal(t, "a", deep.Path(n))
	assert.Equal(t, 2, deep.Depth())
	assert.Equal(t, f.Container, deep.Root())

	resolved, err := f.Resolve("voice/filter/a")
	require.NoError(t, err)
	assert.Equal(t, n, resolved)
	_, err = f.Resolve("voice/missing/a")
	assert.ErrorIs(t, err, patch.ErrNoSuchModule)
	_, err = f.Resolve("voice/filter/b")
	assert.ErrorIs(t, err, patch.ErrNoSuchModule)

	m := patch.NewNode(classA, "m")
	require.NoError(t, sub.Add(m))
	assert.Equal(t, sub, patch.CommonAncestor(n, m))
	assert.Nil(t, patch.CommonAncestor(n, patch.NewNode(classA, "orphan")))
}
