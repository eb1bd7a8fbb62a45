package undo_test

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/patch/undo"
)

// recorder appends step names to a log when undone.
type recorder struct {
	undone []string
}

func (r *recorder) step(name string) undo.Step {
	return undo.NewStep(name, func() error {
		r.undone = append(r.undone, name)
		return nil
	})
}

func TestNested(t *testing.T) {
	var r recorder
	var notified []bool
	s := undo.New(undo.WithNotify(func(_ *undo.Stack, added bool) {
		notified = append(notified, added)
	}))

	s.Open("outer")
	s.Push(r.step("1"))
	s.Open("inner")
	s.Push(r.step("2"))
	s.PushFunc(func() error {
		r.undone = append(r.undone, "3")
		return nil
	})
	s.Close()
	assert.True(t, s.IsOpen())
	assert.Equal(t, 0, s.Depth())
	s.Close()
	assert.False(t, s.IsOpen())
	assert.Equal(t, 1, s.Depth())

	g, ok := s.Group()
	require.True(t, ok)
	assert.Equal(t, "outer", g.Name)
	assert.Equal(t, []string{"inner", "2", "1"}, g.Steps())
	assert.False(t, g.Stamp.IsZero())

	require.NoError(t, s.Undo())
	assert.Equal(t, []string{"3", "2", "1"}, r.undone)
	assert.Equal(t, 0, s.Depth())
	assert.Equal(t, []bool{true, false}, notified)
}

func TestEmptyGroup(t *testing.T) {
	notified := 0
	s := undo.New(undo.WithNotify(func(*undo.Stack, bool) { notified++ }))
	s.Open("empty")
	s.Close()
	assert.Equal(t, 0, s.Depth())
	assert.Equal(t, 0, notified)
	assert.False(t, s.Dirty())
}

func TestUndoWhileOpen(t *testing.T) {
	var r recorder
	s := undo.New()
	s.Open("a")
	s.Push(r.step("a"))
	s.Close()

	s.Open("b")
	assert.True(t, errors.Is(s.Undo(), undo.ErrGroupOpen))
	s.Close()
	assert.Empty(t, r.undone)
	assert.Equal(t, 1, s.Depth())
}

func TestMerge(t *testing.T) {
	var r recorder
	s := undo.New()
	s.AddMerger("drag")
	for _, name := range []string{"a", "b", "c"} {
		s.Open("move")
		s.Push(r.step(name))
		s.Close()
	}
	s.RemoveMerger()

	assert.Equal(t, 1, s.Depth())
	name, _ := s.Peek()
	assert.Equal(t, "drag", name)
	g, _ := s.Group()
	assert.Equal(t, []string{"c", "b", "a"}, g.Steps())

	// merge is over.
	s.Open("next")
	s.Push(r.step("d"))
	s.Close()
	assert.Equal(t, 2, s.Depth())

	require.NoError(t, s.Undo())
	require.NoError(t, s.Undo())
	assert.Equal(t, []string{"d", "c", "b", "a"}, r.undone)
}

func TestMergeAfterUndo(t *testing.T) {
	var r recorder
	s := undo.New()
	s.Open("x")
	s.Push(r.step("x"))
	s.Close()

	s.AddMerger("drag")
	defer s.RemoveMerger()
	for _, name := range []string{"a", "b"} {
		s.Open(name)
		s.Push(r.step(name))
		s.Close()
	}
	assert.Equal(t, 2, s.Depth())

	// merger survives undo.
	require.NoError(t, s.Undo())
	assert.Equal(t, []string{"b", "a"}, r.undone)
	s.Open("c")
	s.Push(r.step("c"))
	s.Close()
	assert.Equal(t, 1, s.Depth())
	g, _ := s.Group()
	assert.Equal(t, []string{"c", "x"}, g.Steps())
}

func TestMergeAfterClean(t *testing.T) {
	var r recorder
	s := undo.New()
	s.AddMerger("edit")
	s.Open("1")
	s.Push(r.step("1"))
	s.Close()
	s.CleanDirty()
	assert.False(t, s.Dirty())

	s.Open("2")
	s.Push(r.step("2"))
	s.Close()
	assert.True(t, s.Dirty())
	assert.Equal(t, 1, s.Depth())

	// merged group still dirty after being undone.
	require.NoError(t, s.Undo())
	assert.True(t, s.Dirty())
}

func TestAddOn(t *testing.T) {
	var r recorder
	s := undo.New()

	// nothing to ride on.
	s.PushAddOn(r.step("dropped"))

	s.Open("edit")
	s.Push(r.step("1"))
	s.PushAddOn(r.step("guard"))
	s.Close()

	s.Open("empty")
	s.PushAddOn(r.step("late"))
	s.Close()

	assert.Equal(t, 1, s.Depth())
	g, _ := s.Group()
	assert.Equal(t, []string{"late", "guard", "1"}, g.Steps())
}

func TestIgnore(t *testing.T) {
	var r recorder
	s := undo.New()
	s.Open("ignored")
	s.Ignore()
	assert.True(t, s.Ignored())
	s.Push(r.step("1"))
	s.Unignore()
	s.Close()
	assert.Equal(t, 0, s.Depth())

	d := undo.Dummy()
	assert.True(t, d.IsDummy())
	d.Open("dummy")
	d.Push(r.step("1"))
	d.Close()
	assert.Equal(t, 0, d.Depth())
}

func TestPushWithoutGroup(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := undo.New(undo.WithLogger(logger))
	s.Push(undo.NewStep("orphan", func() error { return nil }))
	s.Close()
	s.RemoveMerger()
	s.Unignore()
	assert.Equal(t, 4, len(hook.Entries))
	assert.Equal(t, 0, s.Depth())
}

func TestLimit(t *testing.T) {
	var r recorder
	s := undo.New(undo.WithMaxSteps(2))
	for _, name := range []string{"1", "2", "3"} {
		s.Open(name)
		s.Push(r.step(name))
		s.Close()
	}
	assert.Equal(t, 2, s.Depth())
	s.Limit(1)
	assert.Equal(t, 1, s.Depth())
	name, _ := s.Peek()
	assert.Equal(t, "3", name)

	s.Clear()
	assert.Equal(t, 0, s.Depth())
	_, ok := s.Peek()
	assert.False(t, ok)
	assert.NoError(t, s.Undo())
}

func TestDirty(t *testing.T) {
	var r recorder
	s := undo.New()
	assert.False(t, s.Dirty())

	s.Open("1")
	s.Push(r.step("1"))
	assert.True(t, s.Dirty())
	s.Close()
	assert.True(t, s.Dirty())

	require.NoError(t, s.Undo())
	assert.False(t, s.Dirty())

	s.ForceDirty()
	assert.True(t, s.Dirty())
	s.CleanDirty()
	assert.False(t, s.Dirty())
}

func TestPeekLastAtom(t *testing.T) {
	var r recorder
	s := undo.New()
	s.Open("1")
	s.Push(r.step("atom"))
	s.Close()

	_, ok := s.PeekLastAtom()
	assert.False(t, ok)

	s.Open("2")
	step, ok := s.PeekLastAtom()
	assert.True(t, ok)
	assert.Equal(t, "atom", step.Name)
	s.Push(r.step("other"))
	_, ok = s.PeekLastAtom()
	assert.False(t, ok)
	s.Close()

	// only outermost empty group.
	s.Open("outer")
	s.Open("inner")
	_, ok = s.PeekLastAtom()
	assert.False(t, ok)
	s.Close()
	s.Close()

	single := undo.New(undo.WithMaxSteps(1))
	single.Open("1")
	single.Push(r.step("atom"))
	single.Close()
	single.Open("2")
	_, ok = single.PeekLastAtom()
	assert.False(t, ok)
	single.Close()
}

func TestStepErrors(t *testing.T) {
	errStep := errors.New("step failed")
	var r recorder
	s := undo.New()
	s.Open("failing")
	s.Push(r.step("1"))
	s.Push(undo.NewStep("bad", func() error { return errStep }))
	s.Push(r.step("3"))
	s.Close()

	err := s.Undo()
	assert.True(t, errors.Is(err, errStep))
	assert.Equal(t, []string{"3", "1"}, r.undone)
}

// TestOpenInvariant checks that group is open iff open count is positive.
func TestOpenInvariant(t *testing.T) {
	s := undo.New()
	ops := []struct {
		op   func()
		open bool
	}{
		{func() { s.Open("a") }, true},
		{func() { s.Open("b") }, true},
		{func() { s.PushAddOn(undo.NewStep("x", func() error { return nil })) }, true},
		{func() { s.Close() }, true},
		{func() { s.Close() }, false},
		{func() { _ = s.Undo() }, false},
		{func() { s.Close() }, false},
		{func() { s.Open("c") }, true},
		{func() { s.Clear() }, true},
		{func() { s.Close() }, false},
	}
	for i, o := range ops {
		o.op()
		assert.Equal(t, o.open, s.IsOpen(), "op %d", i)
	}
}
