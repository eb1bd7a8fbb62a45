package patch_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/patch"
	"pipelined.dev/patch/midi"
)

func TestStatements(t *testing.T) {
	f := newFixture(t)
	a := f.node(t, classA, "a")
	b := f.node(t, classB, "b")
	c := f.node(t, classC, "c")
	assert.False(t, b.NeedsStorage())

	require.NoError(t, b.SetInputByName("in", a, "out-2"))
	require.NoError(t, c.SetInputByName("mix", a, "out-1"))
	require.NoError(t, c.SetInputByName("mix", b, "out"))
	require.NoError(t, b.SetAutomation("gain", 4, midi.Continuous(2)))

	assert.Equal(t, []patch.InputStatement{
		{IChannel: "mix", Producer: "a", OChannel: "out-1"},
		{IChannel: "mix", Producer: "b", OChannel: "out"},
	}, c.InputStatements())
	assert.Equal(t, `(source-input "in" "a" "out-2")`, b.InputStatements()[0].String())

	statements := b.AutomationStatements()
	assert.Equal(t, []patch.AutomationStatement{{Param: "gain", Channel: 4, Control: "continuous-2"}}, statements)
	assert.Equal(t, `(source-automate "gain" 4 continuous-2)`, statements[0].String())

	assert.True(t, b.NeedsStorage())
	assert.True(t, c.NeedsStorage())
	assert.False(t, a.NeedsStorage())
	a.SetPos(0, 1)
	assert.True(t, a.NeedsStorage())
}

func TestLinker(t *testing.T) {
	f := newFixture(t)
	a := f.node(t, classA, "a")
	b := f.node(t, classB, "b")
	c := f.node(t, classC, "c")

	l := patch.NewLinker(f.Container)
	l.Defer(b, patch.InputStatement{IChannel: "in", Producer: "a", OChannel: "out-1"})
	l.Defer(c, patch.InputStatement{IChannel: "mix", Producer: "missing", OChannel: "out"})
	l.Defer(c, patch.InputStatement{IChannel: "mix", Producer: "b", OChannel: "out"})
	l.Defer(c, patch.InputStatement{IChannel: "none", Producer: "a", OChannel: "out-1"})
	l.Defer(a, patch.InputStatement{IChannel: "in", Producer: "c", OChannel: "out"})
	assert.Equal(t, 5, l.Len())

	err := l.Resolve()
	require.Error(t, err)
	var linkErrs patch.LinkErrors
	require.True(t, errors.As(err, &linkErrs))
	assert.Equal(t, 3, len(linkErrs))
	assert.ErrorIs(t, err, patch.ErrNoSuchModule)
	assert.ErrorIs(t, err, patch.ErrNoSuchIChannel)
	assert.ErrorIs(t, err, patch.ErrBadLoopback)
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 3, len(f.hook.AllEntries()))

	_, _, ok := b.Input(0)
	assert.True(t, ok)
	assert.Equal(t, 1, len(c.Joints(0)))
	assert.NoError(t, l.Resolve())
}

func TestBackup(t *testing.T) {
	f := newFixture(t)
	a := f.node(t, classA, "a")
	b := f.node(t, classB, "b")
	c := f.node(t, classC, "c")
	require.NoError(t, b.SetInputByName("in", a, "out-1"))
	require.NoError(t, c.SetInputByName("mix", b, "out"))
	require.NoError(t, b.SetAutomation("gain", 1, midi.Controller(3)))
	before := snapshotOf(f.Container)

	// overwrite b like a reload does.
	stack := f.history.Stack()
	stack.Open("reload")
	b.BackupInputsToUndo()
	b.BackupOutputsToUndo()
	b.BackupAutomationToUndo()
	patch.ClearInputs(b)
	patch.ClearOutputs(b)
	require.NoError(t, b.ClearAutomation())
	require.NoError(t, b.SetInputByName("in", a, "out-2"))
	stack.Close()

	assert.Empty(t, c.Joints(0))
	assert.Equal(t, midi.None, b.GetAutomationControl("gain"))

	require.NoError(t, f.history.Undo())
	assert.Equal(t, before, snapshotOf(f.Container))
}

func TestApplyAutomation(t *testing.T) {
	f := newFixture(t)
	b := f.node(t, classB, "b")
	require.NoError(t, b.ApplyAutomation(patch.AutomationStatement{Param: "gain", Channel: 1, Control: "control-5"}))
	assert.Equal(t, midi.Controller(5), b.GetAutomationControl("gain"))
	assert.ErrorIs(t, b.ApplyAutomation(patch.AutomationStatement{Param: "gain", Control: "bogus"}), patch.ErrInvalidMidiControl)
}
