package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const synth = `
nodes:
  - name: osc-1
    class: osc
  - name: amp-1
    class: amp
    x: 10
    inputs:
      - channel: audio-in
        from: osc-1
        output: audio-out
    automation:
      - param: gain
        channel: 1
        control: control-7
  - name: mix-1
    class: mixer
    inputs:
      - channel: mix
        from: amp-1
        output: audio-out
      - channel: mix
        from: osc-1
        output: sync-out
`

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInit(t *testing.T) {
	names := []string{}
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"check", "classes", "dump"})
}

func TestClasses(t *testing.T) {
	out, err := run("classes")
	require.NoError(t, err)
	assert.Contains(t, out, "mixer\tin: mix*\tout: audio-out\tparams: volume,channels\n")
	assert.Contains(t, out, "ctrl\tin: \tout: \tparams: value\n")
}

func TestDump(t *testing.T) {
	out, err := run("dump", write(t, "synth.yaml", synth))
	require.NoError(t, err)
	assert.Contains(t, out, "amp-1 (amp) 10 0\n")
	assert.Contains(t, out, `  (source-input "audio-in" "osc-1" "audio-out")`)
	assert.Contains(t, out, `  (source-automate "gain" 1 control-7)`)
	assert.Contains(t, out, `  (source-input "mix" "osc-1" "sync-out")`)
}

func TestCheck(t *testing.T) {
	first := write(t, "first.yaml", synth)
	second := write(t, "second.yaml", "nodes: [{name: solo, class: osc}]")
	out, err := run("check", "--voices", "3", first, second)
	require.NoError(t, err)
	assert.Contains(t, out, first+": ok")
	assert.Contains(t, out, second+": ok")
	assert.Contains(t, out, "0 failed")

	broken := write(t, "broken.yaml", "nodes: [{name: a, class: theremin}]")
	out, err = run("check", "--voices", "1", first, broken)
	assert.ErrorContains(t, err, "no such class")
	assert.Contains(t, out, first+": ok")
	assert.NotContains(t, out, broken)

	_, err = run("check", "--voices", "0", first)
	assert.Error(t, err)
}
