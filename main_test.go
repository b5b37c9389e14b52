package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/krehermann/gostackvm/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addSrc = `push int 2
push int 3
add
halt
`

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeQuietConfig(t *testing.T, dir string) string {
	return writeFile(t, dir, "quiet.toml", "[log]\nlevel = \"error\"\n")
}

func TestAsmRunDisasm(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "add.asm", addSrc)
	bin := filepath.Join(dir, "add.bin")
	cfg := writeQuietConfig(t, dir)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	require.NoError(t, dispatch([]string{"asm", "-o", bin, src}, stdout, stderr))

	raw, err := os.ReadFile(bin)
	require.NoError(t, err)
	prog, err := vm.DecodeProgram(raw)
	require.NoError(t, err)
	assert.Len(t, prog, 4)

	stdout.Reset()
	require.NoError(t, dispatch([]string{"run", "-config", cfg, bin}, stdout, stderr))
	assert.Equal(t, "Int(5)\n", stdout.String())

	stdout.Reset()
	require.NoError(t, dispatch([]string{"run", "-config", cfg, "-format", "json", src}, stdout, stderr))
	var res map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	assert.Equal(t, true, res["halted"])

	stdout.Reset()
	require.NoError(t, dispatch([]string{"disasm", bin}, stdout, stderr))
	assert.Contains(t, stdout.String(), "add")
	assert.Contains(t, stdout.String(), "; 3")
}

func TestRunFault(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "div.asm", "push int 1\npush int 0\ndiv\nhalt\n")

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	err := dispatch([]string{"run", "-config", writeQuietConfig(t, dir), src}, stdout, stderr)
	assert.ErrorIs(t, err, vm.ErrDivideByZero)
}

func TestRunTrace(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "add.asm", addSrc)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	require.NoError(t, dispatch([]string{"run", "-config", writeQuietConfig(t, dir), "-trace", src}, stdout, stderr))
	assert.Contains(t, stderr.String(), "-------------")
}

func TestConformanceCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "s.yaml", `
name: smoke
tests:
  - name: add
    program: |
      push int 2
      push int 3
      add
      halt
    expect:
      stack: ["Int(5)"]
`)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	require.NoError(t, dispatch([]string{"conformance", "-config", writeQuietConfig(t, dir), dir}, stdout, stderr))
	assert.Contains(t, stdout.String(), "1 passed, 0 failed, 0 skipped")
}

func TestDispatchErrors(t *testing.T) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	assert.Error(t, dispatch(nil, stdout, stderr))
	assert.Error(t, dispatch([]string{"frobnicate"}, stdout, stderr))
	assert.Error(t, dispatch([]string{"run"}, stdout, stderr))
	assert.Error(t, dispatch([]string{"run", "/does/not/exist.bin"}, stdout, stderr))
	assert.NoError(t, dispatch([]string{"help"}, stdout, stderr))
	assert.Contains(t, stdout.String(), "Usage: gostackvm")
}
