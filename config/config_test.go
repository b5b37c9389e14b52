package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/krehermann/gostackvm/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
[vm]
max_stack = 16
max_steps = 500

[log]
level = "debug"
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, c.VM.MaxStack)
	assert.Equal(t, uint64(500), c.VM.MaxSteps)
	// untouched keys keep defaults
	assert.Equal(t, vm.DefaultMaxHeap, c.VM.MaxHeap)
	assert.Equal(t, ":8080", c.API.ListenAddr)
	assert.True(t, c.Log.Development)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "syntax", text: "[vm\nmax_stack = 1", want: "parse error"},
		{name: "unknown key", text: "[vm]\nmax_stak = 1", want: "unknown keys vm.max_stak"},
		{name: "negative heap", text: "[vm]\nmax_heap = -1", want: "vm.max_heap"},
		{name: "zero stack", text: "[vm]\nmax_stack = 0", want: "vm.max_stack"},
		{name: "bad level", text: "[log]\nlevel = \"loud\"", want: "log.level"},
		{name: "bad body cap", text: "[api]\nmax_program_bytes = 0", want: "api.max_program_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text, "test.toml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestVMConfigOptions(t *testing.T) {
	c := VMConfig{MaxStack: 2, MaxHeap: 8, MaxSteps: 3}

	machine := vm.NewVM(vm.Program{
		vm.Push(vm.Int(1)),
		vm.Push(vm.Int(2)),
		vm.Push(vm.Int(3)),
	}, c.Options()...)
	assert.ErrorIs(t, machine.Run(), vm.ErrStackOverflow)

	loop := vm.Program{
		vm.Push(vm.Bool(true)),
		vm.Push(vm.CodeLoc(0)),
		vm.Simple(vm.OpBranch),
	}
	c.MaxStack = 16
	assert.ErrorIs(t, vm.NewVM(loop, c.Options()...).Run(), vm.ErrStepLimit)
}

func TestLogConfigBuild(t *testing.T) {
	l, err := LogConfig{Level: "warn"}.Build()
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = LogConfig{Level: "chatty"}.Build()
	assert.Error(t, err)
}

func TestShippedConfigLoads(t *testing.T) {
	c, err := Load(filepath.Join("..", FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}
