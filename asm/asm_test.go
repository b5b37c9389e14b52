package asm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/krehermann/gostackvm/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	src := `
; fact(4)
    push int 4
    setframe 1
    push loc @fact
    call
    halt

fact:           ; n
    var 0
    push int 1
    lt
    push loc @base
    branch
    var 0
    var 0
    push int 1
    sub
    setframe 1
    push loc @fact
    call
    mul
    ret
base: push int 1
    ret
`
	prog, err := AssembleString(src)
	require.NoError(t, err)
	require.Len(t, prog, 21)
	assert.Equal(t, vm.Push(vm.CodeLoc(5)), prog[2])
	assert.Equal(t, vm.Push(vm.CodeLoc(19)), prog[8])
	assert.Equal(t, vm.Push(vm.Int(1)), prog[19])

	machine := vm.NewVM(prog)
	require.NoError(t, machine.Run())
	assert.Equal(t, []vm.Value{vm.Int(24)}, machine.State().Stack.Values())
}

func TestAssembleLiterals(t *testing.T) {
	prog, err := AssembleString("push unit\npush UNDEF\npush true\npush false\npush int -0x10\npush loc 7\nPEEK 2\nneg")
	require.NoError(t, err)
	assert.Equal(t, vm.Program{
		vm.Push(vm.Unit()),
		vm.Push(vm.Undefined()),
		vm.Push(vm.Bool(true)),
		vm.Push(vm.Bool(false)),
		vm.Push(vm.Int(-16)),
		vm.Push(vm.CodeLoc(7)),
		vm.Peek(2),
		vm.Unary(vm.UnopNeg),
	}, prog)
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantLine int
	}{
		{name: "unknown mnemonic", src: "halt\njump 3", wantLine: 2},
		{name: "missing operand", src: "var", wantLine: 1},
		{name: "extra operand", src: "pop 1", wantLine: 1},
		{name: "int overflow", src: "push int 2147483648", wantLine: 1},
		{name: "negative u32", src: "peek -1", wantLine: 1},
		{name: "undefined label", src: "push loc @nowhere", wantLine: 1},
		{name: "duplicate label", src: "a: halt\na: halt", wantLine: 2},
		{name: "bad label", src: "1x: halt", wantLine: 1},
		{name: "bad literal", src: "push maybe", wantLine: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AssembleString(tt.src)
			require.Error(t, err)
			var asmErr *Error
			require.True(t, errors.As(err, &asmErr))
			assert.Equal(t, tt.wantLine, asmErr.Line)
		})
	}
}

func TestDisassembleRoundTrip(t *testing.T) {
	prog := vm.Program{
		vm.Push(vm.Int(3)),
		vm.Push(vm.Int(9)),
		vm.Simple(vm.OpAlloc),
		vm.Push(vm.Int(1)),
		vm.Simple(vm.OpGet),
		vm.Push(vm.CodeLoc(2)),
		vm.Store(0),
		vm.Binary(vm.BinopEq),
		vm.Simple(vm.OpHalt),
	}
	buf := &bytes.Buffer{}
	require.NoError(t, Disassemble(buf, prog))
	assert.Contains(t, buf.String(), "alloc")

	got, err := Assemble(buf)
	require.NoError(t, err)
	assert.Equal(t, prog, got)

	assert.Equal(t, []string{"push int 3", "push int 9", "alloc", "push int 1", "get", "push loc 2", "store 0", "eq", "halt"}, Lines(prog))
}
