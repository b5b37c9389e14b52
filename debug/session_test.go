package debug

import (
	"bytes"
	"testing"

	"github.com/krehermann/gostackvm/asm"
	"github.com/krehermann/gostackvm/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const countdown = `
    push int 3
loop:
    push int 1
    sub
    peek 0
    push int 0
    eq
    neg
    push loc @loop
    branch
    halt
`

func newTestSession(t *testing.T, src string) (*Session, *bytes.Buffer) {
	prog, err := asm.AssembleString(src)
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)
	out := &bytes.Buffer{}
	return NewSession(vm.NewVM(prog, vm.LoggerOpt(logger)), out, LoggerOpt(logger)), out
}

func TestSessionStep(t *testing.T) {
	s, out := newTestSession(t, countdown)

	assert.False(t, s.Exec("step"))
	assert.Contains(t, out.String(), "=> 0001  push int 1")

	out.Reset()
	assert.False(t, s.Exec("step 2"))
	assert.Contains(t, out.String(), "=> 0003  peek 0")

	out.Reset()
	s.Exec("stack")
	assert.Contains(t, out.String(), "Int(2)")

	// empty line repeats the last command
	out.Reset()
	s.Exec("")
	assert.Contains(t, out.String(), "Int(2)")

	out.Reset()
	s.Exec("regs")
	assert.Equal(t, "pc 3  fp 0  steps 3  halted false\n", out.String())
}

func TestSessionBreakpoints(t *testing.T) {
	s, out := newTestSession(t, countdown)

	s.Exec("break 8")
	assert.Contains(t, out.String(), "breakpoint at 8")

	out.Reset()
	s.Exec("continue")
	assert.Contains(t, out.String(), "=> 0008  branch")
	assert.Equal(t, uint32(8), s.machine.State().PC)

	// continuing from a breakpoint moves past it and stops on the next pass
	out.Reset()
	s.Exec("c")
	assert.Contains(t, out.String(), "breakpoint at 8")
	assert.Equal(t, uint64(16), s.machine.Steps())

	s.Exec("clear 8")
	out.Reset()
	s.Exec("clear 8")
	assert.Contains(t, out.String(), "no breakpoint at 8")

	out.Reset()
	s.Exec("continue")
	assert.True(t, s.machine.Halted())
	assert.Contains(t, out.String(), "halted after")
	assert.Contains(t, out.String(), "Int(0)")

	out.Reset()
	s.Exec("step")
	assert.Equal(t, "machine halted\n", out.String())
}

func TestSessionFault(t *testing.T) {
	s, out := newTestSession(t, "push int 1\npush int 0\ndiv\nhalt")

	s.Exec("continue")
	require.Error(t, s.Fault())
	assert.ErrorIs(t, s.Fault(), vm.ErrDivideByZero)
	assert.Contains(t, out.String(), "fault: DivideByZero")

	out.Reset()
	s.Exec("step")
	assert.Contains(t, out.String(), "machine faulted")
}

func TestSessionCommands(t *testing.T) {
	s, out := newTestSession(t, countdown)

	tests := []struct {
		line string
		want string
		quit bool
	}{
		{line: "help", want: "commands:"},
		{line: "list 3", want: "=> 0000  push int 3"},
		{line: "heap", want: "<empty>"},
		{line: "break 99", want: "past the end"},
		{line: "break x", want: "bad program counter"},
		{line: "step -1", want: "positive count"},
		{line: "jump", want: "unknown command"},
		{line: "quit", quit: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			out.Reset()
			assert.Equal(t, tt.quit, s.Exec(tt.line))
			assert.Contains(t, out.String(), tt.want)
		})
	}

	s.Exec("break 2")
	s.Exec("break 5")
	out.Reset()
	s.Exec("breaks")
	assert.Equal(t, "  0002  sub\n  0005  eq\n", out.String())
}
