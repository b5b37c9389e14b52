package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allInstructions() Program {
	return Program{
		Push(Unit()),
		Push(Int(-5)),
		Push(Bool(true)),
		Push(Bool(false)),
		Push(CodeLoc(0xdeadbeef)),
		Push(Undefined()),
		Simple(OpPop),
		Peek(3),
		Unary(UnopNeg),
		Binary(BinopAdd),
		Binary(BinopMul),
		Binary(BinopSub),
		Binary(BinopDiv),
		Binary(BinopLt),
		Binary(BinopEq),
		Simple(OpSwap),
		Simple(OpAlloc),
		Simple(OpSet),
		Simple(OpGet),
		Var(1),
		Store(2),
		SetFrame(4),
		Simple(OpCall),
		Simple(OpRet),
		Simple(OpBranch),
		Simple(OpHalt),
	}
}

func TestProgramRoundTrip(t *testing.T) {
	prog := allInstructions()

	buf := &bytes.Buffer{}
	require.NoError(t, prog.Encode(buf))

	got, err := ReadProgram(buf)
	require.NoError(t, err)
	assert.Equal(t, prog, got)
}

func TestInstructionRoundTrip(t *testing.T) {
	for _, inst := range allInstructions() {
		t.Run(inst.String(), func(t *testing.T) {
			b, err := EncodeInstruction(inst)
			require.NoError(t, err)

			got, n, err := DecodeInstruction(b)
			require.NoError(t, err)
			assert.Equal(t, len(b), n)
			assert.Equal(t, inst, got)
		})
	}
}

func TestValueRoundTrip(t *testing.T) {
	for _, v := range []Value{Unit(), Int(0), Int(-2147483648), Int(2147483647), Bool(true), Bool(false), CodeLoc(7), Undefined()} {
		b, err := EncodeValue(v)
		require.NoError(t, err)
		got, n, err := DecodeValue(b)
		require.NoError(t, err)
		assert.Equal(t, len(b), n)
		assert.Equal(t, v, got)
	}

	_, err := EncodeValue(HeapAddr(0))
	assert.Error(t, err)
	_, err = EncodeValue(BlockSize(1))
	assert.Error(t, err)
}

func TestWireFormat(t *testing.T) {
	prog := Program{
		Push(Int(2)),
		Push(Int(3)),
		Binary(BinopAdd),
		Simple(OpHalt),
	}
	want := []byte{
		0, 0, 0, 4,
		0x00, 0x01, 0, 0, 0, 2,
		0x00, 0x01, 0, 0, 0, 3,
		0x04, 0x00,
		0x0f,
	}
	got, err := prog.EncodeToBytes()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	decoded, err := DecodeProgram(want)
	require.NoError(t, err)
	assert.Equal(t, prog, decoded)

	// big-endian negative int and codeloc payloads
	b, err := EncodeValue(Int(-2))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xff, 0xff, 0xff, 0xfe}, b)
	b, err = EncodeInstruction(Var(258))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x09, 0, 0, 1, 2}, b)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: []byte{}},
		{name: "short count", data: []byte{0, 0, 1}},
		{name: "count larger than body", data: []byte{0, 0, 0, 2, 0x0f}},
		{name: "unknown opcode", data: []byte{0, 0, 0, 1, 0x10}},
		{name: "unknown value tag", data: []byte{0, 0, 0, 1, 0x00, 0x06}},
		{name: "unknown binop", data: []byte{0, 0, 0, 1, 0x04, 0x06}},
		{name: "unknown unop", data: []byte{0, 0, 0, 1, 0x03, 0x01}},
		{name: "truncated int payload", data: []byte{0, 0, 0, 1, 0x00, 0x01, 0, 0}},
		{name: "truncated u32 operand", data: []byte{0, 0, 0, 1, 0x02, 0}},
		{name: "missing binop", data: []byte{0, 0, 0, 1, 0x04}},
		{name: "trailing bytes", data: []byte{0, 0, 0, 1, 0x0f, 0x0f}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := DecodeProgram(tt.data)
			assert.ErrorIs(t, err, ErrMalformedProgram)
			assert.Nil(t, prog)
		})
	}
}

func TestDecodeEmptyProgram(t *testing.T) {
	prog, err := DecodeProgram([]byte{0, 0, 0, 0})
	require.NoError(t, err)
	assert.Len(t, prog, 0)

	err = NewVM(prog).Run()
	assert.ErrorIs(t, err, ErrPcOutOfBounds)
}

func TestInstructionString(t *testing.T) {
	assert.Equal(t, "push int -5", Push(Int(-5)).String())
	assert.Equal(t, "push loc 3", Push(CodeLoc(3)).String())
	assert.Equal(t, "push true", Push(Bool(true)).String())
	assert.Equal(t, "push undef", Push(Undefined()).String())
	assert.Equal(t, "setframe 2", SetFrame(2).String())
	assert.Equal(t, "neg", Unary(UnopNeg).String())
	assert.Equal(t, "lt", Binary(BinopLt).String())
	assert.Equal(t, "halt", Simple(OpHalt).String())
	assert.Equal(t, "Int(-5)", Int(-5).String())
	assert.Equal(t, "HeapAddr(4)", HeapAddr(4).String())
	assert.Equal(t, "Unit", Unit().String())
}
