package vm

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Value tags on the wire. Bool carries its payload in the tag.
const (
	tagUnit      byte = 0x00
	tagInt       byte = 0x01
	tagTrue      byte = 0x02
	tagFalse     byte = 0x03
	tagCodeLoc   byte = 0x04
	tagUndefined byte = 0x05
)

// DecodeProgram parses a complete program: a big-endian u32 instruction
// count followed by that many instructions. Any decode failure, including
// trailing bytes, is ErrMalformedProgram and no partial program is returned.
func DecodeProgram(data []byte) (Program, error) {
	r := &reader{data: data}

	n, err := r.readWord()
	if err != nil {
		return nil, malformed(r, fmt.Errorf("instruction count: %w", err))
	}
	// every instruction is at least one byte
	if int64(n) > int64(r.remaining()) {
		return nil, malformed(r, fmt.Errorf("instruction count %d exceeds %d remaining bytes", n, r.remaining()))
	}

	prog := make(Program, 0, n)
	for i := uint32(0); i < n; i++ {
		inst, err := r.readInst()
		if err != nil {
			return nil, malformed(r, fmt.Errorf("instruction %d: %w", i, err))
		}
		prog = append(prog, inst)
	}
	if r.remaining() != 0 {
		return nil, malformed(r, fmt.Errorf("%d trailing bytes after %d instructions", r.remaining(), n))
	}
	return prog, nil
}

// ReadProgram reads r to EOF and decodes the result.
func ReadProgram(r io.Reader) (Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	return DecodeProgram(data)
}

// DecodeValue decodes a single value from the front of data and returns the
// number of bytes consumed.
func DecodeValue(data []byte) (Value, int, error) {
	r := &reader{data: data}
	v, err := r.readValue()
	if err != nil {
		return Value{}, r.pos, malformed(r, err)
	}
	return v, r.pos, nil
}

// DecodeInstruction decodes a single instruction from the front of data and
// returns the number of bytes consumed.
func DecodeInstruction(data []byte) (Instruction, int, error) {
	r := &reader{data: data}
	inst, err := r.readInst()
	if err != nil {
		return Instruction{}, r.pos, malformed(r, err)
	}
	return inst, r.pos, nil
}

func malformed(r *reader, err error) error {
	return fmt.Errorf("%w at offset %d: %w", ErrMalformedProgram, r.pos, err)
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("unexpected EOF at offset %d", r.pos)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// readWord reads a 4-byte big-endian unsigned value.
func (r *reader) readWord() (uint32, error) {
	if r.remaining() < 4 {
		return 0, fmt.Errorf("unexpected EOF: need 4 bytes at offset %d", r.pos)
	}
	w := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return w, nil
}

func (r *reader) readInt() (int32, error) {
	w, err := r.readWord()
	return int32(w), err
}

func (r *reader) readValue() (Value, error) {
	tag, err := r.readByte()
	if err != nil {
		return Value{}, err
	}
	switch tag {
	case tagUnit:
		return Unit(), nil
	case tagInt:
		i, err := r.readInt()
		if err != nil {
			return Value{}, fmt.Errorf("int payload: %w", err)
		}
		return Int(i), nil
	case tagTrue:
		return Bool(true), nil
	case tagFalse:
		return Bool(false), nil
	case tagCodeLoc:
		l, err := r.readWord()
		if err != nil {
			return Value{}, fmt.Errorf("codeloc payload: %w", err)
		}
		return CodeLoc(l), nil
	case tagUndefined:
		return Undefined(), nil
	}
	return Value{}, fmt.Errorf("unknown value tag 0x%02x", tag)
}

func (r *reader) readInst() (Instruction, error) {
	tag, err := r.readByte()
	if err != nil {
		return Instruction{}, err
	}
	op := Opcode(tag)
	inst := Instruction{Op: op}

	switch op {
	case OpPush:
		inst.Value, err = r.readValue()
		if err != nil {
			return inst, fmt.Errorf("push operand: %w", err)
		}
	case OpPeek, OpVar, OpStore, OpSetFrame:
		inst.Arg, err = r.readWord()
		if err != nil {
			return inst, fmt.Errorf("%s operand: %w", op, err)
		}
	case OpUnary:
		b, err := r.readByte()
		if err != nil {
			return inst, fmt.Errorf("unary operand: %w", err)
		}
		if Unop(b) != UnopNeg {
			return inst, fmt.Errorf("unknown unop tag 0x%02x", b)
		}
		inst.Unop = Unop(b)
	case OpBinary:
		b, err := r.readByte()
		if err != nil {
			return inst, fmt.Errorf("binary operand: %w", err)
		}
		if Binop(b) > BinopEq {
			return inst, fmt.Errorf("unknown binop tag 0x%02x", b)
		}
		inst.Binop = Binop(b)
	case OpPop, OpSwap, OpAlloc, OpSet, OpGet, OpCall, OpRet, OpBranch, OpHalt:
	default:
		return inst, fmt.Errorf("unknown opcode 0x%02x", tag)
	}
	return inst, nil
}
