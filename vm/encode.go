package vm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Encode writes the program to w in the binary format read by DecodeProgram.
func (p Program) Encode(w io.Writer) error {
	var buf bytes.Buffer

	encodeWord(&buf, uint32(len(p)))
	for i, inst := range p {
		if err := encodeInst(&buf, inst); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// EncodeToBytes returns the binary encoding of the program.
func (p Program) EncodeToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeValue returns the wire form of v. BlockSize and HeapAddr only exist
// at runtime and cannot be encoded.
func EncodeValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeInstruction returns the wire form of inst.
func EncodeInstruction(inst Instruction) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeInst(&buf, inst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWord(buf *bytes.Buffer, val uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], val)
	buf.Write(b[:])
}

func encodeValue(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindUnit:
		buf.WriteByte(tagUnit)
	case KindInt:
		buf.WriteByte(tagInt)
		encodeWord(buf, uint32(int32(v.n)))
	case KindBool:
		if v.b {
			buf.WriteByte(tagTrue)
		} else {
			buf.WriteByte(tagFalse)
		}
	case KindCodeLoc:
		buf.WriteByte(tagCodeLoc)
		encodeWord(buf, uint32(v.n))
	case KindUndefined:
		buf.WriteByte(tagUndefined)
	default:
		return fmt.Errorf("%s has no wire encoding", v.kind)
	}
	return nil
}

func encodeInst(buf *bytes.Buffer, inst Instruction) error {
	switch inst.Op {
	case OpPush:
		buf.WriteByte(byte(inst.Op))
		return encodeValue(buf, inst.Value)
	case OpPeek, OpVar, OpStore, OpSetFrame:
		buf.WriteByte(byte(inst.Op))
		encodeWord(buf, inst.Arg)
	case OpUnary:
		buf.WriteByte(byte(inst.Op))
		buf.WriteByte(byte(inst.Unop))
	case OpBinary:
		buf.WriteByte(byte(inst.Op))
		buf.WriteByte(byte(inst.Binop))
	case OpPop, OpSwap, OpAlloc, OpSet, OpGet, OpCall, OpRet, OpBranch, OpHalt:
		buf.WriteByte(byte(inst.Op))
	default:
		return fmt.Errorf("unknown opcode 0x%02x", byte(inst.Op))
	}
	return nil
}
