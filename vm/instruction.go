package vm

import (
	"fmt"
	"strconv"
)

// Opcode is the one byte instruction tag. The values are the wire format.
type Opcode byte

const (
	OpPush     Opcode = 0x00
	OpPop      Opcode = 0x01
	OpPeek     Opcode = 0x02
	OpUnary    Opcode = 0x03
	OpBinary   Opcode = 0x04
	OpSwap     Opcode = 0x05
	OpAlloc    Opcode = 0x06
	OpSet      Opcode = 0x07
	OpGet      Opcode = 0x08
	OpVar      Opcode = 0x09
	OpStore    Opcode = 0x0a
	OpSetFrame Opcode = 0x0b
	OpCall     Opcode = 0x0c
	OpRet      Opcode = 0x0d
	OpBranch   Opcode = 0x0e
	OpHalt     Opcode = 0x0f
)

var opcodeNames = [...]string{
	OpPush:     "push",
	OpPop:      "pop",
	OpPeek:     "peek",
	OpUnary:    "unary",
	OpBinary:   "binary",
	OpSwap:     "swap",
	OpAlloc:    "alloc",
	OpSet:      "set",
	OpGet:      "get",
	OpVar:      "var",
	OpStore:    "store",
	OpSetFrame: "setframe",
	OpCall:     "call",
	OpRet:      "ret",
	OpBranch:   "branch",
	OpHalt:     "halt",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("op(0x%02x)", byte(op))
}

// HasArg reports whether the opcode carries a u32 operand.
func (op Opcode) HasArg() bool {
	switch op {
	case OpPeek, OpVar, OpStore, OpSetFrame:
		return true
	}
	return false
}

type Unop byte

const (
	UnopNeg Unop = 0x00
)

func (u Unop) String() string {
	if u == UnopNeg {
		return "neg"
	}
	return fmt.Sprintf("unop(0x%02x)", byte(u))
}

type Binop byte

const (
	BinopAdd Binop = 0x00
	BinopMul Binop = 0x01
	BinopSub Binop = 0x02
	BinopDiv Binop = 0x03
	BinopLt  Binop = 0x04
	BinopEq  Binop = 0x05
)

var binopNames = [...]string{
	BinopAdd: "add",
	BinopMul: "mul",
	BinopSub: "sub",
	BinopDiv: "div",
	BinopLt:  "lt",
	BinopEq:  "eq",
}

func (b Binop) String() string {
	if int(b) < len(binopNames) {
		return binopNames[b]
	}
	return fmt.Sprintf("binop(0x%02x)", byte(b))
}

// Instruction is a decoded instruction. Only the operand field that belongs
// to Op is meaningful: Value for push, Arg for peek/var/store/setframe,
// Unop for unary and Binop for binary.
type Instruction struct {
	Op    Opcode
	Value Value
	Arg   uint32
	Unop  Unop
	Binop Binop
}

func Push(v Value) Instruction { return Instruction{Op: OpPush, Value: v} }
func Peek(i uint32) Instruction { return Instruction{Op: OpPeek, Arg: i} }
func Var(i uint32) Instruction { return Instruction{Op: OpVar, Arg: i} }
func Store(i uint32) Instruction { return Instruction{Op: OpStore, Arg: i} }
func SetFrame(i uint32) Instruction { return Instruction{Op: OpSetFrame, Arg: i} }
func Unary(u Unop) Instruction { return Instruction{Op: OpUnary, Unop: u} }
func Binary(b Binop) Instruction { return Instruction{Op: OpBinary, Binop: b} }
func Simple(op Opcode) Instruction { return Instruction{Op: op} }

// String renders the instruction in assembler syntax, so the output of a
// disassembly can be fed back to the assembler.
func (inst Instruction) String() string {
	switch inst.Op {
	case OpPush:
		return "push " + literal(inst.Value)
	case OpUnary:
		return inst.Unop.String()
	case OpBinary:
		return inst.Binop.String()
	}
	if inst.Op.HasArg() {
		return inst.Op.String() + " " + strconv.FormatUint(uint64(inst.Arg), 10)
	}
	return inst.Op.String()
}

func literal(v Value) string {
	switch v.kind {
	case KindUnit:
		return "unit"
	case KindUndefined:
		return "undef"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return "int " + strconv.FormatInt(v.n, 10)
	case KindCodeLoc:
		return "loc " + strconv.FormatInt(v.n, 10)
	}
	return v.String()
}

// Program is a decoded instruction sequence. It is never mutated while a
// VM executes it.
type Program []Instruction
