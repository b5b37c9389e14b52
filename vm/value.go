package vm

import (
	"fmt"
)

type Kind byte

const (
	KindUnit Kind = iota
	KindInt
	KindBool
	KindCodeLoc
	KindUndefined
	KindBlockSize
	KindHeapAddr
)

var kindNames = [...]string{
	KindUnit:      "Unit",
	KindInt:       "Int",
	KindBool:      "Bool",
	KindCodeLoc:   "CodeLoc",
	KindUndefined: "Undefined",
	KindBlockSize: "BlockSize",
	KindHeapAddr:  "HeapAddr",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

// Value is the tagged runtime value shared by the stack, the heap and
// push literals. The zero Value is Unit. Values compare with ==.
type Value struct {
	kind Kind
	n    int64
	b    bool
}

func Unit() Value { return Value{kind: KindUnit} }
func Int(i int32) Value { return Value{kind: KindInt, n: int64(i)} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func CodeLoc(l uint32) Value { return Value{kind: KindCodeLoc, n: int64(l)} }
func Undefined() Value { return Value{kind: KindUndefined} }
func BlockSize(n int32) Value { return Value{kind: KindBlockSize, n: int64(n)} }
func HeapAddr(a int) Value { return Value{kind: KindHeapAddr, n: int64(a)} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsInt() (int32, bool) {
	return int32(v.n), v.kind == KindInt
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsCodeLoc() (uint32, bool) {
	return uint32(v.n), v.kind == KindCodeLoc
}

func (v Value) AsBlockSize() (int32, bool) {
	return int32(v.n), v.kind == KindBlockSize
}

func (v Value) AsHeapAddr() (int, bool) {
	return int(v.n), v.kind == KindHeapAddr
}

func (v Value) String() string {
	switch v.kind {
	case KindUnit, KindUndefined:
		return v.kind.String()
	case KindBool:
		return fmt.Sprintf("Bool(%t)", v.b)
	default:
		return fmt.Sprintf("%s(%d)", v.kind, v.n)
	}
}

// Interface returns the Go form of the payload, or nil for kinds without one.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt, KindBlockSize:
		return int32(v.n)
	case KindBool:
		return v.b
	case KindCodeLoc:
		return uint32(v.n)
	case KindHeapAddr:
		return int(v.n)
	}
	return nil
}
