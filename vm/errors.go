package vm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every fatal condition the decoder or the evaluator can
// raise. Kinds are errors themselves so callers can test with errors.Is.
type ErrorKind uint8

const (
	ErrMalformedProgram ErrorKind = iota + 1
	ErrPcOutOfBounds
	ErrIndexOutOfBounds
	ErrStackOverflow
	ErrHeapOverflow
	ErrStackUnderflow
	ErrTypeMismatch
	ErrDivideByZero
	ErrCorruptFrame
	ErrInvalidSize
	ErrStepLimit
)

var errorKindNames = map[ErrorKind]string{
	ErrMalformedProgram: "MalformedProgram",
	ErrPcOutOfBounds:    "PcOutOfBounds",
	ErrIndexOutOfBounds: "IndexOutOfBounds",
	ErrStackOverflow:    "StackOverflow",
	ErrHeapOverflow:     "HeapOverflow",
	ErrStackUnderflow:   "StackUnderflow",
	ErrTypeMismatch:     "TypeMismatch",
	ErrDivideByZero:     "DivideByZero",
	ErrCorruptFrame:     "CorruptFrame",
	ErrInvalidSize:      "InvalidSize",
	ErrStepLimit:        "StepLimit",
}

func (k ErrorKind) Error() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// ParseErrorKind maps a kind name such as "DivideByZero" back to its kind.
func ParseErrorKind(name string) (ErrorKind, bool) {
	for k, n := range errorKindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Error is a fatal runtime fault. PC is the address of the faulting
// instruction, not the already advanced program counter.
type Error struct {
	Kind ErrorKind
	Op   Opcode
	PC   uint32
	Msg  string
}

func (e *Error) Error() string {
	// nothing was fetched, so there is no opcode to report
	if e.Kind == ErrPcOutOfBounds {
		return fmt.Sprintf("%s at pc %d: %s", e.Kind, e.PC, e.Msg)
	}
	if e.Msg == "" {
		return fmt.Sprintf("%s at pc %d (%s)", e.Kind, e.PC, e.Op)
	}
	return fmt.Sprintf("%s at pc %d (%s): %s", e.Kind, e.PC, e.Op, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// KindOf extracts the ErrorKind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var k ErrorKind
	if errors.As(err, &k) {
		return k, true
	}
	return 0, false
}

// fault is the error type returned by the stack, heap and opcode helpers.
// Step attaches the opcode and pc to it.
type fault struct {
	kind ErrorKind
	msg  string
}

func (f *fault) Error() string {
	return fmt.Sprintf("%s: %s", f.kind, f.msg)
}

func (f *fault) Unwrap() error {
	return f.kind
}

func faultf(kind ErrorKind, format string, args ...any) error {
	return &fault{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func typeMismatch(want Kind, got Value) error {
	return faultf(ErrTypeMismatch, "expected %s, got %s", want, got)
}
