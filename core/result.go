package core

import (
	"errors"

	"github.com/krehermann/gostackvm/vm"
)

// ValueView is the serialized form of a vm.Value.
type ValueView struct {
	Kind  string `json:"kind" cbor:"kind"`
	Value any    `json:"value" cbor:"value"`
	Text  string `json:"text" cbor:"text"`
}

func NewValueView(v vm.Value) ValueView {
	return ValueView{
		Kind:  v.Kind().String(),
		Value: v.Interface(),
		Text:  v.String(),
	}
}

type ErrorView struct {
	Kind    string `json:"kind" cbor:"kind"`
	PC      uint32 `json:"pc" cbor:"pc"`
	Op      string `json:"op,omitempty" cbor:"op,omitempty"`
	Message string `json:"message" cbor:"message"`
}

// Result is the final machine state of one run.
type Result struct {
	Halted   bool        `json:"halted" cbor:"halted"`
	PC       uint32      `json:"pc" cbor:"pc"`
	FP       uint32      `json:"fp" cbor:"fp"`
	Steps    uint64      `json:"steps" cbor:"steps"`
	Stack    []ValueView `json:"stack" cbor:"stack"`
	HeapSize int         `json:"heap_size" cbor:"heap_size"`
	Error    *ErrorView  `json:"error,omitempty" cbor:"error,omitempty"`
}

// NewResult snapshots machine after a run that ended with runErr.
func NewResult(machine *vm.VM, runErr error) *Result {
	s := machine.State()
	vals := s.Stack.Values()
	res := &Result{
		Halted:   s.Halted,
		PC:       s.PC,
		FP:       s.FP,
		Steps:    machine.Steps(),
		Stack:    make([]ValueView, len(vals)),
		HeapSize: s.Heap.Len(),
	}
	for i, v := range vals {
		res.Stack[i] = NewValueView(v)
	}
	if runErr != nil {
		res.Error = newErrorView(runErr)
	}
	return res
}

func newErrorView(err error) *ErrorView {
	var vmErr *vm.Error
	if errors.As(err, &vmErr) {
		view := &ErrorView{
			Kind:    vmErr.Kind.Error(),
			PC:      vmErr.PC,
			Message: vmErr.Msg,
		}
		if vmErr.Kind != vm.ErrPcOutOfBounds {
			view.Op = vmErr.Op.String()
		}
		return view
	}
	return &ErrorView{Kind: "Unknown", Message: err.Error()}
}

// Top returns the value left on top of the stack, if any.
func (r *Result) Top() (ValueView, bool) {
	if len(r.Stack) == 0 {
		return ValueView{}, false
	}
	return r.Stack[len(r.Stack)-1], true
}
