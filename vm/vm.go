package vm

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type VM struct {
	state *State

	stackOpts []StackOpt
	heapOpts  []HeapOpt

	// 0 means no limit
	maxSteps uint64
	steps    uint64

	tracer Tracer
	logger *zap.Logger
}

type VMOpt func(*VM) *VM

func LoggerOpt(l *zap.Logger) VMOpt {
	return func(vm *VM) *VM {
		vm.logger = l
		return vm
	}
}

func MaxStackOpt(depth int) VMOpt {
	return func(vm *VM) *VM {
		vm.stackOpts = append(vm.stackOpts, MaxStack(depth))
		return vm
	}
}

func MaxHeapOpt(size int) VMOpt {
	return func(vm *VM) *VM {
		vm.heapOpts = append(vm.heapOpts, MaxHeap(size))
		return vm
	}
}

// MaxStepsOpt aborts a run with ErrStepLimit once n instructions have been
// dispatched.
func MaxStepsOpt(n uint64) VMOpt {
	return func(vm *VM) *VM {
		vm.maxSteps = n
		return vm
	}
}

func TraceOpt(t Tracer) VMOpt {
	return func(vm *VM) *VM {
		vm.tracer = t
		return vm
	}
}

func NewVM(prog Program, opts ...VMOpt) *VM {
	vm := &VM{
		logger: zap.L(),
	}

	for _, opt := range opts {
		vm = opt(vm)
	}

	vm.logger = vm.logger.Named("vm")
	vm.state = NewState(prog, vm.stackOpts, vm.heapOpts)

	return vm
}

// Run steps the machine until it halts or faults.
func (vm *VM) Run() error {
	for !vm.state.Halted {
		if err := vm.Step(); err != nil {
			vm.logger.Debug("run aborted",
				zap.Uint64("steps", vm.steps),
				zap.Error(err),
			)
			return fmt.Errorf("vm run: %w", err)
		}
	}
	vm.logger.Debug("halted",
		zap.Uint64("steps", vm.steps),
		zap.Int("stack", vm.state.Stack.Len()),
		zap.Int("heap", vm.state.Heap.Len()),
	)
	return nil
}

// Step executes exactly one instruction. Stepping a halted machine does
// nothing.
func (vm *VM) Step() error {
	s := vm.state
	if s.Halted {
		return nil
	}

	pc := s.PC
	inst, err := s.fetch()
	if err != nil {
		return vm.fail(Instruction{}, pc, err)
	}
	if vm.maxSteps > 0 && vm.steps >= vm.maxSteps {
		return vm.fail(inst, pc, faultf(ErrStepLimit, "%d steps executed", vm.steps))
	}

	if vm.tracer != nil {
		vm.tracer.Trace(pc, inst, s)
	}
	vm.logger.Debug("dispatch",
		zap.Uint32("pc", pc),
		zap.Stringer("inst", inst),
		zap.Int("stack", s.Stack.Len()),
	)

	s.PC++
	vm.steps++
	if err := vm.exec(inst); err != nil {
		return vm.fail(inst, pc, err)
	}
	return nil
}

func (vm *VM) fail(inst Instruction, pc uint32, err error) error {
	e := &Error{Op: inst.Op, PC: pc, Msg: err.Error()}
	var f *fault
	if errors.As(err, &f) {
		e.Kind = f.kind
		e.Msg = f.msg
	} else if k, ok := KindOf(err); ok {
		e.Kind = k
	}
	return e
}

func (vm *VM) State() *State {
	return vm.state
}

func (vm *VM) Halted() bool {
	return vm.state.Halted
}

// Steps is the number of instructions dispatched so far.
func (vm *VM) Steps() uint64 {
	return vm.steps
}
